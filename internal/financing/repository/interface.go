package repository

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for the financing module.
// The resolver itself never touches storage; the service layer fetches
// records through this interface and feeds them to the pure core.
type Repository interface {
	// Rules
	ListRules(ctx context.Context) ([]FinancingRule, error)
	ListActiveRules(ctx context.Context) ([]FinancingRule, error)
	GetRuleByID(ctx context.Context, id uuid.UUID) (FinancingRule, error)
	CreateRule(ctx context.Context, params CreateRuleParams) (FinancingRule, error)
	UpdateRule(ctx context.Context, params UpdateRuleParams) (FinancingRule, error)
	DeactivateRule(ctx context.Context, id uuid.UUID) error

	// Campaigns
	ListCampaigns(ctx context.Context) ([]FinancingCampaign, error)
	ListActiveCampaigns(ctx context.Context) ([]FinancingCampaign, error)
	GetCampaignByID(ctx context.Context, id uuid.UUID) (FinancingCampaign, error)
	CreateCampaign(ctx context.Context, params CreateCampaignParams) (FinancingCampaign, error)
	UpdateCampaign(ctx context.Context, params UpdateCampaignParams) (FinancingCampaign, error)
	DeactivateCampaign(ctx context.Context, id uuid.UUID) error

	// Quote audit log
	InsertQuote(ctx context.Context, quote FinancingQuote) (FinancingQuote, error)
	ListQuotesByLead(ctx context.Context, leadID uuid.UUID) ([]FinancingQuote, error)
}
