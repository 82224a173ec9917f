package repository

import (
	"time"

	"github.com/google/uuid"
)

// FinancingRule is a standing financing product, always available while
// active. Rules are authored by staff and soft-deactivated, never deleted.
type FinancingRule struct {
	ID                      uuid.UUID
	FinancingType           string
	MinTermMonths           int
	MaxTermMonths           int
	AnnualInterestRate      float64
	MinDownPaymentPercent   float64
	FixedDownPaymentPercent *float64
	RequiresMinimumPrice    bool
	MinimumPrice            *float64
	Active                  bool
	CreatedAt               string
	UpdatedAt               string
}

// FinancingCampaign is a time-boxed, model-scoped, prioritized financing
// promotion. Date range is inclusive on both ends.
type FinancingCampaign struct {
	ID                 uuid.UUID
	Name               string
	Provider           string
	StartDate          time.Time
	EndDate            time.Time
	ApplicableModels   []string
	MinPrice           *float64
	MaxPrice           *float64
	DownPaymentPercent float64
	TermMonths         int
	AnnualInterestRate float64
	Priority           int
	Active             bool
	CreatedAt          string
	UpdatedAt          string
}

// FinancingQuote is the resolved offer, persisted once per successful
// resolution as the audit-log record. Immutable after insert.
type FinancingQuote struct {
	ID                 uuid.UUID
	LeadID             *uuid.UUID
	Model              string
	Price              float64
	FinancingType      string
	CampaignName       string
	Provider           string
	TermMonths         int
	DownPayment        float64
	AmountFinanced     float64
	MonthlyPayment     float64
	TotalAmount        float64
	InterestAmount     float64
	DownPaymentPercent float64
	FromCampaign       bool
	CreatedAt          string
}

// CreateRuleParams holds the fields for inserting a financing rule.
type CreateRuleParams struct {
	FinancingType           string
	MinTermMonths           int
	MaxTermMonths           int
	AnnualInterestRate      float64
	MinDownPaymentPercent   float64
	FixedDownPaymentPercent *float64
	RequiresMinimumPrice    bool
	MinimumPrice            *float64
}

// UpdateRuleParams holds optional fields for updating a financing rule.
// Nil fields keep their current value.
type UpdateRuleParams struct {
	ID                      uuid.UUID
	MinTermMonths           *int
	MaxTermMonths           *int
	AnnualInterestRate      *float64
	MinDownPaymentPercent   *float64
	FixedDownPaymentPercent *float64
	RequiresMinimumPrice    *bool
	MinimumPrice            *float64
	Active                  *bool
}

// CreateCampaignParams holds the fields for inserting a campaign.
type CreateCampaignParams struct {
	Name               string
	Provider           string
	StartDate          time.Time
	EndDate            time.Time
	ApplicableModels   []string
	MinPrice           *float64
	MaxPrice           *float64
	DownPaymentPercent float64
	TermMonths         int
	AnnualInterestRate float64
	Priority           int
}

// UpdateCampaignParams holds optional fields for updating a campaign.
type UpdateCampaignParams struct {
	ID                 uuid.UUID
	Provider           *string
	StartDate          *time.Time
	EndDate            *time.Time
	ApplicableModels   []string
	MinPrice           *float64
	MaxPrice           *float64
	DownPaymentPercent *float64
	TermMonths         *int
	AnnualInterestRate *float64
	Priority           *int
	Active             *bool
}
