package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"dealer_ops_backend/internal/financing/repository"
	"dealer_ops_backend/internal/financing/transport"
	"dealer_ops_backend/platform/cache"
	platformevents "dealer_ops_backend/platform/events"
	"dealer_ops_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// fakeRepo serves rules and campaigns from memory and counts reads so the
// cache tests can tell a hit from a miss.
type fakeRepo struct {
	rules           []repository.FinancingRule
	campaigns       []repository.FinancingCampaign
	quotes          []repository.FinancingQuote
	activeRuleReads int
	insertQuoteErr  error
}

var _ repository.Repository = (*fakeRepo)(nil)

func (f *fakeRepo) ListRules(_ context.Context) ([]repository.FinancingRule, error) {
	return f.rules, nil
}

func (f *fakeRepo) ListActiveRules(_ context.Context) ([]repository.FinancingRule, error) {
	f.activeRuleReads++
	var active []repository.FinancingRule
	for _, rule := range f.rules {
		if rule.Active {
			active = append(active, rule)
		}
	}
	return active, nil
}

func (f *fakeRepo) GetRuleByID(_ context.Context, id uuid.UUID) (repository.FinancingRule, error) {
	for _, rule := range f.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return repository.FinancingRule{}, errors.New("rule not found")
}

func (f *fakeRepo) CreateRule(_ context.Context, params repository.CreateRuleParams) (repository.FinancingRule, error) {
	rule := repository.FinancingRule{
		ID:                    uuid.New(),
		FinancingType:         params.FinancingType,
		MinTermMonths:         params.MinTermMonths,
		MaxTermMonths:         params.MaxTermMonths,
		AnnualInterestRate:    params.AnnualInterestRate,
		MinDownPaymentPercent: params.MinDownPaymentPercent,
		Active:                true,
	}
	f.rules = append(f.rules, rule)
	return rule, nil
}

func (f *fakeRepo) UpdateRule(_ context.Context, params repository.UpdateRuleParams) (repository.FinancingRule, error) {
	for i := range f.rules {
		if f.rules[i].ID == params.ID {
			if params.AnnualInterestRate != nil {
				f.rules[i].AnnualInterestRate = *params.AnnualInterestRate
			}
			if params.Active != nil {
				f.rules[i].Active = *params.Active
			}
			return f.rules[i], nil
		}
	}
	return repository.FinancingRule{}, errors.New("rule not found")
}

func (f *fakeRepo) DeactivateRule(_ context.Context, id uuid.UUID) error {
	for i := range f.rules {
		if f.rules[i].ID == id {
			f.rules[i].Active = false
			return nil
		}
	}
	return errors.New("rule not found")
}

func (f *fakeRepo) ListCampaigns(_ context.Context) ([]repository.FinancingCampaign, error) {
	return f.campaigns, nil
}

func (f *fakeRepo) ListActiveCampaigns(_ context.Context) ([]repository.FinancingCampaign, error) {
	var active []repository.FinancingCampaign
	for _, campaign := range f.campaigns {
		if campaign.Active {
			active = append(active, campaign)
		}
	}
	return active, nil
}

func (f *fakeRepo) GetCampaignByID(_ context.Context, id uuid.UUID) (repository.FinancingCampaign, error) {
	for _, campaign := range f.campaigns {
		if campaign.ID == id {
			return campaign, nil
		}
	}
	return repository.FinancingCampaign{}, errors.New("campaign not found")
}

func (f *fakeRepo) CreateCampaign(_ context.Context, params repository.CreateCampaignParams) (repository.FinancingCampaign, error) {
	campaign := repository.FinancingCampaign{
		ID:                 uuid.New(),
		Name:               params.Name,
		Provider:           params.Provider,
		StartDate:          params.StartDate,
		EndDate:            params.EndDate,
		ApplicableModels:   params.ApplicableModels,
		DownPaymentPercent: params.DownPaymentPercent,
		TermMonths:         params.TermMonths,
		AnnualInterestRate: params.AnnualInterestRate,
		Priority:           params.Priority,
		Active:             true,
	}
	f.campaigns = append(f.campaigns, campaign)
	return campaign, nil
}

func (f *fakeRepo) UpdateCampaign(_ context.Context, params repository.UpdateCampaignParams) (repository.FinancingCampaign, error) {
	for i := range f.campaigns {
		if f.campaigns[i].ID == params.ID {
			if params.Priority != nil {
				f.campaigns[i].Priority = *params.Priority
			}
			if params.Active != nil {
				f.campaigns[i].Active = *params.Active
			}
			return f.campaigns[i], nil
		}
	}
	return repository.FinancingCampaign{}, errors.New("campaign not found")
}

func (f *fakeRepo) DeactivateCampaign(_ context.Context, id uuid.UUID) error {
	for i := range f.campaigns {
		if f.campaigns[i].ID == id {
			f.campaigns[i].Active = false
			return nil
		}
	}
	return errors.New("campaign not found")
}

func (f *fakeRepo) InsertQuote(_ context.Context, quote repository.FinancingQuote) (repository.FinancingQuote, error) {
	if f.insertQuoteErr != nil {
		return repository.FinancingQuote{}, f.insertQuoteErr
	}
	quote.ID = uuid.New()
	quote.CreatedAt = time.Now().Format(time.RFC3339)
	f.quotes = append(f.quotes, quote)
	return quote, nil
}

func (f *fakeRepo) ListQuotesByLead(_ context.Context, leadID uuid.UUID) ([]repository.FinancingQuote, error) {
	var matched []repository.FinancingQuote
	for _, quote := range f.quotes {
		if quote.LeadID != nil && *quote.LeadID == leadID {
			matched = append(matched, quote)
		}
	}
	return matched, nil
}

type fakeCatalog struct {
	prices []CatalogPrice
}

func (f *fakeCatalog) ListActivePrices(_ context.Context) ([]CatalogPrice, error) {
	return f.prices, nil
}

type testFinancingConfig struct{}

func (testFinancingConfig) GetFinancingTypesCacheTTL() time.Duration { return time.Minute }

func newServiceTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	return cache.NewWithClient(client, time.Minute)
}

func newTestService(t *testing.T, repo *fakeRepo, c *cache.Cache) *Service {
	t.Helper()
	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	catalog := &fakeCatalog{prices: testCatalog()}
	svc := New(repo, catalog, c, bus, testFinancingConfig{}, log)
	return svc.WithClock(func() time.Time { return testToday })
}

func seededRule() repository.FinancingRule {
	rule := standardRule()
	rule.ID = uuid.New()
	rule.CreatedAt = testToday.Format(time.RFC3339)
	rule.UpdatedAt = rule.CreatedAt
	return rule
}

func TestListTypesCachesUntilAdminWrite(t *testing.T) {
	repo := &fakeRepo{rules: []repository.FinancingRule{seededRule()}}
	svc := newTestService(t, repo, newServiceTestCache(t))
	ctx := context.Background()

	first, err := svc.ListTypes(ctx, transport.ListFinancingTypesRequest{})
	if err != nil {
		t.Fatalf("list types: %v", err)
	}
	if len(first.Types) != 1 {
		t.Fatalf("expected 1 type, got %d", len(first.Types))
	}
	if repo.activeRuleReads != 1 {
		t.Fatalf("expected 1 repository read, got %d", repo.activeRuleReads)
	}

	// Second call is served from the cache.
	if _, err := svc.ListTypes(ctx, transport.ListFinancingTypesRequest{}); err != nil {
		t.Fatalf("cached list types: %v", err)
	}
	if repo.activeRuleReads != 1 {
		t.Fatalf("expected cached response, repository read %d times", repo.activeRuleReads)
	}

	// An admin write invalidates the listing.
	if err := svc.DeactivateRule(ctx, repo.rules[0].ID); err != nil {
		t.Fatalf("deactivate rule: %v", err)
	}
	after, err := svc.ListTypes(ctx, transport.ListFinancingTypesRequest{})
	if err != nil {
		t.Fatalf("list types after deactivation: %v", err)
	}
	if repo.activeRuleReads != 2 {
		t.Fatalf("expected fresh read after invalidation, got %d reads", repo.activeRuleReads)
	}
	if len(after.Types) != 0 {
		t.Fatalf("expected deactivated rule to disappear, got %d types", len(after.Types))
	}
}

func TestListTypesWithoutRedis(t *testing.T) {
	repo := &fakeRepo{rules: []repository.FinancingRule{seededRule()}}
	svc := newTestService(t, repo, nil)

	for i := 0; i < 2; i++ {
		response, err := svc.ListTypes(context.Background(), transport.ListFinancingTypesRequest{})
		if err != nil {
			t.Fatalf("list types: %v", err)
		}
		if len(response.Types) != 1 {
			t.Fatalf("expected 1 type, got %d", len(response.Types))
		}
	}
	if repo.activeRuleReads != 2 {
		t.Fatalf("nil cache must always miss, got %d reads", repo.activeRuleReads)
	}
}

func TestCalculatePersistsAuditQuote(t *testing.T) {
	repo := &fakeRepo{rules: []repository.FinancingRule{seededRule()}}
	svc := newTestService(t, repo, nil)
	leadID := uuid.New()

	quote, err := svc.Calculate(context.Background(), transport.CalculateFinancingRequest{
		Model:         "MT-07",
		FinancingType: "Corto Plazo Interno",
		DownPayment:   floatPtr(45000),
		LeadID:        &leadID,
	})
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if quote.QuoteID == nil || *quote.QuoteID == uuid.Nil {
		t.Fatalf("expected persisted quote id")
	}
	if quote.AmountFinanced != 105000 {
		t.Fatalf("expected 105000 financed, got %v", quote.AmountFinanced)
	}

	stored, err := svc.ListQuotesByLead(context.Background(), leadID)
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	if len(stored.Items) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(stored.Items))
	}
}

func TestCalculateSurvivesAuditFailure(t *testing.T) {
	repo := &fakeRepo{
		rules:          []repository.FinancingRule{seededRule()},
		insertQuoteErr: errors.New("connection reset"),
	}
	svc := newTestService(t, repo, nil)

	quote, err := svc.Calculate(context.Background(), transport.CalculateFinancingRequest{
		Model:         "MT-07",
		FinancingType: "Corto Plazo Interno",
		DownPayment:   floatPtr(45000),
	})
	if err != nil {
		t.Fatalf("audit failure must not fail the quote: %v", err)
	}
	if quote.MonthlyPayment <= 0 {
		t.Fatalf("expected a computed payment, got %v", quote.MonthlyPayment)
	}

	// Without a stored audit record there is no quote id to report.
	if quote.QuoteID != nil {
		t.Fatalf("expected no quote id, got %v", quote.QuoteID)
	}
	body, err := json.Marshal(quote)
	if err != nil {
		t.Fatalf("marshal quote: %v", err)
	}
	if strings.Contains(string(body), "quoteId") {
		t.Fatalf("unpersisted quote must omit quoteId: %s", body)
	}
}
