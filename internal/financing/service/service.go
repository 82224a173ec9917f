// Package service implements financing offer resolution: selecting the
// applicable product (campaign vs standing rule) for a vehicle and
// computing a numerically correct payment schedule. The decision core
// (resolver.go, amortization.go) is pure; this file is the orchestration
// around it: fetching records, persisting the audit log, caching the
// listing endpoint.
package service

import (
	"context"
	"fmt"
	"time"

	"dealer_ops_backend/internal/events"
	"dealer_ops_backend/internal/financing/repository"
	"dealer_ops_backend/internal/financing/transport"
	"dealer_ops_backend/platform/apperr"
	"dealer_ops_backend/platform/cache"
	"dealer_ops_backend/platform/config"
	"dealer_ops_backend/platform/logger"
	"dealer_ops_backend/platform/money"

	"github.com/google/uuid"
)

const typesCachePrefix = "financing:types:"

// CatalogReader supplies the read-only catalog prices the resolver needs.
// Implemented by an adapter over the catalog module.
type CatalogReader interface {
	ListActivePrices(ctx context.Context) ([]CatalogPrice, error)
}

// Service orchestrates financing resolution and rule/campaign management.
type Service struct {
	repo     repository.Repository
	catalog  CatalogReader
	cache    *cache.Cache
	bus      events.Bus
	log      *logger.Logger
	typesTTL time.Duration
	now      func() time.Time
}

// New creates the financing service. cache may be nil (caching disabled).
func New(repo repository.Repository, catalog CatalogReader, c *cache.Cache, bus events.Bus, cfg config.FinancingConfig, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		cache:    c,
		bus:      bus,
		log:      log,
		typesTTL: cfg.GetFinancingTypesCacheTTL(),
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Calculate resolves a financing request into a quote. On success the quote
// is appended to the audit log and announced on the event bus; a failure of
// either never fails the quote itself.
func (s *Service) Calculate(ctx context.Context, req transport.CalculateFinancingRequest) (transport.QuoteResponse, error) {
	catalog, err := s.catalog.ListActivePrices(ctx)
	if err != nil {
		return transport.QuoteResponse{}, fmt.Errorf("load catalog prices: %w", err)
	}
	rules, err := s.repo.ListActiveRules(ctx)
	if err != nil {
		return transport.QuoteResponse{}, fmt.Errorf("load financing rules: %w", err)
	}
	campaigns, err := s.repo.ListActiveCampaigns(ctx)
	if err != nil {
		return transport.QuoteResponse{}, fmt.Errorf("load financing campaigns: %w", err)
	}

	quote, err := Resolve(ResolveRequest{
		Model:         req.Model,
		FinancingType: req.FinancingType,
		TermMonths:    req.TermMonths,
		DownPayment:   req.DownPayment,
	}, catalog, rules, campaigns, s.now())
	if err != nil {
		return transport.QuoteResponse{}, err
	}

	quote.LeadID = req.LeadID

	// Audit logging is best-effort: a logging fault is not a quote fault.
	logged, logErr := s.repo.InsertQuote(ctx, quote)
	if logErr != nil {
		s.log.DatabaseError("insert financing quote", logErr)
	} else {
		quote = logged
		s.bus.Publish(ctx, events.FinancingQuoteResolved{
			BaseEvent:      events.NewBaseEvent(),
			QuoteID:        logged.ID,
			LeadID:         logged.LeadID,
			Model:          logged.Model,
			FinancingType:  logged.FinancingType,
			CampaignName:   logged.CampaignName,
			FromCampaign:   logged.FromCampaign,
			TermMonths:     logged.TermMonths,
			MonthlyPayment: money.Round2(logged.MonthlyPayment),
			TotalAmount:    money.Round2(logged.TotalAmount),
		})
	}

	return quoteToResponse(quote), nil
}

// ListTypes returns the active financing rules with humanized rate/price
// strings and, optionally, the campaigns for a model. Results are cached
// briefly since the listing backs a simulator UI polling for options.
func (s *Service) ListTypes(ctx context.Context, req transport.ListFinancingTypesRequest) (transport.FinancingTypesResponse, error) {
	key := fmt.Sprintf("%s%s:%t", typesCachePrefix, NormalizeModel(req.Model), req.IncludeCampaigns)

	var response transport.FinancingTypesResponse
	err := s.cache.FetchTTL(ctx, key, s.typesTTL, &response, func(ctx context.Context) (interface{}, error) {
		fresh, err := s.listTypes(ctx, req)
		if err != nil {
			return nil, err
		}
		return fresh, nil
	})
	if err != nil {
		return transport.FinancingTypesResponse{}, err
	}
	return response, nil
}

func (s *Service) listTypes(ctx context.Context, req transport.ListFinancingTypesRequest) (transport.FinancingTypesResponse, error) {
	rules, err := s.repo.ListActiveRules(ctx)
	if err != nil {
		return transport.FinancingTypesResponse{}, fmt.Errorf("load financing rules: %w", err)
	}

	response := transport.FinancingTypesResponse{
		Types: make([]transport.FinancingTypeResponse, 0, len(rules)),
	}
	for _, rule := range rules {
		response.Types = append(response.Types, ruleToResponse(rule))
	}

	if !req.IncludeCampaigns {
		return response, nil
	}

	campaigns, err := s.repo.ListActiveCampaigns(ctx)
	if err != nil {
		return transport.FinancingTypesResponse{}, fmt.Errorf("load financing campaigns: %w", err)
	}

	today := s.now()
	normalizedModel := NormalizeModel(req.Model)
	for _, campaign := range campaigns {
		if normalizedModel != "" && !campaignCoversModel(campaign, normalizedModel) {
			continue
		}
		response.Campaigns = append(response.Campaigns, campaignToResponse(campaign, today))
	}
	return response, nil
}

// ListQuotesByLead returns the audit-log entries for a lead.
func (s *Service) ListQuotesByLead(ctx context.Context, leadID uuid.UUID) (transport.QuoteListResponse, error) {
	quotes, err := s.repo.ListQuotesByLead(ctx, leadID)
	if err != nil {
		return transport.QuoteListResponse{}, err
	}
	items := make([]transport.QuoteResponse, 0, len(quotes))
	for _, quote := range quotes {
		items = append(items, quoteToResponse(quote))
	}
	return transport.QuoteListResponse{Items: items}, nil
}

// Rule administration. Every write invalidates the types cache.

func (s *Service) ListRules(ctx context.Context) (transport.RuleListResponse, error) {
	rules, err := s.repo.ListRules(ctx)
	if err != nil {
		return transport.RuleListResponse{}, err
	}
	items := make([]transport.FinancingTypeResponse, 0, len(rules))
	for _, rule := range rules {
		items = append(items, ruleToResponse(rule))
	}
	return transport.RuleListResponse{Items: items}, nil
}

func (s *Service) CreateRule(ctx context.Context, req transport.CreateRuleRequest) (transport.FinancingTypeResponse, error) {
	rule, err := s.repo.CreateRule(ctx, repository.CreateRuleParams{
		FinancingType:           req.FinancingType,
		MinTermMonths:           req.MinTermMonths,
		MaxTermMonths:           req.MaxTermMonths,
		AnnualInterestRate:      req.AnnualInterestRate,
		MinDownPaymentPercent:   req.MinDownPaymentPercent,
		FixedDownPaymentPercent: req.FixedDownPaymentPercent,
		RequiresMinimumPrice:    req.RequiresMinimumPrice,
		MinimumPrice:            req.MinimumPrice,
	})
	if err != nil {
		return transport.FinancingTypeResponse{}, err
	}
	s.invalidateTypesCache(ctx)
	return ruleToResponse(rule), nil
}

func (s *Service) UpdateRule(ctx context.Context, id uuid.UUID, req transport.UpdateRuleRequest) (transport.FinancingTypeResponse, error) {
	rule, err := s.repo.UpdateRule(ctx, repository.UpdateRuleParams{
		ID:                      id,
		MinTermMonths:           req.MinTermMonths,
		MaxTermMonths:           req.MaxTermMonths,
		AnnualInterestRate:      req.AnnualInterestRate,
		MinDownPaymentPercent:   req.MinDownPaymentPercent,
		FixedDownPaymentPercent: req.FixedDownPaymentPercent,
		RequiresMinimumPrice:    req.RequiresMinimumPrice,
		MinimumPrice:            req.MinimumPrice,
		Active:                  req.Active,
	})
	if err != nil {
		return transport.FinancingTypeResponse{}, err
	}
	s.invalidateTypesCache(ctx)
	return ruleToResponse(rule), nil
}

func (s *Service) DeactivateRule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeactivateRule(ctx, id); err != nil {
		return err
	}
	s.invalidateTypesCache(ctx)
	return nil
}

// Campaign administration.

func (s *Service) ListCampaigns(ctx context.Context) (transport.CampaignListResponse, error) {
	campaigns, err := s.repo.ListCampaigns(ctx)
	if err != nil {
		return transport.CampaignListResponse{}, err
	}
	today := s.now()
	items := make([]transport.CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		items = append(items, campaignToResponse(campaign, today))
	}
	return transport.CampaignListResponse{Items: items}, nil
}

func (s *Service) CreateCampaign(ctx context.Context, req transport.CreateCampaignRequest) (transport.CampaignResponse, error) {
	start, end, err := parseCampaignWindow(req.StartDate, req.EndDate)
	if err != nil {
		return transport.CampaignResponse{}, err
	}

	campaign, err := s.repo.CreateCampaign(ctx, repository.CreateCampaignParams{
		Name:               req.Name,
		Provider:           req.Provider,
		StartDate:          start,
		EndDate:            end,
		ApplicableModels:   req.ApplicableModels,
		MinPrice:           req.MinPrice,
		MaxPrice:           req.MaxPrice,
		DownPaymentPercent: req.DownPaymentPercent,
		TermMonths:         req.TermMonths,
		AnnualInterestRate: req.AnnualInterestRate,
		Priority:           req.Priority,
	})
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	s.invalidateTypesCache(ctx)
	return campaignToResponse(campaign, s.now()), nil
}

func (s *Service) UpdateCampaign(ctx context.Context, id uuid.UUID, req transport.UpdateCampaignRequest) (transport.CampaignResponse, error) {
	params := repository.UpdateCampaignParams{
		ID:                 id,
		Provider:           req.Provider,
		ApplicableModels:   req.ApplicableModels,
		MinPrice:           req.MinPrice,
		MaxPrice:           req.MaxPrice,
		DownPaymentPercent: req.DownPaymentPercent,
		TermMonths:         req.TermMonths,
		AnnualInterestRate: req.AnnualInterestRate,
		Priority:           req.Priority,
		Active:             req.Active,
	}
	if req.StartDate != nil {
		start, err := money.ParseDate(*req.StartDate)
		if err != nil {
			return transport.CampaignResponse{}, apperr.Validation(fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", *req.StartDate))
		}
		params.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := money.ParseDate(*req.EndDate)
		if err != nil {
			return transport.CampaignResponse{}, apperr.Validation(fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", *req.EndDate))
		}
		params.EndDate = &end
	}

	campaign, err := s.repo.UpdateCampaign(ctx, params)
	if err != nil {
		return transport.CampaignResponse{}, err
	}
	s.invalidateTypesCache(ctx)
	return campaignToResponse(campaign, s.now()), nil
}

func (s *Service) DeactivateCampaign(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeactivateCampaign(ctx, id); err != nil {
		return err
	}
	s.invalidateTypesCache(ctx)
	return nil
}

func (s *Service) invalidateTypesCache(ctx context.Context) {
	if err := s.cache.DeletePrefix(ctx, typesCachePrefix); err != nil {
		s.log.Error("financing types cache invalidation failed", "error", err)
	}
}

// Mapping helpers. Monetary amounts are rounded to two decimals here, at
// the presentation boundary.

func quoteToResponse(quote repository.FinancingQuote) transport.QuoteResponse {
	var quoteID *uuid.UUID
	if quote.ID != uuid.Nil {
		id := quote.ID
		quoteID = &id
	}
	return transport.QuoteResponse{
		Model:              quote.Model,
		Price:              money.Round2(quote.Price),
		FinancingType:      quote.FinancingType,
		CampaignName:       quote.CampaignName,
		Provider:           quote.Provider,
		TermMonths:         quote.TermMonths,
		DownPayment:        money.Round2(quote.DownPayment),
		AmountFinanced:     money.Round2(quote.AmountFinanced),
		MonthlyPayment:     money.Round2(quote.MonthlyPayment),
		TotalAmount:        money.Round2(quote.TotalAmount),
		InterestAmount:     money.Round2(quote.InterestAmount),
		DownPaymentPercent: quote.DownPaymentPercent,
		FromCampaign:       quote.FromCampaign,
		MonthlyPaymentText: money.Format(quote.MonthlyPayment),
		TotalAmountText:    money.Format(quote.TotalAmount),
		QuoteID:            quoteID,
	}
}

func ruleToResponse(rule repository.FinancingRule) transport.FinancingTypeResponse {
	resp := transport.FinancingTypeResponse{
		ID:                      rule.ID,
		FinancingType:           rule.FinancingType,
		MinTermMonths:           rule.MinTermMonths,
		MaxTermMonths:           rule.MaxTermMonths,
		AnnualInterestRate:      rule.AnnualInterestRate,
		AnnualInterestRateText:  money.FormatPercent(rule.AnnualInterestRate),
		MinDownPaymentPercent:   rule.MinDownPaymentPercent,
		FixedDownPaymentPercent: rule.FixedDownPaymentPercent,
		MinimumPrice:            rule.MinimumPrice,
	}
	if rule.MinimumPrice != nil {
		resp.MinimumPriceText = money.Format(*rule.MinimumPrice)
	}
	return resp
}

func campaignToResponse(campaign repository.FinancingCampaign, today time.Time) transport.CampaignResponse {
	return transport.CampaignResponse{
		ID:                 campaign.ID,
		Name:               campaign.Name,
		Provider:           campaign.Provider,
		StartDate:          money.FormatDate(campaign.StartDate),
		EndDate:            money.FormatDate(campaign.EndDate),
		ApplicableModels:   campaign.ApplicableModels,
		MinPrice:           campaign.MinPrice,
		MaxPrice:           campaign.MaxPrice,
		DownPaymentPercent: campaign.DownPaymentPercent,
		TermMonths:         campaign.TermMonths,
		AnnualInterestRate: campaign.AnnualInterestRate,
		Priority:           campaign.Priority,
		Active:             campaign.Active,
		IsActiveNow:        campaign.Active && money.WithinRange(today, campaign.StartDate, campaign.EndDate),
		DaysRemaining:      money.DaysUntil(today, campaign.EndDate),
	}
}

func parseCampaignWindow(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := money.ParseDate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation(fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", startDate))
	}
	end, err := money.ParseDate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, apperr.Validation(fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", endDate))
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, apperr.Validation("campaign end date precedes start date")
	}
	return start, end, nil
}
