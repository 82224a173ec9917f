package service

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"dealer_ops_backend/internal/financing/repository"
	"dealer_ops_backend/platform/apperr"
	"dealer_ops_backend/platform/money"
)

// Machine-stable error codes for financing resolution failures. All of
// them are expected validation outcomes and map to HTTP 400; the message
// carries the dynamic context, the code never changes.
const (
	CodeMissingField             = "MISSING_FIELD"
	CodeModelNotFound            = "MODEL_NOT_FOUND"
	CodeInvalidPrice             = "INVALID_PRICE"
	CodeNoCampaignAvailable      = "NO_CAMPAIGN_AVAILABLE"
	CodeFinancingTypeNotFound    = "FINANCING_TYPE_NOT_FOUND"
	CodePriceBelowMinimum        = "PRICE_BELOW_MINIMUM"
	CodeInvalidTerm              = "INVALID_TERM"
	CodeFixedDownPaymentRequired = "FIXED_DOWN_PAYMENT_REQUIRED"
	CodeDownPaymentTooLow        = "DOWN_PAYMENT_TOO_LOW"
	CodeInvalidDownPayment       = "INVALID_DOWN_PAYMENT"
)

// CampaignFinancingType selects the campaign path when passed as the
// request's financing type.
const CampaignFinancingType = "campaign"

// fixedDownPaymentTolerance is how far (in currency units) a caller-supplied
// down payment may drift from a rule's fixed percentage before the request
// is rejected.
const fixedDownPaymentTolerance = 1.0

// CatalogPrice is the read-only catalog input fed to the resolver.
type CatalogPrice struct {
	Model     string
	CashPrice float64
	Active    bool
}

// ResolveRequest is the caller's financing request. TermMonths and
// DownPayment are optional overrides.
type ResolveRequest struct {
	Model         string
	FinancingType string
	TermMonths    *int
	DownPayment   *float64
}

// Resolve picks the applicable financing offer for a vehicle model, either
// a time-boxed campaign or a standing rule, validates its constraints and
// computes the payment schedule. It is a pure function over the supplied
// records: callers fetch catalog/rules/campaigns, pass them in, and persist
// the returned quote themselves.
func Resolve(req ResolveRequest, catalog []CatalogPrice, rules []repository.FinancingRule, campaigns []repository.FinancingCampaign, today time.Time) (repository.FinancingQuote, error) {
	modelInput := strings.TrimSpace(req.Model)
	if modelInput == "" {
		return repository.FinancingQuote{}, apperr.ValidationCode(CodeMissingField, "model is required")
	}
	if strings.TrimSpace(req.FinancingType) == "" {
		return repository.FinancingQuote{}, apperr.ValidationCode(CodeMissingField, "financing type is required")
	}

	entry, err := lookupModel(modelInput, catalog)
	if err != nil {
		return repository.FinancingQuote{}, err
	}
	if entry.CashPrice <= 0 {
		return repository.FinancingQuote{}, apperr.ValidationCode(CodeInvalidPrice,
			fmt.Sprintf("model %s has no valid price", entry.Model))
	}

	campaign := activeCampaignFor(entry.Model, entry.CashPrice, campaigns, today)

	if strings.EqualFold(strings.TrimSpace(req.FinancingType), CampaignFinancingType) {
		if campaign == nil {
			return repository.FinancingQuote{}, apperr.ValidationCode(CodeNoCampaignAvailable,
				fmt.Sprintf("no campaign is currently available for model %s", entry.Model))
		}
		return resolveCampaign(req, entry, *campaign)
	}

	return resolveRule(req, entry, rules)
}

// NormalizeModel folds a model string to its canonical matching token:
// upper-cased with runs of whitespace collapsed to single spaces.
func NormalizeModel(value string) string {
	return strings.ToUpper(strings.Join(strings.Fields(value), " "))
}

// lookupModel finds the catalog entry for the requested model: exact
// case-insensitive match first, then a substring pass against both the
// normalized and the raw input.
func lookupModel(input string, catalog []CatalogPrice) (CatalogPrice, error) {
	normalized := NormalizeModel(input)
	rawUpper := strings.ToUpper(strings.TrimSpace(input))

	for _, entry := range catalog {
		if entry.Active && NormalizeModel(entry.Model) == normalized {
			return entry, nil
		}
	}

	for _, entry := range catalog {
		if !entry.Active {
			continue
		}
		candidate := NormalizeModel(entry.Model)
		if strings.Contains(candidate, normalized) || strings.Contains(normalized, candidate) ||
			strings.Contains(candidate, rawUpper) || strings.Contains(rawUpper, candidate) {
			return entry, nil
		}
	}

	return CatalogPrice{}, apperr.ValidationCode(CodeModelNotFound,
		fmt.Sprintf("model %q not found in catalog", input))
}

// activeCampaignFor selects the eligible campaign with the highest
// priority. The sort is stable, so ties keep the caller-supplied order.
// Returns nil when no campaign is eligible.
func activeCampaignFor(model string, price float64, campaigns []repository.FinancingCampaign, today time.Time) *repository.FinancingCampaign {
	normalized := NormalizeModel(model)

	eligible := make([]repository.FinancingCampaign, 0, len(campaigns))
	for _, c := range campaigns {
		if !c.Active {
			continue
		}
		if !money.WithinRange(today, c.StartDate, c.EndDate) {
			continue
		}
		if !campaignCoversModel(c, normalized) {
			continue
		}
		if c.MinPrice != nil && price < *c.MinPrice {
			continue
		}
		if c.MaxPrice != nil && price > *c.MaxPrice {
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].Priority > eligible[j].Priority
	})
	return &eligible[0]
}

func campaignCoversModel(c repository.FinancingCampaign, normalizedModel string) bool {
	for _, m := range c.ApplicableModels {
		if NormalizeModel(m) == normalizedModel {
			return true
		}
	}
	return false
}

// resolveCampaign builds a quote on the campaign path. Campaigns are
// fixed-term by design: a request term override is ignored.
func resolveCampaign(req ResolveRequest, entry CatalogPrice, campaign repository.FinancingCampaign) (repository.FinancingQuote, error) {
	price := entry.CashPrice

	downPayment := price * campaign.DownPaymentPercent / 100
	if req.DownPayment != nil {
		downPayment = *req.DownPayment
	}

	amountFinanced := price - downPayment
	if amountFinanced < 0 {
		return repository.FinancingQuote{}, apperr.ValidationCode(CodeInvalidDownPayment,
			fmt.Sprintf("down payment %s exceeds the vehicle price %s",
				money.Format(downPayment), money.Format(price)))
	}

	return buildQuote(entry, CampaignFinancingType, campaign.Name, campaign.Provider,
		campaign.TermMonths, campaign.AnnualInterestRate, downPayment, true), nil
}

// resolveRule builds a quote on the standing-rule path.
func resolveRule(req ResolveRequest, entry CatalogPrice, rules []repository.FinancingRule) (repository.FinancingQuote, error) {
	price := entry.CashPrice

	rule, ok := findRule(req.FinancingType, rules)
	if !ok {
		return repository.FinancingQuote{}, apperr.ValidationCode(CodeFinancingTypeNotFound,
			fmt.Sprintf("financing type %q not found; available types: %s",
				req.FinancingType, strings.Join(activeTypeNames(rules), ", ")))
	}

	if rule.RequiresMinimumPrice && rule.MinimumPrice != nil && price < *rule.MinimumPrice {
		return repository.FinancingQuote{}, apperr.ValidationCode(CodePriceBelowMinimum,
			fmt.Sprintf("%s requires a minimum price of %s; %s is priced at %s",
				rule.FinancingType, money.Format(*rule.MinimumPrice), entry.Model, money.Format(price)))
	}

	term := rule.MinTermMonths
	if req.TermMonths != nil {
		term = *req.TermMonths
	}
	if term < rule.MinTermMonths || term > rule.MaxTermMonths {
		message := fmt.Sprintf("term must be between %d and %d months", rule.MinTermMonths, rule.MaxTermMonths)
		if rule.MinTermMonths == rule.MaxTermMonths {
			message = fmt.Sprintf("%s only allows a term of %d months", rule.FinancingType, rule.MinTermMonths)
		}
		return repository.FinancingQuote{}, apperr.ValidationCode(CodeInvalidTerm, message)
	}

	var downPayment float64
	if rule.FixedDownPaymentPercent != nil {
		downPayment = price * *rule.FixedDownPaymentPercent / 100
		if req.DownPayment != nil && math.Abs(*req.DownPayment-downPayment) > fixedDownPaymentTolerance {
			return repository.FinancingQuote{}, apperr.ValidationCode(CodeFixedDownPaymentRequired,
				fmt.Sprintf("%s requires a fixed down payment of %s (%.2f%% of price)",
					rule.FinancingType, money.Format(downPayment), *rule.FixedDownPaymentPercent))
		}
	} else {
		minimum := price * rule.MinDownPaymentPercent / 100
		downPayment = minimum
		if req.DownPayment != nil {
			downPayment = *req.DownPayment
		}
		if downPayment < minimum {
			return repository.FinancingQuote{}, apperr.ValidationCode(CodeDownPaymentTooLow,
				fmt.Sprintf("down payment must be at least %s (%.2f%% of price)",
					money.Format(minimum), rule.MinDownPaymentPercent))
		}
	}

	if downPayment > price {
		return repository.FinancingQuote{}, apperr.ValidationCode(CodeInvalidDownPayment,
			fmt.Sprintf("down payment %s exceeds the vehicle price %s",
				money.Format(downPayment), money.Format(price)))
	}

	return buildQuote(entry, rule.FinancingType, "", "",
		term, rule.AnnualInterestRate, downPayment, false), nil
}

func findRule(financingType string, rules []repository.FinancingRule) (repository.FinancingRule, bool) {
	wanted := strings.TrimSpace(financingType)
	for _, rule := range rules {
		if rule.Active && strings.EqualFold(rule.FinancingType, wanted) {
			return rule, true
		}
	}
	return repository.FinancingRule{}, false
}

func activeTypeNames(rules []repository.FinancingRule) []string {
	names := make([]string, 0, len(rules))
	for _, rule := range rules {
		if rule.Active {
			names = append(names, rule.FinancingType)
		}
	}
	return names
}

func buildQuote(entry CatalogPrice, financingType, campaignName, provider string, term int, annualRate, downPayment float64, fromCampaign bool) repository.FinancingQuote {
	price := entry.CashPrice
	amountFinanced := price - downPayment
	monthly := MonthlyPayment(amountFinanced, annualRate, term)
	total := downPayment + monthly*float64(term)

	return repository.FinancingQuote{
		Model:              entry.Model,
		Price:              price,
		FinancingType:      financingType,
		CampaignName:       campaignName,
		Provider:           provider,
		TermMonths:         term,
		DownPayment:        downPayment,
		AmountFinanced:     amountFinanced,
		MonthlyPayment:     monthly,
		TotalAmount:        total,
		InterestAmount:     total - price,
		DownPaymentPercent: money.Round2(downPayment / price * 100),
		FromCampaign:       fromCampaign,
	}
}
