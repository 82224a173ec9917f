package service

import (
	"math"
	"strings"
	"testing"
	"time"

	"dealer_ops_backend/internal/financing/repository"
	"dealer_ops_backend/platform/apperr"
)

var testToday = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func testCatalog() []CatalogPrice {
	return []CatalogPrice{
		{Model: "MT-07", CashPrice: 150000, Active: true},
		{Model: "Tenere 700", CashPrice: 185000, Active: true},
		{Model: "FZ-25", CashPrice: 48000, Active: true},
		{Model: "XTZ-125", CashPrice: 0, Active: true},
		{Model: "R1 Legacy", CashPrice: 260000, Active: false},
	}
}

func standardRule() repository.FinancingRule {
	return repository.FinancingRule{
		FinancingType:         "Corto Plazo Interno",
		MinTermMonths:         12,
		MaxTermMonths:         12,
		AnnualInterestRate:    0.15,
		MinDownPaymentPercent: 30,
		Active:                true,
	}
}

func bankRule() repository.FinancingRule {
	return repository.FinancingRule{
		FinancingType:         "Credito Bancario",
		MinTermMonths:         12,
		MaxTermMonths:         60,
		AnnualInterestRate:    0.18,
		MinDownPaymentPercent: 20,
		Active:                true,
	}
}

func marchCampaign(priority int, name string) repository.FinancingCampaign {
	return repository.FinancingCampaign{
		Name:               name,
		Provider:           "Banco Union",
		StartDate:          time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		ApplicableModels:   []string{"MT-07", "Tenere 700"},
		DownPaymentPercent: 25,
		TermMonths:         18,
		AnnualInterestRate: 0.10,
		Priority:           priority,
		Active:             true,
	}
}

func assertCode(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", want)
	}
	if got := apperr.GetCode(err); got != want {
		t.Fatalf("expected code %s, got %s (%v)", want, got, err)
	}
}

func TestResolveMissingFields(t *testing.T) {
	_, err := Resolve(ResolveRequest{Model: "", FinancingType: "campaign"}, testCatalog(), nil, nil, testToday)
	assertCode(t, err, CodeMissingField)

	_, err = Resolve(ResolveRequest{Model: "MT-07", FinancingType: "  "}, testCatalog(), nil, nil, testToday)
	assertCode(t, err, CodeMissingField)
}

func TestResolveModelNotFound(t *testing.T) {
	_, err := Resolve(ResolveRequest{Model: "Vespa", FinancingType: "Credito Bancario"},
		testCatalog(), []repository.FinancingRule{bankRule()}, nil, testToday)
	assertCode(t, err, CodeModelNotFound)
}

func TestResolveInactiveModelNotMatched(t *testing.T) {
	_, err := Resolve(ResolveRequest{Model: "R1 Legacy", FinancingType: "Credito Bancario"},
		testCatalog(), []repository.FinancingRule{bankRule()}, nil, testToday)
	assertCode(t, err, CodeModelNotFound)
}

func TestResolveModelLookupIsCaseAndSpaceInsensitive(t *testing.T) {
	quote, err := Resolve(ResolveRequest{Model: "  mt-07  ", FinancingType: "Corto Plazo Interno"},
		testCatalog(), []repository.FinancingRule{standardRule()}, nil, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Model != "MT-07" {
		t.Fatalf("expected canonical model MT-07, got %s", quote.Model)
	}
}

func TestResolveModelSubstringMatch(t *testing.T) {
	quote, err := Resolve(ResolveRequest{Model: "Tenere", FinancingType: "Credito Bancario"},
		testCatalog(), []repository.FinancingRule{bankRule()}, nil, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Model != "Tenere 700" {
		t.Fatalf("expected Tenere 700, got %s", quote.Model)
	}
}

func TestResolveInvalidPrice(t *testing.T) {
	_, err := Resolve(ResolveRequest{Model: "XTZ-125", FinancingType: "Credito Bancario"},
		testCatalog(), []repository.FinancingRule{bankRule()}, nil, testToday)
	assertCode(t, err, CodeInvalidPrice)
}

func TestResolveUnknownFinancingTypeEnumeratesActives(t *testing.T) {
	rules := []repository.FinancingRule{
		standardRule(),
		bankRule(),
		{FinancingType: "Retired Plan", MinTermMonths: 6, MaxTermMonths: 6, Active: false},
	}
	_, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "Leasing"},
		testCatalog(), rules, nil, testToday)
	assertCode(t, err, CodeFinancingTypeNotFound)

	msg := err.Error()
	if !strings.Contains(msg, "Corto Plazo Interno") || !strings.Contains(msg, "Credito Bancario") {
		t.Fatalf("expected message to list active types, got %q", msg)
	}
	if strings.Contains(msg, "Retired Plan") {
		t.Fatalf("inactive type leaked into message: %q", msg)
	}
}

func TestResolveEndToEndStandardRule(t *testing.T) {
	quote, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "Corto Plazo Interno"},
		testCatalog(), []repository.FinancingRule{standardRule()}, nil, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.DownPayment != 45000 {
		t.Fatalf("expected down payment 45000, got %v", quote.DownPayment)
	}
	if quote.AmountFinanced != 105000 {
		t.Fatalf("expected amount financed 105000, got %v", quote.AmountFinanced)
	}
	if quote.TermMonths != 12 {
		t.Fatalf("expected term 12, got %d", quote.TermMonths)
	}
	if quote.MonthlyPayment < 9470 || quote.MonthlyPayment > 9480 {
		t.Fatalf("expected monthly payment near 9477, got %v", quote.MonthlyPayment)
	}
	if quote.FromCampaign {
		t.Fatal("standing-rule quote flagged as campaign")
	}
	wantTotal := quote.DownPayment + quote.MonthlyPayment*12
	if math.Abs(quote.TotalAmount-wantTotal) > 0.001 {
		t.Fatalf("total %v does not match down+installments %v", quote.TotalAmount, wantTotal)
	}
	if quote.InterestAmount <= 0 {
		t.Fatalf("expected positive interest at 15%% annual, got %v", quote.InterestAmount)
	}
}

func TestResolveDownPaymentFloor(t *testing.T) {
	catalog := []CatalogPrice{{Model: "NMAX", CashPrice: 100000, Active: true}}
	rules := []repository.FinancingRule{bankRule()}

	_, err := Resolve(ResolveRequest{
		Model: "NMAX", FinancingType: "Credito Bancario", DownPayment: floatPtr(10000),
	}, catalog, rules, nil, testToday)
	assertCode(t, err, CodeDownPaymentTooLow)

	quote, err := Resolve(ResolveRequest{
		Model: "NMAX", FinancingType: "Credito Bancario", DownPayment: floatPtr(25000),
	}, catalog, rules, nil, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DownPayment != 25000 {
		t.Fatalf("expected down payment 25000, got %v", quote.DownPayment)
	}
	if quote.AmountFinanced != 75000 {
		t.Fatalf("expected amount financed 75000, got %v", quote.AmountFinanced)
	}
}

func TestResolveFixedDownPayment(t *testing.T) {
	rule := repository.FinancingRule{
		FinancingType:           "Plan Fijo",
		MinTermMonths:           12,
		MaxTermMonths:           24,
		AnnualInterestRate:      0.12,
		FixedDownPaymentPercent: floatPtr(40),
		Active:                  true,
	}
	catalog := []CatalogPrice{{Model: "NMAX", CashPrice: 100000, Active: true}}

	// Omitting the down payment applies the fixed percentage.
	quote, err := Resolve(ResolveRequest{Model: "NMAX", FinancingType: "Plan Fijo"},
		catalog, []repository.FinancingRule{rule}, nil, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DownPayment != 40000 {
		t.Fatalf("expected fixed down payment 40000, got %v", quote.DownPayment)
	}

	// A supplied value within one currency unit of the fixed amount passes.
	_, err = Resolve(ResolveRequest{Model: "NMAX", FinancingType: "Plan Fijo", DownPayment: floatPtr(40000.50)},
		catalog, []repository.FinancingRule{rule}, nil, testToday)
	if err != nil {
		t.Fatalf("tolerance should accept 40000.50: %v", err)
	}

	// Anything further off is rejected.
	_, err = Resolve(ResolveRequest{Model: "NMAX", FinancingType: "Plan Fijo", DownPayment: floatPtr(35000)},
		catalog, []repository.FinancingRule{rule}, nil, testToday)
	assertCode(t, err, CodeFixedDownPaymentRequired)
}

func TestResolveTermValidation(t *testing.T) {
	rules := []repository.FinancingRule{bankRule()}

	_, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "Credito Bancario", TermMonths: intPtr(72)},
		testCatalog(), rules, nil, testToday)
	assertCode(t, err, CodeInvalidTerm)

	_, err = Resolve(ResolveRequest{Model: "MT-07", FinancingType: "Credito Bancario", TermMonths: intPtr(6)},
		testCatalog(), rules, nil, testToday)
	assertCode(t, err, CodeInvalidTerm)

	// Single-term rules produce the dedicated message shape.
	_, err = Resolve(ResolveRequest{Model: "MT-07", FinancingType: "Corto Plazo Interno", TermMonths: intPtr(24)},
		testCatalog(), []repository.FinancingRule{standardRule()}, nil, testToday)
	assertCode(t, err, CodeInvalidTerm)
	if !strings.Contains(err.Error(), "only allows a term of 12 months") {
		t.Fatalf("expected single-term message, got %q", err.Error())
	}
}

func TestResolveTermDefaultsToMinimum(t *testing.T) {
	quote, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "Credito Bancario"},
		testCatalog(), []repository.FinancingRule{bankRule()}, nil, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.TermMonths != 12 {
		t.Fatalf("expected default term 12, got %d", quote.TermMonths)
	}
}

func TestResolveMinimumPrice(t *testing.T) {
	rule := bankRule()
	rule.RequiresMinimumPrice = true
	rule.MinimumPrice = floatPtr(60000)

	_, err := Resolve(ResolveRequest{Model: "FZ-25", FinancingType: "Credito Bancario"},
		testCatalog(), []repository.FinancingRule{rule}, nil, testToday)
	assertCode(t, err, CodePriceBelowMinimum)

	_, err = Resolve(ResolveRequest{Model: "MT-07", FinancingType: "Credito Bancario"},
		testCatalog(), []repository.FinancingRule{rule}, nil, testToday)
	if err != nil {
		t.Fatalf("price above minimum should pass: %v", err)
	}
}

func TestResolveCampaignPath(t *testing.T) {
	campaigns := []repository.FinancingCampaign{marchCampaign(10, "Marzo Motero")}

	quote, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "campaign"},
		testCatalog(), nil, campaigns, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.FromCampaign {
		t.Fatal("expected campaign quote")
	}
	if quote.FinancingType != CampaignFinancingType {
		t.Fatalf("expected financing type %q, got %q", CampaignFinancingType, quote.FinancingType)
	}
	if quote.CampaignName != "Marzo Motero" {
		t.Fatalf("expected campaign name recorded, got %q", quote.CampaignName)
	}
	if quote.DownPayment != 37500 {
		t.Fatalf("expected 25%% down payment 37500, got %v", quote.DownPayment)
	}
	if quote.TermMonths != 18 {
		t.Fatalf("expected campaign term 18, got %d", quote.TermMonths)
	}
}

func TestResolveCampaignPriorityWins(t *testing.T) {
	low := marchCampaign(10, "Promo Base")
	high := marchCampaign(50, "Promo Especial")
	campaigns := []repository.FinancingCampaign{low, high}

	quote, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "campaign"},
		testCatalog(), nil, campaigns, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.CampaignName != "Promo Especial" {
		t.Fatalf("expected priority 50 campaign, got %q", quote.CampaignName)
	}
}

func TestResolveCampaignPriorityTieKeepsOrder(t *testing.T) {
	first := marchCampaign(10, "Primera")
	second := marchCampaign(10, "Segunda")
	campaigns := []repository.FinancingCampaign{first, second}

	quote, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "campaign"},
		testCatalog(), nil, campaigns, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.CampaignName != "Primera" {
		t.Fatalf("stable sort should keep the first campaign on a tie, got %q", quote.CampaignName)
	}
}

func TestResolveCampaignFixedTermIgnoresOverride(t *testing.T) {
	campaigns := []repository.FinancingCampaign{marchCampaign(10, "Marzo Motero")}

	quote, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "campaign", TermMonths: intPtr(36)},
		testCatalog(), nil, campaigns, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.TermMonths != 18 {
		t.Fatalf("campaign term must stay 18 regardless of override, got %d", quote.TermMonths)
	}
}

func TestResolveCampaignDateWindowInclusive(t *testing.T) {
	campaigns := []repository.FinancingCampaign{marchCampaign(10, "Marzo Motero")}

	// Both boundary days are inside the window.
	for _, day := range []time.Time{
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC),
	} {
		if _, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "campaign"},
			testCatalog(), nil, campaigns, day); err != nil {
			t.Fatalf("boundary day %v should qualify: %v", day, err)
		}
	}

	// The day after the window does not.
	after := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	_, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "campaign"},
		testCatalog(), nil, campaigns, after)
	assertCode(t, err, CodeNoCampaignAvailable)
}

func TestResolveCampaignPriceBounds(t *testing.T) {
	c := marchCampaign(10, "Gama Media")
	c.MinPrice = floatPtr(100000)
	c.MaxPrice = floatPtr(160000)
	c.ApplicableModels = []string{"MT-07", "Tenere 700", "FZ-25"}
	campaigns := []repository.FinancingCampaign{c}

	// MT-07 at 150000 is inside the band.
	if _, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "campaign"},
		testCatalog(), nil, campaigns, testToday); err != nil {
		t.Fatalf("price inside band should qualify: %v", err)
	}

	// FZ-25 at 48000 is below the band.
	_, err := Resolve(ResolveRequest{Model: "FZ-25", FinancingType: "campaign"},
		testCatalog(), nil, campaigns, testToday)
	assertCode(t, err, CodeNoCampaignAvailable)

	// Tenere 700 at 185000 is above.
	_, err = Resolve(ResolveRequest{Model: "Tenere 700", FinancingType: "campaign"},
		testCatalog(), nil, campaigns, testToday)
	assertCode(t, err, CodeNoCampaignAvailable)
}

func TestResolveCampaignModelScope(t *testing.T) {
	campaigns := []repository.FinancingCampaign{marchCampaign(10, "Marzo Motero")}

	_, err := Resolve(ResolveRequest{Model: "FZ-25", FinancingType: "campaign"},
		testCatalog(), nil, campaigns, testToday)
	assertCode(t, err, CodeNoCampaignAvailable)
}

func TestResolveCampaignDownPaymentOverride(t *testing.T) {
	campaigns := []repository.FinancingCampaign{marchCampaign(10, "Marzo Motero")}

	quote, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "campaign", DownPayment: floatPtr(60000)},
		testCatalog(), nil, campaigns, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DownPayment != 60000 {
		t.Fatalf("expected overridden down payment 60000, got %v", quote.DownPayment)
	}
	if quote.AmountFinanced != 90000 {
		t.Fatalf("expected amount financed 90000, got %v", quote.AmountFinanced)
	}

	// Overshooting the price is rejected.
	_, err = Resolve(ResolveRequest{Model: "MT-07", FinancingType: "campaign", DownPayment: floatPtr(200000)},
		testCatalog(), nil, campaigns, testToday)
	assertCode(t, err, CodeInvalidDownPayment)
}

func TestResolveRulePathIgnoresEligibleCampaign(t *testing.T) {
	// An eligible campaign must not hijack an explicit standing-rule request.
	campaigns := []repository.FinancingCampaign{marchCampaign(90, "Promo Agresiva")}

	quote, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "Corto Plazo Interno"},
		testCatalog(), []repository.FinancingRule{standardRule()}, campaigns, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.FromCampaign {
		t.Fatal("explicit rule request resolved to a campaign")
	}
	if quote.FinancingType != "Corto Plazo Interno" {
		t.Fatalf("expected rule type, got %q", quote.FinancingType)
	}
}

func TestResolveDownPaymentPercentRecorded(t *testing.T) {
	quote, err := Resolve(ResolveRequest{Model: "MT-07", FinancingType: "Corto Plazo Interno"},
		testCatalog(), []repository.FinancingRule{standardRule()}, nil, testToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.DownPaymentPercent != 30 {
		t.Fatalf("expected recorded down payment percent 30, got %v", quote.DownPaymentPercent)
	}
}
