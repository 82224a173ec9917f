package transport

import "github.com/google/uuid"

// Calculation

type CalculateFinancingRequest struct {
	Model         string     `json:"model" validate:"required,min=1,max=100"`
	FinancingType string     `json:"financingType" validate:"required,min=1,max=100"`
	TermMonths    *int       `json:"termMonths,omitempty" validate:"omitempty,min=1,max=120"`
	DownPayment   *float64   `json:"downPayment,omitempty" validate:"omitempty,min=0"`
	LeadID        *uuid.UUID `json:"leadId,omitempty"`
}

// CalculateFinancingResponse is the envelope for the calculation API.
// Error carries a machine-stable code; Message the human-readable text.
type CalculateFinancingResponse struct {
	Success bool           `json:"success"`
	Data    *QuoteResponse `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
}

type QuoteResponse struct {
	Model              string     `json:"model"`
	Price              float64    `json:"price"`
	FinancingType      string     `json:"financingType"`
	CampaignName       string     `json:"campaignName,omitempty"`
	Provider           string     `json:"provider,omitempty"`
	TermMonths         int        `json:"termMonths"`
	DownPayment        float64    `json:"downPayment"`
	AmountFinanced     float64    `json:"amountFinanced"`
	MonthlyPayment     float64    `json:"monthlyPayment"`
	TotalAmount        float64    `json:"totalAmount"`
	InterestAmount     float64    `json:"interestAmount"`
	DownPaymentPercent float64    `json:"downPaymentPercent"`
	FromCampaign       bool       `json:"fromCampaign"`
	MonthlyPaymentText string     `json:"monthlyPaymentText"`
	TotalAmountText    string     `json:"totalAmountText"`
	QuoteID            *uuid.UUID `json:"quoteId,omitempty"`
}

// Financing types listing

type ListFinancingTypesRequest struct {
	IncludeCampaigns bool   `form:"includeCampaigns"`
	Model            string `form:"model" validate:"omitempty,max=100"`
}

type FinancingTypeResponse struct {
	ID                      uuid.UUID `json:"id"`
	FinancingType           string    `json:"financingType"`
	MinTermMonths           int       `json:"minTermMonths"`
	MaxTermMonths           int       `json:"maxTermMonths"`
	AnnualInterestRate      float64   `json:"annualInterestRate"`
	AnnualInterestRateText  string    `json:"annualInterestRateText"`
	MinDownPaymentPercent   float64   `json:"minDownPaymentPercent"`
	FixedDownPaymentPercent *float64  `json:"fixedDownPaymentPercent,omitempty"`
	MinimumPrice            *float64  `json:"minimumPrice,omitempty"`
	MinimumPriceText        string    `json:"minimumPriceText,omitempty"`
}

type CampaignResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Provider           string    `json:"provider"`
	StartDate          string    `json:"startDate"`
	EndDate            string    `json:"endDate"`
	ApplicableModels   []string  `json:"applicableModels"`
	MinPrice           *float64  `json:"minPrice,omitempty"`
	MaxPrice           *float64  `json:"maxPrice,omitempty"`
	DownPaymentPercent float64   `json:"downPaymentPercent"`
	TermMonths         int       `json:"termMonths"`
	AnnualInterestRate float64   `json:"annualInterestRate"`
	Priority           int       `json:"priority"`
	Active             bool      `json:"active"`
	IsActiveNow        bool      `json:"isActiveNow"`
	DaysRemaining      int       `json:"daysRemaining"`
}

type FinancingTypesResponse struct {
	Types     []FinancingTypeResponse `json:"types"`
	Campaigns []CampaignResponse      `json:"campaigns,omitempty"`
}

// Admin CRUD

type CreateRuleRequest struct {
	FinancingType           string   `json:"financingType" validate:"required,min=1,max=100"`
	MinTermMonths           int      `json:"minTermMonths" validate:"required,min=1,max=120"`
	MaxTermMonths           int      `json:"maxTermMonths" validate:"required,min=1,max=120,gtefield=MinTermMonths"`
	AnnualInterestRate      float64  `json:"annualInterestRate" validate:"min=0,max=2"`
	MinDownPaymentPercent   float64  `json:"minDownPaymentPercent" validate:"min=0,max=100"`
	FixedDownPaymentPercent *float64 `json:"fixedDownPaymentPercent,omitempty" validate:"omitempty,min=0,max=100"`
	RequiresMinimumPrice    bool     `json:"requiresMinimumPrice"`
	MinimumPrice            *float64 `json:"minimumPrice,omitempty" validate:"omitempty,gt=0"`
}

type UpdateRuleRequest struct {
	MinTermMonths           *int     `json:"minTermMonths,omitempty" validate:"omitempty,min=1,max=120"`
	MaxTermMonths           *int     `json:"maxTermMonths,omitempty" validate:"omitempty,min=1,max=120"`
	AnnualInterestRate      *float64 `json:"annualInterestRate,omitempty" validate:"omitempty,min=0,max=2"`
	MinDownPaymentPercent   *float64 `json:"minDownPaymentPercent,omitempty" validate:"omitempty,min=0,max=100"`
	FixedDownPaymentPercent *float64 `json:"fixedDownPaymentPercent,omitempty" validate:"omitempty,min=0,max=100"`
	RequiresMinimumPrice    *bool    `json:"requiresMinimumPrice,omitempty"`
	MinimumPrice            *float64 `json:"minimumPrice,omitempty" validate:"omitempty,gt=0"`
	Active                  *bool    `json:"active,omitempty"`
}

type CreateCampaignRequest struct {
	Name               string   `json:"name" validate:"required,min=1,max=200"`
	Provider           string   `json:"provider" validate:"required,min=1,max=200"`
	StartDate          string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate            string   `json:"endDate" validate:"required,datetime=2006-01-02"`
	ApplicableModels   []string `json:"applicableModels" validate:"required,min=1,dive,required"`
	MinPrice           *float64 `json:"minPrice,omitempty" validate:"omitempty,gt=0"`
	MaxPrice           *float64 `json:"maxPrice,omitempty" validate:"omitempty,gt=0"`
	DownPaymentPercent float64  `json:"downPaymentPercent" validate:"min=0,max=100"`
	TermMonths         int      `json:"termMonths" validate:"required,min=1,max=120"`
	AnnualInterestRate float64  `json:"annualInterestRate" validate:"min=0,max=2"`
	Priority           int      `json:"priority" validate:"min=0"`
}

type UpdateCampaignRequest struct {
	Provider           *string  `json:"provider,omitempty" validate:"omitempty,min=1,max=200"`
	StartDate          *string  `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate            *string  `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ApplicableModels   []string `json:"applicableModels,omitempty" validate:"omitempty,min=1,dive,required"`
	MinPrice           *float64 `json:"minPrice,omitempty" validate:"omitempty,gt=0"`
	MaxPrice           *float64 `json:"maxPrice,omitempty" validate:"omitempty,gt=0"`
	DownPaymentPercent *float64 `json:"downPaymentPercent,omitempty" validate:"omitempty,min=0,max=100"`
	TermMonths         *int     `json:"termMonths,omitempty" validate:"omitempty,min=1,max=120"`
	AnnualInterestRate *float64 `json:"annualInterestRate,omitempty" validate:"omitempty,min=0,max=2"`
	Priority           *int     `json:"priority,omitempty" validate:"omitempty,min=0"`
	Active             *bool    `json:"active,omitempty"`
}

type RuleListResponse struct {
	Items []FinancingTypeResponse `json:"items"`
}

type CampaignListResponse struct {
	Items []CampaignResponse `json:"items"`
}

type QuoteListResponse struct {
	Items []QuoteResponse `json:"items"`
}
