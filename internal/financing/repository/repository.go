package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealer_ops_backend/platform/apperr"
	"dealer_ops_backend/platform/money"
)

const (
	ruleNotFoundMessage     = "financing rule not found"
	campaignNotFoundMessage = "financing campaign not found"
)

// Repo implements the financing repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new financing repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const ruleColumns = `id, financing_type, min_term_months, max_term_months,
	annual_interest_rate, min_down_payment_percent, fixed_down_payment_percent,
	requires_minimum_price, minimum_price, active, created_at, updated_at`

func scanRule(row pgx.Row) (FinancingRule, error) {
	var rule FinancingRule
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&rule.ID, &rule.FinancingType, &rule.MinTermMonths, &rule.MaxTermMonths,
		&rule.AnnualInterestRate, &rule.MinDownPaymentPercent, &rule.FixedDownPaymentPercent,
		&rule.RequiresMinimumPrice, &rule.MinimumPrice, &rule.Active, &createdAt, &updatedAt,
	); err != nil {
		return FinancingRule{}, err
	}
	rule.CreatedAt = createdAt.Format(time.RFC3339)
	rule.UpdatedAt = updatedAt.Format(time.RFC3339)
	return rule, nil
}

// ListRules returns every financing rule, active or not.
func (r *Repo) ListRules(ctx context.Context) ([]FinancingRule, error) {
	return r.listRules(ctx, `SELECT `+ruleColumns+` FROM financing_rules ORDER BY financing_type`)
}

// ListActiveRules returns the rules available for resolution.
func (r *Repo) ListActiveRules(ctx context.Context) ([]FinancingRule, error) {
	return r.listRules(ctx, `SELECT `+ruleColumns+` FROM financing_rules WHERE active ORDER BY financing_type`)
}

func (r *Repo) listRules(ctx context.Context, query string) ([]FinancingRule, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list financing rules: %w", err)
	}
	defer rows.Close()

	var rules []FinancingRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan financing rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// GetRuleByID fetches one rule.
func (r *Repo) GetRuleByID(ctx context.Context, id uuid.UUID) (FinancingRule, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM financing_rules WHERE id = $1`, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FinancingRule{}, apperr.NotFound(ruleNotFoundMessage)
		}
		return FinancingRule{}, fmt.Errorf("get financing rule: %w", err)
	}
	return rule, nil
}

// CreateRule inserts a financing rule. The financing type is a unique key.
func (r *Repo) CreateRule(ctx context.Context, params CreateRuleParams) (FinancingRule, error) {
	query := `
		INSERT INTO financing_rules (
			financing_type, min_term_months, max_term_months, annual_interest_rate,
			min_down_payment_percent, fixed_down_payment_percent,
			requires_minimum_price, minimum_price
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + ruleColumns

	rule, err := scanRule(r.pool.QueryRow(ctx, query,
		params.FinancingType, params.MinTermMonths, params.MaxTermMonths,
		params.AnnualInterestRate, params.MinDownPaymentPercent,
		params.FixedDownPaymentPercent, params.RequiresMinimumPrice, params.MinimumPrice,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return FinancingRule{}, apperr.Conflict("financing type already exists")
		}
		return FinancingRule{}, fmt.Errorf("create financing rule: %w", err)
	}
	return rule, nil
}

// UpdateRule applies a partial update to a rule.
func (r *Repo) UpdateRule(ctx context.Context, params UpdateRuleParams) (FinancingRule, error) {
	query := `
		UPDATE financing_rules
		SET min_term_months = COALESCE($2, min_term_months),
			max_term_months = COALESCE($3, max_term_months),
			annual_interest_rate = COALESCE($4, annual_interest_rate),
			min_down_payment_percent = COALESCE($5, min_down_payment_percent),
			fixed_down_payment_percent = COALESCE($6, fixed_down_payment_percent),
			requires_minimum_price = COALESCE($7, requires_minimum_price),
			minimum_price = COALESCE($8, minimum_price),
			active = COALESCE($9, active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + ruleColumns

	rule, err := scanRule(r.pool.QueryRow(ctx, query,
		params.ID, params.MinTermMonths, params.MaxTermMonths,
		params.AnnualInterestRate, params.MinDownPaymentPercent,
		params.FixedDownPaymentPercent, params.RequiresMinimumPrice,
		params.MinimumPrice, params.Active,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FinancingRule{}, apperr.NotFound(ruleNotFoundMessage)
		}
		return FinancingRule{}, fmt.Errorf("update financing rule: %w", err)
	}
	return rule, nil
}

// DeactivateRule soft-deletes a rule. Rules are never hard-deleted so
// historical quotes keep a valid reference.
func (r *Repo) DeactivateRule(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE financing_rules SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate financing rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMessage)
	}
	return nil
}

const campaignColumns = `id, name, provider, start_date, end_date, applicable_models,
	min_price, max_price, down_payment_percent, term_months, annual_interest_rate,
	priority, active, created_at, updated_at`

func scanCampaign(row pgx.Row) (FinancingCampaign, error) {
	var c FinancingCampaign
	var createdAt, updatedAt time.Time
	if err := row.Scan(
		&c.ID, &c.Name, &c.Provider, &c.StartDate, &c.EndDate, &c.ApplicableModels,
		&c.MinPrice, &c.MaxPrice, &c.DownPaymentPercent, &c.TermMonths,
		&c.AnnualInterestRate, &c.Priority, &c.Active, &createdAt, &updatedAt,
	); err != nil {
		return FinancingCampaign{}, err
	}
	c.StartDate = money.DateOnly(c.StartDate)
	c.EndDate = money.DateOnly(c.EndDate)
	c.CreatedAt = createdAt.Format(time.RFC3339)
	c.UpdatedAt = updatedAt.Format(time.RFC3339)
	return c, nil
}

// ListCampaigns returns every campaign, active or not.
func (r *Repo) ListCampaigns(ctx context.Context) ([]FinancingCampaign, error) {
	return r.listCampaigns(ctx, `SELECT `+campaignColumns+` FROM financing_campaigns ORDER BY priority DESC, created_at`)
}

// ListActiveCampaigns returns campaigns flagged active. Date-window
// eligibility is evaluated by the resolver, not the query, so the same
// records feed both resolution and the listing endpoint.
func (r *Repo) ListActiveCampaigns(ctx context.Context) ([]FinancingCampaign, error) {
	return r.listCampaigns(ctx, `SELECT `+campaignColumns+` FROM financing_campaigns WHERE active ORDER BY priority DESC, created_at`)
}

func (r *Repo) listCampaigns(ctx context.Context, query string) ([]FinancingCampaign, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list financing campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []FinancingCampaign
	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan financing campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}
	return campaigns, rows.Err()
}

// GetCampaignByID fetches one campaign.
func (r *Repo) GetCampaignByID(ctx context.Context, id uuid.UUID) (FinancingCampaign, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM financing_campaigns WHERE id = $1`, id)
	campaign, err := scanCampaign(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FinancingCampaign{}, apperr.NotFound(campaignNotFoundMessage)
		}
		return FinancingCampaign{}, fmt.Errorf("get financing campaign: %w", err)
	}
	return campaign, nil
}

// CreateCampaign inserts a campaign.
func (r *Repo) CreateCampaign(ctx context.Context, params CreateCampaignParams) (FinancingCampaign, error) {
	query := `
		INSERT INTO financing_campaigns (
			name, provider, start_date, end_date, applicable_models,
			min_price, max_price, down_payment_percent, term_months,
			annual_interest_rate, priority
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + campaignColumns

	campaign, err := scanCampaign(r.pool.QueryRow(ctx, query,
		params.Name, params.Provider, params.StartDate, params.EndDate,
		params.ApplicableModels, params.MinPrice, params.MaxPrice,
		params.DownPaymentPercent, params.TermMonths, params.AnnualInterestRate,
		params.Priority,
	))
	if err != nil {
		return FinancingCampaign{}, fmt.Errorf("create financing campaign: %w", err)
	}
	return campaign, nil
}

// UpdateCampaign applies a partial update to a campaign.
func (r *Repo) UpdateCampaign(ctx context.Context, params UpdateCampaignParams) (FinancingCampaign, error) {
	query := `
		UPDATE financing_campaigns
		SET provider = COALESCE($2, provider),
			start_date = COALESCE($3, start_date),
			end_date = COALESCE($4, end_date),
			applicable_models = COALESCE($5, applicable_models),
			min_price = COALESCE($6, min_price),
			max_price = COALESCE($7, max_price),
			down_payment_percent = COALESCE($8, down_payment_percent),
			term_months = COALESCE($9, term_months),
			annual_interest_rate = COALESCE($10, annual_interest_rate),
			priority = COALESCE($11, priority),
			active = COALESCE($12, active),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + campaignColumns

	campaign, err := scanCampaign(r.pool.QueryRow(ctx, query,
		params.ID, params.Provider, params.StartDate, params.EndDate,
		params.ApplicableModels, params.MinPrice, params.MaxPrice,
		params.DownPaymentPercent, params.TermMonths, params.AnnualInterestRate,
		params.Priority, params.Active,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FinancingCampaign{}, apperr.NotFound(campaignNotFoundMessage)
		}
		return FinancingCampaign{}, fmt.Errorf("update financing campaign: %w", err)
	}
	return campaign, nil
}

// DeactivateCampaign soft-deletes a campaign.
func (r *Repo) DeactivateCampaign(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE financing_campaigns SET active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate financing campaign: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(campaignNotFoundMessage)
	}
	return nil
}

// InsertQuote appends a resolved quote to the audit log. Amounts are
// rounded to two decimals at this boundary; the resolver keeps full
// precision internally.
func (r *Repo) InsertQuote(ctx context.Context, quote FinancingQuote) (FinancingQuote, error) {
	query := `
		INSERT INTO financing_quotes (
			lead_id, model, price, financing_type, campaign_name, provider,
			term_months, down_payment, amount_financed, monthly_payment,
			total_amount, interest_amount, down_payment_percent, from_campaign
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`

	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		quote.LeadID, quote.Model, money.Round2(quote.Price), quote.FinancingType,
		quote.CampaignName, quote.Provider, quote.TermMonths,
		money.Round2(quote.DownPayment), money.Round2(quote.AmountFinanced),
		money.Round2(quote.MonthlyPayment), money.Round2(quote.TotalAmount),
		money.Round2(quote.InterestAmount), quote.DownPaymentPercent, quote.FromCampaign,
	).Scan(&quote.ID, &createdAt); err != nil {
		return FinancingQuote{}, fmt.Errorf("insert financing quote: %w", err)
	}
	quote.CreatedAt = createdAt.Format(time.RFC3339)
	return quote, nil
}

// ListQuotesByLead returns the audit-log entries for a lead, newest first.
func (r *Repo) ListQuotesByLead(ctx context.Context, leadID uuid.UUID) ([]FinancingQuote, error) {
	query := `
		SELECT id, lead_id, model, price, financing_type, campaign_name, provider,
			term_months, down_payment, amount_financed, monthly_payment,
			total_amount, interest_amount, down_payment_percent, from_campaign, created_at
		FROM financing_quotes
		WHERE lead_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, fmt.Errorf("list financing quotes: %w", err)
	}
	defer rows.Close()

	var quotes []FinancingQuote
	for rows.Next() {
		var quote FinancingQuote
		var createdAt time.Time
		if err := rows.Scan(
			&quote.ID, &quote.LeadID, &quote.Model, &quote.Price, &quote.FinancingType,
			&quote.CampaignName, &quote.Provider, &quote.TermMonths, &quote.DownPayment,
			&quote.AmountFinanced, &quote.MonthlyPayment, &quote.TotalAmount,
			&quote.InterestAmount, &quote.DownPaymentPercent, &quote.FromCampaign, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan financing quote: %w", err)
		}
		quote.CreatedAt = createdAt.Format(time.RFC3339)
		quotes = append(quotes, quote)
	}
	return quotes, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "23505"
	}
	return false
}
