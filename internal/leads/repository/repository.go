package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dealer_ops_backend/platform/apperr"
)

const (
	leadNotFoundMessage     = "lead not found"
	followUpNotFoundMessage = "follow-up not found"
)

// Repo implements the leads repository on PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const leadColumns = `id, name, phone, email, channel, model_interested, timeframe,
	financing_type, score, tier, score_version, notes, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	if err := row.Scan(
		&lead.ID, &lead.Name, &lead.Phone, &lead.Email, &lead.Channel,
		&lead.ModelInterested, &lead.Timeframe, &lead.FinancingType,
		&lead.Score, &lead.Tier, &lead.ScoreVersion, &lead.Notes,
		&lead.CreatedAt, &lead.UpdatedAt,
	); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// Create inserts a lead.
func (r *Repo) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	query := `
		INSERT INTO leads (
			name, phone, email, channel, model_interested, timeframe,
			financing_type, score, tier, score_version, notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.Name, params.Phone, params.Email, params.Channel,
		params.ModelInterested, params.Timeframe, params.FinancingType,
		params.Score, params.Tier, params.ScoreVersion, params.Notes,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return Lead{}, apperr.Conflict("a lead with this phone already exists")
		}
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

// GetByID fetches one lead.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead: %w", err)
	}
	return lead, nil
}

// List returns all leads ordered newest first.
func (r *Repo) List(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

// Update applies a partial update to a lead's descriptive fields.
func (r *Repo) Update(ctx context.Context, params UpdateLeadParams) (Lead, error) {
	query := `
		UPDATE leads SET
			name = COALESCE($2, name),
			phone = COALESCE($3, phone),
			email = COALESCE($4, email),
			model_interested = COALESCE($5, model_interested),
			timeframe = COALESCE($6, timeframe),
			financing_type = COALESCE($7, financing_type),
			notes = COALESCE($8, notes),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + leadColumns

	lead, err := scanLead(r.pool.QueryRow(ctx, query,
		params.ID, params.Name, params.Phone, params.Email,
		params.ModelInterested, params.Timeframe, params.FinancingType, params.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		if isUniqueViolation(err) {
			return Lead{}, apperr.Conflict("a lead with this phone already exists")
		}
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

// UpdateScoreCAS conditionally writes the score. The WHERE clause on the
// expected score makes the read-modify-write safe under concurrent
// adjustments to the same lead.
func (r *Repo) UpdateScoreCAS(ctx context.Context, id uuid.UUID, expectedScore, newScore int, tier, scoreVersion string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET score = $3, tier = $4, score_version = $5, updated_at = now()
		WHERE id = $1 AND score = $2`,
		id, expectedScore, newScore, tier, scoreVersion,
	)
	if err != nil {
		return false, fmt.Errorf("update lead score: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const timelineColumns = `id, lead_id, entry_type, description, score_delta, score_after, reason, created_at`

func scanTimelineEntry(row pgx.Row) (TimelineEntry, error) {
	var entry TimelineEntry
	if err := row.Scan(
		&entry.ID, &entry.LeadID, &entry.EntryType, &entry.Description,
		&entry.ScoreDelta, &entry.ScoreAfter, &entry.Reason, &entry.CreatedAt,
	); err != nil {
		return TimelineEntry{}, err
	}
	return entry, nil
}

// AppendTimeline adds an entry to the lead's timeline.
func (r *Repo) AppendTimeline(ctx context.Context, params AppendTimelineParams) (TimelineEntry, error) {
	query := `
		INSERT INTO lead_timeline (lead_id, entry_type, description, score_delta, score_after, reason)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + timelineColumns

	entry, err := scanTimelineEntry(r.pool.QueryRow(ctx, query,
		params.LeadID, params.EntryType, params.Description,
		params.ScoreDelta, params.ScoreAfter, params.Reason,
	))
	if err != nil {
		return TimelineEntry{}, fmt.Errorf("append timeline entry: %w", err)
	}
	return entry, nil
}

// ListTimeline returns a lead's timeline newest first.
func (r *Repo) ListTimeline(ctx context.Context, leadID uuid.UUID) ([]TimelineEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+timelineColumns+` FROM lead_timeline WHERE lead_id = $1 ORDER BY created_at DESC`, leadID)
	if err != nil {
		return nil, fmt.Errorf("list timeline: %w", err)
	}
	defer rows.Close()

	var entries []TimelineEntry
	for rows.Next() {
		entry, err := scanTimelineEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

const followUpColumns = `id, lead_id, scheduled_at, notes, completed, successful, completed_at, created_at`

func scanFollowUp(row pgx.Row) (FollowUp, error) {
	var followUp FollowUp
	if err := row.Scan(
		&followUp.ID, &followUp.LeadID, &followUp.ScheduledAt, &followUp.Notes,
		&followUp.Completed, &followUp.Successful, &followUp.CompletedAt, &followUp.CreatedAt,
	); err != nil {
		return FollowUp{}, err
	}
	return followUp, nil
}

// CreateFollowUp schedules a follow-up for a lead.
func (r *Repo) CreateFollowUp(ctx context.Context, params CreateFollowUpParams) (FollowUp, error) {
	query := `
		INSERT INTO follow_ups (lead_id, scheduled_at, notes)
		VALUES ($1, $2, $3)
		RETURNING ` + followUpColumns

	followUp, err := scanFollowUp(r.pool.QueryRow(ctx, query,
		params.LeadID, params.ScheduledAt, params.Notes,
	))
	if err != nil {
		return FollowUp{}, fmt.Errorf("create follow-up: %w", err)
	}
	return followUp, nil
}

// GetFollowUpByID fetches one follow-up.
func (r *Repo) GetFollowUpByID(ctx context.Context, id uuid.UUID) (FollowUp, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+followUpColumns+` FROM follow_ups WHERE id = $1`, id)
	followUp, err := scanFollowUp(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FollowUp{}, apperr.NotFound(followUpNotFoundMessage)
		}
		return FollowUp{}, fmt.Errorf("get follow-up: %w", err)
	}
	return followUp, nil
}

// ListFollowUpsByLead returns a lead's follow-ups, soonest first.
func (r *Repo) ListFollowUpsByLead(ctx context.Context, leadID uuid.UUID) ([]FollowUp, error) {
	return r.listFollowUps(ctx,
		`SELECT `+followUpColumns+` FROM follow_ups WHERE lead_id = $1 ORDER BY scheduled_at`, leadID)
}

// ListDueFollowUps returns incomplete follow-ups due at or before the moment.
func (r *Repo) ListDueFollowUps(ctx context.Context, due time.Time) ([]FollowUp, error) {
	return r.listFollowUps(ctx,
		`SELECT `+followUpColumns+` FROM follow_ups WHERE NOT completed AND scheduled_at <= $1 ORDER BY scheduled_at`, due)
}

func (r *Repo) listFollowUps(ctx context.Context, query string, arg any) ([]FollowUp, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list follow-ups: %w", err)
	}
	defer rows.Close()

	var followUps []FollowUp
	for rows.Next() {
		followUp, err := scanFollowUp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan follow-up: %w", err)
		}
		followUps = append(followUps, followUp)
	}
	return followUps, rows.Err()
}

// CompleteFollowUp marks a follow-up done with its outcome.
func (r *Repo) CompleteFollowUp(ctx context.Context, id uuid.UUID, successful bool, completedAt time.Time) (FollowUp, error) {
	query := `
		UPDATE follow_ups
		SET completed = true, successful = $2, completed_at = $3
		WHERE id = $1 AND NOT completed
		RETURNING ` + followUpColumns

	followUp, err := scanFollowUp(r.pool.QueryRow(ctx, query, id, successful, completedAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either missing or already completed; disambiguate for the caller.
			if _, getErr := r.GetFollowUpByID(ctx, id); getErr != nil {
				return FollowUp{}, getErr
			}
			return FollowUp{}, apperr.Conflict("follow-up already completed")
		}
		return FollowUp{}, fmt.Errorf("complete follow-up: %w", err)
	}
	return followUp, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == "23505"
}
