package repository

import (
	"time"

	"github.com/google/uuid"
)

// Lead is the persisted lead record. Score and tier move together: tier is
// always the derived function of score and both are written in one update.
type Lead struct {
	ID              uuid.UUID
	Name            string
	Phone           string
	Email           string
	Channel         string
	ModelInterested string
	Timeframe       string
	FinancingType   string
	Score           int
	Tier            string
	ScoreVersion    string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TimelineEntry is an append-only record of what happened to a lead,
// including every score movement with its delta and reason.
type TimelineEntry struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	EntryType   string
	Description string
	ScoreDelta  *int
	ScoreAfter  *int
	Reason      string
	CreatedAt   time.Time
}

// FollowUp is a scheduled follow-up task for a lead.
type FollowUp struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	ScheduledAt time.Time
	Notes       string
	Completed   bool
	Successful  *bool
	CompletedAt *time.Time
	CreatedAt   time.Time
}

// CreateLeadParams holds the fields for inserting a lead.
type CreateLeadParams struct {
	Name            string
	Phone           string
	Email           string
	Channel         string
	ModelInterested string
	Timeframe       string
	FinancingType   string
	Score           int
	Tier            string
	ScoreVersion    string
	Notes           string
}

// UpdateLeadParams holds optional fields for updating a lead record.
// Nil fields keep their current value. Score is not updated here; score
// writes go through UpdateScoreCAS.
type UpdateLeadParams struct {
	ID              uuid.UUID
	Name            *string
	Phone           *string
	Email           *string
	ModelInterested *string
	Timeframe       *string
	FinancingType   *string
	Notes           *string
}

// AppendTimelineParams holds the fields for a timeline entry.
type AppendTimelineParams struct {
	LeadID      uuid.UUID
	EntryType   string
	Description string
	ScoreDelta  *int
	ScoreAfter  *int
	Reason      string
}

// CreateFollowUpParams holds the fields for scheduling a follow-up.
type CreateFollowUpParams struct {
	LeadID      uuid.UUID
	ScheduledAt time.Time
	Notes       string
}
