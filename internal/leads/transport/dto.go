package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Phone           string `json:"phone" validate:"required,min=5,max=30"`
	Email           string `json:"email,omitempty" validate:"omitempty,email"`
	Channel         string `json:"channel" validate:"required,oneof=whatsapp phone in_person web referral"`
	ModelInterested string `json:"modelInterested,omitempty" validate:"omitempty,max=100"`
	Timeframe       string `json:"timeframe,omitempty" validate:"omitempty,oneof=immediate soon future"`
	FinancingType   string `json:"financingType,omitempty" validate:"omitempty,max=100"`
	Notes           string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type UpdateLeadRequest struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,min=5,max=30"`
	Email           *string `json:"email,omitempty" validate:"omitempty,email"`
	ModelInterested *string `json:"modelInterested,omitempty" validate:"omitempty,max=100"`
	Timeframe       *string `json:"timeframe,omitempty" validate:"omitempty,oneof=immediate soon future"`
	FinancingType   *string `json:"financingType,omitempty" validate:"omitempty,max=100"`
	Notes           *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type UpdatePreferencesRequest struct {
	Timeframe     *string `json:"timeframe,omitempty" validate:"omitempty,oneof=immediate soon future"`
	FinancingType *string `json:"financingType,omitempty" validate:"omitempty,max=100"`
}

type LogInteractionRequest struct {
	Kind      string `json:"kind" validate:"required,oneof=call message meeting test_drive quotation visit other"`
	Channel   string `json:"channel" validate:"required,oneof=whatsapp phone in_person email web"`
	Direction string `json:"direction" validate:"required,oneof=inbound outbound"`
	Notes     string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ScheduleFollowUpRequest struct {
	ScheduledAt time.Time `json:"scheduledAt" validate:"required"`
	Notes       string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type CompleteFollowUpRequest struct {
	Successful bool `json:"successful"`
}

type LeadResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Email           string    `json:"email,omitempty"`
	Channel         string    `json:"channel"`
	ModelInterested string    `json:"modelInterested,omitempty"`
	Timeframe       string    `json:"timeframe,omitempty"`
	FinancingType   string    `json:"financingType,omitempty"`
	Score           int       `json:"score"`
	Tier            string    `json:"tier"`
	ScoreVersion    string    `json:"scoreVersion"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type LeadListResponse struct {
	Items []LeadResponse `json:"items"`
}

// ScoreChange describes how an event moved the score; embedded in the
// responses of every score-mutating endpoint.
type ScoreChange struct {
	OldScore int    `json:"oldScore"`
	NewScore int    `json:"newScore"`
	Delta    int    `json:"delta"`
	Reason   string `json:"reason"`
	OldTier  string `json:"oldTier"`
	NewTier  string `json:"newTier"`
}

type ScoredLeadResponse struct {
	Lead        LeadResponse `json:"lead"`
	ScoreChange ScoreChange  `json:"scoreChange"`
}

type TimelineEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	EntryType   string    `json:"entryType"`
	Description string    `json:"description"`
	ScoreDelta  *int      `json:"scoreDelta,omitempty"`
	ScoreAfter  *int      `json:"scoreAfter,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type TimelineResponse struct {
	Items []TimelineEntryResponse `json:"items"`
}

type FollowUpResponse struct {
	ID          uuid.UUID  `json:"id"`
	LeadID      uuid.UUID  `json:"leadId"`
	ScheduledAt time.Time  `json:"scheduledAt"`
	Notes       string     `json:"notes,omitempty"`
	Completed   bool       `json:"completed"`
	Successful  *bool      `json:"successful,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type FollowUpListResponse struct {
	Items []FollowUpResponse `json:"items"`
}

// CompletedFollowUpResponse couples the completed follow-up with the score
// movement the completion caused.
type CompletedFollowUpResponse struct {
	FollowUp    FollowUpResponse `json:"followUp"`
	ScoreChange ScoreChange      `json:"scoreChange"`
}
