// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"dealer_ops_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is registered.
type LeadCreated struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	Name            string    `json:"name"`
	Phone           string    `json:"phone"`
	Channel         string    `json:"channel"`
	ModelInterested string    `json:"modelInterested,omitempty"`
	InitialScore    int       `json:"initialScore"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadScoreChanged is published whenever a scoring event moves a lead's score,
// including tier transitions.
type LeadScoreChanged struct {
	BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	OldScore     int       `json:"oldScore"`
	NewScore     int       `json:"newScore"`
	Delta        int       `json:"delta"`
	Reason       string    `json:"reason"`
	OldTier      string    `json:"oldTier"`
	NewTier      string    `json:"newTier"`
	ScoreVersion string    `json:"scoreVersion"`
}

func (e LeadScoreChanged) EventName() string { return "leads.score.changed" }

// FollowUpScheduled is published when a follow-up task is created for a lead.
// The scheduler module subscribes to enqueue a reminder.
type FollowUpScheduled struct {
	BaseEvent
	FollowUpID  uuid.UUID `json:"followUpId"`
	LeadID      uuid.UUID `json:"leadId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Notes       string    `json:"notes,omitempty"`
}

func (e FollowUpScheduled) EventName() string { return "leads.follow_up.scheduled" }

// FollowUpReminderDue is published by the scheduler worker when a
// follow-up comes due; notification collaborators subscribe to it.
type FollowUpReminderDue struct {
	BaseEvent
	FollowUpID  uuid.UUID `json:"followUpId"`
	LeadID      uuid.UUID `json:"leadId"`
	LeadName    string    `json:"leadName"`
	LeadPhone   string    `json:"leadPhone"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Notes       string    `json:"notes,omitempty"`
}

func (e FollowUpReminderDue) EventName() string { return "leads.follow_up.reminder_due" }

// FollowUpCompleted is published when an agent marks a follow-up done.
type FollowUpCompleted struct {
	BaseEvent
	FollowUpID uuid.UUID `json:"followUpId"`
	LeadID     uuid.UUID `json:"leadId"`
	Successful bool      `json:"successful"`
}

func (e FollowUpCompleted) EventName() string { return "leads.follow_up.completed" }

// =============================================================================
// Financing Domain Events
// =============================================================================

// FinancingQuoteResolved is published after a financing request resolves into
// a quote and the audit record is stored.
type FinancingQuoteResolved struct {
	BaseEvent
	QuoteID        uuid.UUID  `json:"quoteId"`
	LeadID         *uuid.UUID `json:"leadId,omitempty"`
	Model          string     `json:"model"`
	FinancingType  string     `json:"financingType"`
	CampaignName   string     `json:"campaignName,omitempty"`
	FromCampaign   bool       `json:"fromCampaign"`
	TermMonths     int        `json:"termMonths"`
	MonthlyPayment float64    `json:"monthlyPayment"`
	TotalAmount    float64    `json:"totalAmount"`
}

func (e FinancingQuoteResolved) EventName() string { return "financing.quote.resolved" }
