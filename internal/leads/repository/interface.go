package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the persistence operations for the leads module.
type Repository interface {
	Create(ctx context.Context, params CreateLeadParams) (Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context) ([]Lead, error)
	Update(ctx context.Context, params UpdateLeadParams) (Lead, error)

	// UpdateScoreCAS writes the new score and tier only if the stored score
	// still equals expectedScore. Returns false on a lost race; the caller
	// re-reads and retries.
	UpdateScoreCAS(ctx context.Context, id uuid.UUID, expectedScore, newScore int, tier, scoreVersion string) (bool, error)

	AppendTimeline(ctx context.Context, params AppendTimelineParams) (TimelineEntry, error)
	ListTimeline(ctx context.Context, leadID uuid.UUID) ([]TimelineEntry, error)

	CreateFollowUp(ctx context.Context, params CreateFollowUpParams) (FollowUp, error)
	GetFollowUpByID(ctx context.Context, id uuid.UUID) (FollowUp, error)
	ListFollowUpsByLead(ctx context.Context, leadID uuid.UUID) ([]FollowUp, error)
	// ListDueFollowUps returns incomplete follow-ups scheduled at or before
	// the given moment. Used by the reminder scheduler.
	ListDueFollowUps(ctx context.Context, due time.Time) ([]FollowUp, error)
	CompleteFollowUp(ctx context.Context, id uuid.UUID, successful bool, completedAt time.Time) (FollowUp, error)
}
