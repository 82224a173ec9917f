// Package service implements lead management and the orchestration around
// the scoring engine: it fetches the lead snapshot, constructs the business
// event, calls the pure engine, and persists score, tier, and a timeline
// entry. The engine itself never touches storage.
package service

import (
	"context"
	"fmt"
	"time"

	"dealer_ops_backend/internal/events"
	"dealer_ops_backend/internal/leads/repository"
	"dealer_ops_backend/internal/leads/scoring"
	"dealer_ops_backend/internal/leads/transport"
	"dealer_ops_backend/platform/apperr"
	"dealer_ops_backend/platform/logger"
	"dealer_ops_backend/platform/phone"
	"dealer_ops_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	// initialScore is the score assigned at intake, before any event.
	initialScore = 50

	// maxScoreRetries bounds the compare-and-swap retry loop for
	// concurrent score adjustments against the same lead.
	maxScoreRetries = 3
)

// Timeline entry types.
const (
	entryCreated          = "created"
	entryInteraction      = "interaction"
	entryEdit             = "edit"
	entryPreferences      = "preference_change"
	entryFollowUpPlanned  = "follow_up_scheduled"
	entryFollowUpComplete = "follow_up_completed"
)

// Service provides lead operations.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
	now  func() time.Time
}

// New creates the leads service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		bus:  bus,
		log:  log,
		now:  time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create registers a new lead. The phone number is normalized to E.164
// before storage so intake from any channel dedupes on the same key.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		Name:            sanitize.Text(req.Name),
		Phone:           phone.NormalizeE164(req.Phone),
		Email:           req.Email,
		Channel:         req.Channel,
		ModelInterested: req.ModelInterested,
		Timeframe:       req.Timeframe,
		FinancingType:   req.FinancingType,
		Score:           initialScore,
		Tier:            string(scoring.TierFor(initialScore)),
		ScoreVersion:    scoring.Version(),
		Notes:           sanitize.Text(req.Notes),
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if _, err := s.repo.AppendTimeline(ctx, repository.AppendTimelineParams{
		LeadID:      lead.ID,
		EntryType:   entryCreated,
		Description: fmt.Sprintf("lead registered via %s", lead.Channel),
	}); err != nil {
		s.log.DatabaseError("append lead timeline", err)
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:       events.NewBaseEvent(),
		LeadID:          lead.ID,
		Name:            lead.Name,
		Phone:           lead.Phone,
		Channel:         lead.Channel,
		ModelInterested: lead.ModelInterested,
		InitialScore:    lead.Score,
	})

	return toLeadResponse(lead), nil
}

// Get fetches one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toLeadResponse(lead), nil
}

// List returns all leads.
func (s *Service) List(ctx context.Context) (transport.LeadListResponse, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	items := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		items = append(items, toLeadResponse(lead))
	}
	return transport.LeadListResponse{Items: items}, nil
}

// Update edits a lead's descriptive fields and scores the edit: model and
// preference changes move the score per the edit rules.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateLeadRequest) (transport.ScoredLeadResponse, error) {
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ScoredLeadResponse{}, err
	}

	params := repository.UpdateLeadParams{
		ID:              id,
		Name:            sanitize.TextPtr(req.Name),
		Email:           req.Email,
		ModelInterested: req.ModelInterested,
		Timeframe:       req.Timeframe,
		FinancingType:   req.FinancingType,
		Notes:           sanitize.TextPtr(req.Notes),
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		params.Phone = &normalized
	}

	after, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.ScoredLeadResponse{}, err
	}

	event := scoring.Edit{
		OldModel:     before.ModelInterested,
		NewModel:     after.ModelInterested,
		OldTimeframe: before.Timeframe,
		NewTimeframe: after.Timeframe,
		OldFinancing: before.FinancingType,
		NewFinancing: after.FinancingType,
	}
	return s.applyScoring(ctx, after, event, entryEdit, "lead record edited")
}

// UpdatePreferences records a timeframe or financing preference change and
// scores it.
func (s *Service) UpdatePreferences(ctx context.Context, id uuid.UUID, req transport.UpdatePreferencesRequest) (transport.ScoredLeadResponse, error) {
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ScoredLeadResponse{}, err
	}

	after, err := s.repo.Update(ctx, repository.UpdateLeadParams{
		ID:            id,
		Timeframe:     req.Timeframe,
		FinancingType: req.FinancingType,
	})
	if err != nil {
		return transport.ScoredLeadResponse{}, err
	}

	event := scoring.PreferenceChange{
		OldTimeframe: before.Timeframe,
		NewTimeframe: after.Timeframe,
		OldFinancing: before.FinancingType,
		NewFinancing: after.FinancingType,
	}
	return s.applyScoring(ctx, after, event, entryPreferences, "preferences updated")
}

// LogInteraction records a touch point with the lead and scores it.
func (s *Service) LogInteraction(ctx context.Context, id uuid.UUID, req transport.LogInteractionRequest) (transport.ScoredLeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ScoredLeadResponse{}, err
	}

	event := scoring.Interaction{
		Kind:      req.Kind,
		Channel:   req.Channel,
		Direction: req.Direction,
	}
	description := fmt.Sprintf("%s %s via %s", req.Direction, req.Kind, req.Channel)
	if notes := sanitize.Text(req.Notes); notes != "" {
		description += ": " + notes
	}
	return s.applyScoring(ctx, lead, event, entryInteraction, description)
}

// ScheduleFollowUp creates a follow-up task; the reminder is enqueued by
// the scheduler module reacting to the published event.
func (s *Service) ScheduleFollowUp(ctx context.Context, leadID uuid.UUID, req transport.ScheduleFollowUpRequest) (transport.FollowUpResponse, error) {
	if !req.ScheduledAt.After(s.now()) {
		return transport.FollowUpResponse{}, apperr.Validation("scheduled time must be in the future")
	}
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		return transport.FollowUpResponse{}, err
	}

	followUp, err := s.repo.CreateFollowUp(ctx, repository.CreateFollowUpParams{
		LeadID:      leadID,
		ScheduledAt: req.ScheduledAt,
		Notes:       sanitize.Text(req.Notes),
	})
	if err != nil {
		return transport.FollowUpResponse{}, err
	}

	if _, err := s.repo.AppendTimeline(ctx, repository.AppendTimelineParams{
		LeadID:      leadID,
		EntryType:   entryFollowUpPlanned,
		Description: fmt.Sprintf("follow-up scheduled for %s", followUp.ScheduledAt.Format(time.RFC3339)),
	}); err != nil {
		s.log.DatabaseError("append lead timeline", err)
	}

	s.bus.Publish(ctx, events.FollowUpScheduled{
		BaseEvent:   events.NewBaseEvent(),
		FollowUpID:  followUp.ID,
		LeadID:      leadID,
		ScheduledAt: followUp.ScheduledAt,
		Notes:       followUp.Notes,
	})

	return toFollowUpResponse(followUp), nil
}

// CompleteFollowUp marks a follow-up done and scores the outcome: a
// successful follow-up raises the score, an unsuccessful one lowers it.
func (s *Service) CompleteFollowUp(ctx context.Context, followUpID uuid.UUID, req transport.CompleteFollowUpRequest) (transport.CompletedFollowUpResponse, error) {
	followUp, err := s.repo.CompleteFollowUp(ctx, followUpID, req.Successful, s.now())
	if err != nil {
		return transport.CompletedFollowUpResponse{}, err
	}

	lead, err := s.repo.GetByID(ctx, followUp.LeadID)
	if err != nil {
		return transport.CompletedFollowUpResponse{}, err
	}

	outcome := "unsuccessful"
	if req.Successful {
		outcome = "successful"
	}
	scored, err := s.applyScoring(ctx, lead, scoring.FollowUp{Completed: req.Successful},
		entryFollowUpComplete, "follow-up completed, "+outcome)
	if err != nil {
		return transport.CompletedFollowUpResponse{}, err
	}

	s.bus.Publish(ctx, events.FollowUpCompleted{
		BaseEvent:  events.NewBaseEvent(),
		FollowUpID: followUp.ID,
		LeadID:     followUp.LeadID,
		Successful: req.Successful,
	})

	return transport.CompletedFollowUpResponse{
		FollowUp:    toFollowUpResponse(followUp),
		ScoreChange: scored.ScoreChange,
	}, nil
}

// ListFollowUps returns a lead's follow-ups.
func (s *Service) ListFollowUps(ctx context.Context, leadID uuid.UUID) (transport.FollowUpListResponse, error) {
	followUps, err := s.repo.ListFollowUpsByLead(ctx, leadID)
	if err != nil {
		return transport.FollowUpListResponse{}, err
	}
	items := make([]transport.FollowUpResponse, 0, len(followUps))
	for _, followUp := range followUps {
		items = append(items, toFollowUpResponse(followUp))
	}
	return transport.FollowUpListResponse{Items: items}, nil
}

// Timeline returns a lead's timeline.
func (s *Service) Timeline(ctx context.Context, leadID uuid.UUID) (transport.TimelineResponse, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		return transport.TimelineResponse{}, err
	}
	entries, err := s.repo.ListTimeline(ctx, leadID)
	if err != nil {
		return transport.TimelineResponse{}, err
	}
	items := make([]transport.TimelineEntryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, transport.TimelineEntryResponse{
			ID:          entry.ID,
			EntryType:   entry.EntryType,
			Description: entry.Description,
			ScoreDelta:  entry.ScoreDelta,
			ScoreAfter:  entry.ScoreAfter,
			Reason:      entry.Reason,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return transport.TimelineResponse{Items: items}, nil
}

// applyScoring runs the pure engine against the lead snapshot and persists
// the result with a compare-and-swap on the previous score. A lost race
// re-reads the lead and recomputes from the fresh snapshot, bounded by
// maxScoreRetries.
func (s *Service) applyScoring(ctx context.Context, lead repository.Lead, event scoring.Event, entryType, description string) (transport.ScoredLeadResponse, error) {
	now := s.now()

	for attempt := 0; attempt < maxScoreRetries; attempt++ {
		snapshot := scoring.Lead{
			Score:           lead.Score,
			ModelInterested: lead.ModelInterested,
			Timeframe:       lead.Timeframe,
			FinancingType:   lead.FinancingType,
			CreatedAt:       lead.CreatedAt,
		}
		result := scoring.Adjust(snapshot, event, now)

		swapped, err := s.repo.UpdateScoreCAS(ctx, lead.ID, lead.Score, result.NewScore,
			string(result.NewTier), result.Version)
		if err != nil {
			return transport.ScoredLeadResponse{}, err
		}
		if !swapped {
			fresh, err := s.repo.GetByID(ctx, lead.ID)
			if err != nil {
				return transport.ScoredLeadResponse{}, err
			}
			lead = fresh
			continue
		}

		oldScore, oldTier := lead.Score, lead.Tier
		lead.Score = result.NewScore
		lead.Tier = string(result.NewTier)
		lead.ScoreVersion = result.Version

		if _, err := s.repo.AppendTimeline(ctx, repository.AppendTimelineParams{
			LeadID:      lead.ID,
			EntryType:   entryType,
			Description: description,
			ScoreDelta:  &result.Delta,
			ScoreAfter:  &result.NewScore,
			Reason:      result.Reason,
		}); err != nil {
			s.log.DatabaseError("append lead timeline", err)
		}

		s.log.ScoreAdjusted(lead.ID.String(), oldScore, result.NewScore, result.Delta, result.Reason)
		s.bus.Publish(ctx, events.LeadScoreChanged{
			BaseEvent:    events.NewBaseEvent(),
			LeadID:       lead.ID,
			OldScore:     oldScore,
			NewScore:     result.NewScore,
			Delta:        result.Delta,
			Reason:       result.Reason,
			OldTier:      oldTier,
			NewTier:      string(result.NewTier),
			ScoreVersion: result.Version,
		})

		return transport.ScoredLeadResponse{
			Lead: toLeadResponse(lead),
			ScoreChange: transport.ScoreChange{
				OldScore: oldScore,
				NewScore: result.NewScore,
				Delta:    result.Delta,
				Reason:   result.Reason,
				OldTier:  oldTier,
				NewTier:  string(result.NewTier),
			},
		}, nil
	}

	return transport.ScoredLeadResponse{}, apperr.Conflict("lead score is changing concurrently, retry the request")
}

func toLeadResponse(lead repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:              lead.ID,
		Name:            lead.Name,
		Phone:           lead.Phone,
		Email:           lead.Email,
		Channel:         lead.Channel,
		ModelInterested: lead.ModelInterested,
		Timeframe:       lead.Timeframe,
		FinancingType:   lead.FinancingType,
		Score:           lead.Score,
		Tier:            lead.Tier,
		ScoreVersion:    lead.ScoreVersion,
		Notes:           lead.Notes,
		CreatedAt:       lead.CreatedAt,
		UpdatedAt:       lead.UpdatedAt,
	}
}

func toFollowUpResponse(followUp repository.FollowUp) transport.FollowUpResponse {
	return transport.FollowUpResponse{
		ID:          followUp.ID,
		LeadID:      followUp.LeadID,
		ScheduledAt: followUp.ScheduledAt,
		Notes:       followUp.Notes,
		Completed:   followUp.Completed,
		Successful:  followUp.Successful,
		CompletedAt: followUp.CompletedAt,
		CreatedAt:   followUp.CreatedAt,
	}
}
