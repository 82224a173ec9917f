package service

import (
	"context"
	"testing"
	"time"

	"dealer_ops_backend/internal/leads/repository"
	"dealer_ops_backend/internal/leads/transport"
	"dealer_ops_backend/platform/apperr"
	platformevents "dealer_ops_backend/platform/events"
	"dealer_ops_backend/platform/logger"

	"github.com/google/uuid"
)

// fakeRepo is an in-memory Repository for service tests. casFailures makes
// the first N score writes miss, simulating concurrent adjustments.
type fakeRepo struct {
	leads       map[uuid.UUID]repository.Lead
	timeline    []repository.TimelineEntry
	followUps   map[uuid.UUID]repository.FollowUp
	casFailures int
	casAttempts int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:     make(map[uuid.UUID]repository.Lead),
		followUps: make(map[uuid.UUID]repository.FollowUp),
	}
}

func (f *fakeRepo) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:              uuid.New(),
		Name:            params.Name,
		Phone:           params.Phone,
		Email:           params.Email,
		Channel:         params.Channel,
		ModelInterested: params.ModelInterested,
		Timeframe:       params.Timeframe,
		FinancingType:   params.FinancingType,
		Score:           params.Score,
		Tier:            params.Tier,
		ScoreVersion:    params.ScoreVersion,
		Notes:           params.Notes,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	return lead, nil
}

func (f *fakeRepo) List(_ context.Context) ([]repository.Lead, error) {
	var out []repository.Lead
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, params repository.UpdateLeadParams) (repository.Lead, error) {
	lead, ok := f.leads[params.ID]
	if !ok {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if params.Name != nil {
		lead.Name = *params.Name
	}
	if params.Phone != nil {
		lead.Phone = *params.Phone
	}
	if params.Email != nil {
		lead.Email = *params.Email
	}
	if params.ModelInterested != nil {
		lead.ModelInterested = *params.ModelInterested
	}
	if params.Timeframe != nil {
		lead.Timeframe = *params.Timeframe
	}
	if params.FinancingType != nil {
		lead.FinancingType = *params.FinancingType
	}
	if params.Notes != nil {
		lead.Notes = *params.Notes
	}
	f.leads[params.ID] = lead
	return lead, nil
}

func (f *fakeRepo) UpdateScoreCAS(_ context.Context, id uuid.UUID, expectedScore, newScore int, tier, scoreVersion string) (bool, error) {
	f.casAttempts++
	if f.casFailures > 0 {
		f.casFailures--
		// A concurrent writer moved the score between read and write.
		lead := f.leads[id]
		lead.Score = expectedScore + 1
		f.leads[id] = lead
		return false, nil
	}
	lead, ok := f.leads[id]
	if !ok || lead.Score != expectedScore {
		return false, nil
	}
	lead.Score = newScore
	lead.Tier = tier
	lead.ScoreVersion = scoreVersion
	f.leads[id] = lead
	return true, nil
}

func (f *fakeRepo) AppendTimeline(_ context.Context, params repository.AppendTimelineParams) (repository.TimelineEntry, error) {
	entry := repository.TimelineEntry{
		ID:          uuid.New(),
		LeadID:      params.LeadID,
		EntryType:   params.EntryType,
		Description: params.Description,
		ScoreDelta:  params.ScoreDelta,
		ScoreAfter:  params.ScoreAfter,
		Reason:      params.Reason,
		CreatedAt:   time.Now(),
	}
	f.timeline = append(f.timeline, entry)
	return entry, nil
}

func (f *fakeRepo) ListTimeline(_ context.Context, leadID uuid.UUID) ([]repository.TimelineEntry, error) {
	var out []repository.TimelineEntry
	for _, entry := range f.timeline {
		if entry.LeadID == leadID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateFollowUp(_ context.Context, params repository.CreateFollowUpParams) (repository.FollowUp, error) {
	followUp := repository.FollowUp{
		ID:          uuid.New(),
		LeadID:      params.LeadID,
		ScheduledAt: params.ScheduledAt,
		Notes:       params.Notes,
		CreatedAt:   time.Now(),
	}
	f.followUps[followUp.ID] = followUp
	return followUp, nil
}

func (f *fakeRepo) GetFollowUpByID(_ context.Context, id uuid.UUID) (repository.FollowUp, error) {
	followUp, ok := f.followUps[id]
	if !ok {
		return repository.FollowUp{}, apperr.NotFound("follow-up not found")
	}
	return followUp, nil
}

func (f *fakeRepo) ListFollowUpsByLead(_ context.Context, leadID uuid.UUID) ([]repository.FollowUp, error) {
	var out []repository.FollowUp
	for _, followUp := range f.followUps {
		if followUp.LeadID == leadID {
			out = append(out, followUp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListDueFollowUps(_ context.Context, due time.Time) ([]repository.FollowUp, error) {
	var out []repository.FollowUp
	for _, followUp := range f.followUps {
		if !followUp.Completed && !followUp.ScheduledAt.After(due) {
			out = append(out, followUp)
		}
	}
	return out, nil
}

func (f *fakeRepo) CompleteFollowUp(_ context.Context, id uuid.UUID, successful bool, completedAt time.Time) (repository.FollowUp, error) {
	followUp, ok := f.followUps[id]
	if !ok {
		return repository.FollowUp{}, apperr.NotFound("follow-up not found")
	}
	if followUp.Completed {
		return repository.FollowUp{}, apperr.Conflict("follow-up already completed")
	}
	followUp.Completed = true
	followUp.Successful = &successful
	followUp.CompletedAt = &completedAt
	f.followUps[id] = followUp
	return followUp, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

func newTestService(repo *fakeRepo) *Service {
	log := logger.New("development")
	bus := platformevents.NewInMemoryBus(log)
	return New(repo, bus, log)
}

func seedLead(t *testing.T, repo *fakeRepo, score int) repository.Lead {
	t.Helper()
	lead, err := repo.Create(context.Background(), repository.CreateLeadParams{
		Name:    "Carlos Mamani",
		Phone:   "+59171234567",
		Channel: "whatsapp",
		Score:   score,
		Tier:    "red",
	})
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return lead
}

func TestCreateNormalizesPhone(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	resp, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:    "Maria Quispe",
		Phone:   "+591 712 34567",
		Channel: "phone",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if resp.Phone != "+59171234567" {
		t.Fatalf("expected E.164 phone +59171234567, got %q", resp.Phone)
	}
	if resp.Score != initialScore {
		t.Fatalf("expected initial score %d, got %d", initialScore, resp.Score)
	}
	if resp.Tier != "red" {
		t.Fatalf("expected initial tier red for score %d, got %q", initialScore, resp.Tier)
	}
}

func TestLogInteractionMovesScoreAndTimeline(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	lead := seedLead(t, repo, 50)

	resp, err := svc.LogInteraction(context.Background(), lead.ID, transport.LogInteractionRequest{
		Kind:      "test_drive",
		Channel:   "in_person",
		Direction: "inbound",
	})
	if err != nil {
		t.Fatalf("log interaction: %v", err)
	}

	// inbound +8, in_person +12, test_drive +20
	if resp.ScoreChange.Delta != 40 {
		t.Fatalf("expected delta 40, got %d", resp.ScoreChange.Delta)
	}
	if resp.Lead.Score != 90 {
		t.Fatalf("expected score 90, got %d", resp.Lead.Score)
	}
	if resp.Lead.Tier != "green" {
		t.Fatalf("expected tier green, got %q", resp.Lead.Tier)
	}

	entries, _ := repo.ListTimeline(context.Background(), lead.ID)
	if len(entries) != 1 {
		t.Fatalf("expected 1 timeline entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.EntryType != entryInteraction {
		t.Fatalf("expected %q entry, got %q", entryInteraction, entry.EntryType)
	}
	if entry.ScoreDelta == nil || *entry.ScoreDelta != 40 {
		t.Fatalf("timeline entry missing delta 40: %+v", entry)
	}
	if entry.ScoreAfter == nil || *entry.ScoreAfter != 90 {
		t.Fatalf("timeline entry missing score 90: %+v", entry)
	}
}

func TestApplyScoringRetriesOnLostRace(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	lead := seedLead(t, repo, 50)
	repo.casFailures = 1

	resp, err := svc.LogInteraction(context.Background(), lead.ID, transport.LogInteractionRequest{
		Kind:      "call",
		Channel:   "phone",
		Direction: "outbound",
	})
	if err != nil {
		t.Fatalf("log interaction: %v", err)
	}
	if repo.casAttempts != 2 {
		t.Fatalf("expected 2 swap attempts, got %d", repo.casAttempts)
	}
	// The retry recomputed from the fresh snapshot (51), not the stale one.
	// outbound +3, phone +7
	if resp.ScoreChange.OldScore != 51 {
		t.Fatalf("expected retry to see refreshed score 51, got %d", resp.ScoreChange.OldScore)
	}
	if resp.Lead.Score != 61 {
		t.Fatalf("expected score 61 after retry, got %d", resp.Lead.Score)
	}
}

func TestApplyScoringGivesUpAfterBoundedRetries(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	lead := seedLead(t, repo, 50)
	repo.casFailures = maxScoreRetries + 1

	_, err := svc.LogInteraction(context.Background(), lead.ID, transport.LogInteractionRequest{
		Kind:      "call",
		Channel:   "phone",
		Direction: "outbound",
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict after exhausted retries, got %v", err)
	}
	if repo.casAttempts != maxScoreRetries {
		t.Fatalf("expected %d attempts, got %d", maxScoreRetries, repo.casAttempts)
	}
}

func TestUpdatePreferencesScoresTimeframeJump(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	lead := seedLead(t, repo, 50)
	future := "future"
	if _, err := repo.Update(context.Background(), repository.UpdateLeadParams{ID: lead.ID, Timeframe: &future}); err != nil {
		t.Fatalf("seed timeframe: %v", err)
	}

	immediate := "immediate"
	resp, err := svc.UpdatePreferences(context.Background(), lead.ID, transport.UpdatePreferencesRequest{
		Timeframe: &immediate,
	})
	if err != nil {
		t.Fatalf("update preferences: %v", err)
	}
	if resp.ScoreChange.Delta != 15 {
		t.Fatalf("expected future->immediate delta 15, got %d", resp.ScoreChange.Delta)
	}
	if resp.Lead.Score != 65 {
		t.Fatalf("expected score 65, got %d", resp.Lead.Score)
	}
}

func TestScheduleFollowUpRejectsPast(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	lead := seedLead(t, repo, 50)

	_, err := svc.ScheduleFollowUp(context.Background(), lead.ID, transport.ScheduleFollowUpRequest{
		ScheduledAt: time.Now().Add(-time.Hour),
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for past schedule, got %v", err)
	}
}

func TestCompleteFollowUpScoresOutcome(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)
	lead := seedLead(t, repo, 50)

	followUp, err := svc.ScheduleFollowUp(context.Background(), lead.ID, transport.ScheduleFollowUpRequest{
		ScheduledAt: time.Now().Add(24 * time.Hour),
		Notes:       "call about the MT-07",
	})
	if err != nil {
		t.Fatalf("schedule follow-up: %v", err)
	}

	resp, err := svc.CompleteFollowUp(context.Background(), followUp.ID, transport.CompleteFollowUpRequest{
		Successful: true,
	})
	if err != nil {
		t.Fatalf("complete follow-up: %v", err)
	}
	if resp.ScoreChange.Delta != 6 {
		t.Fatalf("expected successful follow-up delta 6, got %d", resp.ScoreChange.Delta)
	}
	if !resp.FollowUp.Completed {
		t.Fatal("follow-up not marked completed")
	}

	// Completing twice conflicts.
	_, err = svc.CompleteFollowUp(context.Background(), followUp.ID, transport.CompleteFollowUpRequest{Successful: true})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict on double completion, got %v", err)
	}
}
