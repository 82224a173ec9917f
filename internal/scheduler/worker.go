package scheduler

import (
	"context"
	"fmt"
	"time"

	"dealer_ops_backend/internal/events"
	"dealer_ops_backend/internal/leads/repository"
	"dealer_ops_backend/platform/config"
	"dealer_ops_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	repo   repository.Repository
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		repo:   repository.New(pool),
		bus:    bus,
		log:    log,
	}

	mux.HandleFunc(TaskFollowUpReminder, w.handleFollowUpReminder)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	// Reminders scheduled while the worker was down never fire as tasks;
	// sweep them once on startup.
	if err := w.publishOverdueReminders(ctx); err != nil {
		w.log.Error("overdue follow-up sweep failed", "error", err)
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// publishOverdueReminders publishes a due event for every incomplete
// follow-up whose scheduled time has already passed.
func (w *Worker) publishOverdueReminders(ctx context.Context) error {
	overdue, err := w.repo.ListDueFollowUps(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, followUp := range overdue {
		lead, err := w.repo.GetByID(ctx, followUp.LeadID)
		if err != nil {
			w.log.Warn("overdue follow-up without lead", "followUpId", followUp.ID)
			continue
		}
		if w.bus == nil {
			continue
		}
		if err := w.bus.PublishSync(ctx, events.FollowUpReminderDue{
			BaseEvent:   events.NewBaseEvent(),
			FollowUpID:  followUp.ID,
			LeadID:      lead.ID,
			LeadName:    lead.Name,
			LeadPhone:   lead.Phone,
			ScheduledAt: followUp.ScheduledAt,
			Notes:       followUp.Notes,
		}); err != nil {
			w.log.Error("publish overdue reminder", "followUpId", followUp.ID, "error", err)
		}
	}
	return nil
}

// handleFollowUpReminder fires when a follow-up comes due. Completed or
// deleted follow-ups are skipped silently; the reminder is stale, not an
// error worth retrying.
func (w *Worker) handleFollowUpReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowUpReminderPayload(task)
	if err != nil {
		return err
	}

	followUpID, err := uuid.Parse(payload.FollowUpID)
	if err != nil {
		return err
	}

	followUp, err := w.repo.GetFollowUpByID(ctx, followUpID)
	if err != nil {
		w.log.Warn("follow-up reminder for missing follow-up", "followUpId", followUpID)
		return nil
	}
	if followUp.Completed {
		return nil
	}

	lead, err := w.repo.GetByID(ctx, followUp.LeadID)
	if err != nil {
		return err
	}

	w.log.Info("follow-up due",
		"followUpId", followUp.ID,
		"leadId", lead.ID,
		"lead", lead.Name,
		"scheduledAt", followUp.ScheduledAt,
	)

	if w.bus == nil {
		return nil
	}

	return w.bus.PublishSync(ctx, events.FollowUpReminderDue{
		BaseEvent:   events.NewBaseEvent(),
		FollowUpID:  followUp.ID,
		LeadID:      lead.ID,
		LeadName:    lead.Name,
		LeadPhone:   lead.Phone,
		ScheduledAt: followUp.ScheduledAt,
		Notes:       followUp.Notes,
	})
}
