package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"dealer_ops_backend/internal/events"
	"dealer_ops_backend/platform/config"
	"dealer_ops_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
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

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queue,
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// ScheduleFollowUpReminder enqueues a reminder task to fire at the
// follow-up's scheduled time. A nil client is a no-op, so the API can run
// without Redis in development.
func (c *Client) ScheduleFollowUpReminder(ctx context.Context, payload FollowUpReminderPayload, runAt time.Time) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewFollowUpReminderTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessAt(runAt), asynq.Queue(c.queue))
	return err
}

// Subscribe wires the client to the event bus: every scheduled follow-up
// gets a reminder task enqueued for its due time.
func (c *Client) Subscribe(bus events.Bus, log *logger.Logger) {
	bus.Subscribe(events.FollowUpScheduled{}.EventName(), events.HandlerFunc(
		func(ctx context.Context, event events.Event) error {
			scheduled, ok := event.(events.FollowUpScheduled)
			if !ok {
				return nil
			}
			err := c.ScheduleFollowUpReminder(ctx, FollowUpReminderPayload{
				FollowUpID: scheduled.FollowUpID.String(),
				LeadID:     scheduled.LeadID.String(),
			}, scheduled.ScheduledAt)
			if err != nil {
				log.Error("enqueue follow-up reminder", "followUpId", scheduled.FollowUpID, "error", err)
			}
			return err
		}))
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
