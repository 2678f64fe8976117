package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/collab/internal/infrastructure/outbox"
)

// Queue is the outbox surface the relay drains.
type Queue interface {
	Peek(limit int) ([]outbox.Item, error)
	Ack(item outbox.Item) error
	Retry(item outbox.Item) error
	Purge(olderThan time.Time) (int, error)
}

// Publisher delivers one payload to a user's push channel.
type Publisher interface {
	Publish(ctx context.Context, userID string, payload []byte) (int64, error)
}

// RelayConfig controls how frequently the outbox is drained.
type RelayConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// RelayStats summarizes one drain.
type RelayStats struct {
	Published int
	Retried   int
	Dropped   int
	Purged    int
}

// OutboxRelay moves queued notifications to the push publisher.
type OutboxRelay struct {
	queue     Queue
	publisher Publisher
	logger    *zap.Logger
	cron      *cron.Cron
	cfg       RelayConfig
	now       func() time.Time
}

func NewOutboxRelay(queue Queue, publisher Publisher, logger *zap.Logger, cfg RelayConfig) *OutboxRelay {
	if cfg.Interval < time.Second {
		cfg.Interval = 5 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &OutboxRelay{
		queue:     queue,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
		cron:      cron.New(cron.WithSeconds()),
		now:       time.Now,
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	_, _ = r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if _, err := r.Drain(ctx); err != nil {
			r.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	return r
}

// Start launches the cron scheduler.
func (r *OutboxRelay) Start() {
	if r == nil || r.cron == nil {
		return
	}
	r.cron.Start()
	r.logger.Info("outbox relay started", zap.Duration("interval", r.cfg.Interval))
}

// Stop waits for a running drain or ctx, whichever ends first.
func (r *OutboxRelay) Stop(ctx context.Context) error {
	if r == nil || r.cron == nil {
		return nil
	}
	stopCtx := r.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	r.logger.Info("outbox relay stopped")
	return nil
}

// Drain publishes one batch. Failed items go to the back of the queue until
// they exhaust MaxRetries.
func (r *OutboxRelay) Drain(ctx context.Context) (RelayStats, error) {
	var stats RelayStats
	if r == nil || r.queue == nil || r.publisher == nil {
		return stats, nil
	}

	if r.cfg.Retention > 0 {
		purged, err := r.queue.Purge(r.now().Add(-r.cfg.Retention))
		if err != nil {
			r.logger.Warn("outbox purge failed", zap.Error(err))
		}
		stats.Purged = purged
	}

	items, err := r.queue.Peek(r.cfg.BatchSize)
	if err != nil {
		return stats, err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if _, err := r.publisher.Publish(ctx, item.UserID, item.Payload); err != nil {
			if item.Attempts+1 >= r.cfg.MaxRetries {
				r.logger.Warn("dropping outbox item (max retries reached)",
					zap.String("item_id", item.ID),
					zap.String("notification_id", item.NotificationID),
					zap.Error(err))
				if err := r.queue.Ack(item); err != nil {
					r.logger.Warn("failed to drop outbox item", zap.Error(err))
				}
				stats.Dropped++
				continue
			}
			r.logger.Warn("outbox publish failed",
				zap.String("item_id", item.ID),
				zap.Int("attempts", item.Attempts+1),
				zap.Error(err))
			if err := r.queue.Retry(item); err != nil {
				r.logger.Error("failed to requeue outbox item", zap.Error(err))
			}
			stats.Retried++
			continue
		}

		if err := r.queue.Ack(item); err != nil {
			r.logger.Warn("failed to ack outbox item", zap.String("item_id", item.ID), zap.Error(err))
		}
		stats.Published++
	}

	if len(items) > 0 {
		r.logger.Debug("outbox drained",
			zap.Int("published", stats.Published),
			zap.Int("retried", stats.Retried),
			zap.Int("dropped", stats.Dropped))
	}
	return stats, nil
}
