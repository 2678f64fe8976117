package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/internal/infrastructure/outbox"
	"github.com/fastygo/collab/repository"
	"github.com/fastygo/collab/usecase"
)

// Enqueuer accepts items for later push delivery.
type Enqueuer interface {
	Enqueue(item outbox.Item) error
}

// NotificationSink stores notifications and queues them for push. A
// notification whose dedupe key the recipient already holds is skipped.
type NotificationSink struct {
	repo   repository.NotificationRepository
	queue  Enqueuer
	logger *zap.Logger
	now    func() time.Time
}

var _ usecase.NotificationSink = (*NotificationSink)(nil)

// NewNotificationSink builds a sink. A nil queue disables push.
func NewNotificationSink(repo repository.NotificationRepository, queue Enqueuer, logger *zap.Logger) *NotificationSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationSink{repo: repo, queue: queue, logger: logger, now: time.Now}
}

func (s *NotificationSink) Emit(ctx context.Context, n *domain.Notification) (bool, error) {
	if n == nil || strings.TrimSpace(n.UserID) == "" || !n.Type.Valid() || n.Message == "" {
		return false, domain.ErrInvalidPayload
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now().UTC()
	}
	n.Read = false

	if n.DedupeKey != "" {
		exists, err := s.repo.NotificationExists(ctx, n.UserID, n.DedupeKey)
		if err != nil {
			return false, err
		}
		if exists {
			s.logger.Debug("notification suppressed",
				zap.String("user_id", n.UserID),
				zap.String("dedupe_key", n.DedupeKey))
			return false, nil
		}
	}

	if err := s.repo.InsertNotification(ctx, n); err != nil {
		if errors.Is(err, domain.ErrNotificationExists) {
			s.logger.Debug("notification suppressed by store",
				zap.String("user_id", n.UserID),
				zap.String("dedupe_key", n.DedupeKey))
			return false, nil
		}
		return false, err
	}

	s.push(n)
	return true, nil
}

func (s *NotificationSink) push(n *domain.Notification) {
	if s.queue == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		s.logger.Warn("notification encode failed", zap.String("notification_id", n.ID), zap.Error(err))
		return
	}
	if err := s.queue.Enqueue(outbox.Item{
		UserID:         n.UserID,
		NotificationID: n.ID,
		Payload:        payload,
	}); err != nil {
		s.logger.Warn("outbox enqueue failed", zap.String("notification_id", n.ID), zap.Error(err))
	}
}
