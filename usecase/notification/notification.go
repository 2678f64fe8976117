package notification

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
	"github.com/fastygo/collab/usecase"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Inbox is one page of a user's notifications plus the unread total.
type Inbox struct {
	Items  []domain.Notification `json:"items"`
	Unread int                   `json:"unread"`
}

type UseCase struct {
	repo    repository.NotificationRepository
	logger  *zap.Logger
	timeout time.Duration
}

func New(repo repository.NotificationRepository, logger *zap.Logger, callTimeout time.Duration) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{repo: repo, logger: logger, timeout: callTimeout}
}

func (uc *UseCase) List(ctx context.Context, userID string, unreadOnly bool, limit, offset int) (*Inbox, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	items, err := usecase.Fetch(ctx, uc.timeout, "list notifications", func(ctx context.Context) ([]domain.Notification, error) {
		return uc.repo.ListNotifications(ctx, repository.NotificationFilter{
			UserID:     userID,
			UnreadOnly: unreadOnly,
			Limit:      limit,
			Offset:     offset,
		})
	})
	if err != nil {
		return nil, err
	}
	unread, err := uc.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return &Inbox{Items: items, Unread: unread}, nil
}

func (uc *UseCase) UnreadCount(ctx context.Context, userID string) (int, error) {
	return usecase.Fetch(ctx, uc.timeout, "count unread notifications", func(ctx context.Context) (int, error) {
		return uc.repo.CountUnread(ctx, userID)
	})
}

// MarkRead flips the read flag of one of userID's notifications. Marking an
// already read notification succeeds.
func (uc *UseCase) MarkRead(ctx context.Context, userID, notificationID string) error {
	userID = strings.TrimSpace(userID)
	notificationID = strings.TrimSpace(notificationID)
	if userID == "" {
		return domain.ErrUnauthorized
	}
	if notificationID == "" {
		return domain.ErrInvalidPayload
	}
	if err := usecase.Call(ctx, uc.timeout, "mark notification read", func(ctx context.Context) error {
		return uc.repo.MarkNotificationRead(ctx, userID, notificationID)
	}); err != nil {
		return err
	}
	uc.logger.Debug("notification read", zap.String("user_id", userID), zap.String("notification_id", notificationID))
	return nil
}
