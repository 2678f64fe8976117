package repository

import (
	"context"

	"github.com/fastygo/collab/domain"
)

type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

type NotificationRepository interface {
	// InsertNotification returns domain.ErrNotificationExists when the recipient
	// already holds a notification with the same dedupe key.
	InsertNotification(ctx context.Context, notification *domain.Notification) error
	NotificationExists(ctx context.Context, userID, dedupeKey string) (bool, error)
	ListNotifications(ctx context.Context, filter NotificationFilter) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
}
