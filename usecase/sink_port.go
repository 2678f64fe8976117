package usecase

import (
	"context"

	"github.com/fastygo/collab/domain"
)

// NotificationSink persists a notification and hands it on for push delivery.
// It reports false without error when the recipient already holds a
// notification with the same dedupe key.
type NotificationSink interface {
	Emit(ctx context.Context, notification *domain.Notification) (bool, error)
}
