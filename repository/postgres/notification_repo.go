package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

const notificationDedupeIndex = "notifications_dedupe_uniq"

type notificationRepository struct {
	db querier
}

// NewNotificationRepository returns a Postgres-backed implementation of NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) repository.NotificationRepository {
	return &notificationRepository{db: pool}
}

func (r *notificationRepository) InsertNotification(ctx context.Context, n *domain.Notification) error {
	if n == nil || n.UserID == "" || !n.Type.Valid() {
		return domain.ErrInvalidPayload
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO notifications (id, user_id, project_id, type, message, read, dedupe_key, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
	RETURNING created_at
	`
	err := r.db.QueryRow(ctx, query,
		n.ID,
		n.UserID,
		nullString(n.ProjectID),
		string(n.Type),
		n.Message,
		n.Read,
		nullString(n.DedupeKey),
		nullTime(n.CreatedAt),
	).Scan(&n.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, notificationDedupeIndex) {
			return domain.ErrNotificationExists
		}
		return storeErr("insert notification", err, nil)
	}
	return nil
}

func (r *notificationRepository) NotificationExists(ctx context.Context, userID, dedupeKey string) (bool, error) {
	if dedupeKey == "" {
		return false, nil
	}
	const query = `SELECT EXISTS (SELECT 1 FROM notifications WHERE user_id = $1 AND dedupe_key = $2)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, dedupeKey).Scan(&exists); err != nil {
		return false, storeErr("check notification", err, nil)
	}
	return exists, nil
}

func (r *notificationRepository) ListNotifications(ctx context.Context, filter repository.NotificationFilter) ([]domain.Notification, error) {
	const query = `
	SELECT id, user_id, COALESCE(project_id, ''), type, message, read, COALESCE(dedupe_key, ''), created_at
	FROM notifications
	WHERE user_id = $1
	  AND (NOT $2 OR read = FALSE)
	ORDER BY created_at DESC, id DESC
	LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, filter.UserID, filter.UnreadOnly, clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, storeErr("list notifications", err, nil)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var (
			n   domain.Notification
			typ string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.ProjectID, &typ, &n.Message, &n.Read, &n.DedupeKey, &n.CreatedAt); err != nil {
			return nil, storeErr("scan notification", err, nil)
		}
		n.Type = domain.NotificationType(typ)
		notifications = append(notifications, n)
	}
	return notifications, storeErr("list notifications", rows.Err(), nil)
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`
	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, storeErr("count unread notifications", err, nil)
	}
	return count, nil
}

func (r *notificationRepository) MarkNotificationRead(ctx context.Context, userID, id string) error {
	const query = `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`
	tag, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return storeErr("mark notification read", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}
