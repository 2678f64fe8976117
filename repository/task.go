package repository

import (
	"context"
	"time"

	"github.com/fastygo/collab/domain"
)

type TaskRepository interface {
	// ListTasksNearDueDate returns tasks assigned to userID, not Done, due within
	// [from, to] inclusive. ProjectTitle is populated.
	ListTasksNearDueDate(ctx context.Context, userID string, from, to time.Time) ([]domain.Task, error)
}
