package repository

import (
	"context"
	"time"

	"github.com/fastygo/collab/domain"
)

type ProjectRepository interface {
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	// ListProjectsNearDeadline returns active projects userID belongs to whose
	// deadline falls within [from, to] inclusive.
	ListProjectsNearDeadline(ctx context.Context, userID string, from, to time.Time) ([]domain.Project, error)
	// ListUsersWithUpcomingDeadlines returns every user who is a member of an
	// active project or the assignee of an open task due within [from, to].
	ListUsersWithUpcomingDeadlines(ctx context.Context, from, to time.Time) ([]string, error)
}
