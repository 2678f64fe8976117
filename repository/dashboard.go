package repository

import (
	"context"

	"github.com/fastygo/collab/domain"
)

type DashboardRepository interface {
	DashboardStats(ctx context.Context, userID string) (*domain.DashboardStats, error)
}
