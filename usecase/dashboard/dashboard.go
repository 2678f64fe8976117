package dashboard

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
	"github.com/fastygo/collab/usecase"
)

type UseCase struct {
	repo    repository.DashboardRepository
	logger  *zap.Logger
	timeout time.Duration
}

func New(repo repository.DashboardRepository, logger *zap.Logger, callTimeout time.Duration) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{repo: repo, logger: logger, timeout: callTimeout}
}

// Stats returns project, task, synergy and teammate totals for userID.
func (uc *UseCase) Stats(ctx context.Context, userID string) (*domain.DashboardStats, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	stats, err := usecase.Fetch(ctx, uc.timeout, "dashboard stats", func(ctx context.Context) (*domain.DashboardStats, error) {
		return uc.repo.DashboardStats(ctx, userID)
	})
	if err != nil {
		uc.logger.Warn("dashboard stats failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return stats, nil
}
