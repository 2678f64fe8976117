package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

type dashboardRepository struct {
	db querier
}

// NewDashboardRepository returns a Postgres-backed implementation of DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) repository.DashboardRepository {
	return &dashboardRepository{db: pool}
}

func (r *dashboardRepository) DashboardStats(ctx context.Context, userID string) (*domain.DashboardStats, error) {
	const query = `
	SELECT
		(SELECT COUNT(*) FROM project_members WHERE user_id = $1),
		(SELECT COUNT(*) FROM tasks WHERE assignee_id = $1 AND status <> 'Done'),
		(SELECT COALESCE(ROUND(AVG(score)), 0)::int FROM synergy_scores WHERE user1_id = $1 OR user2_id = $1),
		(SELECT COUNT(DISTINCT b.user_id)
		   FROM project_members a
		   JOIN project_members b ON b.project_id = a.project_id
		  WHERE a.user_id = $1 AND b.user_id <> $1)
	`
	var stats domain.DashboardStats
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&stats.TotalProjects,
		&stats.ActiveTasks,
		&stats.SynergyScore,
		&stats.TeamMembers,
	); err != nil {
		return nil, storeErr("dashboard stats", err, nil)
	}
	return &stats, nil
}
