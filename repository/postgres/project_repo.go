package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

const projectColumns = `p.id, p.title, p.description, p.deadline, p.status, p.owner_id, p.completed_at, p.created_at, p.updated_at`

type projectRepository struct {
	db querier
}

// NewProjectRepository returns a Postgres-backed implementation of ProjectRepository.
func NewProjectRepository(pool *pgxpool.Pool) repository.ProjectRepository {
	return &projectRepository{db: pool}
}

func (r *projectRepository) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	const query = `
	SELECT ` + projectColumns + `
	FROM projects p
	WHERE p.id = $1
	`
	project, err := scanProject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeErr("get project", err, domain.ErrProjectNotFound)
	}
	return project, nil
}

func (r *projectRepository) ListProjectsNearDeadline(ctx context.Context, userID string, from, to time.Time) ([]domain.Project, error) {
	const query = `
	SELECT ` + projectColumns + `
	FROM projects p
	JOIN project_members m ON m.project_id = p.id
	WHERE m.user_id = $1
	  AND p.status = 'active'
	  AND p.deadline IS NOT NULL
	  AND p.deadline >= $2
	  AND p.deadline <= $3
	ORDER BY p.deadline ASC, p.id ASC
	`
	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, storeErr("list projects near deadline", err, nil)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, storeErr("scan project", err, nil)
		}
		projects = append(projects, *project)
	}
	return projects, storeErr("list projects near deadline", rows.Err(), nil)
}

func (r *projectRepository) ListUsersWithUpcomingDeadlines(ctx context.Context, from, to time.Time) ([]string, error) {
	const query = `
	SELECT m.user_id
	FROM project_members m
	JOIN projects p ON p.id = m.project_id
	WHERE p.status = 'active' AND p.deadline >= $1 AND p.deadline <= $2
	UNION
	SELECT t.assignee_id
	FROM tasks t
	WHERE t.assignee_id IS NOT NULL
	  AND t.status <> 'Done'
	  AND t.due_date >= $1 AND t.due_date <= $2
	ORDER BY 1
	`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, storeErr("list users with upcoming deadlines", err, nil)
	}
	users, err := collectStrings(rows)
	return users, storeErr("list users with upcoming deadlines", err, nil)
}

func scanProject(row scanner) (*domain.Project, error) {
	var (
		project domain.Project
		status  string
	)
	if err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.Deadline,
		&status,
		&project.OwnerID,
		&project.CompletedAt,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	project.Status = domain.ProjectStatus(status)
	return &project, nil
}
