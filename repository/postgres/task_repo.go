package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

type taskRepository struct {
	db querier
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{db: pool}
}

func (r *taskRepository) ListTasksNearDueDate(ctx context.Context, userID string, from, to time.Time) ([]domain.Task, error) {
	const query = `
	SELECT t.id, t.project_id, t.title, t.status, COALESCE(t.assignee_id, ''), t.due_date, p.title, t.created_at, t.updated_at
	FROM tasks t
	JOIN projects p ON p.id = t.project_id
	WHERE t.assignee_id = $1
	  AND t.status <> 'Done'
	  AND t.due_date IS NOT NULL
	  AND t.due_date >= $2
	  AND t.due_date <= $3
	ORDER BY t.due_date ASC, t.id ASC
	`
	rows, err := r.db.Query(ctx, query, userID, from, to)
	if err != nil {
		return nil, storeErr("list tasks near due date", err, nil)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, storeErr("scan task", err, nil)
		}
		tasks = append(tasks, *task)
	}
	return tasks, storeErr("list tasks near due date", rows.Err(), nil)
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task   domain.Task
		status string
		due    *time.Time
	)
	if err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.Title,
		&status,
		&task.AssigneeID,
		&due,
		&task.ProjectTitle,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	task.DueDate = due
	return &task, nil
}
