package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

type membershipRepository struct {
	db querier
}

// NewMembershipRepository returns a Postgres-backed implementation of MembershipRepository.
func NewMembershipRepository(pool *pgxpool.Pool) repository.MembershipRepository {
	return &membershipRepository{db: pool}
}

func (r *membershipRepository) ListSharedMemberships(ctx context.Context, userA, userB string) ([]domain.ProjectMembership, error) {
	const query = `
	SELECT a.project_id, a.user_id, a.role, a.joined_at
	FROM project_members a
	JOIN project_members b ON b.project_id = a.project_id AND b.user_id = $2
	WHERE a.user_id = $1
	ORDER BY a.project_id
	`
	rows, err := r.db.Query(ctx, query, userA, userB)
	if err != nil {
		return nil, storeErr("list shared memberships", err, nil)
	}
	defer rows.Close()

	var memberships []domain.ProjectMembership
	for rows.Next() {
		var (
			m    domain.ProjectMembership
			role string
		)
		if err := rows.Scan(&m.ProjectID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, storeErr("scan membership", err, nil)
		}
		m.Role = domain.MemberRole(role)
		memberships = append(memberships, m)
	}
	return memberships, storeErr("list shared memberships", rows.Err(), nil)
}

func (r *membershipRepository) ListCollaborators(ctx context.Context, userID string) ([]string, error) {
	const query = `
	SELECT DISTINCT b.user_id
	FROM project_members a
	JOIN project_members b ON b.project_id = a.project_id
	WHERE a.user_id = $1 AND b.user_id <> $1
	ORDER BY b.user_id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, storeErr("list collaborators", err, nil)
	}
	users, err := collectStrings(rows)
	return users, storeErr("list collaborators", err, nil)
}

// InsertMembership uses ON CONFLICT DO NOTHING so an existing row never aborts
// an enclosing transaction.
func (r *membershipRepository) InsertMembership(ctx context.Context, projectID, userID string, role domain.MemberRole) error {
	const query = `
	INSERT INTO project_members (project_id, user_id, role)
	VALUES ($1, $2, $3)
	ON CONFLICT (project_id, user_id) DO NOTHING
	`
	tag, err := r.db.Exec(ctx, query, projectID, userID, string(role))
	if err != nil {
		return storeErr("insert membership", err, nil)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMembershipExists
	}
	return nil
}
