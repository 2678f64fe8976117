package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
)

const (
	invitationColumns      = `id, project_id, email, role, status, invited_by, created_at, updated_at`
	pendingInvitationIndex = "project_invitations_pending_uniq"
)

type invitationRepository struct {
	db querier
}

// NewInvitationRepository returns a Postgres-backed implementation of InvitationRepository.
func NewInvitationRepository(pool *pgxpool.Pool) repository.InvitationRepository {
	return &invitationRepository{db: pool}
}

func (r *invitationRepository) GetInvitation(ctx context.Context, id string) (*domain.Invitation, error) {
	const query = `SELECT ` + invitationColumns + ` FROM project_invitations WHERE id = $1`
	invitation, err := scanInvitation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storeErr("get invitation", err, domain.ErrInvitationNotFound)
	}
	return invitation, nil
}

func (r *invitationRepository) InsertInvitation(ctx context.Context, invitation *domain.Invitation) error {
	if invitation == nil {
		return domain.ErrInvalidPayload
	}
	if invitation.ID == "" {
		invitation.ID = uuid.NewString()
	}

	const query = `
	INSERT INTO project_invitations (id, project_id, email, role, status, invited_by, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()), COALESCE($7, NOW()))
	RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		invitation.ID,
		invitation.ProjectID,
		invitation.Email,
		string(invitation.Role),
		string(invitation.Status),
		invitation.InvitedBy,
		nullTime(invitation.CreatedAt),
	).Scan(&invitation.CreatedAt, &invitation.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, pendingInvitationIndex) {
			return domain.ErrDuplicatePendingInvitation
		}
		return storeErr("insert invitation", err, nil)
	}
	return nil
}

func (r *invitationRepository) CompareAndSetInvitationStatus(ctx context.Context, id string, expected, next domain.InvitationStatus, at time.Time) (bool, error) {
	const query = `
	UPDATE project_invitations
	SET status = $3,
		updated_at = GREATEST($4, created_at)
	WHERE id = $1 AND status = $2
	`
	tag, err := r.db.Exec(ctx, query, id, string(expected), string(next), at)
	if err != nil {
		return false, storeErr("update invitation status", err, nil)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *invitationRepository) ListPendingByProject(ctx context.Context, projectID string) ([]domain.Invitation, error) {
	const query = `
	SELECT ` + invitationColumns + `
	FROM project_invitations
	WHERE project_id = $1 AND status = 'pending'
	ORDER BY created_at DESC
	`
	return r.list(ctx, "list project invitations", query, projectID)
}

func (r *invitationRepository) ListPendingByEmail(ctx context.Context, email string) ([]domain.Invitation, error) {
	const query = `
	SELECT ` + invitationColumns + `
	FROM project_invitations
	WHERE email = $1 AND status = 'pending'
	ORDER BY created_at DESC
	`
	return r.list(ctx, "list user invitations", query, email)
}

func (r *invitationRepository) list(ctx context.Context, op, query string, arg string) ([]domain.Invitation, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, storeErr(op, err, nil)
	}
	defer rows.Close()

	var invitations []domain.Invitation
	for rows.Next() {
		invitation, err := scanInvitation(rows)
		if err != nil {
			return nil, storeErr(op, err, nil)
		}
		invitations = append(invitations, *invitation)
	}
	return invitations, storeErr(op, rows.Err(), nil)
}

func scanInvitation(row scanner) (*domain.Invitation, error) {
	var (
		invitation   domain.Invitation
		role, status   string
	)
	if err := row.Scan(
		&invitation.ID,
		&invitation.ProjectID,
		&invitation.Email,
		&role,
		&status,
		&invitation.InvitedBy,
		&invitation.CreatedAt,
		&invitation.UpdatedAt,
	); err != nil {
		return nil, err
	}
	invitation.Role = domain.MemberRole(role)
	invitation.Status = domain.InvitationStatus(status)
	return &invitation, nil
}
