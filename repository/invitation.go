package repository

import (
	"context"
	"time"

	"github.com/fastygo/collab/domain"
)

type InvitationRepository interface {
	GetInvitation(ctx context.Context, id string) (*domain.Invitation, error)
	// InsertInvitation returns domain.ErrDuplicatePendingInvitation when a pending
	// invitation already exists for the same project and email.
	InsertInvitation(ctx context.Context, invitation *domain.Invitation) error
	// CompareAndSetInvitationStatus moves the invitation to next only if its current
	// status equals expected. It reports false when the row was missing or another
	// writer got there first.
	CompareAndSetInvitationStatus(ctx context.Context, id string, expected, next domain.InvitationStatus, at time.Time) (bool, error)
	ListPendingByProject(ctx context.Context, projectID string) ([]domain.Invitation, error)
	ListPendingByEmail(ctx context.Context, email string) ([]domain.Invitation, error)
}
