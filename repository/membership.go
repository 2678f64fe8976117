package repository

import (
	"context"

	"github.com/fastygo/collab/domain"
)

type MembershipRepository interface {
	// ListSharedMemberships returns userA's memberships in projects userB also belongs to.
	ListSharedMemberships(ctx context.Context, userA, userB string) ([]domain.ProjectMembership, error)
	// ListCollaborators returns the distinct users sharing at least one project with userID.
	ListCollaborators(ctx context.Context, userID string) ([]string, error)
	// InsertMembership returns domain.ErrMembershipExists when the user already belongs to the project.
	InsertMembership(ctx context.Context, projectID, userID string, role domain.MemberRole) error
}
