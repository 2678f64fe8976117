package invitation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/collab/domain"
	"github.com/fastygo/collab/repository"
	"github.com/fastygo/collab/usecase"
)

// CreateInput carries the fields of a new invitation.
type CreateInput struct {
	ProjectID string
	Email     string
	Role      domain.MemberRole
	InviterID string
}

type UseCase struct {
	invitations repository.InvitationRepository
	projects    repository.ProjectRepository
	tx          repository.Transactor
	sink        usecase.NotificationSink
	logger      *zap.Logger
	timeout     time.Duration
	now         func() time.Time
}

func New(
	invitations repository.InvitationRepository,
	projects repository.ProjectRepository,
	tx repository.Transactor,
	sink usecase.NotificationSink,
	logger *zap.Logger,
	callTimeout time.Duration,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		invitations: invitations,
		projects:    projects,
		tx:          tx,
		sink:        sink,
		logger:      logger,
		timeout:     callTimeout,
		now:         time.Now,
	}
}

// Create stores a pending invitation for a normalized email. A second pending
// invitation for the same project and email fails with
// domain.ErrDuplicatePendingInvitation.
func (uc *UseCase) Create(ctx context.Context, input CreateInput) (*domain.Invitation, error) {
	projectID := strings.TrimSpace(input.ProjectID)
	inviterID := strings.TrimSpace(input.InviterID)
	if projectID == "" || inviterID == "" {
		return nil, domain.ErrInvalidPayload
	}
	email, err := domain.NormalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	role := input.Role
	if role == "" {
		role = domain.RoleMember
	}
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}

	if _, err := usecase.Fetch(ctx, uc.timeout, "get project", func(ctx context.Context) (*domain.Project, error) {
		return uc.projects.GetProject(ctx, projectID)
	}); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	inv := &domain.Invitation{
		ProjectID: projectID,
		Email:     email,
		Role:      role,
		Status:    domain.InvitationPending,
		InvitedBy: inviterID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usecase.Call(ctx, uc.timeout, "insert invitation", func(ctx context.Context) error {
		return uc.invitations.InsertInvitation(ctx, inv)
	}); err != nil {
		if errors.Is(err, domain.ErrDuplicatePendingInvitation) {
			uc.logger.Info("duplicate pending invitation",
				zap.String("project_id", projectID),
				zap.String("email", email))
		}
		return nil, err
	}

	uc.logger.Info("invitation created",
		zap.String("invitation_id", inv.ID),
		zap.String("project_id", projectID),
		zap.String("invited_by", inviterID))
	return inv, nil
}

// Accept moves a pending invitation to accepted and enrolls actingUserID in
// the project with the invited role, in one transaction. The status
// compare-and-swap decides the winner among concurrent responders; losers get
// domain.ErrInvitationAlreadyResponded. An existing membership is kept and the
// acceptance still succeeds.
func (uc *UseCase) Accept(ctx context.Context, invitationID, actingUserID string) (*domain.Invitation, error) {
	invitationID = strings.TrimSpace(invitationID)
	actingUserID = strings.TrimSpace(actingUserID)
	if invitationID == "" || actingUserID == "" {
		return nil, domain.ErrInvalidPayload
	}

	var accepted *domain.Invitation
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		inv, err := uc.respond(ctx, tx.Invitations(), invitationID, domain.InvitationAccepted)
		if err != nil {
			return err
		}

		err = usecase.Call(ctx, uc.timeout, "insert membership", func(ctx context.Context) error {
			return tx.Memberships().InsertMembership(ctx, inv.ProjectID, actingUserID, inv.Role)
		})
		switch {
		case errors.Is(err, domain.ErrMembershipExists):
			uc.logger.Info("membership already present on accept",
				zap.String("invitation_id", invitationID),
				zap.String("project_id", inv.ProjectID),
				zap.String("user_id", actingUserID))
		case err != nil:
			return err
		}
		accepted = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("invitation accepted",
		zap.String("invitation_id", accepted.ID),
		zap.String("project_id", accepted.ProjectID),
		zap.String("user_id", actingUserID))
	uc.notifyInviter(ctx, accepted)
	return accepted, nil
}

// Decline moves a pending invitation to declined.
func (uc *UseCase) Decline(ctx context.Context, invitationID string) (*domain.Invitation, error) {
	invitationID = strings.TrimSpace(invitationID)
	if invitationID == "" {
		return nil, domain.ErrInvalidPayload
	}

	var declined *domain.Invitation
	err := uc.tx.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		inv, err := uc.respond(ctx, tx.Invitations(), invitationID, domain.InvitationDeclined)
		if err != nil {
			return err
		}
		declined = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("invitation declined",
		zap.String("invitation_id", declined.ID),
		zap.String("project_id", declined.ProjectID))
	return declined, nil
}

// respond applies pending -> next and returns the updated invitation.
func (uc *UseCase) respond(ctx context.Context, invitations repository.InvitationRepository, id string, next domain.InvitationStatus) (*domain.Invitation, error) {
	inv, err := usecase.Fetch(ctx, uc.timeout, "get invitation", func(ctx context.Context) (*domain.Invitation, error) {
		return invitations.GetInvitation(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	if !inv.IsPending() {
		return nil, domain.ErrInvitationAlreadyResponded
	}

	at := uc.now().UTC()
	swapped, err := usecase.Fetch(ctx, uc.timeout, "update invitation status", func(ctx context.Context) (bool, error) {
		return invitations.CompareAndSetInvitationStatus(ctx, id, domain.InvitationPending, next, at)
	})
	if err != nil {
		return nil, err
	}
	if !swapped {
		uc.logger.Info("invitation response lost race",
			zap.String("invitation_id", id),
			zap.String("status", string(next)))
		return nil, domain.ErrInvitationAlreadyResponded
	}

	inv.Status = next
	if at.After(inv.CreatedAt) {
		inv.UpdatedAt = at
	} else {
		inv.UpdatedAt = inv.CreatedAt
	}
	return inv, nil
}

func (uc *UseCase) notifyInviter(ctx context.Context, inv *domain.Invitation) {
	if uc.sink == nil || inv.InvitedBy == "" {
		return
	}
	title := inv.ProjectID
	if p, err := uc.projects.GetProject(ctx, inv.ProjectID); err == nil && p.Title != "" {
		title = p.Title
	}
	_, err := uc.sink.Emit(ctx, &domain.Notification{
		UserID:    inv.InvitedBy,
		ProjectID: inv.ProjectID,
		Type:      domain.NotificationProjectUpdate,
		Message:   fmt.Sprintf("%s joined project %q", inv.Email, title),
		DedupeKey: "invitation_accepted:" + inv.ID,
	})
	if err != nil {
		uc.logger.Warn("inviter notification failed",
			zap.String("invitation_id", inv.ID),
			zap.Error(err))
	}
}

// ListPendingForProject lists the open invitations of a project, newest first.
func (uc *UseCase) ListPendingForProject(ctx context.Context, projectID string) ([]domain.Invitation, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return nil, domain.ErrInvalidPayload
	}
	return usecase.Fetch(ctx, uc.timeout, "list project invitations", func(ctx context.Context) ([]domain.Invitation, error) {
		return uc.invitations.ListPendingByProject(ctx, projectID)
	})
}

// ListPendingForEmail lists the open invitations addressed to email.
func (uc *UseCase) ListPendingForEmail(ctx context.Context, email string) ([]domain.Invitation, error) {
	normalized, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return usecase.Fetch(ctx, uc.timeout, "list user invitations", func(ctx context.Context) ([]domain.Invitation, error) {
		return uc.invitations.ListPendingByEmail(ctx, normalized)
	})
}
