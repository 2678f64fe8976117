package domain

import (
	"net/mail"
	"strings"
	"time"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

// IsTerminal reports whether the status can no longer change.
func (s InvitationStatus) IsTerminal() bool {
	return s == InvitationAccepted || s == InvitationDeclined
}

// Invitation asks the owner of Email to join ProjectID with Role.
// At most one pending invitation exists per (project, email).
type Invitation struct {
	ID        string           `json:"id"`
	ProjectID string           `json:"project_id"`
	Email     string           `json:"email"`
	Role      MemberRole       `json:"role"`
	Status    InvitationStatus `json:"status"`
	InvitedBy string           `json:"invited_by"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func (i *Invitation) IsPending() bool {
	return i != nil && i.Status == InvitationPending
}

// NormalizeEmail trims and lowercases an address and validates its shape.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
