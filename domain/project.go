package domain

import "time"

type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectArchived  ProjectStatus = "archived"
)

// Project is a shared unit of work owned by one user and joined by members.
type Project struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	Status      ProjectStatus `json:"status"`
	OwnerID     string        `json:"owner_id"`
	// CompletedAt is stamped when status becomes completed. Older rows may lack it.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (p *Project) IsCompleted() bool {
	return p != nil && p.Status == ProjectCompleted
}

// CompletionTime returns when the project was completed, falling back to the
// last update for rows written before completed_at existed.
func (p *Project) CompletionTime() time.Time {
	if p.CompletedAt != nil && !p.CompletedAt.IsZero() {
		return *p.CompletedAt
	}
	return p.UpdatedAt
}

type MemberRole string

const (
	RoleOwner  MemberRole = "owner"
	RoleMember MemberRole = "member"
)

func (r MemberRole) Valid() bool {
	return r == RoleOwner || r == RoleMember
}

// ProjectMembership links a user to a project. A user appears at most once per project.
type ProjectMembership struct {
	ProjectID string     `json:"project_id"`
	UserID    string     `json:"user_id"`
	Role      MemberRole `json:"role"`
	JoinedAt  time.Time  `json:"joined_at"`
}
