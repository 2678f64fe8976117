package domain

import "time"

type NotificationType string

const (
	NotificationTaskAssigned  NotificationType = "task_assigned"
	NotificationDeadlineSoon  NotificationType = "deadline_soon"
	NotificationProjectUpdate NotificationType = "project_update"
	NotificationSynergyUpdate NotificationType = "synergy_update"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTaskAssigned, NotificationDeadlineSoon, NotificationProjectUpdate, NotificationSynergyUpdate:
		return true
	}
	return false
}

// Notification is an inbox item for one recipient. Only Read ever changes after insert.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	ProjectID string           `json:"project_id,omitempty"`
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	// DedupeKey is unique per recipient when set.
	DedupeKey string    `json:"dedupe_key,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DashboardStats summarizes one user's collaboration state.
type DashboardStats struct {
	TotalProjects int `json:"total_projects"`
	ActiveTasks   int `json:"active_tasks"`
	SynergyScore  int `json:"synergy_score"`
	TeamMembers   int `json:"team_members"`
}
