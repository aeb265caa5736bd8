package models

import (
	"time"

	"gorm.io/gorm"
)

// Task types.
const (
	TaskTypeTask     = "task"
	TaskTypeFollowUp = "follow-up"
	TaskTypeMeeting  = "meeting"
	TaskTypeCall     = "call"
	TaskTypeEmail    = "email"
)

// Task statuses.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in-progress"
	TaskStatusCompleted  = "completed"
	TaskStatusCancelled  = "cancelled"
)

// Task priorities.
const (
	TaskPriorityLow    = "low"
	TaskPriorityMedium = "medium"
	TaskPriorityHigh   = "high"
	TaskPriorityUrgent = "urgent"
)

// Task is a unit of work assigned to a user, optionally pinned to a
// lead, contact, deal or account through the related pair.
type Task struct {
	gorm.Model

	TenantID uint `gorm:"not null;index" json:"tenant_id"`

	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	Type     string `gorm:"default:'task'" json:"type"`
	Status   string `gorm:"default:'pending';index" json:"status"`
	Priority string `gorm:"default:'medium';index" json:"priority"`

	DueDate    *time.Time `gorm:"index" json:"due_date,omitempty"`
	AssignedTo uint       `gorm:"not null;index" json:"assigned_to"`

	RelatedType string `gorm:"index:idx_tasks_related" json:"related_type,omitempty"`
	RelatedID   *uint  `gorm:"index:idx_tasks_related" json:"related_id,omitempty"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CompletedBy *uint      `json:"completed_by,omitempty"`

	CreatedBy uint `gorm:"not null" json:"created_by"`
}

// IsOverdue reports whether an open task is past its due date.
func (t *Task) IsOverdue() bool {
	if t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled {
		return false
	}
	return t.DueDate != nil && t.DueDate.Before(time.Now())
}
