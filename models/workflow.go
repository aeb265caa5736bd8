package models

import (
	"time"

	"gorm.io/gorm"
)

// Workflow trigger types.
const (
	TriggerLeadCreated     = "lead_created"
	TriggerLeadUpdated     = "lead_updated"
	TriggerLeadStageChange = "lead_stage_change"
	TriggerDealCreated     = "deal_created"
	TriggerDealStageChange = "deal_stage_change"
	TriggerTaskCreated     = "task_created"
	TriggerTaskCompleted   = "task_completed"
	TriggerContactCreated  = "contact_created"
)

// Workflow action types.
const (
	ActionSendEmail        = "send_email"
	ActionAssignUser       = "assign_user"
	ActionCreateTask       = "create_task"
	ActionUpdateField      = "update_field"
	ActionSendNotification = "send_notification"
)

// Condition operators.
const (
	OpEquals      = "equals"
	OpNotEquals   = "not_equals"
	OpContains    = "contains"
	OpGreaterThan = "greater_than"
	OpLessThan    = "less_than"
	OpIsEmpty     = "is_empty"
	OpIsNotEmpty  = "is_not_empty"
)

// WorkflowCondition is a single predicate over the trigger payload.
type WorkflowCondition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"`
	Value    interface{} `json:"value,omitempty"`
}

// WorkflowTrigger couples a trigger type with its conditions. All conditions
// must hold for the workflow to fire.
type WorkflowTrigger struct {
	Type       string              `json:"type"`
	Conditions []WorkflowCondition `json:"conditions,omitempty"`
}

// WorkflowAction is one step executed when a workflow fires. Delay is in
// minutes and is honored by the job queue, not by sleeping the request.
type WorkflowAction struct {
	Type   string            `json:"type"`
	Config map[string]string `json:"config,omitempty"`
	Delay  int               `json:"delay"`
	Order  int               `json:"order"`
}

// Workflow is a tenant-defined automation rule.
type Workflow struct {
	gorm.Model

	TenantID uint `gorm:"not null;index" json:"tenant_id"`

	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description,omitempty"`

	Trigger WorkflowTrigger  `gorm:"serializer:json" json:"trigger"`
	Actions []WorkflowAction `gorm:"serializer:json" json:"actions"`

	IsActive bool `gorm:"default:true;index" json:"is_active"`

	RunCount  int        `gorm:"default:0" json:"run_count"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`

	CreatedBy uint `gorm:"not null" json:"created_by"`
}

// Workflow job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// WorkflowJob is a queued workflow action. The background worker claims jobs
// whose RunAt has passed, so delayed actions never block a request handler.
type WorkflowJob struct {
	gorm.Model

	TenantID   uint `gorm:"not null;index" json:"tenant_id"`
	WorkflowID uint `gorm:"not null;index" json:"workflow_id"`

	Action  WorkflowAction    `gorm:"serializer:json" json:"action"`
	Payload map[string]string `gorm:"serializer:json" json:"payload,omitempty"`

	RunAt  time.Time `gorm:"not null;index" json:"run_at"`
	Status string    `gorm:"default:'pending';index" json:"status"`

	Attempts  int    `gorm:"default:0" json:"attempts"`
	LastError string `json:"last_error,omitempty"`
}
