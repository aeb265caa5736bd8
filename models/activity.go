package models

import "gorm.io/gorm"

// Activity types. The lead_converted type is written by the conversion
// transaction as its audit record.
const (
	ActivityCall           = "call"
	ActivityEmail          = "email"
	ActivityMeeting        = "meeting"
	ActivityNote           = "note"
	ActivityTaskCreated    = "task_created"
	ActivityTaskCompleted  = "task_completed"
	ActivityLeadCreated    = "lead_created"
	ActivityLeadConverted  = "lead_converted"
	ActivityContactCreated = "contact_created"
	ActivityDealCreated    = "deal_created"
	ActivityDealWon        = "deal_won"
	ActivityDealLost       = "deal_lost"
	ActivityStageChange    = "stage_change"
	ActivityStatusChange   = "status_change"
	ActivityOther          = "other"
)

// Activity is an audit/history record attached to an entity.
type Activity struct {
	gorm.Model

	TenantID uint `gorm:"not null;index" json:"tenant_id"`

	Type        string `gorm:"not null;index" json:"type"`
	Subject     string `gorm:"not null" json:"subject"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	RelatedType string `gorm:"index:idx_activities_related" json:"related_type,omitempty"`
	RelatedID   *uint  `gorm:"index:idx_activities_related" json:"related_id,omitempty"`

	Duration int    `gorm:"default:0" json:"duration,omitempty"` // minutes
	Outcome  string `json:"outcome,omitempty"`

	CreatedBy uint `gorm:"not null;index" json:"created_by"`
}
