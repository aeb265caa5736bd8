package models

import "time"

// Entity kinds notes, tasks and activities may reference.
const (
	EntityLead    = "Lead"
	EntityContact = "Contact"
	EntityDeal    = "Deal"
	EntityAccount = "Account"
	EntityTask    = "Task"
)

// Note is an immutable record appended to a lead, contact, account or deal.
// Notes are never updated or deleted individually.
type Note struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	TenantID  uint      `gorm:"not null;index" json:"tenant_id"`
	OwnerType string    `gorm:"not null;index:idx_notes_owner" json:"owner_type"`
	OwnerID   uint      `gorm:"not null;index:idx_notes_owner" json:"owner_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedBy uint      `gorm:"not null" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
