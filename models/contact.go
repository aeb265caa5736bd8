package models

import (
	"time"

	"gorm.io/gorm"
)

// Contact is a qualified person, optionally attached to an account.
type Contact struct {
	gorm.Model

	TenantID      uint   `gorm:"not null;index;uniqueIndex:idx_contacts_tenant_number" json:"tenant_id"`
	ContactNumber string `gorm:"not null;uniqueIndex:idx_contacts_tenant_number" json:"contact_number"`

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Email     string `gorm:"not null;index" json:"email"`
	Phone     string `json:"phone,omitempty"`
	Mobile    string `json:"mobile,omitempty"`

	Title      string `json:"title,omitempty"`
	Department string `json:"department,omitempty"`

	AccountID  *uint `gorm:"index" json:"account_id,omitempty"`
	AssignedTo *uint `gorm:"index" json:"assigned_to,omitempty"`

	Tags  []string `gorm:"serializer:json" json:"tags,omitempty"`
	Notes []Note   `gorm:"polymorphic:Owner;polymorphicValue:Contact" json:"notes,omitempty"`

	IsActive        bool       `gorm:"default:true" json:"is_active"`
	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`

	CreatedBy uint  `gorm:"not null" json:"created_by"`
	UpdatedBy *uint `json:"updated_by,omitempty"`
}

// FullName joins first and last name.
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}
