package models

import "gorm.io/gorm"

// Account is a tenant-scoped company record that contacts and deals attach to.
type Account struct {
	gorm.Model

	TenantID      uint   `gorm:"not null;index;uniqueIndex:idx_accounts_tenant_number" json:"tenant_id"`
	AccountNumber string `gorm:"not null;uniqueIndex:idx_accounts_tenant_number" json:"account_number"`

	Name     string `gorm:"not null" json:"name"`
	Industry string `json:"industry,omitempty"`
	Website  string `json:"website,omitempty"`
	Phone    string `json:"phone,omitempty"`

	AnnualRevenue float64 `gorm:"default:0" json:"annual_revenue"`
	EmployeeCount int     `gorm:"default:0" json:"employee_count"`

	AssignedTo *uint `gorm:"index" json:"assigned_to,omitempty"`

	Tags  []string `gorm:"serializer:json" json:"tags,omitempty"`
	Notes []Note   `gorm:"polymorphic:Owner;polymorphicValue:Account" json:"notes,omitempty"`

	Description string `gorm:"type:text" json:"description,omitempty"`

	CreatedBy uint  `gorm:"not null" json:"created_by"`
	UpdatedBy *uint `json:"updated_by,omitempty"`

	// Relations
	Contacts []Contact `gorm:"foreignKey:AccountID" json:"contacts,omitempty"`
	Deals    []Deal    `gorm:"foreignKey:AccountID" json:"deals,omitempty"`
}
