package models

import (
	"time"

	"gorm.io/gorm"
)

// Lead statuses. A converted lead can never leave the converted status.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusQualified = "qualified"
	LeadStatusLost      = "lost"
	LeadStatusConverted = "converted"
)

// Lead funnel stages.
const (
	LeadStageAwareness     = "awareness"
	LeadStageInterest      = "interest"
	LeadStageConsideration = "consideration"
	LeadStageIntent        = "intent"
	LeadStageEvaluation    = "evaluation"
	LeadStagePurchase      = "purchase"
)

// Lead is an unqualified prospect, convertible exactly once into a contact
// plus an optional deal.
type Lead struct {
	gorm.Model

	TenantID   uint   `gorm:"not null;index;uniqueIndex:idx_leads_tenant_number" json:"tenant_id"`
	LeadNumber string `gorm:"not null;uniqueIndex:idx_leads_tenant_number" json:"lead_number"`

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Email     string `gorm:"index" json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Title     string `json:"title,omitempty"`
	Website   string `json:"website,omitempty"`

	Source string `gorm:"default:'other';index" json:"source"`
	Status string `gorm:"default:'new';index" json:"status"`
	Stage  string `gorm:"default:'awareness'" json:"stage"`

	Value             float64    `gorm:"default:0" json:"value"`
	Probability       int        `gorm:"default:0" json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`

	AssignedTo *uint    `gorm:"index" json:"assigned_to,omitempty"`
	Tags       []string `gorm:"serializer:json" json:"tags,omitempty"`

	Notes []Note `gorm:"polymorphic:Owner;polymorphicValue:Lead" json:"notes,omitempty"`

	// Conversion provenance. Set exactly once, inside the conversion transaction.
	ConvertedToContactID *uint      `json:"converted_to_contact_id,omitempty"`
	ConvertedToDealID    *uint      `json:"converted_to_deal_id,omitempty"`
	ConvertedAt          *time.Time `json:"converted_at,omitempty"`

	LostReason string     `json:"lost_reason,omitempty"`
	LostAt     *time.Time `json:"lost_at,omitempty"`

	LastContactedAt *time.Time `json:"last_contacted_at,omitempty"`

	CreatedBy uint  `gorm:"not null" json:"created_by"`
	UpdatedBy *uint `json:"updated_by,omitempty"`
}

// FullName joins first and last name.
func (l *Lead) FullName() string {
	return l.FirstName + " " + l.LastName
}
