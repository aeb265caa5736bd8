package models

import (
	"gorm.io/gorm"
)

// EmailSettings holds per-tenant SMTP overrides. When empty the global
// SMTP configuration is used.
type EmailSettings struct {
	SMTPHost  string `json:"smtp_host,omitempty"`
	SMTPPort  int    `json:"smtp_port,omitempty"`
	SMTPUser  string `json:"smtp_user,omitempty"`
	SMTPPass  string `json:"-"`
	FromEmail string `json:"from_email,omitempty"`
	FromName  string `json:"from_name,omitempty"`
}

// CompanySettings is stored as a JSON column on the company row.
type CompanySettings struct {
	Timezone    string        `json:"timezone"`
	Currency    string        `json:"currency"`
	DateFormat  string        `json:"date_format"`
	TimeFormat  string        `json:"time_format"` // 12h or 24h
	LeadStages  []string      `json:"lead_stages"`
	DealStages  []string      `json:"deal_stages"`
	LeadSources []string      `json:"lead_sources"`
	Email       EmailSettings `json:"email"`
}

// DefaultCompanySettings returns the settings a freshly registered tenant starts with.
func DefaultCompanySettings() CompanySettings {
	return CompanySettings{
		Timezone:    "UTC",
		Currency:    "USD",
		DateFormat:  "MM/DD/YYYY",
		TimeFormat:  "12h",
		LeadStages:  []string{"new", "contacted", "qualified", "proposal", "negotiation"},
		DealStages:  []string{DealStageProspecting, DealStageQualification, DealStageProposal, DealStageNegotiation, DealStageClosedWon, DealStageClosedLost},
		LeadSources: []string{"website", "referral", "social-media", "cold-call", "email-campaign", "event", "other"},
	}
}

// Company is a tenant. Every other record in the system hangs off a company
// through its TenantID column.
type Company struct {
	gorm.Model

	Name      string  `gorm:"not null" json:"name"`
	Subdomain string  `gorm:"uniqueIndex;not null" json:"subdomain"`
	Domain    *string `gorm:"uniqueIndex" json:"domain,omitempty"`

	Plan     string          `gorm:"default:'free'" json:"plan"`
	Settings CompanySettings `gorm:"serializer:json" json:"settings"`

	IsActive   bool `gorm:"default:true" json:"is_active"`
	MaxUsers   int  `gorm:"default:100" json:"max_users"`
	TotalUsers int  `gorm:"default:0" json:"total_users"`

	// Relations
	Users []User `gorm:"foreignKey:TenantID" json:"users,omitempty"`
}
