package models

import (
	"time"

	"gorm.io/gorm"
)

// Deal pipeline stages.
const (
	DealStageProspecting   = "prospecting"
	DealStageQualification = "qualification"
	DealStageProposal      = "proposal"
	DealStageNegotiation   = "negotiation"
	DealStageClosedWon     = "closed-won"
	DealStageClosedLost    = "closed-lost"
)

// DefaultPipeline is assigned when a deal is created without one.
const DefaultPipeline = "sales"

// IsClosedStage reports whether the stage ends the deal's lifecycle.
func IsClosedStage(stage string) bool {
	return stage == DealStageClosedWon || stage == DealStageClosedLost
}

// Deal is a revenue opportunity moving through the pipeline.
type Deal struct {
	gorm.Model

	TenantID   uint   `gorm:"not null;index;uniqueIndex:idx_deals_tenant_number" json:"tenant_id"`
	DealNumber string `gorm:"not null;uniqueIndex:idx_deals_tenant_number" json:"deal_number"`

	Name        string  `gorm:"not null" json:"name"`
	Value       float64 `gorm:"not null;default:0" json:"value"`
	Probability int     `gorm:"default:0" json:"probability"`

	Stage    string `gorm:"default:'prospecting';index" json:"stage"`
	Pipeline string `gorm:"default:'sales'" json:"pipeline"`

	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	ActualCloseDate   *time.Time `json:"actual_close_date,omitempty"`

	AccountID  *uint `gorm:"index" json:"account_id,omitempty"`
	ContactID  *uint `gorm:"index" json:"contact_id,omitempty"`
	AssignedTo *uint `gorm:"index" json:"assigned_to,omitempty"`

	Tags  []string `gorm:"serializer:json" json:"tags,omitempty"`
	Notes []Note   `gorm:"polymorphic:Owner;polymorphicValue:Deal" json:"notes,omitempty"`

	LostReason  string `json:"lost_reason,omitempty"`
	Description string `gorm:"type:text" json:"description,omitempty"`

	CreatedBy uint  `gorm:"not null" json:"created_by"`
	UpdatedBy *uint `json:"updated_by,omitempty"`

	// Derived, never persisted.
	WeightedValue float64 `gorm:"-" json:"weighted_value"`
}

// ComputeWeightedValue returns value scaled by probability.
func (d *Deal) ComputeWeightedValue() float64 {
	return d.Value * float64(d.Probability) / 100
}

// ApplyStageTransition stamps the actual close date the moment a deal enters
// a closed stage and clears it if it reopens.
func (d *Deal) ApplyStageTransition() {
	if IsClosedStage(d.Stage) {
		if d.ActualCloseDate == nil {
			now := time.Now()
			d.ActualCloseDate = &now
		}
	} else {
		d.ActualCloseDate = nil
	}
}

// BeforeSave keeps the close date in sync with the stage.
func (d *Deal) BeforeSave(tx *gorm.DB) error {
	d.ApplyStageTransition()
	return nil
}

// AfterFind populates the derived weighted value on every read.
func (d *Deal) AfterFind(tx *gorm.DB) error {
	d.WeightedValue = d.ComputeWeightedValue()
	return nil
}

// AfterCreate populates the derived weighted value for the create response.
func (d *Deal) AfterCreate(tx *gorm.DB) error {
	d.WeightedValue = d.ComputeWeightedValue()
	return nil
}
