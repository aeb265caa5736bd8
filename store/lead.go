package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flowcrm/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var leadSortColumns = map[string]bool{
	"created_at": true, "updated_at": true, "first_name": true, "last_name": true,
	"status": true, "source": true, "value": true, "expected_close_date": true,
}

// LeadFilter narrows lead lists. Zero values mean "no filter".
type LeadFilter struct {
	Status     string
	Source     string
	Stage      string
	AssignedTo *uint
}

func (t *TenantDB) CreateLead(ctx context.Context, lead *models.Lead) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextSequence(tx, t.tenantID, models.CounterLead)
		if err != nil {
			return err
		}
		lead.TenantID = t.tenantID
		lead.LeadNumber = number
		if err := tx.Create(lead).Error; err != nil {
			return translateErr(err)
		}
		return nil
	})
}

func (t *TenantDB) FindLeadByID(ctx context.Context, id uint) (*models.Lead, error) {
	var lead models.Lead
	err := t.db.WithContext(ctx).
		Preload("Notes").
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		First(&lead).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &lead, nil
}

func (t *TenantDB) FindLeads(ctx context.Context, filter LeadFilter, opts ListOptions) ([]models.Lead, Pagination, error) {
	opts.Normalize()

	query := t.scoped(t.db.WithContext(ctx), &models.Lead{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	query = searchClause(query, opts.Search, "first_name", "last_name", "email", "company")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var leads []models.Lead
	err := query.
		Order(orderClause(opts.Sort, leadSortColumns)).
		Offset(opts.offset()).
		Limit(opts.Limit).
		Find(&leads).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return leads, BuildPagination(opts, total), nil
}

func (t *TenantDB) UpdateLead(ctx context.Context, id uint, updates map[string]interface{}) (*models.Lead, error) {
	res := t.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Updates(updates)
	if res.Error != nil {
		return nil, translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return t.FindLeadByID(ctx, id)
}

func (t *TenantDB) DeleteLead(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Delete(&models.Lead{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// BulkAssignLeads reassigns the given leads and reports how many rows matched
// within the tenant.
func (t *TenantDB) BulkAssignLeads(ctx context.Context, leadIDs []uint, assignedTo uint) (int64, error) {
	res := t.db.WithContext(ctx).
		Model(&models.Lead{}).
		Where("tenant_id = ? AND id IN ?", t.tenantID, leadIDs).
		Updates(map[string]interface{}{"assigned_to": assignedTo})
	return res.RowsAffected, res.Error
}

// StatusCount is one bucket of the lead statistics grouping.
type StatusCount struct {
	Key   string `gorm:"column:key" json:"key"`
	Count int64  `gorm:"column:count" json:"count"`
}

// LeadStatistics returns total plus per-status and per-source counts.
func (t *TenantDB) LeadStatistics(ctx context.Context) (int64, []StatusCount, []StatusCount, error) {
	var total int64
	if err := t.scoped(t.db.WithContext(ctx), &models.Lead{}).Count(&total).Error; err != nil {
		return 0, nil, nil, err
	}

	var byStatus []StatusCount
	err := t.scoped(t.db.WithContext(ctx), &models.Lead{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return 0, nil, nil, err
	}

	var bySource []StatusCount
	err = t.scoped(t.db.WithContext(ctx), &models.Lead{}).
		Select("source AS key, COUNT(*) AS count").
		Group("source").
		Scan(&bySource).Error
	if err != nil {
		return 0, nil, nil, err
	}

	return total, byStatus, bySource, nil
}

// ConvertLeadInput is the conversion request. CreateContact is implied; a
// deal is only created when CreateDeal is set and DealName is non-empty.
type ConvertLeadInput struct {
	CreateDeal        bool
	DealName          string
	DealValue         float64
	DealStage         string
	Probability       *int
	ExpectedCloseDate *time.Time
	Pipeline          string
	AssignedTo        *uint
}

// ConversionResult carries everything the conversion produced.
type ConversionResult struct {
	Lead    *models.Lead    `json:"lead"`
	Contact *models.Contact `json:"contact"`
	Deal    *models.Deal    `json:"deal,omitempty"`
}

// ConvertLead promotes a lead into a contact and optional deal in a single
// transaction: the contact, deal, lead update and audit activity become
// visible together or not at all. The lead row is locked for the duration,
// so two concurrent conversions of the same lead serialize and the second
// one fails with ErrLeadAlreadyConverted.
func (t *TenantDB) ConvertLead(ctx context.Context, leadID, userID uint, in ConvertLeadInput) (*ConversionResult, error) {
	if in.CreateDeal && in.DealName == "" {
		return nil, ErrDealNameRequired
	}

	var result ConversionResult
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lead models.Lead
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_id = ? AND id = ?", t.tenantID, leadID).
			First(&lead).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if lead.Status == models.LeadStatusConverted {
			return ErrLeadAlreadyConverted
		}

		assignee := userID
		if lead.AssignedTo != nil {
			assignee = *lead.AssignedTo
		}

		contactNumber, err := nextSequence(tx, t.tenantID, models.CounterContact)
		if err != nil {
			return err
		}
		contact := models.Contact{
			TenantID:      t.tenantID,
			ContactNumber: contactNumber,
			FirstName:     lead.FirstName,
			LastName:      lead.LastName,
			Email:         lead.Email,
			Phone:         lead.Phone,
			Title:         lead.Title,
			AssignedTo:    &assignee,
			CreatedBy:     userID,
		}
		if err := tx.Create(&contact).Error; err != nil {
			return translateErr(err)
		}
		result.Contact = &contact

		var deal *models.Deal
		if in.CreateDeal {
			dealNumber, err := nextSequence(tx, t.tenantID, models.CounterDeal)
			if err != nil {
				return err
			}

			stage := in.DealStage
			if stage == "" {
				stage = models.DealStageProspecting
			}
			probability := 10
			if in.Probability != nil {
				probability = *in.Probability
			}
			pipeline := in.Pipeline
			if pipeline == "" {
				pipeline = models.DefaultPipeline
			}
			dealAssignee := assignee
			if in.AssignedTo != nil {
				dealAssignee = *in.AssignedTo
			}

			deal = &models.Deal{
				TenantID:          t.tenantID,
				DealNumber:        dealNumber,
				Name:              in.DealName,
				Value:             in.DealValue,
				Stage:             stage,
				Probability:       probability,
				Pipeline:          pipeline,
				ExpectedCloseDate: in.ExpectedCloseDate,
				ContactID:         &contact.ID,
				AssignedTo:        &dealAssignee,
				CreatedBy:         userID,
			}
			if err := tx.Create(deal).Error; err != nil {
				return translateErr(err)
			}
			result.Deal = deal
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":                  models.LeadStatusConverted,
			"converted_to_contact_id": contact.ID,
			"converted_at":            now,
			"updated_by":              userID,
		}
		if deal != nil {
			updates["converted_to_deal_id"] = deal.ID
		}
		if err := tx.Model(&lead).Updates(updates).Error; err != nil {
			return err
		}
		result.Lead = &lead

		description := "Lead was converted to contact"
		if deal != nil {
			description = "Lead was converted to contact and deal"
		}
		activity := models.Activity{
			TenantID:    t.tenantID,
			Type:        models.ActivityLeadConverted,
			Subject:     fmt.Sprintf("Lead converted: %s", lead.FullName()),
			Description: description,
			RelatedType: models.EntityLead,
			RelatedID:   &lead.ID,
			CreatedBy:   userID,
		}
		if err := tx.Create(&activity).Error; err != nil {
			return err
		}

		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
