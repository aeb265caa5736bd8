package store

import (
	"context"
	"time"

	"flowcrm/models"

	"gorm.io/gorm"
)

var dealSortColumns = map[string]bool{
	"created_at": true, "updated_at": true, "name": true, "value": true,
	"stage": true, "probability": true, "expected_close_date": true, "actual_close_date": true,
}

// DealFilter narrows deal lists.
type DealFilter struct {
	Stage      string
	Pipeline   string
	AccountID  *uint
	ContactID  *uint
	AssignedTo *uint
}

func (t *TenantDB) CreateDeal(ctx context.Context, deal *models.Deal) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextSequence(tx, t.tenantID, models.CounterDeal)
		if err != nil {
			return err
		}
		deal.TenantID = t.tenantID
		deal.DealNumber = number
		if deal.Stage == "" {
			deal.Stage = models.DealStageProspecting
		}
		if deal.Pipeline == "" {
			deal.Pipeline = models.DefaultPipeline
		}
		return translateErr(tx.Create(deal).Error)
	})
}

func (t *TenantDB) FindDealByID(ctx context.Context, id uint) (*models.Deal, error) {
	var deal models.Deal
	err := t.db.WithContext(ctx).
		Preload("Notes").
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		First(&deal).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &deal, nil
}

func (t *TenantDB) FindDeals(ctx context.Context, filter DealFilter, opts ListOptions) ([]models.Deal, Pagination, error) {
	opts.Normalize()

	query := t.scoped(t.db.WithContext(ctx), &models.Deal{})
	if filter.Stage != "" {
		query = query.Where("stage = ?", filter.Stage)
	}
	if filter.Pipeline != "" {
		query = query.Where("pipeline = ?", filter.Pipeline)
	}
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.ContactID != nil {
		query = query.Where("contact_id = ?", *filter.ContactID)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	query = searchClause(query, opts.Search, "name", "description")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var deals []models.Deal
	err := query.
		Order(orderClause(opts.Sort, dealSortColumns)).
		Offset(opts.offset()).
		Limit(opts.Limit).
		Find(&deals).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return deals, BuildPagination(opts, total), nil
}

func (t *TenantDB) UpdateDeal(ctx context.Context, id uint, updates map[string]interface{}) (*models.Deal, error) {
	// Map updates bypass the model's BeforeSave hook, so the stage/close-date
	// coupling is applied here.
	if stage, ok := updates["stage"].(string); ok {
		if models.IsClosedStage(stage) {
			updates["actual_close_date"] = time.Now()
		} else {
			updates["actual_close_date"] = gorm.Expr("NULL")
		}
	}

	res := t.db.WithContext(ctx).
		Model(&models.Deal{}).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Updates(updates)
	if res.Error != nil {
		return nil, translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return t.FindDealByID(ctx, id)
}

func (t *TenantDB) DeleteDeal(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Delete(&models.Deal{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// StageSummary is one pipeline bucket: how many deals sit in a stage and
// what they are worth, raw and probability-weighted.
type StageSummary struct {
	Stage         string  `gorm:"column:stage" json:"stage"`
	Count         int64   `gorm:"column:count" json:"count"`
	TotalValue    float64 `gorm:"column:total_value" json:"total_value"`
	WeightedValue float64 `gorm:"column:weighted_value" json:"weighted_value"`
}

// PipelineSummary groups open and closed deals by stage.
func (t *TenantDB) PipelineSummary(ctx context.Context) ([]StageSummary, error) {
	var summary []StageSummary
	err := t.scoped(t.db.WithContext(ctx), &models.Deal{}).
		Select("stage, COUNT(*) AS count, COALESCE(SUM(value), 0) AS total_value, COALESCE(SUM(value * probability / 100.0), 0) AS weighted_value").
		Group("stage").
		Scan(&summary).Error
	return summary, err
}

// CountDeals counts deals matching the filter, bounded by the optional
// created/closed windows used by the dashboard trends.
func (t *TenantDB) CountDeals(ctx context.Context, stage string, createdAfter, createdBefore, closedAfter, closedBefore *time.Time) (int64, error) {
	query := t.scoped(t.db.WithContext(ctx), &models.Deal{})
	if stage != "" {
		query = query.Where("stage = ?", stage)
	}
	if createdAfter != nil {
		query = query.Where("created_at >= ?", *createdAfter)
	}
	if createdBefore != nil {
		query = query.Where("created_at <= ?", *createdBefore)
	}
	if closedAfter != nil {
		query = query.Where("actual_close_date >= ?", *closedAfter)
	}
	if closedBefore != nil {
		query = query.Where("actual_close_date <= ?", *closedBefore)
	}
	var total int64
	err := query.Count(&total).Error
	return total, err
}

// CountLeads counts leads created inside the optional window.
func (t *TenantDB) CountLeads(ctx context.Context, createdAfter, createdBefore *time.Time) (int64, error) {
	query := t.scoped(t.db.WithContext(ctx), &models.Lead{})
	if createdAfter != nil {
		query = query.Where("created_at >= ?", *createdAfter)
	}
	if createdBefore != nil {
		query = query.Where("created_at <= ?", *createdBefore)
	}
	var total int64
	err := query.Count(&total).Error
	return total, err
}
