package store

import (
	"context"

	"flowcrm/models"
)

var activitySortColumns = map[string]bool{
	"created_at": true, "type": true, "subject": true,
}

// ActivityFilter narrows activity lists.
type ActivityFilter struct {
	Type        string
	RelatedType string
	RelatedID   *uint
	CreatedBy   *uint
}

func (t *TenantDB) CreateActivity(ctx context.Context, activity *models.Activity) error {
	activity.TenantID = t.tenantID
	return translateErr(t.db.WithContext(ctx).Create(activity).Error)
}

func (t *TenantDB) FindActivityByID(ctx context.Context, id uint) (*models.Activity, error) {
	var activity models.Activity
	err := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		First(&activity).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &activity, nil
}

func (t *TenantDB) FindActivities(ctx context.Context, filter ActivityFilter, opts ListOptions) ([]models.Activity, Pagination, error) {
	opts.Normalize()

	query := t.scoped(t.db.WithContext(ctx), &models.Activity{})
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.RelatedType != "" && filter.RelatedID != nil {
		query = query.Where("related_type = ? AND related_id = ?", filter.RelatedType, *filter.RelatedID)
	}
	if filter.CreatedBy != nil {
		query = query.Where("created_by = ?", *filter.CreatedBy)
	}
	query = searchClause(query, opts.Search, "subject", "description")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var activities []models.Activity
	err := query.
		Order(orderClause(opts.Sort, activitySortColumns)).
		Offset(opts.offset()).
		Limit(opts.Limit).
		Find(&activities).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return activities, BuildPagination(opts, total), nil
}

func (t *TenantDB) DeleteActivity(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Delete(&models.Activity{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
