package store

import (
	"context"

	"flowcrm/models"

	"gorm.io/gorm"
)

var accountSortColumns = map[string]bool{
	"created_at": true, "updated_at": true, "name": true, "industry": true,
	"annual_revenue": true, "employee_count": true,
}

// AccountFilter narrows account lists.
type AccountFilter struct {
	Industry   string
	AssignedTo *uint
}

func (t *TenantDB) CreateAccount(ctx context.Context, account *models.Account) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextSequence(tx, t.tenantID, models.CounterAccount)
		if err != nil {
			return err
		}
		account.TenantID = t.tenantID
		account.AccountNumber = number
		return translateErr(tx.Create(account).Error)
	})
}

func (t *TenantDB) FindAccountByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := t.db.WithContext(ctx).
		Preload("Notes").
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		First(&account).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &account, nil
}

func (t *TenantDB) FindAccounts(ctx context.Context, filter AccountFilter, opts ListOptions) ([]models.Account, Pagination, error) {
	opts.Normalize()

	query := t.scoped(t.db.WithContext(ctx), &models.Account{})
	if filter.Industry != "" {
		query = query.Where("industry = ?", filter.Industry)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	query = searchClause(query, opts.Search, "name", "industry", "website")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var accounts []models.Account
	err := query.
		Order(orderClause(opts.Sort, accountSortColumns)).
		Offset(opts.offset()).
		Limit(opts.Limit).
		Find(&accounts).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return accounts, BuildPagination(opts, total), nil
}

func (t *TenantDB) UpdateAccount(ctx context.Context, id uint, updates map[string]interface{}) (*models.Account, error) {
	res := t.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Updates(updates)
	if res.Error != nil {
		return nil, translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return t.FindAccountByID(ctx, id)
}

func (t *TenantDB) DeleteAccount(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Delete(&models.Account{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
