package store

import (
	"context"

	"flowcrm/models"

	"gorm.io/gorm"
)

var contactSortColumns = map[string]bool{
	"created_at": true, "updated_at": true, "first_name": true, "last_name": true,
	"email": true, "last_contacted_at": true,
}

// ContactFilter narrows contact lists.
type ContactFilter struct {
	AccountID  *uint
	AssignedTo *uint
	IsActive   *bool
}

func (t *TenantDB) CreateContact(ctx context.Context, contact *models.Contact) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextSequence(tx, t.tenantID, models.CounterContact)
		if err != nil {
			return err
		}
		contact.TenantID = t.tenantID
		contact.ContactNumber = number
		return translateErr(tx.Create(contact).Error)
	})
}

func (t *TenantDB) FindContactByID(ctx context.Context, id uint) (*models.Contact, error) {
	var contact models.Contact
	err := t.db.WithContext(ctx).
		Preload("Notes").
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		First(&contact).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &contact, nil
}

func (t *TenantDB) FindContacts(ctx context.Context, filter ContactFilter, opts ListOptions) ([]models.Contact, Pagination, error) {
	opts.Normalize()

	query := t.scoped(t.db.WithContext(ctx), &models.Contact{})
	if filter.AccountID != nil {
		query = query.Where("account_id = ?", *filter.AccountID)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	query = searchClause(query, opts.Search, "first_name", "last_name", "email", "department")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var contacts []models.Contact
	err := query.
		Order(orderClause(opts.Sort, contactSortColumns)).
		Offset(opts.offset()).
		Limit(opts.Limit).
		Find(&contacts).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return contacts, BuildPagination(opts, total), nil
}

func (t *TenantDB) UpdateContact(ctx context.Context, id uint, updates map[string]interface{}) (*models.Contact, error) {
	res := t.db.WithContext(ctx).
		Model(&models.Contact{}).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Updates(updates)
	if res.Error != nil {
		return nil, translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return t.FindContactByID(ctx, id)
}

func (t *TenantDB) DeleteContact(ctx context.Context, id uint) error {
	res := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Delete(&models.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *TenantDB) CountContacts(ctx context.Context) (int64, error) {
	var total int64
	err := t.scoped(t.db.WithContext(ctx), &models.Contact{}).Count(&total).Error
	return total, err
}
