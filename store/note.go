package store

import (
	"context"
	"fmt"

	"flowcrm/models"
)

// noteOwners maps an owner type to the model queried for the tenant-scoped
// existence check before a note is appended.
func noteOwnerModel(ownerType string) (interface{}, error) {
	switch ownerType {
	case models.EntityLead:
		return &models.Lead{}, nil
	case models.EntityContact:
		return &models.Contact{}, nil
	case models.EntityAccount:
		return &models.Account{}, nil
	case models.EntityDeal:
		return &models.Deal{}, nil
	default:
		return nil, fmt.Errorf("notes not supported for %q", ownerType)
	}
}

// AddNote appends an immutable note to a lead, contact, account or deal.
// The owner must exist inside the tenant; notes themselves are never
// updated or deleted.
func (t *TenantDB) AddNote(ctx context.Context, ownerType string, ownerID uint, content string, createdBy uint) (*models.Note, error) {
	model, err := noteOwnerModel(ownerType)
	if err != nil {
		return nil, err
	}

	var count int64
	err = t.db.WithContext(ctx).Model(model).
		Where("tenant_id = ? AND id = ?", t.tenantID, ownerID).
		Count(&count).Error
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	note := models.Note{
		TenantID:  t.tenantID,
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Content:   content,
		CreatedBy: createdBy,
	}
	if err := t.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}
