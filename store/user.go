package store

import (
	"context"
	"errors"

	"flowcrm/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var userSortColumns = map[string]bool{
	"created_at": true, "updated_at": true, "first_name": true, "last_name": true,
	"email": true, "role": true, "last_login": true,
}

// --- Global (pre-tenant) lookups used by auth ---

func (s *Store) FindCompanyByID(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &company, nil
}

func (s *Store) FindCompanyBySubdomain(ctx context.Context, subdomain string) (*models.Company, error) {
	var company models.Company
	err := s.db.WithContext(ctx).Where("subdomain = ?", subdomain).First(&company).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &company, nil
}

func (s *Store) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *Store) FindUserByInvitationToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("invitation_token = ?", token).First(&user).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (s *Store) FindUserByResetToken(ctx context.Context, hashedToken string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("password_reset_token = ?", hashedToken).First(&user).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

// UpdateCompanySettings replaces a tenant's settings blob and returns the
// fresh company record.
func (s *Store) UpdateCompanySettings(ctx context.Context, id uint, settings models.CompanySettings) (*models.Company, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ?", id).
		Update("settings", settings)
	if res.Error != nil {
		return nil, translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.FindCompanyByID(ctx, id)
}

// SaveUser persists changes made to an already loaded user record.
func (s *Store) SaveUser(ctx context.Context, user *models.User) error {
	return translateErr(s.db.WithContext(ctx).Save(user).Error)
}

// RegisterCompany creates the tenant and its first admin atomically.
func (s *Store) RegisterCompany(ctx context.Context, company *models.Company, admin *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Company
		err := tx.Where("subdomain = ?", company.Subdomain).First(&existing).Error
		if err == nil {
			return ErrDuplicate
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		company.TotalUsers = 1
		if err := tx.Create(company).Error; err != nil {
			return translateErr(err)
		}

		admin.TenantID = company.ID
		admin.Role = models.RoleAdmin
		admin.Permissions = []string{models.PermissionAll}
		if err := tx.Create(admin).Error; err != nil {
			return translateErr(err)
		}
		return nil
	})
}

// --- Tenant-scoped user management ---

// UserFilter narrows user lists.
type UserFilter struct {
	Role     string
	IsActive *bool
}

func (t *TenantDB) CreateUser(ctx context.Context, user *models.User) error {
	user.TenantID = t.tenantID
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return translateErr(err)
		}
		return tx.Model(&models.Company{}).
			Where("id = ?", t.tenantID).
			UpdateColumn("total_users", gorm.Expr("total_users + 1")).Error
	})
}

func (t *TenantDB) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := t.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		First(&user).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (t *TenantDB) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := t.db.WithContext(ctx).
		Where("tenant_id = ? AND email = ?", t.tenantID, email).
		First(&user).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &user, nil
}

func (t *TenantDB) FindUsers(ctx context.Context, filter UserFilter, opts ListOptions) ([]models.User, Pagination, error) {
	opts.Normalize()

	query := t.scoped(t.db.WithContext(ctx), &models.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	query = searchClause(query, opts.Search, "first_name", "last_name", "email")

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	var users []models.User
	err := query.
		Order(orderClause(opts.Sort, userSortColumns)).
		Offset(opts.offset()).
		Limit(opts.Limit).
		Find(&users).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	return users, BuildPagination(opts, total), nil
}

func (t *TenantDB) UpdateUser(ctx context.Context, id uint, updates map[string]interface{}) (*models.User, error) {
	// Identity and tenancy are immutable through this path.
	delete(updates, "email")
	delete(updates, "password_hash")
	delete(updates, "tenant_id")

	res := t.db.WithContext(ctx).
		Model(&models.User{}).
		Where("tenant_id = ? AND id = ?", t.tenantID, id).
		Updates(updates)
	if res.Error != nil {
		return nil, translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return t.FindUserByID(ctx, id)
}

// lockAdmins takes row locks on the tenant's admins inside tx, so two
// concurrent demotions or deletions cannot both pass the last-admin check.
func (t *TenantDB) lockAdmins(tx *gorm.DB) (int, error) {
	var ids []uint
	err := tx.Model(&models.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND role = ?", t.tenantID, models.RoleAdmin).
		Pluck("id", &ids).Error
	return len(ids), err
}

// UpdateUserRole changes a user's role, refusing to demote the last admin.
func (t *TenantDB) UpdateUserRole(ctx context.Context, id uint, role string) (*models.User, error) {
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("tenant_id = ? AND id = ?", t.tenantID, id).First(&user).Error
		if err != nil {
			return translateErr(err)
		}

		if user.Role == models.RoleAdmin && role != models.RoleAdmin {
			admins, err := t.lockAdmins(tx)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		return translateErr(tx.Model(&models.User{}).
			Where("tenant_id = ? AND id = ?", t.tenantID, id).
			Update("role", role).Error)
	})
	if err != nil {
		return nil, err
	}
	return t.FindUserByID(ctx, id)
}

// ToggleUserStatus flips the active flag.
func (t *TenantDB) ToggleUserStatus(ctx context.Context, id uint) (*models.User, error) {
	user, err := t.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return t.UpdateUser(ctx, id, map[string]interface{}{"is_active": !user.IsActive})
}

// DeleteUser removes a user for good, refusing to remove the last admin.
// The delete is unscoped; a soft-deleted row would keep occupying the
// tenant+email unique index and block re-inviting that address.
func (t *TenantDB) DeleteUser(ctx context.Context, id uint) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Where("tenant_id = ? AND id = ?", t.tenantID, id).First(&user).Error
		if err != nil {
			return translateErr(err)
		}

		if user.Role == models.RoleAdmin {
			admins, err := t.lockAdmins(tx)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return ErrLastAdmin
			}
		}

		res := tx.Unscoped().
			Where("tenant_id = ? AND id = ?", t.tenantID, id).
			Delete(&models.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.Company{}).
			Where("id = ? AND total_users > 0", t.tenantID).
			UpdateColumn("total_users", gorm.Expr("total_users - 1")).Error
	})
}
