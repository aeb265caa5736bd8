package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// User roles. Role checks happen in middleware; ownership checks in controllers.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// PermissionAll grants every permission. Assigned to the admin created at registration.
const PermissionAll = "*"

// User represents a member of a tenant. Email is unique per tenant, not globally.
type User struct {
	gorm.Model

	TenantID uint `gorm:"not null;index;uniqueIndex:idx_users_tenant_email" json:"tenant_id"`

	Email        string `gorm:"not null;uniqueIndex:idx_users_tenant_email" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`

	Role        string   `gorm:"default:'staff';index" json:"role"`
	Permissions []string `gorm:"serializer:json" json:"permissions"`

	Phone    string  `json:"phone,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
	IsActive bool    `gorm:"default:true" json:"is_active"`

	LastLogin *time.Time `json:"last_login,omitempty"`

	// Invitation flow: a user invited by an admin stays inactive until the
	// invitation token is redeemed with a password.
	InvitationToken  *string    `gorm:"index" json:"-"`
	InvitationExpiry *time.Time `json:"-"`
	InvitedBy        *uint      `json:"invited_by,omitempty"`

	PasswordResetToken   *string    `json:"-"`
	PasswordResetExpires *time.Time `json:"-"`

	RefreshToken string `json:"-"`
}

// FullName joins first and last name for display and audit subjects.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// SetPassword hashes and stores the given plaintext password.
func (u *User) SetPassword(plain string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), 12)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// ComparePassword reports whether the plaintext matches the stored hash.
func (u *User) ComparePassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// HasPermission reports whether the user carries the permission or the wildcard.
func (u *User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == PermissionAll || p == perm {
			return true
		}
	}
	return false
}
