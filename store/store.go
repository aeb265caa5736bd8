package store

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
)

// Typed failures controllers translate to HTTP statuses.
var (
	ErrNotFound             = errors.New("record not found")
	ErrDuplicate            = errors.New("duplicate record")
	ErrLeadAlreadyConverted = errors.New("lead already converted")
	ErrLastAdmin            = errors.New("cannot remove the only admin user")
	ErrDealNameRequired     = errors.New("deal name is required to create a deal")
)

// Store owns the database handle. All tenant data access goes through the
// TenantDB returned by Tenant, so a query without a tenant id cannot be
// expressed.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the raw handle for the few global (non-tenant) lookups:
// companies by subdomain, users by invitation token, workflow jobs.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Tenant returns a handle whose every query is scoped to the tenant.
func (s *Store) Tenant(tenantID uint) *TenantDB {
	return &TenantDB{db: s.db, tenantID: tenantID}
}

// TenantDB is the tenant-scoped data access handle attached to a request
// after tenant resolution.
type TenantDB struct {
	db       *gorm.DB
	tenantID uint
}

// TenantID returns the tenant this handle is bound to.
func (t *TenantDB) TenantID() uint {
	return t.tenantID
}

// scoped starts a query on model restricted to the tenant.
func (t *TenantDB) scoped(tx *gorm.DB, model interface{}) *gorm.DB {
	return tx.Model(model).Where("tenant_id = ?", t.tenantID)
}

// ListOptions carries pagination, sorting and free-text search for Find calls.
type ListOptions struct {
	Page   int
	Limit  int
	Sort   string
	Search string
}

// Normalize clamps pagination to sane bounds.
func (o *ListOptions) Normalize() {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = 20
	}
	if o.Limit > 100 {
		o.Limit = 100
	}
}

func (o *ListOptions) offset() int {
	return (o.Page - 1) * o.Limit
}

// Pagination is the metadata returned alongside every list.
type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// BuildPagination derives page metadata from a total row count.
func BuildPagination(opts ListOptions, total int64) Pagination {
	totalPages := int(math.Ceil(float64(total) / float64(opts.Limit)))
	return Pagination{
		Page:        opts.Page,
		Limit:       opts.Limit,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNextPage: int64(opts.Page*opts.Limit) < total,
		HasPrevPage: opts.Page > 1,
	}
}

// orderClause whitelists the sort column against the entity's sortable set.
// Unknown input falls back to newest-first.
func orderClause(sort string, allowed map[string]bool) string {
	if sort == "" {
		return "created_at DESC"
	}
	col := sort
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		col = sort[1:]
		dir = "DESC"
	}
	if !allowed[col] {
		return "created_at DESC"
	}
	return fmt.Sprintf("%s %s", col, dir)
}

// searchClause builds an ILIKE disjunction across the entity's text columns.
func searchClause(tx *gorm.DB, search string, columns ...string) *gorm.DB {
	if search == "" {
		return tx
	}
	pattern := "%" + search + "%"
	var parts []string
	var args []interface{}
	for _, col := range columns {
		parts = append(parts, col+" ILIKE ?")
		args = append(args, pattern)
	}
	return tx.Where(strings.Join(parts, " OR "), args...)
}

// translateErr maps driver errors onto the store's sentinel errors.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "duplicate key") {
		return ErrDuplicate
	}
	return err
}
