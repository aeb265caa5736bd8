package store

import (
	"context"
	"errors"
	"testing"

	"flowcrm/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestDeleteUserIsHardDelete(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE tenant_id = .* AND id = .*`).
		WithArgs(uint(1), uint(5), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "role"}).
			AddRow(5, 1, models.RoleStaff))
	// A DELETE, not a deleted_at UPDATE: a soft-deleted row would keep the
	// email locked in the tenant+email unique index.
	mock.ExpectExec(`DELETE FROM "users" WHERE tenant_id = .* AND id = .*`).
		WithArgs(uint(1), uint(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "companies" SET .*total_users.* WHERE id = .*`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := s.Tenant(1).DeleteUser(context.Background(), 5); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteUserLastAdminRefused(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE tenant_id = .* AND id = .*`).
		WithArgs(uint(1), uint(5), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "role"}).
			AddRow(5, 1, models.RoleAdmin))
	// The admin rows are locked before counting, so a concurrent delete or
	// demote waits here instead of racing past the check.
	mock.ExpectQuery(`SELECT "id" FROM "users" WHERE tenant_id = .* AND role = .* FOR UPDATE`).
		WithArgs(uint(1), models.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectRollback()

	err := s.Tenant(1).DeleteUser(context.Background(), 5)
	if !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("err = %v, want ErrLastAdmin", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateUserRoleLastAdminRefused(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE tenant_id = .* AND id = .*`).
		WithArgs(uint(1), uint(5), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "role"}).
			AddRow(5, 1, models.RoleAdmin))
	mock.ExpectQuery(`SELECT "id" FROM "users" WHERE tenant_id = .* AND role = .* FOR UPDATE`).
		WithArgs(uint(1), models.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectRollback()

	_, err := s.Tenant(1).UpdateUserRole(context.Background(), 5, models.RoleManager)
	if !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("err = %v, want ErrLastAdmin", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestUpdateUserRoleDemoteWithRemainingAdmin(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE tenant_id = .* AND id = .*`).
		WithArgs(uint(1), uint(5), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "role"}).
			AddRow(5, 1, models.RoleAdmin))
	mock.ExpectQuery(`SELECT "id" FROM "users" WHERE tenant_id = .* AND role = .* FOR UPDATE`).
		WithArgs(uint(1), models.RoleAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5).AddRow(9))
	mock.ExpectExec(`UPDATE "users" SET .*role.* WHERE tenant_id = .* AND id = .*`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT .* FROM "users" WHERE tenant_id = .* AND id = .*`).
		WithArgs(uint(1), uint(5), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "role"}).
			AddRow(5, 1, models.RoleManager))

	user, err := s.Tenant(1).UpdateUserRole(context.Background(), 5, models.RoleManager)
	if err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
	if user.Role != models.RoleManager {
		t.Errorf("role = %q, want %q", user.Role, models.RoleManager)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
