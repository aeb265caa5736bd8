package store

import (
	"context"
	"errors"
	"testing"

	"flowcrm/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestFindLeadByIDScopedToTenant(t *testing.T) {
	s, mock := newMockStore(t)

	// The handle binds its own tenant id into the WHERE clause, so tenant 1's
	// lead is invisible through tenant 2's handle.
	mock.ExpectQuery(`SELECT .* FROM "leads" WHERE tenant_id = .* AND id = .*`).
		WithArgs(uint(2), uint(10), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.Tenant(2).FindLeadByID(context.Background(), 10)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConvertLeadRequiresDealName(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.Tenant(1).ConvertLead(context.Background(), 10, 2, ConvertLeadInput{
		CreateDeal: true,
	})
	if !errors.Is(err, ErrDealNameRequired) {
		t.Fatalf("err = %v, want ErrDealNameRequired", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("validation must reject before touching the database: %v", err)
	}
}

func TestConvertLeadAlreadyConverted(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "lead_number", "first_name", "last_name", "status"}).
		AddRow(10, 1, "LEAD-2026-000010", "Ada", "Lovelace", models.LeadStatusConverted)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "leads" WHERE tenant_id = .* FOR UPDATE`).
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := s.Tenant(1).ConvertLead(context.Background(), 10, 2, ConvertLeadInput{})
	if !errors.Is(err, ErrLeadAlreadyConverted) {
		t.Fatalf("err = %v, want ErrLeadAlreadyConverted", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestConvertLeadNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .* FROM "leads" WHERE tenant_id = .* FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := s.Tenant(1).ConvertLead(context.Background(), 999, 2, ConvertLeadInput{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestDeleteLeadNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	// Soft delete issues an UPDATE on deleted_at.
	mock.ExpectExec(`UPDATE "leads" SET "deleted_at"=.* WHERE tenant_id = .*`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Tenant(1).DeleteLead(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
