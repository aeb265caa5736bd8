package store

import (
	"context"
	"errors"
	"testing"

	"flowcrm/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestAddNoteUnsupportedOwner(t *testing.T) {
	s, mock := newMockStore(t)

	_, err := s.Tenant(1).AddNote(context.Background(), models.EntityTask, 5, "call notes", 2)
	if err == nil {
		t.Fatal("expected error for unsupported owner type")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no queries should run for an unsupported owner: %v", err)
	}
}

func TestAddNoteCrossTenantOwnerNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	// The owner existence check binds the handle's tenant id, so a lead
	// belonging to another tenant counts as absent.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "leads" WHERE tenant_id = .* AND id = .*`).
		WithArgs(uint(2), uint(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	_, err := s.Tenant(2).AddNote(context.Background(), models.EntityLead, 10, "intro call", 7)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAddNoteAppendsForOwner(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "deals" WHERE tenant_id = .* AND id = .*`).
		WithArgs(uint(1), uint(33)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`INSERT INTO "notes" .*RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	note, err := s.Tenant(1).AddNote(context.Background(), models.EntityDeal, 33, "priced the renewal", 7)
	if err != nil {
		t.Fatalf("AddNote: %v", err)
	}
	if note.TenantID != 1 || note.OwnerType != models.EntityDeal || note.OwnerID != 33 || note.CreatedBy != 7 {
		t.Errorf("note stamped wrong: %+v", note)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
