package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"flowcrm/models"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockStore wires a Store over a sqlmock connection.
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}

	return New(gdb), mock
}

func TestFormatSequence(t *testing.T) {
	cases := []struct {
		entity string
		year   int
		seq    int64
		want   string
	}{
		{models.CounterLead, 2026, 1, "LEAD-2026-000001"},
		{models.CounterContact, 2026, 42, "CONT-2026-000042"},
		{models.CounterAccount, 2025, 999999, "ACC-2025-999999"},
		{models.CounterDeal, 2026, 1000000, "DEAL-2026-1000000"},
	}

	for _, tc := range cases {
		if got := FormatSequence(tc.entity, tc.year, tc.seq); got != tc.want {
			t.Errorf("FormatSequence(%s, %d, %d) = %q, want %q", tc.entity, tc.year, tc.seq, got, tc.want)
		}
	}
}

func TestNextSequenceAtomicUpsert(t *testing.T) {
	s, mock := newMockStore(t)
	year := time.Now().Year()

	mock.ExpectQuery(`INSERT INTO counters .* ON CONFLICT .* DO UPDATE SET seq = counters\.seq \+ 1.*RETURNING seq`).
		WithArgs(uint(7), models.CounterLead, year).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(42)))

	got, err := s.Tenant(7).NextSequence(context.Background(), models.CounterLead)
	if err != nil {
		t.Fatalf("NextSequence: %v", err)
	}

	want := fmt.Sprintf("LEAD-%d-000042", year)
	if got != want {
		t.Errorf("NextSequence = %q, want %q", got, want)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestNextSequenceUnknownEntity(t *testing.T) {
	s, mock := newMockStore(t)

	if _, err := s.Tenant(1).NextSequence(context.Background(), "invoice"); err == nil {
		t.Fatal("expected error for unknown entity")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no queries should run for an unknown entity: %v", err)
	}
}
