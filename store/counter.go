package store

import (
	"context"
	"fmt"
	"time"

	"flowcrm/models"

	"gorm.io/gorm"
)

// sequencePrefixes maps counter entities to their human-facing prefix.
var sequencePrefixes = map[string]string{
	models.CounterLead:    "LEAD",
	models.CounterContact: "CONT",
	models.CounterAccount: "ACC",
	models.CounterDeal:    "DEAL",
}

// FormatSequence renders a sequence number, e.g. LEAD-2026-000042.
func FormatSequence(entity string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%06d", sequencePrefixes[entity], year, seq)
}

// nextSequence allocates the next number for (tenant, entity, current year)
// with a single upsert-and-increment statement. Concurrent callers each get
// a distinct, contiguous value; there is no read-modify-write window.
func nextSequence(tx *gorm.DB, tenantID uint, entity string) (string, error) {
	if _, ok := sequencePrefixes[entity]; !ok {
		return "", fmt.Errorf("unknown counter entity %q", entity)
	}

	year := time.Now().Year()
	var seq int64
	err := tx.Raw(
		`INSERT INTO counters (tenant_id, entity, year, seq) VALUES (?, ?, ?, 1)
		 ON CONFLICT (tenant_id, entity, year) DO UPDATE SET seq = counters.seq + 1
		 RETURNING seq`,
		tenantID, entity, year,
	).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("sequence allocation for %s failed: %w", entity, err)
	}

	return FormatSequence(entity, year, seq), nil
}

// NextSequence allocates a sequence number outside any surrounding
// transaction. Entity creation paths use the transactional variant instead
// so a failed insert does not burn visible numbers mid-transaction.
func (t *TenantDB) NextSequence(ctx context.Context, entity string) (string, error) {
	return nextSequence(t.db.WithContext(ctx), t.tenantID, entity)
}
