package models

// Counter entity kinds, also the key space for sequence allocation.
const (
	CounterLead    = "lead"
	CounterContact = "contact"
	CounterAccount = "account"
	CounterDeal    = "deal"
)

// Counter backs the per-tenant, per-year sequence allocator. Rows are only
// ever touched through an atomic upsert-and-increment, never read-then-write.
type Counter struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	TenantID uint   `gorm:"not null;uniqueIndex:idx_counters_key" json:"tenant_id"`
	Entity   string `gorm:"not null;uniqueIndex:idx_counters_key" json:"entity"`
	Year     int    `gorm:"not null;uniqueIndex:idx_counters_key" json:"year"`
	Seq      int64  `gorm:"not null;default:0" json:"seq"`
}
