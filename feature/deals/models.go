package deals

import (
	"time"

	"deal-sync/core/reconcile"
)

// Deal is the platform-side record of a deal.
type Deal struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Title      string    `gorm:"size:255" json:"title"`
	Stage      string    `gorm:"size:64" json:"stage"`
	Amount     float64   `json:"amount"`
	Currency   string    `gorm:"size:8" json:"currency"`
	OwnerEmail string    `gorm:"size:255" json:"owner_email"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides the GORM default.
func (Deal) TableName() string {
	return "deals"
}

// Record converts the deal into the reconciliation core's record form.
func (d *Deal) Record() reconcile.Record {
	return reconcile.Record{
		"id":          d.ID,
		"title":       d.Title,
		"stage":       d.Stage,
		"amount":      d.Amount,
		"currency":    d.Currency,
		"owner_email": d.OwnerEmail,
		"updated_at":  d.UpdatedAt.UTC(),
	}
}

// dealFromRecord builds a Deal from a resolved record, coercing loosely
// typed external values field by field. Unknown fields are dropped: the
// deals table is the schema of record on this side.
func dealFromRecord(rec reconcile.Record) *Deal {
	d := &Deal{ID: rec.ID("id")}
	if v, ok := rec["title"]; ok && v != nil {
		d.Title = reconcile.Stringify(v)
	}
	if v, ok := rec["stage"]; ok && v != nil {
		d.Stage = reconcile.Stringify(v)
	}
	if v, ok := rec["amount"]; ok && v != nil {
		if f, converted := reconcile.Transform(v, reconcile.TransformToFloat); converted {
			d.Amount = f.(float64)
		}
	}
	if v, ok := rec["currency"]; ok && v != nil {
		d.Currency = reconcile.Stringify(v)
	}
	if v, ok := rec["owner_email"]; ok && v != nil {
		d.OwnerEmail = reconcile.Stringify(v)
	}
	if t, ok := reconcile.ParseTimestamp(rec["updated_at"]); ok {
		d.UpdatedAt = t
	}
	return d
}

// SyncBaseline is one persisted fingerprint: the caller-owned baseline the
// incremental strategy consults, stored per entity type and record.
type SyncBaseline struct {
	EntityType  string    `gorm:"primaryKey;size:64"`
	RecordID    string    `gorm:"primaryKey;size:64"`
	Fingerprint string    `gorm:"size:64"`
	UpdatedAt   time.Time
}

// TableName overrides the GORM default.
func (SyncBaseline) TableName() string {
	return "sync_baselines"
}

// ConflictRow is one queued manual-resolution conflict. Source and
// destination snapshots are stored as JSON for the review UI.
type ConflictRow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EntityType  string    `gorm:"size:64;index" json:"entity_type"`
	RunID       string    `gorm:"size:36" json:"run_id"`
	RecordID    string    `gorm:"size:64" json:"record_id"`
	Source      string    `gorm:"type:text" json:"source"`
	Destination string    `gorm:"type:text" json:"destination"`
	Status      string    `gorm:"size:16;default:pending" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName overrides the GORM default.
func (ConflictRow) TableName() string {
	return "sync_conflicts"
}
