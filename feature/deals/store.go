package deals

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"deal-sync/core/reconcile"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DealStore adapts the deals table to the engine's getter and setter
// contracts.
type DealStore struct {
	db *gorm.DB
}

// NewDealStore creates a store over the given database handle.
func NewDealStore(db *gorm.DB) *DealStore {
	return &DealStore{db: db}
}

// Getter lists every deal as a record.
func (s *DealStore) Getter() reconcile.Getter {
	return func(ctx context.Context) ([]reconcile.Record, error) {
		var rows []Deal
		if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to list deals: %w", err)
		}
		records := make([]reconcile.Record, 0, len(rows))
		for i := range rows {
			records = append(records, rows[i].Record())
		}
		return records, nil
	}
}

// Setter writes one resolved record. An empty id means create; the store
// assigns a fresh identifier so sources that carry no id of their own still
// round-trip.
func (s *DealStore) Setter() reconcile.Setter {
	return func(ctx context.Context, id string, record reconcile.Record, isUpdate bool) error {
		deal := dealFromRecord(record)
		if id != "" {
			deal.ID = id
		}
		if deal.ID == "" {
			deal.ID = uuid.NewString()
		}

		if isUpdate {
			// Save stays idempotent across retried passes.
			if err := s.db.WithContext(ctx).Save(deal).Error; err != nil {
				return fmt.Errorf("failed to update deal %s: %w", deal.ID, err)
			}
			return nil
		}
		if err := s.db.WithContext(ctx).Create(deal).Error; err != nil {
			return fmt.Errorf("failed to create deal %s: %w", deal.ID, err)
		}
		return nil
	}
}

// BaselineStore persists per-record fingerprints between passes.
type BaselineStore struct {
	db *gorm.DB
}

// NewBaselineStore creates a baseline store over the given database handle.
func NewBaselineStore(db *gorm.DB) *BaselineStore {
	return &BaselineStore{db: db}
}

// Load returns the stored baseline for an entity type. A missing baseline
// is an empty map, so the first pass treats every record as changed.
func (s *BaselineStore) Load(ctx context.Context, entityType string) (reconcile.Baseline, error) {
	var rows []SyncBaseline
	if err := s.db.WithContext(ctx).Where("entity_type = ?", entityType).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load baseline for %s: %w", entityType, err)
	}
	baseline := make(reconcile.Baseline, len(rows))
	for _, row := range rows {
		baseline[row.RecordID] = row.Fingerprint
	}
	return baseline, nil
}

// Save replaces the stored baseline for an entity type in one transaction.
func (s *BaselineStore) Save(ctx context.Context, entityType string, baseline reconcile.Baseline) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entity_type = ?", entityType).Delete(&SyncBaseline{}).Error; err != nil {
			return fmt.Errorf("failed to clear baseline for %s: %w", entityType, err)
		}
		if len(baseline) == 0 {
			return nil
		}
		now := time.Now().UTC()
		rows := make([]SyncBaseline, 0, len(baseline))
		for id, fingerprint := range baseline {
			rows = append(rows, SyncBaseline{
				EntityType:  entityType,
				RecordID:    id,
				Fingerprint: fingerprint,
				UpdatedAt:   now,
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to store baseline for %s: %w", entityType, err)
		}
		return nil
	})
}

// ConflictStore queues manual-resolution conflicts for review.
type ConflictStore struct {
	db *gorm.DB
}

// NewConflictStore creates a conflict store over the given database handle.
func NewConflictStore(db *gorm.DB) *ConflictStore {
	return &ConflictStore{db: db}
}

// Record queues every conflict from a finished run. Both record versions are
// stored as JSON snapshots so a reviewer sees exactly what the engine saw.
func (s *ConflictStore) Record(ctx context.Context, result *reconcile.Result, idField string) error {
	if len(result.Conflicts) == 0 {
		return nil
	}

	rows := make([]ConflictRow, 0, len(result.Conflicts))
	for _, conflict := range result.Conflicts {
		source, err := json.Marshal(conflict.Source)
		if err != nil {
			return fmt.Errorf("failed to encode conflict source: %w", err)
		}
		destination, err := json.Marshal(conflict.Destination)
		if err != nil {
			return fmt.Errorf("failed to encode conflict destination: %w", err)
		}
		rows = append(rows, ConflictRow{
			EntityType:  result.EntityType,
			RunID:       result.RunID,
			RecordID:    conflict.Source.ID(idField),
			Source:      string(source),
			Destination: string(destination),
			Status:      "pending",
		})
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to queue conflicts for run %s: %w", result.RunID, err)
	}
	return nil
}

// Pending lists conflicts awaiting manual resolution, oldest first.
func (s *ConflictStore) Pending(ctx context.Context, entityType string) ([]ConflictRow, error) {
	var rows []ConflictRow
	err := s.db.WithContext(ctx).
		Where("entity_type = ? AND status = ?", entityType, "pending").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending conflicts: %w", err)
	}
	return rows, nil
}
