package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Getter returns the full current set of destination records for the entity
// type being synced. The engine calls it exactly once per pass. Timeout and
// retry policy belong to the implementation, not to the engine.
type Getter func(ctx context.Context) ([]Record, error)

// Setter creates (id == "") or updates (id != "") a destination record. It
// must be idempotent for retried calls with the same resolved record.
type Setter func(ctx context.Context, id string, record Record, isUpdate bool) error

// Options configures a single orchestration pass.
type Options struct {
	// EntityType names what is being synced ("deals", "contacts", "invoices").
	EntityType string
	// Strategy governs re-writes of unchanged records and whether
	// destination-only records are considered.
	Strategy Strategy
	// Resolution picks the policy applied when source and destination
	// disagree on a field.
	Resolution Resolution
	// IDField designates the identity field; DefaultIDField when empty.
	IDField string
	// TimestampField is consulted by NewestWins and Merge resolutions.
	TimestampField string
	// RequiredFields must be present (non-nil) after mapping; records
	// missing any of them fail validation and are counted as failed.
	RequiredFields []string
	// FieldMappings renames source vocabulary to destination vocabulary
	// before validation and conflict detection.
	FieldMappings map[string]string
	// Transforms applies per-field value coercions after mapping.
	Transforms map[string]TransformKind
	// Baseline is the caller-owned fingerprint map consulted by the
	// incremental and delta strategies. Nil disables baseline skipping.
	Baseline Baseline
}

// normalized returns a copy with defaults applied.
func (o Options) normalized() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyFull
	}
	if o.Resolution == "" {
		o.Resolution = ResolutionSourceWins
	}
	if o.IDField == "" {
		o.IDField = DefaultIDField
	}
	return o
}

// validate fails fast on programmer errors, the only conditions the engine
// surfaces as a Go error.
func (o Options) validate() error {
	if o.EntityType == "" {
		return errors.New("reconcile: entity type is required")
	}
	if !o.Strategy.IsValid() {
		return fmt.Errorf("reconcile: unknown sync strategy %q", o.Strategy)
	}
	if !o.Resolution.IsValid() {
		return fmt.Errorf("reconcile: unknown conflict resolution %q", o.Resolution)
	}
	for field, kind := range o.Transforms {
		if !kind.IsValid() {
			return fmt.Errorf("reconcile: unknown transform %q for field %q", kind, field)
		}
	}
	return nil
}

// Result aggregates the outcome of one orchestration pass. Every source
// record lands in exactly one of created/updated/skipped/failed/conflicts,
// so RecordsProcessed == Created + Updated + Failed + Skipped + len(Conflicts).
type Result struct {
	// RunID uniquely identifies this pass for logs and archives.
	RunID      string   `json:"run_id"`
	EntityType string   `json:"entity_type"`
	Strategy   Strategy `json:"strategy"`

	RecordsProcessed int `json:"records_processed"`
	Created          int `json:"created"`
	Updated          int `json:"updated"`
	Failed           int `json:"failed"`
	Skipped          int `json:"skipped"`

	// Conflicts holds the pairs deferred to manual resolution. A pass with
	// only conflicts still reports Success=false: "needs human input" is
	// distinct from "broken" but is not success.
	Conflicts []ConflictRecord `json:"conflicts"`

	// Errors holds one message per failed record plus any engine-level error.
	Errors []string `json:"errors"`

	// Warnings holds non-fatal notes such as inapplicable transforms.
	Warnings []string `json:"warnings,omitempty"`

	// DestinationOnly lists identities present only in the destination.
	// Populated under the mirror strategy; never acted on by the engine.
	DestinationOnly []string `json:"destination_only,omitempty"`

	// Success is true iff Failed == 0, len(Conflicts) == 0, and the pass
	// was not aborted by an engine-level error.
	Success  bool      `json:"success"`
	SyncedAt time.Time `json:"synced_at"`
}

// BidirectionalResult combines the two sequential passes of a bidirectional
// sync.
type BidirectionalResult struct {
	AToB *Result `json:"a_to_b"`
	BToA *Result `json:"b_to_a"`

	// TotalRecordsSynced counts creations and updates across both passes.
	TotalRecordsSynced int `json:"total_records_synced"`

	// Success is true iff both passes succeeded.
	Success bool `json:"success"`
}
