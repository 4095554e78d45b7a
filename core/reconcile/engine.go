package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Engine runs one-directional and bidirectional synchronization passes. It
// is stateless apart from its logger and the per-entity locks that keep
// bidirectional passes from interleaving; a single Engine is safe for
// concurrent use across entity types.
type Engine struct {
	log   *zap.Logger
	locks *entityLocks
}

// NewEngine creates an engine. A nil logger falls back to a no-op logger.
func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		log:   log,
		locks: newEntityLocks(),
	}
}

// outcome is the terminal state of a single source record within a pass.
type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeSkipped
	outcomeFailed
	outcomeConflict
)

// recordResult carries a record's terminal state back to the aggregation
// loop. Exactly one of conflict/errMsg is populated for the conflict/failed
// outcomes.
type recordResult struct {
	outcome  outcome
	errMsg   string
	warnings []string
	conflict *ConflictRecord
}

// Sync performs one orchestration pass from the supplied source records into
// the destination behind getter/setter.
//
// Record-level failures (validation, write errors, panics) are isolated:
// they are counted and reported but never abort the batch. Failure of the
// destination listing aborts the pass and returns the partial Result with
// Success=false. The only non-nil error Sync itself returns is a programmer
// error in the options, surfaced at call time.
func (e *Engine) Sync(ctx context.Context, source []Record, getter Getter, setter Setter, opts Options) (*Result, error) {
	opts = opts.normalized()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if getter == nil || setter == nil {
		return nil, fmt.Errorf("reconcile: getter and setter are required")
	}

	result := &Result{
		RunID:      uuid.NewString(),
		EntityType: opts.EntityType,
		Strategy:   opts.Strategy,
		Conflicts:  []ConflictRecord{},
		Errors:     []string{},
		SyncedAt:   time.Now().UTC(),
	}
	log := e.log.With(
		zap.String("run_id", result.RunID),
		zap.String("entity_type", opts.EntityType),
		zap.String("strategy", opts.Strategy.String()),
	)

	// One batch read up front; per-record lookups happen against this index.
	destRecords, err := getter(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("destination listing failed: %v", err))
		result.Success = false
		log.Error("sync pass aborted", zap.Error(err))
		return result, nil
	}

	destIndex := make(map[string]Record, len(destRecords))
	for _, rec := range destRecords {
		if id := rec.ID(opts.IDField); id != "" {
			destIndex[id] = rec
		}
	}

	for i, rec := range source {
		rr := e.processRecord(ctx, rec, destIndex, setter, opts, i)
		result.RecordsProcessed++
		result.Warnings = append(result.Warnings, rr.warnings...)
		switch rr.outcome {
		case outcomeCreated:
			result.Created++
		case outcomeUpdated:
			result.Updated++
		case outcomeSkipped:
			result.Skipped++
		case outcomeFailed:
			result.Failed++
			result.Errors = append(result.Errors, rr.errMsg)
		case outcomeConflict:
			result.Conflicts = append(result.Conflicts, *rr.conflict)
		}
	}

	if opts.Strategy == StrategyMirror {
		result.DestinationOnly = destinationOnly(source, destIndex, opts.IDField)
	}

	result.Success = result.Failed == 0 && len(result.Conflicts) == 0
	log.Info("sync pass finished",
		zap.Int("processed", result.RecordsProcessed),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Bool("success", result.Success),
	)
	return result, nil
}

// processRecord walks a single source record through the per-record state
// machine: map -> transform -> validate -> lookup -> detect -> resolve ->
// write. A panic anywhere in the chain is converted into a failed outcome so
// one poisoned record cannot take down the batch; the destination write has
// not happened at any panic site.
func (e *Engine) processRecord(ctx context.Context, rec Record, destIndex map[string]Record, setter Setter, opts Options, position int) (rr recordResult) {
	defer func() {
		if r := recover(); r != nil {
			rr = recordResult{
				outcome: outcomeFailed,
				errMsg:  fmt.Sprintf("%s record #%d: panic: %v", opts.EntityType, position, r),
			}
		}
	}()

	mapped := ApplyMapping(rec, opts.FieldMappings)
	mapped, warnings := ApplyTransforms(mapped, opts.Transforms)
	rr.warnings = warnings

	if ok, missing := Validate(mapped, opts.RequiredFields); !ok {
		rr.outcome = outcomeFailed
		rr.errMsg = fmt.Sprintf("%s record %q: missing required fields %v",
			opts.EntityType, displayID(mapped, opts.IDField, position), missing)
		return rr
	}

	id := mapped.ID(opts.IDField)

	// Incremental and delta passes trust the caller's baseline: an unchanged
	// fingerprint means no destination lookup, no write.
	if id != "" && opts.Baseline != nil &&
		(opts.Strategy == StrategyIncremental || opts.Strategy == StrategyDelta) {
		if prev, known := opts.Baseline[id]; known && prev == Hash(mapped) {
			rr.outcome = outcomeSkipped
			return rr
		}
	}

	existing, present := destIndex[id]
	if id == "" || !present {
		if err := setter(ctx, "", mapped, false); err != nil {
			rr.outcome = outcomeFailed
			rr.errMsg = fmt.Sprintf("%s record %q: create failed: %v",
				opts.EntityType, displayID(mapped, opts.IDField, position), err)
			return rr
		}
		rr.outcome = outcomeCreated
		return rr
	}

	// Detection runs over the fields the source actually carries; extra
	// destination-only fields are not conflicts.
	sourceFields := sortedKeys(mapped)
	differing := DetectConflicts(mapped, existing, sourceFields)

	if len(differing) == 0 {
		// Mirror skips unconditionally on no-diff; other strategies only
		// skip when the two records are field-for-field identical, since a
		// destination with extra stale fields still wants the write.
		if opts.Strategy == StrategyMirror || mapped.Equal(existing) {
			rr.outcome = outcomeSkipped
			return rr
		}
		if err := setter(ctx, id, mapped, true); err != nil {
			rr.outcome = outcomeFailed
			rr.errMsg = fmt.Sprintf("%s record %q: update failed: %v", opts.EntityType, id, err)
			return rr
		}
		rr.outcome = outcomeUpdated
		return rr
	}

	resolved, conflict, err := Resolve(mapped, existing, opts.Resolution, opts.TimestampField)
	if err != nil {
		// Unknown resolution is caught by options validation; reaching this
		// means a resolution added without a Resolve arm.
		panic(err)
	}
	if conflict != nil {
		rr.outcome = outcomeConflict
		rr.conflict = conflict
		return rr
	}

	if err := setter(ctx, id, resolved, true); err != nil {
		rr.outcome = outcomeFailed
		rr.errMsg = fmt.Sprintf("%s record %q: update failed: %v", opts.EntityType, id, err)
		return rr
	}
	rr.outcome = outcomeUpdated
	return rr
}

// destinationOnly lists destination identities with no counterpart in the
// source batch, sorted for deterministic output.
func destinationOnly(source []Record, destIndex map[string]Record, idField string) []string {
	sourceIDs := make(map[string]struct{}, len(source))
	for _, rec := range source {
		if id := rec.ID(idField); id != "" {
			sourceIDs[id] = struct{}{}
		}
	}
	var only []string
	for id := range destIndex {
		if _, ok := sourceIDs[id]; !ok {
			only = append(only, id)
		}
	}
	sort.Strings(only)
	return only
}

func sortedKeys(r Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// displayID renders a record identity for error messages, falling back to
// the batch position when the record has none.
func displayID(r Record, idField string, position int) string {
	if id := r.ID(idField); id != "" {
		return id
	}
	return fmt.Sprintf("#%d", position)
}
