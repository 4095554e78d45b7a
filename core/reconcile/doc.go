// Package reconcile keeps records consistent between the platform's internal
// store and an arbitrary external system (accounting platform, CRM, social
// platform) when neither side is a strict source of truth.
//
// The package is a library, not a service: it never fetches or persists
// records itself. The caller supplies the current source records plus a
// getter/setter pair for the destination, and gets back a Result describing
// exactly what happened to every record.
//
// # Architecture
//
// The stateless services at the bottom are composed upward:
//
//  1. Hash / Classify: deterministic fingerprints for cheap change detection
//     against a caller-owned baseline.
//  2. Validate / Transform / ApplyMapping: field-level checks, coercions and
//     vocabulary renames applied before anything else looks at a record.
//  3. DetectConflicts / Resolve: field-level diffing between two records
//     sharing an identity, and the strategies for picking a winner.
//  4. Engine.Sync: the one-directional pass. Loads the destination once,
//     then walks source records through map -> validate -> lookup ->
//     detect -> resolve -> write, isolating every per-record failure.
//  5. Engine.BidirectionalSync: runs two passes strictly in sequence,
//     never concurrently for the same entity type.
//
// # Error model
//
// Record-level problems (missing fields, write failures, panics) are caught,
// counted and reported in the Result; they never abort the pass. Failure of
// the destination listing aborts the pass but still returns the partial
// Result with Success=false. Only programmer errors (invalid options) are
// returned as Go errors from Sync itself.
//
// # Usage
//
//	engine := reconcile.NewEngine(logger)
//	result, err := engine.Sync(ctx, records, store.Getter(), store.Setter(), reconcile.Options{
//	    EntityType: "deals",
//	    Strategy:   reconcile.StrategyIncremental,
//	    Resolution: reconcile.ResolutionNewestWins,
//	})
//
// Conflicts that a strategy cannot settle come back as ConflictRecord values
// in Result.Conflicts for the caller to queue for human review; they are
// never written to any store.
package reconcile
