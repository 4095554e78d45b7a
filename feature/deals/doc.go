// Package deals wires the reconciliation core to the platform's deal
// records: a GORM-backed destination store, caller-owned baseline and
// conflict persistence, an object-storage archive of per-run reports, and
// the recurring job plus operational endpoints that drive it all.
//
// Concrete provider connectors live outside this repository; anything that
// satisfies the Source interface can feed a pass. The bundled ObjectSource
// reads record drops from the storage bucket, which doubles as the
// integration path for connectors that export snapshots rather than speak
// an API.
package deals
