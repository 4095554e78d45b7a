package deals

import (
	"context"
	"fmt"
	"sync"
	"time"

	"deal-sync/core/config"
	"deal-sync/core/reconcile"
	"deal-sync/core/schedule"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const snapshotCacheKey = "deals:destination"

// Migrate creates or updates the tables the deals feature owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Deal{}, &SyncBaseline{}, &ConflictRow{})
}

// Service orchestrates sync passes for deals: it feeds the engine, persists
// baselines and conflicts, archives run reports, and keeps the latest result
// for the status endpoint.
type Service struct {
	engine    *reconcile.Engine
	store     *DealStore
	baselines *BaselineStore
	conflicts *ConflictStore
	archive   *RunArchive // nil disables archiving
	cache     *reconcile.SnapshotCache
	cfg       config.SyncConfig
	log       *zap.Logger

	mu   sync.RWMutex
	last *reconcile.Result
}

// NewService creates the sync service. A nil archive disables run archiving,
// a nil logger falls back to a no-op logger.
func NewService(db *gorm.DB, archive *RunArchive, cfg config.SyncConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		engine:    reconcile.NewEngine(log),
		store:     NewDealStore(db),
		baselines: NewBaselineStore(db),
		conflicts: NewConflictStore(db),
		archive:   archive,
		cache:     reconcile.NewSnapshotCache(),
		cfg:       cfg,
		log:       log,
	}
}

// options translates the configured defaults into engine options.
func (s *Service) options() (reconcile.Options, error) {
	strategy, err := reconcile.ParseStrategy(s.cfg.Strategy)
	if err != nil {
		return reconcile.Options{}, err
	}
	resolution, err := reconcile.ParseResolution(s.cfg.Resolution)
	if err != nil {
		return reconcile.Options{}, err
	}
	return reconcile.Options{
		EntityType:     s.cfg.EntityType,
		Strategy:       strategy,
		Resolution:     resolution,
		IDField:        s.cfg.IDField,
		TimestampField: s.cfg.TimestampField,
		RequiredFields: s.cfg.RequiredFieldList(),
	}, nil
}

// RunInbound pulls records from the source and reconciles them into the
// deals table. The refreshed baseline is persisted only when the pass
// succeeds, so failed or conflicted records are retried by later
// incremental passes. Conflict-queueing and archiving problems are logged
// rather than failing the pass: the writes to the deals table already
// happened.
func (s *Service) RunInbound(ctx context.Context, src Source) (*reconcile.Result, error) {
	opts, err := s.options()
	if err != nil {
		return nil, err
	}

	records, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records from %s: %w", src.Name(), err)
	}

	if opts.Strategy == reconcile.StrategyIncremental || opts.Strategy == reconcile.StrategyDelta {
		baseline, err := s.baselines.Load(ctx, opts.EntityType)
		if err != nil {
			return nil, err
		}
		opts.Baseline = baseline
	}

	result, err := s.engine.Sync(ctx, records, s.store.Getter(), s.store.Setter(), opts)
	if err != nil {
		return nil, err
	}

	if err := s.conflicts.Record(ctx, result, opts.IDField); err != nil {
		s.log.Error("failed to queue conflicts", zap.String("run_id", result.RunID), zap.Error(err))
	}
	if s.archive != nil {
		if err := s.archive.Store(ctx, result); err != nil {
			s.log.Error("failed to archive run", zap.String("run_id", result.RunID), zap.Error(err))
		}
	}
	if result.Success {
		baseline := reconcile.Fingerprints(records, opts.IDField)
		if err := s.baselines.Save(ctx, opts.EntityType, baseline); err != nil {
			s.log.Error("failed to save baseline", zap.String("entity_type", opts.EntityType), zap.Error(err))
		}
	}

	s.cache.Invalidate(snapshotCacheKey)
	s.setLast(result)
	return result, nil
}

// RunBidirectional reconciles both ways between the source and the deals
// table: source into deals first, then deals back to the source through its
// Apply. The source must support writes.
func (s *Service) RunBidirectional(ctx context.Context, src Source) (*reconcile.BidirectionalResult, error) {
	opts, err := s.options()
	if err != nil {
		return nil, err
	}

	external, err := src.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records from %s: %w", src.Name(), err)
	}
	local, err := s.store.Getter()(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.engine.BidirectionalSync(ctx, external, local, src.Apply, s.store.Setter(), opts)
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(snapshotCacheKey)
	s.setLast(result.AToB)
	return result, nil
}

// ScheduleRecurring registers the recurring inbound pass on the scheduler
// and returns the job id.
func (s *Service) ScheduleRecurring(sched *schedule.Scheduler, src Source) string {
	jobID := "sync:" + s.cfg.EntityType
	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	sched.Schedule(jobID, func(ctx context.Context) error {
		_, err := s.RunInbound(ctx, src)
		return err
	}, interval)
	return jobID
}

// LastResult returns the most recent run result, or nil before the first
// run.
func (s *Service) LastResult() *reconcile.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Service) setLast(result *reconcile.Result) {
	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
}

// DestinationSnapshot returns the deals table as records, served from the
// snapshot cache within the configured TTL.
func (s *Service) DestinationSnapshot(ctx context.Context) ([]reconcile.Record, error) {
	ttl := time.Duration(s.cfg.CacheTTLSeconds) * time.Second
	return s.cache.Get(ctx, snapshotCacheKey, ttl, s.store.Getter())
}

// PendingConflicts lists conflicts awaiting manual resolution.
func (s *Service) PendingConflicts(ctx context.Context) ([]ConflictRow, error) {
	return s.conflicts.Pending(ctx, s.cfg.EntityType)
}
