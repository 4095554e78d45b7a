package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// JobFunc is one tick of a recurring job. Errors are logged, never
// propagated: a failed tick does not unschedule the job.
type JobFunc func(ctx context.Context) error

type job struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Scheduler holds a registry of named recurring jobs. It is constructed and
// injected by the caller; there is no ambient global registry.
type Scheduler struct {
	log *zap.Logger

	mu   sync.Mutex
	jobs map[string]*job
}

// New creates a scheduler. A nil logger falls back to a no-op logger.
func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		log:  log,
		jobs: make(map[string]*job),
	}
}

// Schedule registers fn to run every interval under jobID. If jobID is
// already registered the prior job is cancelled first (replace semantics);
// its in-flight tick, if any, is allowed to finish.
//
// Each tick sleeps for the full interval, then invokes fn. Ticks are
// sequential by construction: the next sleep starts only after fn returns.
func (s *Scheduler) Schedule(jobID string, fn JobFunc, interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &job{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if prev, ok := s.jobs[jobID]; ok {
		prev.cancel()
		s.log.Info("replacing scheduled job", zap.String("job_id", jobID))
	}
	s.jobs[jobID] = j
	s.mu.Unlock()

	log := s.log.With(zap.String("job_id", jobID), zap.Duration("interval", interval))
	log.Info("job scheduled")

	go s.run(ctx, j, jobID, fn, interval, log)
}

func (s *Scheduler) run(ctx context.Context, j *job, jobID string, fn JobFunc, interval time.Duration, log *zap.Logger) {
	defer close(j.done)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("job stopped")
			return
		case <-timer.C:
		}

		if err := fn(ctx); err != nil {
			log.Error("job tick failed", zap.Error(err))
		}

		// Cancellation during the tick takes effect here, before the next
		// sleep starts.
		select {
		case <-ctx.Done():
			log.Info("job stopped")
			return
		default:
		}
		timer.Reset(interval)
	}
}

// Cancel stops future ticks of jobID and reports whether the job existed.
// An in-flight tick is allowed to finish.
func (s *Scheduler) Cancel(jobID string) bool {
	s.mu.Lock()
	j, ok := s.jobs[jobID]
	if ok {
		delete(s.jobs, jobID)
	}
	s.mu.Unlock()

	if ok {
		j.cancel()
		s.log.Info("job cancelled", zap.String("job_id", jobID))
	}
	return ok
}

// CancelAll cancels every registered job and waits for their goroutines to
// wind down. Used at process shutdown.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	jobs := s.jobs
	s.jobs = make(map[string]*job)
	s.mu.Unlock()

	for id, j := range jobs {
		j.cancel()
		s.log.Info("job cancelled", zap.String("job_id", id))
	}
	for _, j := range jobs {
		<-j.done
	}
}

// Jobs returns the ids of the currently registered jobs, sorted.
func (s *Scheduler) Jobs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
