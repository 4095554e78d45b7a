package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Snapshot is one cached destination listing.
type Snapshot struct {
	Records []Record
	Built   time.Time
	TTL     time.Duration
}

// IsExpired returns true once the snapshot has outlived its TTL. A zero TTL
// disables caching entirely.
func (s *Snapshot) IsExpired() bool {
	if s.TTL == 0 {
		return true
	}
	return time.Since(s.Built) > s.TTL
}

// SnapshotCache caches destination listings per entity type so pollers
// (status endpoints, dashboards) do not hammer the destination between
// passes. Concurrent misses for the same key collapse into a single getter
// call via singleflight.
//
// The cache is constructed and injected by the caller; there is no
// process-wide instance.
type SnapshotCache struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
	sf    singleflight.Group
}

// NewSnapshotCache creates an empty cache.
func NewSnapshotCache() *SnapshotCache {
	return &SnapshotCache{snaps: make(map[string]*Snapshot)}
}

// Get returns the cached records for key, refreshing via getter when the
// entry is missing or expired.
func (c *SnapshotCache) Get(ctx context.Context, key string, ttl time.Duration, getter Getter) ([]Record, error) {
	c.mu.RLock()
	snap, ok := c.snaps[key]
	c.mu.RUnlock()

	if ok && !snap.IsExpired() {
		return snap.Records, nil
	}

	result, err, _ := c.sf.Do(key, func() (any, error) {
		// Re-check after winning the flight; a concurrent caller may have
		// refreshed already.
		c.mu.RLock()
		snap, ok := c.snaps[key]
		c.mu.RUnlock()
		if ok && !snap.IsExpired() {
			return snap, nil
		}

		records, err := getter(ctx)
		if err != nil {
			return nil, err
		}
		fresh := &Snapshot{
			Records: records,
			Built:   time.Now(),
			TTL:     ttl,
		}
		c.mu.Lock()
		c.snaps[key] = fresh
		c.mu.Unlock()
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Snapshot).Records, nil
}

// Invalidate drops the cached snapshot for key. Callers invalidate after a
// pass mutates the destination.
func (c *SnapshotCache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.snaps, key)
	c.mu.Unlock()
}
