package reconcile

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCacheServesFreshEntries(t *testing.T) {
	var calls int32
	getter := func(context.Context) ([]Record, error) {
		atomic.AddInt32(&calls, 1)
		return []Record{{"id": "1"}}, nil
	}

	cache := NewSnapshotCache()
	ctx := context.Background()

	first, err := cache.Get(ctx, "deals", time.Minute, getter)
	require.NoError(t, err)
	second, err := cache.Get(ctx, "deals", time.Minute, getter)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSnapshotCacheInvalidate(t *testing.T) {
	var calls int32
	getter := func(context.Context) ([]Record, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}

	cache := NewSnapshotCache()
	ctx := context.Background()

	_, err := cache.Get(ctx, "deals", time.Minute, getter)
	require.NoError(t, err)
	cache.Invalidate("deals")
	_, err = cache.Get(ctx, "deals", time.Minute, getter)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSnapshotCacheZeroTTLDisablesCaching(t *testing.T) {
	var calls int32
	getter := func(context.Context) ([]Record, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	}

	cache := NewSnapshotCache()
	ctx := context.Background()

	_, _ = cache.Get(ctx, "deals", 0, getter)
	_, _ = cache.Get(ctx, "deals", 0, getter)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSnapshotCacheErrorNotCached(t *testing.T) {
	var calls int32
	getter := func(context.Context) ([]Record, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("transient")
		}
		return []Record{{"id": "1"}}, nil
	}

	cache := NewSnapshotCache()
	ctx := context.Background()

	_, err := cache.Get(ctx, "deals", time.Minute, getter)
	assert.Error(t, err)
	records, err := cache.Get(ctx, "deals", time.Minute, getter)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSnapshotCacheCollapsesConcurrentMisses(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	getter := func(context.Context) ([]Record, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []Record{{"id": "1"}}, nil
	}

	cache := NewSnapshotCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.Get(ctx, "deals", time.Minute, getter)
		}()
	}
	// Give the goroutines a moment to pile into the same flight.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
