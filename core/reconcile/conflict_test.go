package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectConflicts(t *testing.T) {
	source := Record{"id": "1", "name": "Acme Corp", "stage": "won", "amount": 100}
	destination := Record{"id": "1", "name": "Acme", "stage": "won", "amount": 100.0}

	differing := DetectConflicts(source, destination, []string{"id", "name", "stage", "amount"})
	// Numeric values compare by magnitude, so 100 vs 100.0 is not a conflict.
	assert.Equal(t, []string{"name"}, differing)
}

func TestDetectConflictsNone(t *testing.T) {
	rec := Record{"id": "1", "name": "Acme"}
	assert.Empty(t, DetectConflicts(rec, rec.Clone(), []string{"id", "name"}))
}

func TestResolveSourceAndDestinationWins(t *testing.T) {
	source := Record{"id": "1", "name": "from-source"}
	destination := Record{"id": "1", "name": "from-destination"}

	resolved, conflict, err := Resolve(source, destination, ResolutionSourceWins, "updated_at")
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.Equal(t, source, resolved)

	resolved, conflict, err = Resolve(source, destination, ResolutionDestinationWins, "updated_at")
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.Equal(t, destination, resolved)
}

func TestResolveNewestWins(t *testing.T) {
	tests := []struct {
		name    string
		srcTime any
		dstTime any
		winner  string
	}{
		{"source newer", "2026-08-20T12:00:00Z", "2026-08-19T12:00:00Z", "source"},
		{"destination newer", "2026-08-19T12:00:00Z", "2026-08-20T12:00:00Z", "destination"},
		{"equal timestamps tie-break to source", "2026-08-20T12:00:00Z", "2026-08-20T12:00:00Z", "source"},
		{"source missing timestamp", nil, "2026-08-20T12:00:00Z", "source"},
		{"destination missing timestamp", "2026-08-20T12:00:00Z", nil, "source"},
		{"both missing", nil, nil, "source"},
		{"zoneless treated as UTC", "2026-08-20 13:00:00", "2026-08-20T12:30:00Z", "source"},
		{"unix seconds", int64(1755700000), int64(1755600000), "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := Record{"id": "1", "side": "source", "updated_at": tt.srcTime}
			destination := Record{"id": "1", "side": "destination", "updated_at": tt.dstTime}

			resolved, conflict, err := Resolve(source, destination, ResolutionNewestWins, "updated_at")
			require.NoError(t, err)
			assert.Nil(t, conflict)
			assert.Equal(t, tt.winner, resolved["side"])
		})
	}
}

func TestResolveMerge(t *testing.T) {
	source := Record{
		"id":         "1",
		"name":       "Acme Corp", // destination has a value, must keep it
		"phone":      "+31-20-555", // destination null, must backfill
		"fax":        nil,          // source null, must not clear destination
		"updated_at": "2026-08-21T09:00:00Z",
	}
	destination := Record{
		"id":         "1",
		"name":       "Acme",
		"phone":      nil,
		"fax":        "retired",
		"updated_at": "2026-08-01T09:00:00Z",
	}

	resolved, conflict, err := Resolve(source, destination, ResolutionMerge, "updated_at")
	require.NoError(t, err)
	assert.Nil(t, conflict)

	assert.Equal(t, "Acme", resolved["name"])
	assert.Equal(t, "+31-20-555", resolved["phone"])
	assert.Equal(t, "retired", resolved["fax"])
	// The timestamp always takes the later value, even though the
	// destination's value is non-null.
	assert.Equal(t, "2026-08-21T09:00:00Z", resolved["updated_at"])
}

func TestResolveMergeSourceOnlyField(t *testing.T) {
	source := Record{"id": "1", "region": "eu"}
	destination := Record{"id": "1"}

	resolved, _, err := Resolve(source, destination, ResolutionMerge, "")
	require.NoError(t, err)
	assert.Equal(t, "eu", resolved["region"])
}

func TestResolveManual(t *testing.T) {
	source := Record{"id": "1", "name": "A"}
	destination := Record{"id": "1", "name": "B"}

	resolved, conflict, err := Resolve(source, destination, ResolutionManual, "updated_at")
	require.NoError(t, err)
	assert.Nil(t, resolved)
	require.NotNil(t, conflict)
	assert.True(t, conflict.IsConflict)
	assert.True(t, conflict.RequiresManualResolution)
	assert.Equal(t, source, conflict.Source)
	assert.Equal(t, destination, conflict.Destination)
}

func TestResolveUnknownResolution(t *testing.T) {
	_, _, err := Resolve(Record{}, Record{}, Resolution("coin_flip"), "")
	assert.Error(t, err)
}

func TestParseTimestamp(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  any
		want   time.Time
		wantOK bool
	}{
		{"time.Time", now, now, true},
		{"RFC3339", "2026-08-20T12:00:00Z", now, true},
		{"zoneless as UTC", "2026-08-20 12:00:00", now, true},
		{"date only", "2026-08-20", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), true},
		{"unix seconds", now.Unix(), now, true},
		{"garbage", "last tuesday", time.Time{}, false},
		{"nil", nil, time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.value)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, got.Equal(tt.want), "got %v want %v", got, tt.want)
			}
		})
	}
}
