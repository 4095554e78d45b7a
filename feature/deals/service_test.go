package deals

import (
	"context"
	"regexp"
	"sync"
	"testing"

	"deal-sync/core/config"
	"deal-sync/core/reconcile"
	"deal-sync/core/schedule"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource feeds canned records into a pass and records write-backs.
type stubSource struct {
	records  []reconcile.Record
	fetchErr error

	mu      sync.Mutex
	applied []string
}

func (s *stubSource) Name() string {
	return "stub"
}

func (s *stubSource) Fetch(context.Context) ([]reconcile.Record, error) {
	return s.records, s.fetchErr
}

func (s *stubSource) Apply(_ context.Context, _ string, record reconcile.Record, _ bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied = append(s.applied, record.ID("id"))
	return nil
}

func (s *stubSource) appliedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.applied...)
}

func syncTestConfig(strategy, resolution string) config.SyncConfig {
	return config.SyncConfig{
		EntityType:      "deals",
		IntervalSeconds: 3600,
		Strategy:        strategy,
		Resolution:      resolution,
		IDField:         "id",
		TimestampField:  "updated_at",
		RequiredFields:  "id",
		CacheTTLSeconds: 60,
	}
}

func TestServiceRunInboundCreates(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB, nil, syncTestConfig("full", "source_wins"), nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deals`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `deals`")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	// A clean pass refreshes the stored baseline.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `sync_baselines`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `sync_baselines`")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	src := &stubSource{records: []reconcile.Record{{"id": "d1", "title": "Acme"}}}
	result, err := svc.RunInbound(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.True(t, result.Success)
	assert.Same(t, result, svc.LastResult())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRunInboundIncrementalLoadsBaseline(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB, nil, syncTestConfig("incremental", "source_wins"), nil)

	// A stale fingerprint means the record is still processed.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `sync_baselines` WHERE entity_type = ?")).
		WithArgs("deals").
		WillReturnRows(sqlmock.NewRows([]string{"entity_type", "record_id", "fingerprint"}).
			AddRow("deals", "d1", "stale"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deals`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `deals`")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `sync_baselines`")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `sync_baselines`")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	src := &stubSource{records: []reconcile.Record{{"id": "d1", "title": "Acme"}}}
	result, err := svc.RunInbound(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 0, result.Skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRunInboundManualConflictQueued(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB, nil, syncTestConfig("full", "manual"), nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deals`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("d1", "old title"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `sync_conflicts`")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	// No baseline refresh: the pass did not succeed.

	src := &stubSource{records: []reconcile.Record{{"id": "d1", "title": "new title"}}}
	result, err := svc.RunInbound(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	assert.True(t, result.Conflicts[0].RequiresManualResolution)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRunInboundFetchError(t *testing.T) {
	gormDB, _ := setupMockDB(t)
	svc := NewService(gormDB, nil, syncTestConfig("full", "source_wins"), nil)

	src := &stubSource{fetchErr: assert.AnError}
	_, err := svc.RunInbound(context.Background(), src)
	assert.ErrorContains(t, err, "failed to fetch records from stub")
	assert.Nil(t, svc.LastResult())
}

func TestServiceRunInboundInvalidStrategy(t *testing.T) {
	gormDB, _ := setupMockDB(t)
	svc := NewService(gormDB, nil, syncTestConfig("sometimes", "source_wins"), nil)

	_, err := svc.RunInbound(context.Background(), &stubSource{})
	assert.Error(t, err)
}

func TestServiceRunBidirectional(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB, nil, syncTestConfig("full", "source_wins"), nil)

	// Local side holds d1, the external side holds x1. Each pass creates the
	// other side's record.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deals`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow("d1", "local deal"))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `deals`")).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	src := &stubSource{records: []reconcile.Record{{"id": "x1", "title": "external deal"}}}
	result, err := svc.RunBidirectional(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalRecordsSynced)
	assert.Equal(t, []string{"d1"}, src.appliedIDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceScheduleRecurring(t *testing.T) {
	gormDB, _ := setupMockDB(t)
	svc := NewService(gormDB, nil, syncTestConfig("full", "source_wins"), nil)

	sched := schedule.New(nil)
	defer sched.CancelAll()

	jobID := svc.ScheduleRecurring(sched, &stubSource{})
	assert.Equal(t, "sync:deals", jobID)
	assert.Contains(t, sched.Jobs(), jobID)
}

func TestServiceDestinationSnapshotCached(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB, nil, syncTestConfig("full", "source_wins"), nil)

	// One expectation for two calls: the second is served from the cache.
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `deals`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("d1"))

	first, err := svc.DestinationSnapshot(context.Background())
	require.NoError(t, err)
	second, err := svc.DestinationSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServicePendingConflicts(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	svc := NewService(gormDB, nil, syncTestConfig("full", "manual"), nil)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `sync_conflicts`")).
		WithArgs("deals", "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "record_id", "status"}).
			AddRow(1, "deals", "d1", "pending"))

	pending, err := svc.PendingConflicts(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "d1", pending[0].RecordID)
}
