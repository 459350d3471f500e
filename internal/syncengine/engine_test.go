package syncengine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardpost/fieldsync/internal/api"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/locations"
	"github.com/guardpost/fieldsync/internal/models"
	"github.com/guardpost/fieldsync/internal/reports"
	"github.com/guardpost/fieldsync/internal/testutil"
	"github.com/guardpost/fieldsync/internal/timeclock"
)

// fakeRemote stands in for the backend client. Each Upload* method
// succeeds with a deterministic remote ID unless its error field is
// set; batchFn overrides the location batch outcome when non-nil.
type fakeRemote struct {
	mu sync.Mutex

	timeCalls   int
	photoCalls  int
	reportCalls int
	verifyCalls int
	batchCalls  int

	timeErr   error
	reportErr error
	batchErr  error
	batchFn   func(recs []models.LocationRecord) (*api.BatchResult, error)
}

func (f *fakeRemote) UploadTimeRecord(_ context.Context, rec *models.TimeRecord) (*api.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timeCalls++
	if f.timeErr != nil {
		return nil, f.timeErr
	}
	return &api.UploadResult{RemoteID: fmt.Sprintf("tr-%d", rec.ID)}, nil
}

func (f *fakeRemote) UploadLocationBatch(_ context.Context, recs []models.LocationRecord) (*api.BatchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	if f.batchFn != nil {
		return f.batchFn(recs)
	}
	res := &api.BatchResult{RemoteIDs: make(map[string]string)}
	for _, rec := range recs {
		res.SyncedIDs = append(res.SyncedIDs, rec.ClientRef)
		res.RemoteIDs[rec.ClientRef] = fmt.Sprintf("loc-%d", rec.ID)
	}
	return res, nil
}

func (f *fakeRemote) UploadPhoto(_ context.Context, photo *models.Photo, _ []byte) (*api.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photoCalls++
	return &api.UploadResult{RemoteID: photo.ID}, nil
}

func (f *fakeRemote) UploadReport(_ context.Context, report *models.Report) (*api.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reportCalls++
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	return &api.UploadResult{RemoteID: fmt.Sprintf("rep-%d", report.ID)}, nil
}

func (f *fakeRemote) UploadVerification(_ context.Context, v *models.CheckpointVerification) (*api.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	return &api.UploadResult{RemoteID: fmt.Sprintf("ver-%d", v.ID)}, nil
}

func testEngine(t *testing.T) (*Engine, *fakeRemote, *testutil.Harness) {
	t.Helper()
	h := testutil.NewHarness(t)
	h.Setup()
	t.Cleanup(h.Teardown)
	remote := &fakeRemote{}
	return New(h.Store, remote, h.Config.Sync), remote, h
}

func TestDrain_EmptiesQueueAndMarksSynced(t *testing.T) {
	eng, remote, h := testEngine(t)

	rec, err := timeclock.New(h.Store).Clock(1, models.ClockIn, time.Now(), 40.7, -74.0)
	require.NoError(t, err)
	report, err := reports.New(h.Store).Create(1, "round complete", time.Now(), 40.7, -74.0)
	require.NoError(t, err)
	outcome, err := locations.New(h.Store).RecordBatch(1, []locations.Ping{
		{Timestamp: time.Now(), Latitude: 40.7, Longitude: -74.0},
	})
	require.NoError(t, err)

	result, err := eng.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Succeeded)
	assert.False(t, result.HasFailures())
	assert.Equal(t, 0, result.Deferred)

	count, err := h.Store.CountSyncQueue()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	gotRec, err := h.Store.GetTimeRecord(rec.ID)
	require.NoError(t, err)
	assert.True(t, gotRec.IsSynced)
	assert.Equal(t, fmt.Sprintf("tr-%d", rec.ID), gotRec.RemoteID)

	gotReport, err := h.Store.GetReport(report.ID)
	require.NoError(t, err)
	assert.True(t, gotReport.IsSynced)

	gotLoc, err := h.Store.GetLocationRecord(outcome.Stored[0].ID)
	require.NoError(t, err)
	assert.True(t, gotLoc.IsSynced)
	assert.Equal(t, fmt.Sprintf("loc-%d", gotLoc.ID), gotLoc.RemoteID)

	// Nothing left to do on a second pass.
	result, err = eng.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 1, remote.timeCalls)
}

func TestDrain_TransientFailureStaysQueued(t *testing.T) {
	eng, remote, h := testEngine(t)
	remote.timeErr = errs.Transient("upload", fmt.Errorf("connection refused"))

	rec, err := timeclock.New(h.Store).Clock(1, models.ClockIn, time.Now(), 40.7, -74.0)
	require.NoError(t, err)

	result, err := eng.Drain(context.Background())
	require.NoError(t, err)
	require.True(t, result.HasFailures())
	assert.False(t, result.Failures[0].Terminal)

	item, err := h.Store.GetSyncItemForEntity(models.EntityTimeRecord, models.FormatEntityID(rec.ID))
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, 1, item.RetryCount)
	assert.NotNil(t, item.LastAttempt)
	assert.Contains(t, item.ErrorMessage, "connection refused")

	gotRec, err := h.Store.GetTimeRecord(rec.ID)
	require.NoError(t, err)
	assert.False(t, gotRec.IsSynced)
}

func TestDrain_PermanentFailureIsTerminal(t *testing.T) {
	eng, remote, h := testEngine(t)
	remote.reportErr = errs.Validation("text rejected")

	_, err := reports.New(h.Store).Create(1, "bad entry", time.Now(), 40.7, -74.0)
	require.NoError(t, err)

	result, err := eng.Drain(context.Background())
	require.NoError(t, err)
	require.True(t, result.HasFailures())
	assert.True(t, result.Failures[0].Terminal)

	// The row is kept for audit but no longer offered for retry.
	queued, err := h.Store.NextSyncBatch(models.EntityReport, 0, eng.cfg.MaxRetries)
	require.NoError(t, err)
	assert.Empty(t, queued)

	failed, err := h.Store.GetFailedSyncItems(eng.cfg.MaxRetries)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].ErrorMessage, "text rejected")

	// Further drains never re-submit it.
	remote.reportErr = nil
	result, err = eng.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Succeeded)
	assert.Equal(t, 1, remote.reportCalls)
}

func TestDrain_EditAfterTerminalFailureSyncsAgain(t *testing.T) {
	eng, remote, h := testEngine(t)
	remote.reportErr = errs.Validation("text rejected")

	svc := reports.New(h.Store)
	report, err := svc.Create(1, "bad entry", time.Now(), 40.7, -74.0)
	require.NoError(t, err)

	result, err := eng.Drain(context.Background())
	require.NoError(t, err)
	require.True(t, result.HasFailures())
	require.True(t, result.Failures[0].Terminal)

	// Editing the report re-enqueues it; the terminal failure must not
	// keep the corrected version from ever reaching the server.
	remote.reportErr = nil
	_, err = svc.Update(1, report.ID, "corrected entry")
	require.NoError(t, err)

	result, err = eng.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.False(t, result.HasFailures())
	assert.Equal(t, 2, remote.reportCalls)

	got, err := h.Store.GetReport(report.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSynced)

	count, err := h.Store.CountSyncQueue()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestDrain_BackoffDefersUntilWindowElapses(t *testing.T) {
	eng, remote, h := testEngine(t)
	remote.timeErr = errs.Transient("upload", fmt.Errorf("timeout"))

	_, err := timeclock.New(h.Store).Clock(1, models.ClockIn, time.Now(), 40.7, -74.0)
	require.NoError(t, err)

	_, err = eng.Drain(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, remote.timeCalls)

	// Immediately after the failure the item is inside its backoff
	// window and must be skipped.
	result, err := eng.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deferred)
	assert.Equal(t, 1, remote.timeCalls)

	// Once the window elapses the item is due again.
	remote.timeErr = nil
	eng.now = func() time.Time { return time.Now().Add(eng.cfg.BackoffBase + time.Second) }
	result, err = eng.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, remote.timeCalls)

	count, err := h.Store.CountSyncQueue()
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestDrain_RetryCapFlipsToTerminal(t *testing.T) {
	eng, remote, h := testEngine(t)
	eng.cfg.MaxRetries = 1
	remote.timeErr = errs.Transient("upload", fmt.Errorf("timeout"))

	rec, err := timeclock.New(h.Store).Clock(1, models.ClockIn, time.Now(), 40.7, -74.0)
	require.NoError(t, err)

	// First failure books a retry.
	result, err := eng.Drain(context.Background())
	require.NoError(t, err)
	assert.False(t, result.Failures[0].Terminal)

	// Second failure exceeds the cap.
	eng.now = func() time.Time { return time.Now().Add(time.Hour) }
	result, err = eng.Drain(context.Background())
	require.NoError(t, err)
	require.True(t, result.HasFailures())
	assert.True(t, result.Failures[0].Terminal)

	item, err := h.Store.GetSyncItemForEntity(models.EntityTimeRecord, models.FormatEntityID(rec.ID))
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Greater(t, item.RetryCount, eng.cfg.MaxRetries)
}

func TestDrainEntity_SingleFlight(t *testing.T) {
	eng, remote, h := testEngine(t)

	_, err := timeclock.New(h.Store).Clock(1, models.ClockIn, time.Now(), 40.7, -74.0)
	require.NoError(t, err)

	g := eng.guard(models.EntityTimeRecord)
	g.Lock()
	result, err := eng.DrainEntity(context.Background(), models.EntityTimeRecord)
	g.Unlock()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deferred)
	assert.Equal(t, 0, remote.timeCalls, "a held guard must short-circuit before any upload")

	// With the guard released the item drains normally.
	result, err = eng.DrainEntity(context.Background(), models.EntityTimeRecord)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
}

func TestDrain_ReusesStoredRemoteID(t *testing.T) {
	eng, remote, h := testEngine(t)

	rec, err := timeclock.New(h.Store).Clock(1, models.ClockIn, time.Now(), 40.7, -74.0)
	require.NoError(t, err)

	// A previous cycle uploaded the record but crashed before clearing
	// the queue row.
	_, err = h.Store.UpdateTimeRecordSyncStatus(rec.ID, true, "tr-prior")
	require.NoError(t, err)

	result, err := eng.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 0, remote.timeCalls, "a record with a remote ID must not be re-submitted")

	got, err := h.Store.GetTimeRecord(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "tr-prior", got.RemoteID)
}

func TestDrain_LocationBatchPartialOutcome(t *testing.T) {
	eng, remote, h := testEngine(t)

	outcome, err := locations.New(h.Store).RecordBatch(1, []locations.Ping{
		{Timestamp: time.Now(), Latitude: 40.70, Longitude: -74.00},
		{Timestamp: time.Now(), Latitude: 40.71, Longitude: -74.01},
		{Timestamp: time.Now(), Latitude: 40.72, Longitude: -74.02},
	})
	require.NoError(t, err)
	recs := outcome.Stored
	require.Len(t, recs, 3)

	// The server confirms the first ping, rejects the second, and omits
	// the third from the response.
	remote.batchFn = func(got []models.LocationRecord) (*api.BatchResult, error) {
		return &api.BatchResult{
			SyncedIDs: []string{recs[0].ClientRef},
			FailedIDs: []string{recs[1].ClientRef},
			RemoteIDs: map[string]string{recs[0].ClientRef: "loc-a"},
		}, nil
	}

	result, err := eng.DrainEntity(context.Background(), models.EntityLocation)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 2, result.GetFailureCount())

	first, err := h.Store.GetLocationRecord(recs[0].ID)
	require.NoError(t, err)
	assert.True(t, first.IsSynced)
	assert.Equal(t, "loc-a", first.RemoteID)
	gone, err := h.Store.GetSyncItemForEntity(models.EntityLocation, models.FormatEntityID(recs[0].ID))
	require.NoError(t, err)
	assert.Nil(t, gone)

	// Rejected ping fails terminally.
	rejected, err := h.Store.GetSyncItemForEntity(models.EntityLocation, models.FormatEntityID(recs[1].ID))
	require.NoError(t, err)
	require.NotNil(t, rejected)
	assert.Greater(t, rejected.RetryCount, eng.cfg.MaxRetries)

	// Omitted ping is requeued as transient.
	omitted, err := h.Store.GetSyncItemForEntity(models.EntityLocation, models.FormatEntityID(recs[2].ID))
	require.NoError(t, err)
	require.NotNil(t, omitted)
	assert.Equal(t, 1, omitted.RetryCount)
}

func TestDrain_LocationBatchWholeFailureTransient(t *testing.T) {
	eng, remote, h := testEngine(t)
	remote.batchErr = errs.Transient("batch", fmt.Errorf("gateway timeout"))

	outcome, err := locations.New(h.Store).RecordBatch(1, []locations.Ping{
		{Timestamp: time.Now(), Latitude: 40.70, Longitude: -74.00},
		{Timestamp: time.Now(), Latitude: 40.71, Longitude: -74.01},
	})
	require.NoError(t, err)

	result, err := eng.DrainEntity(context.Background(), models.EntityLocation)
	require.NoError(t, err)
	assert.Equal(t, 2, result.GetFailureCount())
	for _, f := range result.Failures {
		assert.False(t, f.Terminal)
	}

	for _, rec := range outcome.Stored {
		item, err := h.Store.GetSyncItemForEntity(models.EntityLocation, models.FormatEntityID(rec.ID))
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, 1, item.RetryCount)
	}
}

func TestDrain_CancelledContextStops(t *testing.T) {
	eng, _, h := testEngine(t)

	_, err := timeclock.New(h.Store).Clock(1, models.ClockIn, time.Now(), 40.7, -74.0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = eng.Drain(ctx)
	require.ErrorIs(t, err, context.Canceled)

	count, err := h.Store.CountSyncQueue()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "a cancelled drain must leave the queue intact")
}

func TestBackoffDelay(t *testing.T) {
	eng, _, _ := testEngine(t)
	eng.cfg.BackoffBase = time.Second
	eng.cfg.BackoffCap = 10 * time.Second

	assert.Equal(t, time.Second, eng.backoffDelay(1))
	assert.Equal(t, 2*time.Second, eng.backoffDelay(2))
	assert.Equal(t, 4*time.Second, eng.backoffDelay(3))
	assert.Equal(t, 8*time.Second, eng.backoffDelay(4))
	assert.Equal(t, 10*time.Second, eng.backoffDelay(5))
	assert.Equal(t, 10*time.Second, eng.backoffDelay(20))
}
