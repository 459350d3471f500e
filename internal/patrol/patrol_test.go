package patrol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
	"github.com/guardpost/fieldsync/internal/testutil"
)

func testStore(t *testing.T) *db.DB {
	t.Helper()
	h := testutil.NewHarness(t)
	h.Setup()
	t.Cleanup(h.Teardown)
	return h.Store
}

func seedSite(t *testing.T, store *db.DB, checkpoints int) (*models.PatrolLocation, []models.Checkpoint) {
	t.Helper()
	loc := &models.PatrolLocation{Name: "warehouse", Latitude: 40.7128, Longitude: -74.0060}
	require.NoError(t, store.SavePatrolLocation(loc))

	var cps []models.Checkpoint
	for i := 0; i < checkpoints; i++ {
		cp := models.Checkpoint{
			LocationID: loc.ID,
			Name:       "gate",
			Latitude:   40.7128,
			Longitude:  -74.0060,
		}
		require.NoError(t, store.SaveCheckpoint(&cp))
		cps = append(cps, cp)
	}
	return loc, cps
}

func TestVerifyCheckpoint(t *testing.T) {
	store := testStore(t)
	_, cps := seedSite(t, store, 1)
	eng := New(store, 0)

	v, err := eng.VerifyCheckpoint(1, cps[0].ID, time.Now(), 40.7128, -74.0060)
	require.NoError(t, err)
	assert.Equal(t, uint(1), v.UserID)
	assert.Equal(t, cps[0].ID, v.CheckpointID)
	assert.NotEmpty(t, v.ClientRef)
	assert.False(t, v.IsSynced)

	item, err := store.GetSyncItemForEntity(models.EntityVerification, models.FormatEntityID(v.ID))
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, models.PriorityVerification, item.Priority)
}

func TestVerifyCheckpoint_Idempotent(t *testing.T) {
	store := testStore(t)
	_, cps := seedSite(t, store, 1)
	eng := New(store, 0)

	first, err := eng.VerifyCheckpoint(1, cps[0].ID, time.Now(), 40.7128, -74.0060)
	require.NoError(t, err)

	second, err := eng.VerifyCheckpoint(1, cps[0].ID, time.Now().Add(time.Hour), 41.0, -75.0)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "repeat verification must return the existing row")

	var count int64
	require.NoError(t, store.Model(&models.CheckpointVerification{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVerifyCheckpoint_MissingCheckpoint(t *testing.T) {
	store := testStore(t)
	eng := New(store, 0)

	_, err := eng.VerifyCheckpoint(1, 404, time.Now(), 40.7128, -74.0060)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestVerifyCheckpoint_ProximityGate(t *testing.T) {
	store := testStore(t)
	_, cps := seedSite(t, store, 1)
	eng := New(store, 50)

	// Roughly 1.1km north of the checkpoint.
	_, err := eng.VerifyCheckpoint(1, cps[0].ID, time.Now(), 40.7228, -74.0060)
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))

	// Within the radius.
	_, err = eng.VerifyCheckpoint(1, cps[0].ID, time.Now(), 40.71281, -74.00601)
	require.NoError(t, err)
}

func TestVerifyCheckpoint_GateDisabled(t *testing.T) {
	store := testStore(t)
	_, cps := seedSite(t, store, 1)
	eng := New(store, 0)

	// Far away, but the gate is off.
	_, err := eng.VerifyCheckpoint(1, cps[0].ID, time.Now(), 51.5, -0.1)
	require.NoError(t, err)
}

func TestIsCheckpointVerified(t *testing.T) {
	store := testStore(t)
	_, cps := seedSite(t, store, 1)
	eng := New(store, 0)

	ok, err := eng.IsCheckpointVerified(1, cps[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = eng.VerifyCheckpoint(1, cps[0].ID, time.Now(), 40.7128, -74.0060)
	require.NoError(t, err)

	ok, err = eng.IsCheckpointVerified(1, cps[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Another user's verification does not count.
	ok, err = eng.IsCheckpointVerified(2, cps[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetPatrolStatus_Progression(t *testing.T) {
	store := testStore(t)
	loc, cps := seedSite(t, store, 3)
	eng := New(store, 0)

	status, err := eng.GetPatrolStatus(loc.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PatrolNotStarted, status.State)
	assert.Equal(t, 3, status.TotalCheckpoints)
	assert.Equal(t, 0, status.VerifiedCheckpoints)

	_, err = eng.VerifyCheckpoint(1, cps[0].ID, time.Now(), 40.7128, -74.0060)
	require.NoError(t, err)

	status, err = eng.GetPatrolStatus(loc.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PatrolInProgress, status.State)
	assert.Equal(t, 1, status.VerifiedCheckpoints)

	for _, cp := range cps[1:] {
		_, err = eng.VerifyCheckpoint(1, cp.ID, time.Now(), 40.7128, -74.0060)
		require.NoError(t, err)
	}

	status, err = eng.GetPatrolStatus(loc.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PatrolCompleted, status.State)

	// User 2 has not started.
	status, err = eng.GetPatrolStatus(loc.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, models.PatrolNotStarted, status.State)
}

func TestGetPatrolStatus_MissingLocation(t *testing.T) {
	store := testStore(t)
	eng := New(store, 0)

	_, err := eng.GetPatrolStatus(404, 1)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestDistanceMeters(t *testing.T) {
	// Same point.
	assert.InDelta(t, 0, DistanceMeters(40.7128, -74.0060, 40.7128, -74.0060), 0.01)

	// One degree of latitude is about 111km.
	d := DistanceMeters(40.0, -74.0, 41.0, -74.0)
	assert.InDelta(t, 111_000, d, 1_000)
}
