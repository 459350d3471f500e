package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

const testBase = "https://api.fieldsync.test"

func testClient(t *testing.T) *Client {
	t.Helper()
	c := New(testBase, 5*time.Second, StaticToken("test-token"))
	httpmock.ActivateNonDefault(c.http)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestUploadTimeRecord(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/v1/time/clock",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer test-token", req.Header.Get("Authorization"))
			assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

			var payload map[string]any
			require.NoError(t, json.NewDecoder(req.Body).Decode(&payload))
			assert.Equal(t, "ref-1", payload["client_ref"])
			assert.Equal(t, "clock_in", payload["type"])

			return httpmock.NewJsonResponse(http.StatusCreated, map[string]string{"remote_id": "tr-42"})
		})

	res, err := c.UploadTimeRecord(context.Background(), &models.TimeRecord{
		UserID:    1,
		Type:      models.ClockIn,
		Timestamp: time.Now(),
		Latitude:  40.7,
		Longitude: -74.0,
		ClientRef: "ref-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "tr-42", res.RemoteID)
}

func TestUploadTimeRecord_Unauthorized(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/v1/time/clock",
		httpmock.NewJsonResponderOrPanic(http.StatusUnauthorized,
			map[string]string{"status": "error", "message": "token expired"}))

	_, err := c.UploadTimeRecord(context.Background(), &models.TimeRecord{ClientRef: "ref-1"})
	require.Error(t, err)
	assert.True(t, errs.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "token expired")
}

func TestUploadTimeRecord_ServerErrorIsTransient(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/v1/time/clock",
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	_, err := c.UploadTimeRecord(context.Background(), &models.TimeRecord{ClientRef: "ref-1"})
	require.Error(t, err)
	assert.True(t, errs.IsTransient(err))
}

func TestUploadTimeRecord_NetworkErrorIsTransient(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/v1/time/clock",
		httpmock.NewErrorResponder(errors.New("connection refused")))

	_, err := c.UploadTimeRecord(context.Background(), &models.TimeRecord{ClientRef: "ref-1"})
	require.Error(t, err)
	assert.True(t, errs.IsTransient(err))
}

func TestUploadTimeRecord_ValidationRejection(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/v1/time/clock",
		httpmock.NewJsonResponderOrPanic(http.StatusBadRequest,
			map[string]string{"status": "error", "message": "invalid clock type"}))

	_, err := c.UploadTimeRecord(context.Background(), &models.TimeRecord{ClientRef: "ref-1"})
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.False(t, errs.IsTransient(err))
}

func TestMissingToken_FailsBeforeRequest(t *testing.T) {
	c := New(testBase, 5*time.Second, StaticToken(""))
	httpmock.ActivateNonDefault(c.http)
	t.Cleanup(httpmock.DeactivateAndReset)

	_, err := c.UploadTimeRecord(context.Background(), &models.TimeRecord{ClientRef: "ref-1"})
	require.Error(t, err)
	assert.True(t, errs.IsUnauthorized(err))
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestUploadLocationBatch(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/v1/location/batch",
		func(req *http.Request) (*http.Response, error) {
			var body struct {
				Locations []map[string]any `json:"locations"`
			}
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			require.Len(t, body.Locations, 2)

			return httpmock.NewJsonResponse(http.StatusOK, map[string]any{
				"synced_ids": []string{"ref-a"},
				"failed_ids": []string{"ref-b"},
				"remote_ids": map[string]string{"ref-a": "loc-1"},
			})
		})

	res, err := c.UploadLocationBatch(context.Background(), []models.LocationRecord{
		{UserID: 1, ClientRef: "ref-a", Latitude: 40.7, Longitude: -74.0},
		{UserID: 1, ClientRef: "ref-b", Latitude: 40.8, Longitude: -74.1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ref-a"}, res.SyncedIDs)
	assert.Equal(t, []string{"ref-b"}, res.FailedIDs)
	assert.Equal(t, "loc-1", res.RemoteIDs["ref-a"])
}

func TestUploadLocationBatch_EmptySkipsRequest(t *testing.T) {
	c := testClient(t)

	res, err := c.UploadLocationBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.SyncedIDs)
	assert.Equal(t, 0, httpmock.GetTotalCallCount())
}

func TestUploadPhoto_Multipart(t *testing.T) {
	c := testClient(t)
	data := []byte("jpeg bytes")

	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/v1/photos/upload",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseMultipartForm(1<<20))

			var meta models.Photo
			require.NoError(t, json.Unmarshal([]byte(req.FormValue("metadata")), &meta))
			assert.Equal(t, "photo-1", meta.ID)

			file, _, err := req.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			got, err := io.ReadAll(file)
			require.NoError(t, err)
			assert.Equal(t, data, got)

			return httpmock.NewJsonResponse(http.StatusCreated, map[string]string{"remote_id": "photo-1"})
		})

	res, err := c.UploadPhoto(context.Background(), &models.Photo{
		ID:        "photo-1",
		UserID:    1,
		Timestamp: time.Now(),
		Latitude:  40.7,
		Longitude: -74.0,
		ClientRef: "ref-p",
	}, data)
	require.NoError(t, err)
	assert.Equal(t, "photo-1", res.RemoteID)
}

func TestUploadVerification(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/v1/patrol/verify",
		httpmock.NewJsonResponderOrPanic(http.StatusCreated, map[string]string{"remote_id": "ver-7"}))

	res, err := c.UploadVerification(context.Background(), &models.CheckpointVerification{
		UserID:       1,
		CheckpointID: 3,
		Timestamp:    time.Now(),
		ClientRef:    "ref-v",
	})
	require.NoError(t, err)
	assert.Equal(t, "ver-7", res.RemoteID)
}

func TestGetPatrolLocations(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodGet, testBase+"/api/v1/patrol/locations",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, []map[string]any{
			{"id": 1, "name": "warehouse", "latitude": 40.7, "longitude": -74.0},
		}))

	locs, err := c.GetPatrolLocations(context.Background())
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "warehouse", locs[0].Name)
}

func TestGetCheckpoints(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodGet, testBase+"/api/v1/patrol/locations/5/checkpoints",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, []map[string]any{
			{"id": 9, "location_id": 5, "name": "east gate"},
		}))

	cps, err := c.GetCheckpoints(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, cps, 1)
	assert.EqualValues(t, 9, cps[0].ID)
}

func TestContextCancellation(t *testing.T) {
	c := testClient(t)

	httpmock.RegisterResponder(http.MethodPost, testBase+"/api/v1/reports",
		httpmock.NewJsonResponderOrPanic(http.StatusCreated, map[string]string{"remote_id": "rep-1"}).Delay(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.UploadReport(ctx, &models.Report{ClientRef: "ref-r", Text: "x"})
	require.Error(t, err)
	assert.True(t, errs.IsTransient(err))
}
