package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/guardpost/fieldsync/internal/models"
)

// UploadResult carries the remote ID assigned to an uploaded entity.
type UploadResult struct {
	RemoteID string `json:"remote_id"`
}

// BatchResult reports per-item outcomes of a batch upload. IDs are the
// client references submitted with each item; RemoteIDs maps a synced
// client reference to the identifier the server assigned it.
type BatchResult struct {
	SyncedIDs []string          `json:"synced_ids"`
	FailedIDs []string          `json:"failed_ids"`
	RemoteIDs map[string]string `json:"remote_ids,omitempty"`
}

// timeRecordPayload mirrors the POST /time/clock body.
type timeRecordPayload struct {
	ClientRef string    `json:"client_ref"`
	UserID    uint      `json:"user_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// UploadTimeRecord submits one clock event and returns its remote ID.
func (c *Client) UploadTimeRecord(ctx context.Context, rec *models.TimeRecord) (*UploadResult, error) {
	payload := timeRecordPayload{
		ClientRef: rec.ClientRef,
		UserID:    rec.UserID,
		Type:      string(rec.Type),
		Timestamp: rec.Timestamp,
		Latitude:  rec.Latitude,
		Longitude: rec.Longitude,
	}
	var out UploadResult
	if err := c.postJSON(ctx, "upload time record", "/api/v1/time/clock", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// locationPayload mirrors one item of the POST /location/batch body.
type locationPayload struct {
	ClientRef string    `json:"client_ref"`
	UserID    uint      `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
}

// UploadLocationBatch submits location pings in bulk. The server
// accepts partial success; the result lists synced and failed client
// references item by item.
func (c *Client) UploadLocationBatch(ctx context.Context, recs []models.LocationRecord) (*BatchResult, error) {
	if len(recs) == 0 {
		return &BatchResult{}, nil
	}
	payload := make([]locationPayload, 0, len(recs))
	for _, rec := range recs {
		payload = append(payload, locationPayload{
			ClientRef: rec.ClientRef,
			UserID:    rec.UserID,
			Timestamp: rec.Timestamp,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Accuracy:  rec.Accuracy,
		})
	}
	var out BatchResult
	body := map[string]any{"locations": payload}
	if err := c.postJSON(ctx, "upload location batch", "/api/v1/location/batch", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadPhoto submits photo metadata and binary content as a multipart
// request: a JSON metadata part plus the file part.
func (c *Client) UploadPhoto(ctx context.Context, photo *models.Photo, data []byte) (*UploadResult, error) {
	const op = "upload photo"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	meta, err := json.Marshal(photo)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal metadata: %w", op, err)
	}
	if err := w.WriteField("metadata", string(meta)); err != nil {
		return nil, fmt.Errorf("%s: write metadata part: %w", op, err)
	}

	part, err := w.CreateFormFile("file", photo.ID+".jpg")
	if err != nil {
		return nil, fmt.Errorf("%s: create file part: %w", op, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("%s: write file part: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s: close multipart writer: %w", op, err)
	}

	var out UploadResult
	if err := c.do(ctx, op, http.MethodPost, "/api/v1/photos/upload", &buf, w.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// reportPayload mirrors the POST /reports body.
type reportPayload struct {
	ClientRef string    `json:"client_ref"`
	UserID    uint      `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// UploadReport submits one activity report and returns its remote ID.
func (c *Client) UploadReport(ctx context.Context, report *models.Report) (*UploadResult, error) {
	payload := reportPayload{
		ClientRef: report.ClientRef,
		UserID:    report.UserID,
		Text:      report.Text,
		Timestamp: report.Timestamp,
		Latitude:  report.Latitude,
		Longitude: report.Longitude,
	}
	var out UploadResult
	if err := c.postJSON(ctx, "upload report", "/api/v1/reports", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// verificationPayload mirrors the POST /patrol/verify body.
type verificationPayload struct {
	ClientRef    string    `json:"client_ref"`
	UserID       uint      `json:"user_id"`
	CheckpointID uint      `json:"checkpoint_id"`
	Timestamp    time.Time `json:"timestamp"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
}

// UploadVerification submits one checkpoint verification and returns
// its remote ID.
func (c *Client) UploadVerification(ctx context.Context, v *models.CheckpointVerification) (*UploadResult, error) {
	payload := verificationPayload{
		ClientRef:    v.ClientRef,
		UserID:       v.UserID,
		CheckpointID: v.CheckpointID,
		Timestamp:    v.Timestamp,
		Latitude:     v.Latitude,
		Longitude:    v.Longitude,
	}
	var out UploadResult
	if err := c.postJSON(ctx, "upload verification", "/api/v1/patrol/verify", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPatrolLocations fetches the patrol location reference data.
func (c *Client) GetPatrolLocations(ctx context.Context) ([]models.PatrolLocation, error) {
	var out []models.PatrolLocation
	if err := c.getJSON(ctx, "get patrol locations", "/api/v1/patrol/locations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCheckpoints fetches the checkpoints of one patrol location.
func (c *Client) GetCheckpoints(ctx context.Context, locationID uint) ([]models.Checkpoint, error) {
	var out []models.Checkpoint
	path := fmt.Sprintf("/api/v1/patrol/locations/%d/checkpoints", locationID)
	if err := c.getJSON(ctx, "get checkpoints", path, &out); err != nil {
		return nil, err
	}
	return out, nil
}
