package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// uploadResponse carries the server-assigned ID back to the device.
type uploadResponse struct {
	RemoteID string `json:"remote_id"`
}

type clockPayload struct {
	ClientRef string    `json:"client_ref"`
	UserID    uint      `json:"user_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// handleClockIngest stores one clock event. Replays of the same
// client_ref return the previously assigned ID with 200 instead of
// inserting a duplicate.
func (s *Server) handleClockIngest(c echo.Context) error {
	var p clockPayload
	if err := c.Bind(&p); err != nil {
		return fail(c, errs.Validation("invalid request body"))
	}
	if p.ClientRef == "" {
		return fail(c, errs.Validation("client_ref is required"))
	}
	if err := checkOwner(c, p.UserID); err != nil {
		return fail(c, err)
	}
	if !models.ClockType(p.Type).IsValid() {
		return fail(c, errs.Validation("invalid clock type %q", p.Type))
	}
	if !models.ValidCoordinates(p.Latitude, p.Longitude) {
		return fail(c, errs.Validation("invalid coordinates (%f, %f)", p.Latitude, p.Longitude))
	}

	existing, err := s.store.GetTimeRecordByClientRef(p.ClientRef)
	if err != nil {
		return fail(c, err)
	}
	if existing != nil {
		return c.JSON(http.StatusOK, uploadResponse{RemoteID: models.FormatEntityID(existing.ID)})
	}

	rec := &models.TimeRecord{
		UserID:    currentUserID(c),
		Type:      models.ClockType(p.Type),
		Timestamp: p.Timestamp,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		IsSynced:  true,
		ClientRef: p.ClientRef,
	}
	if err := s.store.SaveTimeRecord(rec); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, uploadResponse{RemoteID: models.FormatEntityID(rec.ID)})
}

type locationPayload struct {
	ClientRef string    `json:"client_ref"`
	UserID    uint      `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy"`
}

type locationBatchRequest struct {
	Locations []locationPayload `json:"locations"`
}

type locationBatchResponse struct {
	SyncedIDs []string          `json:"synced_ids"`
	FailedIDs []string          `json:"failed_ids"`
	RemoteIDs map[string]string `json:"remote_ids,omitempty"`
}

// handleLocationBatch ingests location pings with per-item outcomes:
// valid items are stored, invalid ones reported in failed_ids without
// failing the batch. Items whose client_ref was already ingested are
// acknowledged again with their existing ID.
func (s *Server) handleLocationBatch(c echo.Context) error {
	var req locationBatchRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, errs.Validation("invalid request body"))
	}
	if len(req.Locations) == 0 {
		return fail(c, errs.Validation("empty location batch"))
	}

	resp := locationBatchResponse{
		SyncedIDs: []string{},
		FailedIDs: []string{},
		RemoteIDs: make(map[string]string),
	}
	userID := currentUserID(c)

	for _, p := range req.Locations {
		if p.ClientRef == "" || !models.ValidCoordinates(p.Latitude, p.Longitude) {
			resp.FailedIDs = append(resp.FailedIDs, p.ClientRef)
			continue
		}
		if err := checkOwner(c, p.UserID); err != nil {
			resp.FailedIDs = append(resp.FailedIDs, p.ClientRef)
			continue
		}

		existing, err := s.store.GetLocationRecordByClientRef(p.ClientRef)
		if err != nil {
			return fail(c, err)
		}
		if existing != nil {
			resp.SyncedIDs = append(resp.SyncedIDs, p.ClientRef)
			resp.RemoteIDs[p.ClientRef] = models.FormatEntityID(existing.ID)
			continue
		}

		rec := &models.LocationRecord{
			UserID:    userID,
			Timestamp: p.Timestamp,
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
			Accuracy:  p.Accuracy,
			IsSynced:  true,
			ClientRef: p.ClientRef,
		}
		if err := s.store.SaveLocationRecord(rec); err != nil {
			return fail(c, err)
		}
		resp.SyncedIDs = append(resp.SyncedIDs, p.ClientRef)
		resp.RemoteIDs[p.ClientRef] = models.FormatEntityID(rec.ID)
	}

	return c.JSON(http.StatusOK, resp)
}

// handlePhotoUpload ingests a multipart photo upload: a "metadata" JSON
// part plus the binary "file" part. The blob is written before the row
// is inserted and removed again if the insert fails.
func (s *Server) handlePhotoUpload(c echo.Context) error {
	meta := c.FormValue("metadata")
	if meta == "" {
		return fail(c, errs.Validation("metadata part is required"))
	}
	var photo models.Photo
	if err := json.Unmarshal([]byte(meta), &photo); err != nil {
		return fail(c, errs.Validation("invalid metadata: %v", err))
	}
	if photo.ClientRef == "" || photo.ID == "" {
		return fail(c, errs.Validation("client_ref and id are required"))
	}
	if err := checkOwner(c, photo.UserID); err != nil {
		return fail(c, err)
	}
	if !models.ValidCoordinates(photo.Latitude, photo.Longitude) {
		return fail(c, errs.Validation("invalid coordinates (%f, %f)", photo.Latitude, photo.Longitude))
	}

	existing, err := s.store.GetPhotoByClientRef(photo.ClientRef)
	if err != nil {
		return fail(c, err)
	}
	if existing != nil {
		return c.JSON(http.StatusOK, uploadResponse{RemoteID: existing.ID})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, errs.Validation("file part is required"))
	}
	src, err := file.Open()
	if err != nil {
		return fail(c, errs.Validation("unreadable file part"))
	}
	defer src.Close()

	path := filepath.Join(s.photosDir, photo.ID+".jpg")
	dst, err := os.Create(path)
	if err != nil {
		return fail(c, errs.Storage("write photo blob", err))
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return fail(c, errs.Storage("write photo blob", err))
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return fail(c, errs.Storage("write photo blob", err))
	}

	photo.UserID = currentUserID(c)
	photo.FilePath = path
	photo.IsSynced = true
	photo.SyncProgress = 100
	if err := s.store.SavePhoto(&photo); err != nil {
		os.Remove(path)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, uploadResponse{RemoteID: photo.ID})
}

// checkOwner rejects payloads claiming another user's identity. A zero
// user_id defers to the token.
func checkOwner(c echo.Context, payloadUserID uint) error {
	if payloadUserID != 0 && payloadUserID != currentUserID(c) {
		return errs.Unauthorized("payload user %d does not match token", payloadUserID)
	}
	return nil
}
