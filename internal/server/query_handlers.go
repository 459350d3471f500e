package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// handleTimeHistory returns the user's clock events between from and to.
func (s *Server) handleTimeHistory(c echo.Context) error {
	from, to, err := timeRange(c)
	if err != nil {
		return fail(c, err)
	}
	recs, err := s.store.GetTimeRecordsInRange(currentUserID(c), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, recs)
}

type timeStatusResponse struct {
	ClockedIn bool   `json:"clocked_in"`
	Since     string `json:"since,omitempty"`
}

// handleTimeStatus reports whether the user is currently clocked in.
func (s *Server) handleTimeStatus(c echo.Context) error {
	latest, err := s.store.GetLatestTimeRecord(currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	resp := timeStatusResponse{}
	if latest != nil && latest.Type == models.ClockIn {
		resp.ClockedIn = true
		resp.Since = latest.Timestamp.Format(time.RFC3339)
	}
	return c.JSON(http.StatusOK, resp)
}

// handleLocationCurrent returns the user's most recent position ping.
func (s *Server) handleLocationCurrent(c echo.Context) error {
	rec, err := s.store.GetCurrentLocation(currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	if rec == nil {
		return fail(c, errs.NotFound("location", currentUserID(c)))
	}
	return c.JSON(http.StatusOK, rec)
}

// handleLocationHistory returns the user's pings between from and to.
func (s *Server) handleLocationHistory(c echo.Context) error {
	from, to, err := timeRange(c)
	if err != nil {
		return fail(c, err)
	}
	recs, err := s.store.GetLocationHistory(currentUserID(c), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, recs)
}

// handlePhotoGet returns photo metadata.
func (s *Server) handlePhotoGet(c echo.Context) error {
	photo, err := s.store.GetPhoto(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if photo == nil {
		return fail(c, errs.NotFound("photo", c.Param("id")))
	}
	if photo.UserID != currentUserID(c) {
		return fail(c, errs.Unauthorized("photo %s does not belong to user %d", photo.ID, currentUserID(c)))
	}
	return c.JSON(http.StatusOK, photo)
}

// handlePhotoFile streams the photo blob.
func (s *Server) handlePhotoFile(c echo.Context) error {
	photo, err := s.store.GetPhoto(c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if photo == nil {
		return fail(c, errs.NotFound("photo", c.Param("id")))
	}
	if photo.UserID != currentUserID(c) {
		return fail(c, errs.Unauthorized("photo %s does not belong to user %d", photo.ID, currentUserID(c)))
	}
	return c.File(photo.FilePath)
}

// timeRange parses from/to query params, defaulting to the last 24
// hours.
func timeRange(c echo.Context) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.Add(-24 * time.Hour)
	to := now

	if raw := c.QueryParam("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errs.Validation("invalid from timestamp %q", raw)
		}
		from = parsed
	}
	if raw := c.QueryParam("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, errs.Validation("invalid to timestamp %q", raw)
		}
		to = parsed
	}
	return from, to, nil
}

// paramID parses the :id path parameter.
func paramID(c echo.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errs.Validation("invalid id %q", raw)
	}
	return uint(id), nil
}
