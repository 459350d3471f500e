package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

type reportPayload struct {
	ClientRef string    `json:"client_ref"`
	UserID    uint      `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
}

// handleReportCreate stores one activity report, idempotently on
// client_ref.
func (s *Server) handleReportCreate(c echo.Context) error {
	var p reportPayload
	if err := c.Bind(&p); err != nil {
		return fail(c, errs.Validation("invalid request body"))
	}
	if p.ClientRef == "" {
		return fail(c, errs.Validation("client_ref is required"))
	}
	if err := checkOwner(c, p.UserID); err != nil {
		return fail(c, err)
	}
	if !models.ValidReportText(p.Text) {
		return fail(c, errs.Validation("report text must be non-empty and at most %d characters", models.MaxReportTextLen))
	}
	if !models.ValidCoordinates(p.Latitude, p.Longitude) {
		return fail(c, errs.Validation("invalid coordinates (%f, %f)", p.Latitude, p.Longitude))
	}

	existing, err := s.store.GetReportByClientRef(p.ClientRef)
	if err != nil {
		return fail(c, err)
	}
	if existing != nil {
		return c.JSON(http.StatusOK, uploadResponse{RemoteID: models.FormatEntityID(existing.ID)})
	}

	report := &models.Report{
		UserID:    currentUserID(c),
		Text:      p.Text,
		Timestamp: p.Timestamp,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		IsSynced:  true,
		ClientRef: p.ClientRef,
	}
	if err := s.store.SaveReport(report); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, uploadResponse{RemoteID: models.FormatEntityID(report.ID)})
}

// handleReportList returns one page of the user's reports. Query params
// page (1-based) and page_size.
func (s *Server) handleReportList(c echo.Context) error {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "page_size", 20)

	result, err := s.store.ListReports(currentUserID(c), page, pageSize)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// handleReportRange returns the user's reports between from and to.
func (s *Server) handleReportRange(c echo.Context) error {
	from, to, err := timeRange(c)
	if err != nil {
		return fail(c, err)
	}
	reports, err := s.store.GetReportsInRange(currentUserID(c), from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, reports)
}

// handleReportGet returns one report, owner only.
func (s *Server) handleReportGet(c echo.Context) error {
	report, err := s.ownedReport(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

type reportUpdateRequest struct {
	Text string `json:"text"`
}

// handleReportUpdate changes a report's text, owner only.
func (s *Server) handleReportUpdate(c echo.Context) error {
	report, err := s.ownedReport(c)
	if err != nil {
		return fail(c, err)
	}

	var req reportUpdateRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, errs.Validation("invalid request body"))
	}
	if !models.ValidReportText(req.Text) {
		return fail(c, errs.Validation("report text must be non-empty and at most %d characters", models.MaxReportTextLen))
	}

	report.Text = req.Text
	if err := s.store.SaveReport(report); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// handleReportDelete removes a report, owner only.
func (s *Server) handleReportDelete(c echo.Context) error {
	report, err := s.ownedReport(c)
	if err != nil {
		return fail(c, err)
	}
	if _, err := s.store.DeleteReport(report.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) ownedReport(c echo.Context) (*models.Report, error) {
	id, err := paramID(c)
	if err != nil {
		return nil, err
	}
	report, err := s.store.GetReport(id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, errs.NotFound("report", id)
	}
	if report.UserID != currentUserID(c) {
		return nil, errs.Unauthorized("report %d does not belong to user %d", id, currentUserID(c))
	}
	return report, nil
}

// queryInt parses an integer query param with a fallback.
func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
