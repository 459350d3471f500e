package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// handlePatrolLocations returns all patrol locations.
func (s *Server) handlePatrolLocations(c echo.Context) error {
	locations, err := s.store.GetPatrolLocations()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, locations)
}

// handlePatrolLocation returns one patrol location.
func (s *Server) handlePatrolLocation(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err)
	}
	location, err := s.store.GetPatrolLocation(id)
	if err != nil {
		return fail(c, err)
	}
	if location == nil {
		return fail(c, errs.NotFound("patrol location", id))
	}
	return c.JSON(http.StatusOK, location)
}

// handleCheckpoints returns the checkpoints of one patrol location.
func (s *Server) handleCheckpoints(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err)
	}
	location, err := s.store.GetPatrolLocation(id)
	if err != nil {
		return fail(c, err)
	}
	if location == nil {
		return fail(c, errs.NotFound("patrol location", id))
	}
	checkpoints, err := s.store.GetCheckpointsByLocation(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, checkpoints)
}

// handlePatrolStatus summarises checkpoint completion for the user at
// one location.
func (s *Server) handlePatrolStatus(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err)
	}
	location, err := s.store.GetPatrolLocation(id)
	if err != nil {
		return fail(c, err)
	}
	if location == nil {
		return fail(c, errs.NotFound("patrol location", id))
	}

	checkpoints, err := s.store.GetCheckpointsByLocation(id)
	if err != nil {
		return fail(c, err)
	}
	verified, err := s.store.CountVerifiedForLocation(currentUserID(c), id)
	if err != nil {
		return fail(c, err)
	}

	status := models.PatrolStatus{
		LocationID:          id,
		TotalCheckpoints:    len(checkpoints),
		VerifiedCheckpoints: int(verified),
	}
	switch {
	case status.TotalCheckpoints > 0 && status.VerifiedCheckpoints == status.TotalCheckpoints:
		status.State = models.PatrolCompleted
	case status.VerifiedCheckpoints > 0:
		status.State = models.PatrolInProgress
	default:
		status.State = models.PatrolNotStarted
	}
	return c.JSON(http.StatusOK, status)
}

type verificationPayload struct {
	ClientRef    string    `json:"client_ref"`
	UserID       uint      `json:"user_id"`
	CheckpointID uint      `json:"checkpoint_id"`
	Timestamp    time.Time `json:"timestamp"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
}

// handleVerifyIngest stores one checkpoint verification. A replayed
// client_ref or an already-verified (user, checkpoint) pair both come
// back as the existing row with 200.
func (s *Server) handleVerifyIngest(c echo.Context) error {
	var p verificationPayload
	if err := c.Bind(&p); err != nil {
		return fail(c, errs.Validation("invalid request body"))
	}
	if p.ClientRef == "" {
		return fail(c, errs.Validation("client_ref is required"))
	}
	if err := checkOwner(c, p.UserID); err != nil {
		return fail(c, err)
	}

	existing, err := s.store.GetVerificationByClientRef(p.ClientRef)
	if err != nil {
		return fail(c, err)
	}
	if existing != nil {
		return c.JSON(http.StatusOK, uploadResponse{RemoteID: models.FormatEntityID(existing.ID)})
	}

	checkpoint, err := s.store.GetCheckpoint(p.CheckpointID)
	if err != nil {
		return fail(c, err)
	}
	if checkpoint == nil {
		return fail(c, errs.NotFound("checkpoint", p.CheckpointID))
	}

	userID := currentUserID(c)
	prior, err := s.store.GetVerificationForCheckpoint(userID, p.CheckpointID)
	if err != nil {
		return fail(c, err)
	}
	if prior != nil {
		return c.JSON(http.StatusOK, uploadResponse{RemoteID: models.FormatEntityID(prior.ID)})
	}

	ver := &models.CheckpointVerification{
		UserID:       userID,
		CheckpointID: p.CheckpointID,
		Timestamp:    p.Timestamp,
		Latitude:     p.Latitude,
		Longitude:    p.Longitude,
		IsSynced:     true,
		ClientRef:    p.ClientRef,
	}
	if err := s.store.SaveVerification(ver); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, uploadResponse{RemoteID: models.FormatEntityID(ver.ID)})
}

// handleVerifications returns the user's verifications.
func (s *Server) handleVerifications(c echo.Context) error {
	verifications, err := s.store.GetVerificationsByUser(currentUserID(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, verifications)
}

type verifiedResponse struct {
	CheckpointID uint `json:"checkpoint_id"`
	Verified     bool `json:"verified"`
}

// handleCheckpointVerified reports whether the user verified one
// checkpoint.
func (s *Server) handleCheckpointVerified(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return fail(c, err)
	}
	ver, err := s.store.GetVerificationForCheckpoint(currentUserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, verifiedResponse{CheckpointID: id, Verified: ver != nil})
}
