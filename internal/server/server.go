// Package server is the backend half of fieldsync: an Echo HTTP API
// that ingests uploads from devices idempotently and serves reference
// data back. It runs against its own database file using the same
// storage layer as the client.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/guardpost/fieldsync/internal/config"
	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/log"
)

// Server wraps the Echo instance, the backing store and the token
// manager.
type Server struct {
	Echo  *echo.Echo
	store *db.DB
	cfg   *config.ServerConfig
	jwt   *JWTManager

	photosDir string
}

// New builds a server around an open store. photosDir is where uploaded
// photo blobs are written.
func New(cfg *config.ServerConfig, store *db.DB, photosDir string) *Server {
	s := &Server{
		Echo:      echo.New(),
		store:     store,
		cfg:       cfg,
		jwt:       NewJWTManager(cfg.JWTSecret, cfg.TokenTTL, cfg.RefreshTokenTTL),
		photosDir: photosDir,
	}

	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Use(middleware.Recover())
	if cfg.RateLimit > 0 {
		s.Echo.Use(s.rateLimit())
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.Echo.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/verify", s.handleVerify)
	auth.POST("/validate", s.handleValidate)
	auth.POST("/refresh", s.handleRefresh)

	protected := v1.Group("", s.requireAuth)

	protected.POST("/time/clock", s.handleClockIngest)
	protected.GET("/time/history", s.handleTimeHistory)
	protected.GET("/time/status", s.handleTimeStatus)

	protected.POST("/location/batch", s.handleLocationBatch)
	protected.GET("/location/current", s.handleLocationCurrent)
	protected.GET("/location/history", s.handleLocationHistory)

	protected.POST("/photos/upload", s.handlePhotoUpload)
	protected.GET("/photos/:id", s.handlePhotoGet)
	protected.GET("/photos/:id/file", s.handlePhotoFile)

	protected.POST("/reports", s.handleReportCreate)
	protected.GET("/reports", s.handleReportList)
	protected.GET("/reports/range", s.handleReportRange)
	protected.GET("/reports/:id", s.handleReportGet)
	protected.PUT("/reports/:id", s.handleReportUpdate)
	protected.DELETE("/reports/:id", s.handleReportDelete)

	protected.GET("/patrol/locations", s.handlePatrolLocations)
	protected.GET("/patrol/locations/:id", s.handlePatrolLocation)
	protected.GET("/patrol/locations/:id/checkpoints", s.handleCheckpoints)
	protected.GET("/patrol/locations/:id/status", s.handlePatrolStatus)
	protected.POST("/patrol/verify", s.handleVerifyIngest)
	protected.GET("/patrol/verifications", s.handleVerifications)
	protected.GET("/patrol/checkpoints/:id/verified", s.handleCheckpointVerified)
}

// Start listens on the configured address until the context is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s\n", s.cfg.Addr)
		if err := s.Echo.Start(s.cfg.Addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return s.Echo.Shutdown(context.Background())
	}
}

// statusMessage is the structured error body returned by every failing
// endpoint.
type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// fail maps an error through the shared taxonomy to an HTTP status and
// writes the structured body.
func fail(c echo.Context, err error) error {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("request %s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return c.JSON(status, statusMessage{
		Status:  http.StatusText(status),
		Message: err.Error(),
	})
}
