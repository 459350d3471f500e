// Package photos stores captured photos as a blob on disk plus a
// metadata row. The file is written first; if the row insert fails the
// file is removed again so no orphaned blobs accumulate.
package photos

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/log"
	"github.com/guardpost/fieldsync/internal/models"
)

// Service owns the photos table and the blob directory.
type Service struct {
	store *db.DB
	dir   string
}

// New creates a photo service storing blobs under dir.
func New(store *db.DB, dir string) *Service {
	return &Service{store: store, dir: dir}
}

// Capture persists a photo: blob file write, then metadata row and sync
// queue row in one transaction. On a storage failure after the file
// write, the blob is deleted before the error propagates.
func (s *Service) Capture(userID uint, ts time.Time, lat, lon float64, data []byte) (*models.Photo, error) {
	if len(data) == 0 {
		return nil, errs.Validation("empty photo data")
	}
	if !models.ValidCoordinates(lat, lon) {
		return nil, errs.Validation("invalid coordinates (%f, %f)", lat, lon)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, errs.Storage("create photos directory", err)
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, fmt.Sprintf("%s.jpg", id))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, errs.Storage("write photo blob", err)
	}

	photo := &models.Photo{
		ID:        id,
		UserID:    userID,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
		FilePath:  path,
		ClientRef: uuid.NewString(),
	}
	err := s.store.Transaction(func(tx *db.DB) error {
		if err := tx.SavePhoto(photo); err != nil {
			return err
		}
		return tx.EnqueueSync(models.EntityPhoto, photo.ID, models.PriorityPhoto)
	})
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Errorf("remove orphaned photo blob %s: %v", path, rmErr)
		}
		return nil, err
	}
	return photo, nil
}

// GetByID returns a photo's metadata or a not-found error.
func (s *Service) GetByID(id string) (*models.Photo, error) {
	photo, err := s.store.GetPhoto(id)
	if err != nil {
		return nil, err
	}
	if photo == nil {
		return nil, errs.NotFound("photo", id)
	}
	return photo, nil
}

// ReadBlob returns the binary content of a stored photo.
func (s *Service) ReadBlob(id string) ([]byte, error) {
	photo, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(photo.FilePath)
	if err != nil {
		return nil, errs.Storage("read photo blob", err)
	}
	return data, nil
}

// Delete removes a photo's metadata row and its blob.
func (s *Service) Delete(id string) error {
	photo, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if _, err := s.store.DeletePhoto(id); err != nil {
		return err
	}
	if err := os.Remove(photo.FilePath); err != nil && !os.IsNotExist(err) {
		log.Errorf("remove photo blob %s: %v", photo.FilePath, err)
	}
	return nil
}
