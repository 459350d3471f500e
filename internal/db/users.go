package db

import (
	"errors"

	"gorm.io/gorm"

	"github.com/guardpost/fieldsync/internal/errs"
	"github.com/guardpost/fieldsync/internal/models"
)

// SaveUser inserts the user when its ID is zero, updates it otherwise.
func (db *DB) SaveUser(user *models.User) error {
	if err := db.Save(user).Error; err != nil {
		return errs.Storage("save user", err)
	}
	return nil
}

// GetUser retrieves a user by ID. Returns nil when not found.
func (db *DB) GetUser(id uint) (*models.User, error) {
	var user models.User
	err := db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get user", err)
	}
	return &user, nil
}

// GetUserByPhone retrieves a user by phone number. Returns nil when not
// found.
func (db *DB) GetUserByPhone(phone string) (*models.User, error) {
	var user models.User
	err := db.First(&user, "phone_number = ?", phone).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errs.Storage("get user by phone", err)
	}
	return &user, nil
}

// EnsureUser returns the user with the given phone number, creating an
// active one if none exists yet. Safe to call repeatedly.
func (db *DB) EnsureUser(phone string) (*models.User, error) {
	user := models.User{PhoneNumber: phone, IsActive: true}
	err := db.Where("phone_number = ?", phone).FirstOrCreate(&user).Error
	if err != nil {
		return nil, errs.Storage("ensure user", err)
	}
	return &user, nil
}

// SetUserActive updates only the IsActive flag; all other user fields
// are immutable after creation.
func (db *DB) SetUserActive(id uint, active bool) (int64, error) {
	res := db.Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return 0, errs.Storage("set user active", res.Error)
	}
	return res.RowsAffected, nil
}
