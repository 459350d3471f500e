package cli

import (
	"fmt"

	"github.com/guardpost/fieldsync/internal/db"
	"github.com/guardpost/fieldsync/internal/models"
)

// phoneFlag identifies the acting user on every data command.
var phoneFlag string

// resolveUser maps the --phone flag to a user row, creating it on first
// use.
func resolveUser(store *db.DB) (*models.User, error) {
	if phoneFlag == "" {
		return nil, fmt.Errorf("--phone is required")
	}
	return store.EnsureUser(phoneFlag)
}
