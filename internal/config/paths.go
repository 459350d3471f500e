package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

// Paths contains commonly used file paths.
type Paths struct {
	Database string // Main SQLite database (client)
	ServerDB string // Backend store when running `fieldsync serve`
	Config   string // Config file
	Photos   string // Photo blob directory
	Logs     string // Log directory
}

// GetPaths returns all commonly used paths based on config.
func GetPaths(cfg *Config) Paths {
	return Paths{
		Database: filepath.Join(cfg.BaseDir, "fieldsync.db"),
		ServerDB: filepath.Join(cfg.BaseDir, "fieldsync-server.db"),
		Config:   filepath.Join(cfg.BaseDir, "config.yaml"),
		Photos:   filepath.Join(cfg.BaseDir, "photos"),
		Logs:     filepath.Join(cfg.BaseDir, "logs"),
	}
}

// DefaultBaseDir returns the default base directory, following the XDG
// data-home convention.
func DefaultBaseDir() string {
	return filepath.Join(xdg.DataHome, "fieldsync")
}
