// Package storage persists the MCP collections through a pluggable
// key-value backend and layers field-level encryption and backup
// management on top of it.
package storage

import (
	"errors"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

// ErrBackupNotFound is returned when restoring an unknown backup id
var ErrBackupNotFound = errors.New("storage: backup not found")

// Info describes backend space usage in bytes. Available is -1 when
// the backend cannot report free space.
type Info struct {
	Used      int64 `json:"used"`
	Available int64 `json:"available"`
}

// Adapter is the persistence backend: raw get/set of whole collections
// keyed by logical name. Implementations store exactly what they are
// given; encryption and retention live in the Manager.
type Adapter interface {
	GetMCPs() ([]*mcp.Record, error)
	SaveMCPs(records []*mcp.Record) error
	GetProfiles() ([]*mcp.Profile, error)
	SaveProfiles(profiles []*mcp.Profile) error
	GetSettings() (*mcp.Settings, error)
	SaveSettings(settings *mcp.Settings) error
	GetBackups() ([]*mcp.Backup, error)
	SaveBackups(backups []*mcp.Backup) error
	ClearAll() error
	Info() (Info, error)
	Close() error
}
