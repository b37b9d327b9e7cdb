package store

import (
	"fmt"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

// Backups lists the stored snapshots
func (s *Store) Backups() ([]*mcp.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backups, err := s.storage.GetBackups()
	if err != nil {
		return nil, s.fail(fmt.Errorf("load backups: %w", err))
	}
	return backups, nil
}

// CreateBackup takes an explicit snapshot
func (s *Store) CreateBackup(description string) (*mcp.Backup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backup, err := s.storage.CreateBackup(description)
	if err != nil {
		return nil, s.fail(fmt.Errorf("create backup: %w", err))
	}
	return backup, nil
}

// RestoreBackup replaces the stored collections with a snapshot and
// reloads the in-memory model from them. The active-profile pointer is
// cleared; restored settings decide the next default.
func (s *Store) RestoreBackup(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.RestoreFromBackup(id); err != nil {
		return s.fail(err)
	}

	mcps, err := s.storage.GetMCPs()
	if err != nil {
		return s.fail(fmt.Errorf("reload mcps: %w", err))
	}
	profiles, err := s.storage.GetProfiles()
	if err != nil {
		return s.fail(fmt.Errorf("reload profiles: %w", err))
	}
	settings, err := s.storage.GetSettings()
	if err != nil {
		return s.fail(fmt.Errorf("reload settings: %w", err))
	}
	if settings == nil {
		settings = mcp.DefaultSettings()
	}

	s.mcps = mcps
	s.profiles = profiles
	s.settings = settings
	s.active = nil
	s.selection = make(map[string]bool)
	return nil
}
