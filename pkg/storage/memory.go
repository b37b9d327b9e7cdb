package storage

import (
	"encoding/json"
	"sync"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

// MemoryAdapter is an in-process Adapter used by tests and as a scratch
// backend. Collections are deep-copied on the way in and out.
type MemoryAdapter struct {
	mu       sync.Mutex
	mcps     []*mcp.Record
	profiles []*mcp.Profile
	settings *mcp.Settings
	backups  []*mcp.Backup
}

// NewMemoryAdapter creates an empty in-memory backend
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{}
}

func (a *MemoryAdapter) GetMCPs() ([]*mcp.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return mcp.CloneRecords(a.mcps), nil
}

func (a *MemoryAdapter) SaveMCPs(records []*mcp.Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mcps = mcp.CloneRecords(records)
	return nil
}

func (a *MemoryAdapter) GetProfiles() ([]*mcp.Profile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return mcp.CloneProfiles(a.profiles), nil
}

func (a *MemoryAdapter) SaveProfiles(profiles []*mcp.Profile) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.profiles = mcp.CloneProfiles(profiles)
	return nil
}

func (a *MemoryAdapter) GetSettings() (*mcp.Settings, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.settings == nil {
		return nil, nil
	}
	return a.settings.Clone(), nil
}

func (a *MemoryAdapter) SaveSettings(settings *mcp.Settings) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settings = settings.Clone()
	return nil
}

func (a *MemoryAdapter) GetBackups() ([]*mcp.Backup, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return cloneBackups(a.backups), nil
}

func (a *MemoryAdapter) SaveBackups(backups []*mcp.Backup) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.backups = cloneBackups(backups)
	return nil
}

func (a *MemoryAdapter) ClearAll() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mcps = nil
	a.profiles = nil
	a.settings = nil
	a.backups = nil
	return nil
}

func (a *MemoryAdapter) Info() (Info, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var used int64
	for _, v := range []any{a.mcps, a.profiles, a.settings, a.backups} {
		if data, err := json.Marshal(v); err == nil {
			used += int64(len(data))
		}
	}
	return Info{Used: used, Available: -1}, nil
}

func (a *MemoryAdapter) Close() error {
	return nil
}

func cloneBackups(backups []*mcp.Backup) []*mcp.Backup {
	out := make([]*mcp.Backup, len(backups))
	for i, b := range backups {
		c := *b
		c.Data = mcp.BackupData{
			MCPs:     mcp.CloneRecords(b.Data.MCPs),
			Profiles: mcp.CloneProfiles(b.Data.Profiles),
		}
		if b.Data.Settings != nil {
			c.Data.Settings = b.Data.Settings.Clone()
		}
		out[i] = &c
	}
	return out
}
