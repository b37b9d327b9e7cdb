package storage

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mcpdepot/mcpdepot/pkg/fieldcrypt"
	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

// DefaultRetention is the number of backups kept before the oldest is
// evicted on insert.
const DefaultRetention = 10

// Manager wraps an Adapter with transparent env-field encryption and
// backup lifecycle management.
type Manager struct {
	adapter   Adapter
	cryptor   *fieldcrypt.Cryptor
	retention int
	logger    *slog.Logger
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithRetention overrides the backup retention cap
func WithRetention(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.retention = n
		}
	}
}

// WithLogger sets the structured logger used for degraded-decrypt warnings
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a storage manager. A nil cryptor disables
// encryption entirely.
func NewManager(adapter Adapter, cryptor *fieldcrypt.Cryptor, opts ...ManagerOption) *Manager {
	if cryptor == nil {
		cryptor = fieldcrypt.New("")
	}
	m := &Manager{
		adapter:   adapter,
		cryptor:   cryptor,
		retention: DefaultRetention,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetMCPs loads the record collection, decrypting sensitive env values.
// A value that fails to decrypt is logged and used as stored.
func (m *Manager) GetMCPs() ([]*mcp.Record, error) {
	records, err := m.adapter.GetMCPs()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		m.decryptEnv(r)
	}
	return records, nil
}

// SaveMCPs persists the record collection, encrypting sensitive env
// values. The caller's records are not modified.
func (m *Manager) SaveMCPs(records []*mcp.Record) error {
	stored := mcp.CloneRecords(records)
	for _, r := range stored {
		if err := m.encryptEnv(r); err != nil {
			return err
		}
	}
	return m.adapter.SaveMCPs(stored)
}

func (m *Manager) GetProfiles() ([]*mcp.Profile, error) {
	return m.adapter.GetProfiles()
}

func (m *Manager) SaveProfiles(profiles []*mcp.Profile) error {
	return m.adapter.SaveProfiles(profiles)
}

func (m *Manager) GetSettings() (*mcp.Settings, error) {
	return m.adapter.GetSettings()
}

func (m *Manager) SaveSettings(settings *mcp.Settings) error {
	return m.adapter.SaveSettings(settings)
}

func (m *Manager) GetBackups() ([]*mcp.Backup, error) {
	return m.adapter.GetBackups()
}

// CreateBackup snapshots the stored collections as-is (encrypted values
// stay encrypted) and appends the snapshot, evicting the oldest beyond
// the retention cap.
func (m *Manager) CreateBackup(description string) (*mcp.Backup, error) {
	mcps, err := m.adapter.GetMCPs()
	if err != nil {
		return nil, fmt.Errorf("storage: snapshot mcps: %w", err)
	}
	profiles, err := m.adapter.GetProfiles()
	if err != nil {
		return nil, fmt.Errorf("storage: snapshot profiles: %w", err)
	}
	settings, err := m.adapter.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("storage: snapshot settings: %w", err)
	}

	backup := &mcp.Backup{
		ID:          uuid.NewString(),
		Timestamp:   time.Now(),
		Description: description,
		Data: mcp.BackupData{
			MCPs:     mcps,
			Profiles: profiles,
			Settings: settings,
		},
	}

	backups, err := m.adapter.GetBackups()
	if err != nil {
		return nil, err
	}
	backups = append(backups, backup)

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].Timestamp.Before(backups[j].Timestamp)
	})
	if len(backups) > m.retention {
		backups = backups[len(backups)-m.retention:]
	}

	if err := m.adapter.SaveBackups(backups); err != nil {
		return nil, err
	}
	return backup, nil
}

// RestoreFromBackup replaces the stored collections with the snapshot.
// Snapshot data is written back raw; values encrypted at snapshot time
// remain encrypted.
func (m *Manager) RestoreFromBackup(id string) error {
	backups, err := m.adapter.GetBackups()
	if err != nil {
		return err
	}

	for _, b := range backups {
		if b.ID != id {
			continue
		}
		if err := m.adapter.SaveMCPs(b.Data.MCPs); err != nil {
			return fmt.Errorf("storage: restore mcps: %w", err)
		}
		if err := m.adapter.SaveProfiles(b.Data.Profiles); err != nil {
			return fmt.Errorf("storage: restore profiles: %w", err)
		}
		if b.Data.Settings != nil {
			if err := m.adapter.SaveSettings(b.Data.Settings); err != nil {
				return fmt.Errorf("storage: restore settings: %w", err)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
}

// ClearAll wipes every stored collection
func (m *Manager) ClearAll() error {
	return m.adapter.ClearAll()
}

// Info reports backend space usage
func (m *Manager) Info() (Info, error) {
	return m.adapter.Info()
}

// Close releases the underlying backend
func (m *Manager) Close() error {
	return m.adapter.Close()
}

func (m *Manager) encryptEnv(r *mcp.Record) error {
	if !m.cryptor.Enabled() || len(r.Env) == 0 {
		return nil
	}
	for k, v := range r.Env {
		if !fieldcrypt.SensitiveKey(k) {
			continue
		}
		sealed, err := m.cryptor.Encrypt(v)
		if err != nil {
			return fmt.Errorf("storage: encrypt env %s of %s: %w", k, r.Name, err)
		}
		r.Env[k] = sealed
	}
	return nil
}

func (m *Manager) decryptEnv(r *mcp.Record) {
	if !m.cryptor.Enabled() || len(r.Env) == 0 {
		return
	}
	for k, v := range r.Env {
		if !fieldcrypt.SensitiveKey(k) {
			continue
		}
		opened, err := m.cryptor.Decrypt(v)
		if err != nil {
			// Wrong passphrase or a value stored before encryption was
			// enabled. Keep the stored value and move on.
			m.logger.Warn("using stored value after decrypt failure",
				"record", r.Name, "key", k, "error", err)
			continue
		}
		r.Env[k] = opened
	}
}
