// Package store holds the in-memory model for MCP records, profiles,
// and settings, and enforces the consistency rules between them. It is
// the single writer: every mutating operation serializes on one lock,
// computes the next collection value, persists it, and only then makes
// the change visible in memory.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/mcpdepot/mcpdepot/pkg/dedupe"
	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/storage"
)

var (
	// ErrNotFound is returned when operating on an unknown MCP id
	ErrNotFound = errors.New("store: mcp not found")
	// ErrProfileNotFound is returned when operating on an unknown profile id
	ErrProfileNotFound = errors.New("store: profile not found")
	// ErrNoActiveProfile is returned by operations that need an active profile
	ErrNoActiveProfile = errors.New("store: no active profile")
)

// Filter narrows the record listing for display purposes
type Filter struct {
	Search   string
	Category string
}

// Store owns the MCP collections. Create one per process and share it;
// all mutations are serialized internally.
type Store struct {
	mu       sync.Mutex
	storage  *storage.Manager
	detector *dedupe.Detector
	logger   *slog.Logger

	mcps      []*mcp.Record
	profiles  []*mcp.Profile
	settings  *mcp.Settings
	active    *mcp.Profile
	selection map[string]bool
	filter    Filter
	lastErr   error
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the structured logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithDetector overrides the duplicate detector
func WithDetector(d *dedupe.Detector) Option {
	return func(s *Store) { s.detector = d }
}

// New creates a store backed by the given storage manager. Call Load
// before using it.
func New(manager *storage.Manager, opts ...Option) *Store {
	s := &Store{
		storage:   manager,
		detector:  dedupe.New(),
		logger:    slog.Default(),
		settings:  mcp.DefaultSettings(),
		selection: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load populates the store from storage. When records exist but no
// profile does, a default profile containing every record is created.
// The settings' default profile, if resolvable, becomes the initial
// active profile.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mcps, err := s.storage.GetMCPs()
	if err != nil {
		return s.fail(fmt.Errorf("load mcps: %w", err))
	}
	profiles, err := s.storage.GetProfiles()
	if err != nil {
		return s.fail(fmt.Errorf("load profiles: %w", err))
	}
	settings, err := s.storage.GetSettings()
	if err != nil {
		return s.fail(fmt.Errorf("load settings: %w", err))
	}
	if settings == nil {
		settings = mcp.DefaultSettings()
	}

	if len(profiles) == 0 && len(mcps) > 0 {
		ids := make([]string, len(mcps))
		for i, r := range mcps {
			ids[i] = r.ID
		}
		def := newProfile("Default", "All MCPs", ids)
		def.IsDefault = true

		if err := s.storage.SaveProfiles([]*mcp.Profile{def}); err != nil {
			return s.fail(fmt.Errorf("create default profile: %w", err))
		}
		profiles = []*mcp.Profile{def}
	}

	s.mcps = mcps
	s.profiles = profiles
	s.settings = settings
	s.active = nil
	s.selection = make(map[string]bool)

	if settings.DefaultProfile != "" {
		for _, p := range profiles {
			if p.ID == settings.DefaultProfile {
				s.active = p.Clone()
				break
			}
		}
	}
	return nil
}

// ReplaceMCPs swaps in an entire record collection, as posted by bulk
// API callers. Records are normalized and validated but keep the ids
// they carry.
func (s *Store) ReplaceMCPs(records []*mcp.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := mcp.CloneRecords(records)
	seen := make(map[string]bool, len(next))
	for _, r := range next {
		r.Normalize()
		if err := r.Validate(); err != nil {
			return s.fail(err)
		}
		// Names key the export map, so collisions would silently
		// collapse entries there.
		key := strings.ToLower(r.Name)
		if seen[key] {
			return s.fail(fmt.Errorf("%w: duplicate name %q", mcp.ErrInvalid, r.Name))
		}
		seen[key] = true
	}
	if err := s.storage.SaveMCPs(next); err != nil {
		return s.fail(fmt.Errorf("save mcps: %w", err))
	}
	s.mcps = next
	return nil
}

// ReplaceProfiles swaps in an entire profile collection
func (s *Store) ReplaceProfiles(profiles []*mcp.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := mcp.CloneProfiles(profiles)
	if err := s.storage.SaveProfiles(next); err != nil {
		return s.fail(fmt.Errorf("save profiles: %w", err))
	}
	s.profiles = next
	if s.active != nil {
		prev := s.active
		s.active = nil
		for _, p := range next {
			if p.ID == prev.ID {
				s.active = p.Clone()
				break
			}
		}
	}
	return nil
}

// SaveData persists every in-memory collection as-is
func (s *Store) SaveData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.SaveMCPs(s.mcps); err != nil {
		return s.fail(fmt.Errorf("save mcps: %w", err))
	}
	if err := s.storage.SaveProfiles(s.profiles); err != nil {
		return s.fail(fmt.Errorf("save profiles: %w", err))
	}
	if err := s.storage.SaveSettings(s.settings); err != nil {
		return s.fail(fmt.Errorf("save settings: %w", err))
	}
	return nil
}

// ClearAllData wipes storage and resets the in-memory model
func (s *Store) ClearAllData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.ClearAll(); err != nil {
		return s.fail(fmt.Errorf("clear storage: %w", err))
	}

	s.mcps = nil
	s.profiles = nil
	s.settings = mcp.DefaultSettings()
	s.active = nil
	s.selection = make(map[string]bool)
	return nil
}

// StorageInfo reports how much space the underlying storage uses
func (s *Store) StorageInfo() (storage.Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.storage.Info()
}

// MCPs returns a copy of the full record collection
func (s *Store) MCPs() []*mcp.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mcp.CloneRecords(s.mcps)
}

// GetMCP returns a copy of the record with the given id
func (s *Store) GetMCP(id string) (*mcp.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(id); i >= 0 {
		return s.mcps[i].Clone(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Profiles returns a copy of the profile collection
func (s *Store) Profiles() []*mcp.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mcp.CloneProfiles(s.profiles)
}

// GetProfile returns a copy of the profile with the given id
func (s *Store) GetProfile(id string) (*mcp.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.findProfile(id); p != nil {
		return p.Clone(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, id)
}

// Settings returns a copy of the current settings
func (s *Store) Settings() *mcp.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings.Clone()
}

// UpdateSettings persists and adopts new settings
func (s *Store) UpdateSettings(settings *mcp.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.SaveSettings(settings); err != nil {
		return s.fail(fmt.Errorf("save settings: %w", err))
	}
	s.settings = settings.Clone()
	return nil
}

// ActiveProfile returns a copy of the active profile, or nil in
// "all MCPs" mode.
func (s *Store) ActiveProfile() *mcp.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active.Clone()
}

// LastError returns the most recent operation error. Last error wins;
// this is a slot, not a queue.
func (s *Store) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError resets the error slot
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// SelectMCP adds a record to the bulk-selection set
func (s *Store) SelectMCP(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection[id] = true
}

// DeselectMCP removes a record from the bulk-selection set
func (s *Store) DeselectMCP(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.selection, id)
}

// ClearSelection empties the bulk-selection set
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = make(map[string]bool)
}

// SelectedIDs returns the bulk-selection set, sorted for stable output
func (s *Store) SelectedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.selection))
	for id := range s.selection {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SetFilter sets the display filter
func (s *Store) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// FilteredMCPs returns copies of the records matching the current filter
func (s *Store) FilteredMCPs() []*mcp.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(s.filter)
}

// QueryMCPs returns copies of the records matching f, ignoring the
// store's own filter state.
func (s *Store) QueryMCPs(f Filter) []*mcp.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(f)
}

func (s *Store) queryLocked(f Filter) []*mcp.Record {
	search := strings.ToLower(f.Search)
	var out []*mcp.Record
	for _, r := range s.mcps {
		if f.Category != "" && r.Category != f.Category {
			continue
		}
		if search != "" && !matchesSearch(r, search) {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

func matchesSearch(r *mcp.Record, search string) bool {
	if strings.Contains(strings.ToLower(r.Name), search) ||
		strings.Contains(strings.ToLower(r.Description), search) {
		return true
	}
	for _, tag := range r.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

// fail records err in the error slot and returns it
func (s *Store) fail(err error) error {
	s.lastErr = err
	return err
}

func (s *Store) indexOf(id string) int {
	for i, r := range s.mcps {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) findProfile(id string) *mcp.Profile {
	for _, p := range s.profiles {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// autoBackup snapshots after a successful mutation when enabled. A
// failed backup does not undo the mutation; it lands in the error slot.
func (s *Store) autoBackup(label string) {
	if !s.settings.AutoBackup {
		return
	}
	if _, err := s.storage.CreateBackup(label); err != nil {
		s.logger.Warn("auto-backup failed", "label", label, "error", err)
		s.lastErr = fmt.Errorf("auto-backup: %w", err)
	}
}

func (s *Store) existingNames() []string {
	names := make([]string, len(s.mcps))
	for i, r := range s.mcps {
		names[i] = r.Name
	}
	return names
}
