package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

// ProfileUpdate is a partial update for a profile. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	MCPIDs      []string `json:"mcpIds,omitempty"`
	IsDefault   *bool    `json:"isDefault,omitempty"`
}

func newProfile(name, description string, mcpIDs []string) *mcp.Profile {
	now := time.Now()
	return &mcp.Profile{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		MCPIDs:      append([]string(nil), mcpIDs...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// CreateProfile creates a named profile over the given MCP ids. The
// ids are not checked against the collection; stale references are
// tolerated by design.
func (s *Store) CreateProfile(name, description string, mcpIDs []string) (*mcp.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name == "" {
		return nil, s.fail(fmt.Errorf("store: profile name is required"))
	}

	p := newProfile(name, description, mcpIDs)
	next := append(mcp.CloneProfiles(s.profiles), p)
	if err := s.storage.SaveProfiles(next); err != nil {
		return nil, s.fail(fmt.Errorf("save profiles: %w", err))
	}
	s.profiles = next
	return p.Clone(), nil
}

// UpdateProfile merges a partial update into the profile with the
// given id and refreshes its updatedAt stamp.
func (s *Store) UpdateProfile(id string, upd ProfileUpdate) (*mcp.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := mcp.CloneProfiles(s.profiles)
	var target *mcp.Profile
	for _, p := range next {
		if p.ID == id {
			target = p
			break
		}
	}
	if target == nil {
		return nil, s.fail(fmt.Errorf("%w: %s", ErrProfileNotFound, id))
	}

	if upd.Name != nil {
		target.Name = *upd.Name
	}
	if upd.Description != nil {
		target.Description = *upd.Description
	}
	if upd.MCPIDs != nil {
		target.MCPIDs = append([]string(nil), upd.MCPIDs...)
	}
	if upd.IsDefault != nil {
		target.IsDefault = *upd.IsDefault
	}
	target.UpdatedAt = time.Now()

	if err := s.storage.SaveProfiles(next); err != nil {
		return nil, s.fail(fmt.Errorf("save profiles: %w", err))
	}
	s.profiles = next

	if s.active != nil && s.active.ID == id {
		s.active = target.Clone()
	}
	return target.Clone(), nil
}

// DeleteProfile removes a profile. If it was active, the store drops
// back to "all MCPs" mode.
func (s *Store) DeleteProfile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findProfile(id) == nil {
		return s.fail(fmt.Errorf("%w: %s", ErrProfileNotFound, id))
	}

	var next []*mcp.Profile
	for _, p := range s.profiles {
		if p.ID != id {
			next = append(next, p.Clone())
		}
	}
	if err := s.storage.SaveProfiles(next); err != nil {
		return s.fail(fmt.Errorf("save profiles: %w", err))
	}
	s.profiles = next

	if s.active != nil && s.active.ID == id {
		s.active = nil
	}
	return nil
}

// LoadProfile applies a profile: every record in the collection is
// enabled iff the profile references it. This is a total reassignment,
// not an additive merge. Loading an unknown profile is a silent no-op.
func (s *Store) LoadProfile(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProfile(id)
	if p == nil {
		return nil
	}

	member := make(map[string]bool, len(p.MCPIDs))
	for _, pid := range p.MCPIDs {
		member[pid] = true
	}

	next := mcp.CloneRecords(s.mcps)
	for _, r := range next {
		r.Disabled = !member[r.ID]
	}
	if err := s.storage.SaveMCPs(next); err != nil {
		return s.fail(fmt.Errorf("save mcps: %w", err))
	}

	s.mcps = next
	s.active = p.Clone()
	return nil
}

// SetActiveProfile moves the active-profile pointer without touching
// any record's enabled state. An empty id switches to "all MCPs" mode.
func (s *Store) SetActiveProfile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.active = nil
		return
	}
	if p := s.findProfile(id); p != nil {
		s.active = p.Clone()
	}
}

// HasUnsavedProfileChanges reports whether the set of enabled records
// differs from the active profile's membership. Order is ignored.
func (s *Store) HasUnsavedProfileChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return false
	}

	enabled := s.enabledIDs()
	want := append([]string(nil), s.active.MCPIDs...)
	sort.Strings(enabled)
	sort.Strings(want)

	if len(enabled) != len(want) {
		return true
	}
	for i := range enabled {
		if enabled[i] != want[i] {
			return true
		}
	}
	return false
}

// SaveCurrentStateToProfile overwrites the active profile's membership
// with the currently-enabled records.
func (s *Store) SaveCurrentStateToProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return s.fail(ErrNoActiveProfile)
	}

	next := mcp.CloneProfiles(s.profiles)
	var target *mcp.Profile
	for _, p := range next {
		if p.ID == s.active.ID {
			target = p
			break
		}
	}
	if target == nil {
		return s.fail(fmt.Errorf("%w: %s", ErrProfileNotFound, s.active.ID))
	}

	target.MCPIDs = s.enabledIDs()
	target.UpdatedAt = time.Now()

	if err := s.storage.SaveProfiles(next); err != nil {
		return s.fail(fmt.Errorf("save profiles: %w", err))
	}
	s.profiles = next
	s.active = target.Clone()
	return nil
}

// enabledIDs returns the ids of enabled records in collection order
func (s *Store) enabledIDs() []string {
	var ids []string
	for _, r := range s.mcps {
		if !r.Disabled {
			ids = append(ids, r.ID)
		}
	}
	return ids
}
