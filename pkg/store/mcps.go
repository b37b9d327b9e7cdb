package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

// RecordUpdate is a partial update for an MCP record. Nil fields are
// left untouched.
type RecordUpdate struct {
	Name        *string           `json:"name,omitempty"`
	Transport   *mcp.Transport    `json:"transportType,omitempty"`
	Stdio       *mcp.StdioConfig  `json:"stdio,omitempty"`
	Remote      *mcp.RemoteConfig `json:"remote,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	AlwaysAllow []string          `json:"alwaysAllow,omitempty"`
	Category    *string           `json:"category,omitempty"`
	Description *string           `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Disabled    *bool             `json:"disabled,omitempty"`
}

// AddMCP inserts a new record. Duplicates are never rejected: when the
// detector classifies the candidate as a duplicate of an existing
// record, it is inserted under a generated unique name instead.
func (s *Store) AddMCP(data *mcp.Record) (*mcp.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.addLocked(data, s.mcps)
	if err != nil {
		return nil, s.fail(err)
	}

	next := append(mcp.CloneRecords(s.mcps), rec)
	if err := s.storage.SaveMCPs(next); err != nil {
		return nil, s.fail(fmt.Errorf("save mcps: %w", err))
	}
	s.mcps = next

	s.autoBackup(fmt.Sprintf("Added MCP %q", rec.Name))
	return rec.Clone(), nil
}

// addLocked validates and prepares a record for insertion without
// persisting, running duplicate detection against existing. The caller
// holds the lock and owns persistence.
func (s *Store) addLocked(data *mcp.Record, existing []*mcp.Record) (*mcp.Record, error) {
	rec := data.Clone()
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	if result := s.detector.Check(rec, existing); result.IsDuplicate {
		s.logger.Info("duplicate detected, renaming",
			"name", rec.Name, "suggested", result.SuggestedName,
			"reason", result.Matches[0].Reason)
		rec.Name = result.SuggestedName
	}

	rec.ID = uuid.NewString()
	rec.UsageCount = 0
	rec.LastUsed = time.Now()
	if rec.Source == "" {
		rec.Source = mcp.SourceManual
	}
	return rec, nil
}

// UpdateMCP merges a partial update into the record with the given id.
// Unknown ids are an error.
func (s *Store) UpdateMCP(id string, upd RecordUpdate) (*mcp.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, s.fail(fmt.Errorf("%w: %s", ErrNotFound, id))
	}

	rec := s.mcps[i].Clone()
	applyUpdate(rec, upd)
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return nil, s.fail(err)
	}

	next := mcp.CloneRecords(s.mcps)
	next[i] = rec
	if err := s.storage.SaveMCPs(next); err != nil {
		return nil, s.fail(fmt.Errorf("save mcps: %w", err))
	}
	s.mcps = next
	return rec.Clone(), nil
}

func applyUpdate(rec *mcp.Record, upd RecordUpdate) {
	if upd.Name != nil {
		rec.Name = *upd.Name
	}
	if upd.Transport != nil {
		rec.Transport = *upd.Transport
	}
	if upd.Stdio != nil {
		sc := *upd.Stdio
		sc.Args = append([]string(nil), upd.Stdio.Args...)
		rec.Stdio = &sc
	}
	if upd.Remote != nil {
		rc := *upd.Remote
		rec.Remote = &rc
	}
	if upd.Env != nil {
		rec.Env = upd.Env
	}
	if upd.AlwaysAllow != nil {
		rec.AlwaysAllow = upd.AlwaysAllow
	}
	if upd.Category != nil {
		rec.Category = *upd.Category
	}
	if upd.Description != nil {
		rec.Description = *upd.Description
	}
	if upd.Tags != nil {
		rec.Tags = upd.Tags
	}
	if upd.Disabled != nil {
		rec.Disabled = *upd.Disabled
	}
}

// DeleteMCP removes a record and cascades: the id is pruned from every
// profile referencing it, from the active-profile snapshot, and from
// the selection set.
func (s *Store) DeleteMCP(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return s.fail(fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	if err := s.deleteLocked(map[string]bool{id: true}); err != nil {
		return s.fail(err)
	}

	s.autoBackup("Deleted MCP")
	return nil
}

// BulkDeleteMCPs removes several records in one persisted write. Ids
// not present in the collection are skipped. Each affected profile is
// rewritten once, not once per deleted id.
func (s *Store) BulkDeleteMCPs(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		if s.indexOf(id) >= 0 {
			doomed[id] = true
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	if err := s.deleteLocked(doomed); err != nil {
		return s.fail(err)
	}

	s.autoBackup(fmt.Sprintf("Deleted %d MCPs", len(doomed)))
	return nil
}

func (s *Store) deleteLocked(doomed map[string]bool) error {
	var nextMCPs []*mcp.Record
	for _, r := range s.mcps {
		if !doomed[r.ID] {
			nextMCPs = append(nextMCPs, r.Clone())
		}
	}

	now := time.Now()
	nextProfiles := make([]*mcp.Profile, len(s.profiles))
	touched := false
	for i, p := range s.profiles {
		c := p.Clone()
		var kept []string
		for _, pid := range c.MCPIDs {
			if !doomed[pid] {
				kept = append(kept, pid)
			}
		}
		if len(kept) != len(c.MCPIDs) {
			c.MCPIDs = kept
			c.UpdatedAt = now
			touched = true
		}
		nextProfiles[i] = c
	}

	if err := s.storage.SaveMCPs(nextMCPs); err != nil {
		return fmt.Errorf("save mcps: %w", err)
	}
	if touched {
		if err := s.storage.SaveProfiles(nextProfiles); err != nil {
			return fmt.Errorf("save profiles: %w", err)
		}
	}

	s.mcps = nextMCPs
	s.profiles = nextProfiles

	if s.active != nil {
		for _, p := range nextProfiles {
			if p.ID == s.active.ID {
				s.active = p.Clone()
			}
		}
	}
	for id := range doomed {
		delete(s.selection, id)
	}
	return nil
}

// ToggleMCP flips a record's disabled flag
func (s *Store) ToggleMCP(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return s.fail(fmt.Errorf("%w: %s", ErrNotFound, id))
	}

	next := mcp.CloneRecords(s.mcps)
	next[i].Disabled = !next[i].Disabled
	if err := s.storage.SaveMCPs(next); err != nil {
		return s.fail(fmt.Errorf("save mcps: %w", err))
	}
	s.mcps = next
	return nil
}

// BulkToggleMCPs sets the enabled state of several records in one
// persisted write.
func (s *Store) BulkToggleMCPs(ids []string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	next := mcp.CloneRecords(s.mcps)
	for _, r := range next {
		if want[r.ID] {
			r.Disabled = !enabled
		}
	}
	if err := s.storage.SaveMCPs(next); err != nil {
		return s.fail(fmt.Errorf("save mcps: %w", err))
	}
	s.mcps = next

	verb := "Disabled"
	if enabled {
		verb = "Enabled"
	}
	s.autoBackup(fmt.Sprintf("%s %d MCPs", verb, len(ids)))
	return nil
}

// EnableAllMCPs enables every record regardless of profile membership
func (s *Store) EnableAllMCPs() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := mcp.CloneRecords(s.mcps)
	for _, r := range next {
		r.Disabled = false
	}
	if err := s.storage.SaveMCPs(next); err != nil {
		return s.fail(fmt.Errorf("save mcps: %w", err))
	}
	s.mcps = next
	return nil
}

// DuplicateMCP clones a record under a generated unique name with a
// "duplicate" tag and inserts it through the regular add path.
func (s *Store) DuplicateMCP(id string) (*mcp.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, s.fail(fmt.Errorf("%w: %s", ErrNotFound, id))
	}

	clone := s.mcps[i].Clone()
	clone.Tags = appendUnique(clone.Tags, "duplicate")

	rec, err := s.addLocked(clone, s.mcps)
	if err != nil {
		return nil, s.fail(err)
	}

	next := append(mcp.CloneRecords(s.mcps), rec)
	if err := s.storage.SaveMCPs(next); err != nil {
		return nil, s.fail(fmt.Errorf("save mcps: %w", err))
	}
	s.mcps = next

	s.autoBackup(fmt.Sprintf("Duplicated MCP %q", rec.Name))
	return rec.Clone(), nil
}

// MarkUsed bumps a record's usage counter and last-used timestamp
func (s *Store) MarkUsed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return s.fail(fmt.Errorf("%w: %s", ErrNotFound, id))
	}

	next := mcp.CloneRecords(s.mcps)
	next[i].UsageCount++
	next[i].LastUsed = time.Now()
	if err := s.storage.SaveMCPs(next); err != nil {
		return s.fail(fmt.Errorf("save mcps: %w", err))
	}
	s.mcps = next
	return nil
}

func appendUnique(list []string, item string) []string {
	for _, s := range list {
		if s == item {
			return list
		}
	}
	return append(list, item)
}
