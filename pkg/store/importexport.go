package store

import (
	"fmt"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/wire"
)

// ExportMCPs converts records to the named-server-map dialect. With no
// ids given, all currently-enabled records are exported. An empty
// format falls back to the settings' export format.
func (s *Store) ExportMCPs(ids []string, format mcp.ExportFormat) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if format == "" {
		format = s.settings.ExportFormat
	}
	if format == "" {
		format = mcp.FormatDefault
	}

	var records []*mcp.Record
	if len(ids) > 0 {
		for _, id := range ids {
			if i := s.indexOf(id); i >= 0 {
				records = append(records, s.mcps[i])
			}
		}
	} else {
		for _, r := range s.mcps {
			if !r.Disabled {
				records = append(records, r)
			}
		}
	}

	data, err := wire.Export(records, format)
	if err != nil {
		return nil, s.fail(err)
	}
	return data, nil
}

// ImportMCPs parses a document in any recognized dialect and inserts
// every record through the duplicate-detecting add path, persisting
// the collection once. It returns the inserted records.
func (s *Store) ImportMCPs(data []byte) ([]*mcp.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parsed, err := wire.Import(data)
	if err != nil {
		return nil, s.fail(err)
	}

	added, err := s.importLocked(parsed)
	if err != nil {
		return nil, s.fail(err)
	}

	s.autoBackup(fmt.Sprintf("Imported %d MCPs", len(added)))

	out := make([]*mcp.Record, len(added))
	for i, r := range added {
		out[i] = r.Clone()
	}
	return out, nil
}

// importLocked adds records one by one so each sees the previously
// added ones during duplicate detection, then persists once.
func (s *Store) importLocked(parsed []*mcp.Record) ([]*mcp.Record, error) {
	next := mcp.CloneRecords(s.mcps)
	var added []*mcp.Record

	for _, candidate := range parsed {
		rec, err := s.addLocked(candidate, next)
		if err != nil {
			// One bad entry does not abort the batch
			s.logger.Warn("skipping record during import", "name", candidate.Name, "error", err)
			continue
		}
		next = append(next, rec)
		added = append(added, rec)
	}

	if len(added) == 0 {
		return nil, fmt.Errorf("store: no importable records in document")
	}
	if err := s.storage.SaveMCPs(next); err != nil {
		return nil, fmt.Errorf("save mcps: %w", err)
	}
	s.mcps = next
	return added, nil
}

// ExportProfile packages a profile and its member records as one
// document. Stale member ids are skipped.
func (s *Store) ExportProfile(id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProfile(id)
	if p == nil {
		return nil, s.fail(fmt.Errorf("%w: %s", ErrProfileNotFound, id))
	}

	var members []*mcp.Record
	for _, pid := range p.MCPIDs {
		if i := s.indexOf(pid); i >= 0 {
			members = append(members, s.mcps[i])
		}
	}

	data, err := wire.ExportProfile(p, members)
	if err != nil {
		return nil, s.fail(err)
	}
	return data, nil
}

// ImportProfile unpacks a profile export document: member records are
// inserted through the add path and a new profile referencing the new
// ids is created.
func (s *Store) ImportProfile(data []byte) (*mcp.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := wire.ParseProfileDocument(data)
	if err != nil {
		return nil, s.fail(err)
	}

	var added []*mcp.Record
	if len(doc.MCPs) > 0 {
		added, err = s.importLocked(doc.MCPs)
		if err != nil {
			return nil, s.fail(err)
		}
	}

	name := "Imported Profile"
	description := ""
	if doc.Profile != nil {
		if doc.Profile.Name != "" {
			name = doc.Profile.Name
		}
		description = doc.Profile.Description
	}

	ids := make([]string, len(added))
	for i, r := range added {
		ids[i] = r.ID
	}

	p := newProfile(name, description, ids)
	nextProfiles := append(mcp.CloneProfiles(s.profiles), p)
	if err := s.storage.SaveProfiles(nextProfiles); err != nil {
		return nil, s.fail(fmt.Errorf("save profiles: %w", err))
	}
	s.profiles = nextProfiles

	s.autoBackup(fmt.Sprintf("Imported profile %q", p.Name))
	return p.Clone(), nil
}
