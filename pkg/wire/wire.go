// Package wire converts between the internal MCP record shape and the
// external JSON dialects used for import and export.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcpdepot/mcpdepot/pkg/jsonutil"
	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

// ServersKey is the top-level key of the named-server-map dialect
const ServersKey = "mcpServers"

// ErrUnrecognized is returned when a document matches no known dialect
var ErrUnrecognized = errors.New("wire: unrecognized document format")

// ServerEntry is one value of a named-server-map document. Only the
// fields relevant to the entry's transport are emitted.
type ServerEntry struct {
	Command     string            `json:"command,omitempty"`
	Args        []string          `json:"args,omitempty"`
	URL         string            `json:"url,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	AlwaysAllow []string          `json:"alwaysAllow,omitempty"`
	Type        string            `json:"type,omitempty"`
	Disabled    bool              `json:"disabled,omitempty"`
}

// directEntry is the direct single-record dialect: url/command/name at
// the document's top level.
type directEntry struct {
	ServerEntry
	Name string `json:"name,omitempty"`
}

// Import parses a document in any recognized dialect into records. The
// returned records carry no ids; the store assigns those on add.
// Malformed entries inside a named-server-map are skipped and logged
// without aborting the rest of the batch.
func Import(data []byte) ([]*mcp.Record, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("wire: invalid JSON")
	}
	if records, ok := importNamedServerMap(data); ok {
		return records, nil
	}
	if record, ok := importDirect(data); ok {
		return []*mcp.Record{record}, nil
	}
	return nil, ErrUnrecognized
}

func importNamedServerMap(data []byte) ([]*mcp.Record, bool) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	raw, ok := doc[ServersKey]
	if !ok {
		return nil, false
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}

	var records []*mcp.Record
	for name, rawEntry := range entries {
		var entry ServerEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			slog.Warn("skipping malformed server entry", "name", name, "error", err)
			continue
		}
		records = append(records, entry.record(name))
	}
	return records, true
}

func importDirect(data []byte) (*mcp.Record, bool) {
	var entry directEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	if entry.URL == "" && entry.Command == "" && entry.Name == "" {
		return nil, false
	}

	name := entry.Name
	if name == "" {
		name = "imported-server"
	}
	return entry.ServerEntry.record(name), true
}

// record converts an entry to the internal shape, inferring transport:
// a URL means http (or sse when the type field says so), a command
// means stdio, neither defaults to stdio with an empty command.
func (e ServerEntry) record(name string) *mcp.Record {
	r := &mcp.Record{
		Name:        name,
		Env:         e.Env,
		AlwaysAllow: e.AlwaysAllow,
		Disabled:    e.Disabled,
		Source:      mcp.SourceImport,
	}

	switch {
	case e.URL != "":
		r.Transport = mcp.TransportHTTP
		if e.Type == string(mcp.TransportSSE) {
			r.Transport = mcp.TransportSSE
		}
		r.Remote = &mcp.RemoteConfig{URL: e.URL, Headers: e.Headers}
	default:
		r.Transport = mcp.TransportStdio
		r.Stdio = &mcp.StdioConfig{Command: e.Command, Args: e.Args}
	}
	return r
}

// Export produces a named-server-map document for the given records.
// Defaults are omitted: http is never emitted as a type, and disabled
// is emitted only by the claude format variant.
func Export(records []*mcp.Record, format mcp.ExportFormat) ([]byte, error) {
	servers := make(map[string]ServerEntry, len(records))
	for _, r := range records {
		servers[r.Name] = entry(r, format)
	}

	doc := map[string]map[string]ServerEntry{ServersKey: servers}
	data, err := jsonutil.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("wire: encode export: %w", err)
	}
	return data, nil
}

func entry(r *mcp.Record, format mcp.ExportFormat) ServerEntry {
	var e ServerEntry

	if r.Transport.Remote() {
		e.URL = r.URL()
		if r.Remote != nil && len(r.Remote.Headers) > 0 {
			e.Headers = r.Remote.Headers
		}
		if r.Transport == mcp.TransportSSE {
			e.Type = string(mcp.TransportSSE)
		}
	} else {
		e.Command = r.Command()
		if len(r.Args()) > 0 {
			e.Args = r.Args()
		}
	}

	if len(r.Env) > 0 {
		e.Env = r.Env
	}
	if len(r.AlwaysAllow) > 0 {
		e.AlwaysAllow = r.AlwaysAllow
	}
	if format == mcp.FormatClaude && r.Disabled {
		e.Disabled = true
	}
	return e
}

// ProfileMeta is the profile section of a profile export document
type ProfileMeta struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
}

// ProfileDocument packages a profile with its member records
type ProfileDocument struct {
	Profile *ProfileMeta  `json:"profile,omitempty"`
	MCPs    []*mcp.Record `json:"mcps,omitempty"`
}

// ExportProfile packages a profile and its member records as one document
func ExportProfile(p *mcp.Profile, members []*mcp.Record) ([]byte, error) {
	doc := ProfileDocument{
		Profile: &ProfileMeta{
			Name:        p.Name,
			Description: p.Description,
			CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
		MCPs: members,
	}
	data, err := jsonutil.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("wire: encode profile export: %w", err)
	}
	return data, nil
}

// ParseProfileDocument parses a profile export document. A document
// with neither a profile nor an mcps section is rejected.
func ParseProfileDocument(data []byte) (*ProfileDocument, error) {
	var doc ProfileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("wire: parse profile document: %w", err)
	}
	if doc.Profile == nil && len(doc.MCPs) == 0 {
		return nil, fmt.Errorf("wire: document has neither a profile nor an mcps section")
	}
	return &doc, nil
}
