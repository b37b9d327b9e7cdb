package wire

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

func TestImportNamedServerMap(t *testing.T) {
	doc := `{
		"mcpServers": {
			"filesystem": {"command": "npx", "args": ["-y", "server-filesystem"]},
			"vercel": {"url": "https://mcp.vercel.com"},
			"events": {"url": "https://events.example.com", "type": "sse"},
			"bare": {}
		}
	}`

	records, err := Import([]byte(doc))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}

	byName := make(map[string]*mcp.Record)
	for _, r := range records {
		byName[r.Name] = r
		if r.Source != mcp.SourceImport {
			t.Errorf("%s: expected import source, got %q", r.Name, r.Source)
		}
	}

	fs := byName["filesystem"]
	if fs.Transport != mcp.TransportStdio || fs.Command() != "npx" || len(fs.Args()) != 2 {
		t.Errorf("filesystem parsed wrong: %+v", fs)
	}
	if v := byName["vercel"]; v.Transport != mcp.TransportHTTP || v.URL() != "https://mcp.vercel.com" {
		t.Errorf("vercel parsed wrong: %+v", v)
	}
	if e := byName["events"]; e.Transport != mcp.TransportSSE {
		t.Errorf("explicit sse type ignored: %+v", e)
	}
	if b := byName["bare"]; b.Transport != mcp.TransportStdio || b.Command() != "" {
		t.Errorf("entry with neither url nor command must default to empty stdio: %+v", b)
	}
}

func TestImportDirect(t *testing.T) {
	records, err := Import([]byte(`{"name": "vercel", "url": "https://mcp.vercel.com"}`))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Name != "vercel" || records[0].Transport != mcp.TransportHTTP {
		t.Errorf("direct record parsed wrong: %+v", records[0])
	}
}

func TestImportUnrecognized(t *testing.T) {
	if _, err := Import([]byte(`{"something": "else"}`)); !errors.Is(err, ErrUnrecognized) {
		t.Errorf("expected ErrUnrecognized, got %v", err)
	}
	if _, err := Import([]byte(`not json at all`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestImportSkipsMalformedEntries(t *testing.T) {
	doc := `{"mcpServers": {"good": {"command": "npx"}, "bad": "just a string"}}`
	records, err := Import([]byte(doc))
	if err != nil {
		t.Fatalf("Import must not abort on per-entry failures: %v", err)
	}
	if len(records) != 1 || records[0].Name != "good" {
		t.Errorf("expected only the good entry, got %+v", records)
	}
}

// Export of a plain http record must emit exactly the url and nothing else
func TestExportHTTPScenario(t *testing.T) {
	records := []*mcp.Record{{
		Name:      "vercel",
		Transport: mcp.TransportHTTP,
		Remote:    &mcp.RemoteConfig{URL: "https://mcp.vercel.com"},
	}}

	data, err := Export(records, mcp.FormatDefault)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc map[string]map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}

	entry, ok := doc["mcpServers"]["vercel"]
	if !ok {
		t.Fatalf("missing vercel entry in %s", data)
	}
	if len(entry) != 1 || entry["url"] != "https://mcp.vercel.com" {
		t.Errorf("expected exactly {\"url\": ...}, got %v", entry)
	}
}

func TestExportMinimality(t *testing.T) {
	records := []*mcp.Record{
		{
			Name:      "fs",
			Transport: mcp.TransportStdio,
			Stdio:     &mcp.StdioConfig{Command: "npx", Args: []string{"-y", "pkg"}},
			Env:       map[string]string{"KEY": "v"},
			Disabled:  true,
		},
		{
			Name:      "events",
			Transport: mcp.TransportSSE,
			Remote:    &mcp.RemoteConfig{URL: "https://e.example.com", Headers: map[string]string{"X-Auth": "t"}},
		},
	}

	data, err := Export(records, mcp.FormatDefault)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc map[string]map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}

	fs := doc["mcpServers"]["fs"]
	if _, ok := fs["url"]; ok {
		t.Error("stdio entry must not emit url")
	}
	if _, ok := fs["disabled"]; ok {
		t.Error("default format must omit disabled")
	}

	events := doc["mcpServers"]["events"]
	if events["type"] != "sse" {
		t.Error("sse entries must emit their type")
	}
	if _, ok := events["command"]; ok {
		t.Error("remote entry must not emit command")
	}
}

func TestExportClaudeEmitsDisabled(t *testing.T) {
	records := []*mcp.Record{
		{Name: "off", Transport: mcp.TransportStdio, Stdio: &mcp.StdioConfig{Command: "npx"}, Disabled: true},
		{Name: "on", Transport: mcp.TransportStdio, Stdio: &mcp.StdioConfig{Command: "npx"}},
	}

	data, err := Export(records, mcp.FormatClaude)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var doc map[string]map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if doc["mcpServers"]["off"]["disabled"] != true {
		t.Error("claude format must emit disabled: true for disabled records")
	}
	if _, ok := doc["mcpServers"]["on"]["disabled"]; ok {
		t.Error("claude format must omit disabled for enabled records")
	}
}

func TestRoundTrip(t *testing.T) {
	doc := `{
		"mcpServers": {
			"fs": {"command": "npx", "args": ["-y", "pkg"], "env": {"A": "1"}},
			"api": {"url": "https://api.example.com", "headers": {"X-K": "v"}}
		}
	}`

	first, err := Import([]byte(doc))
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}

	exported, err := Export(first, mcp.FormatDefault)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	second, err := Import(exported)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}

	firstByName := make(map[string]*mcp.Record)
	for _, r := range first {
		firstByName[r.Name] = r
	}
	if len(second) != len(first) {
		t.Fatalf("record count changed across round trip: %d vs %d", len(second), len(first))
	}
	for _, got := range second {
		want := firstByName[got.Name]
		if want == nil {
			t.Fatalf("record %q appeared from nowhere", got.Name)
		}
		if got.Transport != want.Transport {
			t.Errorf("%s: transport changed: %q vs %q", got.Name, got.Transport, want.Transport)
		}
		if got.Command() != want.Command() || got.URL() != want.URL() {
			t.Errorf("%s: endpoint changed", got.Name)
		}
		if len(got.Args()) != len(want.Args()) {
			t.Errorf("%s: args changed", got.Name)
		}
		if len(got.Env) != len(want.Env) {
			t.Errorf("%s: env changed", got.Name)
		}
	}
}

func TestProfileDocument(t *testing.T) {
	p := &mcp.Profile{Name: "work", Description: "work servers"}
	members := []*mcp.Record{{
		ID: "a", Name: "fs", Transport: mcp.TransportStdio,
		Stdio: &mcp.StdioConfig{Command: "npx"},
	}}

	data, err := ExportProfile(p, members)
	if err != nil {
		t.Fatalf("ExportProfile failed: %v", err)
	}

	doc, err := ParseProfileDocument(data)
	if err != nil {
		t.Fatalf("ParseProfileDocument failed: %v", err)
	}
	if doc.Profile.Name != "work" || len(doc.MCPs) != 1 {
		t.Errorf("unexpected parsed document: %+v", doc)
	}
}

func TestParseProfileDocumentMissingSections(t *testing.T) {
	if _, err := ParseProfileDocument([]byte(`{}`)); err == nil {
		t.Error("document without profile and mcps sections must be rejected")
	}
	if _, err := ParseProfileDocument([]byte(`{"mcps": [{"id": "a", "name": "x", "transportType": "stdio"}]}`)); err != nil {
		t.Errorf("mcps-only document must be accepted: %v", err)
	}
}
