package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(storage.NewManager(storage.NewMemoryAdapter(), nil))
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s
}

func stdioData(name, command string, args ...string) *mcp.Record {
	return &mcp.Record{
		Name:      name,
		Transport: mcp.TransportStdio,
		Stdio:     &mcp.StdioConfig{Command: command, Args: args},
	}
}

func httpData(name, url string) *mcp.Record {
	return &mcp.Record{
		Name:      name,
		Transport: mcp.TransportHTTP,
		Remote:    &mcp.RemoteConfig{URL: url},
	}
}

func TestAddMCPAssignsIdentity(t *testing.T) {
	s := newTestStore(t)

	rec, err := s.AddMCP(stdioData("filesystem", "npx", "-y", "server-filesystem"))
	if err != nil {
		t.Fatalf("AddMCP failed: %v", err)
	}
	if rec.ID == "" {
		t.Error("AddMCP must assign an id")
	}
	if rec.UsageCount != 0 {
		t.Error("new records start with zero usage")
	}
	if rec.LastUsed.IsZero() {
		t.Error("new records carry a creation timestamp")
	}
	if rec.Source != mcp.SourceManual {
		t.Errorf("expected manual source, got %q", rec.Source)
	}
}

func TestAddMCPValidation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.AddMCP(&mcp.Record{Transport: mcp.TransportStdio}); err == nil {
		t.Error("record without a name must be rejected")
	}
	if s.LastError() == nil {
		t.Error("validation failure must land in the error slot")
	}
}

// No two records may ever share a case-insensitive name
func TestAddMCPUniqueness(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		if _, err := s.AddMCP(stdioData("GitHub", fmt.Sprintf("cmd-%d", i))); err != nil {
			t.Fatalf("AddMCP %d failed: %v", i, err)
		}
	}
	if _, err := s.DuplicateMCP(s.MCPs()[0].ID); err != nil {
		t.Fatalf("DuplicateMCP failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, r := range s.MCPs() {
		key := strings.ToLower(r.Name)
		if seen[key] {
			t.Errorf("duplicate name %q in final collection", r.Name)
		}
		seen[key] = true
	}
}

// Importing "x", then adding a different "x", must store the second as "x (1)"
func TestAddRenamesDuplicateScenario(t *testing.T) {
	s := newTestStore(t)

	doc := `{"mcpServers":{"x":{"command":"npx","args":["-y","pkg"]}}}`
	if _, err := s.ImportMCPs([]byte(doc)); err != nil {
		t.Fatalf("ImportMCPs failed: %v", err)
	}

	rec, err := s.AddMCP(stdioData("x", "deno", "run", "server.ts"))
	if err != nil {
		t.Fatalf("AddMCP failed: %v", err)
	}
	if rec.Name != "x (1)" {
		t.Errorf("expected renamed %q, got %q", "x (1)", rec.Name)
	}
}

func TestUpdateMCP(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.AddMCP(stdioData("fs", "npx"))

	desc := "file access"
	updated, err := s.UpdateMCP(rec.ID, RecordUpdate{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateMCP failed: %v", err)
	}
	if updated.Description != "file access" {
		t.Errorf("update not applied: %+v", updated)
	}

	if _, err := s.UpdateMCP("missing", RecordUpdate{Description: &desc}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestUpdateMCPTransportSwitch(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.AddMCP(stdioData("svc", "npx"))

	transport := mcp.TransportHTTP
	updated, err := s.UpdateMCP(rec.ID, RecordUpdate{
		Transport: &transport,
		Remote:    &mcp.RemoteConfig{URL: "https://svc.example.com"},
	})
	if err != nil {
		t.Fatalf("UpdateMCP failed: %v", err)
	}
	if updated.Stdio != nil {
		t.Error("switching to http must drop the stdio variant")
	}
	if updated.URL() != "https://svc.example.com" {
		t.Errorf("unexpected url %q", updated.URL())
	}
}

// After deleting an MCP, no profile may still reference its id
func TestDeleteMCPCascade(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.AddMCP(stdioData("a", "npx"))
	b, _ := s.AddMCP(stdioData("b", "node"))

	p, err := s.CreateProfile("work", "", []string{a.ID, b.ID})
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}
	s.SetActiveProfile(p.ID)
	s.SelectMCP(a.ID)

	before, _ := s.GetProfile(p.ID)
	if err := s.DeleteMCP(a.ID); err != nil {
		t.Fatalf("DeleteMCP failed: %v", err)
	}

	after, _ := s.GetProfile(p.ID)
	for _, pid := range after.MCPIDs {
		if pid == a.ID {
			t.Error("deleted id still referenced by profile")
		}
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("touched profile must refresh updatedAt")
	}

	if active := s.ActiveProfile(); active.Contains(a.ID) {
		t.Error("active-profile snapshot still references deleted id")
	}
	for _, id := range s.SelectedIDs() {
		if id == a.ID {
			t.Error("selection set still references deleted id")
		}
	}

	if err := s.DeleteMCP("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestBulkDeleteMCPs(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.AddMCP(stdioData("a", "npx"))
	b, _ := s.AddMCP(stdioData("b", "node"))
	c, _ := s.AddMCP(stdioData("c", "deno"))
	p, _ := s.CreateProfile("all", "", []string{a.ID, b.ID, c.ID})

	if err := s.BulkDeleteMCPs([]string{a.ID, c.ID, "missing"}); err != nil {
		t.Fatalf("BulkDeleteMCPs failed: %v", err)
	}

	if got := len(s.MCPs()); got != 1 {
		t.Fatalf("expected 1 surviving record, got %d", got)
	}
	after, _ := s.GetProfile(p.ID)
	if len(after.MCPIDs) != 1 || after.MCPIDs[0] != b.ID {
		t.Errorf("profile membership not pruned: %v", after.MCPIDs)
	}
}

func TestToggleMCP(t *testing.T) {
	s := newTestStore(t)
	rec, _ := s.AddMCP(stdioData("fs", "npx"))

	if err := s.ToggleMCP(rec.ID); err != nil {
		t.Fatalf("ToggleMCP failed: %v", err)
	}
	got, _ := s.GetMCP(rec.ID)
	if !got.Disabled {
		t.Error("toggle must flip disabled")
	}

	if err := s.BulkToggleMCPs([]string{rec.ID}, true); err != nil {
		t.Fatalf("BulkToggleMCPs failed: %v", err)
	}
	got, _ = s.GetMCP(rec.ID)
	if got.Disabled {
		t.Error("bulk enable must clear disabled")
	}
}

// Loading a profile is a total reassignment of every record's state,
// tolerant of stale membership ids.
func TestLoadProfileTotality(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.AddMCP(stdioData("a", "npx"))
	b, _ := s.AddMCP(stdioData("b", "node"))
	if err := s.ToggleMCP(a.ID); err != nil {
		t.Fatalf("ToggleMCP failed: %v", err)
	}

	// Profile references a plus a stale id that no longer exists
	p, _ := s.CreateProfile("partial", "", []string{a.ID, "gone"})
	if err := s.LoadProfile(p.ID); err != nil {
		t.Fatalf("LoadProfile must tolerate stale ids: %v", err)
	}

	gotA, _ := s.GetMCP(a.ID)
	gotB, _ := s.GetMCP(b.ID)
	if gotA.Disabled {
		t.Error("member record must be enabled")
	}
	if !gotB.Disabled {
		t.Error("non-member record must be disabled")
	}
	if active := s.ActiveProfile(); active == nil || active.ID != p.ID {
		t.Error("active profile pointer not set")
	}
}

func TestLoadProfileUnknownIsSilent(t *testing.T) {
	s := newTestStore(t)
	s.AddMCP(stdioData("a", "npx"))

	if err := s.LoadProfile("missing"); err != nil {
		t.Errorf("loading an unknown profile must be a silent no-op, got %v", err)
	}
	if s.ActiveProfile() != nil {
		t.Error("active pointer must not change on silent no-op")
	}
}

func TestSetActiveProfilePreservesState(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.AddMCP(stdioData("a", "npx"))
	p, _ := s.CreateProfile("p", "", nil)
	if err := s.LoadProfile(p.ID); err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}

	// a is now disabled (not a member). Switching to all-MCPs mode must
	// not re-enable it.
	s.SetActiveProfile("")
	got, _ := s.GetMCP(a.ID)
	if !got.Disabled {
		t.Error("switching to all-MCPs mode must preserve enabled state")
	}
	if s.ActiveProfile() != nil {
		t.Error("active pointer must be cleared")
	}
}

func TestEnableAllMCPs(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.AddMCP(stdioData("a", "npx"))
	s.ToggleMCP(a.ID)

	if err := s.EnableAllMCPs(); err != nil {
		t.Fatalf("EnableAllMCPs failed: %v", err)
	}
	for _, r := range s.MCPs() {
		if r.Disabled {
			t.Errorf("record %q still disabled", r.Name)
		}
	}
}

func TestUnsavedProfileChanges(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.AddMCP(stdioData("a", "npx"))
	b, _ := s.AddMCP(stdioData("b", "node"))
	p, _ := s.CreateProfile("p", "", []string{a.ID, b.ID})

	if err := s.LoadProfile(p.ID); err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if s.HasUnsavedProfileChanges() {
		t.Error("freshly loaded profile must report no changes")
	}

	s.ToggleMCP(b.ID)
	if !s.HasUnsavedProfileChanges() {
		t.Error("manual toggle must report unsaved changes")
	}

	if err := s.SaveCurrentStateToProfile(); err != nil {
		t.Fatalf("SaveCurrentStateToProfile failed: %v", err)
	}
	if s.HasUnsavedProfileChanges() {
		t.Error("saving must clear the unsaved delta")
	}
	after, _ := s.GetProfile(p.ID)
	if len(after.MCPIDs) != 1 || after.MCPIDs[0] != a.ID {
		t.Errorf("profile membership not overwritten: %v", after.MCPIDs)
	}
}

func TestSaveCurrentStateWithoutActiveProfile(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveCurrentStateToProfile(); !errors.Is(err, ErrNoActiveProfile) {
		t.Errorf("expected ErrNoActiveProfile, got %v", err)
	}
}

func TestDeleteProfileClearsActivePointer(t *testing.T) {
	s := newTestStore(t)
	p, _ := s.CreateProfile("p", "", nil)
	s.SetActiveProfile(p.ID)

	if err := s.DeleteProfile(p.ID); err != nil {
		t.Fatalf("DeleteProfile failed: %v", err)
	}
	if s.ActiveProfile() != nil {
		t.Error("deleting the active profile must clear the pointer")
	}

	if err := s.DeleteProfile("missing"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got %v", err)
	}
}

// Add an http MCP and export it: exactly {"mcpServers":{"vercel":{"url":...}}}
func TestExportScenario(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.AddMCP(httpData("vercel", "https://mcp.vercel.com")); err != nil {
		t.Fatalf("AddMCP failed: %v", err)
	}

	data, err := s.ExportMCPs(nil, "")
	if err != nil {
		t.Fatalf("ExportMCPs failed: %v", err)
	}

	var doc map[string]map[string]map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	entry := doc["mcpServers"]["vercel"]
	if len(entry) != 1 || entry["url"] != "https://mcp.vercel.com" {
		t.Errorf("expected exactly the url field, got %v", entry)
	}
}

func TestExportSkipsDisabledByDefault(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.AddMCP(stdioData("a", "npx"))
	s.AddMCP(stdioData("b", "node"))
	s.ToggleMCP(a.ID)

	data, err := s.ExportMCPs(nil, "")
	if err != nil {
		t.Fatalf("ExportMCPs failed: %v", err)
	}

	var doc map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if _, ok := doc["mcpServers"]["a"]; ok {
		t.Error("disabled records must be excluded when exporting without ids")
	}
	if _, ok := doc["mcpServers"]["b"]; !ok {
		t.Error("enabled record missing from export")
	}
}

func TestProfileExportImportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.AddMCP(stdioData("a", "npx", "-y", "pkg"))
	p, _ := s.CreateProfile("work", "work servers", []string{a.ID, "stale"})

	data, err := s.ExportProfile(p.ID)
	if err != nil {
		t.Fatalf("ExportProfile failed: %v", err)
	}

	// Import into a clean store
	other := newTestStore(t)
	imported, err := other.ImportProfile(data)
	if err != nil {
		t.Fatalf("ImportProfile failed: %v", err)
	}
	if imported.Name != "work" {
		t.Errorf("profile name lost: %q", imported.Name)
	}
	if len(imported.MCPIDs) != 1 {
		t.Fatalf("expected 1 member, got %d", len(imported.MCPIDs))
	}
	member, err := other.GetMCP(imported.MCPIDs[0])
	if err != nil {
		t.Fatalf("member record missing: %v", err)
	}
	if member.Name != "a" || member.Command() != "npx" {
		t.Errorf("member record corrupted: %+v", member)
	}
}

func TestImportProfileRejectsEmptyDocument(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.ImportProfile([]byte(`{"other": true}`)); err == nil {
		t.Error("document without profile and mcps sections must fail")
	}
}

func TestLoadCreatesDefaultProfile(t *testing.T) {
	adapter := storage.NewMemoryAdapter()
	manager := storage.NewManager(adapter, nil)

	seed := New(manager)
	if err := seed.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	a, _ := seed.AddMCP(stdioData("a", "npx"))

	// Wipe profiles but keep records, then reload
	if err := adapter.SaveProfiles(nil); err != nil {
		t.Fatalf("SaveProfiles failed: %v", err)
	}
	s := New(manager)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	profiles := s.Profiles()
	if len(profiles) != 1 {
		t.Fatalf("expected auto-created default profile, got %d profiles", len(profiles))
	}
	if !profiles[0].IsDefault || !profiles[0].Contains(a.ID) {
		t.Errorf("default profile must contain every record: %+v", profiles[0])
	}
}

func TestLoadAppliesDefaultProfileSetting(t *testing.T) {
	adapter := storage.NewMemoryAdapter()
	manager := storage.NewManager(adapter, nil)

	seed := New(manager)
	seed.Load()
	seed.AddMCP(stdioData("a", "npx"))
	p, _ := seed.CreateProfile("startup", "", nil)

	settings := seed.Settings()
	settings.DefaultProfile = p.ID
	if err := seed.UpdateSettings(settings); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	s := New(manager)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if active := s.ActiveProfile(); active == nil || active.ID != p.ID {
		t.Error("settings.defaultProfile must become the initial active profile")
	}
}

func TestClearAllData(t *testing.T) {
	s := newTestStore(t)
	s.AddMCP(stdioData("a", "npx"))
	s.CreateProfile("p", "", nil)

	if err := s.ClearAllData(); err != nil {
		t.Fatalf("ClearAllData failed: %v", err)
	}
	if len(s.MCPs()) != 0 || len(s.Profiles()) != 0 {
		t.Error("ClearAllData must empty the model")
	}
}

func TestFilteredMCPs(t *testing.T) {
	s := newTestStore(t)
	s.AddMCP(&mcp.Record{
		Name: "github", Transport: mcp.TransportStdio,
		Stdio: &mcp.StdioConfig{Command: "npx"}, Category: "development",
		Tags: []string{"vcs"},
	})
	s.AddMCP(&mcp.Record{
		Name: "sheets", Transport: mcp.TransportStdio,
		Stdio: &mcp.StdioConfig{Command: "npx"}, Category: "productivity",
	})

	s.SetFilter(Filter{Category: "development"})
	if got := s.FilteredMCPs(); len(got) != 1 || got[0].Name != "github" {
		t.Errorf("category filter wrong: %+v", got)
	}

	s.SetFilter(Filter{Search: "vcs"})
	if got := s.FilteredMCPs(); len(got) != 1 || got[0].Name != "github" {
		t.Errorf("tag search wrong: %+v", got)
	}
}

// failingAdapter wraps an Adapter and fails writes on demand
type failingAdapter struct {
	storage.Adapter
	failWrites bool
}

func (f *failingAdapter) SaveMCPs(records []*mcp.Record) error {
	if f.failWrites {
		return errors.New("disk full")
	}
	return f.Adapter.SaveMCPs(records)
}

func TestPersistenceFailureDoesNotCommit(t *testing.T) {
	adapter := &failingAdapter{Adapter: storage.NewMemoryAdapter()}
	s := New(storage.NewManager(adapter, nil))
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := s.AddMCP(stdioData("keep", "npx")); err != nil {
		t.Fatalf("AddMCP failed: %v", err)
	}

	adapter.failWrites = true
	if _, err := s.AddMCP(stdioData("lost", "node")); err == nil {
		t.Fatal("expected persistence failure to surface")
	}

	if got := len(s.MCPs()); got != 1 {
		t.Errorf("failed mutation must not be visible in memory, got %d records", got)
	}
	if s.LastError() == nil {
		t.Error("persistence failure must land in the error slot")
	}
}

func TestImportSkipsBadEntriesWithoutAborting(t *testing.T) {
	s := newTestStore(t)

	doc := `{"mcpServers": {"ok": {"command": "npx"}, "broken": 42}}`
	added, err := s.ImportMCPs([]byte(doc))
	if err != nil {
		t.Fatalf("ImportMCPs failed: %v", err)
	}
	if len(added) != 1 || added[0].Name != "ok" {
		t.Errorf("expected only the good entry, got %+v", added)
	}
}

func TestBulkToggleTriggersAutoBackup(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.AddMCP(stdioData("a", "npx"))
	b, _ := s.AddMCP(stdioData("b", "npx"))

	settings := s.Settings()
	settings.AutoBackup = true
	if err := s.UpdateSettings(settings); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	before, _ := s.Backups()

	if err := s.BulkToggleMCPs([]string{a.ID, b.ID}, false); err != nil {
		t.Fatalf("BulkToggleMCPs failed: %v", err)
	}

	after, err := s.Backups()
	if err != nil {
		t.Fatalf("Backups failed: %v", err)
	}
	if len(after) != len(before)+1 {
		t.Fatalf("expected an auto-backup after bulk toggle, had %d backups, got %d", len(before), len(after))
	}
}

func TestSaveDataRewritesCollections(t *testing.T) {
	adapter := storage.NewMemoryAdapter()
	manager := storage.NewManager(adapter, nil)

	s := New(manager)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rec, _ := s.AddMCP(stdioData("a", "npx"))
	p, err := s.CreateProfile("work", "", []string{rec.ID})
	if err != nil {
		t.Fatalf("CreateProfile failed: %v", err)
	}

	// Wipe storage behind the store's back
	if err := adapter.SaveMCPs(nil); err != nil {
		t.Fatalf("SaveMCPs failed: %v", err)
	}
	if err := adapter.SaveProfiles(nil); err != nil {
		t.Fatalf("SaveProfiles failed: %v", err)
	}

	if err := s.SaveData(); err != nil {
		t.Fatalf("SaveData failed: %v", err)
	}

	mcps, _ := adapter.GetMCPs()
	if len(mcps) != 1 || mcps[0].ID != rec.ID {
		t.Errorf("record collection not rewritten: %+v", mcps)
	}
	profiles, _ := adapter.GetProfiles()
	found := false
	for _, got := range profiles {
		if got.ID == p.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("profile collection not rewritten: %+v", profiles)
	}
}

func TestReplaceMCPsRejectsDuplicateNames(t *testing.T) {
	s := newTestStore(t)
	orig, _ := s.AddMCP(stdioData("keep", "npx"))

	err := s.ReplaceMCPs([]*mcp.Record{
		stdioData("Vercel", "npx"),
		stdioData("vercel", "npx"),
	})
	if !errors.Is(err, mcp.ErrInvalid) {
		t.Fatalf("expected invalid-record error for colliding names, got %v", err)
	}

	recs := s.MCPs()
	if len(recs) != 1 || recs[0].ID != orig.ID {
		t.Error("rejected replacement must leave the collection unchanged")
	}
}
