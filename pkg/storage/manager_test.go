package storage

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mcpdepot/mcpdepot/pkg/fieldcrypt"
	"github.com/mcpdepot/mcpdepot/pkg/mcp"
)

func testRecord(name string) *mcp.Record {
	return &mcp.Record{
		ID:        name + "-id",
		Name:      name,
		Transport: mcp.TransportStdio,
		Stdio:     &mcp.StdioConfig{Command: "npx"},
		Env: map[string]string{
			"GITHUB_TOKEN": "ghp_secret",
			"NODE_ENV":     "production",
		},
	}
}

func TestSaveMCPsEncryptsSensitiveEnv(t *testing.T) {
	adapter := NewMemoryAdapter()
	m := NewManager(adapter, fieldcrypt.New("pass"))

	if err := m.SaveMCPs([]*mcp.Record{testRecord("gh")}); err != nil {
		t.Fatalf("SaveMCPs failed: %v", err)
	}

	// Raw adapter view must hold ciphertext for the sensitive key only
	raw, err := adapter.GetMCPs()
	if err != nil {
		t.Fatalf("adapter GetMCPs failed: %v", err)
	}
	if raw[0].Env["GITHUB_TOKEN"] == "ghp_secret" {
		t.Error("sensitive env value stored in plaintext")
	}
	if raw[0].Env["NODE_ENV"] != "production" {
		t.Error("non-sensitive env value must pass through untouched")
	}

	// Manager view decrypts transparently
	records, err := m.GetMCPs()
	if err != nil {
		t.Fatalf("GetMCPs failed: %v", err)
	}
	if records[0].Env["GITHUB_TOKEN"] != "ghp_secret" {
		t.Errorf("expected decrypted value, got %q", records[0].Env["GITHUB_TOKEN"])
	}
}

func TestSaveMCPsDoesNotMutateCaller(t *testing.T) {
	m := NewManager(NewMemoryAdapter(), fieldcrypt.New("pass"))

	rec := testRecord("gh")
	if err := m.SaveMCPs([]*mcp.Record{rec}); err != nil {
		t.Fatalf("SaveMCPs failed: %v", err)
	}
	if rec.Env["GITHUB_TOKEN"] != "ghp_secret" {
		t.Error("SaveMCPs mutated the caller's record")
	}
}

func TestGetMCPsDecryptFailureFallsBack(t *testing.T) {
	adapter := NewMemoryAdapter()

	// Written under one passphrase, read under another
	writer := NewManager(adapter, fieldcrypt.New("old-pass"))
	if err := writer.SaveMCPs([]*mcp.Record{testRecord("gh")}); err != nil {
		t.Fatalf("SaveMCPs failed: %v", err)
	}

	reader := NewManager(adapter, fieldcrypt.New("new-pass"))
	records, err := reader.GetMCPs()
	if err != nil {
		t.Fatalf("GetMCPs must not fail on per-field decrypt errors: %v", err)
	}

	raw, _ := adapter.GetMCPs()
	if records[0].Env["GITHUB_TOKEN"] != raw[0].Env["GITHUB_TOKEN"] {
		t.Error("decrypt failure must fall back to the stored value")
	}
}

func TestNoCryptorPassesThrough(t *testing.T) {
	adapter := NewMemoryAdapter()
	m := NewManager(adapter, nil)

	if err := m.SaveMCPs([]*mcp.Record{testRecord("gh")}); err != nil {
		t.Fatalf("SaveMCPs failed: %v", err)
	}
	raw, _ := adapter.GetMCPs()
	if raw[0].Env["GITHUB_TOKEN"] != "ghp_secret" {
		t.Error("without a passphrase values must be stored as-is")
	}
}

func TestBackupRetention(t *testing.T) {
	m := NewManager(NewMemoryAdapter(), nil)

	var created []string
	for i := 0; i < 15; i++ {
		b, err := m.CreateBackup(fmt.Sprintf("backup %d", i))
		if err != nil {
			t.Fatalf("CreateBackup %d failed: %v", i, err)
		}
		created = append(created, b.ID)
		time.Sleep(time.Millisecond)
	}

	backups, err := m.GetBackups()
	if err != nil {
		t.Fatalf("GetBackups failed: %v", err)
	}
	if len(backups) != DefaultRetention {
		t.Fatalf("expected %d retained backups, got %d", DefaultRetention, len(backups))
	}

	// Exactly the 10 most recent survive, oldest first evicted
	want := created[len(created)-DefaultRetention:]
	for i, b := range backups {
		if b.ID != want[i] {
			t.Errorf("backup %d: got id %s, want %s", i, b.ID, want[i])
		}
	}
}

func TestRestoreFromBackup(t *testing.T) {
	m := NewManager(NewMemoryAdapter(), nil)

	if err := m.SaveMCPs([]*mcp.Record{testRecord("gh")}); err != nil {
		t.Fatalf("SaveMCPs failed: %v", err)
	}
	backup, err := m.CreateBackup("before wipe")
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if err := m.SaveMCPs(nil); err != nil {
		t.Fatalf("SaveMCPs failed: %v", err)
	}
	if err := m.RestoreFromBackup(backup.ID); err != nil {
		t.Fatalf("RestoreFromBackup failed: %v", err)
	}

	records, err := m.GetMCPs()
	if err != nil {
		t.Fatalf("GetMCPs failed: %v", err)
	}
	if len(records) != 1 || records[0].Name != "gh" {
		t.Errorf("restore did not bring the record back: %+v", records)
	}
}

func TestRestoreUnknownBackup(t *testing.T) {
	m := NewManager(NewMemoryAdapter(), nil)
	err := m.RestoreFromBackup("missing")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestClearAll(t *testing.T) {
	m := NewManager(NewMemoryAdapter(), nil)
	if err := m.SaveMCPs([]*mcp.Record{testRecord("gh")}); err != nil {
		t.Fatalf("SaveMCPs failed: %v", err)
	}
	if _, err := m.CreateBackup("x"); err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if err := m.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	records, _ := m.GetMCPs()
	backups, _ := m.GetBackups()
	if len(records) != 0 || len(backups) != 0 {
		t.Error("ClearAll must wipe every collection")
	}
}
