package mcp

import "time"

// ExportFormat selects the wire dialect variant used on export
type ExportFormat string

const (
	// FormatDefault emits the plain named-server-map dialect
	FormatDefault ExportFormat = "default"
	// FormatClaude additionally emits disabled:true for disabled records
	FormatClaude ExportFormat = "claude"
)

// Settings contains process-wide configuration, persisted as a singleton
type Settings struct {
	Theme             string       `json:"theme,omitempty"`
	AutoBackup        bool         `json:"autoBackup"`
	EncryptionEnabled bool         `json:"encryptionEnabled"`
	ExportFormat      ExportFormat `json:"exportFormat,omitempty"`
	Categories        []string     `json:"categories,omitempty"`
	DefaultProfile    string       `json:"defaultProfile,omitempty"`
}

// DefaultSettings returns the settings used when none are persisted yet
func DefaultSettings() *Settings {
	return &Settings{
		Theme:        "system",
		ExportFormat: FormatDefault,
		Categories:   []string{"development", "productivity", "data", "other"},
	}
}

// Clone returns a deep copy of the settings
func (s *Settings) Clone() *Settings {
	c := *s
	c.Categories = append([]string(nil), s.Categories...)
	return &c
}

// Backup is an immutable point-in-time snapshot of all collections
type Backup struct {
	ID          string     `json:"id"`
	Timestamp   time.Time  `json:"timestamp"`
	Description string     `json:"description,omitempty"`
	Data        BackupData `json:"data"`
}

// BackupData holds the snapshotted collections
type BackupData struct {
	MCPs     []*Record  `json:"mcps"`
	Profiles []*Profile `json:"profiles"`
	Settings *Settings  `json:"settings"`
}
