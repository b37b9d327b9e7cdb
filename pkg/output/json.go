package output

import (
	"encoding/json"
	"io"
	"os"
)

// CLIOutput represents a structured output for machine-parseable JSON responses
type CLIOutput struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// JSONWriter handles JSON output for CLI commands
type JSONWriter struct {
	Out io.Writer
}

// NewJSONWriter creates a new JSON writer that outputs to stdout
func NewJSONWriter() *JSONWriter {
	return &JSONWriter{Out: os.Stdout}
}

// Write outputs a CLIOutput as JSON
func (w *JSONWriter) Write(output CLIOutput) error {
	encoder := json.NewEncoder(w.Out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// WriteSuccess outputs a successful result as JSON
func (w *JSONWriter) WriteSuccess(data interface{}) error {
	return w.Write(CLIOutput{
		Success: true,
		Data:    data,
	})
}

// WriteError outputs an error as JSON
func (w *JSONWriter) WriteError(err error) error {
	return w.Write(CLIOutput{
		Success: false,
		Error:   err.Error(),
	})
}

// RecordInfo represents a stored MCP in JSON list output
type RecordInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Transport string `json:"transport"`
	Status    string `json:"status"`
	Category  string `json:"category,omitempty"`
	Command   string `json:"command,omitempty"`
	URL       string `json:"url,omitempty"`
	Usage     int    `json:"usageCount"`
}

// ProfileInfo represents a profile in JSON list output
type ProfileInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Members int    `json:"members"`
	Active  bool   `json:"active"`
	Default bool   `json:"default,omitempty"`
}

// BackupInfo represents a backup in JSON list output
type BackupInfo struct {
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Description string `json:"description,omitempty"`
	MCPs        int    `json:"mcps"`
	Profiles    int    `json:"profiles"`
}

// ProbeInfo represents a probe result in JSON output
type ProbeInfo struct {
	Name      string   `json:"name"`
	Healthy   bool     `json:"healthy"`
	LatencyMS int64    `json:"latencyMs"`
	Tools     []string `json:"tools,omitempty"`
	Error     string   `json:"error,omitempty"`
}
