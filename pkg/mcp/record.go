package mcp

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid record")

// Transport represents the connection mechanism a record describes
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
	TransportSSE   Transport = "sse"
)

// Valid reports whether t is a known transport
func (t Transport) Valid() bool {
	switch t {
	case TransportStdio, TransportHTTP, TransportSSE:
		return true
	}
	return false
}

// Remote reports whether t is a URL-bearing transport
func (t Transport) Remote() bool {
	return t == TransportHTTP || t == TransportSSE
}

// Source records how an MCP entered the collection
type Source string

const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
)

// StdioConfig holds the fields specific to stdio transports
type StdioConfig struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// RemoteConfig holds the fields specific to http/sse transports
type RemoteConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Record represents a named MCP connection descriptor.
//
// Exactly one of Stdio or Remote is set, selected by Transport. The
// inactive variant is nil and never serialized.
type Record struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Transport   Transport         `json:"transportType"`
	Stdio       *StdioConfig      `json:"stdio,omitempty"`
	Remote      *RemoteConfig     `json:"remote,omitempty"`
	Env         map[string]string `json:"env,omitempty"`
	AlwaysAllow []string          `json:"alwaysAllow,omitempty"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Disabled    bool              `json:"disabled,omitempty"`
	UsageCount  int               `json:"usageCount"`
	LastUsed    time.Time         `json:"lastUsed"`
	Source      Source            `json:"source,omitempty"`
}

// Command returns the stdio command, or "" for remote records
func (r *Record) Command() string {
	if r.Stdio == nil {
		return ""
	}
	return r.Stdio.Command
}

// Args returns the stdio argument list, or nil for remote records
func (r *Record) Args() []string {
	if r.Stdio == nil {
		return nil
	}
	return r.Stdio.Args
}

// URL returns the remote URL, or "" for stdio records
func (r *Record) URL() string {
	if r.Remote == nil {
		return ""
	}
	return r.Remote.URL
}

// Validate checks that the record is internally consistent
func (r *Record) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if !r.Transport.Valid() {
		return fmt.Errorf("%w: unknown transport %q", ErrInvalid, r.Transport)
	}
	if r.Transport.Remote() {
		if r.Remote == nil || r.Remote.URL == "" {
			return fmt.Errorf("%w: %s transport requires a url", ErrInvalid, r.Transport)
		}
		if r.Stdio != nil {
			return fmt.Errorf("%w: %s transport must not carry stdio fields", ErrInvalid, r.Transport)
		}
		return nil
	}
	if r.Remote != nil {
		return fmt.Errorf("%w: stdio transport must not carry remote fields", ErrInvalid)
	}
	return nil
}

// Normalize forces the inactive transport variant to nil so a record
// built from loosely shaped input satisfies the union invariant.
func (r *Record) Normalize() {
	if r.Transport.Remote() {
		r.Stdio = nil
		if r.Remote == nil {
			r.Remote = &RemoteConfig{}
		}
		return
	}
	r.Remote = nil
	if r.Stdio == nil {
		r.Stdio = &StdioConfig{}
	}
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	c := *r
	if r.Stdio != nil {
		sc := *r.Stdio
		sc.Args = append([]string(nil), r.Stdio.Args...)
		c.Stdio = &sc
	}
	if r.Remote != nil {
		rc := *r.Remote
		rc.Headers = cloneMap(r.Remote.Headers)
		c.Remote = &rc
	}
	c.Env = cloneMap(r.Env)
	c.AlwaysAllow = append([]string(nil), r.AlwaysAllow...)
	c.Tags = append([]string(nil), r.Tags...)
	return &c
}

// CloneRecords deep-copies a record collection
func CloneRecords(records []*Record) []*Record {
	out := make([]*Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
