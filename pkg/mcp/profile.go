package mcp

import "time"

// Profile is a named, ordered subset of MCP ids representing which
// records should be enabled together.
//
// MCPIDs may reference ids that no longer exist; stale references are
// tolerated and only pruned when the referenced record is deleted.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	MCPIDs      []string  `json:"mcpIds"`
	IsDefault   bool      `json:"isDefault,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Contains reports whether the profile references the given MCP id
func (p *Profile) Contains(id string) bool {
	for _, pid := range p.MCPIDs {
		if pid == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the profile
func (p *Profile) Clone() *Profile {
	c := *p
	c.MCPIDs = append([]string(nil), p.MCPIDs...)
	return &c
}

// CloneProfiles deep-copies a profile collection
func CloneProfiles(profiles []*Profile) []*Profile {
	out := make([]*Profile, len(profiles))
	for i, p := range profiles {
		out[i] = p.Clone()
	}
	return out
}
