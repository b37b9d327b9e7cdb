// Package names generates collision-free display names for MCP records.
package names

import (
	"fmt"
	"strings"
	"time"
)

// maxSuffix caps the " (n)" probing loop. Beyond it the current unix
// timestamp is appended instead, which terminates even when every
// numbered variant is taken.
const maxSuffix = 1000

// Unique returns base if it is unused, otherwise the first unused
// "base (n)" variant. Name comparison is case-insensitive.
func Unique(base string, existing []string) string {
	taken := make(map[string]bool, len(existing))
	for _, name := range existing {
		taken[strings.ToLower(name)] = true
	}

	if !taken[strings.ToLower(base)] {
		return base
	}

	for n := 1; n <= maxSuffix; n++ {
		candidate := fmt.Sprintf("%s (%d)", base, n)
		if !taken[strings.ToLower(candidate)] {
			return candidate
		}
	}

	return fmt.Sprintf("%s (%d)", base, time.Now().Unix())
}
