// Package dedupe scores how similar a candidate MCP record is to the
// records already in the collection, so imports can rename rather than
// silently pile up near-identical entries.
package dedupe

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/names"
)

// Reason identifies which signal produced a match
type Reason string

const (
	ReasonName    Reason = "name"
	ReasonCommand Reason = "command"
	ReasonURL     Reason = "url"
)

// Match pairs an existing record with its similarity score
type Match struct {
	Record *mcp.Record `json:"record"`
	Score  float64     `json:"score"`
	Reason Reason      `json:"reason"`
}

// Result is the outcome of a duplicate check
type Result struct {
	IsDuplicate   bool    `json:"isDuplicate"`
	Matches       []Match `json:"matches,omitempty"`
	SuggestedName string  `json:"suggestedName,omitempty"`
}

// Thresholds holds the tunable scoring constants
type Thresholds struct {
	Record     float64 // minimum score for a match to be recorded
	Classify   float64 // minimum top score to classify as duplicate
	ArgJaccard float64 // argument-set similarity required for a command match
	FuzzyName  float64 // name similarity required before fuzzy discounting
}

// DefaultThresholds returns the stock threshold set
func DefaultThresholds() Thresholds {
	return Thresholds{
		Record:     0.3,
		Classify:   0.7,
		ArgJaccard: 0.8,
		FuzzyName:  0.7,
	}
}

// Detector compares candidate records against an existing collection
type Detector struct {
	thresholds Thresholds
}

// New creates a detector with the default thresholds
func New() *Detector {
	return &Detector{thresholds: DefaultThresholds()}
}

// NewWithThresholds creates a detector with custom thresholds
func NewWithThresholds(t Thresholds) *Detector {
	return &Detector{thresholds: t}
}

// Check scores candidate against every existing record. Matches above
// the record threshold are returned sorted by descending score; the
// result classifies as duplicate when the top match clears the classify
// threshold, in which case SuggestedName carries a collision-free
// replacement name.
func (d *Detector) Check(candidate *mcp.Record, existing []*mcp.Record) Result {
	var result Result

	for _, rec := range existing {
		score, reason := d.score(candidate, rec)
		if score > d.thresholds.Record {
			result.Matches = append(result.Matches, Match{Record: rec, Score: score, Reason: reason})
		}
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Score > result.Matches[j].Score
	})

	if len(result.Matches) > 0 && result.Matches[0].Score > d.thresholds.Classify {
		result.IsDuplicate = true
		taken := make([]string, len(existing))
		for i, rec := range existing {
			taken[i] = rec.Name
		}
		result.SuggestedName = names.Unique(candidate.Name, taken)
	}

	return result
}

func (d *Detector) score(candidate, existing *mcp.Record) (float64, Reason) {
	if strings.EqualFold(candidate.Name, existing.Name) {
		return 1.0, ReasonName
	}

	if candidate.Transport == mcp.TransportStdio && existing.Transport == mcp.TransportStdio {
		if candidate.Command() != "" && candidate.Command() == existing.Command() &&
			jaccard(candidate.Args(), existing.Args()) > d.thresholds.ArgJaccard {
			return 0.9, ReasonCommand
		}
	}

	if candidate.Transport.Remote() && existing.Transport.Remote() {
		if candidate.URL() != "" && candidate.URL() == existing.URL() {
			return 0.9, ReasonURL
		}
	}

	if sim := nameSimilarity(candidate.Name, existing.Name); sim > d.thresholds.FuzzyName {
		return sim * 0.6, ReasonName
	}

	return 0, ""
}

// nameSimilarity is normalized Levenshtein similarity in [0,1]
func nameSimilarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-dist) / float64(maxLen)
}

// jaccard computes intersection/union of two argument lists treated as
// unordered sets. Two empty sets are considered identical.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[s] = true
	}

	union := make(map[string]bool, len(a)+len(b))
	for s := range setA {
		union[s] = true
	}

	intersection := 0
	seen := make(map[string]bool, len(b))
	for _, s := range b {
		if seen[s] {
			continue
		}
		seen[s] = true
		union[s] = true
		if setA[s] {
			intersection++
		}
	}

	return float64(intersection) / float64(len(union))
}
