package ui

import (
	"sort"
	"strings"
)

const (
	// DefaultMaxDistance is the largest edit distance still offered as a suggestion
	DefaultMaxDistance = 3
	// DefaultMaxSuggestions caps the suggestion list
	DefaultMaxSuggestions = 3
)

// FuzzyMatchOptions configures fuzzy matching behavior
type FuzzyMatchOptions struct {
	MaxDistance    int
	MaxSuggestions int
	CaseSensitive  bool
}

// FindSimilar returns the candidates closest to target by edit distance,
// closest first. Ties keep candidate order.
//
//	FindSimilar("Node2d", []string{"Node", "Node2D", "Node3D"}, nil)
//	// Returns: ["Node2D", "Node3D", "Node"]
func FindSimilar(target string, candidates []string, opts *FuzzyMatchOptions) []string {
	o := FuzzyMatchOptions{MaxDistance: DefaultMaxDistance, MaxSuggestions: DefaultMaxSuggestions}
	if opts != nil {
		o.CaseSensitive = opts.CaseSensitive
		if opts.MaxDistance > 0 {
			o.MaxDistance = opts.MaxDistance
		}
		if opts.MaxSuggestions > 0 {
			o.MaxSuggestions = opts.MaxSuggestions
		}
	}

	type match struct {
		value    string
		distance int
	}

	fold := func(s string) string {
		if o.CaseSensitive {
			return s
		}
		return strings.ToLower(s)
	}

	var matches []match
	t := fold(target)
	for _, candidate := range candidates {
		if d := LevenshteinDistance(t, fold(candidate)); d <= o.MaxDistance {
			matches = append(matches, match{candidate, d})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]string, 0, o.MaxSuggestions)
	for i := 0; i < len(matches) && i < o.MaxSuggestions; i++ {
		result = append(result, matches[i].value)
	}
	return result
}

// LevenshteinDistance counts the single-rune insertions, deletions and
// substitutions needed to turn a into b.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}
