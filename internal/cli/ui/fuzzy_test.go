package ui

import (
	"reflect"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Node2D", "Node3D", 1},
		{"naïve", "naive", 1},
	}

	for _, tt := range tests {
		if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Node", "Node2D", "Node3D", "RefCounted", "ChildScript"}

	tests := []struct {
		name   string
		target string
		opts   *FuzzyMatchOptions
		want   []string
	}{
		{"closest first", "Node2d", nil, []string{"Node2D", "Node3D", "Node"}},
		{"limit", "Node2d", &FuzzyMatchOptions{MaxSuggestions: 1}, []string{"Node2D"}},
		{"case sensitive", "node", &FuzzyMatchOptions{CaseSensitive: true, MaxDistance: 1}, []string{"Node"}},
		{"nothing close", "Quaternion", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindSimilar(tt.target, candidates, tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindSimilar(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}
