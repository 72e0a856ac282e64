package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestFormatError(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name        string
		opts        ErrorOptions
		contains    []string
		notContains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Level:   ErrorLevelError,
				Context: "class not found",
				Problem: "Node2d",
			},
			contains:    []string{"❌", "CLASS NOT FOUND: Node2d"},
			notContains: []string{"Did you mean"},
		},
		{
			name: "error with suggestions and help",
			opts: ErrorOptions{
				Level:        ErrorLevelError,
				Problem:      "Node2d",
				Detail:       "No partition declares class 'Node2d'.",
				Suggestions:  []string{"Node2D", "Node3D"},
				HelpCommands: []string{"See all classes: lineage classes"},
			},
			contains: []string{
				"   No partition declares class 'Node2d'.",
				"Did you mean: Node2D, Node3D?",
				"→ See all classes: lineage classes",
			},
		},
		{
			name:     "warning",
			opts:     ErrorOptions{Level: ErrorLevelWarning, Problem: "cache unavailable"},
			contains: []string{"⚠️", "cache unavailable"},
		},
		{
			name:     "info",
			opts:     ErrorOptions{Level: ErrorLevelInfo, Problem: "registry built"},
			contains: []string{"ℹ️", "registry built"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatError(tt.opts)
			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("expected output to contain %q, got:\n%s", expected, result)
				}
			}
			for _, unexpected := range tt.notContains {
				if strings.Contains(result, unexpected) {
					t.Errorf("expected output not to contain %q, got:\n%s", unexpected, result)
				}
			}
		})
	}
}

func TestFormatErrorNoColorOption(t *testing.T) {
	result := FormatError(ErrorOptions{Problem: "plain", Suggestions: []string{"x"}, NoColor: true})
	if strings.Contains(result, "\x1b[") {
		t.Errorf("expected no escape sequences, got %q", result)
	}
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	WriteError(&buf, ErrorOptions{Problem: "boom", NoColor: true})
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected written error, got %q", buf.String())
	}
}

func TestClassNotFoundError(t *testing.T) {
	result := ClassNotFoundError("Nod", false, []string{"Node"}, true)
	for _, expected := range []string{"CLASS NOT FOUND: Nod", "No partition declares class 'Nod'.", "Did you mean: Node?", "lineage classes"} {
		if !strings.Contains(result, expected) {
			t.Errorf("expected %q in:\n%s", expected, result)
		}
	}

	excluded := ClassNotFoundError("EditorPlugin", true, nil, true)
	if !strings.Contains(excluded, "exclusion set") {
		t.Errorf("expected exclusion detail, got:\n%s", excluded)
	}
}

func TestOtherErrors(t *testing.T) {
	tests := []struct {
		result string
		want   string
	}{
		{ObjectNotFoundError("playr", []string{"player"}, true), "OBJECT NOT FOUND: playr"},
		{RegistryError("anchor class missing", true), "REGISTRY UNAVAILABLE: anchor class missing"},
		{ConfigError("cache.backend must be set", true), "CONFIGURATION ERROR: cache.backend must be set"},
		{Warning("stale cache", true), "⚠️ stale cache"},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.result, tt.want) {
			t.Errorf("expected %q in:\n%s", tt.want, tt.result)
		}
	}
}
