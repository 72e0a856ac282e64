package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Detail       string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// levelStyle returns the header color, body color and symbol of a level
func levelStyle(level ErrorLevel) (*color.Color, *color.Color, string) {
	switch level {
	case ErrorLevelWarning:
		return color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "⚠️"
	case ErrorLevelInfo:
		return color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "ℹ️"
	default:
		return color.New(color.FgRed, color.Bold), color.New(color.FgRed), "❌"
	}
}

// FormatError creates a standardized error message with suggestions and help commands
//
// Example output:
//
//	❌ CLASS NOT FOUND: Node2d
//	   No partition declares class 'Node2d'.
//
//	   Did you mean: Node2D, Node3D?
//
//	   → See all classes: lineage classes
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	headerColor, bodyColor, symbol := levelStyle(opts.Level)
	accent := color.New(color.FgYellow)
	help := color.New(color.FgCyan)
	if opts.NoColor {
		for _, c := range []*color.Color{headerColor, bodyColor, accent, help} {
			c.DisableColor()
		}
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	if opts.Detail != "" {
		bodyColor.Fprintf(&b, "   %s\n", opts.Detail)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		accent.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			help.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// ClassNotFoundError reports a class name that no partition declares
func ClassNotFoundError(name string, excluded bool, suggestions []string, noColor bool) string {
	detail := fmt.Sprintf("No partition declares class '%s'.", name)
	if excluded {
		detail = fmt.Sprintf("Class '%s' is listed in the anchor's exclusion set.", name)
	}
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "CLASS NOT FOUND",
		Problem:     name,
		Detail:      detail,
		Suggestions: suggestions,
		HelpCommands: []string{
			"See all classes: lineage classes",
			"See build findings: lineage diagnostics",
		},
		NoColor: noColor,
	})
}

// ObjectNotFoundError reports an object missing from the manifest
func ObjectNotFoundError(name string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "OBJECT NOT FOUND",
		Problem:      name,
		Detail:       fmt.Sprintf("The manifest has no object named '%s'.", name),
		Suggestions:  suggestions,
		HelpCommands: []string{"Check the objects section of the project manifest"},
		NoColor:      noColor,
	})
}

// RegistryError reports a registry that failed to build
func RegistryError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "REGISTRY UNAVAILABLE",
		Problem: message,
		HelpCommands: []string{
			"See build findings: lineage diagnostics",
			"Get help: lineage --help",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat lineage.yml",
			"Get help: lineage --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}
