package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter renders a command result. Table output is produced by the
// render callback; JSON output encodes data.
type Formatter interface {
	Format(data any, render func(w io.Writer)) error
}

// TableFormatter formats output as human-readable tables
type TableFormatter struct {
	writer io.Writer
}

// Format runs the table renderer
func (f *TableFormatter) Format(_ any, render func(w io.Writer)) error {
	render(f.writer)
	return nil
}

// JSONFormatter formats output as indented JSON
type JSONFormatter struct {
	writer io.Writer
}

// Format formats data as JSON
func (f *JSONFormatter) Format(data any, _ func(w io.Writer)) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// newFormatter returns the formatter for the --format value
func newFormatter(format string, w io.Writer) (Formatter, error) {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{writer: w}, nil
	case "table", "":
		return &TableFormatter{writer: w}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: json, table)", format)
	}
}
