package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a bold header with aligned columns
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, noColor bool, headers ...string) *Table {
	return &Table{writer: w, headers: headers, noColor: noColor}
}

// AddRow adds a row to the table. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows added
func (t *Table) Len() int {
	return len(t.rows)
}

// Render renders the table to the writer
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range t.rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
	}

	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if t.noColor {
		bold.DisableColor()
		gray.DisableColor()
	}

	cells := make([]string, len(widths))
	for i, header := range t.headers {
		cells[i] = bold.Sprint(padRight(header, widths[i]))
	}
	t.line(cells)

	for i, width := range widths {
		cells[i] = gray.Sprint(strings.Repeat("─", width))
	}
	t.line(cells)

	for _, row := range t.rows {
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = padRight(cell, widths[i])
		}
		t.line(cells)
	}
}

func (t *Table) line(cells []string) {
	fmt.Fprintln(t.writer, strings.TrimRight(strings.Join(cells, "  "), " "))
}

// padRight pads a string with spaces on the right to reach the target width
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// KeyValueTable renders aligned "key: value" lines
type KeyValueTable struct {
	writer  io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair to the table
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render renders the key-value table
func (t *KeyValueTable) Render() {
	width := 0
	for _, key := range t.keys {
		width = max(width, utf8.RuneCountInString(key)+1)
	}

	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	for i, key := range t.keys {
		cyan.Fprint(t.writer, padRight(key+":", width))
		fmt.Fprintf(t.writer, " %s\n", t.values[i])
	}
}

// ChainStep is one entry of a rendered ancestor chain
type ChainStep struct {
	Name   string
	Origin string
}

// originColors tints chain entries by the type system that declared them
var originColors = map[string]color.Attribute{
	"gdscript": color.FgGreen,
	"csharp":   color.FgMagenta,
	"native":   color.FgBlue,
}

// FormatChain renders a chain leaf first, e.g. "ChildScript → ParentScript → Node2D → Object".
// With showOrigin each name is suffixed by its origin in brackets.
func FormatChain(steps []ChainStep, showOrigin, noColor bool) string {
	parts := make([]string, len(steps))
	for i, step := range steps {
		text := step.Name
		if showOrigin && step.Origin != "" {
			text = fmt.Sprintf("%s [%s]", step.Name, step.Origin)
		}

		c := color.New(color.Bold)
		if attr, ok := originColors[step.Origin]; ok {
			c = color.New(attr)
		}
		if noColor {
			c.DisableColor()
		}
		parts[i] = c.Sprint(text)
	}
	return strings.Join(parts, " → ")
}

// FormatVerdict renders an inheritance answer
func FormatVerdict(verdict bool, noColor bool) string {
	c := color.New(color.FgRed, color.Bold)
	if verdict {
		c = color.New(color.FgGreen, color.Bold)
	}
	if noColor {
		c.DisableColor()
	}
	return c.Sprint(verdict)
}
