package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "Class", "Origin", "Base")
	table.AddRow("ChildScript", "gdscript", "ParentScript")
	table.AddRow("Object", "native")
	table.Render()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Class        Origin    Base" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "───────────  ") {
		t.Errorf("unexpected separator %q", lines[1])
	}
	if lines[2] != "ChildScript  gdscript  ParentScript" {
		t.Errorf("unexpected row %q", lines[2])
	}
	if lines[3] != "Object       native" {
		t.Errorf("unexpected short row %q", lines[3])
	}
	if table.Len() != 2 {
		t.Errorf("expected 2 rows, got %d", table.Len())
	}
}

func TestTableWithoutHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestKeyValueTable(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("Name", "Area2D")
	kv.AddRow("Instantiable", "true")
	kv.Render()

	want := "Name:         Area2D\nInstantiable: true\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestFormatChain(t *testing.T) {
	steps := []ChainStep{
		{Name: "ChildScript", Origin: "gdscript"},
		{Name: "Node2D", Origin: "native"},
		{Name: "Object", Origin: "native"},
	}

	if got := FormatChain(steps, false, true); got != "ChildScript → Node2D → Object" {
		t.Errorf("unexpected chain %q", got)
	}
	if got := FormatChain(steps[:1], true, true); got != "ChildScript [gdscript]" {
		t.Errorf("unexpected chain with origin %q", got)
	}
}

func TestFormatChainColor(t *testing.T) {
	saved := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = saved }()

	got := FormatChain([]ChainStep{{Name: "Node", Origin: "native"}}, false, false)
	if !strings.Contains(got, "\x1b[") {
		t.Errorf("expected colored output, got %q", got)
	}
}

func TestFormatVerdict(t *testing.T) {
	if FormatVerdict(true, true) != "true" || FormatVerdict(false, true) != "false" {
		t.Error("unexpected verdict rendering")
	}
}
