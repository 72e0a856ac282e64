package host

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/conduit-lang/lineage/runtime/hierarchy"
)

var gdLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `#[^\n]*`},
	{Name: "String", Pattern: `"(\\.|[^"\\])*"|'(\\.|[^'\\])*'`},
	{Name: "Annotation", Pattern: `@[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Number", Pattern: `[0-9][0-9_.xXa-fA-F]*`},
	{Name: "Walrus", Pattern: `:=`},
	{Name: "Newline", Pattern: `\n`},
	{Name: "Whitespace", Pattern: `[ \t\r]+`},
	{Name: "Punct", Pattern: `[^\sa-zA-Z0-9_"'#@]`},
})

var csLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `@?"(\\.|[^"\\])*"`},
	{Name: "Char", Pattern: `'(\\.|[^'\\])'`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Number", Pattern: `[0-9][0-9_.xXa-fA-FuUlLmMdD]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Punct", Pattern: `[^\sa-zA-Z0-9_"']`},
})

// ParseScript extracts the class header of a GDScript or C# source file.
// Only the declarations the type registry needs are read: the class name,
// the declared base, top-level string-list constants and a member count.
func ParseScript(path string, src []byte) (hierarchy.ClassDescriptor, error) {
	switch hierarchy.OriginForPath(path) {
	case hierarchy.OriginGDScript:
		return parseGDScript(path, string(src))
	case hierarchy.OriginCSharp:
		return parseCSharp(path, string(src))
	}
	return hierarchy.ClassDescriptor{}, fmt.Errorf("unsupported script type: %s", path)
}

// tokenStream is a token slice with whitespace and comments removed
type tokenStream struct {
	toks []lexer.Token
	syms map[lexer.TokenType]string
}

func tokenize(def *lexer.StatefulDefinition, path, src string, keepNewlines bool) (*tokenStream, error) {
	lex, err := def.LexString(path, src)
	if err != nil {
		return nil, err
	}
	all, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize %s: %w", path, err)
	}

	syms := make(map[lexer.TokenType]string)
	for name, typ := range def.Symbols() {
		syms[typ] = name
	}

	ts := &tokenStream{syms: syms}
	for _, tok := range all {
		switch syms[tok.Type] {
		case "Whitespace", "Comment":
			continue
		case "Newline":
			if !keepNewlines {
				continue
			}
		}
		if tok.EOF() {
			continue
		}
		ts.toks = append(ts.toks, tok)
	}
	return ts, nil
}

func (ts *tokenStream) kind(i int) string {
	if i < 0 || i >= len(ts.toks) {
		return ""
	}
	return ts.syms[ts.toks[i].Type]
}

func (ts *tokenStream) value(i int) string {
	if i < 0 || i >= len(ts.toks) {
		return ""
	}
	return ts.toks[i].Value
}

func (ts *tokenStream) is(i int, kind, value string) bool {
	return ts.kind(i) == kind && ts.value(i) == value
}

// dotted reads a dotted identifier starting at i and returns it with the index after it.
func (ts *tokenStream) dotted(i int) (string, int) {
	if ts.kind(i) != "Ident" {
		return "", i
	}
	parts := []string{ts.value(i)}
	i++
	for ts.is(i, "Punct", ".") && ts.kind(i+1) == "Ident" {
		parts = append(parts, ts.value(i+1))
		i += 2
	}
	return strings.Join(parts, "."), i
}

// stringList collects string literals between an opening bracket at i and
// its matching close. It returns the index after the close.
func (ts *tokenStream) stringList(i int, open, close string) ([]string, int, bool) {
	if !ts.is(i, "Punct", open) {
		return nil, i, false
	}
	var values []string
	depth := 0
	for ; i < len(ts.toks); i++ {
		switch {
		case ts.is(i, "Punct", open):
			depth++
		case ts.is(i, "Punct", close):
			depth--
			if depth == 0 {
				return values, i + 1, true
			}
		case ts.kind(i) == "String":
			values = append(values, unquote(ts.value(i)))
		}
	}
	return values, i, false
}

func unquote(s string) string {
	s = strings.TrimPrefix(s, "@")
	if strings.HasPrefix(s, `"`) {
		if v, err := strconv.Unquote(s); err == nil {
			return v
		}
	}
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}

func parseGDScript(path, src string) (hierarchy.ClassDescriptor, error) {
	ts, err := tokenize(gdLexer, path, src, true)
	if err != nil {
		return hierarchy.ClassDescriptor{}, err
	}

	desc := hierarchy.ClassDescriptor{Origin: hierarchy.OriginGDScript, Path: path}
	sawExtends := false
	lineStart, indented, innerClass := true, false, false

	for i := 0; i < len(ts.toks); {
		if ts.kind(i) == "Newline" {
			lineStart, innerClass = true, false
			i++
			continue
		}
		if lineStart {
			indented = ts.toks[i].Pos.Column > 1
			lineStart = false
		}
		if indented || ts.kind(i) != "Ident" {
			i++
			continue
		}

		switch ts.value(i) {
		case "class_name":
			if name, next := ts.dotted(i + 1); name != "" {
				desc.Name = name
				i = next
				continue
			}
		case "class":
			innerClass = true
		case "extends":
			if innerClass || sawExtends {
				break
			}
			sawExtends = true
			if ts.kind(i+1) == "String" {
				desc.BaseName = unquote(ts.value(i + 1))
				i += 2
				continue
			}
			if base, next := ts.dotted(i + 1); base != "" {
				desc.BaseName = base
				i = next
				continue
			}
		case "func", "var", "signal":
			desc.DeclaredMemberCount++
		case "const":
			desc.DeclaredMemberCount++
			if next, ok := parseGDConst(ts, i+1, &desc); ok {
				i = next
				continue
			}
		}
		i++
	}

	if desc.Name == "" && !sawExtends {
		return desc, fmt.Errorf("%s declares neither class_name nor extends", path)
	}
	return desc, nil
}

// parseGDConst reads `const NAME [: Type] = [ "a", "b" ]` starting at the name.
func parseGDConst(ts *tokenStream, i int, desc *hierarchy.ClassDescriptor) (int, bool) {
	if ts.kind(i) != "Ident" {
		return i, false
	}
	name := ts.value(i)
	j := i + 1
	for j < len(ts.toks) && ts.kind(j) != "Newline" {
		if ts.kind(j) == "Walrus" || ts.is(j, "Punct", "=") {
			break
		}
		j++
	}
	if ts.kind(j) != "Walrus" && !ts.is(j, "Punct", "=") {
		return i, false
	}

	values, next, ok := ts.stringList(j+1, "[", "]")
	if !ok {
		return i, false
	}
	if desc.Properties == nil {
		desc.Properties = make(map[string][]string)
	}
	desc.Properties[name] = values
	return next, true
}

type csClass struct {
	name   string
	base   string
	global bool
}

func parseCSharp(path, src string) (hierarchy.ClassDescriptor, error) {
	ts, err := tokenize(csLexer, path, src, false)
	if err != nil {
		return hierarchy.ClassDescriptor{}, err
	}

	var classes []csClass
	props := make(map[string][]string)
	members := 0
	pendingGlobal := false

	for i := 0; i < len(ts.toks); {
		switch {
		case ts.is(i, "Punct", "[") && ts.is(i+1, "Ident", "GlobalClass"):
			pendingGlobal = true
			i += 2
			continue

		case ts.is(i, "Ident", "class") && ts.kind(i+1) == "Ident":
			cls := csClass{name: ts.value(i + 1), global: pendingGlobal}
			pendingGlobal = false
			j := i + 2
			if ts.is(j, "Punct", ":") {
				base, _ := ts.dotted(j + 1)
				cls.base = base[strings.LastIndex(base, ".")+1:]
			}
			classes = append(classes, cls)
			i = j
			continue

		case ts.kind(i) == "Ident" && ts.is(i+1, "Punct", "="):
			j := i + 2
			for ts.is(j, "Ident", "new") || ts.is(j, "Ident", "string") || ts.is(j, "Punct", "[") && ts.is(j+1, "Punct", "]") {
				if ts.is(j, "Punct", "[") {
					j += 2
					continue
				}
				j++
			}
			if values, next, ok := ts.stringList(j, "{", "}"); ok {
				props[ts.value(i)] = values
				members++
				i = next
				continue
			}

		case ts.kind(i) == "Ident" && ts.is(i+1, "Punct", "(") && isCSMemberModifierBefore(ts, i):
			members++
		}
		i++
	}

	if len(classes) == 0 {
		return hierarchy.ClassDescriptor{}, fmt.Errorf("%s declares no class", path)
	}

	chosen := classes[0]
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, cls := range classes {
		if cls.name == stem {
			chosen = cls
		}
	}
	for _, cls := range classes {
		if cls.global {
			chosen = cls
			break
		}
	}

	desc := hierarchy.ClassDescriptor{
		Name:                chosen.name,
		Origin:              hierarchy.OriginCSharp,
		BaseName:            chosen.base,
		Path:                path,
		DeclaredMemberCount: members,
	}
	if len(props) > 0 {
		desc.Properties = props
	}
	return desc, nil
}

// isCSMemberModifierBefore reports whether the identifier at i looks like a
// method declaration: preceded by a return type and an access or override modifier.
func isCSMemberModifierBefore(ts *tokenStream, i int) bool {
	for j := i - 1; j >= 0 && j >= i-4; j-- {
		switch ts.value(j) {
		case "public", "private", "protected", "internal", "override", "static", "virtual":
			return true
		case ";", "{", "}", "(":
			return false
		}
	}
	return false
}
