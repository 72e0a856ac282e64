package hierarchy

import (
	"fmt"
	"strings"
)

// Origin identifies which type system declared a class.
type Origin int

const (
	// OriginNone marks the "Nil" sentinel produced for objects with no resolvable class.
	OriginNone Origin = iota
	// OriginNative is the compiled engine class hierarchy.
	OriginNative
	// OriginGDScript is the first scripted runtime. Name lookups try it first.
	OriginGDScript
	// OriginCSharp is the second scripted runtime.
	OriginCSharp
)

// scriptedOrigins lists the scripted partitions in lookup order.
var scriptedOrigins = []Origin{OriginGDScript, OriginCSharp}

// String returns the lowercase name of the origin
func (o Origin) String() string {
	switch o {
	case OriginNative:
		return "native"
	case OriginGDScript:
		return "gdscript"
	case OriginCSharp:
		return "csharp"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler
func (o Origin) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (o *Origin) UnmarshalText(text []byte) error {
	parsed, ok := ParseOrigin(string(text))
	if !ok && string(text) != "none" {
		return fmt.Errorf("unknown origin %q", string(text))
	}
	*o = parsed
	return nil
}

// Scripted reports whether the origin is one of the scripted runtimes.
func (o Origin) Scripted() bool {
	return o == OriginGDScript || o == OriginCSharp
}

// ParseOrigin converts a user supplied origin name. The empty string maps to OriginNone.
func ParseOrigin(s string) (Origin, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return OriginNone, true
	case "native", "engine":
		return OriginNative, true
	case "gdscript", "gd":
		return OriginGDScript, true
	case "csharp", "cs", "c#":
		return OriginCSharp, true
	}
	return OriginNone, false
}

// OriginForPath infers a scripted origin from a load path extension.
func OriginForPath(path string) Origin {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".gd"):
		return OriginGDScript
	case strings.HasSuffix(lower, ".cs"):
		return OriginCSharp
	}
	return OriginNone
}

// NilName is the readable name of the sentinel emitted for unresolvable objects.
const NilName = "Nil"

// ClassDescriptor describes one declared class regardless of origin.
type ClassDescriptor struct {
	Name   string `json:"name"`
	Origin Origin `json:"origin"`

	// BaseName is the immediate ancestor in the same origin, empty at a root or boundary.
	BaseName string `json:"base_name,omitempty"`

	// NativeBase is set on scripted classes at the boundary: the native class
	// the scripted chain falls through to.
	NativeBase string `json:"native_base,omitempty"`

	Instantiable        bool `json:"instantiable"`
	DeclaredMemberCount int  `json:"declared_member_count"`

	// Path is the load path for scripted classes.
	Path string `json:"path,omitempty"`

	// Properties holds script-level constant lists (e.g. the anchor's exclusion list).
	Properties map[string][]string `json:"properties,omitempty"`
}

// Class returns the chain handle for the descriptor.
func (d ClassDescriptor) Class() Class {
	return Class{Origin: d.Origin, Name: d.Name}
}

// clone returns a copy that shares no mutable state with d.
func (d ClassDescriptor) clone() ClassDescriptor {
	if d.Properties == nil {
		return d
	}
	props := make(map[string][]string, len(d.Properties))
	for k, v := range d.Properties {
		props[k] = append([]string(nil), v...)
	}
	d.Properties = props
	return d
}

// Class is an opaque chain entry. Two entries are equal iff origin and name match,
// so plain == comparison is the intended equality test.
type Class struct {
	Origin Origin `json:"origin"`
	Name   string `json:"name"`
}

// NilClass is the sentinel for objects with no resolvable class.
var NilClass = Class{Origin: OriginNone, Name: NilName}

// String implements fmt.Stringer
func (c Class) String() string {
	if c.Origin == OriginNone {
		return c.Name
	}
	return c.Origin.String() + ":" + c.Name
}

// Chain is an ancestor chain ordered leaf-most first, root-most last.
type Chain []Class

// Names returns the readable-name snapshot of the chain.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, cls := range c {
		names[i] = cls.Name
	}
	return names
}

// Contains reports whether a class with the given name appears in the chain.
func (c Chain) Contains(name string) bool {
	for _, cls := range c {
		if cls.Name == name {
			return true
		}
	}
	return false
}

// Pair is the ordered (child, parent) key of an inheritance verdict.
// Inheritance is directional: Pair{A, B} and Pair{B, A} are distinct keys.
type Pair struct {
	Child  string
	Parent string
}

// String implements fmt.Stringer
func (p Pair) String() string {
	return p.Child + "->" + p.Parent
}
