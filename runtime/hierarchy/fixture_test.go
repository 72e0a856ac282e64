package hierarchy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeObject is an engine object with an optional attached script
type fakeObject struct {
	native string
	script string
}

// fakeHost serves a fixed class set
type fakeHost struct {
	decls   []Declaration
	natives []NativeClass
	scripts map[string]ClassDescriptor
	broken  map[string]error

	loads int
}

func (h *fakeHost) EnumerateDeclaredClasses() []Declaration { return h.decls }

func (h *fakeHost) EnumerateNativeClasses() []NativeClass { return h.natives }

func (h *fakeHost) LoadScriptedDescriptor(path string) (ClassDescriptor, error) {
	h.loads++
	if err, ok := h.broken[path]; ok {
		return ClassDescriptor{}, err
	}
	desc, ok := h.scripts[path]
	if !ok {
		return ClassDescriptor{}, errors.New("no such file")
	}
	return desc, nil
}

func (h *fakeHost) GetRuntimeClassName(obj any) (string, bool) {
	o, ok := obj.(*fakeObject)
	if !ok || o == nil || o.native == "" {
		return "", false
	}
	return o.native, true
}

func (h *fakeHost) GetDeclaredScriptName(obj any) (string, bool) {
	o, ok := obj.(*fakeObject)
	if !ok || o == nil || o.script == "" {
		return "", false
	}
	return o.script, true
}

// add declares a script class whose file loads to the given descriptor
func (h *fakeHost) add(name, base, path string, props map[string][]string) {
	h.decls = append(h.decls, Declaration{Name: name, Base: base, LoadPath: path})
	h.scripts[path] = ClassDescriptor{Name: name, BaseName: base, Path: path, Properties: props}
}

// newGodotHost builds a small engine-like class set:
//
//	Object
//	├── RefCounted
//	└── Node
//	    ├── CanvasItem (abstract, members)
//	    │   └── Node2D
//	    │       └── CollisionObject2D (abstract, no members: filtered)
//	    │           └── Area2D
//	    ├── Node3D
//	    └── EditorPlugin (excluded by anchor)
//	        └── MyPlugin
func newGodotHost() *fakeHost {
	h := &fakeHost{
		natives: []NativeClass{
			{Name: "Area2D", BaseName: "CollisionObject2D", Instantiable: true, MemberCount: 12},
			{Name: "Object", Instantiable: true, MemberCount: 30},
			{Name: "RefCounted", BaseName: "Object", Instantiable: true, MemberCount: 3},
			{Name: "Node", BaseName: "Object", Instantiable: true, MemberCount: 80},
			{Name: "CanvasItem", BaseName: "Node", Instantiable: false, MemberCount: 40},
			{Name: "Node2D", BaseName: "CanvasItem", Instantiable: true, MemberCount: 20},
			{Name: "CollisionObject2D", BaseName: "Node2D", Instantiable: false, MemberCount: 0},
			{Name: "Node3D", BaseName: "Node", Instantiable: true, MemberCount: 25},
			{Name: "EditorPlugin", BaseName: "Node", Instantiable: true, MemberCount: 50},
			{Name: "MyPlugin", BaseName: "EditorPlugin", Instantiable: true, MemberCount: 1},
			{Name: "Marker", BaseName: "Object", Instantiable: false, MemberCount: 0},
		},
		scripts: make(map[string]ClassDescriptor),
		broken:  make(map[string]error),
	}

	h.add("Type", "RefCounted", "res://Type.gd", map[string][]string{
		DefaultExclusionProperty: {"EditorPlugin"},
	})
	h.add("ParentScript", "Node", "res://parent_script.gd", nil)
	h.add("ChildScript", "ParentScript", "res://child_script.gd", nil)
	h.add("GrandChildScript", "res://child_script.gd", "res://grand_child_script.gd", nil)
	h.add("TestParentCSharp", "Node2D", "res://TestParentCSharp.cs", nil)
	h.add("TestChildCSharp", "TestParentCSharp", "res://TestChildCSharp.cs", nil)
	return h
}

func buildRegistry(t *testing.T, h Host) *Registry {
	t.Helper()
	reg := New(h, DefaultOptions())
	require.NoError(t, reg.Build())
	return reg
}

// newOmittedBaseHost adds scripts whose native base never enters the catalog
func newOmittedBaseHost() *fakeHost {
	h := newGodotHost()
	h.add("ToolScript", "EditorPlugin", "res://tool_script.gd", nil)
	h.add("AreaBase", "CollisionObject2D", "res://area_base.gd", nil)
	h.add("AreaChild", "AreaBase", "res://area_child.gd", nil)
	h.add("OrphanTool", "VanishedNative", "res://OrphanTool.cs", nil)
	return h
}
