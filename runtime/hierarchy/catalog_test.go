package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Partitions(t *testing.T) {
	reg := buildRegistry(t, newGodotHost())

	natives, err := reg.Classes(OriginNative)
	require.NoError(t, err)
	names := make([]string, 0, len(natives))
	for _, d := range natives {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{"Area2D", "CanvasItem", "MyPlugin", "Node", "Node2D", "Node3D", "Object", "RefCounted"}, names)

	gd, err := reg.Classes(OriginGDScript)
	require.NoError(t, err)
	assert.Len(t, gd, 4)

	cs, err := reg.Classes(OriginCSharp)
	require.NoError(t, err)
	assert.Len(t, cs, 2)
}

func TestBuild_NativeFilterAndRelink(t *testing.T) {
	reg := buildRegistry(t, newGodotHost())

	t.Run("abstract class without members is skipped", func(t *testing.T) {
		_, err := reg.GetNativeDescriptor("CollisionObject2D", false)
		assert.True(t, IsNotFound(err))
		_, err = reg.GetNativeDescriptor("Marker", false)
		assert.True(t, IsNotFound(err))
	})

	t.Run("abstract class with members is kept", func(t *testing.T) {
		desc, err := reg.GetNativeDescriptor("CanvasItem", true)
		require.NoError(t, err)
		assert.False(t, desc.Instantiable)
		assert.Equal(t, "Node", desc.BaseName)
	})

	t.Run("bases skip omitted ancestors", func(t *testing.T) {
		desc, err := reg.GetNativeDescriptor("Area2D", true)
		require.NoError(t, err)
		assert.Equal(t, "Node2D", desc.BaseName)

		plugin, err := reg.GetNativeDescriptor("MyPlugin", true)
		require.NoError(t, err)
		assert.Equal(t, "Node", plugin.BaseName)
	})

	t.Run("every base resolves in the native partition", func(t *testing.T) {
		natives, err := reg.Classes(OriginNative)
		require.NoError(t, err)
		for _, d := range natives {
			if d.BaseName == "" {
				assert.Equal(t, "Object", d.Name)
				continue
			}
			_, err := reg.GetNativeDescriptor(d.BaseName, false)
			assert.NoError(t, err, "base of %s", d.Name)
		}
	})
}

func TestBuild_Exclusion(t *testing.T) {
	h := newGodotHost()
	h.add("EditorPlugin", "Node", "res://editor_plugin.gd", nil)
	reg := buildRegistry(t, h)

	_, err := reg.GetNativeDescriptor("EditorPlugin", true)
	require.Error(t, err)
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, OriginNative, nf.Origin)
	assert.True(t, reg.Excluded("EditorPlugin"))
	assert.False(t, reg.Excluded("Node"))

	// Same literal name in a scripted partition is unaffected
	desc, err := reg.GetScriptedDescriptor(OriginGDScript, "EditorPlugin", true)
	require.NoError(t, err)
	assert.Equal(t, "EditorPlugin", desc.Name)
}

func TestBuild_ScriptedLinking(t *testing.T) {
	reg := buildRegistry(t, newGodotHost())

	child, err := reg.GetScriptedDescriptor(OriginGDScript, "ChildScript", true)
	require.NoError(t, err)
	assert.Equal(t, "ParentScript", child.BaseName)
	assert.Empty(t, child.NativeBase)

	parent, err := reg.GetScriptedDescriptor(OriginGDScript, "ParentScript", true)
	require.NoError(t, err)
	assert.Empty(t, parent.BaseName)
	assert.Equal(t, "Node", parent.NativeBase)

	t.Run("base declared by path", func(t *testing.T) {
		grand, err := reg.GetScriptedDescriptor(OriginGDScript, "GrandChildScript", true)
		require.NoError(t, err)
		assert.Equal(t, "ChildScript", grand.BaseName)
	})

	t.Run("wrong partition is not found", func(t *testing.T) {
		_, err := reg.GetScriptedDescriptor(OriginCSharp, "ChildScript", false)
		assert.True(t, IsNotFound(err))
	})

	t.Run("native origin rejected", func(t *testing.T) {
		_, err := reg.GetScriptedDescriptor(OriginNative, "Node", false)
		assert.Error(t, err)
	})
}

func TestBuild_OmittedNativeBaseRelinked(t *testing.T) {
	reg := buildRegistry(t, newOmittedBaseHost())

	tool, err := reg.GetScriptedDescriptor(OriginGDScript, "ToolScript", true)
	require.NoError(t, err)
	assert.Equal(t, "Node", tool.NativeBase, "excluded base moves to nearest retained ancestor")

	area, err := reg.GetScriptedDescriptor(OriginGDScript, "AreaBase", true)
	require.NoError(t, err)
	assert.Equal(t, "Node2D", area.NativeBase, "filtered base moves to nearest retained ancestor")

	orphan, err := reg.GetScriptedDescriptor(OriginCSharp, "OrphanTool", true)
	require.NoError(t, err)
	assert.Empty(t, orphan.NativeBase)

	var dangling []Diagnostic
	for _, d := range reg.Diagnostics() {
		if d.Code == CodeDanglingBase {
			dangling = append(dangling, d)
		}
	}
	require.Len(t, dangling, 1)
	assert.Equal(t, "OrphanTool", dangling[0].Class)
	assert.Equal(t, OriginCSharp, dangling[0].Origin)
	assert.Contains(t, dangling[0].Message, "VanishedNative")
}

func TestBuild_LoadFailureIsIsolated(t *testing.T) {
	h := newGodotHost()
	h.decls = append(h.decls, Declaration{Name: "Broken", LoadPath: "res://broken.gd"})
	h.broken["res://broken.gd"] = errors.New("parse error")

	reg := buildRegistry(t, h)

	_, err := reg.GetScriptedDescriptor(OriginGDScript, "Broken", false)
	assert.True(t, IsNotFound(err))

	_, err = reg.GetScriptedDescriptor(OriginGDScript, "ChildScript", false)
	assert.NoError(t, err)

	failures := reg.LoadFailures()
	require.Len(t, failures, 1)
	assert.Equal(t, "Broken", failures[0].Name)
	assert.ErrorIs(t, failures[0], ErrLoadFailed)

	var codes []string
	for _, d := range reg.Diagnostics() {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, CodeLoadFailure)
}

func TestBuild_AnchorMissing(t *testing.T) {
	h := newGodotHost()
	h.broken["res://Type.gd"] = errors.New("file not found")

	reg := New(h, DefaultOptions())
	err := reg.Build()
	require.Error(t, err)
	assert.True(t, IsNotInitialized(err))

	var initErr *InitializationError
	require.True(t, errors.As(err, &initErr))
	assert.Equal(t, CodeAnchorMissing, initErr.Code)

	t.Run("queries short-circuit to the same error", func(t *testing.T) {
		_, qerr := reg.InheritFrom(context.Background(), "Area2D", "Node2D", true)
		assert.Same(t, err, qerr)

		_, qerr = reg.ExtendingFrom(&fakeObject{native: "Node"})
		assert.Same(t, err, qerr)

		_, qerr = reg.GetNativeDescriptor("Node", true)
		assert.Same(t, err, qerr)
	})

	t.Run("diagnostics survive", func(t *testing.T) {
		assert.NotEmpty(t, reg.Diagnostics())
	})
}

func TestBuild_AnchorWithWrongBase(t *testing.T) {
	h := newGodotHost()
	h.scripts["res://Type.gd"] = ClassDescriptor{Name: "Type", BaseName: "Node"}

	err := New(h, DefaultOptions()).Build()
	assert.True(t, IsNotInitialized(err))
}

func TestBuild_Twice(t *testing.T) {
	reg := buildRegistry(t, newGodotHost())
	err := reg.Build()
	require.Error(t, err)

	// The first build stays usable
	ok, err := reg.InheritFrom(context.Background(), "Area2D", "Node", true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBuild_NilHost(t *testing.T) {
	reg := New(nil, DefaultOptions())
	assert.True(t, IsNotInitialized(reg.Build()))
}

func TestQueryBeforeBuild(t *testing.T) {
	reg := New(newGodotHost(), DefaultOptions())

	_, err := reg.InheritFrom(context.Background(), "Area2D", "Node2D", true)
	assert.True(t, IsNotInitialized(err))

	_, err = reg.ExtendingFrom(&fakeObject{native: "Node"})
	assert.True(t, IsNotInitialized(err))

	_, err = reg.Classes(OriginNone)
	assert.True(t, IsNotInitialized(err))

	assert.True(t, IsNotInitialized(reg.InvalidatePair(context.Background(), "Area2D", "Node2D")))

	assert.Nil(t, reg.Diagnostics())
}

func TestBuild_AmbiguousName(t *testing.T) {
	h := newGodotHost()
	h.add("Shared", "Node", "res://shared.gd", nil)
	h.add("Shared", "Node3D", "res://Shared.cs", nil)

	reg := buildRegistry(t, h)

	var found bool
	for _, d := range reg.Diagnostics() {
		if d.Code == CodeAmbiguousName && d.Class == "Shared" {
			found = true
		}
	}
	assert.True(t, found, "expected ambiguity diagnostic")

	// Name lookups take the gdscript declaration
	chain, err := reg.ChainOf("Shared")
	require.NoError(t, err)
	assert.Equal(t, []string{"Shared", "Node", "Object"}, chain.Names())
	assert.Equal(t, OriginGDScript, chain[0].Origin)

	// Both remain reachable through partition accessors
	cs, err := reg.GetScriptedDescriptor(OriginCSharp, "Shared", true)
	require.NoError(t, err)
	assert.Equal(t, "Node3D", cs.NativeBase)
}

func TestBuild_DuplicateInPartition(t *testing.T) {
	h := newGodotHost()
	h.add("ParentScript", "Node3D", "res://other_parent.gd", nil)

	reg := buildRegistry(t, h)

	desc, err := reg.GetScriptedDescriptor(OriginGDScript, "ParentScript", true)
	require.NoError(t, err)
	assert.Equal(t, "Node", desc.NativeBase, "first declaration wins")
}

func TestBuild_Cycles(t *testing.T) {
	h := newGodotHost()
	h.add("LoopA", "LoopB", "res://loop_a.gd", nil)
	h.add("LoopB", "LoopA", "res://loop_b.gd", nil)
	h.natives = append(h.natives,
		NativeClass{Name: "Ouro", BaseName: "Boros", Instantiable: true, MemberCount: 1},
		NativeClass{Name: "Boros", BaseName: "Ouro", Instantiable: true, MemberCount: 1},
	)

	reg := buildRegistry(t, h)

	chain, err := reg.ChainOf("LoopA")
	require.NoError(t, err)
	assert.Equal(t, []string{"LoopA", "LoopB"}, chain.Names())

	chain, err = reg.ChainOf("Ouro")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(chain), 2)

	var cycles int
	for _, d := range reg.Diagnostics() {
		if d.Code == CodeCycle {
			cycles++
		}
	}
	assert.GreaterOrEqual(t, cycles, 2)

	for _, d := range reg.Diagnostics() {
		if d.Code != CodeCycle {
			continue
		}
		switch d.Class {
		case "LoopA", "LoopB":
			assert.Contains(t, d.Message, "gdscript base chain")
		case "Ouro", "Boros":
			assert.Contains(t, d.Message, "native base chain")
		}
	}
}

func TestBuild_CrossRuntimeBase(t *testing.T) {
	h := newGodotHost()
	h.add("CSharpOnGD", "ParentScript", "res://CSharpOnGD.cs", nil)

	reg := buildRegistry(t, h)

	desc, err := reg.GetScriptedDescriptor(OriginCSharp, "CSharpOnGD", true)
	require.NoError(t, err)
	assert.Equal(t, "Node", desc.NativeBase)
}

func TestBuild_UnknownOrigin(t *testing.T) {
	h := newGodotHost()
	h.decls = append(h.decls, Declaration{Name: "Shader", LoadPath: "res://shader.gdshader"})

	reg := buildRegistry(t, h)

	var codes []string
	for _, d := range reg.Diagnostics() {
		codes = append(codes, d.Code)
	}
	assert.Contains(t, codes, CodeUnknownOrigin)
}

func TestDescriptorCopiesAreIsolated(t *testing.T) {
	reg := buildRegistry(t, newGodotHost())

	anchor, err := reg.GetScriptedDescriptor(OriginGDScript, "Type", true)
	require.NoError(t, err)
	anchor.Properties[DefaultExclusionProperty][0] = "MODIFIED"

	again, err := reg.GetScriptedDescriptor(OriginGDScript, "Type", true)
	require.NoError(t, err)
	assert.Equal(t, "EditorPlugin", again.Properties[DefaultExclusionProperty][0])
}
