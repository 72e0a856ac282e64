// Package host implements hierarchy.Host over a project directory: a YAML
// manifest listing the engine's native classes and live objects, plus the
// GDScript and C# sources that declare script classes.
package host

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/lineage/runtime/hierarchy"
)

// ResourcePrefix is the scheme of project-relative load paths.
const ResourcePrefix = "res://"

// Manifest is the on-disk project description
type Manifest struct {
	// Root is the project directory that res:// paths resolve against,
	// relative to the manifest file.
	Root string `yaml:"root"`

	// Discover scans Root for .gd and .cs files declaring script classes
	// in addition to the Scripts list.
	Discover bool `yaml:"discover"`

	Native  []NativeEntry `yaml:"native"`
	Scripts []ScriptEntry `yaml:"scripts"`
	Objects []ObjectEntry `yaml:"objects"`
}

// NativeEntry describes one engine class
type NativeEntry struct {
	Name         string `yaml:"name"`
	Base         string `yaml:"base"`
	Instantiable bool   `yaml:"instantiable"`
	Members      int    `yaml:"members"`
}

// ScriptEntry is one global script class declaration
type ScriptEntry struct {
	Name   string `yaml:"name"`
	Base   string `yaml:"base"`
	Path   string `yaml:"path"`
	Origin string `yaml:"origin"`
}

// ObjectEntry is a live object: a native instance with an optional script attached
type ObjectEntry struct {
	Name   string `yaml:"name"`
	Class  string `yaml:"class"`
	Script string `yaml:"script"`
}

// Object is the handle the project hands to the registry
type Object struct {
	ID     uuid.UUID
	Name   string
	Class  string
	Script string
}

// Project is a loaded manifest. It implements hierarchy.Host.
type Project struct {
	root     string
	manifest Manifest
	decls    []hierarchy.Declaration

	objects map[string]*Object
	byID    map[uuid.UUID]*Object
}

var _ hierarchy.Host = (*Project)(nil)

// objectNamespace seeds deterministic object IDs
var objectNamespace = uuid.MustParse("6f1c5b9e-3f43-4d0a-9a57-3c1f0b8de2a4")

// Load reads a manifest file and prepares the project host
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}

	root := manifest.Root
	if root == "" {
		root = "."
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(filepath.Dir(path), root)
	}

	return New(root, manifest)
}

// New creates a project host from an in-memory manifest rooted at root
func New(root string, manifest Manifest) (*Project, error) {
	p := &Project{
		root:     root,
		manifest: manifest,
		objects:  make(map[string]*Object),
		byID:     make(map[uuid.UUID]*Object),
	}

	for _, s := range manifest.Scripts {
		origin, ok := hierarchy.ParseOrigin(s.Origin)
		if !ok {
			return nil, fmt.Errorf("script %q has unknown origin %q", s.Name, s.Origin)
		}
		p.decls = append(p.decls, hierarchy.Declaration{
			Name:       s.Name,
			OriginHint: origin,
			Base:       s.Base,
			LoadPath:   s.Path,
		})
	}

	if manifest.Discover {
		discovered, err := p.discover()
		if err != nil {
			return nil, err
		}
		p.decls = append(p.decls, discovered...)
	}

	for _, o := range manifest.Objects {
		if o.Name == "" {
			return nil, fmt.Errorf("object without a name")
		}
		if _, exists := p.objects[o.Name]; exists {
			return nil, fmt.Errorf("duplicate object %q", o.Name)
		}
		obj := &Object{
			ID:     uuid.NewSHA1(objectNamespace, []byte(o.Name)),
			Name:   o.Name,
			Class:  o.Class,
			Script: p.scriptName(o.Script),
		}
		p.objects[o.Name] = obj
		p.byID[obj.ID] = obj
	}

	return p, nil
}

// discover declares every script under the root that names a class.
// Files that fail to parse are still declared, under their file stem, so the
// registry reports them as load failures.
func (p *Project) discover() ([]hierarchy.Declaration, error) {
	listed := make(map[string]bool, len(p.decls))
	for _, d := range p.decls {
		listed[d.LoadPath] = true
	}

	var decls []hierarchy.Declaration
	err := filepath.WalkDir(p.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != p.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if hierarchy.OriginForPath(path) == hierarchy.OriginNone {
			return nil
		}

		rel, err := filepath.Rel(p.root, path)
		if err != nil {
			return err
		}
		resPath := ResourcePrefix + filepath.ToSlash(rel)
		if listed[resPath] {
			return nil
		}

		desc, err := p.LoadScriptedDescriptor(resPath)
		if err != nil {
			stem := strings.TrimSuffix(d.Name(), filepath.Ext(d.Name()))
			decls = append(decls, hierarchy.Declaration{Name: stem, LoadPath: resPath})
			return nil
		}
		if desc.Name == "" {
			// Anonymous scripts are not global classes
			return nil
		}
		decls = append(decls, hierarchy.Declaration{Name: desc.Name, Base: desc.BaseName, LoadPath: resPath})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", p.root, err)
	}

	sort.Slice(decls, func(i, j int) bool { return decls[i].LoadPath < decls[j].LoadPath })
	return decls, nil
}

// scriptName maps an object's script reference (class name or res:// path) to a class name
func (p *Project) scriptName(ref string) string {
	if !strings.HasPrefix(ref, ResourcePrefix) {
		return ref
	}
	for _, d := range p.decls {
		if d.LoadPath == ref {
			return d.Name
		}
	}
	return ref
}

// Resolve maps a res:// path to a file path under the project root
func (p *Project) Resolve(resPath string) (string, error) {
	if !strings.HasPrefix(resPath, ResourcePrefix) {
		return "", fmt.Errorf("unsupported load path %q", resPath)
	}
	rel := filepath.FromSlash(strings.TrimPrefix(resPath, ResourcePrefix))
	full := filepath.Join(p.root, rel)
	if inside, err := filepath.Rel(p.root, full); err != nil || strings.HasPrefix(inside, "..") {
		return "", fmt.Errorf("load path %q escapes the project root", resPath)
	}
	return full, nil
}

// Root returns the project directory
func (p *Project) Root() string {
	return p.root
}

// Object returns a live object by name
func (p *Project) Object(name string) (*Object, bool) {
	obj, ok := p.objects[name]
	return obj, ok
}

// Objects returns the object names in sorted order
func (p *Project) Objects() []string {
	names := make([]string, 0, len(p.objects))
	for name := range p.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnumerateDeclaredClasses implements hierarchy.Host
func (p *Project) EnumerateDeclaredClasses() []hierarchy.Declaration {
	result := make([]hierarchy.Declaration, len(p.decls))
	copy(result, p.decls)
	return result
}

// EnumerateNativeClasses implements hierarchy.Host
func (p *Project) EnumerateNativeClasses() []hierarchy.NativeClass {
	result := make([]hierarchy.NativeClass, 0, len(p.manifest.Native))
	for _, n := range p.manifest.Native {
		result = append(result, hierarchy.NativeClass{
			Name:         n.Name,
			BaseName:     n.Base,
			Instantiable: n.Instantiable,
			MemberCount:  n.Members,
		})
	}
	return result
}

// LoadScriptedDescriptor implements hierarchy.Host
func (p *Project) LoadScriptedDescriptor(path string) (hierarchy.ClassDescriptor, error) {
	file, err := p.Resolve(path)
	if err != nil {
		return hierarchy.ClassDescriptor{}, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return hierarchy.ClassDescriptor{}, err
	}
	desc, err := ParseScript(path, src)
	if err != nil {
		return hierarchy.ClassDescriptor{}, err
	}
	desc.Path = path
	return desc, nil
}

func (p *Project) lookupObject(obj any) (*Object, bool) {
	switch o := obj.(type) {
	case *Object:
		return o, o != nil
	case uuid.UUID:
		found, ok := p.byID[o]
		return found, ok
	case string:
		found, ok := p.objects[o]
		return found, ok
	}
	return nil, false
}

// GetRuntimeClassName implements hierarchy.Host
func (p *Project) GetRuntimeClassName(obj any) (string, bool) {
	o, ok := p.lookupObject(obj)
	if !ok || o.Class == "" {
		return "", false
	}
	return o.Class, true
}

// GetDeclaredScriptName implements hierarchy.Host
func (p *Project) GetDeclaredScriptName(obj any) (string, bool) {
	o, ok := p.lookupObject(obj)
	if !ok || o.Script == "" {
		return "", false
	}
	return o.Script, true
}
