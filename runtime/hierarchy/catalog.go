package hierarchy

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Catalog holds the partitioned, name-keyed class registries.
// It is populated once by buildCatalog and never mutated afterwards.
type Catalog struct {
	partitions map[Origin]map[string]*ClassDescriptor
	excluded   map[string]struct{}
	anchor     *ClassDescriptor

	// ambiguous holds names declared in more than one scripted partition
	ambiguous map[string]struct{}

	diagnostics []Diagnostic
	loadErrors  []*LoadFailure
}

func newCatalog() *Catalog {
	return &Catalog{
		partitions: map[Origin]map[string]*ClassDescriptor{
			OriginNative:   make(map[string]*ClassDescriptor),
			OriginGDScript: make(map[string]*ClassDescriptor),
			OriginCSharp:   make(map[string]*ClassDescriptor),
		},
		excluded:  make(map[string]struct{}),
		ambiguous: make(map[string]struct{}),
	}
}

// catalogBuilder carries the state of a single build.
type catalogBuilder struct {
	host   Host
	opts   Options
	logger *zap.Logger
	cat    *Catalog

	// declaredBase keeps the raw base of each scripted class before linking
	declaredBase map[Class]string

	// natives is the full enumeration, including filtered and excluded classes
	natives  map[string]NativeClass
	eligible func(NativeClass) bool
}

// buildCatalog enumerates the host and produces a frozen catalog.
// A missing anchor is returned as an *InitializationError together with the
// partially built catalog so diagnostics remain inspectable.
func buildCatalog(host Host, opts Options, logger *zap.Logger) (*Catalog, error) {
	b := &catalogBuilder{
		host:         host,
		opts:         opts,
		logger:       logger,
		cat:          newCatalog(),
		declaredBase: make(map[Class]string),
	}

	b.loadScripted()
	b.detectAmbiguity()

	if err := b.locateAnchor(); err != nil {
		return b.cat, err
	}

	b.loadNative()
	b.linkScripted()

	logger.Info("type catalog built",
		zap.Int("native", len(b.cat.partitions[OriginNative])),
		zap.Int("gdscript", len(b.cat.partitions[OriginGDScript])),
		zap.Int("csharp", len(b.cat.partitions[OriginCSharp])),
		zap.Int("excluded", len(b.cat.excluded)),
		zap.Int("diagnostics", len(b.cat.diagnostics)),
	)
	return b.cat, nil
}

func (b *catalogBuilder) diag(d Diagnostic) {
	b.cat.diagnostics = append(b.cat.diagnostics, d)
	b.logger.Warn(d.Message,
		zap.String("code", d.Code),
		zap.Stringer("origin", d.Origin),
		zap.String("class", d.Class),
		zap.String("path", d.Path),
	)
}

// loadScripted loads every declared script class into its partition.
// Each failure is isolated to the one declaration that caused it.
func (b *catalogBuilder) loadScripted() {
	decls := b.host.EnumerateDeclaredClasses()

	// Bases may be declared by path, so index declarations by load path first
	byPath := make(map[string]string, len(decls))
	for _, decl := range decls {
		if decl.LoadPath != "" && decl.Name != "" {
			if _, exists := byPath[decl.LoadPath]; !exists {
				byPath[decl.LoadPath] = decl.Name
			}
		}
	}

	for _, decl := range decls {
		origin := decl.OriginHint
		if origin == OriginNone {
			origin = OriginForPath(decl.LoadPath)
		}
		if !origin.Scripted() {
			b.diag(Diagnostic{
				Code:    CodeUnknownOrigin,
				Class:   decl.Name,
				Path:    decl.LoadPath,
				Message: "cannot determine scripting runtime for declaration",
			})
			continue
		}

		desc, err := b.host.LoadScriptedDescriptor(decl.LoadPath)
		if err != nil {
			failure := &LoadFailure{Name: decl.Name, Path: decl.LoadPath, Err: err}
			b.cat.loadErrors = append(b.cat.loadErrors, failure)
			b.diag(Diagnostic{
				Code:    CodeLoadFailure,
				Origin:  origin,
				Class:   decl.Name,
				Path:    decl.LoadPath,
				Message: fmt.Sprintf("script descriptor failed to load: %v", err),
			})
			continue
		}

		desc.Origin = origin
		if decl.Name != "" {
			desc.Name = decl.Name
		}
		if desc.Name == "" {
			b.diag(Diagnostic{
				Code:    CodeLoadFailure,
				Origin:  origin,
				Path:    decl.LoadPath,
				Message: "script declares no class name",
			})
			continue
		}
		if desc.Path == "" {
			desc.Path = decl.LoadPath
		}

		base := desc.BaseName
		if base == "" {
			base = decl.Base
		}
		if isScriptPath(base) {
			if name, ok := byPath[base]; ok {
				base = name
			} else {
				b.diag(Diagnostic{
					Code:    CodeDanglingBase,
					Origin:  origin,
					Class:   desc.Name,
					Path:    base,
					Message: "base script path is not a declared class",
				})
				base = ""
			}
		}
		desc.BaseName = base

		partition := b.cat.partitions[origin]
		if _, exists := partition[desc.Name]; exists {
			b.diag(Diagnostic{
				Code:    CodeDuplicateName,
				Origin:  origin,
				Class:   desc.Name,
				Path:    decl.LoadPath,
				Message: "class already declared in this partition, keeping the first declaration",
			})
			continue
		}

		stored := desc.clone()
		partition[desc.Name] = &stored
		b.declaredBase[stored.Class()] = base
	}
}

// detectAmbiguity records names declared in both scripted partitions.
// Lookups by bare name then follow the GDScript-first tie-break.
func (b *catalogBuilder) detectAmbiguity() {
	gd := b.cat.partitions[OriginGDScript]
	cs := b.cat.partitions[OriginCSharp]
	for _, name := range sortedNames(gd) {
		if _, ok := cs[name]; ok {
			b.cat.ambiguous[name] = struct{}{}
			b.diag(Diagnostic{
				Code:    CodeAmbiguousName,
				Origin:  OriginGDScript,
				Class:   name,
				Message: "class name declared in both gdscript and csharp, name lookups resolve to gdscript",
			})
		}
	}
}

// locateAnchor finds the anchor class and reads the native exclusion set off it.
func (b *catalogBuilder) locateAnchor() error {
	for _, origin := range scriptedOrigins {
		desc, ok := b.cat.partitions[origin][b.opts.AnchorName]
		if !ok {
			continue
		}
		if b.opts.AnchorBase != "" && b.declaredBase[desc.Class()] != b.opts.AnchorBase {
			continue
		}
		b.cat.anchor = desc
		for _, name := range desc.Properties[b.opts.ExclusionProperty] {
			name = strings.TrimSpace(name)
			if name != "" {
				b.cat.excluded[name] = struct{}{}
			}
		}
		return nil
	}

	return &InitializationError{
		Code:   CodeAnchorMissing,
		Reason: fmt.Sprintf("anchor class %q extending %q is not declared or failed to load", b.opts.AnchorName, b.opts.AnchorBase),
	}
}

// loadNative registers eligible native classes. Base links are rewritten to
// the nearest retained ancestor so every BaseName resolves in the partition.
func (b *catalogBuilder) loadNative() {
	natives := b.host.EnumerateNativeClasses()
	all := make(map[string]NativeClass, len(natives))
	b.natives = all
	order := make([]string, 0, len(natives))
	for _, nc := range natives {
		if _, exists := all[nc.Name]; exists || nc.Name == "" {
			continue
		}
		all[nc.Name] = nc
		order = append(order, nc.Name)
	}

	eligible := func(nc NativeClass) bool {
		if !nc.Instantiable && nc.MemberCount == 0 {
			return false
		}
		_, excluded := b.cat.excluded[nc.Name]
		return !excluded
	}
	b.eligible = eligible

	partition := b.cat.partitions[OriginNative]
	for _, name := range order {
		nc := all[name]
		if !eligible(nc) {
			continue
		}
		partition[name] = &ClassDescriptor{
			Name:                name,
			Origin:              OriginNative,
			BaseName:            b.nearestRetained(all, nc, eligible),
			Instantiable:        nc.Instantiable,
			DeclaredMemberCount: nc.MemberCount,
		}
	}

	for _, name := range sortedNames(partition) {
		b.breakCycle(partition, partition[name])
	}
}

func (b *catalogBuilder) nearestRetained(all map[string]NativeClass, nc NativeClass, eligible func(NativeClass) bool) string {
	base, code, at := retainedAncestor(all, nc.Name, nc.BaseName, eligible)
	switch code {
	case CodeCycle:
		b.diag(Diagnostic{
			Code:    CodeCycle,
			Origin:  OriginNative,
			Class:   nc.Name,
			Message: fmt.Sprintf("native base chain loops at %q, treating class as a root", at),
		})
	case CodeDanglingBase:
		b.diag(Diagnostic{
			Code:    CodeDanglingBase,
			Origin:  OriginNative,
			Class:   nc.Name,
			Message: fmt.Sprintf("native base %q is not enumerated, treating class as a root", at),
		})
	}
	return base
}

// retainedAncestor follows native base links from next, skipping classes the
// eligibility filter drops. It returns the first eligible class, or an empty
// name with the diagnostic code and the offending name when the walk breaks.
func retainedAncestor(all map[string]NativeClass, from, next string, eligible func(NativeClass) bool) (string, string, string) {
	visited := map[string]bool{from: true}
	for next != "" {
		if visited[next] {
			return "", CodeCycle, next
		}
		visited[next] = true

		base, ok := all[next]
		if !ok {
			return "", CodeDanglingBase, next
		}
		if eligible(base) {
			return base.Name, "", ""
		}
		next = base.BaseName
	}
	return "", "", ""
}

// linkScripted splits each scripted base into a same-partition BaseName or a
// NativeBase boundary, then breaks any cycle inside a partition.
func (b *catalogBuilder) linkScripted() {
	for _, origin := range scriptedOrigins {
		partition := b.cat.partitions[origin]
		for _, name := range sortedNames(partition) {
			desc := partition[name]
			raw := desc.BaseName
			if _, same := partition[raw]; same && raw != name {
				continue
			}
			desc.BaseName = ""
			desc.NativeBase = raw
		}
	}

	for _, origin := range scriptedOrigins {
		partition := b.cat.partitions[origin]
		for _, name := range sortedNames(partition) {
			b.breakCycle(partition, partition[name])
		}
	}

	// Resolve every boundary to a cataloged native class. A base in the other
	// scripted runtime falls through to that class's native base, and a
	// filtered or excluded native base moves up to its nearest retained ancestor.
	for _, origin := range scriptedOrigins {
		partition := b.cat.partitions[origin]
		for _, name := range sortedNames(partition) {
			desc := partition[name]
			if desc.NativeBase == "" {
				continue
			}
			if _, native := b.cat.partitions[OriginNative][desc.NativeBase]; !native {
				if resolved, ok := b.foreignNativeBase(origin, desc.NativeBase); ok {
					desc.NativeBase = resolved
				}
			}
			b.retainNativeBase(desc)
		}
	}
}

// retainNativeBase points a scripted boundary at a class present in the native partition.
func (b *catalogBuilder) retainNativeBase(desc *ClassDescriptor) {
	raw := desc.NativeBase
	if _, cataloged := b.cat.partitions[OriginNative][raw]; cataloged {
		return
	}

	if nc, enumerated := b.natives[raw]; enumerated {
		base, _, _ := retainedAncestor(b.natives, nc.Name, nc.BaseName, b.eligible)
		desc.NativeBase = base
		b.logger.Debug("scripted class extends an omitted native class",
			zap.Stringer("origin", desc.Origin),
			zap.String("class", desc.Name),
			zap.String("declared", raw),
			zap.String("native_base", base),
		)
		return
	}

	desc.NativeBase = ""
	b.diag(Diagnostic{
		Code:    CodeDanglingBase,
		Origin:  desc.Origin,
		Class:   desc.Name,
		Path:    desc.Path,
		Message: fmt.Sprintf("base %q is not a known class, scripted chain ends here", raw),
	})
}

func (b *catalogBuilder) breakCycle(partition map[string]*ClassDescriptor, start *ClassDescriptor) {
	visited := map[string]bool{start.Name: true}
	for cur := start; cur.BaseName != ""; {
		next, ok := partition[cur.BaseName]
		if !ok {
			return
		}
		if visited[next.Name] {
			b.diag(Diagnostic{
				Code:    CodeCycle,
				Origin:  cur.Origin,
				Class:   cur.Name,
				Message: fmt.Sprintf("%s base chain loops back to %q, link removed", cur.Origin, next.Name),
			})
			cur.BaseName = ""
			return
		}
		visited[next.Name] = true
		cur = next
	}
}

func (b *catalogBuilder) foreignNativeBase(from Origin, name string) (string, bool) {
	for _, origin := range scriptedOrigins {
		if origin == from {
			continue
		}
		desc, ok := b.cat.partitions[origin][name]
		if !ok {
			continue
		}
		for _, cls := range walkBases(b.cat.partitions[origin], desc) {
			boundary := b.cat.partitions[origin][cls.Name]
			if boundary.BaseName == "" {
				return boundary.NativeBase, boundary.NativeBase != ""
			}
		}
	}
	return "", false
}

// Lookup returns the descriptor for name in the given partition.
func (c *Catalog) Lookup(origin Origin, name string) (ClassDescriptor, error) {
	desc, ok := c.lookup(origin, name)
	if !ok {
		return ClassDescriptor{}, &NotFoundError{Origin: origin, Name: name}
	}
	return desc.clone(), nil
}

func (c *Catalog) lookup(origin Origin, name string) (*ClassDescriptor, bool) {
	partition, ok := c.partitions[origin]
	if !ok {
		return nil, false
	}
	desc, ok := partition[name]
	return desc, ok
}

// resolveName finds a bare class name, trying scripted partitions in
// tie-break order before the native one.
func (c *Catalog) resolveName(name string) (*ClassDescriptor, bool) {
	for _, origin := range scriptedOrigins {
		if desc, ok := c.partitions[origin][name]; ok {
			return desc, true
		}
	}
	return c.lookup(OriginNative, name)
}

// resolveScripted finds a scripted class name using the tie-break order.
func (c *Catalog) resolveScripted(name string) (*ClassDescriptor, bool) {
	for _, origin := range scriptedOrigins {
		if desc, ok := c.partitions[origin][name]; ok {
			return desc, true
		}
	}
	return nil, false
}

// Classes returns copies of every descriptor in a partition sorted by name.
// OriginNone returns all partitions in lookup order.
func (c *Catalog) Classes(origin Origin) []ClassDescriptor {
	origins := []Origin{origin}
	if origin == OriginNone {
		origins = append([]Origin{}, scriptedOrigins...)
		origins = append(origins, OriginNative)
	}

	var result []ClassDescriptor
	for _, o := range origins {
		partition := c.partitions[o]
		for _, name := range sortedNames(partition) {
			result = append(result, partition[name].clone())
		}
	}
	return result
}

// Excluded reports whether a native name was removed by the anchor's exclusion list.
func (c *Catalog) Excluded(name string) bool {
	_, ok := c.excluded[name]
	return ok
}

// Ambiguous reports whether a name is declared in both scripted partitions.
func (c *Catalog) Ambiguous(name string) bool {
	_, ok := c.ambiguous[name]
	return ok
}

// Anchor returns the anchor class descriptor.
func (c *Catalog) Anchor() (ClassDescriptor, bool) {
	if c.anchor == nil {
		return ClassDescriptor{}, false
	}
	return c.anchor.clone(), true
}

func sortedNames(partition map[string]*ClassDescriptor) []string {
	names := make([]string, 0, len(partition))
	for name := range partition {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isScriptPath(s string) bool {
	return strings.Contains(s, "://") || OriginForPath(s) != OriginNone
}
