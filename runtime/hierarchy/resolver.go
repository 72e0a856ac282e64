package hierarchy

import "go.uber.org/zap"

// identityKind tags how an object's class identity was resolved.
type identityKind int

const (
	identityNone identityKind = iota
	identityNative
	identityScripted
)

// identity is an object's class identity, resolved once per query.
type identity struct {
	kind     identityKind
	scripted *ClassDescriptor
	native   string
}

// resolver walks ancestor chains over a frozen catalog.
type resolver struct {
	catalog *Catalog
	host    Host
	logger  *zap.Logger
}

// identify reads the object's declared script and runtime native class from the host.
// A script name missing from both scripted partitions is treated as absent.
func (r *resolver) identify(obj any) identity {
	var id identity
	if native, ok := r.host.GetRuntimeClassName(obj); ok {
		id.native = native
		id.kind = identityNative
	}
	if script, ok := r.host.GetDeclaredScriptName(obj); ok && script != "" {
		if desc, found := r.catalog.resolveScripted(script); found {
			id.scripted = desc
			id.kind = identityScripted
		} else {
			r.logger.Debug("declared script class not in catalog, falling through to native",
				zap.String("class", script))
		}
	}
	return id
}

// objectChain returns the object's chain: scripted leaf to boundary, then
// native boundary to root.
func (r *resolver) objectChain(obj any) Chain {
	id := r.identify(obj)

	var chain Chain
	native := id.native
	if id.kind == identityScripted {
		chain = walkBases(r.catalog.partitions[id.scripted.Origin], id.scripted)
		if native == "" {
			native = r.boundaryNative(chain)
		}
	}

	chain = append(chain, r.nativeWalk(native)...)
	if len(chain) == 0 {
		return Chain{NilClass}
	}
	return chain
}

// nameChain resolves a bare class name and returns its full chain. The boolean
// is false when the name is unknown in every partition.
func (r *resolver) nameChain(name string) (Chain, bool) {
	desc, ok := r.catalog.resolveName(name)
	if !ok {
		return nil, false
	}
	if desc.Origin == OriginNative {
		return r.nativeWalk(desc.Name), true
	}

	chain := walkBases(r.catalog.partitions[desc.Origin], desc)
	return append(chain, r.nativeWalk(r.boundaryNative(chain))...), true
}

// boundaryNative returns the native class the last scripted entry falls through to.
func (r *resolver) boundaryNative(chain Chain) string {
	if len(chain) == 0 {
		return ""
	}
	last := chain[len(chain)-1]
	desc, ok := r.catalog.lookup(last.Origin, last.Name)
	if !ok {
		return ""
	}
	return desc.NativeBase
}

// nativeWalk follows native base links from name up to the universal root.
func (r *resolver) nativeWalk(name string) Chain {
	if name == "" {
		return nil
	}
	partition := r.catalog.partitions[OriginNative]
	start, ok := partition[name]
	if !ok {
		return nil
	}
	return walkBases(partition, start)
}

// walkBases follows BaseName links inside one partition until a link is
// empty or unresolvable.
func walkBases(partition map[string]*ClassDescriptor, start *ClassDescriptor) Chain {
	var chain Chain
	visited := make(map[string]bool)
	for cur := start; cur != nil; {
		if visited[cur.Name] {
			break
		}
		visited[cur.Name] = true
		chain = append(chain, cur.Class())

		if cur.BaseName == "" {
			break
		}
		cur = partition[cur.BaseName]
	}
	return chain
}
