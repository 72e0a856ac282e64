// Package hierarchy resolves "is-a" relationships for objects whose class may
// come from any of several type systems living in one host process: the
// engine's native class database and the GDScript and C# script runtimes
// layered on top of it.
//
// # Partitions
//
// A Catalog keeps one name-keyed partition per origin. Names are unique within
// a partition only, so the same literal name may exist in several partitions.
// Bare-name lookups use a fixed tie-break: GDScript, then C#, then native.
// Names declared in both script runtimes are reported as ambiguous
// diagnostics at build time.
//
// Native classes that are neither instantiable nor expose any member are left
// out of the catalog, as are the names listed on the anchor class (the
// "excluded_classes" constant of res://Type.gd by default). Base links skip
// over omitted classes so chains stay connected.
//
// # Chains
//
// An object's chain lists its scripted classes from leaf to boundary followed
// by its native classes from boundary to the universal root:
//
//	ChildScript, ParentScript, Node, Object
//
// An object with no resolvable class yields the single entry Nil.
//
// # Usage
//
//	reg := hierarchy.New(host, hierarchy.DefaultOptions())
//	if err := reg.Build(); err != nil {
//		return err
//	}
//
//	ok, err := reg.InheritFrom(ctx, "Area2D", "Node2D", true)
//	if hierarchy.IsNotFound(err) {
//		// unknown class, distinct from a false verdict
//	}
//
//	chain, err := reg.ExtendingFrom(obj)
//	fmt.Println(chain.Names())
//
// Verdicts are cached per ordered (child, parent) pair. Passing useCache=false
// recomputes the verdict and overwrites the stored entry. InvalidatePair drops
// one entry and InvalidateCache drops them all.
package hierarchy
