package hierarchy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Default anchor configuration. The anchor script is conventionally res://Type.gd.
const (
	DefaultAnchorName        = "Type"
	DefaultAnchorBase        = "RefCounted"
	DefaultExclusionProperty = "excluded_classes"
)

// Options configures a Registry.
type Options struct {
	// AnchorName and AnchorBase identify the anchor script class. Both default
	// when AnchorName is empty; an empty AnchorBase with an explicit
	// AnchorName accepts the anchor with any base.
	AnchorName string
	AnchorBase string

	// ExclusionProperty is the anchor property listing native classes to exclude.
	ExclusionProperty string

	// Cache stores inheritance verdicts. Defaults to a MemoryCache.
	Cache Cache

	// Logger receives build diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// DefaultOptions returns the default registry options
func DefaultOptions() Options {
	return Options{
		AnchorName:        DefaultAnchorName,
		AnchorBase:        DefaultAnchorBase,
		ExclusionProperty: DefaultExclusionProperty,
	}
}

// Registry answers ancestry queries across the native and scripted type systems.
//
// A Registry is created with New and becomes queryable after a single call to
// Build. Until then, and forever after a failed build, every query returns an
// *InitializationError. The catalog is immutable once built; if the host's
// class set changes at runtime the registry goes stale and must be replaced.
type Registry struct {
	host   Host
	opts   Options
	logger *zap.Logger

	// Frozen build output, published by the built flag
	catalog  *Catalog
	resolver *resolver
	checker  *checker
	initErr  error

	built   atomic.Bool
	buildMu sync.Mutex
}

// New creates an unbuilt registry over the given host
func New(host Host, opts Options) *Registry {
	defaults := DefaultOptions()
	if opts.AnchorName == "" {
		opts.AnchorName = defaults.AnchorName
		if opts.AnchorBase == "" {
			opts.AnchorBase = defaults.AnchorBase
		}
	}
	if opts.ExclusionProperty == "" {
		opts.ExclusionProperty = defaults.ExclusionProperty
	}
	if opts.Cache == nil {
		opts.Cache = NewMemoryCache()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	return &Registry{
		host:   host,
		opts:   opts,
		logger: opts.Logger.Named("hierarchy"),
	}
}

// Build enumerates the host and freezes the catalog. Per-class load failures
// are recorded as diagnostics; only a missing anchor fails the build.
// Build may be called once.
func (r *Registry) Build() error {
	r.buildMu.Lock()
	defer r.buildMu.Unlock()

	if r.built.Load() {
		return &InitializationError{Code: CodeAlreadyBuilt, Reason: "type registry is already built"}
	}
	if r.host == nil {
		r.initErr = &InitializationError{Code: CodeNotInitialized, Reason: "no host provided"}
		r.catalog = newCatalog()
		r.built.Store(true)
		return r.initErr
	}

	catalog, err := buildCatalog(r.host, r.opts, r.logger)
	r.catalog = catalog
	if err != nil {
		r.initErr = err
		r.logger.Error("type registry initialization failed", zap.Error(err))
	} else {
		r.resolver = &resolver{catalog: catalog, host: r.host, logger: r.logger}
		r.checker = &checker{resolver: r.resolver, cache: r.opts.Cache, logger: r.logger}
	}
	r.built.Store(true)
	return err
}

// ready returns the error every query must short-circuit to, if any.
func (r *Registry) ready() error {
	if !r.built.Load() {
		return &InitializationError{Code: CodeNotInitialized, Reason: "type registry queried before Build"}
	}
	return r.initErr
}

// ExtendingFrom returns the object's ancestor chain: scripted classes from
// leaf to boundary, then native classes from boundary to the universal root.
// An object with no resolvable class yields a chain holding only NilClass.
func (r *Registry) ExtendingFrom(obj any) (Chain, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.resolver.objectChain(obj), nil
}

// ExtendingFromNames is ExtendingFrom with readable names instead of handles.
func (r *Registry) ExtendingFromNames(obj any) ([]string, error) {
	chain, err := r.ExtendingFrom(obj)
	if err != nil {
		return nil, err
	}
	return chain.Names(), nil
}

// ChainOf returns the ancestor chain of a class given by name, using the
// same resolution InheritFrom uses.
func (r *Registry) ChainOf(name string) (Chain, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	chain, ok := r.resolver.nameChain(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return chain, nil
}

// InheritFrom reports whether child is parent or descends from it.
//
// With useCache the stored verdict for (child, parent) is returned when
// present. Without it the verdict is recomputed and overwrites the stored
// entry, which is the way to repair a stale cache entry.
func (r *Registry) InheritFrom(ctx context.Context, child, parent string, useCache bool) (bool, error) {
	if err := r.ready(); err != nil {
		return false, err
	}
	return r.checker.inheritFrom(ctx, child, parent, useCache)
}

// Lookup returns the descriptor for name in one partition.
func (r *Registry) Lookup(origin Origin, name string) (ClassDescriptor, error) {
	if err := r.ready(); err != nil {
		return ClassDescriptor{}, err
	}
	return r.catalog.Lookup(origin, name)
}

// GetNativeDescriptor returns a copy of a native descriptor, for equality
// comparison against chain entries only. With checkExists a miss is also
// reported to the logger.
func (r *Registry) GetNativeDescriptor(name string, checkExists bool) (ClassDescriptor, error) {
	return r.getDescriptor(OriginNative, name, checkExists)
}

// GetScriptedDescriptor returns a copy of a scripted descriptor from the given
// partition, for equality comparison against chain entries only.
func (r *Registry) GetScriptedDescriptor(origin Origin, name string, checkExists bool) (ClassDescriptor, error) {
	if !origin.Scripted() {
		return ClassDescriptor{}, fmt.Errorf("%s is not a scripted partition", origin)
	}
	return r.getDescriptor(origin, name, checkExists)
}

func (r *Registry) getDescriptor(origin Origin, name string, checkExists bool) (ClassDescriptor, error) {
	if err := r.ready(); err != nil {
		return ClassDescriptor{}, err
	}
	desc, err := r.catalog.Lookup(origin, name)
	if err != nil && checkExists {
		r.logger.Warn("class does not exist",
			zap.Stringer("origin", origin),
			zap.String("class", name),
			zap.Bool("excluded", origin == OriginNative && r.catalog.Excluded(name)),
		)
	}
	return desc, err
}

// Excluded reports whether the anchor's exclusion set names a native class.
func (r *Registry) Excluded(name string) bool {
	if r.ready() != nil {
		return false
	}
	return r.catalog.Excluded(name)
}

// Classes lists the descriptors of one partition, or of all partitions for OriginNone.
func (r *Registry) Classes(origin Origin) ([]ClassDescriptor, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	return r.catalog.Classes(origin), nil
}

// Diagnostics returns the non-fatal findings of the build. It is available
// after a failed build too.
func (r *Registry) Diagnostics() []Diagnostic {
	if !r.built.Load() {
		return nil
	}
	result := make([]Diagnostic, len(r.catalog.diagnostics))
	copy(result, r.catalog.diagnostics)
	return result
}

// LoadFailures returns the scripted descriptors that failed to load.
func (r *Registry) LoadFailures() []*LoadFailure {
	if !r.built.Load() {
		return nil
	}
	result := make([]*LoadFailure, len(r.catalog.loadErrors))
	copy(result, r.catalog.loadErrors)
	return result
}

// Stats returns verdict cache counters
func (r *Registry) Stats() Stats {
	if r.ready() != nil {
		return Stats{}
	}
	return r.checker.stats()
}

// InvalidateCache drops every stored verdict.
func (r *Registry) InvalidateCache(ctx context.Context) error {
	if err := r.ready(); err != nil {
		return err
	}
	return r.checker.invalidate(ctx)
}

// InvalidatePair drops the stored verdict for one child/parent pair. The next
// check of that pair recomputes it.
func (r *Registry) InvalidatePair(ctx context.Context, child, parent string) error {
	if err := r.ready(); err != nil {
		return err
	}
	return r.checker.invalidatePair(ctx, Pair{Child: child, Parent: parent})
}
