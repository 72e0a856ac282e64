package hierarchy

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Stats reports verdict cache traffic.
type Stats struct {
	Hits         uint64 `json:"hits"`
	Misses       uint64 `json:"misses"`
	Computations uint64 `json:"computations"`
	CacheErrors  uint64 `json:"cache_errors"`
}

// checker answers directional inheritance queries with a verdict cache.
type checker struct {
	resolver *resolver
	cache    Cache
	logger   *zap.Logger

	// group collapses concurrent computations of the same pair
	group singleflight.Group

	hits         atomic.Uint64
	misses       atomic.Uint64
	computations atomic.Uint64
	cacheErrors  atomic.Uint64
}

// inheritFrom reports whether child equals or descends from parent.
// Both names must resolve in some partition; unknown names are errors, never false.
func (c *checker) inheritFrom(ctx context.Context, child, parent string, useCache bool) (bool, error) {
	for _, name := range []string{child, parent} {
		if _, ok := c.resolver.catalog.resolveName(name); !ok {
			return false, &NotFoundError{Name: name}
		}
	}
	if child == parent {
		return true, nil
	}

	pair := Pair{Child: child, Parent: parent}
	if useCache {
		verdict, ok, err := c.cache.Get(ctx, pair)
		switch {
		case err != nil:
			// A broken cache degrades to recomputation
			c.cacheErrors.Add(1)
			c.logger.Warn("verdict cache read failed",
				zap.Stringer("pair", pair), zap.Error(err))
		case ok:
			c.hits.Add(1)
			return verdict, nil
		default:
			c.misses.Add(1)
		}
	}

	key := pair.Child + "\x00" + pair.Parent
	if !useCache {
		// Forced checks must observe a fresh computation
		c.group.Forget(key)
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		verdict, err := c.compute(pair)
		if err != nil {
			return false, err
		}
		if err := c.cache.Set(ctx, pair, verdict); err != nil {
			c.cacheErrors.Add(1)
			c.logger.Warn("verdict cache write failed",
				zap.Stringer("pair", pair), zap.Error(err))
		}
		return verdict, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (c *checker) compute(pair Pair) (bool, error) {
	c.computations.Add(1)
	chain, ok := c.resolver.nameChain(pair.Child)
	if !ok {
		return false, &NotFoundError{Name: pair.Child}
	}
	verdict := chain.Contains(pair.Parent)
	c.logger.Debug("inheritance computed",
		zap.Stringer("pair", pair),
		zap.Strings("chain", chain.Names()),
		zap.Bool("verdict", verdict),
	)
	return verdict, nil
}

func (c *checker) stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Computations: c.computations.Load(),
		CacheErrors:  c.cacheErrors.Load(),
	}
}

func (c *checker) invalidate(ctx context.Context) error {
	if err := c.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear verdict cache: %w", err)
	}
	return nil
}

func (c *checker) invalidatePair(ctx context.Context, pair Pair) error {
	if err := c.cache.Invalidate(ctx, pair); err != nil {
		return fmt.Errorf("failed to drop verdict for %s: %w", pair, err)
	}
	return nil
}
