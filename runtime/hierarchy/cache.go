package hierarchy

import (
	"context"
	"sync"
)

// Cache stores inheritance verdicts keyed by the ordered (child, parent) pair.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the stored verdict and whether one was present.
	Get(ctx context.Context, pair Pair) (verdict bool, ok bool, err error)

	// Set stores a verdict, replacing any existing entry for the pair.
	Set(ctx context.Context, pair Pair, verdict bool) error

	// Invalidate removes the entry for one pair.
	Invalidate(ctx context.Context, pair Pair) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// MemoryCache is the default in-process Cache.
type MemoryCache struct {
	mu       sync.RWMutex
	verdicts map[Pair]bool
}

// NewMemoryCache creates an empty in-memory verdict cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{verdicts: make(map[Pair]bool)}
}

// Get retrieves a verdict from the cache
func (m *MemoryCache) Get(ctx context.Context, pair Pair) (bool, bool, error) {
	if err := ctx.Err(); err != nil {
		return false, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	verdict, ok := m.verdicts[pair]
	return verdict, ok, nil
}

// Set stores a verdict in the cache
func (m *MemoryCache) Set(ctx context.Context, pair Pair, verdict bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts[pair] = verdict
	return nil
}

// Invalidate removes a verdict from the cache
func (m *MemoryCache) Invalidate(ctx context.Context, pair Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.verdicts, pair)
	return nil
}

// Clear removes all verdicts from the cache
func (m *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts = make(map[Pair]bool)
	return nil
}

// Len returns the number of cached verdicts
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.verdicts)
}
