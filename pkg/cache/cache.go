package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/modcycle/modcycle/pkg/module"
)

// EdgeSource computes the outgoing edges of a module
type EdgeSource interface {
	Edges(id module.Identity) []module.Edge
}

// Cache memoizes edge extraction per module, keyed by identity and guarded by
// an on-disk fingerprint. One instance belongs to one analysis session and
// must not be shared across goroutines without external locking.
type Cache struct {
	source   EdgeSource
	strategy Strategy

	entries map[module.Identity]module.CacheEntry
	bounded *lru.Cache[module.Identity, module.CacheEntry] // nil unless a size bound is set

	computes int // number of extractor invocations, for tests and stats
}

// New creates an unbounded cache over the given edge source. Unbounded growth
// within one run is fine at the scale of realistic module graphs.
func New(source EdgeSource, strategy Strategy) *Cache {
	return &Cache{
		source:   source,
		strategy: strategy,
		entries:  make(map[module.Identity]module.CacheEntry),
	}
}

// NewBounded creates a cache holding at most size entries, evicting least
// recently used modules. Long-lived watch sessions use this to keep memory
// flat while the workspace churns.
func NewBounded(source EdgeSource, strategy Strategy, size int) (*Cache, error) {
	bounded, err := lru.New[module.Identity, module.CacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{source: source, strategy: strategy, bounded: bounded}, nil
}

// Edges returns the outgoing edges for a module, recomputing when the entry
// is missing or the on-disk fingerprint no longer matches. A stale entry is
// refreshed in place, never surfaced to the caller.
func (c *Cache) Edges(id module.Identity) []module.Edge {
	current, err := fingerprint(id, c.strategy)
	if err != nil {
		// File vanished between resolution and extraction: leaf with no
		// edges, and drop any stale entry
		c.remove(id)
		return nil
	}

	if entry, ok := c.get(id); ok && entry.Fingerprint.Equal(current) {
		return entry.Edges
	}

	edges := c.source.Edges(id)
	c.computes++
	c.put(id, module.CacheEntry{
		Fingerprint: current,
		Edges:       edges,
		ComputedAt:  time.Now(),
	})
	return edges
}

// Invalidate drops the entry for a module, forcing recomputation on the next
// lookup. The watcher calls this for changed files.
func (c *Cache) Invalidate(id module.Identity) {
	c.remove(id)
}

// Len returns the number of cached entries
func (c *Cache) Len() int {
	if c.bounded != nil {
		return c.bounded.Len()
	}
	return len(c.entries)
}

// Computes returns how many times the underlying extractor has been invoked
func (c *Cache) Computes() int {
	return c.computes
}

func (c *Cache) get(id module.Identity) (module.CacheEntry, bool) {
	if c.bounded != nil {
		return c.bounded.Get(id)
	}
	entry, ok := c.entries[id]
	return entry, ok
}

func (c *Cache) put(id module.Identity, entry module.CacheEntry) {
	if c.bounded != nil {
		c.bounded.Add(id, entry)
		return
	}
	c.entries[id] = entry
}

func (c *Cache) remove(id module.Identity) {
	if c.bounded != nil {
		c.bounded.Remove(id)
		return
	}
	delete(c.entries, id)
}
