package analysis

import (
	"fmt"
	"sync"

	"github.com/modcycle/modcycle/pkg/cache"
	"github.com/modcycle/modcycle/pkg/detect"
	"github.com/modcycle/modcycle/pkg/extract"
	"github.com/modcycle/modcycle/pkg/graph"
	"github.com/modcycle/modcycle/pkg/ignore"
	"github.com/modcycle/modcycle/pkg/logging"
	"github.com/modcycle/modcycle/pkg/module"
	"github.com/modcycle/modcycle/pkg/resolver"
)

// DefaultMaxDepth bounds traversal when no depth is configured. Unbounded
// search requires explicit opt-in.
const DefaultMaxDepth = 10

// Options is the full configuration surface of the engine
type Options struct {
	// WorkspaceRoot anchors root-relative and alias specifiers
	WorkspaceRoot string
	// Aliases maps specifier prefixes to workspace-relative directories
	Aliases map[string]string
	// MaxDepth bounds the traversal path length; 0 means unbounded and must
	// be requested explicitly through Unbounded
	MaxDepth int
	// Unbounded acknowledges that traversal should run without a depth bound
	Unbounded bool
	// ReportAllCycles keeps exploring after the first cycle per entry
	ReportAllCycles bool
	// BarrelExports flattens pure re-export modules out of the graph
	BarrelExports bool
	// IncludeTypeImports counts type-only imports toward cycles
	IncludeTypeImports bool
	// IgnorePatterns excludes specifiers (glob, or /regexp/) before resolution
	IgnorePatterns []string
	// Fingerprint selects the cache invalidation strategy
	Fingerprint cache.Strategy
	// CacheSize bounds the graph cache entry count; 0 means unbounded
	CacheSize int
}

// validate rejects malformed options before any traversal begins. A silently
// accepted bad depth bound would corrupt the trimming semantics downstream.
func (o *Options) validate() error {
	if o.WorkspaceRoot == "" {
		return fmt.Errorf("workspace root is required")
	}
	if o.MaxDepth < 0 {
		return fmt.Errorf("max depth must be >= 0, got %d", o.MaxDepth)
	}
	if o.MaxDepth == 0 && !o.Unbounded {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.Fingerprint == "" {
		o.Fingerprint = cache.StrategyMtime
	}
	if !o.Fingerprint.Valid() {
		return fmt.Errorf("unknown fingerprint strategy %q", o.Fingerprint)
	}
	if o.CacheSize < 0 {
		return fmt.Errorf("cache size must be >= 0, got %d", o.CacheSize)
	}
	return nil
}

// Analyzer is the engine entry point. It owns the session's graph cache and
// accumulated module graph; a mutex serializes runs so the watcher and web
// layers can share one instance.
type Analyzer struct {
	opts    Options
	cache   *cache.Cache
	matcher *ignore.Matcher
	graph   *graph.ModuleGraph
	mu      sync.Mutex
}

// New wires an analyzer over the host's import provider. Configuration errors
// are rejected here, before any filesystem work happens.
func New(provider module.ImportProvider, opts Options) (*Analyzer, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis options: %w", err)
	}

	matcher, err := ignore.Compile(opts.IgnorePatterns)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis options: %w", err)
	}

	res := resolver.New(opts.WorkspaceRoot, opts.Aliases)
	extractor := extract.New(res, provider, extract.Options{
		BarrelExports:      opts.BarrelExports,
		IncludeTypeImports: opts.IncludeTypeImports,
		Ignore:             matcher.Match,
	})

	var c *cache.Cache
	if opts.CacheSize > 0 {
		c, err = cache.NewBounded(extractor, opts.Fingerprint, opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("invalid analysis options: %w", err)
		}
	} else {
		c = cache.New(extractor, opts.Fingerprint)
	}

	return &Analyzer{
		opts:    opts,
		cache:   c,
		matcher: matcher,
		graph:   graph.New(),
	}, nil
}

// Analyze discovers circular import chains reachable from an entry file. The
// result is freshly allocated and owned by the caller; repeated calls over an
// unchanged tree return identical results.
func (a *Analyzer) Analyze(entry module.Identity) (*module.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, err := module.Canonical(entry)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve entry %q: %w", entry, err)
	}

	finder := detect.Finder{
		MaxDepth:  a.opts.MaxDepth,
		ReportAll: a.opts.ReportAllCycles,
	}

	cycles, trimmed := finder.FindCycles(id, a.cache, a.graph)
	logging.Debug("analysis complete",
		"entry", id, "cycles", len(cycles), "trimmed", trimmed, "cached", a.cache.Len())

	return &module.Result{Cycles: cycles, Trimmed: trimmed}, nil
}

// AnalyzeAll runs a batch over many entries with the shared cache: the graph
// reachable from all entries is materialized once, then swept for strongly
// connected components. Cycles shared between entries are reported once.
func (a *Analyzer) AnalyzeAll(entries []module.Identity) (*module.Result, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Rebuild the graph from scratch so edges refreshed by the cache are not
	// shadowed by stale ones from an earlier run
	a.graph = graph.New()

	depths := make(map[module.Identity]int) // shallowest depth each module was reached at
	cut := make(map[module.Identity]bool)   // modules whose expansion hit the bound

	for _, entry := range entries {
		id, err := module.Canonical(entry)
		if err != nil {
			return nil, fmt.Errorf("cannot resolve entry %q: %w", entry, err)
		}
		a.walk(id, depths, cut)
	}

	cycles := detect.SweepCycles(a.graph)
	trimmed := len(cut) > 0
	logging.Info("batch analysis complete",
		"entries", len(entries), "modules", a.graph.Len(), "cycles", len(cycles), "trimmed", trimmed)

	return &module.Result{Cycles: cycles, Trimmed: trimmed}, nil
}

// walk materializes the graph reachable from start with a breadth-first
// expansion bounded by MaxDepth. A module first seen near the bound is
// revisited when a later entry reaches it on a shorter path, so entries never
// shadow each other's reachable sets; cut tracks modules whose edges were
// never enqueued because every visit hit the bound.
func (a *Analyzer) walk(start module.Identity, depths map[module.Identity]int, cut map[module.Identity]bool) {
	type item struct {
		id    module.Identity
		depth int
	}

	a.graph.AddModule(start)
	queue := []item{{id: start, depth: 1}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if seen, ok := depths[current.id]; ok && seen <= current.depth {
			continue
		}
		depths[current.id] = current.depth

		edges := a.cache.Edges(current.id)
		if a.opts.MaxDepth > 0 && current.depth >= a.opts.MaxDepth && len(edges) > 0 {
			cut[current.id] = true
			continue
		}
		delete(cut, current.id)

		for _, edge := range edges {
			a.graph.AddEdge(edge)
			queue = append(queue, item{id: edge.To, depth: current.depth + 1})
		}
	}
}

// Graph returns the module graph accumulated so far in this session
func (a *Analyzer) Graph() *graph.ModuleGraph {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.graph
}

// Invalidate drops cache entries for changed files so the next run recomputes
// their edges. Called by the watcher.
func (a *Analyzer) Invalidate(paths ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, path := range paths {
		if id, err := module.Canonical(path); err == nil {
			a.cache.Invalidate(id)
		}
	}
}

// CacheComputes reports how many extractor invocations the cache has made
func (a *Analyzer) CacheComputes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cache.Computes()
}
