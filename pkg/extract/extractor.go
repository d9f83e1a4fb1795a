package extract

import (
	"github.com/modcycle/modcycle/pkg/logging"
	"github.com/modcycle/modcycle/pkg/module"
	"github.com/modcycle/modcycle/pkg/resolver"
)

// Options controls how import records are turned into edges
type Options struct {
	// BarrelExports rewrites edges through pure re-export (barrel) modules to
	// point directly at the re-exported modules
	BarrelExports bool
	// IncludeTypeImports counts imports that only exist for type information
	IncludeTypeImports bool
	// Ignore filters raw specifiers before resolution; an ignored specifier
	// never produces an edge
	Ignore func(specifier string) bool
}

// Extractor produces the outgoing edges of a module from the import records
// its provider supplies
type Extractor struct {
	resolver *resolver.Resolver
	provider module.ImportProvider
	opts     Options
}

// New creates an extractor over the given resolver and import provider
func New(r *resolver.Resolver, p module.ImportProvider, opts Options) *Extractor {
	return &Extractor{resolver: r, provider: p, opts: opts}
}

// Edges returns the outgoing edges of a module in source-declaration order.
// Unreadable modules degrade to a leaf with zero edges, unresolved and
// ignored specifiers are dropped silently.
func (e *Extractor) Edges(id module.Identity) []module.Edge {
	records, err := e.provider.Imports(id)
	if err != nil {
		// Missing or unreadable file: treat as a leaf so the rest of the
		// analysis continues unaffected
		logging.Warn("could not read module imports, treating as leaf", "module", id, "error", err)
		return nil
	}

	var edges []module.Edge
	for _, rec := range records {
		if rec.TypeOnly && !e.opts.IncludeTypeImports {
			continue
		}
		if e.opts.Ignore != nil && e.opts.Ignore(rec.Specifier) {
			continue
		}

		target, ok := e.resolver.Resolve(rec.Specifier, id)
		if !ok {
			continue
		}

		if e.opts.BarrelExports && e.isBarrel(target) {
			visited := map[module.Identity]bool{id: true}
			for _, flattened := range e.flattenBarrel(target, visited) {
				edges = append(edges, module.Edge{
					From:      id,
					To:        flattened,
					Specifier: rec.Specifier,
					ViaBarrel: true,
				})
			}
			continue
		}

		edges = append(edges, module.Edge{
			From:      id,
			To:        target,
			Specifier: rec.Specifier,
		})
	}

	return edges
}

// isBarrel reports whether a module consists purely of re-exports
func (e *Extractor) isBarrel(id module.Identity) bool {
	records, err := e.provider.Imports(id)
	if err != nil || len(records) == 0 {
		return false
	}
	for _, rec := range records {
		if !rec.ReExport {
			return false
		}
	}
	return true
}

// flattenBarrel resolves a barrel's re-exports to their final non-barrel
// targets. Chains of barrels are followed transitively; the visited set
// guarantees termination even when barrels re-export each other.
func (e *Extractor) flattenBarrel(barrel module.Identity, visited map[module.Identity]bool) []module.Identity {
	if visited[barrel] {
		return nil
	}
	visited[barrel] = true

	records, err := e.provider.Imports(barrel)
	if err != nil {
		return nil
	}

	var targets []module.Identity
	for _, rec := range records {
		if rec.TypeOnly && !e.opts.IncludeTypeImports {
			continue
		}
		if e.opts.Ignore != nil && e.opts.Ignore(rec.Specifier) {
			continue
		}

		target, ok := e.resolver.Resolve(rec.Specifier, barrel)
		if !ok {
			continue
		}

		if e.isBarrel(target) {
			targets = append(targets, e.flattenBarrel(target, visited)...)
			continue
		}
		targets = append(targets, target)
	}

	return targets
}
