package graph

import (
	"sort"

	"github.com/modcycle/modcycle/pkg/module"
	"gonum.org/v1/gonum/graph/simple"
)

// ModuleGraph is the module dependency graph: an append-only arena of module
// identities interned to integer node ids over a gonum directed graph.
// Adjacency lives in the gonum structure; edge metadata (specifier, barrel
// provenance) is kept alongside per ordered pair.
type ModuleGraph struct {
	graph  *simple.DirectedGraph
	ids    map[module.Identity]int64
	byID   map[int64]module.Identity
	meta   map[[2]int64]module.Edge
	order  []module.Identity // insertion order, for deterministic listings
	nextID int64
}

// New creates an empty module graph
func New() *ModuleGraph {
	return &ModuleGraph{
		graph: simple.NewDirectedGraph(),
		ids:   make(map[module.Identity]int64),
		byID:  make(map[int64]module.Identity),
		meta:  make(map[[2]int64]module.Edge),
	}
}

// AddModule interns a module into the graph, returning its node id
func (g *ModuleGraph) AddModule(id module.Identity) int64 {
	if nodeID, exists := g.ids[id]; exists {
		return nodeID
	}

	nodeID := g.nextID
	g.ids[id] = nodeID
	g.byID[nodeID] = id
	g.order = append(g.order, id)
	g.graph.AddNode(simple.Node(nodeID))
	g.nextID++
	return nodeID
}

// AddEdge records a dependency edge, interning both endpoints. Duplicate
// edges between the same pair keep the first edge's metadata.
func (g *ModuleGraph) AddEdge(e module.Edge) {
	fromID := g.AddModule(e.From)
	toID := g.AddModule(e.To)

	// gonum's simple graph rejects self loops; a self import is not a cycle
	// in the module sense either
	if fromID == toID {
		return
	}

	if !g.graph.HasEdgeFromTo(fromID, toID) {
		g.graph.SetEdge(g.graph.NewEdge(g.graph.Node(fromID), g.graph.Node(toID)))
		g.meta[[2]int64{fromID, toID}] = e
	}
}

// Contains reports whether a module has been interned
func (g *ModuleGraph) Contains(id module.Identity) bool {
	_, exists := g.ids[id]
	return exists
}

// Identity returns the module identity for a node id
func (g *ModuleGraph) Identity(nodeID int64) (module.Identity, bool) {
	id, ok := g.byID[nodeID]
	return id, ok
}

// Modules returns all interned modules in insertion order
func (g *ModuleGraph) Modules() []module.Identity {
	out := make([]module.Identity, len(g.order))
	copy(out, g.order)
	return out
}

// Edges returns all recorded edges with their metadata, ordered by the
// interning order of their endpoints. gonum iterates in map order, so the
// keys are collected and sorted to keep listings stable.
func (g *ModuleGraph) Edges() []module.Edge {
	keys := make([][2]int64, 0, len(g.meta))

	iter := g.graph.Edges()
	for iter.Next() {
		e := iter.Edge()
		keys = append(keys, [2]int64{e.From().ID(), e.To().ID()})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	edges := make([]module.Edge, 0, len(keys))
	for _, key := range keys {
		if meta, ok := g.meta[key]; ok {
			edges = append(edges, meta)
		}
	}
	return edges
}

// Dependencies returns the modules the given module depends on directly
func (g *ModuleGraph) Dependencies(id module.Identity) []module.Identity {
	nodeID, exists := g.ids[id]
	if !exists {
		return nil
	}

	var ids []int64
	iter := g.graph.From(nodeID)
	for iter.Next() {
		ids = append(ids, iter.Node().ID())
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	deps := make([]module.Identity, 0, len(ids))
	for _, depID := range ids {
		if dep, ok := g.byID[depID]; ok {
			deps = append(deps, dep)
		}
	}
	return deps
}

// Directed exposes the underlying gonum graph for algorithms that walk it
func (g *ModuleGraph) Directed() *simple.DirectedGraph {
	return g.graph
}

// Len returns the number of interned modules
func (g *ModuleGraph) Len() int {
	return len(g.order)
}
