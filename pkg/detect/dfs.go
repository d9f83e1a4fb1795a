package detect

import (
	"github.com/modcycle/modcycle/pkg/graph"
	"github.com/modcycle/modcycle/pkg/module"
)

// EdgeSource supplies the outgoing edges of a module. In production this is
// the graph cache; tests substitute fixed edge maps.
type EdgeSource interface {
	Edges(id module.Identity) []module.Edge
}

// Finder runs depth-bounded cycle detection over a lazily built module graph
type Finder struct {
	// MaxDepth bounds the traversal path length; 0 means unbounded
	MaxDepth int
	// ReportAll keeps exploring alternative branches after a cycle is found.
	// Worst case exponential on dense graphs; the default stops at the first
	// cycle per traversal root.
	ReportAll bool
}

// frame is one level of the explicit DFS stack
type frame struct {
	id    module.Identity
	edges []module.Edge
	next  int // index of the next edge to follow
}

// FindCycles searches for circular import chains reachable from start. Edges
// are followed in the order the source returns them, so discovery order is
// deterministic. Every visited edge is recorded into g when g is non-nil.
// The trimmed return is true when the depth bound cut off exploration.
func (f *Finder) FindCycles(start module.Identity, source EdgeSource, g *graph.ModuleGraph) ([]module.Cycle, bool) {
	var (
		cycles  []module.Cycle
		seen    = make(map[string]bool)            // normalized cycle keys already reported
		onPath  = make(map[module.Identity]int)    // identity -> index in stack
		done    = make(map[module.Identity]bool)   // fully explored subtrees (!ReportAll only)
		trimmed = false
	)

	if g != nil {
		g.AddModule(start)
	}

	stack := []frame{{id: start, edges: source.Edges(start)}}
	onPath[start] = 0

	for len(stack) > 0 {
		top := &stack[len(stack)-1]

		if top.next >= len(top.edges) {
			// Subtree exhausted
			if !f.ReportAll {
				done[top.id] = true
			}
			delete(onPath, top.id)
			stack = stack[:len(stack)-1]
			continue
		}

		edge := top.edges[top.next]
		top.next++

		if g != nil {
			g.AddEdge(edge)
		}

		// A module importing itself is not a cycle in the module sense
		if edge.To == top.id {
			continue
		}

		if at, ok := onPath[edge.To]; ok {
			// Back edge: the cycle is the stack slice from the target up to
			// the current top, in traversal order
			members := make([]module.Identity, 0, len(stack)-at)
			for _, fr := range stack[at:] {
				members = append(members, fr.id)
			}

			cycle := module.Cycle{Members: members}.Normalize()
			if !seen[cycle.Key()] {
				seen[cycle.Key()] = true
				cycles = append(cycles, cycle)
			}

			if !f.ReportAll {
				return cycles, trimmed
			}
			continue
		}

		if done[edge.To] {
			continue
		}

		if f.MaxDepth > 0 && len(stack) >= f.MaxDepth {
			// Bound reached without closing a cycle: abandon this branch and
			// record that the search was not exhaustive
			trimmed = true
			continue
		}

		stack = append(stack, frame{id: edge.To, edges: source.Edges(edge.To)})
		onPath[edge.To] = len(stack) - 1
	}

	return cycles, trimmed
}
