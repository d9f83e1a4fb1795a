package detect

import (
	"sort"

	"github.com/modcycle/modcycle/pkg/graph"
	"github.com/modcycle/modcycle/pkg/module"
)

// SweepCycles finds every strongly connected component with more than one
// member in an already materialized module graph and reports each as a cycle.
// This backs whole-workspace analysis, where the full graph is built up front
// and swept once instead of traversed per entry file.
func SweepCycles(g *graph.ModuleGraph) []module.Cycle {
	t := &tarjan{
		g:       g,
		indices: make(map[int64]int),
		lowLink: make(map[int64]int),
		onStack: make(map[int64]bool),
	}

	// Roots in module insertion order keeps the sweep deterministic
	for _, id := range g.Modules() {
		nodeID := g.AddModule(id)
		if _, visited := t.indices[nodeID]; !visited {
			t.visit(nodeID)
		}
	}

	cycles := make([]module.Cycle, 0, len(t.sccs))
	for _, scc := range t.sccs {
		members := make([]module.Identity, 0, len(scc))
		for _, nodeID := range scc {
			if id, ok := g.Identity(nodeID); ok {
				members = append(members, id)
			}
		}
		if len(members) > 1 {
			cycles = append(cycles, module.Cycle{Members: members}.Normalize())
		}
	}

	module.SortCycles(cycles)
	return cycles
}

// tarjan is Tarjan's strongly-connected-components algorithm with an explicit
// work stack instead of recursion, so deep graphs cannot exhaust the call
// stack.
type tarjan struct {
	g       *graph.ModuleGraph
	next    int
	indices map[int64]int
	lowLink map[int64]int
	onStack map[int64]bool
	stack   []int64
	sccs    [][]int64
}

// call is one simulated recursion frame
type call struct {
	node int64
	succ []int64
	idx  int
}

func (t *tarjan) visit(root int64) {
	t.assign(root)
	work := []call{{node: root, succ: t.successors(root)}}

	for len(work) > 0 {
		fr := &work[len(work)-1]

		if fr.idx < len(fr.succ) {
			w := fr.succ[fr.idx]
			fr.idx++

			if _, visited := t.indices[w]; !visited {
				t.assign(w)
				work = append(work, call{node: w, succ: t.successors(w)})
			} else if t.onStack[w] {
				if t.indices[w] < t.lowLink[fr.node] {
					t.lowLink[fr.node] = t.indices[w]
				}
			}
			continue
		}

		// Frame exhausted: close out this node
		if t.lowLink[fr.node] == t.indices[fr.node] {
			var scc []int64
			for {
				w := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[w] = false
				scc = append(scc, w)
				if w == fr.node {
					break
				}
			}
			if len(scc) > 1 {
				t.sccs = append(t.sccs, scc)
			}
		}

		finished := fr.node
		work = work[:len(work)-1]
		if len(work) > 0 {
			parent := work[len(work)-1].node
			if t.lowLink[finished] < t.lowLink[parent] {
				t.lowLink[parent] = t.lowLink[finished]
			}
		}
	}
}

// assign gives a node its depth index and pushes it on the component stack
func (t *tarjan) assign(node int64) {
	t.indices[node] = t.next
	t.lowLink[node] = t.next
	t.next++
	t.stack = append(t.stack, node)
	t.onStack[node] = true
}

// successors snapshots a node's outgoing neighbors in id order. gonum
// iterates its adjacency maps in random order; sorting keeps the sweep
// deterministic run to run.
func (t *tarjan) successors(node int64) []int64 {
	var succ []int64
	iter := t.g.Directed().From(node)
	for iter.Next() {
		succ = append(succ, iter.Node().ID())
	}
	sort.Slice(succ, func(i, j int) bool { return succ[i] < succ[j] })
	return succ
}
