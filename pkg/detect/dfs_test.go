package detect

import (
	"reflect"
	"testing"

	"github.com/modcycle/modcycle/pkg/graph"
	"github.com/modcycle/modcycle/pkg/module"
)

// mapSource is a fixed in-memory edge source for tests
type mapSource map[module.Identity][]module.Identity

func (m mapSource) Edges(id module.Identity) []module.Edge {
	var edges []module.Edge
	for _, to := range m[id] {
		edges = append(edges, module.Edge{From: id, To: to, Specifier: to})
	}
	return edges
}

func TestFindCycles_Acyclic(t *testing.T) {
	// Simple chain: a -> b -> c
	source := mapSource{
		"a": {"b"},
		"b": {"c"},
	}

	finder := Finder{MaxDepth: 10}
	cycles, trimmed := finder.FindCycles("a", source, nil)

	if len(cycles) != 0 {
		t.Errorf("Expected no cycles, got %d", len(cycles))
	}
	if trimmed {
		t.Error("Expected trimmed=false for a fully explored graph")
	}
}

func TestFindCycles_ThreeNodeCycle(t *testing.T) {
	// a -> b -> c -> a
	source := mapSource{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}

	finder := Finder{MaxDepth: 10}
	cycles, trimmed := finder.FindCycles("a", source, nil)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d", len(cycles))
	}
	if trimmed {
		t.Error("Expected trimmed=false")
	}

	want := []module.Identity{"a", "b", "c"}
	if !reflect.DeepEqual(cycles[0].Members, want) {
		t.Errorf("Expected cycle %v, got %v", want, cycles[0].Members)
	}
}

func TestFindCycles_FirstCycleOnly(t *testing.T) {
	// Two distinct cycles through a; the default stops after the first
	source := mapSource{
		"a": {"b", "c"},
		"b": {"a"},
		"c": {"a"},
	}

	finder := Finder{MaxDepth: 10}
	cycles, _ := finder.FindCycles("a", source, nil)

	if len(cycles) != 1 {
		t.Fatalf("Expected exactly 1 cycle with ReportAll=false, got %d", len(cycles))
	}
	want := []module.Identity{"a", "b"}
	if !reflect.DeepEqual(cycles[0].Members, want) {
		t.Errorf("Expected first declared cycle %v, got %v", want, cycles[0].Members)
	}
}

func TestFindCycles_ReportAll(t *testing.T) {
	source := mapSource{
		"a": {"b", "c"},
		"b": {"a"},
		"c": {"a"},
	}

	finder := Finder{MaxDepth: 10, ReportAll: true}
	cycles, _ := finder.FindCycles("a", source, nil)

	if len(cycles) != 2 {
		t.Fatalf("Expected 2 cycles with ReportAll=true, got %d", len(cycles))
	}
}

func TestFindCycles_NoDuplicateReports(t *testing.T) {
	// The same loop is reachable along two paths but is one cycle
	source := mapSource{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d"},
		"d": {"b"},
	}

	finder := Finder{MaxDepth: 10, ReportAll: true}
	cycles, _ := finder.FindCycles("a", source, nil)

	if len(cycles) != 1 {
		t.Fatalf("Expected the b-d loop to be reported once, got %d cycles", len(cycles))
	}
	want := []module.Identity{"b", "d"}
	if !reflect.DeepEqual(cycles[0].Members, want) {
		t.Errorf("Expected cycle %v, got %v", want, cycles[0].Members)
	}
}

func TestFindCycles_SelfImportIsNotACycle(t *testing.T) {
	// b imports itself; a genuine cycle needs at least two modules
	source := mapSource{
		"a": {"a", "b"},
		"b": {"b"},
	}

	finder := Finder{MaxDepth: 10, ReportAll: true}
	cycles, trimmed := finder.FindCycles("a", source, nil)

	if len(cycles) != 0 {
		t.Errorf("Expected no cycles from self imports, got %v", cycles)
	}
	if trimmed {
		t.Error("Expected trimmed=false")
	}
}

func TestFindCycles_MaxDepthTrims(t *testing.T) {
	// The cycle needs a path of length 3; a bound of 2 cannot close it
	source := mapSource{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}

	finder := Finder{MaxDepth: 2}
	cycles, trimmed := finder.FindCycles("a", source, nil)

	if len(cycles) != 0 {
		t.Errorf("Expected no cycles under the depth bound, got %d", len(cycles))
	}
	if !trimmed {
		t.Error("Expected trimmed=true when the bound cut off exploration")
	}
}

func TestFindCycles_MaxDepthSufficient(t *testing.T) {
	source := mapSource{
		"a": {"b"},
		"b": {"c"},
		"c": {"a"},
	}

	finder := Finder{MaxDepth: 3}
	cycles, trimmed := finder.FindCycles("a", source, nil)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle at exactly sufficient depth, got %d", len(cycles))
	}
	if trimmed {
		t.Error("Expected trimmed=false when the cycle fits within the bound")
	}
}

func TestFindCycles_Unbounded(t *testing.T) {
	// Long chain closing back to its head, explored without a bound
	source := mapSource{
		"a": {"b"}, "b": {"c"}, "c": {"d"}, "d": {"e"}, "e": {"a"},
	}

	finder := Finder{MaxDepth: 0}
	cycles, trimmed := finder.FindCycles("a", source, nil)

	if len(cycles) != 1 {
		t.Fatalf("Expected 1 cycle, got %d", len(cycles))
	}
	if len(cycles[0].Members) != 5 {
		t.Errorf("Expected cycle of length 5, got %d", len(cycles[0].Members))
	}
	if trimmed {
		t.Error("Expected trimmed=false for unbounded traversal")
	}
}

func TestFindCycles_Deterministic(t *testing.T) {
	source := mapSource{
		"a": {"b", "c"},
		"b": {"c"},
		"c": {"a"},
	}

	finder := Finder{MaxDepth: 10, ReportAll: true}
	first, _ := finder.FindCycles("a", source, nil)
	second, _ := finder.FindCycles("a", source, nil)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results across runs, got %v then %v", first, second)
	}
}

func TestFindCycles_RecordsVisitedGraph(t *testing.T) {
	source := mapSource{
		"a": {"b"},
		"b": {"c"},
	}

	g := graph.New()
	finder := Finder{MaxDepth: 10}
	finder.FindCycles("a", source, g)

	if g.Len() != 3 {
		t.Errorf("Expected 3 modules recorded, got %d", g.Len())
	}
	if len(g.Edges()) != 2 {
		t.Errorf("Expected 2 edges recorded, got %d", len(g.Edges()))
	}
}
