package graph

import (
	"reflect"
	"testing"

	"github.com/modcycle/modcycle/pkg/module"
)

func TestNew(t *testing.T) {
	g := New()
	if g == nil {
		t.Fatal("New() returned nil")
	}
	if g.Len() != 0 {
		t.Errorf("New graph should have 0 modules, got %d", g.Len())
	}
}

func TestAddModule(t *testing.T) {
	g := New()

	first := g.AddModule("src/a.ts")
	again := g.AddModule("src/a.ts")

	if first != again {
		t.Errorf("Expected stable id for repeated interning, got %d and %d", first, again)
	}
	if g.Len() != 1 {
		t.Errorf("Expected 1 module, got %d", g.Len())
	}
	if !g.Contains("src/a.ts") {
		t.Error("Expected module to be interned")
	}
}

func TestAddEdge(t *testing.T) {
	g := New()

	g.AddEdge(module.Edge{From: "a.ts", To: "b.ts", Specifier: "./b"})

	edges := g.Edges()
	if len(edges) != 1 {
		t.Fatalf("Expected 1 edge, got %d", len(edges))
	}
	if edges[0].From != "a.ts" || edges[0].To != "b.ts" || edges[0].Specifier != "./b" {
		t.Errorf("Unexpected edge %v", edges[0])
	}
}

func TestAddEdge_DuplicatesCollapse(t *testing.T) {
	g := New()

	g.AddEdge(module.Edge{From: "a.ts", To: "b.ts", Specifier: "./b"})
	g.AddEdge(module.Edge{From: "a.ts", To: "b.ts", Specifier: "./b/index"})

	if len(g.Edges()) != 1 {
		t.Errorf("Expected duplicate edges to collapse, got %d", len(g.Edges()))
	}
	// First metadata wins
	if g.Edges()[0].Specifier != "./b" {
		t.Errorf("Expected first specifier retained, got %q", g.Edges()[0].Specifier)
	}
}

func TestAddEdge_SelfLoopIgnored(t *testing.T) {
	g := New()

	g.AddEdge(module.Edge{From: "a.ts", To: "a.ts", Specifier: "./a"})

	if len(g.Edges()) != 0 {
		t.Errorf("Expected self import to produce no edge, got %d", len(g.Edges()))
	}
	if g.Len() != 1 {
		t.Errorf("Expected the module itself to still be interned, got %d", g.Len())
	}
}

func TestDependencies(t *testing.T) {
	g := New()
	g.AddEdge(module.Edge{From: "a.ts", To: "b.ts", Specifier: "./b"})
	g.AddEdge(module.Edge{From: "a.ts", To: "c.ts", Specifier: "./c"})
	g.AddEdge(module.Edge{From: "b.ts", To: "c.ts", Specifier: "./c"})

	deps := g.Dependencies("a.ts")
	want := []module.Identity{"b.ts", "c.ts"}
	if !reflect.DeepEqual(deps, want) {
		t.Errorf("Expected %v, got %v", want, deps)
	}

	if deps := g.Dependencies("missing.ts"); deps != nil {
		t.Errorf("Expected nil for an unknown module, got %v", deps)
	}
}

func TestModules_InsertionOrder(t *testing.T) {
	g := New()
	g.AddModule("c.ts")
	g.AddModule("a.ts")
	g.AddModule("b.ts")

	want := []module.Identity{"c.ts", "a.ts", "b.ts"}
	if !reflect.DeepEqual(g.Modules(), want) {
		t.Errorf("Expected insertion order %v, got %v", want, g.Modules())
	}
}
