package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/modcycle/modcycle/pkg/module"
	"github.com/modcycle/modcycle/pkg/resolver"
)

// fakeProvider returns canned import records per module identity
type fakeProvider map[module.Identity][]module.ImportRecord

func (p fakeProvider) Imports(id module.Identity) ([]module.ImportRecord, error) {
	if records, ok := p[id]; ok {
		return records, nil
	}
	return nil, os.ErrNotExist
}

// workspace builds a temp module tree for extractor tests
type workspace struct {
	t        *testing.T
	root     string
	provider fakeProvider
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	return &workspace{t: t, root: t.TempDir(), provider: fakeProvider{}}
}

// add creates a file and registers its import records, returning its identity
func (w *workspace) add(rel string, records ...module.ImportRecord) module.Identity {
	w.t.Helper()
	path := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		w.t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("// "+rel+"\n"), 0o644); err != nil {
		w.t.Fatalf("write %s: %v", rel, err)
	}

	id, err := module.Canonical(path)
	if err != nil {
		w.t.Fatalf("canonicalize: %v", err)
	}
	w.provider[id] = records
	return id
}

func imp(specifier string) module.ImportRecord {
	return module.ImportRecord{Specifier: specifier}
}

func reExport(specifier string) module.ImportRecord {
	return module.ImportRecord{Specifier: specifier, ReExport: true}
}

func (w *workspace) extractor(opts Options) *Extractor {
	return New(resolver.New(w.root, nil), w.provider, opts)
}

func TestEdges_SourceOrder(t *testing.T) {
	w := newWorkspace(t)
	w.add("b.ts")
	w.add("c.ts")
	a := w.add("a.ts", imp("./c"), imp("./b"))

	edges := w.extractor(Options{}).Edges(a)
	if len(edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(edges))
	}
	if edges[0].Specifier != "./c" || edges[1].Specifier != "./b" {
		t.Errorf("Expected edges in declaration order, got %v", edges)
	}
}

func TestEdges_UnresolvedDropped(t *testing.T) {
	w := newWorkspace(t)
	w.add("b.ts")
	a := w.add("a.ts", imp("lodash"), imp("./missing"), imp("./b"))

	edges := w.extractor(Options{}).Edges(a)
	if len(edges) != 1 {
		t.Fatalf("Expected 1 edge after dropping unresolvable specifiers, got %d", len(edges))
	}
	if edges[0].Specifier != "./b" {
		t.Errorf("Expected the ./b edge to survive, got %v", edges[0])
	}
}

func TestEdges_UnreadableModuleIsLeaf(t *testing.T) {
	w := newWorkspace(t)
	// Not registered with the provider, so reading its imports fails
	path := filepath.Join(w.root, "orphan.ts")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	id, _ := module.Canonical(path)

	edges := w.extractor(Options{}).Edges(id)
	if len(edges) != 0 {
		t.Errorf("Expected an unreadable module to degrade to a leaf, got %v", edges)
	}
}

func TestEdges_TypeOnlySkippedByDefault(t *testing.T) {
	w := newWorkspace(t)
	w.add("types.ts")
	w.add("render.ts")
	a := w.add("a.ts",
		module.ImportRecord{Specifier: "./types", TypeOnly: true},
		imp("./render"),
	)

	edges := w.extractor(Options{}).Edges(a)
	if len(edges) != 1 || edges[0].Specifier != "./render" {
		t.Errorf("Expected only the runtime import, got %v", edges)
	}

	edges = w.extractor(Options{IncludeTypeImports: true}).Edges(a)
	if len(edges) != 2 {
		t.Errorf("Expected type import to count when enabled, got %v", edges)
	}
}

func TestEdges_IgnoreFilter(t *testing.T) {
	w := newWorkspace(t)
	w.add("generated.ts")
	w.add("real.ts")
	a := w.add("a.ts", imp("./generated"), imp("./real"))

	opts := Options{Ignore: func(s string) bool { return s == "./generated" }}
	edges := w.extractor(opts).Edges(a)

	if len(edges) != 1 || edges[0].Specifier != "./real" {
		t.Errorf("Expected the ignored specifier to produce no edge, got %v", edges)
	}
}

func TestEdges_BarrelFlattening(t *testing.T) {
	w := newWorkspace(t)
	x := w.add("x.ts")
	w.add("index.ts", reExport("./x"))
	a := w.add("a.ts", imp("./index"))

	// Disabled: the edge points at the barrel itself
	edges := w.extractor(Options{}).Edges(a)
	if len(edges) != 1 || edges[0].ViaBarrel {
		t.Fatalf("Expected one direct edge with flattening disabled, got %v", edges)
	}

	// Enabled: the edge is rewritten to the re-exported module
	edges = w.extractor(Options{BarrelExports: true}).Edges(a)
	if len(edges) != 1 {
		t.Fatalf("Expected 1 flattened edge, got %d", len(edges))
	}
	if edges[0].To != x {
		t.Errorf("Expected edge to x.ts, got %s", edges[0].To)
	}
	if !edges[0].ViaBarrel {
		t.Error("Expected flattened edge to be marked ViaBarrel")
	}
	if edges[0].Specifier != "./index" {
		t.Errorf("Expected original specifier retained for diagnostics, got %q", edges[0].Specifier)
	}
}

func TestEdges_BarrelChain(t *testing.T) {
	w := newWorkspace(t)
	leaf := w.add("leaf.ts")
	w.add("inner.ts", reExport("./leaf"))
	w.add("outer.ts", reExport("./inner"))
	a := w.add("a.ts", imp("./outer"))

	edges := w.extractor(Options{BarrelExports: true}).Edges(a)
	if len(edges) != 1 {
		t.Fatalf("Expected the chain to flatten to 1 edge, got %d", len(edges))
	}
	if edges[0].To != leaf {
		t.Errorf("Expected edge to leaf.ts, got %s", edges[0].To)
	}
}

func TestEdges_SelfReferentialBarrelsTerminate(t *testing.T) {
	w := newWorkspace(t)
	w.add("ying.ts", reExport("./yang"))
	w.add("yang.ts", reExport("./ying"))
	a := w.add("a.ts", imp("./ying"))

	// Two barrels re-exporting each other must not loop forever
	edges := w.extractor(Options{BarrelExports: true}).Edges(a)
	if len(edges) != 0 {
		t.Errorf("Expected no edges from a barrel loop with no real modules, got %v", edges)
	}
}

func TestEdges_MixedBarrel(t *testing.T) {
	w := newWorkspace(t)
	w.add("impl.ts")
	// A module with both a re-export and a real import is not a barrel
	mixed := w.add("mixed.ts", reExport("./impl"), imp("./impl"))
	a := w.add("a.ts", imp("./mixed"))

	edges := w.extractor(Options{BarrelExports: true}).Edges(a)
	if len(edges) != 1 {
		t.Fatalf("Expected 1 edge, got %d", len(edges))
	}
	if edges[0].To != mixed || edges[0].ViaBarrel {
		t.Errorf("Expected a direct edge to the mixed module, got %v", edges[0])
	}
}
