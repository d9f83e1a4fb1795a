package module

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Identity is the canonical absolute path of one source file. Two import
// specifiers that resolve to the same physical file share one Identity.
type Identity = string

// Canonical derives the identity for a path: absolute, cleaned, with symlinks
// resolved so every route to a physical file yields the same key. Paths that
// no longer exist fall back to the lexical form, which is all a vanished file
// can offer.
func Canonical(path string) (Identity, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return filepath.Clean(abs), nil
}

// SourceLocation points at the import statement inside the source file
type SourceLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// ImportRecord is one pre-parsed import statement handed to the engine by the
// host. The engine never parses source text beyond this list.
type ImportRecord struct {
	Specifier string         `json:"specifier"` // e.g., "./util", "../core/engine", "lodash"
	Location  SourceLocation `json:"location"`
	TypeOnly  bool           `json:"typeOnly"` // import erased at runtime (e.g., "import type")
	ReExport  bool           `json:"reExport"` // "export ... from" style re-export
}

// ImportProvider supplies the pre-parsed import list for a module. Hosts that
// already hold a syntax tree implement this directly; standalone use goes
// through the parse package.
type ImportProvider interface {
	Imports(id Identity) ([]ImportRecord, error)
}

// Edge is one directed dependency in the module graph
type Edge struct {
	From      Identity `json:"from"`
	To        Identity `json:"to"`
	Specifier string   `json:"specifier"` // raw specifier text, kept for diagnostics
	ViaBarrel bool     `json:"viaBarrel"` // synthesized by re-export flattening
}

// Cycle is a closed loop of modules: consecutive members are connected by an
// edge and the last member connects back to the first. No member repeats.
type Cycle struct {
	Members []Identity `json:"members"`
}

// Normalize rotates the cycle so it starts at its lexicographically smallest
// member. Cycles found from different traversal roots then compare equal.
func (c Cycle) Normalize() Cycle {
	if len(c.Members) < 2 {
		return c
	}

	smallest := 0
	for i, m := range c.Members {
		if m < c.Members[smallest] {
			smallest = i
		}
	}

	rotated := make([]Identity, 0, len(c.Members))
	rotated = append(rotated, c.Members[smallest:]...)
	rotated = append(rotated, c.Members[:smallest]...)
	return Cycle{Members: rotated}
}

// Key returns a stable string form of the normalized cycle, used to
// de-duplicate cycles discovered along different paths.
func (c Cycle) Key() string {
	return strings.Join(c.Normalize().Members, " -> ")
}

// Contains reports whether the cycle passes through the given module
func (c Cycle) Contains(id Identity) bool {
	for _, m := range c.Members {
		if m == id {
			return true
		}
	}
	return false
}

// Result is the outcome of one analysis call
type Result struct {
	Cycles []Cycle `json:"cycles"`
	// Trimmed is true when the depth bound cut off exploration, so cycles
	// deeper than the bound may have been missed
	Trimmed bool `json:"trimmed"`
}

// SortCycles orders cycles by their normalized key so batch results are
// stable regardless of the order entries were analyzed in.
func SortCycles(cycles []Cycle) {
	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Key() < cycles[j].Key()
	})
}

// CacheEntry stores the memoized edge set for one module
type CacheEntry struct {
	Fingerprint Fingerprint
	Edges       []Edge
	ComputedAt  time.Time
}

// Fingerprint is a cheap comparable proxy for "has this file changed". Either
// mtime+size or a content hash depending on the configured strategy.
type Fingerprint struct {
	ModTime time.Time
	Size    int64
	Hash    uint64 // content hash, only set by the content strategy
}

// Equal reports whether two fingerprints denote the same file state
func (f Fingerprint) Equal(other Fingerprint) bool {
	return f.ModTime.Equal(other.ModTime) && f.Size == other.Size && f.Hash == other.Hash
}
