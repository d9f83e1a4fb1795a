package resolver

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modcycle/modcycle/pkg/module"
)

// extensions is the fixed, ordered probe list. The first existing candidate
// wins, so resolution is deterministic even when sibling files share a stem.
var extensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}

// Resolver maps import specifiers to module identities on disk. It performs
// read-only existence checks and never mutates anything.
type Resolver struct {
	workspaceRoot string
	aliases       []alias // longest-prefix first
}

type alias struct {
	prefix string
	target string // relative to workspace root
}

// New creates a resolver rooted at the given workspace directory. Aliases map
// specifier prefixes (e.g., "@/") to workspace-relative directories.
func New(workspaceRoot string, aliases map[string]string) *Resolver {
	r := &Resolver{workspaceRoot: workspaceRoot}
	for prefix, target := range aliases {
		r.aliases = append(r.aliases, alias{prefix: prefix, target: target})
	}
	// Longest prefix first so "@app/" beats "@"
	sort.Slice(r.aliases, func(i, j int) bool {
		return len(r.aliases[i].prefix) > len(r.aliases[j].prefix)
	})
	return r
}

// WorkspaceRoot returns the root directory this resolver resolves against
func (r *Resolver) WorkspaceRoot() string {
	return r.workspaceRoot
}

// Resolve maps a specifier plus its originating module to a concrete identity.
// The second return value is false when the specifier cannot be resolved;
// callers treat that as "no edge", never as an error. Bare package specifiers
// ("lodash", "react/jsx-runtime") are always unresolved: external packages do
// not become graph nodes.
func (r *Resolver) Resolve(specifier string, fromModule module.Identity) (module.Identity, bool) {
	var base string

	switch {
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		base = filepath.Join(filepath.Dir(fromModule), specifier)
	case strings.HasPrefix(specifier, "/"):
		base = filepath.Join(r.workspaceRoot, specifier)
	default:
		mapped, ok := r.applyAlias(specifier)
		if !ok {
			return "", false
		}
		base = mapped
	}

	return r.probe(base)
}

// applyAlias rewrites a specifier through the configured alias table
func (r *Resolver) applyAlias(specifier string) (string, bool) {
	for _, a := range r.aliases {
		if strings.HasPrefix(specifier, a.prefix) {
			rest := strings.TrimPrefix(specifier, a.prefix)
			return filepath.Join(r.workspaceRoot, a.target, rest), true
		}
	}
	return "", false
}

// probe checks candidates in the fixed order: the exact path, the path with
// each extension appended, then index files inside the path if it is a
// directory. The first regular file found wins.
func (r *Resolver) probe(base string) (module.Identity, bool) {
	if id, ok := statFile(base); ok {
		return id, true
	}

	for _, ext := range extensions {
		if id, ok := statFile(base + ext); ok {
			return id, true
		}
	}

	// Directory import: look for an index (barrel) file
	if info, err := os.Stat(base); err == nil && info.IsDir() {
		for _, ext := range extensions {
			if id, ok := statFile(filepath.Join(base, "index"+ext)); ok {
				return id, true
			}
		}
	}

	return "", false
}

// statFile returns the canonical identity for path if it is a regular file
func statFile(path string) (module.Identity, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}

	id, err := module.Canonical(path)
	if err != nil {
		return "", false
	}
	return id, true
}
