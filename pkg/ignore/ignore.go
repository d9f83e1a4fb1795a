package ignore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher decides whether an import specifier is excluded from analysis.
// Patterns are compiled once at configuration time; matching is pure.
type Matcher struct {
	globs    []glob.Glob
	regexps  []*regexp.Regexp
	patterns []string
}

// Compile builds a matcher from a pattern list. Entries wrapped in slashes
// ("/internal$/") are treated as regular expressions, everything else as a
// glob. An invalid pattern is a configuration error and is rejected eagerly.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: patterns}

	for _, pattern := range patterns {
		if len(pattern) > 2 && strings.HasPrefix(pattern, "/") && strings.HasSuffix(pattern, "/") {
			re, err := regexp.Compile(pattern[1 : len(pattern)-1])
			if err != nil {
				return nil, fmt.Errorf("invalid ignore regexp %q: %w", pattern, err)
			}
			m.regexps = append(m.regexps, re)
			continue
		}

		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore glob %q: %w", pattern, err)
		}
		m.globs = append(m.globs, g)
	}

	return m, nil
}

// Match reports whether the specifier hits any ignore pattern
func (m *Matcher) Match(specifier string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.globs {
		if g.Match(specifier) {
			return true
		}
	}
	for _, re := range m.regexps {
		if re.MatchString(specifier) {
			return true
		}
	}
	return false
}

// Patterns returns the raw pattern list the matcher was compiled from
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return m.patterns
}
