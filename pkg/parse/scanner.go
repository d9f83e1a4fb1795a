package parse

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/modcycle/modcycle/pkg/module"
)

// Scanner extracts import specifiers from ES-module source files with a
// line-oriented scan. It is deliberately not a full parser: it recognizes the
// statement shapes that introduce module dependencies and nothing else, which
// is enough to stand in for a host that owns a real syntax tree.
type Scanner struct{}

// NewScanner creates an import scanner
func NewScanner() *Scanner {
	return &Scanner{}
}

var (
	// import defaultExport from 'x'; import { a, b } from 'x'; import 'x'
	importRe = regexp.MustCompile(`^\s*import\s+(?:type\s+)?(?:[\w*{},\s$]+\s+from\s+)?['"]([^'"]+)['"]`)
	// export { a } from 'x'; export * from 'x'
	exportRe = regexp.MustCompile(`^\s*export\s+(?:type\s+)?(?:\*(?:\s+as\s+\w+)?|{[^}]*})\s+from\s+['"]([^'"]+)['"]`)
	// require('x') and dynamic import('x') anywhere on the line
	callRe = regexp.MustCompile(`\b(?:require|import)\(\s*['"]([^'"]+)['"]\s*\)`)

	typeOnlyRe = regexp.MustCompile(`^\s*(?:import|export)\s+type\s`)
)

// Imports returns the import records for one source file, in declaration
// order. A missing or unreadable file is reported as an error; callers treat
// the module as a leaf in that case.
func (s *Scanner) Imports(id module.Identity) ([]module.ImportRecord, error) {
	f, err := os.Open(id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var records []module.ImportRecord

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inBlockComment := false
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()

		text, inBlockComment = stripComments(text, inBlockComment)
		if strings.TrimSpace(text) == "" {
			continue
		}

		if m := importRe.FindStringSubmatchIndex(text); m != nil {
			records = append(records, module.ImportRecord{
				Specifier: text[m[2]:m[3]],
				Location:  module.SourceLocation{Line: line, Column: m[2] + 1},
				TypeOnly:  typeOnlyRe.MatchString(text),
			})
			continue
		}

		if m := exportRe.FindStringSubmatchIndex(text); m != nil {
			records = append(records, module.ImportRecord{
				Specifier: text[m[2]:m[3]],
				Location:  module.SourceLocation{Line: line, Column: m[2] + 1},
				TypeOnly:  typeOnlyRe.MatchString(text),
				ReExport:  true,
			})
			continue
		}

		for _, m := range callRe.FindAllStringSubmatchIndex(text, -1) {
			records = append(records, module.ImportRecord{
				Specifier: text[m[2]:m[3]],
				Location:  module.SourceLocation{Line: line, Column: m[2] + 1},
			})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// stripComments removes // and /* */ comment text from one line, tracking
// block-comment state across lines. Quote-aware enough for import lines,
// which is the only place the result is inspected.
func stripComments(text string, inBlock bool) (string, bool) {
	var out strings.Builder
	i := 0
	for i < len(text) {
		if inBlock {
			end := strings.Index(text[i:], "*/")
			if end == -1 {
				return out.String(), true
			}
			i += end + 2
			inBlock = false
			continue
		}

		switch {
		case strings.HasPrefix(text[i:], "//"):
			return out.String(), false
		case strings.HasPrefix(text[i:], "/*"):
			i += 2
			inBlock = true
		case text[i] == '\'' || text[i] == '"' || text[i] == '`':
			quote := text[i]
			out.WriteByte(text[i])
			i++
			for i < len(text) && text[i] != quote {
				out.WriteByte(text[i])
				i++
			}
			if i < len(text) {
				out.WriteByte(text[i])
				i++
			}
		default:
			out.WriteByte(text[i])
			i++
		}
	}
	return out.String(), inBlock
}
