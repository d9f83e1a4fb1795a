package ignore

import "testing"

func TestMatch_Glob(t *testing.T) {
	m, err := Compile([]string{"./generated/*", "*.stories"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if !m.Match("./generated/api") {
		t.Error("Expected ./generated/api to match")
	}
	if m.Match("./generated/api/deep") {
		t.Error("Expected deep path not to match a single-segment glob")
	}
	if !m.Match("button.stories") {
		t.Error("Expected button.stories to match")
	}
	if m.Match("./components/button") {
		t.Error("Expected unrelated specifier not to match")
	}
}

func TestMatch_SuperGlob(t *testing.T) {
	m, err := Compile([]string{"./legacy/**"})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if !m.Match("./legacy/deep/nested/mod") {
		t.Error("Expected ** to cross path separators")
	}
}

func TestMatch_Regexp(t *testing.T) {
	m, err := Compile([]string{`/\.(test|spec)$/`})
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if !m.Match("./button.test") {
		t.Error("Expected ./button.test to match the regexp")
	}
	if m.Match("./button") {
		t.Error("Expected ./button not to match")
	}
}

func TestCompile_InvalidRegexp(t *testing.T) {
	if _, err := Compile([]string{`/[unclosed/`}); err == nil {
		t.Error("Expected an error for an invalid regexp pattern")
	}
}

func TestCompile_InvalidGlob(t *testing.T) {
	if _, err := Compile([]string{"[unclosed"}); err == nil {
		t.Error("Expected an error for an invalid glob pattern")
	}
}

func TestMatch_NilMatcher(t *testing.T) {
	var m *Matcher
	if m.Match("anything") {
		t.Error("Expected nil matcher to match nothing")
	}
}
