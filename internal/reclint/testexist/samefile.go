package testexist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmaojo/reclint/internal/reclint/doc"
)

// testMarkers are the attributes that mark a Rust test function.
var testMarkers = []string{
	"#[test]",
	"#[tokio::test",
	"#[actix_web::test",
	"#[actix_rt::test",
	"#[async_std::test",
}

// span is an inclusive 0-based line range.
type span struct{ from, to int }

func (s span) contains(line int) bool { return line >= s.from && line <= s.to }

// SameFile checks the unit tests co-located with a Rust implementation file.
func SameFile(text string, req Require) []Finding {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	bodies := testBodies(lines)
	if len(bodies) == 0 {
		return []Finding{{Kind: Missing, Detail: "no unit tests found"}}
	}
	if req != AllPublic {
		return nil
	}

	modules := testModules(lines)

	var public []doc.Declaration
	for _, d := range doc.PublicFunctions(text, doc.Rust) {
		if d.Kind != "fn" || inAny(modules, d.Line-1) || inAny(bodies, d.Line-1) {
			continue
		}
		public = append(public, d)
	}
	return uncovered(public, bodyTokens(bodies, lines))
}

// bodyTokens collects identifier tokens of every test body, excluding the
// signature line so a test named after a function does not cover it.
func bodyTokens(bodies []span, lines []string) map[string]struct{} {
	var b strings.Builder
	for _, s := range bodies {
		if s.from+1 <= s.to {
			b.WriteString(strings.Join(lines[s.from+1:s.to+1], "\n"))
		}
		if idx := strings.IndexByte(lines[s.from], '{'); idx >= 0 {
			b.WriteString(lines[s.from][idx+1:])
		}
		b.WriteByte('\n')
	}
	return tokens(b.String())
}

func inAny(spans []span, line int) bool {
	for _, s := range spans {
		if s.contains(line) {
			return true
		}
	}
	return false
}

// testBodies finds marked test functions and their brace-matched bodies.
func testBodies(lines []string) []span {
	var out []span
	for i := 0; i < len(lines); i++ {
		if !isTestMarker(strings.TrimSpace(lines[i])) {
			continue
		}
		fn := nextFn(lines, i+1)
		if fn < 0 {
			continue
		}
		end := braceEnd(lines, fn)
		out = append(out, span{fn, end})
		i = end
	}
	return out
}

// testModules finds #[cfg(test)] modules.
func testModules(lines []string) []span {
	var out []span
	for i := 0; i < len(lines); i++ {
		if !strings.HasPrefix(strings.TrimSpace(lines[i]), "#[cfg(test)]") {
			continue
		}
		for j := i + 1; j < len(lines); j++ {
			t := strings.TrimSpace(lines[j])
			if t == "" || strings.HasPrefix(t, "#[") {
				continue
			}
			if strings.HasPrefix(t, "mod ") || strings.HasPrefix(t, "pub mod ") {
				end := braceEnd(lines, j)
				out = append(out, span{j, end})
				i = end
			}
			break
		}
	}
	return out
}

func isTestMarker(line string) bool {
	for _, m := range testMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// nextFn skips attributes and blank lines to the function a marker annotates.
func nextFn(lines []string, from int) int {
	for j := from; j < len(lines); j++ {
		t := strings.TrimSpace(lines[j])
		if t == "" || strings.HasPrefix(t, "#[") || strings.HasPrefix(t, "//") {
			continue
		}
		if strings.Contains(t, "fn ") {
			return j
		}
		return -1
	}
	return -1
}

// braceEnd returns the line where the braces opened at or after start balance.
// Braces inside strings and comments are counted too.
func braceEnd(lines []string, start int) int {
	depth, opened := 0, false
	for i := start; i < len(lines); i++ {
		for _, r := range lines[i] {
			switch r {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i
		}
		if !opened && strings.HasSuffix(strings.TrimSpace(lines[i]), ";") {
			return i
		}
	}
	return len(lines) - 1
}

// IntegrationConfig locates Rust integration tests.
type IntegrationConfig struct {
	TestDirectory   string
	SourceDirectory string
	Suffix          string
	Require         Require
}

// WithDefaults fills empty fields.
func (c IntegrationConfig) WithDefaults() IntegrationConfig {
	if c.TestDirectory == "" {
		c.TestDirectory = "tests"
	}
	if c.SourceDirectory == "" {
		c.SourceDirectory = "src"
	}
	if c.Require == "" {
		c.Require = FileExists
	}
	return c
}

// Integration checks the integration test file of a Rust source by location alone.
func Integration(root, rel, text string, cfg IntegrationConfig) ([]Finding, error) {
	expected := PathDerived(rel, ExternalConfig{
		TestDirectory:   cfg.TestDirectory,
		SourceDirectory: cfg.SourceDirectory,
		Suffix:          cfg.Suffix,
	})

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(expected)))
	if errors.Is(err, os.ErrNotExist) {
		return []Finding{missingFile(expected)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read test file %s: %w", expected, err)
	}
	if cfg.Require != AllPublic {
		return nil, nil
	}

	var public []doc.Declaration
	modules := testModules(strings.Split(text, "\n"))
	for _, d := range doc.PublicFunctions(text, doc.Rust) {
		if d.Kind == "fn" && !inAny(modules, d.Line-1) {
			public = append(public, d)
		}
	}
	return uncovered(public, tokens(string(content))), nil
}
