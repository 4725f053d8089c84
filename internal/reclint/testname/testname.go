// Package testname extracts test names from test sources so rules can require
// them to be written in Japanese.
package testname

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pmaojo/reclint/internal/reclint/comment"
)

// Framework selects how test names are found.
type Framework string

const (
	PHPUnit Framework = "phpunit"
	Kotest  Framework = "kotest"
	JUnit   Framework = "junit"
	Rust    Framework = "rust"
)

// Name is one test name and where it was declared.
type Name struct {
	Line   int
	Column int
	Text   string
}

var (
	phpFunction   = regexp.MustCompile(`function\s+&?([\p{L}\p{N}_]+)\s*\(`)
	displayName   = regexp.MustCompile(`@DisplayName\(\s*"((?:[^"\\]|\\.)*)"`)
	backtickName  = regexp.MustCompile("fun\\s+`([^`]+)`")
	kotestCall    = regexp.MustCompile(`\b(?:test|context|describe|it|should|given|when|then|feature|scenario|expect|xtest|xit)\s*\(\s*"((?:[^"\\]|\\.)*)"`)
	kotestLiteral = regexp.MustCompile(`^\s*"((?:[^"\\]|\\.)*)"\s*(?:\{|-\s*\{|\.config)`)
	rustFn        = regexp.MustCompile(`fn\s+([\p{L}\p{N}_]+)`)
)

var rustMarkers = []string{"#[test]", "#[tokio::test", "#[actix_web::test", "#[actix_rt::test", "#[async_std::test"}

// Find returns the test names declared in text.
func Find(text string, fw Framework) ([]Name, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	switch fw {
	case PHPUnit:
		return phpunit(lines), nil
	case Kotest:
		return kotest(lines), nil
	case JUnit:
		return junit(lines), nil
	case Rust:
		return rust(lines), nil
	}
	return nil, fmt.Errorf("unknown test framework %q", fw)
}

// NonJapanese returns the names containing no Japanese text.
func NonJapanese(names []Name) []Name {
	var out []Name
	for _, n := range names {
		if !comment.ContainsJapanese(n.Text) {
			out = append(out, n)
		}
	}
	return out
}

func column(line string, byteIdx int) int {
	return utf8.RuneCountInString(line[:byteIdx]) + 1
}

func phpunit(lines []string) []Name {
	var out []Name
	marked := false
	inDoc := false
	for i, line := range lines {
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "/**"):
			marked = marked || strings.Contains(t, "@test")
			inDoc = !strings.Contains(t[3:], "*/")
			continue
		case inDoc:
			marked = marked || strings.Contains(t, "@test")
			inDoc = !strings.Contains(t, "*/")
			continue
		case strings.Contains(t, "#[Test]"):
			marked = true
			continue
		}

		m := phpFunction.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		name := line[m[2]:m[3]]
		if marked || strings.HasPrefix(name, "test") {
			out = append(out, Name{Line: i + 1, Column: column(line, m[2]), Text: name})
		}
		marked = false
	}
	return out
}

func kotest(lines []string) []Name {
	var out []Name
	for i, line := range lines {
		for _, m := range kotestCall.FindAllStringSubmatchIndex(line, -1) {
			out = append(out, Name{Line: i + 1, Column: column(line, m[2]), Text: line[m[2]:m[3]]})
		}
		if m := kotestLiteral.FindStringSubmatchIndex(line); m != nil {
			out = append(out, Name{Line: i + 1, Column: column(line, m[2]), Text: line[m[2]:m[3]]})
		}
	}
	return out
}

func junit(lines []string) []Name {
	var out []Name
	pending, display := false, ""
	displayLine, displayCol := 0, 0
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if m := displayName.FindStringSubmatchIndex(line); m != nil {
			display = line[m[2]:m[3]]
			displayLine, displayCol = i+1, column(line, m[2])
		}
		if t == "@Test" || strings.HasPrefix(t, "@Test(") || strings.HasPrefix(t, "@Test ") || strings.HasPrefix(t, "@ParameterizedTest") {
			pending = true
			continue
		}
		if strings.HasPrefix(t, "@") || t == "" {
			continue
		}
		if pending {
			if display != "" {
				out = append(out, Name{Line: displayLine, Column: displayCol, Text: display})
			} else if name, col, ok := methodName(line); ok {
				out = append(out, Name{Line: i + 1, Column: col, Text: name})
			}
		}
		pending, display = false, ""
	}
	return out
}

// methodName extracts a JUnit method name from a Java or Kotlin declaration line.
func methodName(line string) (string, int, bool) {
	if m := backtickName.FindStringSubmatchIndex(line); m != nil {
		return line[m[2]:m[3]], column(line, m[2]), true
	}
	paren := strings.IndexByte(line, '(')
	if paren < 0 {
		return "", 0, false
	}
	head := strings.TrimRight(line[:paren], " \t")
	start := strings.LastIndexAny(head, " \t") + 1
	name := head[start:]
	if name == "" {
		return "", 0, false
	}
	return name, column(line, start), true
}

func rust(lines []string) []Name {
	var out []Name
	pending := false
	for i, line := range lines {
		t := strings.TrimSpace(line)
		if isRustMarker(t) {
			pending = true
			continue
		}
		if !pending || t == "" || strings.HasPrefix(t, "#[") {
			continue
		}
		if m := rustFn.FindStringSubmatchIndex(line); m != nil {
			out = append(out, Name{Line: i + 1, Column: column(line, m[2]), Text: line[m[2]:m[3]]})
		}
		pending = false
	}
	return out
}

func isRustMarker(t string) bool {
	for _, m := range rustMarkers {
		if strings.HasPrefix(t, m) {
			return true
		}
	}
	return false
}
