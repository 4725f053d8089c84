// Package doc finds declarations in source text with line heuristics and
// reports the ones missing a documentation block.
package doc

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is a language-specific declaration kind such as class or fn.
type Kind string

// Category separates type-like declarations from function-like ones.
type Category int

const (
	TypeLike Category = iota
	FunctionLike
)

// Visibility filters declarations by their inferred visibility.
type Visibility string

const (
	// Public checks only declarations inferred as public.
	Public Visibility = "public"
	// All checks every declaration.
	All Visibility = "all"
)

// ParseVisibility validates a configured visibility value.
func ParseVisibility(s string) (Visibility, error) {
	switch Visibility(s) {
	case Public, All:
		return Visibility(s), nil
	case "":
		return Public, nil
	}
	return "", fmt.Errorf("unknown visibility %q (want public or all)", s)
}

// Declaration is a recognized source construct.
type Declaration struct {
	Kind       Kind
	Category   Category
	Name       string
	Public     bool
	Line       int // 1-based.
	Column     int // 1-based rune column of the first token.
	Documented bool
}

// Config enables declaration kinds, each with its own visibility filter.
type Config map[Kind]Visibility

// Find scans text for the declarations the language recognizes.
// Lines inside block comments and line comments are never declarations.
func Find(text string, lang *Language) []Declaration {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	var decls []Declaration
	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if strings.HasPrefix(trimmed, "/*") {
			i = blockEnd(lines, i)
			continue
		}

		d, ok := lang.match(trimmed)
		if !ok {
			continue
		}
		attrs := attributesAbove(lines, i, lang)
		d.Public = lang.public(d.modifiers, attrs, d.def)
		d.Line = i + 1
		d.Column = utf8.RuneCountInString(lines[i][:len(lines[i])-len(strings.TrimLeftFunc(lines[i], unicode.IsSpace))]) + 1
		d.Documented = documented(lines, i, lang)
		decls = append(decls, d.Declaration)
	}
	return decls
}

// Undocumented returns the declarations the config enables that lack a doc block.
func Undocumented(decls []Declaration, cfg Config) []Declaration {
	var out []Declaration
	for _, d := range decls {
		vis, ok := cfg[d.Kind]
		if !ok {
			continue
		}
		if vis == Public && !d.Public {
			continue
		}
		if !d.Documented {
			out = append(out, d)
		}
	}
	return out
}

// PublicFunctions returns the public function-like declarations of text.
func PublicFunctions(text string, lang *Language) []Declaration {
	var out []Declaration
	for _, d := range Find(text, lang) {
		if d.Category == FunctionLike && d.Public {
			out = append(out, d)
		}
	}
	return out
}

// blockEnd returns the index of the line closing the block comment opened at start.
func blockEnd(lines []string, start int) int {
	first := strings.TrimSpace(lines[start])
	if strings.Contains(first[2:], "*/") {
		return start
	}
	for i := start + 1; i < len(lines); i++ {
		if strings.Contains(lines[i], "*/") {
			return i
		}
	}
	return len(lines) - 1
}

func isAnnotation(line string, lang *Language) bool {
	for _, p := range lang.annotations {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

// attributesAbove collects the annotation lines directly above a declaration.
func attributesAbove(lines []string, at int, lang *Language) []string {
	var attrs []string
	for i := at - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !isAnnotation(line, lang) {
			break
		}
		attrs = append(attrs, line)
	}
	return attrs
}

// documented walks upward over blank and annotation lines and reports whether
// the first remaining line belongs to a doc block.
func documented(lines []string, at int, lang *Language) bool {
	i := at - 1
	for ; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || isAnnotation(line, lang) {
			continue
		}
		break
	}
	if i < 0 {
		return false
	}

	line := strings.TrimSpace(lines[i])
	for _, m := range lang.docLines {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	if !strings.HasSuffix(line, "*/") {
		return false
	}
	for ; i >= 0; i-- {
		line = strings.TrimSpace(lines[i])
		if idx := strings.Index(line, "/*"); idx >= 0 {
			return strings.HasPrefix(line[idx:], lang.docBlock)
		}
	}
	return false
}
