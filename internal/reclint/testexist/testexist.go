// Package testexist decides whether an implementation file has the tests its
// rule requires, either in a separate test tree or inside the file itself.
package testexist

import (
	"fmt"
	"strings"
	"unicode"
)

// Require is the coverage level a rule asks for.
type Require string

const (
	// FileExists only requires the test file (or, in the same file, a test) to exist.
	FileExists Require = "file_exists"
	// AllPublic additionally requires every public function to be referenced by a test.
	AllPublic Require = "all_public"
)

// ParseRequire validates a configured level. "exists" is accepted as an alias
// of file_exists, and an empty value defaults to it.
func ParseRequire(s string) (Require, error) {
	switch s {
	case "", "exists", string(FileExists):
		return FileExists, nil
	case string(AllPublic):
		return AllPublic, nil
	}
	return "", fmt.Errorf("unknown require level %q (want file_exists or all_public)", s)
}

// FindingKind classifies a test-existence failure.
type FindingKind int

const (
	// Missing means the expected test file or test function does not exist.
	Missing FindingKind = iota
	// Uncovered means a public function is not referenced by any test.
	Uncovered
	// Mismatch means the path and the declared namespace point to different test files.
	Mismatch
	// Unresolved means the namespace needed to locate the test could not be read.
	Unresolved
)

// IsResolution reports whether the finding is a resolution problem rather
// than a plain rule failure.
func (k FindingKind) IsResolution() bool {
	return k == Mismatch || k == Unresolved
}

// Finding is one failure reported by a resolver.
type Finding struct {
	Kind   FindingKind
	Line   int    // 0 when the finding concerns the whole file.
	Column int    // 0 when the finding concerns the whole file.
	Detail string // Human-readable subject: an expected path or a symbol name.
}

func missingFile(path string) Finding {
	return Finding{Kind: Missing, Detail: "test file not found: " + path}
}

// tokens splits text into its identifier tokens.
func tokens(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r))
	}) {
		set[strings.TrimPrefix(tok, "$")] = struct{}{}
	}
	return set
}
