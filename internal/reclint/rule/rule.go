// Package rule models the per-directory rule files and resolves the rules
// that apply to a directory by folding every rule file from the project root
// down to it.
package rule

import (
	"regexp"

	"github.com/pmaojo/reclint/internal/reclint/comment"
	"github.com/pmaojo/reclint/internal/reclint/doc"
	"github.com/pmaojo/reclint/internal/reclint/matcher"
	"github.com/pmaojo/reclint/internal/reclint/testexist"
	"github.com/pmaojo/reclint/internal/reclint/testname"
)

// Type names a rule variant as written in rule files.
type Type string

const (
	TypeForbiddenTexts          Type = "forbidden_texts"
	TypeForbiddenPatterns       Type = "forbidden_patterns"
	TypeCustom                  Type = "custom"
	TypeRequirePHPDoc           Type = "require_php_doc"
	TypeRequireKotlinDoc        Type = "require_kotlin_doc"
	TypeRequireJavaDoc          Type = "require_java_doc"
	TypeRequireRustDoc          Type = "require_rust_doc"
	TypeRequireEnglishComment   Type = "require_english_comment"
	TypeRequireJapaneseComment  Type = "require_japanese_comment"
	TypeRequirePHPUnitTest      Type = "require_phpunit_test"
	TypeRequireKotestTest       Type = "require_kotest_test"
	TypeRequireJUnitTest        Type = "require_junit_test"
	TypeRequireRustTest         Type = "require_rust_test"
	TypeJapanesePHPUnitTestName Type = "require_japanese_phpunit_test_name"
	TypeJapaneseKotestTestName  Type = "require_japanese_kotest_test_name"
	TypeJapaneseJUnitTestName   Type = "require_japanese_junit_test_name"
	TypeJapaneseRustTestName    Type = "require_japanese_rust_test_name"
)

// Rule is one of the closed set of rule variants below.
type Rule interface {
	Info() Meta
	isRule()
}

// Meta is carried by every rule variant.
type Meta struct {
	Type    Type
	Label   string
	Message string
	Match   []matcher.Condition
	Dir     string // Declaring directory relative to the project root, "." for the root.
}

// Info returns the shared fields.
func (m Meta) Info() Meta { return m }

func (Meta) isRule() {}

// ForbiddenTexts flags lines containing any literal keyword.
type ForbiddenTexts struct {
	Meta
	Keywords []string
}

// ForbiddenPatterns flags lines matching any regular expression.
type ForbiddenPatterns struct {
	Meta
	Patterns []*regexp.Regexp
}

// Custom runs an external command per file.
type Custom struct {
	Meta
	Exec string // Template with {file} and {script_dir} placeholders.
}

// RequireDoc requires doc blocks on the enabled declaration kinds.
type RequireDoc struct {
	Meta
	Lang   *doc.Language
	Config doc.Config
}

// RequireComment requires comments in one natural language.
type RequireComment struct {
	Meta
	Language comment.Language
	Syntax   comment.Syntax
	Preset   string // Empty for custom syntax.
}

// RequireExternalTest requires a test file in a separate test tree.
type RequireExternalTest struct {
	Meta
	Family *testexist.Family
	Config testexist.ExternalConfig
}

// RequireRustTest requires unit tests in the file and/or an integration test file.
type RequireRustTest struct {
	Meta
	Unit        *testexist.Require
	Integration *testexist.IntegrationConfig
}

// RequireTestName requires test names written in Japanese.
type RequireTestName struct {
	Meta
	Framework testname.Framework
}

// Guideline is a review reminder that is displayed, never evaluated.
type Guideline struct {
	Message string
	Match   []matcher.Condition
	Dir     string
}

// DirectoryRuleFile holds what one directory declares locally.
type DirectoryRuleFile struct {
	Dir        string
	Rules      []Rule
	Guidelines []Guideline
}

// Set is the root-to-leaf accumulation of rules and guidelines for a directory.
type Set struct {
	Rules      []Rule
	Guidelines []Guideline
}

// extend returns a new set holding s followed by f's declarations.
func (s *Set) extend(f *DirectoryRuleFile) *Set {
	out := &Set{
		Rules:      make([]Rule, 0, len(s.Rules)+len(f.Rules)),
		Guidelines: make([]Guideline, 0, len(s.Guidelines)+len(f.Guidelines)),
	}
	out.Rules = append(append(out.Rules, s.Rules...), f.Rules...)
	out.Guidelines = append(append(out.Guidelines, s.Guidelines...), f.Guidelines...)
	return out
}

// Keywords returns the words shown next to a rule's label.
func Keywords(r Rule) []string {
	switch r := r.(type) {
	case *ForbiddenTexts:
		return r.Keywords
	case *ForbiddenPatterns:
		out := make([]string, 0, len(r.Patterns))
		for _, p := range r.Patterns {
			out = append(out, p.String())
		}
		return out
	case *Custom:
		return []string{r.Exec}
	case *RequireDoc:
		var out []string
		for _, k := range r.Lang.Kinds() {
			if v, ok := r.Config[k]; ok {
				out = append(out, string(k)+"="+string(v))
			}
		}
		return out
	case *RequireComment:
		if r.Preset != "" {
			return []string{r.Preset}
		}
		return append([]string(nil), r.Syntax.Lines...)
	case *RequireExternalTest:
		return []string{r.Config.TestDirectory, string(r.Config.Require)}
	case *RequireRustTest:
		var out []string
		if r.Unit != nil {
			out = append(out, "unit="+string(*r.Unit))
		}
		if r.Integration != nil {
			out = append(out, "integration="+string(r.Integration.Require))
		}
		return out
	case *RequireTestName:
		return []string{string(r.Framework)}
	}
	return nil
}
