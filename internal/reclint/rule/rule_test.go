package rule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmaojo/reclint/internal/reclint/comment"
	"github.com/pmaojo/reclint/internal/reclint/doc"
	"github.com/pmaojo/reclint/internal/reclint/matcher"
	"github.com/pmaojo/reclint/internal/reclint/testexist"
)

func writeRules(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
}

func labels(s *Set) []string {
	var out []string
	for _, r := range s.Rules {
		out = append(out, r.Info().Label)
	}
	return out
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(nil, ".", false)
	require.NoError(t, err)
	assert.Empty(t, f.Rules)

	f, err = Parse([]byte(Template), ".", true)
	require.NoError(t, err)
	assert.Empty(t, f.Rules)
	assert.Empty(t, f.Guidelines)
}

func TestParseAllTypes(t *testing.T) {
	content := `rule:
  - forbidden_texts:
      label: no-dump
      message: var_dump is forbidden
      keywords: [var_dump, print_r]
      match:
        - pattern: file_ends_with
          keywords: [".php"]
  - forbidden_patterns:
      label: no-todo
      message: no TODO
      keywords: ["TODO\\(\\w+\\)"]
  - custom:
      label: lint
      message: lint failed
      exec: "php {script_dir}/lint.php {file}"
  - require_php_doc:
      label: php-doc
      message: missing doc
      doc: {class: public, function: all}
  - require_japanese_comment:
      label: ja
      message: comments in Japanese
      comment: {lang: kotlin}
  - require_english_comment:
      label: en
      message: comments in English
      comment:
        lines: ["#"]
        blocks: [{start: "<!--", end: "-->"}]
  - require_kotest_test:
      label: kotest
      message: test missing
      test: {test_directory: tests, require: all_public}
  - require_rust_test:
      label: rust
      message: tests missing
      unit: {require: exists}
      integration: {test_directory: it}
      suffix: _test
  - require_japanese_rust_test_name:
      label: rust-names
      message: name tests in Japanese
guideline:
  - message: keep functions small
    match:
      - pattern: file_ends_with
        keywords: [".kt"]
`
	f, err := Parse([]byte(content), "src", true)
	require.NoError(t, err)
	require.Len(t, f.Rules, 9)
	require.Len(t, f.Guidelines, 1)

	texts := f.Rules[0].(*ForbiddenTexts)
	assert.Equal(t, []string{"var_dump", "print_r"}, texts.Keywords)
	assert.Equal(t, "src", texts.Dir)
	assert.Equal(t, []matcher.Condition{{Pattern: matcher.FileEndsWith, Keywords: []string{".php"}}}, texts.Match)

	patterns := f.Rules[1].(*ForbiddenPatterns)
	assert.True(t, patterns.Patterns[0].MatchString("TODO(me)"))

	assert.Equal(t, "php {script_dir}/lint.php {file}", f.Rules[2].(*Custom).Exec)

	phpDoc := f.Rules[3].(*RequireDoc)
	assert.Equal(t, doc.Config{"class": doc.Public, "function": doc.All}, phpDoc.Config)
	assert.Equal(t, doc.PHP, phpDoc.Lang)

	ja := f.Rules[4].(*RequireComment)
	assert.Equal(t, comment.Japanese, ja.Language)
	assert.Equal(t, "kotlin", ja.Preset)

	en := f.Rules[5].(*RequireComment)
	assert.Equal(t, comment.English, en.Language)
	assert.Equal(t, []string{"#"}, en.Syntax.Lines)

	kt := f.Rules[6].(*RequireExternalTest)
	assert.Equal(t, "tests", kt.Config.TestDirectory)
	assert.Equal(t, "src/main/kotlin", kt.Config.SourceDirectory)
	assert.Equal(t, testexist.AllPublic, kt.Config.Require)

	rs := f.Rules[7].(*RequireRustTest)
	require.NotNil(t, rs.Unit)
	assert.Equal(t, testexist.FileExists, *rs.Unit)
	assert.Equal(t, "it", rs.Integration.TestDirectory)
	assert.Equal(t, "_test", rs.Integration.Suffix)

	assert.Equal(t, []string{"rust"}, Keywords(f.Rules[8]))
	assert.Equal(t, "keep functions small", f.Guidelines[0].Message)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown type":           "rule:\n  - forbidden_words: {label: a, message: b, keywords: [x]}\n",
		"two types":              "rule:\n  - forbidden_texts: {label: a, message: b, keywords: [x]}\n    custom: {label: a, message: b, exec: c}\n",
		"missing keywords":       "rule:\n  - forbidden_texts: {label: a, message: b}\n",
		"exec on text":           "rule:\n  - forbidden_texts: {label: a, message: b, keywords: [x], exec: y}\n",
		"keywords on custom":     "rule:\n  - custom: {label: a, message: b, exec: y, keywords: [x]}\n",
		"missing exec":           "rule:\n  - custom: {label: a, message: b}\n",
		"invalid regex":          "rule:\n  - forbidden_patterns: {label: a, message: b, keywords: ['(']}\n",
		"empty doc":              "rule:\n  - require_rust_doc: {label: a, message: b}\n",
		"unknown doc element":    "rule:\n  - require_rust_doc: {label: a, message: b, doc: {class: public}}\n",
		"bad visibility":         "rule:\n  - require_rust_doc: {label: a, message: b, doc: {fn: crate}}\n",
		"comment both":           "rule:\n  - require_english_comment: {label: a, message: b, comment: {lang: rust, lines: ['//']}}\n",
		"comment neither":        "rule:\n  - require_english_comment: {label: a, message: b, comment: {}}\n",
		"unknown preset":         "rule:\n  - require_english_comment: {label: a, message: b, comment: {lang: cobol}}\n",
		"bad require":            "rule:\n  - require_phpunit_test: {label: a, message: b, test: {require: most}}\n",
		"rust without unit":      "rule:\n  - require_rust_test: {label: a, message: b}\n",
		"missing label":          "rule:\n  - forbidden_texts: {message: b, keywords: [x]}\n",
		"bad match pattern":      "rule:\n  - forbidden_texts: {label: a, message: b, keywords: [x], match: [{pattern: nope, keywords: [y]}]}\n",
		"guideline no message":   "guideline:\n  - match: []\n",
		"malformed yaml":         "rule: [\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(content), ".", false)
			assert.Error(t, err)
		})
	}
}

func TestParseStrictRejectsUnknownKeys(t *testing.T) {
	content := "rule:\n  - forbidden_texts: {label: a, message: b, keywords: [x], severity: high}\n"
	_, err := Parse([]byte(content), ".", false)
	require.NoError(t, err)
	_, err = Parse([]byte(content), ".", true)
	assert.Error(t, err)
}

func rule(label string) string {
	return "rule:\n  - forbidden_texts: {label: " + label + ", message: m, keywords: [x]}\n"
}

func TestCollectAccumulatesRootToLeaf(t *testing.T) {
	root := t.TempDir()
	a := root
	b := filepath.Join(root, "b")
	c := filepath.Join(b, "c")
	writeRules(t, a, rule("at-a"))
	require.NoError(t, os.MkdirAll(b, 0o755))
	writeRules(t, c, rule("at-c"))

	set, err := Collect(root, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"at-a", "at-c"}, labels(set))
	assert.Equal(t, ".", set.Rules[0].Info().Dir)
	assert.Equal(t, "b/c", set.Rules[1].Info().Dir)

	writeRules(t, b, rule("at-b"))
	set, err = Collect(root, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"at-a", "at-b", "at-c"}, labels(set))
}

func TestResolverMatchesCollect(t *testing.T) {
	root := t.TempDir()
	writeRules(t, root, rule("root"))
	writeRules(t, filepath.Join(root, "x"), rule("x"))
	writeRules(t, filepath.Join(root, "x", "y"), rule("y"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "z"), 0o755))

	r, err := NewResolver(root, 2, nil)
	require.NoError(t, err)

	for _, dir := range []string{
		filepath.Join(root, "x", "y"),
		filepath.Join(root, "z"),
		root,
		filepath.Join(root, "x"),
		filepath.Join(root, "x", "y"),
	} {
		want, err := Collect(root, dir)
		require.NoError(t, err)
		got, err := r.Resolve(dir)
		require.NoError(t, err)
		assert.Equal(t, labels(want), labels(got), dir)
	}
}

func TestMalformedAncestorAbortsDescendants(t *testing.T) {
	root := t.TempDir()
	writeRules(t, root, rule("root"))
	writeRules(t, filepath.Join(root, "bad"), "rule: [\n")
	deep := filepath.Join(root, "bad", "deeper")
	require.NoError(t, os.MkdirAll(deep, 0o755))

	r, err := NewResolver(root, 16, nil)
	require.NoError(t, err)

	_, err = r.Resolve(deep)
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, filepath.Join(root, "bad", FileName), cfgErr.Path)

	_, err = r.Resolve(deep)
	assert.Error(t, err)

	set, err := r.Resolve(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, labels(set))
}

func TestResolveOutsideRoot(t *testing.T) {
	root := t.TempDir()
	r, err := NewResolver(filepath.Join(root, "inner"), 4, nil)
	require.NoError(t, err)
	_, err = r.Resolve(root)
	assert.Error(t, err)
}

func TestAdd(t *testing.T) {
	dir := t.TempDir()
	path, err := Add(dir)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Template, string(content))

	_, err = Add(dir)
	assert.ErrorIs(t, err, ErrRuleFileExists)
}

func TestDescriptionsCoverEveryType(t *testing.T) {
	seen := map[Type]bool{}
	for _, d := range Descriptions {
		seen[d.Type] = true
		_, err := build(d.Type, Meta{}, rawEntry{})
		if err != nil {
			assert.NotContains(t, err.Error(), "unknown rule type", d.Type)
		}
	}
	assert.Len(t, seen, 17)
}
