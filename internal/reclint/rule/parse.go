package rule

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pmaojo/reclint/internal/reclint/comment"
	"github.com/pmaojo/reclint/internal/reclint/doc"
	"github.com/pmaojo/reclint/internal/reclint/matcher"
	"github.com/pmaojo/reclint/internal/reclint/testexist"
	"github.com/pmaojo/reclint/internal/reclint/testname"
)

// FileName is the per-directory rule file.
const FileName = ".rec_lint.yaml"

// Template is written by Add.
const Template = "rule:\n\nguideline:\n"

// ConfigError reports a rule file that cannot be loaded. It aborts the run.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *ConfigError) Unwrap() error { return e.Err }

type rawFile struct {
	Rule      []map[string]rawEntry `yaml:"rule"`
	Guideline []rawGuideline        `yaml:"guideline"`
}

type rawGuideline struct {
	Message string              `yaml:"message"`
	Match   []matcher.Condition `yaml:"match"`
}

type rawEntry struct {
	Label    string              `yaml:"label"`
	Message  string              `yaml:"message"`
	Match    []matcher.Condition `yaml:"match"`
	Keywords []string            `yaml:"keywords"`
	Exec     string              `yaml:"exec"`

	Doc     map[string]string `yaml:"doc"`
	Comment *rawComment       `yaml:"comment"`

	Test        *rawTest        `yaml:"test"`
	Unit        *rawUnit        `yaml:"unit"`
	Integration *rawIntegration `yaml:"integration"`
	Suffix      string          `yaml:"suffix"`
}

type rawComment struct {
	Lang   string          `yaml:"lang"`
	Lines  []string        `yaml:"lines"`
	Blocks []comment.Block `yaml:"blocks"`
}

type rawTest struct {
	TestDirectory   string `yaml:"test_directory"`
	SourceDirectory string `yaml:"source_directory"`
	NamespaceRoot   string `yaml:"namespace_root"`
	Suffix          string `yaml:"suffix"`
	Require         string `yaml:"require"`
}

type rawUnit struct {
	Require string `yaml:"require"`
}

type rawIntegration struct {
	TestDirectory   string `yaml:"test_directory"`
	SourceDirectory string `yaml:"source_directory"`
	Require         string `yaml:"require"`
}

// Parse decodes a rule file declared in dir (relative to the root).
// Strict mode rejects unknown keys.
func Parse(content []byte, dir string, strict bool) (*DirectoryRuleFile, error) {
	var raw rawFile
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(strict)
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	out := &DirectoryRuleFile{Dir: dir}
	for i, entry := range raw.Rule {
		r, err := convert(entry, dir)
		if err != nil {
			return nil, fmt.Errorf("rule #%d: %w", i+1, err)
		}
		out.Rules = append(out.Rules, r)
	}
	for i, g := range raw.Guideline {
		if strings.TrimSpace(g.Message) == "" {
			return nil, fmt.Errorf("guideline #%d: message is required", i+1)
		}
		if err := validateMatch(g.Match); err != nil {
			return nil, fmt.Errorf("guideline #%d: %w", i+1, err)
		}
		out.Guidelines = append(out.Guidelines, Guideline{Message: g.Message, Match: g.Match, Dir: dir})
	}
	return out, nil
}

func validateMatch(conds []matcher.Condition) error {
	for _, c := range conds {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func convert(entry map[string]rawEntry, dir string) (Rule, error) {
	if len(entry) != 1 {
		keys := make([]string, 0, len(entry))
		for k := range entry {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("a rule entry must name exactly one type, got %v", keys)
	}

	var (
		typ Type
		raw rawEntry
	)
	for k, v := range entry {
		typ, raw = Type(k), v
	}

	if raw.Label == "" {
		return nil, fmt.Errorf("%s: label is required", typ)
	}
	if raw.Message == "" {
		return nil, fmt.Errorf("%s %q: message is required", typ, raw.Label)
	}
	if err := validateMatch(raw.Match); err != nil {
		return nil, fmt.Errorf("%s %q: %w", typ, raw.Label, err)
	}
	meta := Meta{Type: typ, Label: raw.Label, Message: raw.Message, Match: raw.Match, Dir: dir}

	r, err := build(typ, meta, raw)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", typ, raw.Label, err)
	}
	return r, nil
}

func build(typ Type, meta Meta, raw rawEntry) (Rule, error) {
	switch typ {
	case TypeForbiddenTexts:
		if err := keywordsOnly(raw); err != nil {
			return nil, err
		}
		return &ForbiddenTexts{Meta: meta, Keywords: raw.Keywords}, nil

	case TypeForbiddenPatterns:
		if err := keywordsOnly(raw); err != nil {
			return nil, err
		}
		patterns := make([]*regexp.Regexp, 0, len(raw.Keywords))
		for _, k := range raw.Keywords {
			re, err := regexp.Compile(k)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", k, err)
			}
			patterns = append(patterns, re)
		}
		return &ForbiddenPatterns{Meta: meta, Patterns: patterns}, nil

	case TypeCustom:
		if len(raw.Keywords) > 0 {
			return nil, errors.New("custom rules take exec, not keywords")
		}
		if strings.TrimSpace(raw.Exec) == "" {
			return nil, errors.New("exec is required")
		}
		return &Custom{Meta: meta, Exec: raw.Exec}, nil

	case TypeRequirePHPDoc:
		return buildDoc(meta, raw, doc.PHP)
	case TypeRequireKotlinDoc:
		return buildDoc(meta, raw, doc.Kotlin)
	case TypeRequireJavaDoc:
		return buildDoc(meta, raw, doc.Java)
	case TypeRequireRustDoc:
		return buildDoc(meta, raw, doc.Rust)

	case TypeRequireEnglishComment:
		return buildComment(meta, raw, comment.English)
	case TypeRequireJapaneseComment:
		return buildComment(meta, raw, comment.Japanese)

	case TypeRequirePHPUnitTest:
		return buildExternalTest(meta, raw, testexist.PHPUnit)
	case TypeRequireKotestTest:
		return buildExternalTest(meta, raw, testexist.Kotest)
	case TypeRequireJUnitTest:
		return buildExternalTest(meta, raw, testexist.JUnit)
	case TypeRequireRustTest:
		return buildRustTest(meta, raw)

	case TypeJapanesePHPUnitTestName:
		return &RequireTestName{Meta: meta, Framework: testname.PHPUnit}, nil
	case TypeJapaneseKotestTestName:
		return &RequireTestName{Meta: meta, Framework: testname.Kotest}, nil
	case TypeJapaneseJUnitTestName:
		return &RequireTestName{Meta: meta, Framework: testname.JUnit}, nil
	case TypeJapaneseRustTestName:
		return &RequireTestName{Meta: meta, Framework: testname.Rust}, nil
	}
	return nil, fmt.Errorf("unknown rule type %q", typ)
}

func keywordsOnly(raw rawEntry) error {
	if raw.Exec != "" {
		return errors.New("exec is only valid for custom rules")
	}
	if len(raw.Keywords) == 0 {
		return errors.New("keywords are required")
	}
	return nil
}

func buildDoc(meta Meta, raw rawEntry, lang *doc.Language) (Rule, error) {
	cfg := doc.Config{}
	for k, v := range raw.Doc {
		kind := doc.Kind(k)
		if !lang.HasKind(kind) {
			return nil, fmt.Errorf("unknown %s doc element %q (known: %v)", lang.Name, k, lang.Kinds())
		}
		vis, err := doc.ParseVisibility(v)
		if err != nil {
			return nil, fmt.Errorf("doc.%s: %w", k, err)
		}
		cfg[kind] = vis
	}
	if len(cfg) == 0 {
		return nil, fmt.Errorf("doc must enable at least one of %v", lang.Kinds())
	}
	return &RequireDoc{Meta: meta, Lang: lang, Config: cfg}, nil
}

func buildComment(meta Meta, raw rawEntry, lang comment.Language) (Rule, error) {
	c := raw.Comment
	if c == nil {
		return nil, errors.New("comment is required")
	}
	custom := len(c.Lines) > 0 || len(c.Blocks) > 0
	switch {
	case c.Lang != "" && custom:
		return nil, errors.New("comment takes either lang or lines/blocks, not both")
	case c.Lang != "":
		syntax, err := comment.Preset(c.Lang)
		if err != nil {
			return nil, err
		}
		return &RequireComment{Meta: meta, Language: lang, Syntax: syntax, Preset: c.Lang}, nil
	case custom:
		for _, b := range c.Blocks {
			if b.Start == "" || b.End == "" {
				return nil, errors.New("comment blocks need both start and end")
			}
		}
		return &RequireComment{Meta: meta, Language: lang, Syntax: comment.Syntax{Lines: c.Lines, Blocks: c.Blocks}}, nil
	}
	return nil, errors.New("comment needs lang or lines/blocks")
}

func buildExternalTest(meta Meta, raw rawEntry, fam *testexist.Family) (Rule, error) {
	var cfg testexist.ExternalConfig
	if t := raw.Test; t != nil {
		req, err := testexist.ParseRequire(t.Require)
		if err != nil {
			return nil, err
		}
		cfg = testexist.ExternalConfig{
			TestDirectory:   t.TestDirectory,
			SourceDirectory: t.SourceDirectory,
			NamespaceRoot:   t.NamespaceRoot,
			Suffix:          t.Suffix,
			Require:         req,
		}
	}
	return &RequireExternalTest{Meta: meta, Family: fam, Config: cfg.WithDefaults(fam)}, nil
}

func buildRustTest(meta Meta, raw rawEntry) (Rule, error) {
	r := &RequireRustTest{Meta: meta}
	if raw.Unit != nil {
		req, err := testexist.ParseRequire(raw.Unit.Require)
		if err != nil {
			return nil, fmt.Errorf("unit: %w", err)
		}
		r.Unit = &req
	}
	if in := raw.Integration; in != nil {
		req, err := testexist.ParseRequire(in.Require)
		if err != nil {
			return nil, fmt.Errorf("integration: %w", err)
		}
		cfg := testexist.IntegrationConfig{
			TestDirectory:   in.TestDirectory,
			SourceDirectory: in.SourceDirectory,
			Suffix:          raw.Suffix,
			Require:         req,
		}.WithDefaults()
		r.Integration = &cfg
	}
	if r.Unit == nil && r.Integration == nil {
		return nil, errors.New("unit or integration is required")
	}
	return r, nil
}
