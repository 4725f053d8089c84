package testexist

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pmaojo/reclint/internal/reclint/doc"
)

// Family describes an ecosystem whose tests live in a separate tree.
type Family struct {
	Name      string
	Lang      *doc.Language
	Separator string         // Namespace segment separator.
	decl      *regexp.Regexp // Captures the declared namespace.
	Defaults  ExternalConfig
}

var (
	// PHPUnit maps PHP namespaces to a tests tree.
	PHPUnit = &Family{
		Name:      "phpunit",
		Lang:      doc.PHP,
		Separator: `\`,
		decl:      regexp.MustCompile(`(?m)^\s*namespace\s+([A-Za-z_\\][A-Za-z0-9_\\]*)\s*[;{]`),
		Defaults:  ExternalConfig{TestDirectory: "tests", SourceDirectory: "src", Suffix: "Test", Require: FileExists},
	}
	// Kotest maps Kotlin packages to a Gradle test source set.
	Kotest = &Family{
		Name:      "kotest",
		Lang:      doc.Kotlin,
		Separator: ".",
		decl:      regexp.MustCompile("(?m)^\\s*package\\s+([A-Za-z_`][A-Za-z0-9_.`]*)"),
		Defaults:  ExternalConfig{TestDirectory: "src/test/kotlin", SourceDirectory: "src/main/kotlin", Suffix: "Test", Require: FileExists},
	}
	// JUnit maps Java packages to a Maven test source set.
	JUnit = &Family{
		Name:      "junit",
		Lang:      doc.Java,
		Separator: ".",
		decl:      regexp.MustCompile(`(?m)^\s*package\s+([A-Za-z_][A-Za-z0-9_.]*)\s*;`),
		Defaults:  ExternalConfig{TestDirectory: "src/test/java", SourceDirectory: "src/main/java", Suffix: "Test", Require: FileExists},
	}
)

// ExternalConfig locates tests for one family.
type ExternalConfig struct {
	TestDirectory   string  // Root of the test tree, relative to the project root.
	SourceDirectory string  // Prefix stripped from implementation paths.
	NamespaceRoot   string  // Leading namespace stripped before mapping segments to directories.
	Suffix          string  // Inserted between the file stem and its extension.
	Require         Require
}

// WithDefaults fills empty fields from the family defaults.
func (c ExternalConfig) WithDefaults(f *Family) ExternalConfig {
	if c.TestDirectory == "" {
		c.TestDirectory = f.Defaults.TestDirectory
	}
	if c.SourceDirectory == "" {
		c.SourceDirectory = f.Defaults.SourceDirectory
	}
	if c.Suffix == "" {
		c.Suffix = f.Defaults.Suffix
	}
	if c.Require == "" {
		c.Require = f.Defaults.Require
	}
	return c
}

// Namespace returns the segments of the namespace declared in text.
func (f *Family) Namespace(text string) ([]string, bool) {
	m := f.decl.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	var segs []string
	for _, s := range strings.Split(m[1], f.Separator) {
		s = strings.Trim(s, "`")
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs, len(segs) > 0
}

// PathDerived maps rel to its test path by swapping the source prefix for the test tree.
func PathDerived(rel string, cfg ExternalConfig) string {
	trimmed := rel
	if src := strings.Trim(cfg.SourceDirectory, "/"); src != "" && strings.HasPrefix(rel, src+"/") {
		trimmed = strings.TrimPrefix(rel, src+"/")
	}
	return path.Join(cfg.TestDirectory, path.Dir(trimmed), testFileName(rel, cfg.Suffix))
}

// NamespaceDerived maps the declared namespace segments of rel to its test path.
func (f *Family) NamespaceDerived(rel string, segs []string, cfg ExternalConfig) string {
	return path.Join(cfg.TestDirectory, path.Join(f.relative(segs, cfg)...), testFileName(rel, cfg.Suffix))
}

// relative strips the configured namespace root from segs.
func (f *Family) relative(segs []string, cfg ExternalConfig) []string {
	var rootSegs []string
	for _, s := range strings.Split(cfg.NamespaceRoot, f.Separator) {
		if s != "" {
			rootSegs = append(rootSegs, s)
		}
	}
	if len(rootSegs) > 0 && len(segs) >= len(rootSegs) && slices.Equal(segs[:len(rootSegs)], rootSegs) {
		return segs[len(rootSegs):]
	}
	return segs
}

func testFileName(rel, suffix string) string {
	base := path.Base(rel)
	ext := path.Ext(base)
	return strings.TrimSuffix(base, ext) + suffix + ext
}

// External resolves the test file of rel in a separate test tree.
// The test exists only when the path-derived and namespace-derived locations
// agree and the file is present, declaring a namespace that ends with the
// implementation's namespace.
func External(root, rel, text string, f *Family, cfg ExternalConfig) ([]Finding, error) {
	if len(doc.Find(text, f.Lang)) == 0 {
		return nil, nil
	}

	segs, ok := f.Namespace(text)
	if !ok {
		return []Finding{{Kind: Unresolved, Detail: "cannot resolve test location: no namespace or package declaration"}}, nil
	}

	byPath := PathDerived(rel, cfg)
	byNamespace := f.NamespaceDerived(rel, segs, cfg)
	if byPath != byNamespace {
		return []Finding{{
			Kind:   Mismatch,
			Detail: fmt.Sprintf("namespace/path mismatch: path expects %s, namespace %s expects %s", byPath, strings.Join(segs, f.Separator), byNamespace),
		}}, nil
	}

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(byPath)))
	if errors.Is(err, os.ErrNotExist) {
		return []Finding{missingFile(byPath)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read test file %s: %w", byPath, err)
	}
	testText := string(content)

	testSegs, ok := f.Namespace(testText)
	if !ok {
		return []Finding{{
			Kind:   Missing,
			Detail: fmt.Sprintf("test file %s declares no namespace, expected %s", byPath, strings.Join(segs, f.Separator)),
		}}, nil
	}
	if !hasSuffix(testSegs, f.relative(segs, cfg)) {
		return []Finding{{
			Kind:   Missing,
			Detail: fmt.Sprintf("test file %s declares namespace %s, expected %s", byPath, strings.Join(testSegs, f.Separator), strings.Join(segs, f.Separator)),
		}}, nil
	}

	if cfg.Require != AllPublic {
		return nil, nil
	}
	return uncovered(doc.PublicFunctions(text, f.Lang), tokens(testText)), nil
}

// hasSuffix reports whether the test namespace ends with the implementation's
// relative segments, so Tests\Service matches App\Service under root App.
func hasSuffix(segs, tail []string) bool {
	if len(tail) > len(segs) {
		return false
	}
	return slices.Equal(segs[len(segs)-len(tail):], tail)
}

func uncovered(public []doc.Declaration, covered map[string]struct{}) []Finding {
	var out []Finding
	for _, d := range public {
		if _, ok := covered[d.Name]; ok {
			continue
		}
		out = append(out, Finding{
			Kind:   Uncovered,
			Line:   d.Line,
			Column: d.Column,
			Detail: fmt.Sprintf("public function `%s` is not tested", d.Name),
		})
	}
	return out
}
