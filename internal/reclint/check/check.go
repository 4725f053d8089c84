// Package check inspects the rule files of a project without validating any
// source file.
package check

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/pmaojo/reclint/internal/reclint/config"
	"github.com/pmaojo/reclint/internal/reclint/rule"
)

// Dir is a directory holding a rule file.
type Dir struct {
	Rel   string   // Slash-separated, "." for the root.
	Types []string // Rule types in declaration order.
}

// RuleFile returns the rule file path relative to the root.
func (d Dir) RuleFile() string {
	if d.Rel == "." {
		return "./" + rule.FileName
	}
	return d.Rel + "/" + rule.FileName
}

// walkRuleFiles calls fn for every rule file below the root, skipping hidden
// and excluded directories.
func walkRuleFiles(cfg *config.Config, fn func(rel string, content []byte) error) error {
	return filepath.WalkDir(cfg.Root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != cfg.Root && (strings.HasPrefix(d.Name(), ".") || cfg.IsExcludedDir(d.Name())) {
			return filepath.SkipDir
		}
		content, err := os.ReadFile(filepath.Join(p, rule.FileName))
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(cfg.Root, p)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), content)
	})
}

// Dirs lists every directory holding a rule file, in walk order.
func Dirs(cfg *config.Config) ([]Dir, error) {
	var dirs []Dir
	err := walkRuleFiles(cfg, func(rel string, content []byte) error {
		types, err := ruleTypes(content)
		if err != nil {
			return fmt.Errorf("%s: %w", path.Join(rel, rule.FileName), err)
		}
		dirs = append(dirs, Dir{Rel: rel, Types: types})
		return nil
	})
	return dirs, err
}

// ruleTypes reads the type key of every rule entry without validating it.
func ruleTypes(content []byte) ([]string, error) {
	var raw struct {
		Rule []map[string]yaml.Node `yaml:"rule"`
	}
	if err := yaml.NewDecoder(bytes.NewReader(content)).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	var types []string
	for _, entry := range raw.Rule {
		keys := make([]string, 0, len(entry))
		for k := range entry {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		types = append(types, keys...)
	}
	return types, nil
}

// List renders one line per rule file: "path: [ type, ... ]".
func List(cfg *config.Config) ([]string, error) {
	dirs, err := Dirs(cfg)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, fmt.Sprintf("%s: [ %s ]", d.RuleFile(), strings.Join(d.Types, ", ")))
	}
	return out, nil
}

// SchemaResult is the outcome of a strict check of every rule file.
type SchemaResult struct {
	Lines   []string
	Invalid int
}

// Schema parses every rule file strictly, rejecting unknown keys as well as
// the errors validation itself would report.
func Schema(cfg *config.Config) (*SchemaResult, error) {
	res := &SchemaResult{}
	err := walkRuleFiles(cfg, func(rel string, content []byte) error {
		if _, err := rule.Parse(content, rel, true); err != nil {
			res.Invalid++
			res.Lines = append(res.Lines, "Invalid: "+path.Join(rel, rule.FileName), "  - "+err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if res.Invalid == 0 {
		res.Lines = append(res.Lines, "All "+rule.FileName+" files are valid.")
	}
	return res, nil
}

const (
	branch     = "|-- "
	lastBranch = "`-- "
	vertical   = "|   "
	empty      = "    "
)

type node struct {
	name     string
	types    []string
	hasRules bool
	children map[string]*node
}

func (n *node) child(name string) *node {
	if c, ok := n.children[name]; ok {
		return c
	}
	c := &node{name: name, children: map[string]*node{}}
	n.children[name] = c
	return c
}

func (n *node) sorted() []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Tree renders the directories leading to rule files as an ASCII tree with
// the rule types aligned in a column.
func Tree(cfg *config.Config) ([]string, error) {
	dirs, err := Dirs(cfg)
	if err != nil {
		return nil, err
	}
	root := &node{name: ".", children: map[string]*node{}}
	for _, d := range dirs {
		n := root
		if d.Rel != "." {
			for _, seg := range strings.Split(d.Rel, "/") {
				n = n.child(seg)
			}
		}
		n.types, n.hasRules = d.Types, true
	}

	column := width(root, 0) + 4
	var out []string
	render(root, nil, column, &out)
	return out, nil
}

func width(n *node, depth int) int {
	w := depth*4 + utf8.RuneCountInString(n.name)
	for _, c := range n.children {
		w = max(w, width(c, depth+1))
	}
	return w
}

// render writes n and its subtree. last holds, per ancestor level, whether
// that node was the last of its siblings.
func render(n *node, last []bool, column int, out *[]string) {
	var prefix strings.Builder
	for i, l := range last {
		switch {
		case i < len(last)-1 && l:
			prefix.WriteString(empty)
		case i < len(last)-1:
			prefix.WriteString(vertical)
		case l:
			prefix.WriteString(lastBranch)
		default:
			prefix.WriteString(branch)
		}
	}
	line := prefix.String() + n.name
	if n.hasRules {
		if pad := column - utf8.RuneCountInString(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		line += "[ " + strings.Join(n.types, ", ") + " ]"
	}
	*out = append(*out, line)

	children := n.sorted()
	for i, c := range children {
		render(c, append(append([]bool(nil), last...), i == len(children)-1), column, out)
	}
}
