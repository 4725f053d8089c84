package validate

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pmaojo/reclint/internal/reclint/comment"
	"github.com/pmaojo/reclint/internal/reclint/doc"
	"github.com/pmaojo/reclint/internal/reclint/rule"
	"github.com/pmaojo/reclint/internal/reclint/runner"
	"github.com/pmaojo/reclint/internal/reclint/testexist"
	"github.com/pmaojo/reclint/internal/reclint/testname"
)

type file struct {
	abs  string
	rel  string
	text string
}

func (f file) lines() []string {
	return strings.Split(strings.ReplaceAll(f.text, "\r\n", "\n"), "\n")
}

func violation(r rule.Rule, f file, line, col int, found string) Violation {
	info := r.Info()
	return Violation{Kind: KindRule, Label: info.Label, Message: info.Message, File: f.rel, Line: line, Column: col, Found: found}
}

// check runs one rule against one file.
func (e *Engine) check(ctx context.Context, f file, r rule.Rule) ([]Violation, error) {
	switch r := r.(type) {
	case *rule.ForbiddenTexts:
		return forbiddenTexts(r, f), nil
	case *rule.ForbiddenPatterns:
		return forbiddenPatterns(r, f), nil
	case *rule.Custom:
		return e.custom(ctx, r, f)
	case *rule.RequireDoc:
		return requireDoc(r, f), nil
	case *rule.RequireComment:
		return requireComment(r, f), nil
	case *rule.RequireExternalTest:
		findings, err := testexist.External(e.cfg.Root, f.rel, f.text, r.Family, r.Config)
		if err != nil {
			return nil, err
		}
		return fromFindings(r, f, findings), nil
	case *rule.RequireRustTest:
		return e.rustTest(r, f)
	case *rule.RequireTestName:
		return requireTestName(r, f)
	}
	return nil, fmt.Errorf("unsupported rule type %T", r)
}

// forbiddenTexts reports the first keyword found on each line.
func forbiddenTexts(r *rule.ForbiddenTexts, f file) []Violation {
	var out []Violation
	for i, line := range f.lines() {
		for _, k := range r.Keywords {
			if idx := strings.Index(line, k); idx >= 0 {
				out = append(out, violation(r, f, i+1, utf8.RuneCountInString(line[:idx])+1, k))
				break
			}
		}
	}
	return out
}

// forbiddenPatterns reports the first pattern matching each line.
func forbiddenPatterns(r *rule.ForbiddenPatterns, f file) []Violation {
	var out []Violation
	for i, line := range f.lines() {
		for _, re := range r.Patterns {
			if loc := re.FindStringIndex(line); loc != nil {
				out = append(out, violation(r, f, i+1, utf8.RuneCountInString(line[:loc[0]])+1, line[loc[0]:loc[1]]))
				break
			}
		}
	}
	return out
}

func (e *Engine) custom(ctx context.Context, r *rule.Custom, f file) ([]Violation, error) {
	res, err := e.runner.Run(ctx, r.Exec, f.abs)
	if err != nil {
		return nil, err
	}
	switch res.Outcome {
	case runner.Passed:
		return nil, nil
	case runner.TimedOut:
		v := violation(r, f, 0, 0, "")
		v.Kind = KindTimeout
		v.Output = res.Output
		return []Violation{v}, nil
	}
	v := violation(r, f, 0, 0, "")
	v.Output = res.Output
	return []Violation{v}, nil
}

func requireDoc(r *rule.RequireDoc, f file) []Violation {
	var out []Violation
	for _, d := range doc.Undocumented(doc.Find(f.text, r.Lang), r.Config) {
		out = append(out, violation(r, f, d.Line, d.Column, string(d.Kind)+" "+d.Name))
	}
	return out
}

func requireComment(r *rule.RequireComment, f file) []Violation {
	var out []Violation
	for _, s := range comment.Offending(comment.Extract(f.text, r.Syntax), r.Language) {
		out = append(out, violation(r, f, s.Line, s.Column, excerpt(s.Text)))
	}
	return out
}

// excerpt shortens comment text to its first line, at most 40 runes.
func excerpt(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = strings.TrimSpace(text[:idx])
	}
	if utf8.RuneCountInString(text) > 40 {
		text = string([]rune(text)[:40]) + "..."
	}
	return text
}

func (e *Engine) rustTest(r *rule.RequireRustTest, f file) ([]Violation, error) {
	var findings []testexist.Finding
	if r.Unit != nil {
		findings = append(findings, testexist.SameFile(f.text, *r.Unit)...)
	}
	if r.Integration != nil {
		fs, err := testexist.Integration(e.cfg.Root, f.rel, f.text, *r.Integration)
		if err != nil {
			return nil, err
		}
		findings = append(findings, fs...)
	}
	return fromFindings(r, f, findings), nil
}

func fromFindings(r rule.Rule, f file, findings []testexist.Finding) []Violation {
	out := make([]Violation, 0, len(findings))
	for _, fd := range findings {
		v := violation(r, f, fd.Line, fd.Column, fd.Detail)
		if fd.Kind.IsResolution() {
			v.Kind = KindResolution
		}
		out = append(out, v)
	}
	return out
}

func requireTestName(r *rule.RequireTestName, f file) ([]Violation, error) {
	names, err := testname.Find(f.text, r.Framework)
	if err != nil {
		return nil, err
	}
	var out []Violation
	for _, n := range testname.NonJapanese(names) {
		out = append(out, violation(r, f, n.Line, n.Column, n.Text))
	}
	return out, nil
}
