package validate

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pmaojo/reclint/internal/reclint/rule"
)

// Kind separates ordinary rule failures from problems callers may filter.
type Kind string

const (
	// KindRule is an ordinary rule violation.
	KindRule Kind = "rule"
	// KindResolution means a test location could not be resolved.
	KindResolution Kind = "resolution"
	// KindTimeout means a custom command was killed after its timeout.
	KindTimeout Kind = "timeout"
)

// Violation is one reported failure.
type Violation struct {
	Kind    Kind   `json:"kind"`
	Label   string `json:"label"`
	Message string `json:"message"`
	File    string `json:"file"`   // Slash-separated, relative to the project root.
	Line    int    `json:"line"`   // 1-based; 0 when the violation concerns the whole file.
	Column  int    `json:"column"` // 1-based rune column; 0 with Line 0.
	Found   string `json:"found,omitempty"`
	Output  string `json:"output,omitempty"` // Custom command output.
}

// FileError is a per-file failure that did not stop the run.
type FileError struct {
	File string `json:"file"`
	Err  error  `json:"-"`
}

func (e FileError) Error() string { return e.File + ": " + e.Err.Error() }

// Result is the outcome of one validation run.
type Result struct {
	Violations []Violation
	Errors     []FileError
	Files      int // Files visited.
}

// SortOrder selects the presentation order.
type SortOrder string

const (
	// ByRule orders by label, then file, then position.
	ByRule SortOrder = "rule"
	// ByFile orders by file, then position.
	ByFile SortOrder = "file"
)

// ParseSortOrder validates a --sort value.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case ByRule, ByFile:
		return SortOrder(s), nil
	case "":
		return ByRule, nil
	}
	return "", fmt.Errorf("unknown sort order %q (want rule or file)", s)
}

func compareRest(a, b Violation) int {
	return cmp.Or(
		cmp.Compare(a.Message, b.Message),
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Found, b.Found),
		cmp.Compare(a.Output, b.Output),
	)
}

// Sort orders violations totally so repeated runs print identical reports.
func Sort(vs []Violation, order SortOrder) {
	slices.SortFunc(vs, func(a, b Violation) int {
		pos := cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
		)
		if order == ByFile {
			return cmp.Or(pos, cmp.Compare(a.Label, b.Label), compareRest(a, b))
		}
		return cmp.Or(cmp.Compare(a.Label, b.Label), pos, compareRest(a, b))
	})
}

// Format renders one violation in the given order's layout.
func Format(v Violation, order SortOrder) string {
	msg := v.Message
	if v.Kind != KindRule && v.Kind != "" {
		msg = "[" + string(v.Kind) + "] " + msg
	}
	loc := v.File
	if v.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", v.File, v.Line, v.Column)
	}

	var line string
	if order == ByFile {
		line = loc + ": " + msg
	} else {
		line = msg + ": " + loc
	}
	if v.Found != "" {
		line += " [ found: " + v.Found + " ]"
	}
	if v.Output != "" {
		for _, out := range strings.Split(v.Output, "\n") {
			line += "\n    " + out
		}
	}
	return line
}

// Write prints every violation of res in order.
func Write(w io.Writer, res *Result, order SortOrder) error {
	Sort(res.Violations, order)
	for _, v := range res.Violations {
		if _, err := fmt.Fprintln(w, Format(v, order)); err != nil {
			return err
		}
	}
	return nil
}

// FormatRule renders a rule for the show command.
func FormatRule(r rule.Rule) string {
	info := r.Info()
	return fmt.Sprintf("rule: %s [ %s ] @ %s", info.Label, strings.Join(rule.Keywords(r), ", "), info.Dir)
}

// FormatGuideline renders a guideline for the show command.
func FormatGuideline(g rule.Guideline) string {
	return fmt.Sprintf("guideline: %s @ %s", g.Message, g.Dir)
}

// FormatGuidelineOnly renders a guideline for the guideline command.
func FormatGuidelineOnly(g rule.Guideline) string {
	return fmt.Sprintf("[ guideline ] %s: %s", g.Dir, g.Message)
}
