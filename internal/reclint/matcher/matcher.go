package matcher

import (
	"fmt"
	"path"
	"strings"
)

// Pattern names the test applied to each keyword of a condition.
type Pattern string

const (
	FileStartsWith    Pattern = "file_starts_with"
	FileEndsWith      Pattern = "file_ends_with"
	PathContains      Pattern = "path_contains"
	FileNotStartsWith Pattern = "file_not_starts_with"
	FileNotEndsWith   Pattern = "file_not_ends_with"
	PathNotContains   Pattern = "path_not_contains"
)

// Cond combines the keyword results of one condition.
type Cond string

const (
	// And requires every keyword to pass. It is the default.
	And Cond = "and"
	// Or requires any keyword to pass.
	Or Cond = "or"
)

// Condition is one group of a match list.
type Condition struct {
	Pattern  Pattern  `yaml:"pattern" json:"pattern"`
	Keywords []string `yaml:"keywords" json:"keywords"`
	Cond     Cond     `yaml:"cond,omitempty" json:"cond,omitempty"`
}

// positive maps each pattern to its non-negated form.
var positive = map[Pattern]struct {
	base    Pattern
	negated bool
}{
	FileStartsWith:    {FileStartsWith, false},
	FileEndsWith:      {FileEndsWith, false},
	PathContains:      {PathContains, false},
	FileNotStartsWith: {FileStartsWith, true},
	FileNotEndsWith:   {FileEndsWith, true},
	PathNotContains:   {PathContains, true},
}

// Validate checks the pattern and combinator names.
func (c Condition) Validate() error {
	if _, ok := positive[c.Pattern]; !ok {
		return fmt.Errorf("unknown match pattern %q", c.Pattern)
	}
	switch c.Cond {
	case "", And, Or:
	default:
		return fmt.Errorf("unknown match cond %q", c.Cond)
	}
	if len(c.Keywords) == 0 {
		return fmt.Errorf("match pattern %s has no keywords", c.Pattern)
	}
	return nil
}

// Matches reports whether relPath satisfies every condition.
// relPath is slash-separated and relative to the project root; the file name is
// its last element. An empty list matches every file.
func Matches(relPath string, conditions []Condition) bool {
	name := path.Base(relPath)
	for _, c := range conditions {
		if !c.matches(name, relPath) {
			return false
		}
	}
	return true
}

func (c Condition) matches(name, relPath string) bool {
	p, ok := positive[c.Pattern]
	if !ok {
		return false
	}
	test := func(keyword string) bool {
		var hit bool
		switch p.base {
		case FileStartsWith:
			hit = strings.HasPrefix(name, keyword)
		case FileEndsWith:
			hit = strings.HasSuffix(name, keyword)
		case PathContains:
			hit = strings.Contains(relPath, keyword)
		}
		return hit != p.negated
	}

	if c.Cond == Or {
		for _, k := range c.Keywords {
			if test(k) {
				return true
			}
		}
		return false
	}
	for _, k := range c.Keywords {
		if !test(k) {
			return false
		}
	}
	return true
}
