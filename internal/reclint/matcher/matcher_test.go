package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesEmptyList(t *testing.T) {
	assert.True(t, Matches("src/Foo.php", nil))
	assert.True(t, Matches("Foo.php", []Condition{}))
}

func TestMatchesPatterns(t *testing.T) {
	tests := []struct {
		name string
		path string
		cond Condition
		want bool
	}{
		{"starts with", "src/TestFoo.php", Condition{Pattern: FileStartsWith, Keywords: []string{"Test"}}, true},
		{"starts with uses base name", "Test/Foo.php", Condition{Pattern: FileStartsWith, Keywords: []string{"Test"}}, false},
		{"ends with", "src/Foo.php", Condition{Pattern: FileEndsWith, Keywords: []string{".php"}}, true},
		{"ends with miss", "src/Foo.kt", Condition{Pattern: FileEndsWith, Keywords: []string{".php"}}, false},
		{"path contains", "src/generated/Foo.php", Condition{Pattern: PathContains, Keywords: []string{"/generated/"}}, true},
		{"path contains miss", "src/Foo.php", Condition{Pattern: PathContains, Keywords: []string{"generated"}}, false},
		{"and all keywords", "src/FooTest.php", Condition{Pattern: FileEndsWith, Keywords: []string{"Test.php", ".php"}}, true},
		{"and one keyword fails", "src/Foo.php", Condition{Pattern: FileEndsWith, Keywords: []string{"Test.php", ".php"}}, false},
		{"or any keyword", "src/Foo.kt", Condition{Pattern: FileEndsWith, Keywords: []string{".php", ".kt"}, Cond: Or}, true},
		{"or none", "src/Foo.rs", Condition{Pattern: FileEndsWith, Keywords: []string{".php", ".kt"}, Cond: Or}, false},
		{"not starts with and", "src/Foo.php", Condition{Pattern: FileNotStartsWith, Keywords: []string{"Test", "Mock"}}, true},
		{"not starts with and hit", "src/MockFoo.php", Condition{Pattern: FileNotStartsWith, Keywords: []string{"Test", "Mock"}}, false},
		{"not starts with or is almost always true", "src/MockFoo.php", Condition{Pattern: FileNotStartsWith, Keywords: []string{"Test", "Mock"}, Cond: Or}, true},
		{"not ends with", "src/Foo.php", Condition{Pattern: FileNotEndsWith, Keywords: []string{"Test.php"}}, true},
		{"path not contains", "src/vendor/Foo.php", Condition{Pattern: PathNotContains, Keywords: []string{"vendor"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.path, []Condition{tt.cond}))
		})
	}
}

func TestNegationIsExactInverse(t *testing.T) {
	pairs := map[Pattern]Pattern{
		FileStartsWith: FileNotStartsWith,
		FileEndsWith:   FileNotEndsWith,
		PathContains:   PathNotContains,
	}
	paths := []string{"src/Foo.php", "TestFoo.kt", "a/b/c/Bar_test.rs", "Foo"}
	keywords := []string{"Foo", "Test", ".php", "b/c", ""}

	for pos, neg := range pairs {
		for _, p := range paths {
			for _, k := range keywords {
				a := Matches(p, []Condition{{Pattern: pos, Keywords: []string{k}}})
				b := Matches(p, []Condition{{Pattern: neg, Keywords: []string{k}}})
				assert.NotEqual(t, a, b, "%s/%s on %s with %q", pos, neg, p, k)
			}
		}
	}
}

func TestSingleKeywordAndEqualsKeywordTest(t *testing.T) {
	and := Condition{Pattern: FileEndsWith, Keywords: []string{".php"}, Cond: And}
	or := Condition{Pattern: FileEndsWith, Keywords: []string{".php"}, Cond: Or}
	for _, p := range []string{"a.php", "a.kt"} {
		assert.Equal(t, Matches(p, []Condition{and}), Matches(p, []Condition{or}))
	}
}

func TestGroupsAreAnded(t *testing.T) {
	conds := []Condition{
		{Pattern: FileEndsWith, Keywords: []string{".php"}},
		{Pattern: PathNotContains, Keywords: []string{"tests/"}},
	}
	assert.True(t, Matches("src/Foo.php", conds))
	assert.False(t, Matches("tests/FooTest.php", conds))
	assert.False(t, Matches("src/Foo.kt", conds))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Condition{Pattern: PathContains, Keywords: []string{"x"}}.Validate())
	assert.Error(t, Condition{Pattern: "file_contains", Keywords: []string{"x"}}.Validate())
	assert.Error(t, Condition{Pattern: PathContains, Keywords: []string{"x"}, Cond: "xor"}.Validate())
	assert.Error(t, Condition{Pattern: PathContains}.Validate())
}
