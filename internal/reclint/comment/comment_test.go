package comment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPreset(t *testing.T, name string) Syntax {
	t.Helper()
	s, err := Preset(name)
	require.NoError(t, err)
	return s
}

func TestExtractLineComments(t *testing.T) {
	spans := Extract("let x = 1; // trailing\n// own line\nlet y = 2;", mustPreset(t, "kotlin"))
	require.Len(t, spans, 2)
	assert.Equal(t, Span{Line: 1, Column: 12, Text: "trailing"}, spans[0])
	assert.Equal(t, Span{Line: 2, Column: 1, Text: "own line"}, spans[1])
}

func TestExtractBlockComments(t *testing.T) {
	text := "/* one */ code /* two */\n/*\n * multi\n * line\n */\nfun x() {}"
	spans := Extract(text, mustPreset(t, "java"))
	require.Len(t, spans, 3)
	assert.Equal(t, "one", spans[0].Text)
	assert.Equal(t, "two", spans[1].Text)
	assert.Equal(t, 16, spans[1].Column)
	assert.Equal(t, 2, spans[2].Line)
	assert.Contains(t, spans[2].Text, "multi")
	assert.Contains(t, spans[2].Text, "line")
}

func TestExtractEarliestMarkerWins(t *testing.T) {
	spans := Extract("x /* a // b */ y // c", mustPreset(t, "java"))
	require.Len(t, spans, 2)
	assert.Equal(t, "a // b", spans[0].Text)
	assert.Equal(t, "c", spans[1].Text)
}

func TestExtractSkipsEmptyAndDecoration(t *testing.T) {
	spans := Extract("//\n/* */\n/****/\n//   \n// real", mustPreset(t, "java"))
	require.Len(t, spans, 1)
	assert.Equal(t, "real", spans[0].Text)
}

func TestExtractUnterminatedBlock(t *testing.T) {
	spans := Extract("/* never\nclosed", mustPreset(t, "java"))
	require.Len(t, spans, 1)
	assert.Equal(t, "never\nclosed", spans[0].Text)
}

func TestRustPresetDropsDocComments(t *testing.T) {
	text := "/// doc comment\n// normal comment\n//! inner doc\n/*! inner block */"
	spans := Extract(text, mustPreset(t, "rust"))
	require.Len(t, spans, 1)
	assert.Equal(t, "normal comment", spans[0].Text)
}

func TestCustomSyntax(t *testing.T) {
	syntax := Syntax{Blocks: []Block{{Start: "<!--", End: "-->"}}}
	spans := Extract("// not a comment\n<!-- real comment -->", syntax)
	require.Len(t, spans, 1)
	assert.Equal(t, "real comment", spans[0].Text)

	py := mustPreset(t, "python")
	spans = Extract("def f():\n    \"\"\"説明\"\"\"\n    return 1  # done", py)
	require.Len(t, spans, 2)
	assert.Equal(t, "説明", spans[0].Text)
	assert.Equal(t, "done", spans[1].Text)
}

func TestContainsJapanese(t *testing.T) {
	assert.True(t, ContainsJapanese("これは"))
	assert.True(t, ContainsJapanese("カタカナ"))
	assert.True(t, ContainsJapanese("漢字"))
	assert.True(t, ContainsJapanese("ｶﾀｶﾅ"))
	assert.True(t, ContainsJapanese("mixed テスト text"))
	assert.False(t, ContainsJapanese("plain english"))
	assert.False(t, ContainsJapanese("café naïve"))
	assert.False(t, ContainsJapanese(""))
}

func TestOffending(t *testing.T) {
	spans := []Span{
		{Line: 1, Text: "english only"},
		{Line: 2, Text: "日本語のコメント"},
	}

	en := Offending(spans, English)
	require.Len(t, en, 1)
	assert.Equal(t, 2, en[0].Line)

	ja := Offending(spans, Japanese)
	require.Len(t, ja, 1)
	assert.Equal(t, 1, ja[0].Line)
}

func TestPresetUnknown(t *testing.T) {
	_, err := Preset("cobol")
	assert.Error(t, err)
	assert.Contains(t, PresetNames(), "rust")
}
