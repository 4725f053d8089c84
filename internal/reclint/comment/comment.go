// Package comment extracts comment spans from source text and classifies
// the natural language they are written in.
//
// Extraction works on marker text alone. Markers inside string literals are
// reported as comments.
package comment

import (
	"strings"
	"unicode/utf8"
)

// Block is a start/end marker pair such as /* and */.
type Block struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Syntax describes how comments are written in a language.
type Syntax struct {
	Lines  []string // Line comment markers.
	Blocks []Block  // Block comment marker pairs.
	// Skip drops spans whose text starts with one of these prefixes,
	// used to keep documentation comments out of classification.
	Skip []string
}

// Span is one extracted comment.
type Span struct {
	Line   int    // 1-based line of the opening marker.
	Column int    // 1-based rune column of the opening marker.
	Text   string // Content between the markers, trimmed.
}

// Extract returns every comment span of text in source order.
// Unterminated block comments run to the end of the text.
func Extract(text string, syntax Syntax) []Span {
	var spans []Span

	var (
		open     *Block
		buf      strings.Builder
		openLine int
		openCol  int
	)

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		pos := 0
		for pos <= len(line) {
			if open != nil {
				idx := strings.Index(line[pos:], open.End)
				if idx < 0 {
					buf.WriteString(line[pos:])
					buf.WriteByte('\n')
					break
				}
				buf.WriteString(line[pos : pos+idx])
				spans = appendSpan(spans, syntax, openLine, openCol, buf.String())
				pos += idx + len(open.End)
				open = nil
				buf.Reset()
				continue
			}

			at, marker, block := nextMarker(line[pos:], syntax)
			if at < 0 {
				break
			}
			start := pos + at
			col := utf8.RuneCountInString(line[:start]) + 1
			if block == nil {
				spans = appendSpan(spans, syntax, i+1, col, line[start+len(marker):])
				break
			}
			open = block
			openLine, openCol = i+1, col
			pos = start + len(block.Start)
		}
	}
	if open != nil {
		spans = appendSpan(spans, syntax, openLine, openCol, buf.String())
	}

	return spans
}

// nextMarker finds the earliest line or block marker in s. Longer markers win
// ties so that "///" is not read as "//" followed by text when both are listed.
func nextMarker(s string, syntax Syntax) (int, string, *Block) {
	best, bestLen := -1, 0
	var marker string
	var block *Block

	consider := func(idx int, m string, b *Block) {
		if idx < 0 {
			return
		}
		if best < 0 || idx < best || (idx == best && len(m) > bestLen) {
			best, bestLen, marker, block = idx, len(m), m, b
		}
	}
	for _, m := range syntax.Lines {
		if m != "" {
			consider(strings.Index(s, m), m, nil)
		}
	}
	for i := range syntax.Blocks {
		b := &syntax.Blocks[i]
		if b.Start != "" && b.End != "" {
			consider(strings.Index(s, b.Start), b.Start, b)
		}
	}
	return best, marker, block
}

func appendSpan(spans []Span, syntax Syntax, line, col int, raw string) []Span {
	for _, p := range syntax.Skip {
		if strings.HasPrefix(raw, p) {
			return spans
		}
	}
	text := strings.TrimSpace(raw)
	if isDecoration(text) {
		return spans
	}
	return append(spans, Span{Line: line, Column: col, Text: text})
}

// isDecoration reports whether text carries no content beyond whitespace and
// the asterisks used to frame block comments.
func isDecoration(text string) bool {
	return strings.TrimSpace(strings.Trim(text, "* \t\n")) == ""
}
