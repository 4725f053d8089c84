package comment

// japaneseRanges are the Hiragana, Katakana, CJK ideograph, Katakana phonetic
// extension and half-width Katakana blocks.
var japaneseRanges = [][2]rune{
	{0x3040, 0x309F},
	{0x30A0, 0x30FF},
	{0x4E00, 0x9FFF},
	{0x31F0, 0x31FF},
	{0xFF65, 0xFF9F},
}

// ContainsJapanese reports whether any rune of text falls in a Japanese block.
func ContainsJapanese(text string) bool {
	for _, r := range text {
		for _, rg := range japaneseRanges {
			if r >= rg[0] && r <= rg[1] {
				return true
			}
		}
	}
	return false
}

// Language is the natural language a rule requires comments to be written in.
type Language int

const (
	English Language = iota
	Japanese
)

func (l Language) String() string {
	if l == Japanese {
		return "japanese"
	}
	return "english"
}

// Offending returns the spans that violate the language requirement.
// English rejects spans holding Japanese text. Japanese rejects spans holding none.
func Offending(spans []Span, lang Language) []Span {
	var out []Span
	for _, s := range spans {
		ja := ContainsJapanese(s.Text)
		if (lang == English && ja) || (lang == Japanese && !ja) {
			out = append(out, s)
		}
	}
	return out
}
