package comment

import (
	"fmt"
	"sort"
)

var cStyle = []Block{{Start: "/*", End: "*/"}}

var presets = map[string]Syntax{
	"rust":       {Lines: []string{"//"}, Blocks: cStyle, Skip: []string{"/", "!"}},
	"kotlin":     {Lines: []string{"//"}, Blocks: cStyle},
	"java":       {Lines: []string{"//"}, Blocks: cStyle},
	"php":        {Lines: []string{"//"}, Blocks: cStyle},
	"go":         {Lines: []string{"//"}, Blocks: cStyle},
	"typescript": {Lines: []string{"//"}, Blocks: cStyle},
	"python":     {Lines: []string{"#"}, Blocks: []Block{{Start: `"""`, End: `"""`}}},
	"shell":      {Lines: []string{"#"}},
	"html":       {Blocks: []Block{{Start: "<!--", End: "-->"}}},
}

// Preset returns the named syntax.
func Preset(name string) (Syntax, error) {
	s, ok := presets[name]
	if !ok {
		return Syntax{}, fmt.Errorf("unknown comment preset %q (known: %v)", name, PresetNames())
	}
	return s, nil
}

// PresetNames lists the known presets in alphabetical order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
