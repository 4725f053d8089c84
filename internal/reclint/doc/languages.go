package doc

import (
	"strings"
	"unicode"
)

// kindDef recognizes one declaration kind by the keyword tokens that follow
// the modifiers. A nil keyword list matches a method signature instead.
type kindDef struct {
	kind     Kind
	keywords []string
	category Category
	// reject lists modifiers that turn the match into something else, such as
	// companion for a Kotlin object.
	reject []string
}

// Language is the data table driving the analyzer for one source language.
type Language struct {
	Name        string
	kinds       []kindDef
	modifiers   map[string]bool
	isModifier  func(tok string) bool
	visibility  func(mods, attrs []string, def kindDef) bool
	skipName    func(name string) bool
	annotations []string // Line prefixes that may sit between a doc block and its declaration.
	docLines    []string // Line doc markers such as ///.
	docBlock    string   // Opening marker of a doc block.
}

// Kinds lists the declaration kinds the language recognizes.
func (l *Language) Kinds() []Kind {
	out := make([]Kind, 0, len(l.kinds))
	for _, k := range l.kinds {
		if !containsKind(out, k.kind) {
			out = append(out, k.kind)
		}
	}
	return out
}

func containsKind(list []Kind, k Kind) bool {
	for _, v := range list {
		if v == k {
			return true
		}
	}
	return false
}

// HasKind reports whether k is one of the language's kinds.
func (l *Language) HasKind(k Kind) bool {
	for _, s := range l.kinds {
		if s.kind == k {
			return true
		}
	}
	return false
}

type match struct {
	Declaration
	modifiers []string
	def       kindDef
}

func (l *Language) modifier(tok string) bool {
	if l.modifiers[tok] {
		return true
	}
	return l.isModifier != nil && l.isModifier(tok)
}

func (l *Language) public(mods, attrs []string, def kindDef) bool {
	return l.visibility(mods, attrs, def)
}

// match recognizes a declaration at the start of a trimmed line.
func (l *Language) match(line string) (match, bool) {
	fields := strings.Fields(line)
	i := 0
	for i < len(fields) && l.modifier(fields[i]) {
		i++
	}
	mods := fields[:i]
	rest := fields[i:]
	if len(rest) == 0 {
		return match{}, false
	}

	for _, def := range l.kinds {
		if def.keywords == nil {
			continue
		}
		if !hasTokens(rest, def.keywords) || containsAny(mods, def.reject) {
			continue
		}
		name := declName(rest[len(def.keywords):], def.category)
		if name == "" || (l.skipName != nil && l.skipName(name)) {
			return match{}, false
		}
		return match{
			Declaration: Declaration{Kind: def.kind, Category: def.category, Name: name},
			modifiers:   mods,
			def:         def,
		}, true
	}

	for _, def := range l.kinds {
		if def.keywords != nil {
			continue
		}
		if name, ok := signatureName(strings.Join(rest, " ")); ok {
			return match{
				Declaration: Declaration{Kind: def.kind, Category: def.category, Name: name},
				modifiers:   mods,
				def:         def,
			}, true
		}
	}
	return match{}, false
}

func hasTokens(fields, keywords []string) bool {
	if len(fields) <= len(keywords) {
		return false
	}
	for i, k := range keywords {
		if fields[i] != k {
			return false
		}
	}
	return true
}

func containsAny(list, want []string) bool {
	for _, w := range want {
		for _, v := range list {
			if v == w {
				return true
			}
		}
	}
	return false
}

// declName extracts the declared identifier from the tokens after the kind keywords.
func declName(fields []string, cat Category) string {
	if cat == FunctionLike {
		fields = strings.Fields(skipTypeParams(strings.Join(fields, " ")))
	}
	for _, f := range fields {
		if idx := strings.IndexByte(f, '('); idx >= 0 {
			f = f[:idx]
		}
		if cat == FunctionLike {
			if idx := strings.LastIndexByte(f, '.'); idx >= 0 {
				f = f[idx+1:]
			}
		}
		return identPrefix(strings.TrimLeft(f, "&"))
	}
	return ""
}

// skipTypeParams drops a leading generic parameter clause such as
// "<K, V>" or "<T : Comparable<T>>". An unclosed clause leaves nothing.
func skipTypeParams(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "<") {
		return s
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[i+1:])
			}
		}
	}
	return ""
}

func identPrefix(s string) string {
	for i, r := range s {
		if !(r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return s[:i]
		}
	}
	return s
}

var nonDeclarationStarts = map[string]bool{
	"return": true, "new": true, "throw": true, "if": true, "else": true, "for": true,
	"while": true, "switch": true, "case": true, "catch": true, "do": true, "try": true,
	"yield": true, "assert": true, "package": true, "import": true,
}

// signatureName recognizes "Type name(" method signatures: at least two words
// before the parenthesis, no assignment, and a name starting in lower case so
// constructors and calls are left out.
func signatureName(s string) (string, bool) {
	paren := strings.IndexByte(s, '(')
	if paren < 0 {
		return "", false
	}
	head := skipTypeParams(s[:paren])
	if strings.ContainsAny(head, "=;") {
		return "", false
	}
	words := strings.Fields(head)
	if len(words) < 2 || nonDeclarationStarts[words[0]] {
		return "", false
	}
	if lead := []rune(words[0])[0]; !unicode.IsLetter(lead) && lead != '_' {
		return "", false
	}
	name := words[len(words)-1]
	if name == "" || identPrefix(name) != name || nonDeclarationStarts[name] {
		return "", false
	}
	first := []rune(name)[0]
	if !unicode.IsLower(first) && first != '_' {
		return "", false
	}
	return name, true
}

func hasModifier(mods []string, m string) bool {
	for _, v := range mods {
		if v == m {
			return true
		}
	}
	return false
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// PHP treats types as public and functions as public unless marked otherwise.
var PHP = &Language{
	Name: "php",
	kinds: []kindDef{
		{kind: "class", keywords: []string{"class"}, category: TypeLike},
		{kind: "interface", keywords: []string{"interface"}, category: TypeLike},
		{kind: "trait", keywords: []string{"trait"}, category: TypeLike},
		{kind: "enum", keywords: []string{"enum"}, category: TypeLike},
		{kind: "function", keywords: []string{"function"}, category: FunctionLike},
	},
	modifiers: set("abstract", "final", "readonly", "public", "protected", "private", "static"),
	visibility: func(mods, _ []string, def kindDef) bool {
		if def.category == TypeLike {
			return true
		}
		return !hasModifier(mods, "private") && !hasModifier(mods, "protected")
	},
	skipName:    func(name string) bool { return strings.HasPrefix(name, "__") },
	annotations: []string{"#["},
	docBlock:    "/**",
}

// Kotlin declarations are public unless marked private, protected or internal.
var Kotlin = &Language{
	Name: "kotlin",
	kinds: []kindDef{
		{kind: "enum_class", keywords: []string{"enum", "class"}, category: TypeLike},
		{kind: "sealed_class", keywords: []string{"sealed", "class"}, category: TypeLike},
		{kind: "sealed_interface", keywords: []string{"sealed", "interface"}, category: TypeLike},
		{kind: "data_class", keywords: []string{"data", "class"}, category: TypeLike},
		{kind: "value_class", keywords: []string{"value", "class"}, category: TypeLike},
		{kind: "annotation_class", keywords: []string{"annotation", "class"}, category: TypeLike},
		{kind: "interface", keywords: []string{"fun", "interface"}, category: TypeLike},
		{kind: "class", keywords: []string{"class"}, category: TypeLike},
		{kind: "interface", keywords: []string{"interface"}, category: TypeLike},
		{kind: "object", keywords: []string{"object"}, category: TypeLike, reject: []string{"companion"}},
		{kind: "typealias", keywords: []string{"typealias"}, category: TypeLike},
		{kind: "function", keywords: []string{"fun"}, category: FunctionLike},
	},
	modifiers: set("public", "private", "protected", "internal", "open", "abstract", "final",
		"override", "suspend", "inline", "operator", "infix", "tailrec", "external", "expect",
		"actual", "inner", "companion"),
	visibility: func(mods, _ []string, _ kindDef) bool {
		return !hasModifier(mods, "private") && !hasModifier(mods, "protected") && !hasModifier(mods, "internal")
	},
	annotations: []string{"@"},
	docBlock:    "/**",
}

// Java requires an explicit public modifier.
var Java = &Language{
	Name: "java",
	kinds: []kindDef{
		{kind: "annotation", keywords: []string{"@interface"}, category: TypeLike},
		{kind: "class", keywords: []string{"class"}, category: TypeLike},
		{kind: "interface", keywords: []string{"interface"}, category: TypeLike},
		{kind: "enum", keywords: []string{"enum"}, category: TypeLike},
		{kind: "record", keywords: []string{"record"}, category: TypeLike},
		{kind: "method", category: FunctionLike},
	},
	modifiers: set("public", "protected", "private", "static", "final", "abstract", "synchronized",
		"native", "default", "strictfp", "sealed", "non-sealed"),
	visibility: func(mods, _ []string, _ kindDef) bool {
		return hasModifier(mods, "public")
	},
	annotations: []string{"@"},
	docBlock:    "/**",
}

// Rust requires a bare pub. Macros count as public when exported.
var Rust = &Language{
	Name: "rust",
	kinds: []kindDef{
		{kind: "struct", keywords: []string{"struct"}, category: TypeLike},
		{kind: "enum", keywords: []string{"enum"}, category: TypeLike},
		{kind: "trait", keywords: []string{"trait"}, category: TypeLike},
		{kind: "type_alias", keywords: []string{"type"}, category: TypeLike},
		{kind: "union", keywords: []string{"union"}, category: TypeLike},
		{kind: "fn", keywords: []string{"fn"}, category: FunctionLike},
		{kind: "macro_rules", keywords: []string{"macro_rules!"}, category: FunctionLike},
		{kind: "mod", keywords: []string{"mod"}, category: TypeLike},
	},
	modifiers:  set("pub", "pub(crate)", "pub(super)", "pub(self)", "unsafe", "async", "const", "extern", "default", "auto"),
	isModifier: func(tok string) bool { return strings.HasPrefix(tok, `"`) || strings.HasPrefix(tok, "pub(in") },
	visibility: func(mods, attrs []string, def kindDef) bool {
		if def.kind == "macro_rules" {
			for _, a := range attrs {
				if strings.HasPrefix(a, "#[macro_export") {
					return true
				}
			}
			return false
		}
		return hasModifier(mods, "pub")
	},
	annotations: []string{"#["},
	docLines:    []string{"///"},
	docBlock:    "/**",
}

var languages = map[string]*Language{
	PHP.Name:    PHP,
	Kotlin.Name: Kotlin,
	Java.Name:   Java,
	Rust.Name:   Rust,
}

// Lookup returns the language table for name.
func Lookup(name string) (*Language, bool) {
	l, ok := languages[name]
	return l, ok
}
