package dimension

import "sort"

// DefaultLanguage is consulted when a label has no text in the requested language.
const DefaultLanguage = "fi"

// Label holds the display text of a node, level or dimension per language.
type Label map[string]string

// Set stores value for lang.
func (l Label) Set(lang, value string) {
	l[lang] = value
}

// Value returns the text for lang, falling back to the default language and
// then to the alphabetically first language that has text.
func (l Label) Value(lang string) string {
	if v, ok := l[lang]; ok {
		return v
	}
	if v, ok := l[DefaultLanguage]; ok {
		return v
	}
	if len(l) == 0 {
		return ""
	}
	langs := make([]string, 0, len(l))
	for k := range l {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return l[langs[0]]
}

// IsEmpty reports whether no language has text.
func (l Label) IsEmpty() bool {
	return len(l) == 0
}
