// Package validator checks that placeholder tokens survive translation.
// A translation is valid when the multiset of placeholder tokens it contains
// equals the multiset in the source text; token order may differ.
package validator

import (
	"regexp"
	"strings"
)

// placeholderRe matches the recognized placeholder syntaxes, longest
// alternatives first so "{{x}}" is not consumed as "{x}":
//
//	%(name)s   python named printf
//	%s %d …    printf verbs
//	{{name}}   double-brace template
//	${name}    shell/JS template
//	{name}     brace format
var placeholderRe = regexp.MustCompile(`%\([^)]+\)s|%[a-zA-Z]|\{\{[^{}]+\}\}|\$\{[^{}]+\}|\{[^{}]+\}`)

// Extract returns all placeholder tokens in text, in order of appearance.
func Extract(text string) []string {
	return placeholderRe.FindAllString(text, -1)
}

// Validate reports whether translated preserves every placeholder token of
// source with the same multiplicity. An empty or blank translation of a
// non-empty source is invalid.
func Validate(source, translated string) bool {
	if strings.TrimSpace(translated) == "" {
		return strings.TrimSpace(source) == ""
	}
	return multisetsEqual(Extract(source), Extract(translated))
}

// Missing returns the placeholder tokens of source that the translation
// lost (or whose count decreased), for diagnostics.
func Missing(source, translated string) []string {
	counts := make(map[string]int)
	for _, tok := range Extract(translated) {
		counts[tok]++
	}
	var missing []string
	for _, tok := range Extract(source) {
		if counts[tok] > 0 {
			counts[tok]--
			continue
		}
		missing = append(missing, tok)
	}
	return missing
}

func multisetsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[string]int, len(a))
	for _, tok := range a {
		counts[tok]++
	}
	for _, tok := range b {
		counts[tok]--
		if counts[tok] < 0 {
			return false
		}
	}
	return true
}
