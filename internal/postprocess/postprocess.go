// Package postprocess strips common LLM artifacts from raw model output
// before a translation is validated or cached.
package postprocess

import (
	"regexp"
	"strings"
)

// thinkingRe matches complete reasoning blocks. Tag variants are listed
// explicitly because RE2 has no backreferences.
var thinkingRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// truncatedThinkingRe matches a reasoning tag the model never closed.
var truncatedThinkingRe = regexp.MustCompile(`(?is)(?:<thinking>|<think>|<reasoning>).*$`)

// echoRe matches introductory phrases models prepend despite instructions,
// anchored at the start and requiring a colon to avoid false positives.
var echoRe = regexp.MustCompile(
	`(?i)^(?:(?:certainly|sure|of course)[,.]? )?(?:here(?:'s| is)(?: the)? )?(?:the )?(?:translated |translation of the )?(?:translation|text)\s*:`,
)

// Clean removes reasoning blocks, instruction echoes, and wrapping quotes
// from text and returns the trimmed result.
func Clean(text string) string {
	text = thinkingRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(truncatedThinkingRe.ReplaceAllString(text, ""))

	if loc := echoRe.FindStringIndex(text); loc != nil {
		text = strings.TrimSpace(text[loc[1]:])
	}

	return strings.TrimSpace(unwrapQuotes(text))
}

// CleanLine is Clean restricted to the first non-empty line. PO messages
// are translated one at a time, so anything past the first line is model
// commentary.
func CleanLine(text string) string {
	cleaned := Clean(text)
	for _, line := range strings.Split(cleaned, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return strings.TrimSpace(unwrapQuotes(line))
		}
	}
	return ""
}

// unwrapQuotes strips one matching pair of outer quotes when the whole text
// is wrapped in them.
func unwrapQuotes(text string) string {
	runes := []rune(text)
	n := len(runes)
	if n < 2 {
		return text
	}
	pairs := map[rune]rune{
		'"':      '"',
		'\'':     '\'',
		'«':      '»',
		'“': '”',
		'‘': '’',
	}
	if closing, ok := pairs[runes[0]]; ok && runes[n-1] == closing {
		inner := strings.TrimSpace(string(runes[1 : n-1]))
		// Refuse to unwrap when the quote pair does not span the whole
		// text, e.g. `"a" and "b"`.
		if !strings.ContainsRune(inner, runes[0]) || runes[0] == '\'' {
			return inner
		}
	}
	return text
}
