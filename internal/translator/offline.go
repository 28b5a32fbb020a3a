package translator

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/valpere/potran/internal/glossary"
)

// offlinePlaceholderRe stashes format placeholders so dictionary rules never
// rewrite text inside them.
var offlinePlaceholderRe = regexp.MustCompile(`%\([^)]+\)s|%s|\{\{[^}]+\}\}|\$\{[^}]+\}|\{[^}]+\}`)

// offlineWordRe tokenizes words including accented Latin letters and
// apostrophes.
var offlineWordRe = regexp.MustCompile(`[A-Za-zÀ-ÿ']+`)

// collapseRe matches whitespace runs without newlines.
var collapseRe = regexp.MustCompile(`[ \t]+`)

// OfflineProvider translates with embedded dictionaries and the glossary.
// It never touches the network and supports en↔fr and en↔es; other pairs
// pass the text through unchanged.
type OfflineProvider struct{}

func NewOfflineProvider() *OfflineProvider {
	return &OfflineProvider{}
}

func (p *OfflineProvider) Name() string {
	return "offline"
}

// SupportsPair reports whether the embedded dictionaries cover the pair.
func (p *OfflineProvider) SupportsPair(sourceLang, targetLang string) bool {
	_, ok := offlineDictionary[offlinePairKey(sourceLang, targetLang)]
	return ok
}

func offlinePairKey(sourceLang, targetLang string) string {
	return strings.ToLower(sourceLang) + "|" + strings.ToLower(targetLang)
}

// Translate applies, in order: whole-text glossary match, placeholder
// stashing, phrase substitution (longest first), word substitution, and
// placeholder restore. Unsupported pairs return the source text unchanged
// so batch runs never fail offline.
func (p *OfflineProvider) Translate(_ context.Context, req Request) (*Result, error) {
	text := req.Text
	if strings.TrimSpace(text) == "" {
		return &Result{Text: text, Via: ViaOffline}, nil
	}

	if translated, ok := glossary.Match(req.Glossary, text); ok {
		return &Result{Text: applyCase(strings.TrimSpace(text), translated), Via: ViaOffline}, nil
	}

	rules, ok := offlineDictionary[offlinePairKey(req.SourceLang, req.TargetLang)]
	if !ok {
		return &Result{Text: text, Via: ViaOffline}, nil
	}

	working, stash := stashPlaceholders(text)
	working = applyPhrases(working, rules.phrases)
	working = applyWords(working, rules.words)
	working = restorePlaceholders(working, stash)
	working = collapseRe.ReplaceAllString(working, " ")

	return &Result{Text: strings.TrimSpace(working), Via: ViaOffline}, nil
}

func stashPlaceholders(text string) (string, []string) {
	var stash []string
	out := offlinePlaceholderRe.ReplaceAllStringFunc(text, func(m string) string {
		token := fmt.Sprintf("\x00PH%d\x00", len(stash))
		stash = append(stash, m)
		return token
	})
	return out, stash
}

func restorePlaceholders(text string, stash []string) string {
	for i, original := range stash {
		text = strings.Replace(text, fmt.Sprintf("\x00PH%d\x00", i), original, 1)
	}
	return text
}

// applyPhrases substitutes multi-word phrases longest-first so "purchase
// order" wins over "order".
func applyPhrases(text string, phrases []rule) string {
	ordered := make([]rule, len(phrases))
	copy(ordered, phrases)
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].from) > len(ordered[j].from)
	})
	for _, r := range ordered {
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(r.from))
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			return applyCase(m, r.to)
		})
	}
	return text
}

func applyWords(text string, words []rule) string {
	wordMap := make(map[string]string, len(words))
	for _, r := range words {
		wordMap[strings.ToLower(r.from)] = r.to
	}
	return offlineWordRe.ReplaceAllStringFunc(text, func(token string) string {
		translated, ok := wordMap[strings.ToLower(token)]
		if !ok {
			return token
		}
		return applyCase(token, translated)
	})
}

// applyCase transfers the casing shape of source onto target: all-caps,
// all-lower, title case, or a single leading capital.
func applyCase(source, target string) string {
	if source == "" || target == "" {
		return target
	}
	switch {
	case source == strings.ToUpper(source) && source != strings.ToLower(source):
		return strings.ToUpper(target)
	case source == strings.ToLower(source):
		return strings.ToLower(target)
	case isTitleCase(source):
		return titleCase(target)
	case unicode.IsUpper([]rune(source)[0]):
		runes := []rune(target)
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	}
	return target
}

func isTitleCase(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		runes := []rune(w)
		if !unicode.IsUpper(runes[0]) {
			return false
		}
		for _, r := range runes[1:] {
			if unicode.IsUpper(r) {
				return false
			}
		}
	}
	return true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
