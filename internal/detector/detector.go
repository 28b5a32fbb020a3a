// Package detector identifies the language of PO message text. Detection is
// layered: cheap keyword heuristics for the short UI strings that dominate
// Odoo files, statistical n-gram detection for everything else, and an
// optional network detector as tie-breaker for low-confidence results.
package detector

import (
	"context"
	"regexp"
	"strings"
	"sync"

	lingua "github.com/pemistahl/lingua-go"
)

// DefaultMinConfidence is the threshold below which a statistical result is
// considered ambiguous.
const DefaultMinConfidence = 0.7

// frenchIndicators are common French function words and Odoo business terms.
// Short UI strings rarely carry enough signal for statistical detection, so
// these decide fast.
var frenchIndicators = wordSet(
	"le", "la", "les", "un", "une", "des", "du", "de", "à", "au", "aux",
	"est", "sont", "être", "avoir", "faire", "pour", "dans", "sur", "avec",
	"commande", "facture", "livraison", "client", "fournisseur", "article",
	"paiement", "devis", "partenaire", "bon", "créer", "confirmer", "annuler",
	"veuillez", "montant", "total", "calculé", "automatiquement", "saisir",
	"commentaires", "nouvelle", "ici",
)

var englishIndicators = wordSet(
	"the", "a", "an", "is", "are", "be", "have", "do", "for", "in", "on", "with",
	"order", "invoice", "delivery", "customer", "supplier", "product", "payment",
	"quotation", "partner", "create", "confirm", "cancel", "please", "amount",
	"total", "calculated", "automatically", "enter", "comments", "new", "here",
)

var tokenRe = regexp.MustCompile(`[\p{L}']+`)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// NetworkDetector is an optional remote tie-breaker consulted when local
// detection stays under the confidence threshold.
type NetworkDetector interface {
	DetectLanguage(ctx context.Context, text string) (lang string, confidence float64, err error)
}

// Detector combines keyword heuristics, lingua statistical detection, and an
// optional network detector. Safe for concurrent use.
type Detector struct {
	lingua        lingua.LanguageDetector
	minConfidence float64

	mu      sync.Mutex
	network NetworkDetector
	// networkDown disables the network detector for the rest of the process
	// after its first failure.
	networkDown bool
}

// Option configures a Detector.
type Option func(*Detector)

// WithNetworkDetector enables the remote tie-breaker.
func WithNetworkDetector(nd NetworkDetector) Option {
	return func(d *Detector) { d.network = nd }
}

// WithMinConfidence overrides the ambiguity threshold.
func WithMinConfidence(min float64) Option {
	return func(d *Detector) { d.minConfidence = min }
}

// New builds a Detector restricted to the languages that actually occur in
// Odoo localization files. Restricting the set improves accuracy on short
// strings and keeps model load reasonable.
func New(opts ...Option) *Detector {
	d := &Detector{
		lingua: lingua.NewLanguageDetectorBuilder().
			FromLanguages(
				lingua.English,
				lingua.French,
				lingua.Spanish,
				lingua.German,
				lingua.Italian,
				lingua.Portuguese,
				lingua.Dutch,
				lingua.Arabic,
				lingua.Catalan,
				lingua.Romanian,
				lingua.Danish,
				lingua.Swedish,
				lingua.Finnish,
			).
			Build(),
		minConfidence: DefaultMinConfidence,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect returns the ISO 639-1 code and confidence for text. Empty or blank
// text yields ("", 0).
func (d *Detector) Detect(ctx context.Context, text string) (string, float64) {
	if strings.TrimSpace(text) == "" {
		return "", 0
	}

	heurLang, heurConf := heuristicDetect(text)
	if heurLang != "" && heurConf >= d.minConfidence {
		return heurLang, heurConf
	}

	statLang, statConf := d.statisticalDetect(text)
	if statLang != "" && statConf >= d.minConfidence {
		return statLang, statConf
	}

	if lang, conf, ok := d.networkDetect(ctx, text); ok && conf >= d.minConfidence {
		return lang, conf
	}

	// Low-confidence fallbacks, strongest signal first.
	if heurLang != "" {
		return heurLang, heurConf
	}
	if statLang != "" {
		return statLang, statConf
	}
	return "", 0
}

// DetectLang is Detect without the confidence value.
func (d *Detector) DetectLang(ctx context.Context, text string) string {
	lang, _ := d.Detect(ctx, text)
	return lang
}

// heuristicDetect counts indicator words. A clear majority either way is a
// confident match regardless of text length.
func heuristicDetect(text string) (string, float64) {
	var french, english int
	for _, token := range tokenRe.FindAllString(strings.ToLower(text), -1) {
		if _, ok := frenchIndicators[token]; ok {
			french++
		}
		if _, ok := englishIndicators[token]; ok {
			english++
		}
	}
	switch {
	case french > 0 && french > english:
		return "fr", 0.95
	case english > 0 && english > french:
		return "en", 0.95
	}
	return "", 0
}

func (d *Detector) statisticalDetect(text string) (string, float64) {
	values := d.lingua.ComputeLanguageConfidenceValues(text)
	if len(values) == 0 {
		return "", 0
	}
	top := values[0]
	return strings.ToLower(top.Language().IsoCode639_1().String()), top.Value()
}

// networkDetect consults the remote detector once per ambiguous text. Any
// failure disables it for the remainder of the process so a broken network
// cannot stall a batch run.
func (d *Detector) networkDetect(ctx context.Context, text string) (string, float64, bool) {
	d.mu.Lock()
	nd := d.network
	down := d.networkDown
	d.mu.Unlock()
	if nd == nil || down {
		return "", 0, false
	}

	lang, conf, err := nd.DetectLanguage(ctx, text)
	if err != nil {
		d.mu.Lock()
		d.networkDown = true
		d.mu.Unlock()
		return "", 0, false
	}
	return normalizeLangCode(lang), conf, true
}

// normalizeLangCode reduces a BCP 47 tag to its primary subtag.
func normalizeLangCode(code string) string {
	code = strings.ToLower(code)
	if i := strings.IndexByte(code, '-'); i >= 0 {
		code = code[:i]
	}
	return code
}
