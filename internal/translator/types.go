// Package translator defines the translation provider contract and its two
// implementations: the remote Gemini-backed provider and the offline
// glossary/heuristic provider. The variant is chosen at construction time;
// callers only see the Via field of the result.
package translator

import "context"

// Via identifies which path produced a translation.
const (
	ViaCache   = "cache"
	ViaRemote  = "remote"
	ViaOffline = "offline"
)

// Request is a single translation request.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	// Context names the Odoo module the text came from, for prompt context.
	Context string
	// Glossary holds the terminology for this language pair. The remote
	// provider injects it into the prompt; the offline provider substitutes
	// terms directly.
	Glossary map[string]string
}

// Result is the provider output. Validated is set by the caller after
// placeholder validation.
type Result struct {
	Text      string
	Via       string
	Validated bool
}

// Provider translates text between languages.
type Provider interface {
	Name() string
	Translate(ctx context.Context, req Request) (*Result, error)
}
