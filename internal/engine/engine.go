// Package engine orchestrates a translation run: cache lookup, glossary
// resolution, provider calls, placeholder validation with one retry, and
// result bookkeeping.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/potran/internal/cache"
	"github.com/valpere/potran/internal/catalog"
	"github.com/valpere/potran/internal/detector"
	"github.com/valpere/potran/internal/glossary"
	"github.com/valpere/potran/internal/stats"
	"github.com/valpere/potran/internal/translator"
	"github.com/valpere/potran/internal/validator"
)

// Store is the persistence surface the engine needs: user glossary terms and
// the request/result audit trail. Satisfied by *store.Store.
type Store interface {
	SaveRequest(ctx context.Context, id, sourceText, sourceLang, targetLang, module string) error
	SaveResult(ctx context.Context, requestID, provider, via, translatedText string, validated bool, latencyMs int, errMsg string) error
	GetGlossaryTerms(ctx context.Context, sourceLang, targetLang string) (map[string]string, error)
}

// Options configures an Engine. Provider is required; everything else is
// optional.
type Options struct {
	Provider translator.Provider
	// Cache may be nil to disable caching entirely.
	Cache *cache.Cache
	// Detector enables source-language auto-correction when set.
	Detector *detector.Detector
	// Store records the audit trail and supplies user glossary terms.
	Store Store
	Stats *stats.Counters

	SourceLang string
	TargetLang string
	// AutoDetect corrects the source language per entry when the detector
	// disagrees with SourceLang.
	AutoDetect bool
	// DryRun suppresses audit writes; callers also skip file writes and the
	// cache flush, so a dry run leaves no trace on disk.
	DryRun bool
}

// Engine runs translations against a single provider with shared cache,
// glossary, and counters. Safe for concurrent use.
type Engine struct {
	opts Options

	mu sync.Mutex
	// terms memoizes merged glossary tables per language pair.
	terms map[string]map[string]string
}

func New(opts Options) (*Engine, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("engine: provider required")
	}
	if opts.Stats == nil {
		opts.Stats = stats.New()
	}
	return &Engine{opts: opts, terms: make(map[string]map[string]string)}, nil
}

func (e *Engine) Stats() stats.Snapshot {
	return e.opts.Stats.Snapshot()
}

// Flush persists the cache to disk. No-op without a cache.
func (e *Engine) Flush() error {
	if e.opts.Cache == nil {
		return nil
	}
	return e.opts.Cache.Flush()
}

// glossaryTerms merges built-in and stored user terms for a pair, memoized
// for the lifetime of the engine.
func (e *Engine) glossaryTerms(ctx context.Context, sourceLang, targetLang string) map[string]string {
	key := sourceLang + "|" + targetLang
	e.mu.Lock()
	if terms, ok := e.terms[key]; ok {
		e.mu.Unlock()
		return terms
	}
	e.mu.Unlock()

	var user map[string]string
	if e.opts.Store != nil {
		if stored, err := e.opts.Store.GetGlossaryTerms(ctx, sourceLang, targetLang); err == nil {
			user = stored
		}
	}
	terms := glossary.Terms(sourceLang, targetLang, user)

	e.mu.Lock()
	e.terms[key] = terms
	e.mu.Unlock()
	return terms
}

// Translate translates one text. The cache is consulted first regardless of
// provider; a hit reports Via "cache" and counts as validated since only
// validated translations are ever written to the cache. On placeholder
// mismatch the provider is retried once; if the retry still mismatches, the
// first translation is returned with Validated false so callers can mark the
// entry for review instead of dropping it. Unvalidated translations stay out
// of the cache so a later run gets a fresh attempt instead of a poisoned hit.
func (e *Engine) Translate(ctx context.Context, text, sourceLang, targetLang, module string) (*translator.Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return &translator.Result{Text: "", Via: translator.ViaOffline, Validated: true}, nil
	}

	st := e.opts.Stats
	st.AddRequest()

	if e.opts.Cache != nil {
		if translation, ok := e.opts.Cache.Get(text, sourceLang, targetLang); ok {
			st.AddCacheHit()
			return &translator.Result{Text: translation, Via: translator.ViaCache, Validated: true}, nil
		}
	}

	req := translator.Request{
		Text:       text,
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Context:    module,
		Glossary:   e.glossaryTerms(ctx, sourceLang, targetLang),
	}

	reqID := uuid.New().String()
	if e.audit() {
		_ = e.opts.Store.SaveRequest(ctx, reqID, text, sourceLang, targetLang, module)
	}

	start := time.Now()
	res, err := e.opts.Provider.Translate(ctx, req)
	if err != nil {
		st.AddError()
		if e.audit() {
			_ = e.opts.Store.SaveResult(ctx, reqID, e.opts.Provider.Name(), "", "", false,
				int(time.Since(start).Milliseconds()), err.Error())
		}
		return nil, err
	}

	res.Validated = validator.Validate(text, res.Text)
	if !res.Validated {
		st.AddRetry()
		if retry, retryErr := e.opts.Provider.Translate(ctx, req); retryErr == nil {
			if validator.Validate(text, retry.Text) {
				retry.Validated = true
				res = retry
			}
		}
	}

	switch res.Via {
	case translator.ViaRemote:
		st.AddAPICall()
	case translator.ViaOffline:
		st.AddOfflineRequest()
	}

	if e.opts.Cache != nil && res.Validated && res.Text != "" {
		e.opts.Cache.Put(text, sourceLang, targetLang, res.Text)
	}
	if e.audit() {
		_ = e.opts.Store.SaveResult(ctx, reqID, e.opts.Provider.Name(), res.Via, res.Text, res.Validated,
			int(time.Since(start).Milliseconds()), "")
	}
	return res, nil
}

func (e *Engine) audit() bool {
	return e.opts.Store != nil && !e.opts.DryRun
}

// TranslateEntry translates one catalog entry in place. It returns true when
// the entry was skipped (already translated, empty, or detected as already
// being in the target language).
func (e *Engine) TranslateEntry(ctx context.Context, entry *catalog.Entry, force bool) (bool, error) {
	po := entry.PO
	if strings.TrimSpace(po.MsgID) == "" {
		return true, nil
	}
	// Plural entries need per-language plural forms (nplurals varies by
	// target); a single msgstr would be dropped on write. Left for manual
	// translation.
	if po.MsgIDPlural != "" {
		return true, nil
	}
	if po.IsTranslated() && !po.IsFuzzy() && !force {
		return true, nil
	}

	sourceLang := e.opts.SourceLang
	if e.opts.AutoDetect && e.opts.Detector != nil {
		if detected := e.opts.Detector.DetectLang(ctx, po.MsgID); detected != "" {
			if detected == e.opts.TargetLang && !force {
				// Source text already in the target language.
				return true, nil
			}
			if detected != sourceLang && detected != e.opts.TargetLang {
				e.opts.Stats.AddAutoCorrection()
				sourceLang = detected
			}
		}
	}

	res, err := e.Translate(ctx, po.MsgID, sourceLang, e.opts.TargetLang, entry.Module)
	if err != nil {
		return false, err
	}

	po.MsgStr = res.Text
	po.SetFuzzy(false)
	if res.Validated {
		entry.Status = catalog.StatusTranslated
	} else {
		entry.Status = catalog.StatusValidatedFailed
		po.SetFuzzy(true)
	}
	return false, nil
}

// BatchOptions controls a catalog run.
type BatchOptions struct {
	Force bool
	// Module restricts the run to entries from one Odoo module.
	Module   string
	Progress func(done, total int)
}

// BatchResult summarizes a catalog run.
type BatchResult struct {
	Total      int
	Translated int
	Skipped    int
	Failed     int
}

// TranslateBatch walks the catalog sequentially. Per-entry failures are
// counted and logged into the result rather than aborting the run; only
// context cancellation stops it.
func (e *Engine) TranslateBatch(ctx context.Context, cat *catalog.Catalog, opts BatchOptions) (*BatchResult, error) {
	entries := cat.Entries()
	res := &BatchResult{}

	var selected []*catalog.Entry
	for _, entry := range entries {
		if opts.Module != "" && entry.Module != opts.Module {
			continue
		}
		selected = append(selected, entry)
	}
	res.Total = len(selected)

	for i, entry := range selected {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		skipped, err := e.TranslateEntry(ctx, entry, opts.Force)
		switch {
		case err != nil:
			res.Failed++
		case skipped:
			res.Skipped++
		default:
			res.Translated++
		}

		if opts.Progress != nil {
			opts.Progress(i+1, res.Total)
		}
	}
	return res, nil
}
