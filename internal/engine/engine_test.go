package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/valpere/potran/internal/cache"
	"github.com/valpere/potran/internal/catalog"
	"github.com/valpere/potran/internal/pofile"
	"github.com/valpere/potran/internal/translator"
)

// stubProvider returns canned translations and counts calls.
type stubProvider struct {
	calls      atomic.Int32
	translate  func(req translator.Request) (*translator.Result, error)
	lastGlossy map[string]string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Translate(_ context.Context, req translator.Request) (*translator.Result, error) {
	s.calls.Add(1)
	s.lastGlossy = req.Glossary
	if s.translate != nil {
		return s.translate(req)
	}
	return &translator.Result{Text: "tr:" + req.Text, Via: translator.ViaRemote}, nil
}

func newTestEngine(t *testing.T, p translator.Provider) *Engine {
	t.Helper()
	c := cache.New(filepath.Join(t.TempDir(), "cache.json"))
	e, err := New(Options{
		Provider:   p,
		Cache:      c,
		SourceLang: "en",
		TargetLang: "fr",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func TestTranslate_CacheIdempotence(t *testing.T) {
	p := &stubProvider{}
	e := newTestEngine(t, p)
	ctx := context.Background()

	first, err := e.Translate(ctx, "Invoice", "en", "fr", "account")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if first.Via != translator.ViaRemote {
		t.Errorf("first Via = %q", first.Via)
	}

	second, err := e.Translate(ctx, "Invoice", "en", "fr", "account")
	if err != nil {
		t.Fatalf("Translate (cached): %v", err)
	}
	if second.Via != translator.ViaCache {
		t.Errorf("second Via = %q, want cache", second.Via)
	}
	if second.Text != first.Text {
		t.Errorf("cache returned %q, want %q", second.Text, first.Text)
	}
	if got := p.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}

	snap := e.Stats()
	if snap.Requests != 2 || snap.CacheHits != 1 || snap.APICalls != 1 {
		t.Errorf("stats = %+v", snap)
	}
}

func TestTranslate_CacheNormalizationHit(t *testing.T) {
	p := &stubProvider{}
	e := newTestEngine(t, p)
	ctx := context.Background()

	e.Translate(ctx, "Confirm order", "en", "fr", "")
	res, _ := e.Translate(ctx, "  Confirm   order  ", "en", "fr", "")
	if res.Via != translator.ViaCache {
		t.Errorf("whitespace variant missed cache: Via = %q", res.Via)
	}
}

func TestTranslate_ValidationRetryOnce(t *testing.T) {
	p := &stubProvider{}
	p.translate = func(req translator.Request) (*translator.Result, error) {
		if p.calls.Load() == 1 {
			// First answer drops the placeholder.
			return &translator.Result{Text: "Montant total", Via: translator.ViaRemote}, nil
		}
		return &translator.Result{Text: "Montant total: %(amount)s", Via: translator.ViaRemote}, nil
	}
	e := newTestEngine(t, p)

	res, err := e.Translate(context.Background(), "Total: %(amount)s", "en", "fr", "")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if !res.Validated {
		t.Error("retry result should be validated")
	}
	if !strings.Contains(res.Text, "%(amount)s") {
		t.Errorf("Text = %q", res.Text)
	}
	if got := p.calls.Load(); got != 2 {
		t.Errorf("provider calls = %d, want 2", got)
	}
	if snap := e.Stats(); snap.Retries != 1 {
		t.Errorf("retries = %d, want 1", snap.Retries)
	}
}

func TestTranslate_PersistentValidationFailure(t *testing.T) {
	p := &stubProvider{}
	p.translate = func(req translator.Request) (*translator.Result, error) {
		return &translator.Result{Text: "Montant total", Via: translator.ViaRemote}, nil
	}
	e := newTestEngine(t, p)

	res, err := e.Translate(context.Background(), "Total: %(amount)s", "en", "fr", "")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Validated {
		t.Error("result should not be validated")
	}
	if res.Text != "Montant total" {
		t.Errorf("first translation should be kept, got %q", res.Text)
	}
}

func TestTranslate_FailedValidationNotCached(t *testing.T) {
	p := &stubProvider{}
	p.translate = func(req translator.Request) (*translator.Result, error) {
		// Always drops the placeholder, so validation never passes.
		return &translator.Result{Text: "Montant total", Via: translator.ViaRemote}, nil
	}
	e := newTestEngine(t, p)
	ctx := context.Background()

	first, err := e.Translate(ctx, "Total: %(amount)s", "en", "fr", "")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if first.Validated {
		t.Fatal("first result should not be validated")
	}

	// A repeat request must go back to the provider, not be served a
	// poisoned result marked validated from the cache.
	second, err := e.Translate(ctx, "Total: %(amount)s", "en", "fr", "")
	if err != nil {
		t.Fatalf("Translate (repeat): %v", err)
	}
	if second.Via == translator.ViaCache {
		t.Errorf("unvalidated translation was served from cache")
	}
	if second.Validated {
		t.Errorf("repeat result reported Validated = true")
	}
	// Two runs, each with its single validation retry.
	if got := p.calls.Load(); got != 4 {
		t.Errorf("provider calls = %d, want 4", got)
	}
}

func TestTranslate_ProviderError(t *testing.T) {
	p := &stubProvider{}
	p.translate = func(req translator.Request) (*translator.Result, error) {
		return nil, errors.New("boom")
	}
	e := newTestEngine(t, p)

	if _, err := e.Translate(context.Background(), "Invoice", "en", "fr", ""); err == nil {
		t.Fatal("expected error")
	}
	if snap := e.Stats(); snap.Errors != 1 {
		t.Errorf("errors = %d, want 1", snap.Errors)
	}
}

func TestTranslate_GlossaryReachesProvider(t *testing.T) {
	p := &stubProvider{}
	e := newTestEngine(t, p)

	e.Translate(context.Background(), "Some text", "en", "fr", "")
	if p.lastGlossy["Invoice"] != "Facture" {
		t.Errorf("builtin glossary missing from request: %v", p.lastGlossy)
	}
}

func catalogEntry(msgid, msgstr string) *catalog.Entry {
	return &catalog.Entry{
		PO:     &pofile.Entry{MsgID: msgid, MsgStr: msgstr},
		Module: "sale",
	}
}

func TestTranslateEntry_SkipsTranslated(t *testing.T) {
	p := &stubProvider{}
	e := newTestEngine(t, p)

	entry := catalogEntry("Invoice", "Facture")
	skipped, err := e.TranslateEntry(context.Background(), entry, false)
	if err != nil {
		t.Fatalf("TranslateEntry: %v", err)
	}
	if !skipped {
		t.Error("translated entry should be skipped without force")
	}
	if p.calls.Load() != 0 {
		t.Error("provider should not be called")
	}
}

func TestTranslateEntry_ForceRetranslates(t *testing.T) {
	p := &stubProvider{}
	e := newTestEngine(t, p)

	entry := catalogEntry("Invoice", "Facture")
	skipped, err := e.TranslateEntry(context.Background(), entry, true)
	if err != nil {
		t.Fatalf("TranslateEntry: %v", err)
	}
	if skipped {
		t.Error("force should retranslate")
	}
	if entry.PO.MsgStr != "tr:Invoice" {
		t.Errorf("MsgStr = %q", entry.PO.MsgStr)
	}
	if entry.Status != catalog.StatusTranslated {
		t.Errorf("Status = %v", entry.Status)
	}
}

func TestTranslateEntry_SkipsPlural(t *testing.T) {
	p := &stubProvider{}
	e := newTestEngine(t, p)

	entry := &catalog.Entry{
		PO: &pofile.Entry{
			MsgID:        "%d order",
			MsgIDPlural:  "%d orders",
			MsgStrPlural: map[int]string{0: "", 1: ""},
		},
		Module: "sale",
	}
	skipped, err := e.TranslateEntry(context.Background(), entry, false)
	if err != nil {
		t.Fatalf("TranslateEntry: %v", err)
	}
	if !skipped {
		t.Error("plural entry should be skipped")
	}
	if p.calls.Load() != 0 {
		t.Error("provider should not be called for plural entries")
	}
	if entry.PO.MsgStr != "" || entry.PO.MsgStrPlural[0] != "" {
		t.Errorf("plural entry mutated: MsgStr=%q MsgStrPlural=%v",
			entry.PO.MsgStr, entry.PO.MsgStrPlural)
	}
}

func TestTranslateEntry_ValidationFailureMarksFuzzy(t *testing.T) {
	p := &stubProvider{}
	p.translate = func(req translator.Request) (*translator.Result, error) {
		return &translator.Result{Text: "sans espace réservé", Via: translator.ViaRemote}, nil
	}
	e := newTestEngine(t, p)

	entry := catalogEntry("Total: %(amount)s", "")
	skipped, err := e.TranslateEntry(context.Background(), entry, false)
	if err != nil || skipped {
		t.Fatalf("TranslateEntry: skipped=%v err=%v", skipped, err)
	}
	if entry.Status != catalog.StatusValidatedFailed {
		t.Errorf("Status = %v, want StatusValidatedFailed", entry.Status)
	}
	if !entry.PO.IsFuzzy() {
		t.Error("entry with failed validation should be flagged fuzzy")
	}
}

func buildCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	f := pofile.NewFile()
	f.Entries = []*pofile.Entry{
		{MsgID: "Invoice", MsgStr: ""},
		{MsgID: "Quotation", MsgStr: "Devis"},
		{MsgID: "Order", MsgStr: ""},
	}
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "addons", "sale", "i18n"), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(dir, "addons", "sale", "i18n", "fr.po")
	if err := f.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	loaded, err := catalog.Load([]string{path}, false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return loaded
}

func TestTranslateBatch(t *testing.T) {
	p := &stubProvider{}
	e := newTestEngine(t, p)

	cat := buildCatalog(t)
	var progressCalls int
	res, err := e.TranslateBatch(context.Background(), cat, BatchOptions{
		Progress: func(done, total int) { progressCalls++ },
	})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if res.Total != 3 || res.Translated != 2 || res.Skipped != 1 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}
	if progressCalls != 3 {
		t.Errorf("progress calls = %d, want 3", progressCalls)
	}
}

func TestTranslateBatch_ModuleFilter(t *testing.T) {
	p := &stubProvider{}
	e := newTestEngine(t, p)

	cat := buildCatalog(t)
	res, err := e.TranslateBatch(context.Background(), cat, BatchOptions{Module: "stock"})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("module filter leaked entries: %+v", res)
	}
}

func TestTranslateBatch_FailuresDoNotAbort(t *testing.T) {
	p := &stubProvider{}
	p.translate = func(req translator.Request) (*translator.Result, error) {
		if req.Text == "Invoice" {
			return nil, errors.New("boom")
		}
		return &translator.Result{Text: "tr:" + req.Text, Via: translator.ViaRemote}, nil
	}
	e := newTestEngine(t, p)

	cat := buildCatalog(t)
	res, err := e.TranslateBatch(context.Background(), cat, BatchOptions{})
	if err != nil {
		t.Fatalf("TranslateBatch: %v", err)
	}
	if res.Failed != 1 || res.Translated != 1 {
		t.Errorf("result = %+v", res)
	}
}

// fakeStore records audit traffic for inspection.
type fakeStore struct {
	requests atomic.Int32
	results  atomic.Int32
}

func (f *fakeStore) SaveRequest(_ context.Context, _, _, _, _, _ string) error {
	f.requests.Add(1)
	return nil
}

func (f *fakeStore) SaveResult(_ context.Context, _, _, _, _ string, _ bool, _ int, _ string) error {
	f.results.Add(1)
	return nil
}

func (f *fakeStore) GetGlossaryTerms(_ context.Context, _, _ string) (map[string]string, error) {
	return nil, nil
}

func TestTranslate_AuditTrailWritten(t *testing.T) {
	fs := &fakeStore{}
	e, err := New(Options{
		Provider:   &stubProvider{},
		Store:      fs,
		SourceLang: "en",
		TargetLang: "fr",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.Translate(context.Background(), "Invoice", "en", "fr", ""); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if fs.requests.Load() != 1 || fs.results.Load() != 1 {
		t.Errorf("audit writes = %d requests, %d results, want 1 each",
			fs.requests.Load(), fs.results.Load())
	}
}

func TestTranslate_DryRunSuppressesAudit(t *testing.T) {
	fs := &fakeStore{}
	e, err := New(Options{
		Provider:   &stubProvider{},
		Store:      fs,
		SourceLang: "en",
		TargetLang: "fr",
		DryRun:     true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := e.Translate(context.Background(), "Invoice", "en", "fr", ""); err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if fs.requests.Load() != 0 || fs.results.Load() != 0 {
		t.Errorf("dry run wrote audit rows: %d requests, %d results",
			fs.requests.Load(), fs.results.Load())
	}
}

func TestFlushPersistsCache(t *testing.T) {
	p := &stubProvider{}
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	c := cache.New(path)
	e, err := New(Options{Provider: p, Cache: c, SourceLang: "en", TargetLang: "fr"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e.Translate(context.Background(), "Invoice", "en", "fr", "")
	if err := e.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded := cache.New(path)
	if got, ok := reloaded.Get("Invoice", "en", "fr"); !ok || got != "tr:Invoice" {
		t.Errorf("reloaded cache: %q, %v", got, ok)
	}
}
