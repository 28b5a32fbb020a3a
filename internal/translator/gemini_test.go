package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valpere/potran/internal/ratelimit"
)

func geminiSuccess(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"parts": []map[string]string{{"text": text}},
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func newTestGemini(t *testing.T, handler http.Handler) (*GeminiProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewGeminiProvider("test-key", srv.URL, "test-model", ratelimit.New(0), 3)
	return p, srv
}

func TestGemini_Translate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody geminiRequest
	p, _ := newTestGemini(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		json.NewDecoder(r.Body).Decode(&gotBody)
		geminiSuccess("Facture")(w, r)
	}))

	res, err := p.Translate(context.Background(), Request{
		Text:       "Invoice",
		SourceLang: "en",
		TargetLang: "fr",
		Context:    "account",
		Glossary:   map[string]string{"Invoice": "Facture"},
	})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != "Facture" {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Via != ViaRemote {
		t.Errorf("Via = %q, want %q", res.Via, ViaRemote)
	}
	if gotPath != "/v1beta/models/test-model:generateContent" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("api key header = %q", gotKey)
	}
	prompt := gotBody.Contents[0].Parts[0].Text
	for _, want := range []string{"English", "French", "Odoo module: account", "Invoice", "Facture"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if gotBody.GenerationConfig.Temperature != 0.1 {
		t.Errorf("temperature = %v", gotBody.GenerationConfig.Temperature)
	}
}

func TestGemini_CleansModelArtifacts(t *testing.T) {
	p, _ := newTestGemini(t, geminiSuccess("Translation: \"Devis\"\n\nNote: this is the standard term."))
	res, err := p.Translate(context.Background(), Request{Text: "Quotation", SourceLang: "en", TargetLang: "fr"})
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if res.Text != "Devis" {
		t.Errorf("Text = %q, want Devis", res.Text)
	}
}

func TestGemini_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestGemini(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		geminiSuccess("Commande")(w, r)
	}))

	res, err := p.Translate(context.Background(), Request{Text: "Order", SourceLang: "en", TargetLang: "fr"})
	if err != nil {
		t.Fatalf("Translate after retries: %v", err)
	}
	if res.Text != "Commande" {
		t.Errorf("Text = %q", res.Text)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGemini_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestGemini(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	if _, err := p.Translate(context.Background(), Request{Text: "Order", SourceLang: "en", TargetLang: "fr"}); err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGemini_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestGemini(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))

	if _, err := p.Translate(context.Background(), Request{Text: "Order", SourceLang: "en", TargetLang: "fr"}); err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 400)", got)
	}
}

func TestGemini_EmptyResponse(t *testing.T) {
	p, _ := newTestGemini(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates": []}`))
	}))
	if _, err := p.Translate(context.Background(), Request{Text: "Order", SourceLang: "en", TargetLang: "fr"}); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestGemini_MissingAPIKey(t *testing.T) {
	p := NewGeminiProvider("", "", "", ratelimit.New(0), 1)
	if _, err := p.Translate(context.Background(), Request{Text: "x"}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestGemini_RespectsRateLimiter(t *testing.T) {
	const interval = 30 * time.Millisecond
	p, _ := newTestGemini(t, geminiSuccess("ok"))
	p.limiter = ratelimit.New(interval)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := p.Translate(context.Background(), Request{Text: "x", SourceLang: "en", TargetLang: "fr"}); err != nil {
			t.Fatalf("Translate %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Errorf("3 requests finished in %v, want >= %v", elapsed, 2*interval)
	}
}

func TestGemini_ContextCancel(t *testing.T) {
	p, _ := newTestGemini(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		geminiSuccess("late")(w, r)
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Translate(ctx, Request{Text: "x", SourceLang: "en", TargetLang: "fr"}); err == nil {
		t.Fatal("expected context deadline error")
	}
}
