package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/valpere/potran/internal/postprocess"
	"github.com/valpere/potran/internal/ratelimit"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash-lite"

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

// languageNames maps supported ISO codes to English names for prompts.
var languageNames = map[string]string{
	"en": "English",
	"fr": "French",
	"es": "Spanish",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"ar": "Arabic",
	"ca": "Catalan",
	"ro": "Romanian",
	"da": "Danish",
	"sv": "Swedish",
	"fi": "Finnish",
}

func languageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// GeminiProvider translates through the Google AI generateContent API.
// All requests pass through the injected shared limiter, so concurrent
// callers are serialized against one minimum inter-request interval.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
	limiter *ratelimit.Limiter

	// maxAttempts is the total number of tries including the first.
	maxAttempts int
}

// NewGeminiProvider builds the remote provider. baseURL and model fall back
// to defaults when empty; limiter may not be nil.
func NewGeminiProvider(apiKey, baseURL, model string, limiter *ratelimit.Limiter, maxAttempts int) *GeminiProvider {
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &GeminiProvider{
		apiKey:      apiKey,
		baseURL:     baseURL,
		model:       model,
		client:      &http.Client{Timeout: 60 * time.Second},
		limiter:     limiter,
		maxAttempts: maxAttempts,
	}
}

func (p *GeminiProvider) Name() string {
	return "gemini"
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
		TopP            float64 `json:"topP"`
		TopK            int     `json:"topK"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Translate sends the prompt to the generateContent endpoint, retrying
// transient failures (network errors, 429, 5xx) with exponential backoff.
// Non-transient API errors surface immediately.
func (p *GeminiProvider) Translate(ctx context.Context, req Request) (*Result, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("gemini: API key required")
	}

	prompt := buildGeminiPrompt(req)

	var lastErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := 500 * time.Millisecond << (attempt - 1)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		text, retryable, err := p.call(ctx, prompt)
		if err == nil {
			return &Result{Text: postprocess.CleanLine(text), Via: ViaRemote}, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("gemini: %d attempts failed: %w", p.maxAttempts, lastErr)
}

// call performs one generateContent request. The second return value
// reports whether the failure is transient.
func (p *GeminiProvider) call(ctx context.Context, prompt string) (string, bool, error) {
	var body geminiRequest
	body.Contents = []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}}
	body.GenerationConfig.Temperature = 0.1
	body.GenerationConfig.MaxOutputTokens = 256
	body.GenerationConfig.TopP = 0.9
	body.GenerationConfig.TopK = 20

	payload, err := json.Marshal(body)
	if err != nil {
		return "", false, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(p.baseURL, "/"), p.model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", transient, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", false, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("empty response from API")
	}
	return out.Candidates[0].Content.Parts[0].Text, false, nil
}

// buildGeminiPrompt constructs the Odoo-aware translation prompt, embedding
// the glossary for the target language.
func buildGeminiPrompt(req Request) string {
	fromName := languageName(req.SourceLang)
	toName := languageName(req.TargetLang)

	moduleCtx := "Odoo ERP"
	if req.Context != "" {
		moduleCtx = "Odoo module: " + req.Context
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an expert translator for Odoo ERP software.\n\n")
	fmt.Fprintf(&sb, "Task:\nTranslate the given text from %s to %s.\nContext: %s\n\n", fromName, toName, moduleCtx)
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Keep placeholders exactly (%(name)s, %s, {x}, etc.).\n")
	sb.WriteString("2. Preserve HTML and newlines (\\n).\n")
	fmt.Fprintf(&sb, "3. Use professional, natural %s.\n", toName)
	sb.WriteString("4. Only return the translation, no quotes, no explanation.\n")
	sb.WriteString("5. Do NOT return the same text unless it is a real cognate.\n")

	if len(req.Glossary) > 0 {
		sb.WriteString("\nGlossary for consistent terminology:\n")
		terms := make([]string, 0, len(req.Glossary))
		for src := range req.Glossary {
			terms = append(terms, src)
		}
		sort.Strings(terms)
		for _, src := range terms {
			fmt.Fprintf(&sb, "  %s → %s\n", src, req.Glossary[src])
		}
	}

	fmt.Fprintf(&sb, "\nText: %s\nTranslation:", req.Text)
	return sb.String()
}
