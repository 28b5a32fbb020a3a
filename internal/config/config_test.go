package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POTRAN_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SourceLang != "en" || cfg.TargetLang != "fr" {
		t.Errorf("default languages = %s -> %s", cfg.SourceLang, cfg.TargetLang)
	}
	if cfg.OfflineMode {
		t.Error("offline mode should default to false")
	}
	if cfg.RequestInterval != 500*time.Millisecond {
		t.Errorf("request interval = %v", cfg.RequestInterval)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("max attempts = %d", cfg.MaxAttempts)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("POTRAN_OFFLINE_MODE", "true")
	t.Setenv("POTRAN_TARGET_LANG", "es")
	t.Setenv("POTRAN_API_KEY", "k-123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.OfflineMode {
		t.Error("POTRAN_OFFLINE_MODE not honored")
	}
	if cfg.TargetLang != "es" {
		t.Errorf("target lang = %q", cfg.TargetLang)
	}
	if cfg.APIKey != "k-123" {
		t.Errorf("api key = %q", cfg.APIKey)
	}
}

func TestLoad_GeminiKeyFallback(t *testing.T) {
	t.Setenv("POTRAN_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "fallback-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "fallback-key" {
		t.Errorf("api key = %q, want GEMINI_API_KEY fallback", cfg.APIKey)
	}
}
