// Package config resolves runtime settings from an optional config file and
// POTRAN_* environment variables. Flags override everything at the command
// layer; this package only establishes the base values.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration.
type Config struct {
	// APIKey authenticates against the Gemini API. Resolved from
	// POTRAN_API_KEY with GEMINI_API_KEY as fallback.
	APIKey string `mapstructure:"api_key"`
	// BaseURL overrides the Gemini endpoint, mainly for tests.
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`

	SourceLang string `mapstructure:"source_lang"`
	TargetLang string `mapstructure:"target_lang"`

	OfflineMode         bool `mapstructure:"offline_mode"`
	UseNetworkDetection bool `mapstructure:"use_network_detection"`

	// RequestInterval is the minimum delay between API requests.
	RequestInterval time.Duration `mapstructure:"request_interval"`
	MaxAttempts     int           `mapstructure:"max_attempts"`

	CachePath string `mapstructure:"cache_path"`
	DBPath    string `mapstructure:"db_path"`

	// CredentialsFile points at Google Cloud credentials for network
	// language detection.
	CredentialsFile string `mapstructure:"credentials_file"`
}

// Load reads ~/.potran/config.yaml when present, then applies environment
// overrides. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".potran"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("POTRAN")
	v.AutomaticEnv()

	// Every key needs a default so AutomaticEnv overrides survive Unmarshal.
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("cache_path", "")
	v.SetDefault("db_path", "")
	v.SetDefault("credentials_file", "")
	v.SetDefault("source_lang", "en")
	v.SetDefault("target_lang", "fr")
	v.SetDefault("model", "")
	v.SetDefault("offline_mode", false)
	v.SetDefault("use_network_detection", false)
	v.SetDefault("request_interval", 500*time.Millisecond)
	v.SetDefault("max_attempts", 3)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	return cfg, nil
}
