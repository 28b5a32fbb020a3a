/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valpere/potran/internal/cache"
	"github.com/valpere/potran/internal/catalog"
	"github.com/valpere/potran/internal/config"
	"github.com/valpere/potran/internal/detector"
	"github.com/valpere/potran/internal/engine"
	"github.com/valpere/potran/internal/pofile"
	"github.com/valpere/potran/internal/ratelimit"
	"github.com/valpere/potran/internal/stats"
	"github.com/valpere/potran/internal/store"
	"github.com/valpere/potran/internal/translator"
)

var (
	trSourceLang string
	trTargetLang string
	trOffline    bool
	trInPlace    bool
	trOutputDir  string
	trSuffix     string
	trAPIKey     string
	trModel      string
	trBaseURL    string

	trDryRun          bool
	trIncludeObsolete bool
	trForce           bool
	trModule          string
	trNoAutoDetect    bool

	trDBPath    string
	trCachePath string
	trNoCache   bool
	trNoDB      bool
)

var translateCmd = &cobra.Command{
	Use:   "translate <file-or-dir>...",
	Short: "Translate Odoo .po files",
	Long: `Translate the untranslated entries of one or more gettext .po files.

Input paths may be files or directories; directories are searched
recursively for .po files. By default each translated file is written next
to its input with a suffix; use --in-place to overwrite inputs or
--output-dir to collect results elsewhere.

Translation modes:
  default     Gemini API with the persistent JSON cache
  --offline   embedded dictionaries and glossary only, no network

Entries whose translated text fails placeholder validation are kept but
flagged fuzzy so they show up for review in Odoo.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyTranslateFlags(cmd, cfg)

		if trInPlace && trOutputDir != "" {
			return fmt.Errorf("--in-place and --output-dir are mutually exclusive")
		}

		files, err := collectPOFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no .po files found")
		}

		ctx := context.Background()

		eng, cleanup, err := buildEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		counters := 0
		for _, file := range files {
			if trModule != "" && catalog.ModuleName(file) != trModule {
				continue
			}
			n, err := translateFile(ctx, eng, file)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", file, err)
				continue
			}
			counters += n
		}

		if !trDryRun {
			if err := eng.Flush(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to persist cache: %v\n", err)
			}
		}

		printStats(eng.Stats(), counters, len(files))
		return nil
	},
}

// applyTranslateFlags overlays explicitly set flags onto the loaded config.
func applyTranslateFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("source") {
		cfg.SourceLang = trSourceLang
	}
	if cmd.Flags().Changed("target") {
		cfg.TargetLang = trTargetLang
	}
	if cmd.Flags().Changed("offline") {
		cfg.OfflineMode = trOffline
	}
	if trAPIKey != "" {
		cfg.APIKey = trAPIKey
	}
	if trModel != "" {
		cfg.Model = trModel
	}
	if trBaseURL != "" {
		cfg.BaseURL = trBaseURL
	}
	if trCachePath != "" {
		cfg.CachePath = trCachePath
	}
	if trDBPath != "" {
		cfg.DBPath = trDBPath
	}
}

// buildEngine assembles the provider, cache, detector, and store from the
// resolved configuration.
func buildEngine(ctx context.Context, cfg *config.Config) (*engine.Engine, func(), error) {
	var provider translator.Provider
	if cfg.OfflineMode {
		provider = translator.NewOfflineProvider()
	} else {
		if cfg.APIKey == "" {
			return nil, nil, fmt.Errorf("API key required: set --api-key, POTRAN_API_KEY, or GEMINI_API_KEY (or use --offline)")
		}
		limiter := ratelimit.New(cfg.RequestInterval)
		provider = translator.NewGeminiProvider(cfg.APIKey, cfg.BaseURL, cfg.Model, limiter, cfg.MaxAttempts)
	}

	var c *cache.Cache
	if !trNoCache {
		path := cfg.CachePath
		if path == "" {
			var err error
			if path, err = cache.DefaultPath(); err != nil {
				return nil, nil, fmt.Errorf("failed to resolve cache path: %w", err)
			}
		}
		c = cache.New(path)
	}

	var db *store.Store
	cleanup := func() {}
	if !trNoDB {
		path := cfg.DBPath
		if path == "" {
			path = defaultDBPath()
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		var err error
		if db, err = store.New(path); err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		cleanup = func() { db.Close() }
	}

	var det *detector.Detector
	if !trNoAutoDetect {
		opts := []detector.Option{}
		if cfg.UseNetworkDetection && !cfg.OfflineMode {
			if gd, err := detector.NewGoogleDetector(ctx, cfg.CredentialsFile); err == nil {
				opts = append(opts, detector.WithNetworkDetector(gd))
			} else {
				fmt.Fprintf(os.Stderr, "Warning: network detection unavailable: %v\n", err)
			}
		}
		det = detector.New(opts...)
	}

	opts := engine.Options{
		Provider:   provider,
		Cache:      c,
		Detector:   det,
		Stats:      stats.New(),
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
		AutoDetect: !trNoAutoDetect,
		DryRun:     trDryRun,
	}
	// Assign only a non-nil store; a nil *store.Store inside the interface
	// would slip past the engine's nil check.
	if db != nil {
		opts.Store = db
	}
	eng, err := engine.New(opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}

// translateFile processes one .po file and writes the result according to
// the output flags. Returns the number of entries translated.
func translateFile(ctx context.Context, eng *engine.Engine, path string) (int, error) {
	f, err := pofile.ParseFile(path)
	if err != nil {
		return 0, err
	}

	module := catalog.ModuleName(path)
	translated := 0
	skipped := 0

	for _, po := range f.Entries {
		if po.Obsolete && !trIncludeObsolete {
			continue
		}
		entry := &catalog.Entry{PO: po, Module: module}

		wasSkipped, err := eng.TranslateEntry(ctx, entry, trForce)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %q: %v\n", path, po.MsgID, err)
			continue
		}
		if wasSkipped {
			skipped++
		} else {
			translated++
		}
	}

	// Dry-run performs every step except persistence.
	if trDryRun {
		fmt.Printf("%s: %d translated, %d skipped (dry-run, not written)\n", path, translated, skipped)
		return translated, nil
	}

	out, err := outputPath(path)
	if err != nil {
		return translated, err
	}
	if err := ensureParentDir(out); err != nil {
		return translated, err
	}
	if err := f.SaveFile(out); err != nil {
		return translated, err
	}

	fmt.Printf("%s: %d translated, %d skipped -> %s\n", path, translated, skipped, out)
	return translated, nil
}

func outputPath(input string) (string, error) {
	switch {
	case trInPlace:
		return input, nil
	case trOutputDir != "":
		return filepath.Join(trOutputDir, filepath.Base(input)), nil
	default:
		ext := filepath.Ext(input)
		return strings.TrimSuffix(input, ext) + trSuffix + ext, nil
	}
}

func printStats(s stats.Snapshot, translated, files int) {
	fmt.Printf("\nProcessed %d file(s), %d entr%s translated\n",
		files, translated, pluralY(translated))
	fmt.Printf("Requests: %d  Cache hits: %d (%s)  API calls: %d  Offline: %d\n",
		s.Requests, s.CacheHits, s.CacheHitRate, s.APICalls, s.OfflineRequests)
	if s.Retries > 0 || s.Errors > 0 || s.AutoCorrections > 0 {
		fmt.Printf("Retries: %d  Errors: %d  Language auto-corrections: %d\n",
			s.Retries, s.Errors, s.AutoCorrections)
	}
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVar(&trSourceLang, "source", "en", "Source language code")
	translateCmd.Flags().StringVar(&trTargetLang, "target", "fr", "Target language code")
	translateCmd.Flags().BoolVar(&trOffline, "offline", false, "Use embedded dictionaries, no network access")
	translateCmd.Flags().BoolVar(&trInPlace, "in-place", false, "Overwrite input files")
	translateCmd.Flags().StringVar(&trOutputDir, "output-dir", "", "Write translated files to this directory")
	translateCmd.Flags().StringVar(&trSuffix, "suffix", ".translated", "Suffix for output files (default mode)")
	translateCmd.Flags().StringVar(&trAPIKey, "api-key", "", "Gemini API key (overrides POTRAN_API_KEY / GEMINI_API_KEY)")
	translateCmd.Flags().StringVar(&trModel, "model", "", "Gemini model name")
	translateCmd.Flags().StringVar(&trBaseURL, "base-url", "", "Override the Gemini API endpoint")
	translateCmd.Flags().BoolVar(&trDryRun, "dry-run", false, "Report what would be translated without doing it")
	translateCmd.Flags().BoolVar(&trIncludeObsolete, "include-obsolete", false, "Also translate #~ obsolete entries")
	translateCmd.Flags().BoolVar(&trForce, "force", false, "Retranslate entries that already have a translation")
	translateCmd.Flags().StringVar(&trModule, "module", "", "Only translate entries from this Odoo module")
	translateCmd.Flags().BoolVar(&trNoAutoDetect, "no-auto-detect", false, "Disable source language detection")
	translateCmd.Flags().StringVar(&trDBPath, "db", "", "Glossary/audit database path")
	translateCmd.Flags().StringVar(&trCachePath, "cache", "", "Translation cache path")
	translateCmd.Flags().BoolVar(&trNoCache, "no-cache", false, "Disable the translation cache")
	translateCmd.Flags().BoolVar(&trNoDB, "no-db", false, "Disable the glossary/audit database")
}
