// Package cache is a JSON-file-backed translation cache keyed by normalized
// source text and language pair. Entries live in memory and are persisted on
// explicit Flush; a corrupt or missing cache file yields an empty cache, not
// an error.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Record is one persisted cache value.
type Record struct {
	Translation string    `json:"translation"`
	Timestamp   time.Time `json:"timestamp"`
}

// Cache maps (normalized source text, source lang, target lang) to a
// translation. Safe for concurrent use within one process; concurrent
// flushes from separate processes are last-writer-wins.
type Cache struct {
	path string

	mu      sync.Mutex
	entries map[string]Record
}

// DefaultPath returns the user-scoped cache file location
// (~/.potran/translation_cache.json).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".potran", "translation_cache.json"), nil
}

// New opens the cache at path, loading any persisted entries. An unreadable
// or corrupt file starts the cache empty.
func New(path string) *Cache {
	c := &Cache{path: path, entries: make(map[string]Record)}

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	var loaded map[string]Record
	if err := json.Unmarshal(data, &loaded); err != nil {
		return c
	}
	c.entries = loaded
	return c
}

var spaceRe = regexp.MustCompile(`\s+`)

// normalize trims, collapses internal whitespace, and applies Unicode NFC so
// cache hits are insensitive to incidental formatting differences.
func normalize(text string) string {
	return norm.NFC.String(spaceRe.ReplaceAllString(strings.TrimSpace(text), " "))
}

// Key derives the composite cache key for a text and language pair.
func Key(text, sourceLang, targetLang string) string {
	return sourceLang + "|" + targetLang + "|" + normalize(text)
}

// Get returns the cached translation for the text and language pair.
func (c *Cache) Get(text, sourceLang, targetLang string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.entries[Key(text, sourceLang, targetLang)]
	if !ok {
		return "", false
	}
	return rec.Translation, true
}

// Put stores a translation. Last write wins.
func (c *Cache) Put(text, sourceLang, targetLang, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(text, sourceLang, targetLang)] = Record{
		Translation: translation,
		Timestamp:   time.Now().UTC(),
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear discards all entries in memory. Call Flush to persist.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Record)
}

// Snapshot returns a copy of the cache contents for listing.
func (c *Cache) Snapshot() map[string]Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]Record, len(c.entries))
	for k, v := range c.entries {
		out[k] = v
	}
	return out
}

// Path returns the backing file location.
func (c *Cache) Path() string {
	return c.path
}

// Flush persists the cache atomically: the JSON is written to a temporary
// file in the same directory and renamed over the cache file, so a crash
// never leaves a partially written cache visible.
func (c *Cache) Flush() error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.json")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}
	return nil
}
