// Package catalog merges translation entries from one or more PO files into
// a single deduplicated in-memory table, tracking the source module of each
// entry and its translation status.
package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/valpere/potran/internal/pofile"
)

// Status is the translation state of an entry.
type Status int

const (
	StatusUntranslated Status = iota
	StatusTranslated
	StatusValidatedFailed
)

func (s Status) String() string {
	switch s {
	case StatusTranslated:
		return "translated"
	case StatusValidatedFailed:
		return "validated_failed"
	default:
		return "untranslated"
	}
}

// Entry is a catalog entry: the underlying PO entry plus the module it came
// from and its translation status.
type Entry struct {
	PO     *pofile.Entry
	Module string
	Status Status
}

// Catalog is the merged entry table. It is built once (optionally on a
// background goroutine) and not mutated concurrently afterwards.
type Catalog struct {
	entries  map[string]*Entry
	order    []string
	byModule map[string][]string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		entries:  make(map[string]*Entry),
		byModule: make(map[string][]string),
	}
}

var moduleRe = regexp.MustCompile(`(?:addons|modules)[/\\]([^/\\]+)[/\\]i18n`)

// ModuleName extracts the Odoo module name from a PO file path, following
// the addons/<module>/i18n convention. Unknown layouts yield "unknown".
func ModuleName(path string) string {
	if m := moduleRe.FindStringSubmatch(path); m != nil {
		return m[1]
	}
	return "unknown"
}

// Progress reports loading progress: files completed out of total.
type Progress func(done, total int)

// Load parses and merges the given PO files. Obsolete entries are skipped
// unless includeObsolete is set. A file that cannot be parsed aborts the
// load; nothing is partially merged into the caller-visible state.
func Load(paths []string, includeObsolete bool) (*Catalog, error) {
	return load(paths, includeObsolete, nil)
}

// LoadAsync builds the catalog on a background goroutine, invoking progress
// after each file. The result channel delivers the fully constructed catalog
// (or the error) exactly once; translation must not begin before that.
func LoadAsync(paths []string, includeObsolete bool, progress Progress) <-chan LoadResult {
	ch := make(chan LoadResult, 1)
	go func() {
		c, err := load(paths, includeObsolete, progress)
		ch <- LoadResult{Catalog: c, Err: err}
		close(ch)
	}()
	return ch
}

// LoadResult is the outcome of LoadAsync.
type LoadResult struct {
	Catalog *Catalog
	Err     error
}

func load(paths []string, includeObsolete bool, progress Progress) (*Catalog, error) {
	c := New()
	for i, path := range paths {
		f, err := pofile.ParseFile(path)
		if err != nil {
			return nil, err
		}
		module := ModuleName(path)
		for _, e := range f.Entries {
			if e.Obsolete && !includeObsolete {
				continue
			}
			c.add(e, module)
		}
		if progress != nil {
			progress(i+1, len(paths))
		}
	}
	return c, nil
}

// add merges a single PO entry. The first occurrence of a msgid wins; later
// duplicates contribute their msgstr when the kept one is empty and their
// comments and references are appended.
func (c *Catalog) add(e *pofile.Entry, module string) {
	msgid := strings.TrimSpace(e.MsgID)
	if msgid == "" {
		return
	}
	e.MsgID = msgid
	e.MsgStr = strings.TrimSpace(e.MsgStr)

	existing, ok := c.entries[msgid]
	if !ok {
		entry := &Entry{PO: e, Module: module}
		if e.IsTranslated() {
			entry.Status = StatusTranslated
		}
		c.entries[msgid] = entry
		c.order = append(c.order, msgid)
		c.byModule[module] = append(c.byModule[module], msgid)
		return
	}

	kept := existing.PO
	if kept.MsgStr == "" && e.MsgStr != "" {
		kept.MsgStr = e.MsgStr
		existing.Status = StatusTranslated
	}
	if len(kept.TranslatorComments) == 0 {
		kept.TranslatorComments = e.TranslatorComments
	}
	kept.References = append(kept.References, e.References...)

	// A duplicate still counts as a contribution from its module, so the
	// module index stays complete even when a file adds no new msgids.
	if !contains(c.byModule[module], msgid) {
		c.byModule[module] = append(c.byModule[module], msgid)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Len returns the number of unique entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Get returns the entry for a msgid, or nil.
func (c *Catalog) Get(msgid string) *Entry {
	return c.entries[msgid]
}

// Entries returns all entries in insertion order.
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.entries[id])
	}
	return out
}

// Modules returns the sorted list of source modules seen during load.
func (c *Catalog) Modules() []string {
	out := make([]string, 0, len(c.byModule))
	for m := range c.byModule {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// EntriesByModule returns the msgids contributed by a module.
func (c *Catalog) EntriesByModule(module string) []string {
	return c.byModule[module]
}

// Update rewrites an entry's translation and status.
func (c *Catalog) Update(msgid, msgstr string, status Status) error {
	e, ok := c.entries[msgid]
	if !ok {
		return fmt.Errorf("no entry for msgid %q", msgid)
	}
	e.PO.MsgStr = msgstr
	e.Status = status
	return nil
}

// Export writes the catalog to a PO file, entries sorted case-insensitively
// by msgid. The metadata map populates the header; a minimal UTF-8 header is
// written when metadata is nil.
func (c *Catalog) Export(path string, metadata map[string]string) error {
	f := pofile.NewFile()

	if metadata == nil {
		metadata = map[string]string{
			"Content-Type": "text/plain; charset=UTF-8",
		}
	}
	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f.SetHeaderField(k, metadata[k])
	}

	entries := c.Entries()
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].PO.MsgID) < strings.ToLower(entries[j].PO.MsgID)
	})
	for _, e := range entries {
		f.Entries = append(f.Entries, e.PO)
	}

	return f.SaveFile(path)
}
