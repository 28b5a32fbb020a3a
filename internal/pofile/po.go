// Package pofile reads and writes gettext PO files, preserving comments,
// references, flags, plural forms, and obsolete entries so a file can be
// round-tripped without losing translator metadata.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Entry is a single translatable message.
type Entry struct {
	// TranslatorComments are "# " lines.
	TranslatorComments []string
	// ExtractedComments are "#." lines.
	ExtractedComments []string
	// References are "#:" source locations.
	References []string
	// Flags are "#," entries (e.g. fuzzy, python-format).
	Flags []string

	MsgCtxt     string
	MsgID       string
	MsgIDPlural string
	MsgStr      string
	// MsgStrPlural maps plural index to translation for plural entries.
	MsgStrPlural map[int]string

	// Obsolete marks "#~" entries.
	Obsolete bool
}

// IsFuzzy reports whether the entry carries the fuzzy flag.
func (e *Entry) IsFuzzy() bool {
	for _, f := range e.Flags {
		if f == "fuzzy" {
			return true
		}
	}
	return false
}

// SetFuzzy adds or removes the fuzzy flag.
func (e *Entry) SetFuzzy(fuzzy bool) {
	if fuzzy {
		if !e.IsFuzzy() {
			e.Flags = append(e.Flags, "fuzzy")
		}
		return
	}
	kept := e.Flags[:0]
	for _, f := range e.Flags {
		if f != "fuzzy" {
			kept = append(kept, f)
		}
	}
	e.Flags = kept
}

// HasFlag reports whether a specific flag is present.
func (e *Entry) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// IsTranslated reports whether the entry has a non-empty, non-fuzzy translation.
func (e *Entry) IsTranslated() bool {
	if e.MsgID == "" || e.IsFuzzy() {
		return false
	}
	if e.MsgIDPlural != "" {
		if len(e.MsgStrPlural) == 0 {
			return false
		}
		for _, v := range e.MsgStrPlural {
			if v == "" {
				return false
			}
		}
		return true
	}
	return e.MsgStr != ""
}

// File is a parsed PO file: the header entry plus message entries.
type File struct {
	Header  *Entry
	Entries []*Entry
}

// NewFile returns an empty PO file with a blank header.
func NewFile() *File {
	return &File{Header: &Entry{}}
}

// HeaderField returns the value of a header field such as "Language".
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		if idx := strings.Index(line, ":"); idx > 0 {
			if strings.EqualFold(strings.TrimSpace(line[:idx]), name) {
				return strings.TrimSpace(line[idx+1:])
			}
		}
	}
	return ""
}

// SetHeaderField sets or appends a header field.
func (f *File) SetHeaderField(name, value string) {
	if f.Header == nil {
		f.Header = &Entry{}
	}
	lines := strings.Split(f.Header.MsgStr, "\n")
	for i, line := range lines {
		if idx := strings.Index(line, ":"); idx > 0 {
			if strings.EqualFold(strings.TrimSpace(line[:idx]), name) {
				lines[i] = name + ": " + value
				f.Header.MsgStr = strings.Join(lines, "\n")
				return
			}
		}
	}
	if f.Header.MsgStr != "" && !strings.HasSuffix(f.Header.MsgStr, "\n") {
		f.Header.MsgStr += "\n"
	}
	f.Header.MsgStr += name + ": " + value + "\n"
}

// EntryByMsgID returns the first non-obsolete entry with the given msgid.
func (f *File) EntryByMsgID(msgid string) *Entry {
	for _, e := range f.Entries {
		if e.MsgID == msgid && !e.Obsolete {
			return e
		}
	}
	return nil
}

// Stats counts entries by translation state, skipping the header and
// obsolete entries.
func (f *File) Stats() (total, translated, fuzzy, untranslated int) {
	for _, e := range f.Entries {
		if e.MsgID == "" || e.Obsolete {
			continue
		}
		total++
		switch {
		case e.IsFuzzy():
			fuzzy++
		case e.IsTranslated():
			translated++
		default:
			untranslated++
		}
	}
	return
}

// ParseFile parses the PO file at path.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// Parse reads a PO file from r. A file that cannot be parsed returns an
// error and no partial result.
func Parse(r io.Reader) (*File, error) {
	f := NewFile()
	p := &parser{file: f}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := p.line(scanner.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	p.finish()
	return f, nil
}

type parser struct {
	file *File

	cur       *Entry
	section   string // "msgctxt", "msgid", "msgid_plural", "msgstr", or "msgstr[n]"
	pluralIdx int
	sawHeader bool
}

func (p *parser) ensure() *Entry {
	if p.cur == nil {
		p.cur = &Entry{}
		p.section = ""
	}
	return p.cur
}

func (p *parser) line(raw string) error {
	line := strings.TrimSpace(raw)

	if line == "" {
		p.flush()
		return nil
	}

	obsolete := false
	if strings.HasPrefix(line, "#~") {
		obsolete = true
		line = strings.TrimSpace(strings.TrimPrefix(line, "#~"))
		if line == "" {
			return nil
		}
	}

	if strings.HasPrefix(line, "#") && !obsolete {
		e := p.ensure()
		switch {
		case strings.HasPrefix(line, "#."):
			e.ExtractedComments = append(e.ExtractedComments, strings.TrimSpace(line[2:]))
		case strings.HasPrefix(line, "#:"):
			e.References = append(e.References, strings.Fields(line[2:])...)
		case strings.HasPrefix(line, "#,"):
			for _, flag := range strings.Split(line[2:], ",") {
				if flag = strings.TrimSpace(flag); flag != "" {
					e.Flags = append(e.Flags, flag)
				}
			}
		case strings.HasPrefix(line, "#|"):
			// previous-msgid annotations are dropped on rewrite
		default:
			e.TranslatorComments = append(e.TranslatorComments, strings.TrimSpace(line[1:]))
		}
		return nil
	}

	e := p.ensure()
	if obsolete {
		e.Obsolete = true
	}

	switch {
	case strings.HasPrefix(line, "msgctxt "):
		return p.keyword(e, "msgctxt", line[len("msgctxt "):])
	case strings.HasPrefix(line, "msgid_plural "):
		return p.keyword(e, "msgid_plural", line[len("msgid_plural "):])
	case strings.HasPrefix(line, "msgid "):
		// a new msgid after a completed msgstr starts the next entry
		if p.section == "msgstr" || strings.HasPrefix(p.section, "msgstr[") {
			p.flush()
			e = p.ensure()
			if obsolete {
				e.Obsolete = true
			}
		}
		return p.keyword(e, "msgid", line[len("msgid "):])
	case strings.HasPrefix(line, "msgstr["):
		end := strings.Index(line, "]")
		if end < 0 {
			return fmt.Errorf("malformed plural msgstr: %q", line)
		}
		idx, err := strconv.Atoi(line[len("msgstr["):end])
		if err != nil {
			return fmt.Errorf("malformed plural index: %q", line)
		}
		p.pluralIdx = idx
		return p.keyword(e, "msgstr[n]", strings.TrimSpace(line[end+1:]))
	case strings.HasPrefix(line, "msgstr "):
		return p.keyword(e, "msgstr", line[len("msgstr "):])
	case strings.HasPrefix(line, `"`):
		s, err := unquote(line)
		if err != nil {
			return err
		}
		p.append(e, s)
		return nil
	default:
		return fmt.Errorf("unexpected content: %q", line)
	}
}

func (p *parser) keyword(e *Entry, section, rest string) error {
	s, err := unquote(strings.TrimSpace(rest))
	if err != nil {
		return err
	}
	p.section = section
	p.append(e, s)
	return nil
}

func (p *parser) append(e *Entry, s string) {
	switch p.section {
	case "msgctxt":
		e.MsgCtxt += s
	case "msgid":
		e.MsgID += s
	case "msgid_plural":
		e.MsgIDPlural += s
	case "msgstr":
		e.MsgStr += s
	case "msgstr[n]":
		if e.MsgStrPlural == nil {
			e.MsgStrPlural = make(map[int]string)
		}
		e.MsgStrPlural[p.pluralIdx] += s
	}
}

// flush completes the current entry, routing the first empty-msgid entry to
// the header.
func (p *parser) flush() {
	if p.cur == nil {
		return
	}
	if p.section == "" {
		// comments with no message yet: keep accumulating
		if p.cur.MsgID == "" && p.cur.MsgStr == "" && len(p.cur.MsgStrPlural) == 0 {
			return
		}
	}
	if p.cur.MsgID == "" && !p.sawHeader && !p.cur.Obsolete {
		p.file.Header = p.cur
		p.sawHeader = true
	} else {
		p.file.Entries = append(p.file.Entries, p.cur)
	}
	p.cur = nil
	p.section = ""
}

func (p *parser) finish() {
	if p.cur != nil && p.section != "" {
		p.flush()
	}
}

func unquote(s string) (string, error) {
	if len(s) < 2 || !strings.HasPrefix(s, `"`) || !strings.HasSuffix(s, `"`) {
		return "", fmt.Errorf("malformed string: %q", s)
	}
	body := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			b.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		default:
			b.WriteByte('\\')
			b.WriteByte(body[i])
		}
	}
	return b.String(), nil
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(s[i])
		}
	}
	b.WriteByte('"')
	return b.String()
}

// SaveFile writes the PO file to path.
func (f *File) SaveFile(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer fh.Close()

	w := bufio.NewWriter(fh)
	if err := f.Write(w); err != nil {
		return err
	}
	return w.Flush()
}

// Write serializes the file in gettext PO format.
func (f *File) Write(w io.Writer) error {
	if f.Header != nil {
		if err := writeEntry(w, f.Header); err != nil {
			return err
		}
	}
	for _, e := range f.Entries {
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := writeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

func writeEntry(w io.Writer, e *Entry) error {
	prefix := ""
	if e.Obsolete {
		prefix = "#~ "
	}

	for _, c := range e.TranslatorComments {
		if _, err := fmt.Fprintf(w, "# %s\n", c); err != nil {
			return err
		}
	}
	for _, c := range e.ExtractedComments {
		if _, err := fmt.Fprintf(w, "#. %s\n", c); err != nil {
			return err
		}
	}
	if len(e.References) > 0 {
		if _, err := fmt.Fprintf(w, "#: %s\n", strings.Join(e.References, " ")); err != nil {
			return err
		}
	}
	if len(e.Flags) > 0 {
		if _, err := fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", ")); err != nil {
			return err
		}
	}

	if e.MsgCtxt != "" {
		if _, err := fmt.Fprintf(w, "%smsgctxt %s\n", prefix, quote(e.MsgCtxt)); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "%smsgid %s\n", prefix, quote(e.MsgID)); err != nil {
		return err
	}
	if e.MsgIDPlural != "" {
		if _, err := fmt.Fprintf(w, "%smsgid_plural %s\n", prefix, quote(e.MsgIDPlural)); err != nil {
			return err
		}
		idxs := make([]int, 0, len(e.MsgStrPlural))
		for i := range e.MsgStrPlural {
			idxs = append(idxs, i)
		}
		sort.Ints(idxs)
		for _, i := range idxs {
			if _, err := fmt.Fprintf(w, "%smsgstr[%d] %s\n", prefix, i, quote(e.MsgStrPlural[i])); err != nil {
				return err
			}
		}
		return nil
	}
	_, err := fmt.Fprintf(w, "%smsgstr %s\n", prefix, quote(e.MsgStr))
	return err
}
