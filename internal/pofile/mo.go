package pofile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
)

// moMagic is the little-endian GNU gettext MO file magic number.
const moMagic = 0x950412de

// SaveMO compiles the catalog to a binary MO file at path. Untranslated,
// fuzzy, and obsolete entries are excluded, matching msgfmt's defaults.
func (f *File) SaveMO(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer fh.Close()

	w := bufio.NewWriter(fh)
	if err := f.WriteMO(w); err != nil {
		return err
	}
	return w.Flush()
}

// moEntry is one original/translation pair in MO wire form.
type moEntry struct {
	original    []byte
	translation []byte
}

// WriteMO serializes the catalog in GNU MO format (little-endian, no hash
// table). The layout is the 28-byte header, the original-string table, the
// translation table, then the NUL-terminated string data.
func (f *File) WriteMO(w io.Writer) error {
	entries := f.moEntries()

	// msgfmt orders originals by byte value so readers can binary-search.
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].original, entries[j].original) < 0
	})

	n := uint32(len(entries))
	origTable := uint32(28)
	transTable := origTable + 8*n
	dataStart := transTable + 8*n

	header := []uint32{
		moMagic,
		0, // format revision
		n,
		origTable,
		transTable,
		0,         // hash table size
		dataStart, // hash table offset (empty table sits at data start)
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	offset := dataStart
	for _, e := range entries {
		if err := writeMOSlot(w, e.original, &offset); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := writeMOSlot(w, e.translation, &offset); err != nil {
			return err
		}
	}

	for _, e := range entries {
		if _, err := w.Write(append(e.original, 0)); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if _, err := w.Write(append(e.translation, 0)); err != nil {
			return err
		}
	}
	return nil
}

// writeMOSlot emits one (length, offset) table entry and advances the offset
// past the string and its NUL terminator.
func writeMOSlot(w io.Writer, s []byte, offset *uint32) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, *offset); err != nil {
		return err
	}
	*offset += uint32(len(s)) + 1
	return nil
}

// moEntries collects the compilable entries: the header plus every
// translated, non-fuzzy, non-obsolete entry.
func (f *File) moEntries() []moEntry {
	var out []moEntry

	if f.Header != nil && f.Header.MsgStr != "" {
		out = append(out, moEntry{original: []byte(""), translation: []byte(f.Header.MsgStr)})
	}

	for _, e := range f.Entries {
		if e.Obsolete || e.IsFuzzy() || !e.IsTranslated() {
			continue
		}

		original := []byte{}
		if e.MsgCtxt != "" {
			original = append(original, e.MsgCtxt...)
			original = append(original, 0x04)
		}
		original = append(original, e.MsgID...)

		var translation []byte
		if e.MsgIDPlural != "" {
			original = append(original, 0)
			original = append(original, e.MsgIDPlural...)

			idxs := make([]int, 0, len(e.MsgStrPlural))
			for i := range e.MsgStrPlural {
				idxs = append(idxs, i)
			}
			sort.Ints(idxs)
			for k, i := range idxs {
				if k > 0 {
					translation = append(translation, 0)
				}
				translation = append(translation, e.MsgStrPlural[i]...)
			}
		} else {
			translation = []byte(e.MsgStr)
		}

		out = append(out, moEntry{original: original, translation: translation})
	}
	return out
}
