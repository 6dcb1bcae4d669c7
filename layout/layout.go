// Package layout derives an offset-ordered map of the byte ranges an elf
// file is made of: header, program header table, section contents and the
// section header table.  Ranges that are not covered by any of those are
// marked with separators.
package layout

import (
	"fmt"
	"sort"

	"github.com/pattyshack/elfmap/elf"
)

const (
	SeparatorLabel = "------------"
)

type Kind int

const (
	Header = Kind(iota)
	Separator
	ProgramHeader
	Section
	SectionHeader
	EndOfFile
)

func (kind Kind) String() string {
	switch kind {
	case Header:
		return "Header"
	case Separator:
		return "Separator"
	case ProgramHeader:
		return "ProgramHeader"
	case Section:
		return "Section"
	case SectionHeader:
		return "SectionHeader"
	case EndOfFile:
		return "EndOfFile"
	default:
		return fmt.Sprintf("KindUnknown(%d)", int(kind))
	}
}

type Entry struct {
	Offset uint64
	Kind

	// Index into the program header / section header table.  Only
	// meaningful for ProgramHeader, Section and SectionHeader entries.
	Index int
}

func (entry Entry) Label() string {
	switch entry.Kind {
	case Header:
		return "EHdr"
	case ProgramHeader:
		return fmt.Sprintf("Phdr[%d]", entry.Index)
	case Section:
		return fmt.Sprintf("Section[%d]", entry.Index)
	case SectionHeader:
		return fmt.Sprintf("Shdr[%d]", entry.Index)
	case EndOfFile:
		return "EOF"
	default:
		return SeparatorLabel
	}
}

func (entry Entry) String() string {
	return fmt.Sprintf("0x%08x %s", entry.Offset, entry.Label())
}

// Map is keyed by file offset.  When two entries start at the same offset,
// the one inserted last wins.
type Map struct {
	entries map[uint64]Entry
}

// Entries returns the map's entries in increasing offset order.
func (m *Map) Entries() []Entry {
	result := make([]Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		result = append(result, entry)
	}

	sort.Slice(
		result,
		func(i int, j int) bool { return result[i].Offset < result[j].Offset })

	return result
}

func (m *Map) Len() int {
	return len(m.entries)
}

func (m *Map) Get(offset uint64) (Entry, bool) {
	entry, ok := m.entries[offset]
	return entry, ok
}

type builder struct {
	*elf.File

	cursor uint64
	Map
}

// Build walks the file left to right: header, program header table,
// section contents (in table order), section header table, and finally the
// end of file.  The cursor advances by each range's declared size; whenever
// the next range starts beyond the cursor, a separator is emitted at the
// cursor.
func Build(file *elf.File) *Map {
	b := &builder{
		File: file,
		Map: Map{
			entries: map[uint64]Entry{},
		},
	}

	b.build()
	return &b.Map
}

func (b *builder) put(kind Kind, idx int) {
	b.entries[b.cursor] = Entry{
		Offset: b.cursor,
		Kind:   kind,
		Index:  idx,
	}
}

// seek marks the gap (if any) between the cursor and offset.  The cursor may
// also move backward, e.g. past a NOBITS section whose declared size does not
// occupy file bytes; no separator is emitted in that case.
func (b *builder) seek(offset uint64) {
	if b.cursor < offset {
		b.put(Separator, -1)
	}
	b.cursor = offset
}

func (b *builder) build() {
	b.cursor = 0
	b.put(Header, -1)
	b.cursor = uint64(b.Header.HeaderSize())

	numPrograms := int(b.Header.NumProgramHeaderEntries())
	if numPrograms > 0 {
		b.seek(b.Header.ProgramHeaderOffset())

		// NOTE: advance by the declared entry size rather than the record
		// size; the two may legitimately differ.
		for idx := 0; idx < numPrograms; idx++ {
			b.put(ProgramHeader, idx)
			b.cursor += uint64(b.Header.ProgramHeaderEntrySize())
		}
	}

	if len(b.SectionHeaders) > 0 {
		b.seek(b.SectionHeaders[0].Offset())

		for idx, section := range b.SectionHeaders {
			b.seek(section.Offset())
			b.put(Section, idx)
			b.cursor += section.ContentSize()
		}

		b.seek(b.Header.SectionHeaderOffset())
		for idx := range b.SectionHeaders {
			b.put(SectionHeader, idx)
			b.cursor += uint64(b.Header.SectionHeaderEntrySize())
		}
	}

	// The trailing separator is only meaningful when there are unaccounted
	// bytes before the end of file.  This keeps EOF as the last entry.
	if b.cursor < b.Size() {
		b.put(Separator, -1)
	}

	b.cursor = b.Size()
	b.put(EndOfFile, -1)
}
