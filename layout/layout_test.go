package layout

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"

	"github.com/pattyshack/elfmap/elf"
	"github.com/pattyshack/elfmap/elf/elftest"
)

type LayoutSuite struct{}

func TestLayout(t *testing.T) {
	suite.RunTests(t, &LayoutSuite{})
}

func executableBuilder() elftest.Builder {
	return elftest.Builder{
		Class:    elf.Class64,
		FileType: elf.ElfTypeExecutable,
		Segments: []elftest.Segment{
			{
				Type:      elf.ProgTypeLoadable,
				Flags:     elf.ProgFlagReadableBit | elf.ProgFlagExecutableBit,
				Alignment: 0x1000,
			},
		},
		Sections: []elftest.Section{
			{
				Name:    ".text",
				Type:    elf.SecTypeProgramDefinedInfo,
				Content: []byte{0x55, 0x48, 0x89, 0xe5, 0xc3},
			},
			{
				Name: elf.SectionStringTableName,
				Type: elf.SecTypeStringTable,
			},
			{
				Name:    ".data",
				Type:    elf.SecTypeProgramDefinedInfo,
				Content: []byte{1, 2, 3, 4},
			},
		},
	}
}

func parse(t *testing.T, builder elftest.Builder) (elftest.Image, *elf.File) {
	image := builder.Build()
	file, err := elf.ParseBytes(image.Content)
	expect.Nil(t, err)
	return image, file
}

func labels(entries []Entry) []string {
	result := []string{}
	for _, entry := range entries {
		result = append(result, entry.Label())
	}
	return result
}

func expectWellFormed(t *testing.T, file *elf.File, entries []Entry) {
	expect.True(t, len(entries) > 0)

	for idx := 1; idx < len(entries); idx++ {
		expect.True(t, entries[idx-1].Offset < entries[idx].Offset)
	}

	last := entries[len(entries)-1]
	expect.Equal(t, EndOfFile, last.Kind)
	expect.Equal(t, file.Size(), last.Offset)
	expect.Equal(t, "EOF", last.Label())
}

func (LayoutSuite) TestMinimalExecutable(t *testing.T) {
	builder := executableBuilder()
	builder.SectionHeaderPadding = 3 // realign the section header table
	image, file := parse(t, builder)

	entries := Build(file).Entries()
	expectWellFormed(t, file, entries)

	shoff := image.SectionHeaderOffset
	expected := []Entry{
		{Offset: 0, Kind: Header, Index: -1},
		{Offset: image.ProgramHeaderOffset, Kind: ProgramHeader, Index: 0},
		{Offset: image.SectionOffsets[0], Kind: Section, Index: 0},
		{Offset: image.SectionOffsets[1], Kind: Section, Index: 1},
		{Offset: image.SectionOffsets[2], Kind: Section, Index: 2},
		{Offset: image.SectionOffsets[2] + 4, Kind: Separator, Index: -1},
		{Offset: shoff, Kind: SectionHeader, Index: 0},
		{Offset: shoff + 64, Kind: SectionHeader, Index: 1},
		{Offset: shoff + 128, Kind: SectionHeader, Index: 2},
		{Offset: file.Size(), Kind: EndOfFile, Index: -1},
	}

	if diff := cmp.Diff(expected, entries); diff != "" {
		t.Errorf("unexpected layout (-want +got):\n%s", diff)
	}

	expect.Equal(t, uint64(elf.Elf64HeaderSize), image.ProgramHeaderOffset)
	expect.Equal(t, uint64(64+56), image.SectionOffsets[0])

	for idx, name := range []string{".text", ".shstrtab", ".data"} {
		resolved, err := file.SectionName(idx)
		expect.Nil(t, err)
		expect.Equal(t, name, resolved)
	}
}

func (LayoutSuite) TestGapsAreMarked(t *testing.T) {
	builder := executableBuilder()
	builder.Sections[0].Padding = 8
	builder.Sections[2].Padding = 16
	builder.TrailingPadding = 32
	image, file := parse(t, builder)

	entries := Build(file).Entries()
	expectWellFormed(t, file, entries)

	expect.Equal(
		t,
		[]string{
			"EHdr",
			"Phdr[0]",
			SeparatorLabel,
			"Section[0]",
			"Section[1]",
			SeparatorLabel,
			"Section[2]",
			"Shdr[0]",
			"Shdr[1]",
			"Shdr[2]",
			SeparatorLabel,
			"EOF",
		},
		labels(entries))

	// separators sit where the previous range ended.
	expect.Equal(t, uint64(64+56), entries[2].Offset)
	expect.Equal(t, image.SectionOffsets[0], entries[3].Offset)
	expect.Equal(t, image.SectionOffsets[2]-16, entries[5].Offset)
	expect.Equal(t, image.SectionHeaderOffset+3*64, entries[10].Offset)
}

func (LayoutSuite) TestDeclaredEntrySizeDrivesCursor(t *testing.T) {
	builder := executableBuilder()
	builder.Segments = append(builder.Segments, builder.Segments[0])
	builder.ProgramHeaderEntrySize = elf.Elf64ProgramHeaderEntrySize + 8
	builder.SectionHeaderEntrySize = elf.Elf64SectionHeaderEntrySize + 16
	image, file := parse(t, builder)

	m := Build(file)
	expectWellFormed(t, file, m.Entries())

	entry, ok := m.Get(image.ProgramHeaderOffset + 64)
	expect.True(t, ok)
	expect.Equal(t, "Phdr[1]", entry.Label())

	entry, ok = m.Get(image.SectionOffsets[0])
	expect.True(t, ok)
	expect.Equal(t, "Section[0]", entry.Label())

	entry, ok = m.Get(image.SectionHeaderOffset + 2*80)
	expect.True(t, ok)
	expect.Equal(t, "Shdr[2]", entry.Label())

	// No spurious separator between the program header table and the
	// first section.
	_, ok = m.Get(image.ProgramHeaderOffset + 2*56)
	expect.False(t, ok)
}

func (LayoutSuite) TestNoBitsSectionDoesNotAdvancePastContent(t *testing.T) {
	builder := executableBuilder()
	builder.Sections[1].Padding = 8
	builder.Sections = append(
		[]elftest.Section{
			builder.Sections[0],
			{Name: ".bss", Type: elf.SecTypeNoSpace, Size: 0x10000},
		},
		builder.Sections[1:]...)
	image, file := parse(t, builder)

	m := Build(file)
	entries := m.Entries()
	expectWellFormed(t, file, entries)

	expect.Equal(
		t,
		[]string{
			"EHdr",
			"Phdr[0]",
			"Section[0]",
			"Section[1]",
			"Section[2]",
			"Section[3]",
			"Shdr[0]",
			"Shdr[1]",
			"Shdr[2]",
			"Shdr[3]",
			"EOF",
		},
		labels(entries))

	entry, ok := m.Get(image.SectionOffsets[1])
	expect.True(t, ok)
	expect.Equal(t, "Section[1]", entry.Label())

	_, ok = m.Get(image.SectionOffsets[1] + 0x10000)
	expect.False(t, ok)
}

func (LayoutSuite) TestTrailingNoBitsSection(t *testing.T) {
	builder := executableBuilder()
	builder.Sections = append(
		builder.Sections,
		elftest.Section{Name: ".bss", Type: elf.SecTypeNoSpace, Size: 0x10000})
	image, file := parse(t, builder)

	m := Build(file)
	entries := m.Entries()
	expectWellFormed(t, file, entries)

	// .bss starts where the section header table starts; the later insert
	// wins.
	expect.Equal(t, image.SectionHeaderOffset, image.SectionOffsets[3])
	expect.Equal(
		t,
		[]string{
			"EHdr",
			"Phdr[0]",
			"Section[0]",
			"Section[1]",
			"Section[2]",
			"Shdr[0]",
			"Shdr[1]",
			"Shdr[2]",
			"Shdr[3]",
			"EOF",
		},
		labels(entries))

	for _, entry := range entries {
		expect.True(t, entry.Offset <= file.Size())
	}
}

func (LayoutSuite) TestWithoutProgramHeaders(t *testing.T) {
	builder := executableBuilder()
	builder.Segments = nil
	image, file := parse(t, builder)
	expect.Equal(t, uint64(0), image.ProgramHeaderOffset)

	entries := Build(file).Entries()
	expectWellFormed(t, file, entries)

	expect.Equal(
		t,
		[]string{
			"EHdr",
			"Section[0]",
			"Section[1]",
			"Section[2]",
			"Shdr[0]",
			"Shdr[1]",
			"Shdr[2]",
			"EOF",
		},
		labels(entries))
}

func (LayoutSuite) TestHeaderOnly(t *testing.T) {
	builder := elftest.Builder{
		Class:    elf.Class32,
		FileType: elf.ElfTypeRelocatable,
	}
	_, file := parse(t, builder)

	entries := Build(file).Entries()
	expectWellFormed(t, file, entries)
	expect.Equal(t, []string{"EHdr", "EOF"}, labels(entries))
	expect.Equal(t, uint64(elf.Elf32HeaderSize), entries[1].Offset)
}

func (LayoutSuite) TestLaterInsertWinsOnCollision(t *testing.T) {
	builder := executableBuilder()
	// A zero length section starting right after the program header table.
	builder.Sections = append(
		[]elftest.Section{{Name: "", Type: elf.SecTypeNull, Content: []byte{}}},
		builder.Sections...)
	image, file := parse(t, builder)

	m := Build(file)
	expectWellFormed(t, file, m.Entries())

	// Section[0] and Section[1] both start at the same offset.
	expect.Equal(t, image.SectionOffsets[0], image.SectionOffsets[1])
	entry, ok := m.Get(image.SectionOffsets[0])
	expect.True(t, ok)
	expect.Equal(t, "Section[1]", entry.Label())
}

func (LayoutSuite) TestEntryString(t *testing.T) {
	entry := Entry{Offset: 0x40, Kind: ProgramHeader, Index: 3}
	expect.Equal(t, "0x00000040 Phdr[3]", entry.String())
	expect.Equal(t, "0x00001000 ------------", fmt.Sprint(Entry{Offset: 0x1000, Kind: Separator}))
	expect.Equal(t, "SectionHeader", SectionHeader.String())
}
