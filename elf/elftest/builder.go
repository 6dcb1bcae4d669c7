// Package elftest assembles small synthetic elf images for tests.
package elftest

import (
	"bytes"
	"encoding/binary"

	"github.com/pattyshack/elfmap/elf"
)

type Segment struct {
	Type           elf.ProgType
	Flags          elf.ProgFlags
	Offset         uint64
	VirtualAddress uint64
	FileSize       uint64
	MemorySize     uint64
	Alignment      uint64
}

type Section struct {
	Name  string
	Type  elf.SecType
	Flags elf.SectionFlags

	// A section named .shstrtab with nil Content is filled in with the
	// generated section name table.
	Content []byte

	// Zero bytes inserted before the content, producing a layout gap.
	Padding int

	// Overrides len(Content) as sh_size when non-zero.
	Size uint64
}

// Builder lays out an image as:
//
//	[header][program headers][sections...][padding][section headers][trailer]
type Builder struct {
	Class     elf.Class
	ByteOrder binary.ByteOrder
	FileType  elf.ElfType

	Segments []Segment
	Sections []Section

	// Overrides the declared table entry sizes when non-zero.  Entries are
	// zero padded when the declared size exceeds the record size.
	ProgramHeaderEntrySize uint16
	SectionHeaderEntrySize uint16

	// Overrides the detected .shstrtab index when non-nil.
	SectionStringTableIndex *uint16

	SectionHeaderPadding int
	TrailingPadding      int
}

type Image struct {
	Content []byte

	ProgramHeaderOffset uint64
	SectionHeaderOffset uint64

	SectionOffsets     []uint64
	SectionNameOffsets []uint32
}

func Index(idx uint16) *uint16 {
	return &idx
}

func (b Builder) is32() bool {
	return b.Class == elf.Class32
}

func (b Builder) byteOrder() binary.ByteOrder {
	if b.ByteOrder == nil {
		return binary.LittleEndian
	}
	return b.ByteOrder
}

func (b Builder) headerSize() int {
	if b.is32() {
		return elf.Elf32HeaderSize
	}
	return elf.Elf64HeaderSize
}

func (b Builder) programEntrySize() (int, uint16) {
	record := elf.Elf64ProgramHeaderEntrySize
	if b.is32() {
		record = elf.Elf32ProgramHeaderEntrySize
	}

	if b.ProgramHeaderEntrySize != 0 {
		return record, b.ProgramHeaderEntrySize
	}
	return record, uint16(record)
}

func (b Builder) sectionEntrySize() (int, uint16) {
	record := elf.Elf64SectionHeaderEntrySize
	if b.is32() {
		record = elf.Elf32SectionHeaderEntrySize
	}

	if b.SectionHeaderEntrySize != 0 {
		return record, b.SectionHeaderEntrySize
	}
	return record, uint16(record)
}

func (b Builder) Build() Image {
	order := b.byteOrder()

	names := []byte{0}
	nameOffsets := make([]uint32, 0, len(b.Sections))
	stringTableIdx := uint16(0)
	for idx, section := range b.Sections {
		nameOffsets = append(nameOffsets, uint32(len(names)))
		names = append(names, section.Name...)
		names = append(names, 0)

		if section.Name == elf.SectionStringTableName {
			stringTableIdx = uint16(idx)
		}
	}
	if b.SectionStringTableIndex != nil {
		stringTableIdx = *b.SectionStringTableIndex
	}

	programRecord, programEntry := b.programEntrySize()
	sectionRecord, sectionEntry := b.sectionEntrySize()

	phoff := uint64(0)
	if len(b.Segments) > 0 {
		phoff = uint64(b.headerSize())
	}

	body := &bytes.Buffer{}
	for _, segment := range b.Segments {
		writeEntry(body, order, b.programRecord(segment), programRecord, programEntry)
	}

	offsets := make([]uint64, 0, len(b.Sections))
	contents := make([][]byte, 0, len(b.Sections))
	for _, section := range b.Sections {
		body.Write(make([]byte, section.Padding))

		content := section.Content
		if content == nil && section.Name == elf.SectionStringTableName {
			content = names
		}

		offsets = append(offsets, uint64(b.headerSize())+uint64(body.Len()))
		contents = append(contents, content)
		body.Write(content)
	}

	body.Write(make([]byte, b.SectionHeaderPadding))

	shoff := uint64(0)
	if len(b.Sections) > 0 {
		shoff = uint64(b.headerSize()) + uint64(body.Len())
	}

	for idx, section := range b.Sections {
		size := uint64(len(contents[idx]))
		if section.Size != 0 {
			size = section.Size
		}

		record := b.sectionRecord(
			section,
			nameOffsets[idx],
			offsets[idx],
			size)
		writeEntry(body, order, record, sectionRecord, sectionEntry)
	}

	body.Write(make([]byte, b.TrailingPadding))

	header := b.header(
		phoff,
		programEntry,
		shoff,
		sectionEntry,
		stringTableIdx)

	out := &bytes.Buffer{}
	err := binary.Write(out, order, header)
	if err != nil {
		panic(err)
	}
	out.Write(body.Bytes())

	return Image{
		Content:             out.Bytes(),
		ProgramHeaderOffset: phoff,
		SectionHeaderOffset: shoff,
		SectionOffsets:      offsets,
		SectionNameOffsets:  nameOffsets,
	}
}

func (b Builder) identifier() elf.Identifier {
	encoding := elf.DataEncodingTwosComplementLittleEndian
	if b.byteOrder() == binary.BigEndian {
		encoding = elf.DataEncodingTwosComplementBigEndian
	}

	id := elf.Identifier{
		Class:             b.Class,
		DataEncoding:      encoding,
		IdentifierVersion: elf.IdentifierVersion,
	}
	copy(id.Magic[:], elf.IdentifierMagic)
	return id
}

func (b Builder) header(
	phoff uint64,
	phentsize uint16,
	shoff uint64,
	shentsize uint16,
	shstrndx uint16,
) any {
	if b.is32() {
		return &elf.Header32{
			Ident:     b.identifier(),
			Type:      b.FileType.Code(),
			Machine:   uint16(elf.MachineArchitecture386),
			Version:   1,
			Entry:     0x8049000,
			Phoff:     uint32(phoff),
			Shoff:     uint32(shoff),
			Ehsize:    elf.Elf32HeaderSize,
			Phentsize: phentsize,
			Phnum:     uint16(len(b.Segments)),
			Shentsize: shentsize,
			Shnum:     uint16(len(b.Sections)),
			Shstrndx:  shstrndx,
		}
	}

	return &elf.Header64{
		Ident:     b.identifier(),
		Type:      b.FileType.Code(),
		Machine:   uint16(elf.MachineArchitectureX86_64),
		Version:   1,
		Entry:     0x401000,
		Phoff:     phoff,
		Shoff:     shoff,
		Ehsize:    elf.Elf64HeaderSize,
		Phentsize: phentsize,
		Phnum:     uint16(len(b.Segments)),
		Shentsize: shentsize,
		Shnum:     uint16(len(b.Sections)),
		Shstrndx:  shstrndx,
	}
}

func (b Builder) programRecord(segment Segment) any {
	if b.is32() {
		return &elf.Prog32{
			Type:   segment.Type.Code(),
			Off:    uint32(segment.Offset),
			Vaddr:  uint32(segment.VirtualAddress),
			Paddr:  uint32(segment.VirtualAddress),
			Filesz: uint32(segment.FileSize),
			Memsz:  uint32(segment.MemorySize),
			Flags:  uint32(segment.Flags),
			Align:  uint32(segment.Alignment),
		}
	}

	return &elf.Prog64{
		Type:   segment.Type.Code(),
		Flags:  uint32(segment.Flags),
		Off:    segment.Offset,
		Vaddr:  segment.VirtualAddress,
		Paddr:  segment.VirtualAddress,
		Filesz: segment.FileSize,
		Memsz:  segment.MemorySize,
		Align:  segment.Alignment,
	}
}

func (b Builder) sectionRecord(
	section Section,
	name uint32,
	offset uint64,
	size uint64,
) any {
	if b.is32() {
		return &elf.Section32{
			Name:      name,
			Type:      section.Type.Code(),
			Flags:     uint32(section.Flags),
			Off:       uint32(offset),
			Size:      uint32(size),
			Addralign: 1,
		}
	}

	return &elf.Section64{
		Name:      name,
		Type:      section.Type.Code(),
		Flags:     uint64(section.Flags),
		Off:       offset,
		Size:      size,
		Addralign: 1,
	}
}

// writeEntry writes the record, truncated or zero padded to entrySize bytes.
func writeEntry(
	out *bytes.Buffer,
	order binary.ByteOrder,
	record any,
	recordSize int,
	entrySize uint16,
) {
	buf := &bytes.Buffer{}
	err := binary.Write(buf, order, record)
	if err != nil {
		panic(err)
	}

	entry := make([]byte, entrySize)
	copy(entry, buf.Bytes()[:min(recordSize, int(entrySize))])
	out.Write(entry)
}
