package elf

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Resources:
// https://refspecs.linuxfoundation.org/

// File is a fully parsed, read-only view of an elf image.  The header and
// the program/section header tables are decoded eagerly; section content is
// sliced out of the original buffer on demand.
type File struct {
	Header         Ehdr
	ProgramHeaders []Phdr
	SectionHeaders []Shdr

	class     Class
	byteOrder binary.ByteOrder
	content   []byte
}

func (file *File) Class() Class {
	return file.class
}

func (file *File) ByteOrder() binary.ByteOrder {
	return file.byteOrder
}

// Content returns the entire underlying buffer.  The returned slice must not
// be modified.
func (file *File) Content() []byte {
	return file.content
}

func (file *File) Size() uint64 {
	return uint64(len(file.content))
}

func (file *File) NumPrograms() int {
	return len(file.ProgramHeaders)
}

func (file *File) NumSections() int {
	return len(file.SectionHeaders)
}

func (file *File) Program(idx int) (Phdr, error) {
	if idx < 0 || len(file.ProgramHeaders) <= idx {
		return nil, fmt.Errorf(
			"%w: program header index out of bound (%d, %d entries)",
			ErrInvalidIndex,
			idx,
			len(file.ProgramHeaders))
	}

	return file.ProgramHeaders[idx], nil
}

func (file *File) Section(idx int) (Shdr, error) {
	if idx < 0 || len(file.SectionHeaders) <= idx {
		return nil, fmt.Errorf(
			"%w: section index out of bound (%d, %d entries)",
			ErrInvalidIndex,
			idx,
			len(file.SectionHeaders))
	}

	return file.SectionHeaders[idx], nil
}

// SectionName resolves the section's name through the section header string
// table.  The name runs from the table offset + sh_name up to the next zero
// byte (or the end of the file).
func (file *File) SectionName(idx int) (string, error) {
	section, err := file.Section(idx)
	if err != nil {
		return "", err
	}

	tableIdx := file.Header.SectionStringTableIndex()
	if tableIdx == SectionIndexUndefined {
		return "", fmt.Errorf(
			"%w: section name table not defined",
			ErrUnresolvedSectionName)
	}

	if int(tableIdx) >= len(file.SectionHeaders) {
		return "", fmt.Errorf(
			"%w: section name table index out of bound (%d, %d entries)",
			ErrUnresolvedSectionName,
			tableIdx,
			len(file.SectionHeaders))
	}

	tableOffset := file.SectionHeaders[tableIdx].Offset()
	offset := tableOffset + uint64(section.NameOffset())
	if offset < tableOffset || offset >= file.Size() {
		return "", fmt.Errorf(
			"%w: %w: out of bound section name offset (%d >= %d)",
			ErrUnresolvedSectionName,
			ErrTruncatedTable,
			offset,
			file.Size())
	}

	return cString(file.content[offset:]), nil
}

// SectionIndex returns the index of the first section with the given name.
// Sections whose names cannot be resolved are skipped.
func (file *File) SectionIndex(name string) (int, bool) {
	for idx := range file.SectionHeaders {
		sectionName, err := file.SectionName(idx)
		if err == nil && sectionName == name {
			return idx, true
		}
	}

	return -1, false
}

// SectionContent returns the section's raw [sh_offset, sh_offset+sh_size)
// file range.  NOTE: SHT_NOBITS sections are not special cased; their range
// does not hold meaningful data and may be out of bound.
func (file *File) SectionContent(idx int) ([]byte, error) {
	section, err := file.Section(idx)
	if err != nil {
		return nil, err
	}

	start := section.Offset()
	end := start + section.ContentSize()
	if end < start || end > file.Size() {
		return nil, fmt.Errorf(
			"%w: out of bound section %d content [%d, %d) (file size %d)",
			ErrTruncatedTable,
			idx,
			start,
			start+section.ContentSize(),
			file.Size())
	}

	return file.content[start:end:end], nil
}

type parser struct {
	content []byte

	File
}

func Parse(reader io.Reader) (*File, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read elf file: %w", err)
	}

	return ParseBytes(content)
}

func ParseBytes(content []byte) (*File, error) {
	p := parser{
		content: content,
	}

	err := p.parse()
	if err != nil {
		return nil, err
	}

	p.File.content = content
	return &p.File, nil
}

func (p *parser) parse() error {
	// NOTE: identifier (e_ident) has no endian-ness and no word width.  We
	// must parse identifier to determine both before touching the header.
	err := p.parseIdentifier()
	if err != nil {
		return err
	}

	err = p.parseHeader()
	if err != nil {
		return err
	}

	err = p.parseProgramHeaders()
	if err != nil {
		return err
	}

	err = p.parseSectionHeaders()
	if err != nil {
		return err
	}

	return nil
}

func (p *parser) parseIdentifier() error {
	if len(p.content) < ElfIdentifierSize {
		return fmt.Errorf(
			"%w: file too short (%d < %d bytes)",
			ErrMalformedIdentification,
			len(p.content),
			ElfIdentifierSize)
	}

	// NOTE: the magic number is not checked here.  Corrupted magic is
	// reported through Identifier.HasValidMagic instead.
	p.class = Class(p.content[ClassByteIndex])
	switch p.class {
	case Class32, Class64:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedWordClass, p.class)
	}

	// Files without a valid encoding are read as little endian since
	// that's what the vast majority of elf files in the wild are.
	switch DataEncoding(p.content[DataByteIndex]) {
	case DataEncodingTwosComplementBigEndian:
		p.byteOrder = binary.BigEndian
	default:
		p.byteOrder = binary.LittleEndian
	}

	return nil
}

func (p *parser) parseHeader() error {
	var header Ehdr
	var size int
	if p.class == Class32 {
		header = &Header32{}
		size = Elf32HeaderSize
	} else {
		header = &Header64{}
		size = Elf64HeaderSize
	}

	if len(p.content) < size {
		return fmt.Errorf(
			"%w: out of bound elf header (%d < %d bytes)",
			ErrTruncatedTable,
			len(p.content),
			size)
	}

	n, err := binary.Decode(p.content[:size], p.byteOrder, header)
	if err != nil {
		return fmt.Errorf("failed to parse header: %w", err)
	}

	if n != size {
		panic("should never happen")
	}

	p.Header = header
	return nil
}

func (p *parser) parseProgramHeaders() error {
	num := int(p.Header.NumProgramHeaderEntries())
	if num == 0 {
		return nil
	}

	recordSize := Elf64ProgramHeaderEntrySize
	if p.class == Class32 {
		recordSize = Elf32ProgramHeaderEntrySize
	}

	headers := make([]Phdr, 0, num)
	for i := 0; i < num; i++ {
		entry, err := p.tableEntry(
			"program header",
			p.Header.ProgramHeaderOffset(),
			p.Header.ProgramHeaderEntrySize(),
			i,
			recordSize)
		if err != nil {
			return err
		}

		var header Phdr
		if p.class == Class32 {
			header = &Prog32{}
		} else {
			header = &Prog64{}
		}

		_, err = binary.Decode(entry, p.byteOrder, header)
		if err != nil {
			return fmt.Errorf("failed to parse program header %d: %w", i, err)
		}

		headers = append(headers, header)
	}

	p.ProgramHeaders = headers
	return nil
}

func (p *parser) parseSectionHeaders() error {
	num := int(p.Header.NumSectionHeaderEntries())
	if num == 0 {
		return nil
	}

	recordSize := Elf64SectionHeaderEntrySize
	if p.class == Class32 {
		recordSize = Elf32SectionHeaderEntrySize
	}

	headers := make([]Shdr, 0, num)
	for i := 0; i < num; i++ {
		entry, err := p.tableEntry(
			"section header",
			p.Header.SectionHeaderOffset(),
			p.Header.SectionHeaderEntrySize(),
			i,
			recordSize)
		if err != nil {
			return err
		}

		var header Shdr
		if p.class == Class32 {
			header = &Section32{}
		} else {
			header = &Section64{}
		}

		_, err = binary.Decode(entry, p.byteOrder, header)
		if err != nil {
			return fmt.Errorf("failed to parse section header %d: %w", i, err)
		}

		headers = append(headers, header)
	}

	p.SectionHeaders = headers
	return nil
}

// tableEntry returns the [offset + idx*entrySize, +entrySize) slice.  The
// table's declared entry size must be large enough to hold the record.
func (p *parser) tableEntry(
	table string,
	offset uint64,
	entrySize uint16,
	idx int,
	recordSize int,
) (
	[]byte,
	error,
) {
	if int(entrySize) < recordSize {
		return nil, fmt.Errorf(
			"%w: %s entry size too small (%d < %d)",
			ErrTruncatedTable,
			table,
			entrySize,
			recordSize)
	}

	start := offset + uint64(idx)*uint64(entrySize)
	end := start + uint64(entrySize)
	if start < offset || end < start || end > uint64(len(p.content)) {
		return nil, fmt.Errorf(
			"%w: out of bound %s %d [%d, %d) (file size %d)",
			ErrTruncatedTable,
			table,
			idx,
			start,
			end,
			len(p.content))
	}

	return p.content[start:end], nil
}
