package elf

import (
	"bytes"
)

var (
	// EI_MAG0 - EI_MAG3
	IdentifierMagic = []byte{
		0x7f, // ELFMAG0
		'E',  // ELFMAG1
		'L',  // ELFMAG2
		'F',  // ELFMAG3
	}
)

const (
	ElfIdentifierSize = 16 // EI_NIDENT
	ClassByteIndex    = 4  // EI_CLASS
	DataByteIndex     = 5  // EI_DATA

	IdentifierVersion = 1 // EV_CURRENT

	Elf32HeaderSize             = 52
	Elf32ProgramHeaderEntrySize = 32
	Elf32SectionHeaderEntrySize = 40

	Elf64HeaderSize             = 64
	Elf64ProgramHeaderEntrySize = 56
	Elf64SectionHeaderEntrySize = 64

	SectionStringTableName = ".shstrtab"
)

type SectionIndex uint16

const (
	SectionIndexUndefined = SectionIndex(0)      // SHN_UNDEF
	SectionIndexAbsolute  = SectionIndex(0xfff1) // SHN_ABS
)

// e_ident
type Identifier struct {
	Magic              [4]byte // EI_MAG0 ... EI_MAG3
	Class                      // EI_CLASS
	DataEncoding               // EI_DATA
	IdentifierVersion  byte    // EI_VERSION
	OperatingSystemABI         // EI_OSABI
	ABIVersion         byte    // EI_ABIVERSION
	Padding            [7]byte // EI_PAD
}

func (id Identifier) HasValidMagic() bool {
	return bytes.Equal(id.Magic[:], IdentifierMagic)
}

// Ehdr is the word-width independent view of the elf header.  All offsets
// and sizes are widened to 64 bits.
type Ehdr interface {
	Identifier() Identifier
	FileType() ElfType
	Architecture() MachineArchitecture
	EntryPoint() uint64

	ProgramHeaderOffset() uint64
	ProgramHeaderEntrySize() uint16
	NumProgramHeaderEntries() uint16

	SectionHeaderOffset() uint64
	SectionHeaderEntrySize() uint16
	NumSectionHeaderEntries() uint16

	SectionStringTableIndex() SectionIndex

	// The serialized size of the header struct itself (e_size), which is
	// independent of the file's e_ehsize field.
	HeaderSize() int
}

// Phdr is the word-width independent view of a program header entry.
type Phdr interface {
	ProgType() ProgType
	ProgFlags() ProgFlags
	Offset() uint64
	VirtualAddress() uint64
	PhysicalAddress() uint64
	FileSize() uint64
	MemorySize() uint64
	Alignment() uint64
}

// Shdr is the word-width independent view of a section header entry.
type Shdr interface {
	SecType() SecType
	NameOffset() uint32
	SectionFlags() SectionFlags
	Address() uint64
	Offset() uint64
	ContentSize() uint64
	LinkIndex() uint32
	InfoWord() uint32
	Alignment() uint64
	EntrySize() uint64
}

// Header structs matching c's elf header definitions.  These are only used
// for (de-)serialization.

// Elf32_Ehdr
type Header32 struct {
	Ident     Identifier // e_ident[EI_NIDENT]
	Type      uint16     // e_type
	Machine   uint16     // e_machine
	Version   uint32     // e_version
	Entry     uint32     // e_entry
	Phoff     uint32     // e_phoff
	Shoff     uint32     // e_shoff
	Flags     uint32     // e_flags
	Ehsize    uint16     // e_ehsize
	Phentsize uint16     // e_phentsize
	Phnum     uint16     // e_phnum
	Shentsize uint16     // e_shentsize
	Shnum     uint16     // e_shnum
	Shstrndx  uint16     // e_shstrndx
}

func (hdr *Header32) Identifier() Identifier            { return hdr.Ident }
func (hdr *Header32) FileType() ElfType                 { return ClassifyElfType(hdr.Type) }
func (hdr *Header32) Architecture() MachineArchitecture { return MachineArchitecture(hdr.Machine) }
func (hdr *Header32) EntryPoint() uint64                { return uint64(hdr.Entry) }
func (hdr *Header32) ProgramHeaderOffset() uint64       { return uint64(hdr.Phoff) }
func (hdr *Header32) ProgramHeaderEntrySize() uint16    { return hdr.Phentsize }
func (hdr *Header32) NumProgramHeaderEntries() uint16   { return hdr.Phnum }
func (hdr *Header32) SectionHeaderOffset() uint64       { return uint64(hdr.Shoff) }
func (hdr *Header32) SectionHeaderEntrySize() uint16    { return hdr.Shentsize }
func (hdr *Header32) NumSectionHeaderEntries() uint16   { return hdr.Shnum }
func (hdr *Header32) HeaderSize() int                   { return Elf32HeaderSize }

func (hdr *Header32) SectionStringTableIndex() SectionIndex {
	return SectionIndex(hdr.Shstrndx)
}

// Elf64_Ehdr
type Header64 struct {
	Ident     Identifier // e_ident[EI_NIDENT]
	Type      uint16     // e_type
	Machine   uint16     // e_machine
	Version   uint32     // e_version
	Entry     uint64     // e_entry
	Phoff     uint64     // e_phoff
	Shoff     uint64     // e_shoff
	Flags     uint32     // e_flags
	Ehsize    uint16     // e_ehsize
	Phentsize uint16     // e_phentsize
	Phnum     uint16     // e_phnum
	Shentsize uint16     // e_shentsize
	Shnum     uint16     // e_shnum
	Shstrndx  uint16     // e_shstrndx
}

func (hdr *Header64) Identifier() Identifier            { return hdr.Ident }
func (hdr *Header64) FileType() ElfType                 { return ClassifyElfType(hdr.Type) }
func (hdr *Header64) Architecture() MachineArchitecture { return MachineArchitecture(hdr.Machine) }
func (hdr *Header64) EntryPoint() uint64                { return hdr.Entry }
func (hdr *Header64) ProgramHeaderOffset() uint64       { return hdr.Phoff }
func (hdr *Header64) ProgramHeaderEntrySize() uint16    { return hdr.Phentsize }
func (hdr *Header64) NumProgramHeaderEntries() uint16   { return hdr.Phnum }
func (hdr *Header64) SectionHeaderOffset() uint64       { return hdr.Shoff }
func (hdr *Header64) SectionHeaderEntrySize() uint16    { return hdr.Shentsize }
func (hdr *Header64) NumSectionHeaderEntries() uint16   { return hdr.Shnum }
func (hdr *Header64) HeaderSize() int                   { return Elf64HeaderSize }

func (hdr *Header64) SectionStringTableIndex() SectionIndex {
	return SectionIndex(hdr.Shstrndx)
}

// Elf32_Phdr.  NOTE: p_flags is located after p_memsz in the 32-bit layout.
type Prog32 struct {
	Type   uint32 // p_type
	Off    uint32 // p_offset
	Vaddr  uint32 // p_vaddr
	Paddr  uint32 // p_paddr
	Filesz uint32 // p_filesz
	Memsz  uint32 // p_memsz
	Flags  uint32 // p_flags
	Align  uint32 // p_align
}

func (prog *Prog32) ProgType() ProgType      { return ClassifyProgType(prog.Type) }
func (prog *Prog32) ProgFlags() ProgFlags    { return ProgFlags(prog.Flags) }
func (prog *Prog32) Offset() uint64          { return uint64(prog.Off) }
func (prog *Prog32) VirtualAddress() uint64  { return uint64(prog.Vaddr) }
func (prog *Prog32) PhysicalAddress() uint64 { return uint64(prog.Paddr) }
func (prog *Prog32) FileSize() uint64        { return uint64(prog.Filesz) }
func (prog *Prog32) MemorySize() uint64      { return uint64(prog.Memsz) }
func (prog *Prog32) Alignment() uint64       { return uint64(prog.Align) }

// Elf64_Phdr
type Prog64 struct {
	Type   uint32 // p_type
	Flags  uint32 // p_flags
	Off    uint64 // p_offset
	Vaddr  uint64 // p_vaddr
	Paddr  uint64 // p_paddr
	Filesz uint64 // p_filesz
	Memsz  uint64 // p_memsz
	Align  uint64 // p_align
}

func (prog *Prog64) ProgType() ProgType      { return ClassifyProgType(prog.Type) }
func (prog *Prog64) ProgFlags() ProgFlags    { return ProgFlags(prog.Flags) }
func (prog *Prog64) Offset() uint64          { return prog.Off }
func (prog *Prog64) VirtualAddress() uint64  { return prog.Vaddr }
func (prog *Prog64) PhysicalAddress() uint64 { return prog.Paddr }
func (prog *Prog64) FileSize() uint64        { return prog.Filesz }
func (prog *Prog64) MemorySize() uint64      { return prog.Memsz }
func (prog *Prog64) Alignment() uint64       { return prog.Align }

// Elf32_Shdr
type Section32 struct {
	Name      uint32 // sh_name
	Type      uint32 // sh_type
	Flags     uint32 // sh_flags
	Addr      uint32 // sh_addr
	Off       uint32 // sh_offset
	Size      uint32 // sh_size
	Link      uint32 // sh_link
	Info      uint32 // sh_info
	Addralign uint32 // sh_addralign
	Entsize   uint32 // sh_entsize
}

func (sec *Section32) SecType() SecType           { return ClassifySecType(sec.Type) }
func (sec *Section32) NameOffset() uint32         { return sec.Name }
func (sec *Section32) SectionFlags() SectionFlags { return SectionFlags(sec.Flags) }
func (sec *Section32) Address() uint64            { return uint64(sec.Addr) }
func (sec *Section32) Offset() uint64             { return uint64(sec.Off) }
func (sec *Section32) ContentSize() uint64        { return uint64(sec.Size) }
func (sec *Section32) LinkIndex() uint32          { return sec.Link }
func (sec *Section32) InfoWord() uint32           { return sec.Info }
func (sec *Section32) Alignment() uint64          { return uint64(sec.Addralign) }
func (sec *Section32) EntrySize() uint64          { return uint64(sec.Entsize) }

// Elf64_Shdr
type Section64 struct {
	Name      uint32 // sh_name
	Type      uint32 // sh_type
	Flags     uint64 // sh_flags
	Addr      uint64 // sh_addr
	Off       uint64 // sh_offset
	Size      uint64 // sh_size
	Link      uint32 // sh_link
	Info      uint32 // sh_info
	Addralign uint64 // sh_addralign
	Entsize   uint64 // sh_entsize
}

func (sec *Section64) SecType() SecType           { return ClassifySecType(sec.Type) }
func (sec *Section64) NameOffset() uint32         { return sec.Name }
func (sec *Section64) SectionFlags() SectionFlags { return SectionFlags(sec.Flags) }
func (sec *Section64) Address() uint64            { return sec.Addr }
func (sec *Section64) Offset() uint64             { return sec.Off }
func (sec *Section64) ContentSize() uint64        { return sec.Size }
func (sec *Section64) LinkIndex() uint32          { return sec.Link }
func (sec *Section64) InfoWord() uint32           { return sec.Info }
func (sec *Section64) Alignment() uint64          { return sec.Addralign }
func (sec *Section64) EntrySize() uint64          { return sec.Entsize }
