// Based on linux's elf.h, golang's debug/elf package, and the elf 1.2 spec.
package elf

import (
	"fmt"
)

const (
	// Name reported for any code that is not in the classification tables.
	InvalidTypeName = "Invalid"
)

// EI_CLASS
type Class byte

const (
	ClassNone = Class(0) // ELFCLASSNONE
	Class32   = Class(1) // ELFCLASS32
	Class64   = Class(2) // ELFCLASS64
)

func (class Class) String() string {
	switch class {
	case ClassNone:
		return "ClassNone"
	case Class32:
		return "Class32"
	case Class64:
		return "Class64"
	default:
		return fmt.Sprintf("ClassUnknown(%d)", class)
	}
}

// EI_DATA
type DataEncoding byte

const (
	DataEncodingNone                       = DataEncoding(0) // ELFDATANONE
	DataEncodingTwosComplementLittleEndian = DataEncoding(1) // ELFDATA2LSB
	DataEncodingTwosComplementBigEndian    = DataEncoding(2) // ELFDATA2MSB
)

func (encoding DataEncoding) String() string {
	switch encoding {
	case DataEncodingNone:
		return "DataEncodingNone"
	case DataEncodingTwosComplementLittleEndian:
		return "TwosComplementLittleEndian"
	case DataEncodingTwosComplementBigEndian:
		return "TwosComplementBigEndian"
	default:
		return fmt.Sprintf("DataEncodingUnknown(%d)", encoding)
	}
}

// EI_OSABI
// NOTE: golang's debug/elf.OSABI defines a more complete list
type OperatingSystemABI byte

const (
	OperatingSystemABIUnixSystemV = OperatingSystemABI(0) // ELFOSABI_NONE
	OperatingSystemABILinux       = OperatingSystemABI(3) // ELFOSABI_LINUX
)

func (osAbi OperatingSystemABI) String() string {
	switch osAbi {
	case OperatingSystemABIUnixSystemV:
		return "UnixSystemV"
	case OperatingSystemABILinux:
		return "Linux"
	default:
		return fmt.Sprintf("OperatingSystemABIUnknown(%d)", osAbi)
	}
}

// e_machine
// NOTE: golang's debug/elf.Machine defines a more complete list of machine
// types.
type MachineArchitecture uint16

const (
	MachineArchitectureNone    = MachineArchitecture(0)   // EM_NONE
	MachineArchitecture386     = MachineArchitecture(3)   // EM_386
	MachineArchitectureARM     = MachineArchitecture(40)  // EM_ARM
	MachineArchitectureX86_64  = MachineArchitecture(62)  // EM_X86_64
	MachineArchitectureAArch64 = MachineArchitecture(183) // EM_AARCH64
	MachineArchitectureRISCV   = MachineArchitecture(243) // EM_RISCV
)

func (arch MachineArchitecture) String() string {
	switch arch {
	case MachineArchitectureNone:
		return "MachineArchitectureNone"
	case MachineArchitecture386:
		return "i386"
	case MachineArchitectureARM:
		return "arm"
	case MachineArchitectureX86_64:
		return "x86-64"
	case MachineArchitectureAArch64:
		return "aarch64"
	case MachineArchitectureRISCV:
		return "riscv"
	default:
		return fmt.Sprintf("MachineArchitectureUnknown(%d)", arch)
	}
}

// e_type
//
// ElfType is the raw code.  Two classifications are equal iff their codes
// are equal; unknown codes all share the name "Invalid".
type ElfType uint16

const (
	ElfTypeNone         = ElfType(0)      // ET_NONE
	ElfTypeRelocatable  = ElfType(1)      // ET_REL
	ElfTypeExecutable   = ElfType(2)      // ET_EXEC
	ElfTypeSharedObject = ElfType(3)      // ET_DYN
	ElfTypeCore         = ElfType(4)      // ET_CORE
	ElfTypeNum          = ElfType(5)      // ET_NUM
	ElfTypeLowOS        = ElfType(0xfe00) // ET_LOOS
	ElfTypeHighOS       = ElfType(0xfeff) // ET_HIOS
	ElfTypeLowProc      = ElfType(0xff00) // ET_LOPROC
	ElfTypeHighProc     = ElfType(0xffff) // ET_HIPROC
)

var elfTypeNames = map[ElfType]string{
	ElfTypeNone:         "None",
	ElfTypeRelocatable:  "Rel",
	ElfTypeExecutable:   "Exec",
	ElfTypeSharedObject: "Dyn",
	ElfTypeCore:         "Core",
	ElfTypeNum:          "Num",
	ElfTypeLowOS:        "LoOS",
	ElfTypeHighOS:       "HiOS",
	ElfTypeLowProc:      "LoProc",
	ElfTypeHighProc:     "HiProc",
}

func ClassifyElfType(code uint16) ElfType {
	return ElfType(code)
}

func (et ElfType) Code() uint16 {
	return uint16(et)
}

func (et ElfType) Name() string {
	return lookupName(elfTypeNames, et)
}

func (et ElfType) String() string {
	return fmt.Sprintf("%s(%#x)", et.Name(), uint16(et))
}

// p_type
type ProgType uint32

const (
	ProgTypeNull                = ProgType(0)          // PT_NULL
	ProgTypeLoadable            = ProgType(1)          // PT_LOAD
	ProgTypeDynamicLinking      = ProgType(2)          // PT_DYNAMIC
	ProgTypeInterpreterPath     = ProgType(3)          // PT_INTERP
	ProgTypeNote                = ProgType(4)          // PT_NOTE
	ProgTypeSharedLibrary       = ProgType(5)          // PT_SHLIB
	ProgTypeHeaderInfo          = ProgType(6)          // PT_PHDR
	ProgTypeThreadLocalStorage  = ProgType(7)          // PT_TLS
	ProgTypeNum                 = ProgType(8)          // PT_NUM
	ProgTypeLowOS               = ProgType(0x60000000) // PT_LOOS
	ProgTypeGNUExceptionFrame   = ProgType(0x6474e550) // PT_GNU_EH_FRAME
	ProgTypeGNUStack            = ProgType(0x6474e551) // PT_GNU_STACK
	ProgTypeGNUReadOnlyAfterRel = ProgType(0x6474e552) // PT_GNU_RELRO
	ProgTypeGNUProperty         = ProgType(0x6474e553) // PT_GNU_PROPERTY
	ProgTypeSunBSS              = ProgType(0x6ffffffa) // PT_SUNWBSS
	ProgTypeSunStack            = ProgType(0x6ffffffb) // PT_SUNWSTACK
	ProgTypeHighOS              = ProgType(0x6fffffff) // PT_HIOS
	ProgTypeLowProc             = ProgType(0x70000000) // PT_LOPROC
	ProgTypeHighProc            = ProgType(0x7fffffff) // PT_HIPROC
)

var progTypeNames = map[ProgType]string{
	ProgTypeNull:                "NULL",
	ProgTypeLoadable:            "LOAD",
	ProgTypeDynamicLinking:      "DYNAMIC",
	ProgTypeInterpreterPath:     "INTERP",
	ProgTypeNote:                "NOTE",
	ProgTypeSharedLibrary:       "SHLIB",
	ProgTypeHeaderInfo:          "PHDR",
	ProgTypeThreadLocalStorage:  "TLS",
	ProgTypeNum:                 "NUM",
	ProgTypeLowOS:               "LOOS",
	ProgTypeGNUExceptionFrame:   "GNU_EH_FRAME",
	ProgTypeGNUStack:            "GNU_STACK",
	ProgTypeGNUReadOnlyAfterRel: "GNU_RELRO",
	ProgTypeGNUProperty:         "GNU_PROPERTY",
	ProgTypeSunBSS:              "SUNWBSS",
	ProgTypeSunStack:            "SUNWSTACK",
	ProgTypeHighOS:              "HIOS",
	ProgTypeLowProc:             "LOPROC",
	ProgTypeHighProc:            "HIPROC",
}

func ClassifyProgType(code uint32) ProgType {
	return ProgType(code)
}

func (pt ProgType) Code() uint32 {
	return uint32(pt)
}

func (pt ProgType) Name() string {
	return lookupName(progTypeNames, pt)
}

func (pt ProgType) String() string {
	return fmt.Sprintf("%s(%#x)", pt.Name(), uint32(pt))
}

type ProgFlags uint32

const (
	ProgFlagExecutableBit = ProgFlags(0x1) // PF_X
	ProgFlagWritableBit   = ProgFlags(0x2) // PF_W
	ProgFlagReadableBit   = ProgFlags(0x4) // PF_R
)

func (bits ProgFlags) String() string {
	if bits > 7 {
		return fmt.Sprintf("%#x", uint32(bits))
	}

	rwx := []byte{'-', '-', '-'}
	if bits&ProgFlagReadableBit != 0 {
		rwx[0] = 'r'
	}

	if bits&ProgFlagWritableBit != 0 {
		rwx[1] = 'w'
	}

	if bits&ProgFlagExecutableBit != 0 {
		rwx[2] = 'x'
	}

	return string(rwx)
}

// sh_type
type SecType uint32

const (
	SecTypeNull                  = SecType(0)          // SHT_NULL
	SecTypeProgramDefinedInfo    = SecType(1)          // SHT_PROGBITS
	SecTypeSymbolTable           = SecType(2)          // SHT_SYMTAB
	SecTypeStringTable           = SecType(3)          // SHT_STRTAB
	SecTypeRelocationWithAddends = SecType(4)          // SHT_RELA
	SecTypeSymbolHashTable       = SecType(5)          // SHT_HASH
	SecTypeDynamic               = SecType(6)          // SHT_DYNAMIC
	SecTypeNote                  = SecType(7)          // SHT_NOTE
	SecTypeNoSpace               = SecType(8)          // SHT_NOBITS
	SecTypeRelocationNoAddends   = SecType(9)          // SHT_REL
	SecTypeSharedLibrary         = SecType(10)         // SHT_SHLIB
	SecTypeDynamicSymbolTable    = SecType(11)         // SHT_DYNSYM
	SecTypeInitArray             = SecType(14)         // SHT_INIT_ARRAY
	SecTypeFiniArray             = SecType(15)         // SHT_FINI_ARRAY
	SecTypePreInitArray          = SecType(16)         // SHT_PREINIT_ARRAY
	SecTypeGroup                 = SecType(17)         // SHT_GROUP
	SecTypeExtendedSectionIndex  = SecType(18)         // SHT_SYMTAB_SHNDX
	SecTypeRelativeRelocation    = SecType(19)         // SHT_RELR
	SecTypeNum                   = SecType(20)         // SHT_NUM
	SecTypeLowOS                 = SecType(0x60000000) // SHT_LOOS
	SecTypeGNUAttributes         = SecType(0x6ffffff5) // SHT_GNU_ATTRIBUTES
	SecTypeGNUHash               = SecType(0x6ffffff6) // SHT_GNU_HASH
	SecTypeGNULibraryList        = SecType(0x6ffffff7) // SHT_GNU_LIBLIST
	SecTypeChecksum              = SecType(0x6ffffff8) // SHT_CHECKSUM
	SecTypeSunMove               = SecType(0x6ffffffa) // SHT_SUNW_move (SHT_LOSUNW)
	SecTypeSunCOMDAT             = SecType(0x6ffffffb) // SHT_SUNW_COMDAT
	SecTypeSunSymbolInfo         = SecType(0x6ffffffc) // SHT_SUNW_syminfo
	SecTypeGNUVersionDefinition  = SecType(0x6ffffffd) // SHT_GNU_verdef
	SecTypeGNUVersionNeeds       = SecType(0x6ffffffe) // SHT_GNU_verneed
	SecTypeGNUVersionSymbols     = SecType(0x6fffffff) // SHT_GNU_versym (SHT_HIOS)
	SecTypeLowProc               = SecType(0x70000000) // SHT_LOPROC
	SecTypeHighProc              = SecType(0x7fffffff) // SHT_HIPROC
	SecTypeLowUser               = SecType(0x80000000) // SHT_LOUSER
	SecTypeHighUser              = SecType(0x8fffffff) // SHT_HIUSER

	SecTypeHighOS = SecTypeGNUVersionSymbols
)

var secTypeNames = map[SecType]string{
	SecTypeNull:                  "NULL",
	SecTypeProgramDefinedInfo:    "PROGBITS",
	SecTypeSymbolTable:           "SYMTAB",
	SecTypeStringTable:           "STRTAB",
	SecTypeRelocationWithAddends: "RELA",
	SecTypeSymbolHashTable:       "HASH",
	SecTypeDynamic:               "DYNAMIC",
	SecTypeNote:                  "NOTE",
	SecTypeNoSpace:               "NOBITS",
	SecTypeRelocationNoAddends:   "REL",
	SecTypeSharedLibrary:         "SHLIB",
	SecTypeDynamicSymbolTable:    "DYNSYM",
	SecTypeInitArray:             "INIT_ARRAY",
	SecTypeFiniArray:             "FINI_ARRAY",
	SecTypePreInitArray:          "PREINIT_ARRAY",
	SecTypeGroup:                 "GROUP",
	SecTypeExtendedSectionIndex:  "SYMTAB_SHNDX",
	SecTypeRelativeRelocation:    "RELR",
	SecTypeNum:                   "NUM",
	SecTypeLowOS:                 "LOOS",
	SecTypeGNUAttributes:         "GNU_ATTRIBUTES",
	SecTypeGNUHash:               "GNU_HASH",
	SecTypeGNULibraryList:        "GNU_LIBLIST",
	SecTypeChecksum:              "CHECKSUM",
	SecTypeSunMove:               "SUNW_move",
	SecTypeSunCOMDAT:             "SUNW_COMDAT",
	SecTypeSunSymbolInfo:         "SUNW_syminfo",
	SecTypeGNUVersionDefinition:  "GNU_verdef",
	SecTypeGNUVersionNeeds:       "GNU_verneed",
	SecTypeGNUVersionSymbols:     "GNU_versym",
	SecTypeLowProc:               "LOPROC",
	SecTypeHighProc:              "HIPROC",
	SecTypeLowUser:               "LOUSER",
	SecTypeHighUser:              "HIUSER",
}

func ClassifySecType(code uint32) SecType {
	return SecType(code)
}

func (st SecType) Code() uint32 {
	return uint32(st)
}

func (st SecType) Name() string {
	return lookupName(secTypeNames, st)
}

func (st SecType) String() string {
	return fmt.Sprintf("%s(%#x)", st.Name(), uint32(st))
}

// sh_flags
type SectionFlags uint64

const (
	SectionContainsWritableData         = SectionFlags(0x1)   // SHF_WRITE
	SectionOccupiesMemory               = SectionFlags(0x2)   // SHF_ALLOC
	SectionContainsInstructions         = SectionFlags(0x4)   // SHF_EXECINSTR
	SectionMayBeMerged                  = SectionFlags(0x10)  // SHF_MERGE
	SectionContainsStrings              = SectionFlags(0x20)  // SHF_STRINGS
	SectionInfoHoldsSectionIndex        = SectionFlags(0x40)  // SHF_INFO_LINK
	SectionRequiresSpecialOrdering      = SectionFlags(0x80)  // SHF_LINK_ORDER
	SectionRequiresOsSpecificProcessing = SectionFlags(0x100) // SHF_OS_NONCONFORMING
	SectionIsGroupMember                = SectionFlags(0x200) // SHF_GROUP
	SectionContainsTLSData              = SectionFlags(0x400) // SHF_TLS
	SectionIsCompressed                 = SectionFlags(0x800) // SHF_COMPRESSED
)

var sectionFlagChars = []struct {
	SectionFlags
	char byte
}{
	{SectionContainsWritableData, 'w'},
	{SectionOccupiesMemory, 'a'},
	{SectionContainsInstructions, 'x'},
	{SectionMayBeMerged, 'm'},
	{SectionContainsStrings, 's'},
	{SectionInfoHoldsSectionIndex, 'i'},
	{SectionRequiresSpecialOrdering, 'l'},
	{SectionRequiresOsSpecificProcessing, 'o'},
	{SectionIsGroupMember, 'g'},
	{SectionContainsTLSData, 't'},
	{SectionIsCompressed, 'c'},
}

func (flags SectionFlags) String() string {
	result := make([]byte, len(sectionFlagChars))
	for i, entry := range sectionFlagChars {
		result[i] = '-'
		if flags&entry.SectionFlags != 0 {
			result[i] = entry.char
		}
	}

	return string(result)
}

func lookupName[T comparable](table map[T]string, code T) string {
	name, ok := table[code]
	if !ok {
		return InvalidTypeName
	}
	return name
}
