package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pattyshack/gt/testing/expect"

	"github.com/pattyshack/elfmap/elf"
	"github.com/pattyshack/elfmap/elf/elftest"
)

func sampleBuilder() elftest.Builder {
	return elftest.Builder{
		Class:    elf.Class64,
		FileType: elf.ElfTypeExecutable,
		Segments: []elftest.Segment{
			{
				Type:       elf.ProgTypeLoadable,
				Flags:      elf.ProgFlagReadableBit | elf.ProgFlagExecutableBit,
				FileSize:   0x100,
				MemorySize: 0x100,
				Alignment:  0x1000,
			},
		},
		Sections: []elftest.Section{
			{
				Name:    ".text",
				Type:    elf.SecTypeProgramDefinedInfo,
				Flags:   elf.SectionOccupiesMemory | elf.SectionContainsInstructions,
				Content: []byte{0x90, 0x90, 0xc3},
			},
			{
				Name:    ".GCC.command.line",
				Type:    elf.SecTypeProgramDefinedInfo,
				Content: []byte("GNU C17 -O2\x00-g\x00"),
			},
			{
				Name:    ".names",
				Type:    elf.SecTypeStringTable,
				Content: []byte("_ZN3foo3barEv\x00plain"),
			},
			{
				Name: elf.SectionStringTableName,
				Type: elf.SecTypeStringTable,
			},
		},
	}
}

func writeFile(t *testing.T, name string, content []byte) string {
	path := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(path, content, 0o644)
	expect.Nil(t, err)
	return path
}
