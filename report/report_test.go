package report

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"
	"gopkg.in/yaml.v3"

	"github.com/pattyshack/elfmap/elf"
	"github.com/pattyshack/elfmap/elf/elftest"
	"github.com/pattyshack/elfmap/layout"
)

type ReportSuite struct{}

func TestReport(t *testing.T) {
	suite.RunTests(t, &ReportSuite{})
}

func sampleReport(t *testing.T, options Options) (elftest.Image, *Report) {
	builder := elftest.Builder{
		Class:    elf.Class64,
		FileType: elf.ElfTypeSharedObject,
		Segments: []elftest.Segment{
			{
				Type:       elf.ProgTypeLoadable,
				Flags:      elf.ProgFlagReadableBit,
				FileSize:   0x80,
				MemorySize: 0x80,
				Alignment:  0x1000,
			},
		},
		Sections: []elftest.Section{
			{
				Name:    ".text",
				Type:    elf.SecTypeProgramDefinedInfo,
				Flags:   elf.SectionOccupiesMemory | elf.SectionContainsInstructions,
				Content: []byte{0xc3},
			},
			{
				Name:    CommandLineSectionName,
				Type:    elf.SecTypeProgramDefinedInfo,
				Content: []byte("-O2\x00-g\x00"),
			},
			{
				Name:    ".mangled",
				Type:    elf.SecTypeStringTable,
				Content: []byte("_ZN3foo3barEv\x00main\x00"),
			},
			{
				Name: elf.SectionStringTableName,
				Type: elf.SecTypeStringTable,
			},
		},
	}

	image := builder.Build()
	file, err := elf.ParseBytes(image.Content)
	expect.Nil(t, err)

	return image, Build("a.out", file, layout.Build(file), options)
}

func (ReportSuite) TestIdentification(t *testing.T) {
	image, report := sampleReport(t, Options{})

	expect.Equal(t, "a.out", report.Path)
	expect.Equal(t, uint64(len(image.Content)), report.Size)
	expect.Equal(t, "Class64", report.Class)
	expect.Equal(t, "TwosComplementLittleEndian", report.Encoding)
	expect.Equal(t, "Dyn(0x3)", report.ObjectType)
	expect.Equal(t, "x86-64", report.Machine)
	expect.Equal(t, uint64(0x401000), report.EntryPoint)
}

func (ReportSuite) TestLayoutLines(t *testing.T) {
	image, report := sampleReport(t, Options{})

	lines := []string{}
	for _, line := range report.Layout {
		lines = append(lines, line.String())
	}

	expected := []string{
		"0x00000000 EHdr",
		"0x00000040 Phdr[0] LOAD(0x1) 0x00000000~0x00000080",
		"0x00000078 Section[0] PROGBITS(0x1)",
		"0x00000079 Section[1] PROGBITS(0x1)",
		"0x00000080 Section[2] STRTAB(0x3)",
		"0x00000093 Section[3] STRTAB(0x3)",
	}

	shoff := image.SectionHeaderOffset
	types := []string{"PROGBITS(0x1)", "PROGBITS(0x1)", "STRTAB(0x3)", "STRTAB(0x3)"}
	for idx, secType := range types {
		expected = append(
			expected,
			fmtLine(shoff+uint64(idx)*64, "Shdr", idx, secType))
	}
	expected = append(expected, fmtEOF(uint64(len(image.Content))))

	if diff := cmp.Diff(expected, lines); diff != "" {
		t.Errorf("unexpected layout lines (-want +got):\n%s", diff)
	}
}

func fmtLine(offset uint64, label string, idx int, detail string) string {
	return LayoutLine{
		Offset: offset,
		Label:  fmt.Sprintf("%s[%d]", label, idx),
		Detail: detail,
	}.String()
}

func fmtEOF(offset uint64) string {
	return LayoutLine{Offset: offset, Label: "EOF"}.String()
}

func (ReportSuite) TestTables(t *testing.T) {
	_, report := sampleReport(t, Options{})

	expected := []Segment{
		{
			Index:      0,
			Type:       "LOAD(0x1)",
			Flags:      "r--",
			FileSize:   0x80,
			MemorySize: 0x80,
			Alignment:  0x1000,
		},
	}
	if diff := cmp.Diff(expected, report.Segments); diff != "" {
		t.Errorf("unexpected segments (-want +got):\n%s", diff)
	}

	names := []string{}
	for _, section := range report.Sections {
		expect.Equal(t, "", section.NameError)
		names = append(names, section.Name)
	}
	expect.Equal(
		t,
		[]string{".text", CommandLineSectionName, ".mangled", ".shstrtab"},
		names)

	expect.Equal(t, "-ax--------", report.Sections[0].Flags)
	expect.Equal(t, uint64(1), report.Sections[0].Size)
}

func (ReportSuite) TestUnresolvedSectionNamesAreReported(t *testing.T) {
	builder := elftest.Builder{
		Class: elf.Class32,
		Sections: []elftest.Section{
			{Name: ".data", Type: elf.SecTypeProgramDefinedInfo, Content: []byte("x")},
		},
		SectionStringTableIndex: elftest.Index(0),
	}

	file, err := elf.ParseBytes(builder.Build().Content)
	expect.Nil(t, err)

	report := Build("obj", file, layout.Build(file), Options{})
	expect.Equal(t, 1, len(report.Sections))
	expect.Equal(t, "", report.Sections[0].Name)
	expect.True(
		t,
		strings.Contains(report.Sections[0].NameError, "not defined"))

	out := &bytes.Buffer{}
	err = report.WriteText(out)
	expect.Nil(t, err)
	expect.True(t, strings.Contains(out.String(), "<unresolved section name"))
}

func (ReportSuite) TestStringDumps(t *testing.T) {
	_, report := sampleReport(
		t,
		Options{
			DumpStrings: []string{".mangled", CommandLineSectionName, ".missing"},
		})

	expected := []StringDump{
		{
			Section: CommandLineSectionName,
			Index:   1,
			Strings: []string{"-O2", "-g"},
		},
		{
			Section: ".mangled",
			Index:   2,
			Strings: []string{"_ZN3foo3barEv", "main"},
		},
		{
			Section: ".missing",
			Index:   -1,
			Strings: []string{},
			Error:   "section not found",
		},
	}

	if diff := cmp.Diff(expected, report.StringDumps); diff != "" {
		t.Errorf("unexpected string dumps (-want +got):\n%s", diff)
	}
}

func (ReportSuite) TestDemangledStringDumps(t *testing.T) {
	_, report := sampleReport(
		t,
		Options{
			DumpStrings: []string{".mangled"},
			Demangle:    true,
		})

	expect.Equal(t, 2, len(report.StringDumps))
	expect.Equal(t, []string{"foo::bar()", "main"}, report.StringDumps[1].Strings)
}

func (ReportSuite) TestWriteText(t *testing.T) {
	_, report := sampleReport(t, Options{})

	out := &bytes.Buffer{}
	err := report.Write(out, FormatText)
	expect.Nil(t, err)

	text := out.String()
	for _, expected := range []string{
		"ELF Type: Dyn(0x3)",
		"0x00000000 EHdr",
		"Phdr[0] LOAD(0x1)",
		"Strings in .GCC.command.line:",
		"  [0] -O2",
		"  [1] -g",
		".shstrtab",
	} {
		expect.True(t, strings.Contains(text, expected))
	}

	expect.True(t, strings.Index(text, "Segments:") < strings.Index(text, "Sections:"))
}

func (ReportSuite) TestWriteYAML(t *testing.T) {
	_, report := sampleReport(t, Options{DumpStrings: []string{".mangled"}})

	out := &bytes.Buffer{}
	err := report.Write(out, FormatYAML)
	expect.Nil(t, err)
	expect.True(t, strings.Contains(out.String(), "object_type: Dyn(0x3)"))

	decoded := &Report{}
	err = yaml.Unmarshal(out.Bytes(), decoded)
	expect.Nil(t, err)

	if diff := cmp.Diff(report, decoded); diff != "" {
		t.Errorf("yaml report mismatch (-want +got):\n%s", diff)
	}
}

func (ReportSuite) TestWriteJSON(t *testing.T) {
	_, report := sampleReport(t, Options{})

	out := &bytes.Buffer{}
	err := report.Write(out, FormatJSON)
	expect.Nil(t, err)
	expect.True(t, strings.Contains(out.String(), `"object_type": "Dyn(0x3)"`))

	decoded := &Report{}
	err = json.Unmarshal(out.Bytes(), decoded)
	expect.Nil(t, err)

	if diff := cmp.Diff(report, decoded); diff != "" {
		t.Errorf("json report mismatch (-want +got):\n%s", diff)
	}
}

func (ReportSuite) TestParseFormat(t *testing.T) {
	format, err := ParseFormat("YAML")
	expect.Nil(t, err)
	expect.Equal(t, FormatYAML, format)

	_, err = ParseFormat("xml")
	expect.Error(t, err, "unsupported report format (xml)")
}
