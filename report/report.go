// Package report assembles a printable summary of a parsed elf file: its
// identification, annotated layout, segment and section tables, and string
// dumps of selected sections.
package report

import (
	"fmt"

	"github.com/ianlancetaylor/demangle"

	"github.com/pattyshack/elfmap/elf"
	"github.com/pattyshack/elfmap/layout"
)

const (
	// The compiler records its invocation in this section when built with
	// -frecord-gcc-switches.  It is always dumped when present.
	CommandLineSectionName = ".GCC.command.line"
)

type Options struct {
	// Additional sections whose content is dumped as null-terminated strings.
	DumpStrings []string

	// Demangle C++/Rust symbol names in string dumps.
	Demangle bool
}

type LayoutLine struct {
	Offset uint64 `yaml:"offset" json:"offset"`
	Label  string `yaml:"label" json:"label"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

func (line LayoutLine) String() string {
	if line.Detail == "" {
		return fmt.Sprintf("0x%08x %s", line.Offset, line.Label)
	}
	return fmt.Sprintf("0x%08x %s %s", line.Offset, line.Label, line.Detail)
}

type Segment struct {
	Index          int    `yaml:"index" json:"index"`
	Type           string `yaml:"type" json:"type"`
	Flags          string `yaml:"flags" json:"flags"`
	Offset         uint64 `yaml:"offset" json:"offset"`
	FileSize       uint64 `yaml:"file_size" json:"file_size"`
	VirtualAddress uint64 `yaml:"virtual_address" json:"virtual_address"`
	MemorySize     uint64 `yaml:"memory_size" json:"memory_size"`
	Alignment      uint64 `yaml:"alignment" json:"alignment"`
}

type Section struct {
	Index     int    `yaml:"index" json:"index"`
	Name      string `yaml:"name" json:"name"`
	NameError string `yaml:"name_error,omitempty" json:"name_error,omitempty"`
	Type      string `yaml:"type" json:"type"`
	Flags     string `yaml:"flags" json:"flags"`
	Address   uint64 `yaml:"address" json:"address"`
	Offset    uint64 `yaml:"offset" json:"offset"`
	Size      uint64 `yaml:"size" json:"size"`
}

type StringDump struct {
	Section string   `yaml:"section" json:"section"`
	Index   int      `yaml:"index" json:"index"`
	Strings []string `yaml:"strings" json:"strings"`
	Error   string   `yaml:"error,omitempty" json:"error,omitempty"`
}

type Report struct {
	Path       string `yaml:"path" json:"path"`
	Size       uint64 `yaml:"size" json:"size"`
	Class      string `yaml:"class" json:"class"`
	Encoding   string `yaml:"encoding" json:"encoding"`
	ObjectType string `yaml:"object_type" json:"object_type"`
	Machine    string `yaml:"machine" json:"machine"`
	EntryPoint uint64 `yaml:"entry_point" json:"entry_point"`

	Layout   []LayoutLine `yaml:"layout" json:"layout"`
	Segments []Segment    `yaml:"segments" json:"segments"`
	Sections []Section    `yaml:"sections" json:"sections"`

	StringDumps []StringDump `yaml:"string_dumps,omitempty" json:"string_dumps,omitempty"`
}

func Build(
	path string,
	file *elf.File,
	fileLayout *layout.Map,
	options Options,
) *Report {
	ident := file.Header.Identifier()

	report := &Report{
		Path:       path,
		Size:       file.Size(),
		Class:      ident.Class.String(),
		Encoding:   ident.DataEncoding.String(),
		ObjectType: file.Header.FileType().String(),
		Machine:    file.Header.Architecture().String(),
		EntryPoint: file.Header.EntryPoint(),
		Layout:     []LayoutLine{},
		Segments:   []Segment{},
		Sections:   []Section{},
	}

	for _, entry := range fileLayout.Entries() {
		report.Layout = append(
			report.Layout,
			LayoutLine{
				Offset: entry.Offset,
				Label:  entry.Label(),
				Detail: detail(file, entry),
			})
	}

	for idx, prog := range file.ProgramHeaders {
		report.Segments = append(
			report.Segments,
			Segment{
				Index:          idx,
				Type:           prog.ProgType().String(),
				Flags:          prog.ProgFlags().String(),
				Offset:         prog.Offset(),
				FileSize:       prog.FileSize(),
				VirtualAddress: prog.VirtualAddress(),
				MemorySize:     prog.MemorySize(),
				Alignment:      prog.Alignment(),
			})
	}

	for idx, sec := range file.SectionHeaders {
		section := Section{
			Index:   idx,
			Type:    sec.SecType().String(),
			Flags:   sec.SectionFlags().String(),
			Address: sec.Address(),
			Offset:  sec.Offset(),
			Size:    sec.ContentSize(),
		}

		name, err := file.SectionName(idx)
		if err != nil {
			section.NameError = err.Error()
		} else {
			section.Name = name
		}

		report.Sections = append(report.Sections, section)
	}

	report.StringDumps = dumpStrings(file, options)
	return report
}

// detail annotates layout entries with the classification of the record
// they refer to.  Program header lines also show the segment's file range.
func detail(file *elf.File, entry layout.Entry) string {
	switch entry.Kind {
	case layout.ProgramHeader:
		prog := file.ProgramHeaders[entry.Index]
		return fmt.Sprintf(
			"%s 0x%08x~0x%08x",
			prog.ProgType(),
			prog.Offset(),
			prog.Offset()+prog.FileSize())
	case layout.Section, layout.SectionHeader:
		return file.SectionHeaders[entry.Index].SecType().String()
	default:
		return ""
	}
}

func dumpStrings(file *elf.File, options Options) []StringDump {
	names := []string{CommandLineSectionName}
	seen := map[string]struct{}{CommandLineSectionName: {}}
	for _, name := range options.DumpStrings {
		_, ok := seen[name]
		if ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	dumps := []StringDump{}
	for _, name := range names {
		idx, ok := file.SectionIndex(name)
		if !ok {
			if name != CommandLineSectionName {
				dumps = append(
					dumps,
					StringDump{
						Section: name,
						Index:   -1,
						Strings: []string{},
						Error:   "section not found",
					})
			}
			continue
		}

		dump := StringDump{
			Section: name,
			Index:   idx,
			Strings: []string{},
		}

		strs, err := file.SectionStrings(idx)
		if err != nil {
			dump.Error = err.Error()
		} else {
			for str := range strs {
				if options.Demangle {
					str = demangle.Filter(str)
				}
				dump.Strings = append(dump.Strings, str)
			}
		}

		dumps = append(dumps, dump)
	}

	return dumps
}
