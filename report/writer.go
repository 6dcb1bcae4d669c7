package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatText = Format("text")
	FormatYAML = Format("yaml")
	FormatJSON = Format("json")
)

func ParseFormat(value string) (Format, error) {
	switch format := Format(strings.ToLower(value)); format {
	case FormatText, FormatYAML, FormatJSON:
		return format, nil
	default:
		return "", fmt.Errorf(
			"unsupported report format (%s). expected text, yaml or json",
			value)
	}
}

func (report *Report) Write(out io.Writer, format Format) error {
	switch format {
	case FormatText:
		return report.WriteText(out)
	case FormatYAML:
		return report.WriteYAML(out)
	case FormatJSON:
		return report.WriteJSON(out)
	default:
		return fmt.Errorf("unsupported report format (%s)", format)
	}
}

func (report *Report) WriteYAML(out io.Writer) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)

	err := encoder.Encode(report)
	if err != nil {
		return fmt.Errorf("failed to encode yaml report: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("failed to encode yaml report: %w", err)
	}
	return nil
}

func (report *Report) WriteJSON(out io.Writer) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(report)
	if err != nil {
		return fmt.Errorf("failed to encode json report: %w", err)
	}
	return nil
}

// WriteText renders the report the way a person reads it: a short
// identification block, the layout map (one line per entry), followed by
// the segment and section tables and any string dumps.
func (report *Report) WriteText(out io.Writer) error {
	buf := &bytes.Buffer{}

	fmt.Fprintf(buf, "File:     %s (%s)\n", report.Path, humanize.IBytes(report.Size))
	fmt.Fprintf(buf, "Class:    %s\n", report.Class)
	fmt.Fprintf(buf, "Encoding: %s\n", report.Encoding)
	fmt.Fprintf(buf, "ELF Type: %s\n", report.ObjectType)
	fmt.Fprintf(buf, "Machine:  %s\n", report.Machine)
	fmt.Fprintf(buf, "Entry:    0x%x\n", report.EntryPoint)

	fmt.Fprintln(buf)
	fmt.Fprintln(buf, "Layout:")
	for _, line := range report.Layout {
		fmt.Fprintln(buf, line)
	}

	if len(report.Segments) > 0 {
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, "Segments:")
		report.WriteSegments(buf)
	}

	if len(report.Sections) > 0 {
		fmt.Fprintln(buf)
		fmt.Fprintln(buf, "Sections:")
		report.WriteSections(buf)
	}

	for _, dump := range report.StringDumps {
		fmt.Fprintln(buf)
		fmt.Fprintf(buf, "Strings in %s:\n", dump.Section)
		if dump.Error != "" {
			fmt.Fprintf(buf, "  error: %s\n", dump.Error)
			continue
		}

		for idx, str := range dump.Strings {
			fmt.Fprintf(buf, "  [%d] %s\n", idx, str)
		}
	}

	_, err := out.Write(buf.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	return nil
}

func (report *Report) WriteSegments(out io.Writer) {
	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{
		"Idx", "Type", "Flags", "Offset", "FileSize", "VirtAddr", "MemSize", "Align",
	})
	for _, segment := range report.Segments {
		table.Append([]string{
			fmt.Sprintf("%d", segment.Index),
			segment.Type,
			segment.Flags,
			fmt.Sprintf("0x%x", segment.Offset),
			fmt.Sprintf("0x%x", segment.FileSize),
			fmt.Sprintf("0x%x", segment.VirtualAddress),
			fmt.Sprintf("0x%x", segment.MemorySize),
			fmt.Sprintf("0x%x", segment.Alignment),
		})
	}
	table.Render()
}

func (report *Report) WriteSections(out io.Writer) {
	table := tablewriter.NewWriter(out)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{
		"Idx", "Name", "Type", "Flags", "Address", "Offset", "Size",
	})
	for _, section := range report.Sections {
		name := section.Name
		if section.NameError != "" {
			name = "<" + section.NameError + ">"
		}

		table.Append([]string{
			fmt.Sprintf("%d", section.Index),
			name,
			section.Type,
			section.Flags,
			fmt.Sprintf("0x%x", section.Address),
			fmt.Sprintf("0x%x", section.Offset),
			fmt.Sprintf("0x%x (%s)", section.Size, humanize.IBytes(section.Size)),
		})
	}
	table.Render()
}
