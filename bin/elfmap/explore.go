package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ianlancetaylor/demangle"
	"github.com/urfave/cli/v3"

	"github.com/pattyshack/elfmap/elf"
	"github.com/pattyshack/elfmap/report"
)

var (
	errQuit = fmt.Errorf("quit")
)

type command struct {
	name  string
	usage string
	run   func(*explorer, []string) error
}

var commands []command

// commands is populated in init since help refers back to it.
func init() {
	commands = []command{
		{
			name:  "header",
			usage: "print the elf header",
			run:   (*explorer).header,
		},
		{
			name:  "layout",
			usage: "print the file layout map",
			run:   (*explorer).layout,
		},
		{
			name:  "programs",
			usage: "print the program header table",
			run:   (*explorer).programs,
		},
		{
			name:  "sections",
			usage: "print the section header table",
			run:   (*explorer).sections,
		},
		{
			name:  "name",
			usage: "name <idx>: resolve a section's name",
			run:   (*explorer).name,
		},
		{
			name:  "strings",
			usage: "strings <idx|name>: split a section into null-terminated strings",
			run:   (*explorer).strings,
		},
		{
			name:  "hex",
			usage: "hex <idx|name>: hex dump a section's content",
			run:   (*explorer).hexDump,
		},
		{
			name:  "demangle",
			usage: "demangle [on|off]: toggle symbol demangling in string dumps",
			run:   (*explorer).toggleDemangle,
		},
		{
			name:  "help",
			usage: "list commands",
			run:   (*explorer).help,
		},
		{
			name:  "quit",
			usage: "exit the explorer",
			run:   (*explorer).quit,
		},
	}
}

func exploreCmd(opts *options) *cli.Command {
	return &cli.Command{
		Name:      "explore",
		Usage:     "Interactively explore an ELF file",
		ArgsUsage: "<elf-file>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf(
					"%w: USAGE: elfmap [options] explore <elf-file>",
					errUsage)
			}

			path := cmd.Args().First()
			loaded, err := load(opts, path)
			if err != nil {
				return err
			}
			defer func() {
				err := loaded.Close()
				if err != nil {
					opts.logger.WithError(err).Warn("failed to release file")
				}
			}()

			root := cmd.Root()
			exp := newExplorer(path, loaded, opts.demangle, root.Writer)
			return exp.loop(io.NopCloser(root.Reader), root.ErrWriter)
		},
	}
}

type explorer struct {
	file    *elf.File
	summary *report.Report

	demangle bool
	out      io.Writer
}

func newExplorer(
	path string,
	loaded *loadedFile,
	demangle bool,
	out io.Writer,
) *explorer {
	return &explorer{
		file:     loaded.file,
		summary:  report.Build(path, loaded.file, loaded.layout, report.Options{}),
		demangle: demangle,
		out:      out,
	}
}

func (exp *explorer) loop(stdin io.ReadCloser, stderr io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: "elfmap > ",
		Stdin:  stdin,
		Stdout: exp.out,
		Stderr: stderr,
	})
	if err != nil {
		return fmt.Errorf("failed to start line editor: %w", err)
	}
	defer rl.Close()

	lastLine := ""
	for {
		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return fmt.Errorf("failed to read command: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			line = lastLine
		}
		lastLine = line

		if line == "" {
			continue
		}

		err = exp.execute(line)
		if errors.Is(err, errQuit) {
			return nil
		} else if err != nil {
			fmt.Fprintln(exp.out, "error:", err)
		}
	}
}

// execute runs a single command line.  Command names may be abbreviated to
// any unambiguous prefix.
func (exp *explorer) execute(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return fmt.Errorf("invalid command: (empty string)")
	}

	var matched []command
	for _, cmd := range commands {
		if cmd.name == args[0] {
			matched = []command{cmd}
			break
		}

		if strings.HasPrefix(cmd.name, args[0]) {
			matched = append(matched, cmd)
		}
	}

	switch len(matched) {
	case 0:
		return fmt.Errorf("invalid command: %s", args[0])
	case 1:
		return matched[0].run(exp, args[1:])
	default:
		names := []string{}
		for _, cmd := range matched {
			names = append(names, cmd.name)
		}
		return fmt.Errorf(
			"ambiguous command: %s (%s)",
			args[0],
			strings.Join(names, ", "))
	}
}

func (exp *explorer) header(args []string) error {
	hdr := exp.file.Header
	ident := hdr.Identifier()

	magic := "valid"
	if !ident.HasValidMagic() {
		magic = "invalid"
	}

	fmt.Fprintf(exp.out, "Magic:                % x (%s)\n", ident.Magic[:], magic)
	fmt.Fprintf(exp.out, "Class:                %s\n", ident.Class)
	fmt.Fprintf(exp.out, "Encoding:             %s\n", ident.DataEncoding)
	fmt.Fprintf(exp.out, "OS ABI:               %s\n", ident.OperatingSystemABI)
	fmt.Fprintf(exp.out, "ELF Type:             %s\n", hdr.FileType())
	fmt.Fprintf(exp.out, "Machine:              %s\n", hdr.Architecture())
	fmt.Fprintf(exp.out, "Entry:                0x%x\n", hdr.EntryPoint())
	fmt.Fprintf(
		exp.out,
		"Program headers:      %d x %d bytes at 0x%x\n",
		hdr.NumProgramHeaderEntries(),
		hdr.ProgramHeaderEntrySize(),
		hdr.ProgramHeaderOffset())
	fmt.Fprintf(
		exp.out,
		"Section headers:      %d x %d bytes at 0x%x\n",
		hdr.NumSectionHeaderEntries(),
		hdr.SectionHeaderEntrySize(),
		hdr.SectionHeaderOffset())
	fmt.Fprintf(exp.out, "Section name table:   %d\n", hdr.SectionStringTableIndex())
	return nil
}

func (exp *explorer) layout(args []string) error {
	for _, line := range exp.summary.Layout {
		fmt.Fprintln(exp.out, line)
	}
	return nil
}

func (exp *explorer) programs(args []string) error {
	exp.summary.WriteSegments(exp.out)
	return nil
}

func (exp *explorer) sections(args []string) error {
	exp.summary.WriteSections(exp.out)
	return nil
}

// sectionArg accepts either a section index or a section name.
func (exp *explorer) sectionArg(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected exactly one section argument")
	}

	idx, err := strconv.Atoi(args[0])
	if err == nil {
		return idx, nil
	}

	idx, ok := exp.file.SectionIndex(args[0])
	if !ok {
		return 0, fmt.Errorf("section not found: %s", args[0])
	}
	return idx, nil
}

func (exp *explorer) name(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one section index")
	}

	idx, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid section index (%s): %w", args[0], err)
	}

	name, err := exp.file.SectionName(idx)
	if err != nil {
		return err
	}

	fmt.Fprintln(exp.out, name)
	return nil
}

func (exp *explorer) strings(args []string) error {
	idx, err := exp.sectionArg(args)
	if err != nil {
		return err
	}

	strs, err := exp.file.SectionStrings(idx)
	if err != nil {
		return err
	}

	count := 0
	for str := range strs {
		if exp.demangle {
			str = demangle.Filter(str)
		}
		fmt.Fprintf(exp.out, "[%d] %s\n", count, str)
		count++
	}
	return nil
}

func (exp *explorer) hexDump(args []string) error {
	idx, err := exp.sectionArg(args)
	if err != nil {
		return err
	}

	content, err := exp.file.SectionContent(idx)
	if err != nil {
		return err
	}

	dumper := hex.Dumper(exp.out)
	_, err = dumper.Write(content)
	if err != nil {
		return err
	}
	return dumper.Close()
}

func (exp *explorer) toggleDemangle(args []string) error {
	switch {
	case len(args) == 0:
		exp.demangle = !exp.demangle
	case len(args) == 1 && args[0] == "on":
		exp.demangle = true
	case len(args) == 1 && args[0] == "off":
		exp.demangle = false
	default:
		return fmt.Errorf("expected on or off")
	}

	fmt.Fprintln(exp.out, "demangle:", exp.demangle)
	return nil
}

func (exp *explorer) help(args []string) error {
	for _, cmd := range commands {
		fmt.Fprintf(exp.out, "  %-10s %s\n", cmd.name, cmd.usage)
	}
	return nil
}

func (exp *explorer) quit(args []string) error {
	return errQuit
}
