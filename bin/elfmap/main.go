package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/pattyshack/elfmap/elf"
	"github.com/pattyshack/elfmap/layout"
	"github.com/pattyshack/elfmap/report"
	"github.com/pattyshack/elfmap/source"
)

const (
	usage = "USAGE: elfmap [options] <elf-file>"
)

type options struct {
	format      string
	mmap        bool
	demangle    bool
	dumpStrings []string
	configPath  string
	logLevel    string
	logFormat   string

	logger *logrus.Logger
}

func (opts *options) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "format",
			Aliases:     []string{"f"},
			Usage:       "report format (text, yaml, json)",
			Value:       string(report.FormatText),
			Destination: &opts.format,
		},
		&cli.BoolFlag{
			Name:        "mmap",
			Usage:       "map the file instead of reading it",
			Destination: &opts.mmap,
		},
		&cli.BoolFlag{
			Name:        "demangle",
			Usage:       "demangle symbol names in string dumps",
			Destination: &opts.demangle,
		},
		&cli.StringSliceFlag{
			Name:        "dump-strings",
			Aliases:     []string{"s"},
			Usage:       "dump the named section as null-terminated strings",
			Destination: &opts.dumpStrings,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config file (default: $XDG_CONFIG_HOME/elfmap/config.yaml)",
			Destination: &opts.configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (panic, fatal, error, warn, info, debug, trace)",
			Value:       "warn",
			Destination: &opts.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (text, json)",
			Value:       "text",
			Destination: &opts.logFormat,
		},
	}
}

// before merges the config file into the unset flags, then validates the
// result and sets up logging.
func (opts *options) before(
	ctx context.Context,
	cmd *cli.Command,
) (
	context.Context,
	error,
) {
	cfg, err := LoadConfig(opts.configPath)
	if err != nil {
		return ctx, err
	}
	applyConfig(cmd, cfg, opts)

	_, err = report.ParseFormat(opts.format)
	if err != nil {
		return ctx, fmt.Errorf("%w: %w", errUsage, err)
	}

	logger, err := newLogger(opts.logLevel, opts.logFormat, cmd.Root().ErrWriter)
	if err != nil {
		return ctx, fmt.Errorf("%w: %w", errUsage, err)
	}
	opts.logger = logger

	return ctx, nil
}

func newApp(stdin io.Reader, stdout io.Writer, stderr io.Writer) *cli.Command {
	opts := &options{}

	return &cli.Command{
		Name:      "elfmap",
		Usage:     "Map the on-disk layout of an ELF file",
		ArgsUsage: "<elf-file>",
		Flags:     opts.flags(),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Before:    opts.before,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return fmt.Errorf("%w: %s", errUsage, usage)
			}

			return inspect(ctx, opts, cmd.Args().First(), cmd.Root().Writer)
		},
		Commands: []*cli.Command{
			exploreCmd(opts),
		},
	}
}

type loadedFile struct {
	buffer *source.Buffer
	file   *elf.File
	layout *layout.Map
}

func (loaded *loadedFile) Close() error {
	return loaded.buffer.Close()
}

func load(opts *options, path string) (*loadedFile, error) {
	buffer, err := source.Load(path, source.Options{Mmap: opts.mmap})
	if err != nil {
		return nil, err
	}

	opts.logger.WithFields(logrus.Fields{
		"path":   path,
		"size":   len(buffer.Content),
		"mapped": buffer.Mapped(),
	}).Debug("loaded file")

	file, err := elf.ParseBytes(buffer.Content)
	if err != nil {
		_ = buffer.Close()
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	opts.logger.WithFields(logrus.Fields{
		"class":    file.Class(),
		"programs": file.NumPrograms(),
		"sections": file.NumSections(),
	}).Debug("parsed elf file")

	fileLayout := layout.Build(file)
	opts.logger.WithField("entries", fileLayout.Len()).Debug("built layout")

	return &loadedFile{
		buffer: buffer,
		file:   file,
		layout: fileLayout,
	}, nil
}

func inspect(
	ctx context.Context,
	opts *options,
	path string,
	out io.Writer,
) error {
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

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	summary := report.Build(
		path,
		loaded.file,
		loaded.layout,
		report.Options{
			DumpStrings: opts.dumpStrings,
			Demangle:    opts.demangle,
		})

	return summary.Write(out, format)
}

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr)

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1)
	}
}
