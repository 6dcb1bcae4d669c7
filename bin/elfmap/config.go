package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the elfmap configuration file
// (~/.config/elfmap/config.yaml).  Pointer fields distinguish "not set" from
// zero values.
type Config struct {
	Format      string   `yaml:"format"`
	Mmap        *bool    `yaml:"mmap"`
	Demangle    *bool    `yaml:"demangle"`
	DumpStrings []string `yaml:"dump_strings"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "elfmap", "config.yaml")
}

// LoadConfig reads the config file at path.  When path is empty, the default
// location is used, and a missing default file yields a zero Config.
func LoadConfig(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
		if path == "" {
			return Config{}, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("failed to read config (%s): %w", path, err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf(
			"%w: failed to parse config (%s): %w",
			errUsage,
			path,
			err)
	}

	return cfg, nil
}

type flagSetChecker interface {
	IsSet(name string) bool
}

// applyConfig applies config file defaults to the options whose flags were
// not explicitly set.
func applyConfig(c flagSetChecker, cfg Config, opts *options) {
	if cfg.Format != "" && !c.IsSet("format") {
		opts.format = cfg.Format
	}
	if cfg.Mmap != nil && !c.IsSet("mmap") {
		opts.mmap = *cfg.Mmap
	}
	if cfg.Demangle != nil && !c.IsSet("demangle") {
		opts.demangle = *cfg.Demangle
	}
	if len(cfg.DumpStrings) > 0 && !c.IsSet("dump-strings") {
		opts.dumpStrings = append([]string{}, cfg.DumpStrings...)
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		opts.logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		opts.logFormat = cfg.LogFormat
	}
}
