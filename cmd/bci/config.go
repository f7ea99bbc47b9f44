package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const configFileName = "bci.toml"

// fileConfig mirrors bci.toml. Command-line flags override every field.
type fileConfig struct {
	Run  runConfig  `toml:"run"`
	Log  logConfig  `toml:"log"`
	Dump dumpConfig `toml:"dump"`

	// Path is the file the configuration was read from (set at load time).
	Path string `toml:"-"`
}

type runConfig struct {
	RecursionLimit int `toml:"recursion_limit"`
}

type logConfig struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

type dumpConfig struct {
	Format string `toml:"format"`
	Out    string `toml:"out"`
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var cfg fileConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	cfg.Path = path

	if cfg.Run.RecursionLimit < 0 {
		return nil, fmt.Errorf("%s: run.recursion_limit must not be negative", path)
	}
	if err := validateDumpFormat(cfg.Dump.Format); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Log.File != "" && !filepath.IsAbs(cfg.Log.File) {
		cfg.Log.File = filepath.Join(filepath.Dir(path), cfg.Log.File)
	}
	if cfg.Dump.Out != "" && !filepath.IsAbs(cfg.Dump.Out) {
		cfg.Dump.Out = filepath.Join(filepath.Dir(path), cfg.Dump.Out)
	}

	return &cfg, nil
}

// resolveConfig loads the explicit config file, or bci.toml next to the
// script when one exists. With neither it returns an empty config.
func resolveConfig(explicit, scriptPath string) (*fileConfig, error) {
	if explicit != "" {
		return loadConfig(explicit)
	}
	candidate := filepath.Join(filepath.Dir(scriptPath), configFileName)
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("stat %s: %w", candidate, err)
	}
	return loadConfig(candidate)
}

func validateDumpFormat(format string) error {
	switch format {
	case "", "yaml", "cbor":
		return nil
	default:
		return fmt.Errorf("unknown dump format %q (want yaml or cbor)", format)
	}
}
