package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds user-level defaults, loaded from a YAML file. Every field is
// optional; command-line flags override whatever the file sets.
type Config struct {
	// Compilers is appended to the built-in compiler catalogue. Entries
	// starting with "/" match full paths, everything else matches basenames.
	Compilers []string `yaml:"compilers"`

	// CatalogDir points at a directory of extra catalogue CUE files.
	CatalogDir string `yaml:"catalog_dir"`

	// LinkCommands also emits a link database by default.
	LinkCommands bool `yaml:"link_commands"`

	// SaveDuration records measured durations in the databases by default.
	SaveDuration bool `yaml:"save_duration"`

	// DB is the default path of the SQLite run store. Empty disables it.
	DB string `yaml:"db"`

	// External is the default handling of bazel external components.
	External string `yaml:"external"`
}

// DefaultConfigName is the config file looked up in the user's home
// directory when --config isn't given.
const DefaultConfigName = ".yacce.yaml"

// LoadConfig reads a YAML config file. With an explicit path, the file must
// exist; with path == "", the default location is tried and a missing file
// just yields a zero Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(home, DefaultConfigName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
