// Package config loads puzzlegen settings from CUE files and merges them
// with command-line flags.
package config

import (
	_ "embed"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chazu/twisty/pkg/decompose"
	"github.com/chazu/twisty/pkg/logs"
	"github.com/chazu/twisty/pkg/mesh"
)

//go:embed schema.cue
var schema string

// Config holds every puzzlegen setting.
type Config struct {
	OutputDir   string   `json:"output_dir"`
	Puzzles     []string `json:"puzzles"`
	Scripts     []string `json:"scripts"`
	Compress    bool     `json:"compress"`
	Validate    bool     `json:"validate"`
	STL         bool     `json:"stl"`
	Workers     int      `json:"workers"`
	MaxPasses   int      `json:"max_passes"`
	WeldEpsilon float64  `json:"weld_epsilon"`
	LogLevel    string   `json:"log_level"`
	LogFile     string   `json:"log_file"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		OutputDir:   "puzzles",
		MaxPasses:   decompose.DefaultMaxPasses,
		WeldEpsilon: mesh.Eps,
		LogLevel:    "info",
	}
}

// Load reads the given CUE files over the defaults. Earlier files win.
func Load(paths ...string) (Config, error) {
	return LoadFrom(NewLoader(paths, schema))
}

// LoadFrom reads every setting from l over the defaults.
func LoadFrom(l Loader) (Config, error) {
	cfg := Default()
	fields := []struct {
		path   string
		target any
	}{
		{"output_dir", &cfg.OutputDir},
		{"puzzles", &cfg.Puzzles},
		{"scripts", &cfg.Scripts},
		{"compress", &cfg.Compress},
		{"validate", &cfg.Validate},
		{"stl", &cfg.STL},
		{"workers", &cfg.Workers},
		{"max_passes", &cfg.MaxPasses},
		{"weld_epsilon", &cfg.WeldEpsilon},
		{"log_level", &cfg.LogLevel},
		{"log_file", &cfg.LogFile},
	}
	for _, f := range fields {
		if err := l.AssignFirst(f.path, f.target); err != nil && !errors.Is(err, ErrValueNotFound) {
			return Config{}, err
		}
	}
	return cfg, nil
}

// fileNames are the config file names searched by Discover.
var fileNames = []string{"puzzlegen.cue", ".puzzlegen.cue"}

// Discover returns the config files present in the working directory and
// the user config directory, in precedence order.
func Discover(logger *slog.Logger) []string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, dir)
	}

	var paths []string
	for _, dir := range dirs {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				paths = append(paths, path)
			}
		}
	}
	if len(paths) > 0 {
		logs.OrNop(logger).Info("config file", "paths", paths)
	}
	return paths
}

// Flags holds CLI flag values that override config file settings. Zero
// values leave the file setting alone.
type Flags struct {
	OutputDir string
	Puzzles   []string
	Scripts   []string
	Compress  bool
	Validate  bool
	STL       bool
	Workers   int
	MaxPasses int
	LogLevel  string
	LogFile   string
}

// Resolve applies flag overrides and fills anything still unset with the
// defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if len(flags.Puzzles) > 0 {
		c.Puzzles = flags.Puzzles
	}
	if len(flags.Scripts) > 0 {
		c.Scripts = flags.Scripts
	}
	c.Compress = c.Compress || flags.Compress
	c.Validate = c.Validate || flags.Validate
	c.STL = c.STL || flags.STL
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.MaxPasses > 0 {
		c.MaxPasses = flags.MaxPasses
	}
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.LogFile != "" {
		c.LogFile = flags.LogFile
	}

	d := Default()
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.MaxPasses <= 0 {
		c.MaxPasses = d.MaxPasses
	}
	if c.WeldEpsilon <= 0 {
		c.WeldEpsilon = d.WeldEpsilon
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}
