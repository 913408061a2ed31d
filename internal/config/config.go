package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "tmreport"

	// DefaultFormat is the output format used when none is given.
	DefaultFormat = "markdown"

	// DefaultConcurrency is the number of files rendered in parallel.
	// Rendering is CPU-bound and fast, so a small pool is enough.
	DefaultConcurrency = 4
)

// Config holds all options for a render run.
// It is populated from CLI flags and the optional project file, then passed
// through the application rather than kept in global state.
type Config struct {
	// Inputs are the threat model files to render.
	Inputs []string

	// Format is the output format: markdown, text or json.
	Format string

	// OutputPath is a file (single input) or directory (several inputs).
	// Empty means stdout.
	OutputPath string

	// Summary adds a risk summary section.
	Summary bool

	// Footer is appended to every document when non-empty.
	Footer string

	// Color enables ANSI colors in text output.
	Color bool

	// Concurrency is the number of files rendered in parallel.
	Concurrency int

	// Verbose enables debug logging.
	Verbose bool

	// SaveToHistory stores each rendered document in the history database.
	SaveToHistory bool

	// DBDir is the directory of the history database.
	// Defaults to the XDG data directory (~/.local/share/tmreport on Linux).
	DBDir string

	// ConfigFilePath is the path of the project file. Empty means search.
	ConfigFilePath string

	// Project holds settings loaded from the project file.
	Project *File
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Format:      DefaultFormat,
		Concurrency: DefaultConcurrency,
		DBDir:       XDGDataDir(),
		Project:     &File{Reports: make(map[string]RenderSettings)},
	}
}

// XDGDataDir returns the XDG data directory for tmreport.
// On Linux: ~/.local/share/tmreport
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for tmreport.
// On Linux: ~/.config/tmreport
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInput
	}

	switch c.Format {
	case "markdown", "text", "json":
	default:
		return ErrUnknownFormat
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if len(c.Inputs) > 1 && c.OutputPath != "" {
		if info, err := os.Stat(c.OutputPath); err == nil && !info.IsDir() {
			return ErrOutputNotDirectory
		}
	}

	return nil
}
