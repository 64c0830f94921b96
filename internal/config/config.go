package config

import (
	"path/filepath"
	"runtime"

	"github.com/adrg/xdg"

	"github.com/nao1215/mdtidy/internal/convert"
)

const (
	// AppName is the application name used for XDG directory paths.
	AppName = "mdtidy"

	// CacheFileName is the name of the conversion cache database inside the
	// cache directory.
	CacheFileName = "mdtidy.db"
)

// DefaultConcurrency returns the default number of files converted in
// parallel: one per CPU. Conversion is pure computation, so more workers
// than CPUs only add scheduling overhead.
func DefaultConcurrency() int {
	return runtime.NumCPU()
}

// Config holds all configuration options for one mdtidy run.
// It is populated from CLI flags, then refined per file by the optional
// configuration file, and passed down explicitly rather than kept in global
// state.
type Config struct {
	// EnsureFirstHeaderIsH1 forces the first top-level heading to level 1.
	EnsureFirstHeaderIsH1 bool

	// AlignHeaders enables heading hierarchy repair.
	AlignHeaders bool

	// Write rewrites files in place instead of printing the result.
	// Only files whose content changes are written.
	Write bool

	// Check reports files that are not tidy and makes the run fail, without
	// printing or writing anything else.
	Check bool

	// Concurrency is the number of files converted in parallel.
	Concurrency int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit configuration file. When empty the
	// default locations are searched (see FindConfigFile).
	ConfigFilePath string

	// Overrides is the loaded configuration file, or nil when none exists.
	Overrides *File

	// JSONReport prints the run summary as JSON.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the run summary as a Markdown document.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is where the run summary is written. When empty and a
	// report format is selected, the summary goes to standard error.
	ReportFile string

	// UseCache stores conversion results in a SQLite database so unchanged
	// documents are not converted twice.
	UseCache bool

	// CacheDir is the directory holding the cache database.
	// Defaults to the XDG cache directory (~/.cache/mdtidy on Linux).
	CacheDir string

	// Targets are the files to convert. Empty means standard input.
	Targets []string
}

// NewConfig creates a Config with default values: both heading options on,
// one worker per CPU, results printed to standard output.
func NewConfig() *Config {
	return &Config{
		EnsureFirstHeaderIsH1: true,
		AlignHeaders:          true,
		Concurrency:           DefaultConcurrency(),
		CacheDir:              XDGCacheDir(),
	}
}

// ConvertOptions returns the conversion options selected on the command
// line, before per-file overrides.
func (c *Config) ConvertOptions() convert.Options {
	return convert.Options{
		EnsureFirstHeaderIsH1: c.EnsureFirstHeaderIsH1,
		AlignHeaders:          c.AlignHeaders,
	}
}

// OptionsFor returns the conversion options for one file: the command line
// options refined by the configuration file, if any.
func (c *Config) OptionsFor(path string) convert.Options {
	if c.Overrides == nil {
		return c.ConvertOptions()
	}
	return c.Overrides.GetOptions(path, c.ConvertOptions())
}

// CachePath returns the path of the cache database.
func (c *Config) CachePath() string {
	return filepath.Join(c.CacheDir, CacheFileName)
}

// XDGConfigDir returns the XDG config directory for mdtidy.
// On Linux: ~/.config/mdtidy
// On macOS: ~/Library/Application Support/mdtidy
// On Windows: %APPDATA%\mdtidy
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for mdtidy.
// On Linux: ~/.cache/mdtidy
// On macOS: ~/Library/Caches/mdtidy
// On Windows: %LOCALAPPDATA%\mdtidy\cache
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid and returns the first
// problem found.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.Write && c.Check {
		return ErrConflictingModes
	}
	if c.Write && len(c.Targets) == 0 {
		return ErrWriteWithoutFiles
	}
	if c.Overrides != nil {
		if err := c.Overrides.Validate(); err != nil {
			return err
		}
	}
	return nil
}
