package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/mdtidy/internal/convert"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional, so each one is pinned here.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("first heading is forced to h1", func(t *testing.T) {
		t.Parallel()
		if !cfg.EnsureFirstHeaderIsH1 {
			t.Error("expected EnsureFirstHeaderIsH1 to be true")
		}
	})

	t.Run("headings are aligned", func(t *testing.T) {
		t.Parallel()
		if !cfg.AlignHeaders {
			t.Error("expected AlignHeaders to be true")
		}
	})

	t.Run("one worker per CPU", func(t *testing.T) {
		t.Parallel()
		if cfg.Concurrency != DefaultConcurrency() {
			t.Errorf("expected Concurrency to be %d, got %d", DefaultConcurrency(), cfg.Concurrency)
		}
	})

	t.Run("files are not written", func(t *testing.T) {
		t.Parallel()
		if cfg.Write || cfg.Check {
			t.Error("expected Write and Check to be false")
		}
	})

	t.Run("cache is off and lives in the XDG cache directory", func(t *testing.T) {
		t.Parallel()
		if cfg.UseCache {
			t.Error("expected UseCache to be false")
		}
		if cfg.CacheDir != XDGCacheDir() {
			t.Errorf("expected CacheDir to be %q, got %q", XDGCacheDir(), cfg.CacheDir)
		}
		if filepath.Base(cfg.CachePath()) != CacheFileName {
			t.Errorf("unexpected cache path %q", cfg.CachePath())
		}
	})

	t.Run("defaults match the converter defaults", func(t *testing.T) {
		t.Parallel()
		if cfg.ConvertOptions() != convert.DefaultOptions() {
			t.Errorf("expected %+v, got %+v", convert.DefaultOptions(), cfg.ConvertOptions())
		}
	})
}

func validConfig() *Config {
	cfg := NewConfig()
	cfg.Targets = []string{"README.md"}
	return cfg
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{name: "defaults are valid", modify: func(*Config) {}},
		{name: "stdin without write is valid", modify: func(c *Config) { c.Targets = nil }},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }, wantErr: ErrInvalidConcurrency},
		{name: "negative concurrency", modify: func(c *Config) { c.Concurrency = -1 }, wantErr: ErrInvalidConcurrency},
		{
			name:    "json and markdown reports",
			modify:  func(c *Config) { c.JSONReport, c.MarkdownReport = true, true },
			wantErr: ErrConflictingReportFormats,
		},
		{
			name:    "write and check",
			modify:  func(c *Config) { c.Write, c.Check = true, true },
			wantErr: ErrConflictingModes,
		},
		{
			name: "write to stdin",
			modify: func(c *Config) {
				c.Write = true
				c.Targets = nil
			},
			wantErr: ErrWriteWithoutFiles,
		},
		{
			name:    "malformed override pattern",
			modify:  func(c *Config) { c.Overrides = &File{Overrides: []Override{{Pattern: "[a"}}} },
			wantErr: ErrInvalidPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func boolPtr(b bool) *bool { return &b }

func TestFileGetOptions(t *testing.T) {
	t.Parallel()

	cf := &File{
		Defaults: Options{EnsureFirstHeaderIsH1: boolPtr(false)},
		Overrides: []Override{
			{Pattern: "CHANGELOG.md", Options: Options{AlignHeaders: boolPtr(false)}},
			{Pattern: "docs/*.md", Options: Options{EnsureFirstHeaderIsH1: boolPtr(true)}},
			{Pattern: "docs/legacy.md", Options: Options{EnsureFirstHeaderIsH1: boolPtr(false)}},
		},
	}
	base := convert.DefaultOptions()

	tests := []struct {
		name string
		path string
		want convert.Options
	}{
		{name: "defaults only", path: "README.md", want: convert.Options{EnsureFirstHeaderIsH1: false, AlignHeaders: true}},
		{name: "base name match", path: "sub/CHANGELOG.md", want: convert.Options{EnsureFirstHeaderIsH1: false, AlignHeaders: false}},
		{name: "path match", path: "docs/guide.md", want: convert.Options{EnsureFirstHeaderIsH1: true, AlignHeaders: true}},
		{name: "later match wins", path: "docs/legacy.md", want: convert.Options{EnsureFirstHeaderIsH1: false, AlignHeaders: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := cf.GetOptions(tt.path, base); got != tt.want {
				t.Errorf("GetOptions(%q) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}
}

func TestConfigOptionsFor(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.AlignHeaders = false
	if got := cfg.OptionsFor("a.md"); got.AlignHeaders {
		t.Error("expected command line options without a config file")
	}

	cfg.Overrides = &File{Defaults: Options{AlignHeaders: boolPtr(true)}}
	if got := cfg.OptionsFor("a.md"); !got.AlignHeaders {
		t.Error("expected config file defaults to apply")
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		content := "defaults:\n  alignHeaders: false\noverrides:\n  - pattern: \"*.md\"\n    ensureFirstHeaderIsH1: false\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cf, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cf.Defaults.AlignHeaders == nil || *cf.Defaults.AlignHeaders {
			t.Error("expected defaults.alignHeaders to be false")
		}
		if len(cf.Overrides) != 1 || cf.Overrides[0].Pattern != "*.md" {
			t.Fatalf("unexpected overrides %+v", cf.Overrides)
		}
		if v := cf.Overrides[0].EnsureFirstHeaderIsH1; v == nil || *v {
			t.Error("expected inline override option to be parsed")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("defaults: [\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected a parse error")
		}
	})

	t.Run("invalid pattern", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), DefaultConfigFile)
		if err := os.WriteFile(path, []byte("overrides:\n  - pattern: \"[\"\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfigFile(path); !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("expected ErrInvalidPattern, got %v", err)
		}
	})
}

func TestFindConfigFileExplicit(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := FindConfigFile(path); got != path {
		t.Errorf("expected %q, got %q", path, got)
	}
	if got := FindConfigFile(path + ".missing"); got != "" {
		t.Errorf("expected empty result for a missing explicit file, got %q", got)
	}
}
