package config

import (
	"fmt"
	"path/filepath"

	"github.com/nao1215/mdtidy/internal/convert"
)

// Options are conversion settings in the configuration file. Unset fields
// leave the value from the command line or an earlier match untouched.
type Options struct {
	// EnsureFirstHeaderIsH1 overrides --no-h1.
	EnsureFirstHeaderIsH1 *bool `yaml:"ensureFirstHeaderIsH1,omitempty"`

	// AlignHeaders overrides --no-align-headers.
	AlignHeaders *bool `yaml:"alignHeaders,omitempty"`
}

// Override applies Options to the files matching Pattern.
type Override struct {
	// Pattern is a glob matched against the file path as given on the
	// command line and against its base name, e.g. "docs/*.md" or
	// "CHANGELOG.md".
	Pattern string `yaml:"pattern"`

	Options `yaml:",inline"`
}

// File represents the structure of the .mdtidy configuration file.
type File struct {
	// Defaults applies to every file.
	Defaults Options `yaml:"defaults,omitempty"`

	// Overrides apply in order to matching files; later matches win.
	Overrides []Override `yaml:"overrides,omitempty"`
}

// apply sets every field of o that is present onto opts.
func (o Options) apply(opts convert.Options) convert.Options {
	if o.EnsureFirstHeaderIsH1 != nil {
		opts.EnsureFirstHeaderIsH1 = *o.EnsureFirstHeaderIsH1
	}
	if o.AlignHeaders != nil {
		opts.AlignHeaders = *o.AlignHeaders
	}
	return opts
}

// Matches reports whether the override applies to path.
func (o Override) Matches(path string) bool {
	if ok, _ := filepath.Match(o.Pattern, path); ok {
		return true
	}
	ok, _ := filepath.Match(o.Pattern, filepath.Base(path))
	return ok
}

// GetOptions returns the conversion options for path: base, then the file's
// defaults, then every matching override in order.
func (cf *File) GetOptions(path string, base convert.Options) convert.Options {
	opts := cf.Defaults.apply(base)
	for _, o := range cf.Overrides {
		if o.Matches(path) {
			opts = o.Options.apply(opts)
		}
	}
	return opts
}

// Validate checks that every override pattern is a well-formed glob.
func (cf *File) Validate() error {
	for i, o := range cf.Overrides {
		if _, err := filepath.Match(o.Pattern, ""); err != nil || o.Pattern == "" {
			return fmt.Errorf("%w: overrides[%d] %q", ErrInvalidPattern, i, o.Pattern)
		}
	}
	return nil
}
