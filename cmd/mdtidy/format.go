package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/mdtidy/internal/cache"
	"github.com/nao1215/mdtidy/internal/config"
	"github.com/nao1215/mdtidy/internal/model"
	"github.com/nao1215/mdtidy/internal/pipeline"
	"github.com/nao1215/mdtidy/internal/report"
)

var (
	// errNotTidy is returned in check mode when a file would change.
	errNotTidy = errors.New("some files are not tidy")

	// errConversionFailed is returned when at least one document failed.
	errConversionFailed = errors.New("some files could not be converted")

	// errNoMarkdownFiles is returned when the arguments name only
	// directories without Markdown files.
	errNoMarkdownFiles = errors.New("no Markdown files found")
)

// markdownExtensions are the file extensions collected from directories.
var markdownExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
	".mkd":      true,
}

// NewFormatCmd creates the format command.
func NewFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "format [files or directories...]",
		Short: "Normalize Markdown files",
		Long: `Format normalizes Markdown documents.

Directories are searched recursively for .md, .markdown, .mdown and .mkd
files. Without arguments, standard input is converted to standard output.

Examples:
  # Print the normalized document
  mdtidy format README.md

  # Rewrite every Markdown file under docs/ in place
  mdtidy format -w docs/

  # Fail when any file is not tidy (for CI)
  mdtidy format --check --markdown -o summary.md .

  # Keep heading levels as written
  mdtidy format --no-align-headers notes.md

Configuration file (.mdtidy) example:
  defaults:
    ensureFirstHeaderIsH1: true
  overrides:
    - pattern: "CHANGELOG.md"
      alignHeaders: false`,
		Args: cobra.ArbitraryArgs,
		RunE: runFormatCmd,
	}
	addFormatFlags(cmd)
	return cmd
}

// addFormatFlags defines the format flags on cmd. The root command and the
// format subcommand share them.
func addFormatFlags(cmd *cobra.Command) {
	// Conversion flags
	cmd.Flags().Bool("no-h1", false,
		"Do not force the first top-level heading to level 1")
	cmd.Flags().Bool("no-align-headers", false,
		"Do not repair the heading hierarchy")

	// Output mode flags
	cmd.Flags().BoolP("write", "w", false,
		"Rewrite files in place instead of printing them")
	cmd.Flags().Bool("check", false,
		"List files that are not tidy and exit with an error if there are any")

	// Batch flags
	cmd.Flags().IntP("jobs", "j", config.DefaultConcurrency(),
		"Number of files converted in parallel")
	cmd.Flags().Bool("cache", false,
		"Reuse results for unchanged files from the conversion cache")
	cmd.Flags().String("cache-dir", config.XDGCacheDir(),
		"Conversion cache directory")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .mdtidy in current or home directory)")

	// Report flags
	cmd.Flags().Bool("json", false,
		"Write a JSON run report (mutually exclusive with --markdown)")
	cmd.Flags().Bool("markdown", false,
		"Write a Markdown run report (mutually exclusive with --json)")
	cmd.Flags().StringP("report", "o", "",
		"Write the run report to the specified file (default: standard error)")
}

// runFormatCmd executes the format command.
func runFormatCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runFormat(ctx, cfg, streams{
		in:  cmd.InOrStdin(),
		out: cmd.OutOrStdout(),
		err: cmd.ErrOrStderr(),
	}, logger)
}

// streams are the standard streams of a run.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	noH1, err := cmd.Flags().GetBool("no-h1")
	if err != nil {
		return nil, err
	}
	cfg.EnsureFirstHeaderIsH1 = !noH1

	noAlign, err := cmd.Flags().GetBool("no-align-headers")
	if err != nil {
		return nil, err
	}
	cfg.AlignHeaders = !noAlign

	if cfg.Write, err = cmd.Flags().GetBool("write"); err != nil {
		return nil, err
	}
	if cfg.Check, err = cmd.Flags().GetBool("check"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("jobs"); err != nil {
		return nil, err
	}
	if cfg.UseCache, err = cmd.Flags().GetBool("cache"); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = cmd.Flags().GetString("cache-dir"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("report"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}

	// An explicit config path must exist; a missing default one is fine.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.Overrides, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	cfg.Targets, err = collectTargets(args)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 && len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("%w in %s", errNoMarkdownFiles, strings.Join(args, ", "))
	}
	return cfg, nil
}

// collectTargets expands directories into the Markdown files below them.
// Files named explicitly are kept whatever their extension. Hidden
// directories are skipped.
func collectTargets(args []string) ([]string, error) {
	var targets []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			targets = append(targets, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != arg && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if markdownExtensions[strings.ToLower(filepath.Ext(path))] {
				targets = append(targets, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return targets, nil
}

// runFormat converts every target and reports the outcome.
func runFormat(ctx context.Context, cfg *config.Config, s streams, logger *slog.Logger) error {
	var store pipeline.Store
	if cfg.UseCache {
		c, err := cache.Open(cfg.CacheDir, cache.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		defer c.Close()
		store = c
		logger.Debug("cache opened", "path", c.Path())
	}

	docs := make([]*model.Document, 0, max(len(cfg.Targets), 1))
	if len(cfg.Targets) == 0 {
		docs = append(docs, model.NewDocument("", cfg.OptionsFor(model.StdinPath)))
	}
	for _, target := range cfg.Targets {
		docs = append(docs, model.NewDocument(target, cfg.OptionsFor(target)))
	}

	// A single document streams its output from the pipeline; several are
	// printed in input order once the batch is done.
	var emit *pipeline.EmitStep
	printing := !cfg.Write && !cfg.Check
	if printing {
		emit = pipeline.NewEmitStep(s.out)
	}
	pipelineCfg := pipeline.FormatPipelineConfig{
		Stdin:  s.in,
		Store:  store,
		Write:  cfg.Write,
		Logger: logger,
	}
	if printing && len(docs) == 1 {
		pipelineCfg.Emit = emit
	}

	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline { return pipeline.DefaultPipeline(pipelineCfg) },
		pipeline.WithConcurrency(cfg.Concurrency),
		pipeline.WithBatchLogger(logger),
	)

	start := time.Now()
	results, err := bp.ProcessBatch(ctx, docs)
	summary := model.NewSummary(results, time.Since(start))
	if err != nil {
		return err
	}

	if printing && len(docs) > 1 {
		for _, d := range summary.Documents {
			if d.Failed() {
				continue
			}
			if err := emit.Do(ctx, d); err != nil {
				return err
			}
		}
	}

	for _, d := range summary.FailedDocuments() {
		fmt.Fprintf(s.err, "%s: %s\n", d.DisplayPath(), d.ErrorMessage)
	}
	if cfg.Check {
		for _, d := range summary.ChangedDocuments() {
			fmt.Fprintln(s.out, d.DisplayPath())
		}
	}

	if err := writeReport(cfg, summary, s.err); err != nil {
		return err
	}

	switch {
	case summary.HasFailures():
		return fmt.Errorf("%w: %d of %d", errConversionFailed, summary.Failed, summary.Total)
	case cfg.Check && summary.Changed > 0:
		return fmt.Errorf("%w: %d of %d", errNotTidy, summary.Changed, summary.Total)
	}
	return nil
}

// writeReport writes the run summary when a report was requested.
func writeReport(cfg *config.Config, summary *model.Summary, stderr io.Writer) error {
	if !cfg.JSONReport && !cfg.MarkdownReport && cfg.ReportFile == "" {
		return nil
	}

	output := stderr
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err != nil {
			return fmt.Errorf("failed to create report file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}
	// Verbose runs also show the summary on stderr when the report goes to a file.
	if cfg.ReportFile != "" && cfg.Verbose {
		w = report.NewMultiWriter(w, report.NewSimpleWriter(stderr))
	}
	_, err := w.Write(summary)
	return err
}
