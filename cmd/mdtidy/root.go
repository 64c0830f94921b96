package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/mdtidy/internal/log"
)

// NewRootCmd creates the root command for mdtidy. Run without a subcommand
// it formats its arguments, like the format subcommand.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdtidy [files or directories...]",
		Short: "Normalize Markdown documents",
		Long: `mdtidy rewrites Markdown into a single canonical form.

Emphasis, lists, code blocks, tables, links and headings are rebuilt from
the parsed document, so the same content always produces the same text.
Front matter and reference link definitions are kept. With no arguments,
mdtidy reads standard input and writes standard output.`,
		Version:       getVersion(),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runFormatCmd,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write log records as JSON")
	addFormatFlags(cmd)

	cmd.AddCommand(NewFormatCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewCacheCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the structured logger for a command. Records go to
// the command's error stream.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	asJSON, err := cmd.Flags().GetBool("log-json")
	if err != nil {
		asJSON, _ = cmd.Root().PersistentFlags().GetBool("log-json") //nolint:errcheck // defined on root
	}
	if asJSON {
		return log.NewJSONLogger(cmd.ErrOrStderr(), verbose)
	}
	return log.NewLogger(cmd.ErrOrStderr(), verbose)
}
