package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nao1215/mdtidy/internal/cache"
	"github.com/nao1215/mdtidy/internal/config"
)

// defaultPruneAge is how long an unused cache entry is kept by
// "mdtidy cache prune".
const defaultPruneAge = 30 * 24 * time.Hour

// NewCacheCmd creates the cache command and its subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or prune the conversion cache",
		Long: `The conversion cache stores results of "mdtidy --cache" so unchanged
files are not converted again. It lives in the XDG cache directory
(~/.cache/mdtidy on Linux).`,
	}
	cmd.PersistentFlags().String("cache-dir", config.XDGCacheDir(), "Cache directory")

	cmd.AddCommand(newCacheStatsCmd())
	cmd.AddCommand(newCachePruneCmd())
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number and size of cached documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := openExistingCache(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "path:    %s\n", stats.Path)
			fmt.Fprintf(out, "entries: %s\n", humanize.Comma(stats.Entries))
			fmt.Fprintf(out, "size:    %s\n", humanize.Bytes(uint64(max(stats.Bytes, 0))))
			if stats.Entries > 0 {
				fmt.Fprintf(out, "oldest:  %s (%s)\n", stats.Oldest.Format(time.RFC3339), humanize.Time(stats.Oldest))
				fmt.Fprintf(out, "newest:  %s (%s)\n", stats.Newest.Format(time.RFC3339), humanize.Time(stats.Newest))
			}
			return nil
		},
	}
}

func newCachePruneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove cache entries not used recently",
		Long: `Prune removes cached documents that have not been used within the given
age. Use --all to empty the cache.

Examples:
  # Remove entries unused for 30 days
  mdtidy cache prune

  # Remove entries unused for a week
  mdtidy cache prune --older-than 168h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			olderThan, err := cmd.Flags().GetDuration("older-than")
			if err != nil {
				return err
			}
			all, err := cmd.Flags().GetBool("all")
			if err != nil {
				return err
			}
			if all {
				olderThan = 0
			}

			c, err := openExistingCache(cmd)
			if err != nil {
				return err
			}
			defer c.Close()

			removed, err := c.Prune(cmd.Context(), olderThan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", removed)
			return nil
		},
	}
	cmd.Flags().Duration("older-than", defaultPruneAge, "Remove entries unused for longer than this")
	cmd.Flags().Bool("all", false, "Remove every entry")
	return cmd
}

// openExistingCache opens the cache database without creating it.
func openExistingCache(cmd *cobra.Command) (*cache.Cache, error) {
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	return cache.Open(dir, cache.Options{EnableWAL: true})
}
