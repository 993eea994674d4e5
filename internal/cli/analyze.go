package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SakuraCase/perchwork-sub001/internal/config"
	"github.com/SakuraCase/perchwork-sub001/internal/indexer"
	"github.com/SakuraCase/perchwork-sub001/internal/store"
)

func newAnalyzeCmd() *cobra.Command {
	var files string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a full or changed-files-only analysis",
		Long: `Analyze the configured target tree and write JSON artifacts.

Without --files the whole tree is re-analyzed. With --files only the named
files go through extraction again; items from unchanged files are taken
from the snapshot store, and the call graph is re-linked globally.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			snap, err := store.Open(cfg.SnapshotDir)
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
			defer snap.Close()

			drv := indexer.New(indexer.Config{
				Cfg:      cfg,
				Snapshot: snap,
				Verbose:  verbose,
			})

			var stats *indexer.RunStats
			if files == "" {
				stats, err = drv.RunFull(cmd.Context())
			} else {
				changed := strings.Split(files, ",")
				for i := range changed {
					changed[i] = strings.TrimSpace(changed[i])
				}
				stats, err = drv.RunIncremental(cmd.Context(), changed)
			}
			if err != nil {
				return err
			}

			printStats(cmd, stats)
			return nil
		},
	}

	cmd.Flags().StringVar(&files, "files", "", "comma-separated changed files (relative to target_dir)")

	return cmd
}

func printStats(cmd *cobra.Command, stats *indexer.RunStats) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Files:      %d\n", stats.Files)
	fmt.Fprintf(out, "Items:      %d\n", stats.Items)
	fmt.Fprintf(out, "Tests:      %d\n", stats.Tests)
	fmt.Fprintf(out, "Resolved:   %d\n", stats.Resolved)
	fmt.Fprintf(out, "Unresolved: %d\n", stats.Unresolved)
	fmt.Fprintf(out, "Dropped:    %d\n", stats.Dropped)
	fmt.Fprintf(out, "Rate:       %.1f%%\n", stats.Rate*100)
	if len(stats.Errors) > 0 {
		fmt.Fprintf(out, "Errors:     %d\n", len(stats.Errors))
		if verbose {
			for _, e := range stats.Errors {
				fmt.Fprintf(out, "  %s\n", e)
			}
		}
	}
}
