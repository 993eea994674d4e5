package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SakuraCase/perchwork-sub001/internal/config"
	"github.com/SakuraCase/perchwork-sub001/internal/indexer"
	"github.com/SakuraCase/perchwork-sub001/internal/scan"
	"github.com/SakuraCase/perchwork-sub001/internal/store"
	"github.com/SakuraCase/perchwork-sub001/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the target tree and re-analyze on change",
		Long: `Run a full analysis, then watch the target tree and run a
changed-files-only analysis for each debounced batch of file events.`,
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

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintln(cmd.OutOrStdout(), "\nShutting down...")
				cancel()
			}()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analyzing %s...\n", cfg.TargetDir)
			stats, err := drv.RunFull(ctx)
			if err != nil {
				return err
			}
			printStats(cmd, stats)

			matcher, err := scan.NewMatcher(cfg.Exclude)
			if err != nil {
				return err
			}
			w, err := watcher.New(cfg.TargetDir, cfg.Extensions, matcher)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			defer w.Close()

			batches, err := w.Start(ctx)
			if err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}

			fmt.Fprintf(out, "\nWatching %s...\n", cfg.TargetDir)
			for batch := range batches {
				fmt.Fprintf(out, "\n%d file(s) changed, re-analyzing...\n", len(batch))
				stats, err := drv.RunIncremental(ctx, batch)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "re-analysis failed: %v\n", err)
					continue
				}
				printStats(cmd, stats)
			}
			return nil
		},
	}
}
