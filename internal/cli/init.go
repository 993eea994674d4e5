package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/SakuraCase/perchwork-sub001/internal/config"
)

func newInitCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter perchwork.yaml config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(cfgFile); err == nil {
				return fmt.Errorf("%s already exists", cfgFile)
			}

			cfg := &config.Config{
				TargetDir:   target,
				Extensions:  []string{".rs"},
				Exclude:     []string{"**/target/**", "**/.git/**"},
				OutputDir:   "perchwork-out",
				SnapshotDir: "perchwork-out/snapshots",
			}
			if err := config.WriteConfig(cfg, cfgFile); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created %s\n", cfgFile)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Next steps:")
			fmt.Fprintf(out, "  1. Point target_dir at the Rust source tree to analyze\n")
			fmt.Fprintf(out, "  2. Run 'perchwork analyze'\n")
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", ".", "source tree to analyze")

	return cmd
}
