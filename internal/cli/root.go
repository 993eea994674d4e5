// Package cli implements the command-line interface for perchwork.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "perchwork",
	Short: "perchwork - structural index and call graph extractor for Rust source trees",
	Long: `perchwork parses a Rust source tree with tree-sitter and produces a
structural index (functions, methods, structs, enums, traits, tests) plus a
best-effort static call graph, written as JSON artifacts for downstream
rendering.

Commands:
  init       Write a starter perchwork.yaml config file
  analyze    Run a full or changed-files-only analysis
  watch      Watch the target tree and re-analyze on change
  status     Show stats from the last analysis run
  registry   Dump the type registry from the last run`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "perchwork.yaml", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRegistryCmd())
}
