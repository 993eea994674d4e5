package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/SakuraCase/perchwork-sub001/internal/config"
	"github.com/SakuraCase/perchwork-sub001/internal/graph"
	"github.com/SakuraCase/perchwork-sub001/internal/indexer"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Faint(true).Width(18)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show stats from the last analysis run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var idx graph.IndexDoc
			if err := readDoc(filepath.Join(cfg.OutputDir, indexer.IndexFile), &idx); err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(out, "No index found. Run 'perchwork analyze' first.")
					return nil
				}
				return fmt.Errorf("read index: %w", err)
			}

			fmt.Fprintln(out, titleStyle.Render("perchwork index"))
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Target:"), idx.TargetDir)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Generated:"), idx.GeneratedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Format version:"), idx.Version)
			fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Files:"), idx.Stats.TotalFiles)
			fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Items:"), idx.Stats.TotalItems)
			fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Tests:"), idx.Stats.TotalTests)
			fmt.Fprintf(out, "%s %d\n", labelStyle.Render("Call edges:"), idx.Stats.TotalEdges)

			var unres graph.UnresolvedSummary
			if err := readDoc(filepath.Join(cfg.OutputDir, indexer.UnresolvedFile), &unres); err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return fmt.Errorf("read unresolved summary: %w", err)
			}

			fmt.Fprintln(out)
			fmt.Fprintln(out, titleStyle.Render("resolution"))
			fmt.Fprintf(out, "%s %.1f%%\n", labelStyle.Render("Rate:"), unres.ResolutionRate*100)
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Unresolved:"),
				warnStyle.Render(fmt.Sprintf("%d", unres.TotalUnresolved)))
			if len(unres.ByReason) > 0 {
				fmt.Fprintln(out, "  By reason:")
				for _, reason := range sortedKeys(unres.ByReason) {
					fmt.Fprintf(out, "    %-28s %d\n", reason, unres.ByReason[reason])
				}
			}
			return nil
		},
	}
}

func readDoc(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
