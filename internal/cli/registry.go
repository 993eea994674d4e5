package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/SakuraCase/perchwork-sub001/internal/config"
	"github.com/SakuraCase/perchwork-sub001/internal/indexer"
	"github.com/SakuraCase/perchwork-sub001/internal/registry"
)

func newRegistryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "registry",
		Short: "Dump the type registry from the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var dump registry.Dump
			if err := readDoc(filepath.Join(cfg.OutputDir, indexer.RegistryFile), &dump); err != nil {
				if os.IsNotExist(err) {
					fmt.Fprintln(out, "No registry dump found. Run 'perchwork analyze' first.")
					return nil
				}
				return fmt.Errorf("read registry dump: %w", err)
			}

			fmt.Fprintln(out, titleStyle.Render("field types"))
			for _, e := range dump.FieldTypes {
				fmt.Fprintf(out, "  %s.%s: %s\n", e.Type, e.Member, e.Result)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, titleStyle.Render("return types"))
			for _, e := range dump.ReturnTypes {
				fmt.Fprintf(out, "  %s::%s -> %s\n", e.Type, e.Member, e.Result)
			}
			return nil
		},
	}
}
