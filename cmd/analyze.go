package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ecomenu/internal/charts"
	"github.com/KaramelBytes/ecomenu/internal/stats"
	"github.com/KaramelBytes/ecomenu/internal/utils"
)

var (
	anaTopN      int
	anaBy        string
	anaOutput    string
	anaChartsDir string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Summarize climate impacts: global statistics, food groups and extremes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		by, ok := stats.ParseBy(anaBy)
		if !ok {
			return fmt.Errorf("unsupported --by: %s (use group|subgroup)", anaBy)
		}
		t, err := loadTable(args)
		if err != nil {
			return err
		}
		printWarnings(cmd.ErrOrStderr(), t)
		top := anaTopN
		if top <= 0 {
			top = cfg.TopN
		}
		md := stats.BuildReport(t, top, by).Markdown()

		if anaOutput != "" {
			if err := utils.SafeWriteFile(anaOutput, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote analysis to %s\n", anaOutput)
		} else {
			fmt.Fprint(cmd.OutOrStdout(), md)
		}

		if anaChartsDir != "" {
			if err := utils.EnsureDir(anaChartsDir); err != nil {
				return fmt.Errorf("create charts dir: %w", err)
			}
			figs := charts.All(t)
			for _, name := range charts.Names {
				fig := figs[name]
				if fig == nil || fig.Empty() {
					fmt.Fprintf(cmd.ErrOrStderr(), "⚠ Warning: chart %s has no data, skipped\n", name)
					continue
				}
				b, err := fig.JSON()
				if err != nil {
					return fmt.Errorf("encode chart %s: %w", name, err)
				}
				path := filepath.Join(anaChartsDir, name+".json")
				if err := utils.SafeWriteFile(path, b); err != nil {
					return fmt.Errorf("write chart %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote chart %s\n", path)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().IntVar(&anaTopN, "top", 0, "number of lowest/highest products to list (default top_n)")
	analyzeCmd.Flags().StringVar(&anaBy, "by", "group", "group statistics by: group|subgroup")
	analyzeCmd.Flags().StringVarP(&anaOutput, "output", "o", "", "write the Markdown report to a file instead of stdout")
	analyzeCmd.Flags().StringVar(&anaChartsDir, "charts-dir", "", "also write Plotly JSON figures to this directory")
}
