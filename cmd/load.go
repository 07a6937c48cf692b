package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ecomenu/internal/dataset"
)

const previewRows = 5

var loadStrict bool

var loadCmd = &cobra.Command{
	Use:   "load [file]",
	Short: "Load the dataset and print a cleaning summary with a preview",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTable(args)
		if err != nil {
			if loadStrict {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "✗ Error:", err)
			return nil
		}
		printLoadSummary(cmd.OutOrStdout(), t)
		printWarnings(cmd.ErrOrStderr(), t)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().BoolVar(&loadStrict, "strict", false, "exit with an error when the dataset cannot be loaded")
}

func printLoadSummary(w io.Writer, t *dataset.Table) {
	fmt.Fprintf(w, "✓ Loaded %s\n", t.Source)
	fmt.Fprintf(w, "Raw: %d rows x %d columns\n", t.RawRows, t.RawColumns)
	fmt.Fprintf(w, "Cleaned: %d rows x %d columns", t.Len(), len(t.Columns))
	if t.Dropped > 0 {
		fmt.Fprintf(w, " (%d rows without a product name dropped)", t.Dropped)
	}
	fmt.Fprintln(w)
	headers := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		headers = append(headers, t.Header(c))
	}
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(headers, ", "))
	if len(t.Missing) > 0 {
		fmt.Fprintf(w, "Missing columns: %s\n", strings.Join(t.MissingHeaders(), ", "))
	}
	if t.Len() == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, previewTable(t, previewRows))
}

func previewTable(t *dataset.Table, n int) string {
	headers := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		headers = append(headers, c.Key())
	}
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
	for _, p := range t.Head(n) {
		row := make([]string, 0, len(t.Columns))
		for _, c := range t.Columns {
			row = append(row, p.Field(c))
		}
		tbl.Row(row...)
	}
	return tbl.String()
}
