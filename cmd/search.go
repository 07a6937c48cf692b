package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/ecomenu/internal/dataset"
	"github.com/KaramelBytes/ecomenu/internal/utils"
)

var (
	searchLimit int
	searchJSON  bool
)

type searchResult struct {
	Name          string   `json:"name"`
	FoodGroup     string   `json:"food_group"`
	FoodSubgroup  string   `json:"food_subgroup"`
	ClimateImpact *float64 `json:"climate_impact"`
	Level         string   `json:"level,omitempty"`
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find products by name, from the lowest to the highest impact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.TrimSpace(strings.Join(args, " "))
		if query == "" {
			return fmt.Errorf("query cannot be empty")
		}
		t, err := loadTable(nil)
		if err != nil {
			return err
		}
		results := t.Search(query)
		total := len(results)
		rec := dataset.Recommend(results)
		if searchLimit > 0 && len(results) > searchLimit {
			results = results[:searchLimit]
		}
		out := cmd.OutOrStdout()

		if searchJSON {
			rows := make([]searchResult, 0, len(results))
			for _, p := range results {
				r := searchResult{Name: p.Name, FoodGroup: p.FoodGroup, FoodSubgroup: p.FoodSubgroup, ClimateImpact: p.ClimateImpact}
				if v, ok := p.Impact(); ok {
					r.Level = string(dataset.ImpactLevel(v))
				}
				rows = append(rows, r)
			}
			b, err := utils.PrettyJSON(rows)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}

		if total == 0 {
			fmt.Fprintf(out, "No product found for '%s'\n", query)
			return nil
		}
		fmt.Fprintf(out, "%d products match '%s'", total, query)
		if total > len(results) {
			fmt.Fprintf(out, " (showing the %d lowest impacts)", len(results))
		}
		fmt.Fprintln(out)
		for _, p := range results {
			level := "-"
			if v, ok := p.Impact(); ok {
				level = string(dataset.ImpactLevel(v))
			}
			fmt.Fprintf(out, "  %8s kg CO2  %-6s  %s (%s)\n", p.ImpactText(), level, p.Name, p.FoodGroup)
		}
		if rec != nil {
			fmt.Fprintf(out, "\n💡 Choose %s (%s kg CO2) instead of %s (%s kg CO2) and save %.2f kg CO2-eq per kg.\n",
				rec.Greener.Name, rec.Greener.ImpactText(), rec.Polluter.Name, rec.Polluter.ImpactText(), rec.Savings)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum number of results to print (0 for all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
}
