package stats

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/ecomenu/internal/dataset"
)

// Report is a markdown-friendly analysis of a loaded dataset.
type Report struct {
	Name       string
	RawRows    int
	RawColumns int
	Rows       int
	Dropped    int
	Columns    []string
	Missing    []string
	Global     GlobalStats
	By         By
	Groups     []GroupStats
	Extremes   Extremes
	Samples    []dataset.Product
	Warnings   []string
}

// SampleRows is the number of head rows included in a report.
const SampleRows = 5

// BuildReport gathers load metadata and fresh statistics for t.
func BuildReport(t *dataset.Table, topN int, by By) *Report {
	r := &Report{
		Name:       filepath.Base(t.Source),
		RawRows:    t.RawRows,
		RawColumns: t.RawColumns,
		Rows:       t.Len(),
		Dropped:    t.Dropped,
		Missing:    t.MissingHeaders(),
		Global:     Global(t),
		By:         by,
		Groups:     Groups(t, by),
		Extremes:   Top(t, topN),
		Samples:    t.Head(SampleRows),
		Warnings:   append([]string(nil), t.Warnings...),
	}
	for _, c := range t.Columns {
		r.Columns = append(r.Columns, t.Header(c))
	}
	if r.Global.Empty() {
		r.Warnings = append(r.Warnings, "no climate impact values available; statistics are undefined")
	}
	return r
}

// Markdown renders the report in bracketed sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" && r.Name != "." {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Raw: %d rows x %d columns\n", r.RawRows, r.RawColumns))
	b.WriteString(fmt.Sprintf("Cleaned: %d rows x %d columns", r.Rows, len(r.Columns)))
	if r.Dropped > 0 {
		b.WriteString(fmt.Sprintf(" (%d rows without a product name dropped)", r.Dropped))
	}
	b.WriteString("\n")
	if len(r.Columns) > 0 {
		b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(r.Columns, ", ")))
	}
	if len(r.Missing) > 0 {
		b.WriteString(fmt.Sprintf("Missing columns: %s\n", strings.Join(r.Missing, ", ")))
	}

	b.WriteString("\n[GLOBAL STATISTICS] (kg CO2-eq/kg)\n")
	g := r.Global
	if g.Empty() {
		b.WriteString("- no values\n")
	} else {
		b.WriteString(fmt.Sprintf("- count %d\n", g.Count))
		b.WriteString(fmt.Sprintf("- mean %s, median %s, std %s\n", num(g.Mean), num(g.Median), num(g.StdDev)))
		b.WriteString(fmt.Sprintf("- min %s, p25 %s, p75 %s, max %s\n", num(g.Min), num(g.P25), num(g.P75), num(g.Max)))
	}

	if len(r.Groups) > 0 {
		title := "food group"
		if r.By == ByGroupSubgroup {
			title = "food group / subgroup"
		}
		b.WriteString(fmt.Sprintf("\n[GROUP SUMMARY] by %s, mean descending\n", title))
		b.WriteString("| Group | n | mean | min | max |\n")
		b.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, gs := range r.Groups {
			b.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.2f | %.2f |\n", safeVal(label(gs)), gs.Count, gs.Mean, gs.Min, gs.Max))
		}
	}

	writeProducts := func(title string, ps []dataset.Product) {
		if len(ps) == 0 {
			return
		}
		b.WriteString(fmt.Sprintf("\n[%s]\n", title))
		for i, p := range ps {
			b.WriteString(fmt.Sprintf("%d. %s (%s): %s kg CO2\n", i+1, safeVal(p.Name), safeVal(groupOrDash(p.FoodGroup)), p.ImpactText()))
		}
	}
	writeProducts("LOWEST IMPACT", r.Extremes.Lowest)
	writeProducts("HIGHEST IMPACT", r.Extremes.Highest)

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| Name | Group | Subgroup | Impact |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		for _, p := range r.Samples {
			name := p.Name
			if len([]rune(name)) > 80 {
				name = string([]rune(name)[:77]) + "..."
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n", safeVal(name), safeVal(p.FoodGroup), safeVal(p.FoodSubgroup), p.ImpactText()))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func label(g GroupStats) string {
	if g.Group == "" && g.Subgroup == "" {
		return "-"
	}
	return g.Label()
}

func groupOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func num(x float64) string {
	if math.IsNaN(x) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", x)
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
