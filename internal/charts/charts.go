package charts

import (
	"fmt"

	"github.com/KaramelBytes/ecomenu/internal/dataset"
	"github.com/KaramelBytes/ecomenu/internal/stats"
)

const (
	ColorGreen = "#2ecc71"
	ColorRed   = "#e74c3c"

	HistogramBins = 50
	ExtremesLimit = 10
)

// Names of the figures exposed over the JSON API and written by analyze.
const (
	NameGroups       = "groups"
	NameSubgroups    = "subgroups"
	NameDistribution = "distribution"
	NameExtremes     = "extremes"
	NameSunburst     = "sunburst"
)

// Names lists every figure name in display order.
var Names = []string{NameGroups, NameDistribution, NameExtremes, NameSunburst, NameSubgroups}

// GroupImpactBar draws the mean impact per food group as horizontal bars,
// largest at the top.
func GroupImpactBar(rows []stats.GroupStats) *Figure {
	fig := newFigure("Average climate impact by food group", 500)
	fig.Layout.ShowLegend = boolPtr(false)
	fig.Layout.XAxis = &Axis{Title: "kg CO2-eq/kg"}
	fig.Layout.YAxis = &Axis{CategoryOrder: "total ascending"}
	if len(rows) == 0 {
		return fig
	}
	fig.Data = append(fig.Data, meanBar(rows, func(g stats.GroupStats) string { return g.Group }))
	return fig
}

// SubgroupBar is GroupImpactBar keyed by "group / subgroup".
func SubgroupBar(rows []stats.GroupStats) *Figure {
	fig := newFigure("Average climate impact by food subgroup", 500)
	fig.Layout.ShowLegend = boolPtr(false)
	fig.Layout.XAxis = &Axis{Title: "kg CO2-eq/kg"}
	fig.Layout.YAxis = &Axis{CategoryOrder: "total ascending"}
	if len(rows) == 0 {
		return fig
	}
	fig.Data = append(fig.Data, meanBar(rows, stats.GroupStats.Label))
	return fig
}

func meanBar(rows []stats.GroupStats, key func(stats.GroupStats) string) Trace {
	x := make([]float64, len(rows))
	y := make([]string, len(rows))
	for i, g := range rows {
		x[i] = stats.Round2(g.Mean)
		y[i] = key(g)
	}
	return Trace{
		Type:          "bar",
		Orientation:   "h",
		X:             x,
		Y:             y,
		HoverTemplate: "%{y}: %{x:.2f} kg CO2<extra></extra>",
		Marker:        &Marker{Color: x, ColorScale: "Reds", ShowScale: true},
	}
}

// DistributionHistogram bins impacts and marks the mean with a dashed line.
func DistributionHistogram(values []float64) *Figure {
	fig := newFigure("Distribution of climate impact", 400)
	fig.Layout.XAxis = &Axis{Title: "kg CO2-eq/kg"}
	fig.Layout.YAxis = &Axis{Title: "products"}
	if len(values) == 0 {
		return fig
	}
	mean := stats.Mean(values)
	fig.Data = append(fig.Data, Trace{
		Type:   "histogram",
		X:      append([]float64(nil), values...),
		NBinsX: HistogramBins,
		Marker: &Marker{Color: ColorGreen},
	})
	fig.Layout.Shapes = []Shape{{
		Type: "line", XRef: "x", YRef: "paper",
		X0: mean, X1: mean, Y0: 0, Y1: 1,
		Line: Line{Color: "red", Dash: "dash", Width: 2},
	}}
	fig.Layout.Annotations = []Annotation{{
		Text: fmt.Sprintf("Mean: %.2f kg", mean),
		X:    mean, Y: 1, XRef: "x", YRef: "paper",
		XAnchor: "left", YAnchor: "bottom",
	}}
	return fig
}

// ExtremesBar contrasts the greenest ("Champion") and most polluting
// ("Polluter") products, at most ExtremesLimit of each.
func ExtremesBar(lowest, highest []dataset.Product) *Figure {
	fig := newFigure("Champions vs polluters", 600)
	fig.Layout.BarMode = "group"
	fig.Layout.XAxis = &Axis{Title: "kg CO2-eq/kg"}
	fig.Layout.YAxis = &Axis{CategoryOrder: "total ascending"}
	if t, ok := productBar("Champion", ColorGreen, lowest); ok {
		fig.Data = append(fig.Data, t)
	}
	if t, ok := productBar("Polluter", ColorRed, highest); ok {
		fig.Data = append(fig.Data, t)
	}
	return fig
}

func productBar(name, color string, ps []dataset.Product) (Trace, bool) {
	var x []float64
	var y []string
	for _, p := range ps {
		if len(x) == ExtremesLimit {
			break
		}
		v, ok := p.Impact()
		if !ok {
			continue
		}
		x = append(x, stats.Round2(v))
		y = append(y, p.Name)
	}
	if len(x) == 0 {
		return Trace{}, false
	}
	return Trace{Type: "bar", Name: name, Orientation: "h", X: x, Y: y, Marker: &Marker{Color: color}}, true
}

// SubgroupSunburst nests subgroups under their food group. Leaf values are
// subgroup means; a group's value is the total of its children.
func SubgroupSunburst(rows []stats.GroupStats) *Figure {
	fig := newFigure("Impact hierarchy: group / subgroup", 600)
	if len(rows) == 0 {
		return fig
	}
	t := Trace{Type: "sunburst", BranchValues: "total"}
	groupIdx := map[string]int{}
	var colors []float64
	for _, r := range rows {
		gid := "g:" + r.Group
		i, ok := groupIdx[gid]
		if !ok {
			i = len(t.IDs)
			groupIdx[gid] = i
			t.IDs = append(t.IDs, gid)
			t.Labels = append(t.Labels, displayLabel(r.Group))
			t.Parents = append(t.Parents, "")
			t.Values = append(t.Values, 0)
			colors = append(colors, 0)
		}
		mean := stats.Round2(r.Mean)
		t.Values[i] = stats.Round2(t.Values[i] + mean)
		if mean > colors[i] {
			colors[i] = mean
		}
		t.IDs = append(t.IDs, gid+"/s:"+r.Subgroup)
		t.Labels = append(t.Labels, displayLabel(r.Subgroup))
		t.Parents = append(t.Parents, gid)
		t.Values = append(t.Values, mean)
		colors = append(colors, mean)
	}
	t.Marker = &Marker{Color: colors, ColorScale: RdYlGnReversed, ShowScale: true}
	fig.Data = append(fig.Data, t)
	return fig
}

func displayLabel(s string) string {
	if s == "" {
		return "(unlabelled)"
	}
	return s
}

// All builds every figure for t, keyed by name.
func All(t *dataset.Table) map[string]*Figure {
	groups := stats.Groups(t, stats.ByGroup)
	subgroups := stats.Groups(t, stats.ByGroupSubgroup)
	ex := stats.Top(t, ExtremesLimit)
	return map[string]*Figure{
		NameGroups:       GroupImpactBar(groups),
		NameSubgroups:    SubgroupBar(subgroups),
		NameDistribution: DistributionHistogram(t.Impacts()),
		NameExtremes:     ExtremesBar(ex.Lowest, ex.Highest),
		NameSunburst:     SubgroupSunburst(subgroups),
	}
}

// Build returns the named figure for t.
func Build(t *dataset.Table, name string) (*Figure, error) {
	switch name {
	case NameGroups:
		return GroupImpactBar(stats.Groups(t, stats.ByGroup)), nil
	case NameSubgroups:
		return SubgroupBar(stats.Groups(t, stats.ByGroupSubgroup)), nil
	case NameDistribution:
		return DistributionHistogram(t.Impacts()), nil
	case NameExtremes:
		ex := stats.Top(t, ExtremesLimit)
		return ExtremesBar(ex.Lowest, ex.Highest), nil
	case NameSunburst:
		return SubgroupSunburst(stats.Groups(t, stats.ByGroupSubgroup)), nil
	}
	return nil, fmt.Errorf("unknown chart %q (available: %v)", name, Names)
}
