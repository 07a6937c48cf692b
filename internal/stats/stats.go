// Package stats computes descriptive statistics over a loaded dataset.
// Every function recomputes from the table it is given; nothing is cached.
package stats

import (
	"math"
	"sort"

	"github.com/KaramelBytes/ecomenu/internal/dataset"
)

// DefaultTopN is used when a non-positive n is passed to Top.
const DefaultTopN = 10

// GlobalStats summarises all non-missing climate impacts.
type GlobalStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P25    float64 `json:"p25"`
	P75    float64 `json:"p75"`
}

// Empty reports whether no impact value was available.
func (g GlobalStats) Empty() bool { return g.Count == 0 }

// Global computes mean, median, sample standard deviation, min, max and
// quartiles, each rounded to 2 decimals. With no values every field is NaN.
func Global(t *dataset.Table) GlobalStats {
	return Describe(t.Impacts())
}

// Describe is Global over a raw slice. vals is not modified.
func Describe(vals []float64) GlobalStats {
	nan := math.NaN()
	if len(vals) == 0 {
		return GlobalStats{Mean: nan, Median: nan, StdDev: nan, Min: nan, Max: nan, P25: nan, P75: nan}
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mean := Mean(sorted)
	std := nan
	if len(sorted) > 1 {
		ss := 0.0
		for _, v := range sorted {
			d := v - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(len(sorted)-1))
	}
	return GlobalStats{
		Count:  len(sorted),
		Mean:   Round2(mean),
		Median: Round2(quantile(sorted, 0.5)),
		StdDev: Round2(std),
		Min:    Round2(sorted[0]),
		Max:    Round2(sorted[len(sorted)-1]),
		P25:    Round2(quantile(sorted, 0.25)),
		P75:    Round2(quantile(sorted, 0.75)),
	}
}

// Mean is the unrounded arithmetic mean, NaN for no values.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// Round2 rounds half away from zero to 2 decimals. NaN passes through.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.Round(x*100) / 100
}

// quantile uses linear interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// By selects the grouping key of Groups.
type By int

const (
	ByGroup By = iota
	ByGroupSubgroup
)

// ParseBy maps "group" and "subgroup" to a By value.
func ParseBy(s string) (By, bool) {
	switch s {
	case "", "group":
		return ByGroup, true
	case "subgroup", "group-subgroup":
		return ByGroupSubgroup, true
	}
	return ByGroup, false
}

// GroupStats aggregates impacts of one group (and subgroup when grouped by both).
type GroupStats struct {
	Group    string  `json:"group"`
	Subgroup string  `json:"subgroup,omitempty"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Label is the display key, "group / subgroup" when a subgroup is set.
func (g GroupStats) Label() string {
	if g.Subgroup == "" {
		return g.Group
	}
	return g.Group + " / " + g.Subgroup
}

// Groups aggregates non-missing impacts per key. Groups appear in first
// appearance order before a stable sort by mean descending, so ties keep
// file order. Keys whose rows all lack an impact are omitted; an empty label
// is a group of its own.
func Groups(t *dataset.Table, by By) []GroupStats {
	type key struct{ g, s string }
	idx := map[key]int{}
	var out []GroupStats
	var sums []float64
	if t != nil {
		for _, p := range t.Products {
			v, ok := p.Impact()
			if !ok {
				continue
			}
			k := key{g: p.FoodGroup}
			if by == ByGroupSubgroup {
				k.s = p.FoodSubgroup
			}
			i, seen := idx[k]
			if !seen {
				i = len(out)
				idx[k] = i
				out = append(out, GroupStats{Group: k.g, Subgroup: k.s, Min: v, Max: v})
				sums = append(sums, 0)
			}
			g := &out[i]
			g.Count++
			sums[i] += v
			if v < g.Min {
				g.Min = v
			}
			if v > g.Max {
				g.Max = v
			}
		}
	}
	for i := range out {
		out[i].Mean = sums[i] / float64(out[i].Count)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out
}

// Extremes holds the highest and lowest impact products.
type Extremes struct {
	Highest []dataset.Product
	Lowest  []dataset.Product
}

// Top returns the n highest and n lowest impact products. Products without
// an impact are excluded. n <= 0 means DefaultTopN.
func Top(t *dataset.Table, n int) Extremes {
	if n <= 0 {
		n = DefaultTopN
	}
	var with []dataset.Product
	if t != nil {
		for _, p := range t.Products {
			if _, ok := p.Impact(); ok {
				with = append(with, p)
			}
		}
	}
	asc := append([]dataset.Product(nil), with...)
	dataset.SortByImpact(asc)
	desc := append([]dataset.Product(nil), with...)
	sort.SliceStable(desc, func(i, j int) bool {
		a, _ := desc[i].Impact()
		b, _ := desc[j].Impact()
		return a > b
	})
	if n > len(with) {
		n = len(with)
	}
	return Extremes{Highest: desc[:n], Lowest: asc[:n]}
}

// Overview is the headline shown above product search.
type Overview struct {
	Products   int
	MeanImpact float64 // NaN when no product has an impact
	FoodGroups int
}

// HasMean reports whether MeanImpact is defined.
func (o Overview) HasMean() bool { return !math.IsNaN(o.MeanImpact) }

// Summarize counts products and food groups and averages their impacts.
func Summarize(t *dataset.Table) Overview {
	return Overview{
		Products:   t.Len(),
		MeanImpact: Global(t).Mean,
		FoodGroups: len(t.FoodGroups()),
	}
}
