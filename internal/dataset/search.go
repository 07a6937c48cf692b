package dataset

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Fold returns the case-folded form of s used for all name matching.
// cases.Caser is stateful, so a new one is created per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Search returns the products whose name contains query, ordered from the
// lowest to the highest impact. Products without an impact come last.
func (t *Table) Search(query string) []Product {
	q := strings.TrimSpace(query)
	if q == "" || t == nil {
		return nil
	}
	fq := Fold(q)
	out := t.Filter(func(p Product) bool {
		return strings.Contains(Fold(p.Name), fq)
	})
	SortByImpact(out)
	return out
}

// SortByImpact stable-sorts products ascending by impact, nil impacts last.
func SortByImpact(ps []Product) {
	sort.SliceStable(ps, func(i, j int) bool {
		a, aok := ps[i].Impact()
		b, bok := ps[j].Impact()
		switch {
		case aok && bok:
			return a < b
		case aok:
			return true
		default:
			return false
		}
	})
}

// Level classifies a climate impact for display.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ImpactLevel buckets an impact in kg CO2-eq/kg: < 2 low, < 6 medium.
func ImpactLevel(v float64) Level {
	switch {
	case v < 2:
		return LevelLow
	case v < 6:
		return LevelMedium
	default:
		return LevelHigh
	}
}

// Recommendation suggests swapping the most polluting search result for the
// greenest one.
type Recommendation struct {
	Greener  Product
	Polluter Product
	Savings  float64
}

// Recommend compares the first and last results with an impact. results must
// be ordered as Search returns them. It returns nil when no saving exists.
func Recommend(results []Product) *Recommendation {
	var withImpact []Product
	for _, p := range results {
		if _, ok := p.Impact(); ok {
			withImpact = append(withImpact, p)
		}
	}
	if len(withImpact) < 2 {
		return nil
	}
	first, last := withImpact[0], withImpact[len(withImpact)-1]
	lo, _ := first.Impact()
	hi, _ := last.Impact()
	if hi <= lo {
		return nil
	}
	return &Recommendation{Greener: first, Polluter: last, Savings: hi - lo}
}
