package dataset

import "fmt"

// Column identifies one field of the allow-list projected by the loader.
type Column int

const (
	ColName Column = iota
	ColFoodGroup
	ColFoodSubgroup
	ColClimateImpact
	ColDataQuality
	ColSeasonCode
	ColAirTransportCode
)

// AllColumns is the allow-list, in projection order.
var AllColumns = []Column{
	ColName,
	ColFoodGroup,
	ColFoodSubgroup,
	ColClimateImpact,
	ColDataQuality,
	ColSeasonCode,
	ColAirTransportCode,
}

// Default headers of the AGRIBALYSE synthesis export.
var defaultHeaders = map[Column]string{
	ColName:             "Nom du Produit en Français",
	ColFoodGroup:        "Groupe d'aliment",
	ColFoodSubgroup:     "Sous-groupe d'aliment",
	ColClimateImpact:    "Changement climatique",
	ColDataQuality:      "DQR",
	ColSeasonCode:       "code saison",
	ColAirTransportCode: "code avion",
}

var columnKeys = map[Column]string{
	ColName:             "name",
	ColFoodGroup:        "food_group",
	ColFoodSubgroup:     "food_subgroup",
	ColClimateImpact:    "climate_impact",
	ColDataQuality:      "data_quality",
	ColSeasonCode:       "season_code",
	ColAirTransportCode: "air_transport_code",
}

// Key returns the configuration key of the column (e.g. "climate_impact").
func (c Column) Key() string {
	if k, ok := columnKeys[c]; ok {
		return k
	}
	return fmt.Sprintf("column(%d)", int(c))
}

// DefaultHeader returns the header used by the reference dataset.
func (c Column) DefaultHeader() string { return defaultHeaders[c] }

func (c Column) String() string { return c.Key() }

// ColumnByKey resolves a configuration key to a Column.
func ColumnByKey(key string) (Column, bool) {
	for c, k := range columnKeys {
		if k == key {
			return c, true
		}
	}
	return 0, false
}

// Product is one row of the dataset after projection.
type Product struct {
	Name             string
	FoodGroup        string
	FoodSubgroup     string
	ClimateImpact    *float64 // kg CO2-eq per kg; nil when missing
	DataQuality      *float64
	SeasonCode       string
	AirTransportCode string
}

// Impact returns the climate impact and whether it is present.
func (p Product) Impact() (float64, bool) {
	if p.ClimateImpact == nil {
		return 0, false
	}
	return *p.ClimateImpact, true
}

// ImpactText formats the impact with two decimals, or "n/a".
func (p Product) ImpactText() string {
	v, ok := p.Impact()
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// Field returns the textual value of a column, used for previews.
func (p Product) Field(c Column) string {
	switch c {
	case ColName:
		return p.Name
	case ColFoodGroup:
		return p.FoodGroup
	case ColFoodSubgroup:
		return p.FoodSubgroup
	case ColClimateImpact:
		if p.ClimateImpact == nil {
			return ""
		}
		return fmt.Sprintf("%.4g", *p.ClimateImpact)
	case ColDataQuality:
		if p.DataQuality == nil {
			return ""
		}
		return fmt.Sprintf("%.4g", *p.DataQuality)
	case ColSeasonCode:
		return p.SeasonCode
	case ColAirTransportCode:
		return p.AirTransportCode
	}
	return ""
}

// Table is the loaded, filtered and projected dataset. It is never mutated
// after Load returns; derived views are new slices.
type Table struct {
	Source     string
	Products   []Product
	Columns    []Column // allow-list columns present in the file
	Missing    []Column // allow-list columns absent from the file
	Headers    map[Column]string
	RawRows    int
	RawColumns int
	Dropped    int // rows without a product name
	Warnings   []string
}

// Len returns the number of products.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Products)
}

// Has reports whether the column was present in the source file.
func (t *Table) Has(c Column) bool {
	for _, x := range t.Columns {
		if x == c {
			return true
		}
	}
	return false
}

// Header returns the header name the column was read from.
func (t *Table) Header(c Column) string {
	if h, ok := t.Headers[c]; ok && h != "" {
		return h
	}
	return c.DefaultHeader()
}

// MissingHeaders returns the header names of missing columns.
func (t *Table) MissingHeaders() []string {
	out := make([]string, 0, len(t.Missing))
	for _, c := range t.Missing {
		out = append(out, t.Header(c))
	}
	return out
}

// Filter returns the products matching pred, in table order.
func (t *Table) Filter(pred func(Product) bool) []Product {
	if t == nil {
		return nil
	}
	var out []Product
	for _, p := range t.Products {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

// Impacts returns the non-nil climate impacts in table order.
func (t *Table) Impacts() []float64 {
	if t == nil {
		return nil
	}
	out := make([]float64, 0, len(t.Products))
	for _, p := range t.Products {
		if v, ok := p.Impact(); ok {
			out = append(out, v)
		}
	}
	return out
}

// FoodGroups returns the distinct non-empty food groups in first-appearance order.
func (t *Table) FoodGroups() []string {
	if t == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, p := range t.Products {
		if p.FoodGroup == "" || seen[p.FoodGroup] {
			continue
		}
		seen[p.FoodGroup] = true
		out = append(out, p.FoodGroup)
	}
	return out
}

// Head returns at most n products from the start of the table.
func (t *Table) Head(n int) []Product {
	if t == nil || n <= 0 {
		return nil
	}
	if n > len(t.Products) {
		n = len(t.Products)
	}
	return t.Products[:n:n]
}
