// Package charts builds declarative Plotly figures from computed statistics.
// Builders are pure: they never fail and return a figure with no traces for
// empty input.
package charts

import (
	"encoding/json"
	"fmt"
)

// Figure is a Plotly figure: traces plus layout.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is the subset of Plotly trace attributes the builders use.
type Trace struct {
	Type          string    `json:"type"`
	Name          string    `json:"name,omitempty"`
	Orientation   string    `json:"orientation,omitempty"`
	X             []float64 `json:"x,omitempty"`
	Y             []string  `json:"y,omitempty"`
	NBinsX        int       `json:"nbinsx,omitempty"`
	IDs           []string  `json:"ids,omitempty"`
	Labels        []string  `json:"labels,omitempty"`
	Parents       []string  `json:"parents,omitempty"`
	Values        []float64 `json:"values,omitempty"`
	BranchValues  string    `json:"branchvalues,omitempty"`
	HoverTemplate string    `json:"hovertemplate,omitempty"`
	Marker        *Marker   `json:"marker,omitempty"`
}

// Marker colors a trace either with one color or a continuous scale.
type Marker struct {
	Color      any  `json:"color,omitempty"`      // string or []float64
	ColorScale any  `json:"colorscale,omitempty"` // named scale or [[stop, color], ...]
	ShowScale  bool `json:"showscale,omitempty"`
}

type Layout struct {
	Title       string       `json:"title,omitempty"`
	Height      int          `json:"height,omitempty"`
	ShowLegend  *bool        `json:"showlegend,omitempty"`
	BarMode     string       `json:"barmode,omitempty"`
	XAxis       *Axis        `json:"xaxis,omitempty"`
	YAxis       *Axis        `json:"yaxis,omitempty"`
	Shapes      []Shape      `json:"shapes,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

type Axis struct {
	Title         string `json:"title,omitempty"`
	CategoryOrder string `json:"categoryorder,omitempty"`
}

// Shape is a layout line; only vertical lines are produced.
type Shape struct {
	Type string  `json:"type"`
	XRef string  `json:"xref"`
	YRef string  `json:"yref"`
	X0   float64 `json:"x0"`
	X1   float64 `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Line Line    `json:"line"`
}

type Line struct {
	Color string `json:"color"`
	Dash  string `json:"dash,omitempty"`
	Width int    `json:"width,omitempty"`
}

type Annotation struct {
	Text      string  `json:"text"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	ShowArrow bool    `json:"showarrow"`
	XAnchor   string  `json:"xanchor,omitempty"`
	YAnchor   string  `json:"yanchor,omitempty"`
}

// JSON serialises the figure for plotly.js (Plotly.newPlot(el, fig.data, fig.layout)).
func (f *Figure) JSON() ([]byte, error) {
	if f.Data == nil {
		f.Data = []Trace{}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal figure: %w", err)
	}
	return b, nil
}

// Empty reports whether the figure has no traces.
func (f *Figure) Empty() bool { return len(f.Data) == 0 }

func newFigure(title string, height int) *Figure {
	return &Figure{Data: []Trace{}, Layout: Layout{Title: title, Height: height}}
}

// RdYlGnReversed runs from green (low) through yellow to red (high).
var RdYlGnReversed = [][]any{{0, "#1a9850"}, {0.5, "#fee08b"}, {1, "#d73027"}}

func boolPtr(b bool) *bool { return &b }
