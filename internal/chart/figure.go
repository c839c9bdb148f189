// Package chart builds Plotly figure descriptors for analysis results. The
// browser draws them; this package only decides traces and layout.
package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"dario.cat/mergo"
)

var (
	// ErrUnsupportedChart is returned for chart types without a builder.
	ErrUnsupportedChart = errors.New("unsupported chart type")
	// ErrNoData is returned when a chart has nothing finite to plot.
	ErrNoData = errors.New("no data to plot")
)

// Trace is one Plotly trace.
type Trace map[string]any

// Layout is a Plotly layout object.
type Layout map[string]any

// Figure is a complete Plotly figure: traces, layout and render config.
type Figure struct {
	Data   []Trace        `json:"data"`
	Layout Layout         `json:"layout"`
	Config map[string]any `json:"config"`
}

// Palette is the series colour cycle used on the dark theme.
var Palette = []string{
	"#4facfe", "#43e97b", "#fa709a", "#fee140",
	"#a18cd1", "#30cfd0", "#f6d365", "#ff9a9e",
}

// Color returns the i-th palette colour, cycling.
func Color(i int) string {
	return Palette[((i%len(Palette))+len(Palette))%len(Palette)]
}

// BaseLayout returns a fresh copy of the shared dark theme.
func BaseLayout() Layout {
	axis := func() map[string]any {
		return map[string]any{
			"gridcolor":     "rgba(255,255,255,0.08)",
			"zerolinecolor": "rgba(255,255,255,0.2)",
			"linecolor":     "rgba(255,255,255,0.2)",
			"tickfont":      map[string]any{"color": "#a9b1d6"},
			"automargin":    true,
		}
	}
	return Layout{
		"paper_bgcolor": "rgba(0,0,0,0)",
		"plot_bgcolor":  "rgba(0,0,0,0)",
		"font": map[string]any{
			"family": "Inter, -apple-system, sans-serif",
			"color":  "#c0caf5",
			"size":   12,
		},
		"title": map[string]any{
			"font": map[string]any{"size": 16, "color": "#e0e6ff"},
			"x":    0.02,
		},
		"margin":     map[string]any{"t": 60, "r": 30, "b": 60, "l": 60},
		"xaxis":      axis(),
		"yaxis":      axis(),
		"legend":     map[string]any{"bgcolor": "rgba(0,0,0,0)", "font": map[string]any{"color": "#a9b1d6"}},
		"hoverlabel": map[string]any{"bgcolor": "#1f2030", "bordercolor": "#7aa2f7"},
		"colorway":   Palette,
	}
}

// NewLayout deep-merges overrides into the dark theme. Nested objects such
// as axes are merged key by key; scalars and slices are replaced.
func NewLayout(overrides Layout) Layout {
	base := BaseLayout()
	if len(overrides) == 0 {
		return base
	}
	if err := mergo.Merge(&base, overrides, mergo.WithOverride); err != nil {
		// Both sides are plain maps of the same type; fall back to a shallow copy.
		for k, v := range overrides {
			base[k] = v
		}
	}
	return base
}

// titled returns a layout override that sets the title text.
func titled(title string, extra Layout) Layout {
	l := Layout{"title": map[string]any{"text": title}}
	for k, v := range extra {
		l[k] = v
	}
	return l
}

func axisTitle(text string) map[string]any {
	return map[string]any{"title": map[string]any{"text": text}}
}

func newFigure(layout Layout, traces ...Trace) Figure {
	return Figure{
		Data:   traces,
		Layout: layout,
		Config: map[string]any{"responsive": true, "displaylogo": false},
	}
}

// JSON serialises the figure for embedding in a data attribute.
func (f Figure) JSON() (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encoding figure: %w", err)
	}
	return string(b), nil
}

// Title returns the figure's title text, if any.
func (f Figure) Title() string {
	t, _ := f.Layout["title"].(map[string]any)
	s, _ := t["text"].(string)
	return s
}

// nullable converts NaN and infinities to JSON nulls so Plotly leaves gaps.
func nullable(values []float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = nil
		} else {
			out[i] = v
		}
	}
	return out
}

func finiteCount(values []float64) int {
	n := 0
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			n++
		}
	}
	return n
}
