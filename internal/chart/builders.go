package chart

import (
	"fmt"
	"math"
)

// HeatmapHoverTemplate is the hover text used on every heatmap cell.
const HeatmapHoverTemplate = "%{y} → %{x}<br>Value: %{z:.3f}<extra></extra>"

// Series is a named sequence of values sharing the figure's categories.
type Series struct {
	Name   string
	Values []float64
}

// LineSeries is one line on a line chart.
type LineSeries struct {
	Name string
	X    []string
	Y    []float64
	Dash string
}

// Band is a shaded confidence interval drawn under a line.
type Band struct {
	Name  string
	X     []string
	Lower []float64
	Upper []float64
}

// Histogram bins values into bars. bins <= 0 lets Plotly choose.
func Histogram(title, variable string, values []float64, bins int) (Figure, error) {
	if finiteCount(values) == 0 {
		return Figure{}, ErrNoData
	}
	tr := Trace{
		"type":    "histogram",
		"x":       nullable(values),
		"name":    variable,
		"opacity": 0.85,
		"marker": map[string]any{
			"color": Color(0),
			"line":  map[string]any{"color": "rgba(255,255,255,0.3)", "width": 1},
		},
	}
	if bins > 0 {
		tr["nbinsx"] = bins
	}
	layout := NewLayout(titled(title, Layout{
		"xaxis":  axisTitle(variable),
		"yaxis":  axisTitle("Frequency"),
		"bargap": 0.05,
	}))
	return newFigure(layout, tr), nil
}

// Bar draws one bar per label.
func Bar(title string, labels []string, values []float64, xLabel, yLabel string) (Figure, error) {
	if len(labels) != len(values) {
		return Figure{}, fmt.Errorf("bar chart: %d labels for %d values", len(labels), len(values))
	}
	if finiteCount(values) == 0 {
		return Figure{}, ErrNoData
	}
	colors := make([]string, len(values))
	for i := range values {
		colors[i] = Color(0)
		if values[i] < 0 {
			colors[i] = Color(2)
		}
	}
	tr := Trace{
		"type":   "bar",
		"x":      labels,
		"y":      nullable(values),
		"marker": map[string]any{"color": colors},
	}
	layout := NewLayout(titled(title, Layout{
		"xaxis": axisTitle(xLabel),
		"yaxis": axisTitle(yLabel),
	}))
	return newFigure(layout, tr), nil
}

// GroupedBar draws one bar group per category with one bar per series.
func GroupedBar(title string, categories []string, series []Series) (Figure, error) {
	if len(series) == 0 || len(categories) == 0 {
		return Figure{}, ErrNoData
	}
	traces := make([]Trace, 0, len(series))
	for i, s := range series {
		if len(s.Values) != len(categories) {
			return Figure{}, fmt.Errorf("grouped bar: series %q has %d values for %d categories", s.Name, len(s.Values), len(categories))
		}
		traces = append(traces, Trace{
			"type":   "bar",
			"name":   s.Name,
			"x":      categories,
			"y":      nullable(s.Values),
			"marker": map[string]any{"color": Color(i)},
		})
	}
	layout := NewLayout(titled(title, Layout{"barmode": "group"}))
	return newFigure(layout, traces...), nil
}

// Scatter plots y against x. When both axes have at least three paired
// points the title gains the Pearson correlation and R².
func Scatter(title string, x, y []float64, xLabel, yLabel string) (Figure, error) {
	if len(x) != len(y) {
		return Figure{}, fmt.Errorf("scatter: %d x values for %d y values", len(x), len(y))
	}
	if finiteCount(x) == 0 || finiteCount(y) == 0 {
		return Figure{}, ErrNoData
	}
	if r, n, ok := Pearson(x, y); ok && n >= 3 {
		title = fmt.Sprintf("%s (r = %.3f, R² = %.3f)", title, r, r*r)
	}
	tr := Trace{
		"type": "scatter",
		"mode": "markers",
		"x":    nullable(x),
		"y":    nullable(y),
		"marker": map[string]any{
			"color":   Color(0),
			"size":    8,
			"opacity": 0.75,
			"line":    map[string]any{"color": "rgba(255,255,255,0.4)", "width": 1},
		},
	}
	layout := NewLayout(titled(title, Layout{
		"xaxis": axisTitle(xLabel),
		"yaxis": axisTitle(yLabel),
	}))
	return newFigure(layout, tr), nil
}

// Line draws one or more lines, optionally over a shaded band.
func Line(title string, lines []LineSeries, band *Band) (Figure, error) {
	var traces []Trace
	if band != nil && len(band.Lower) > 0 && len(band.Lower) == len(band.Upper) {
		traces = append(traces,
			Trace{
				"type":       "scatter",
				"mode":       "lines",
				"x":          band.X,
				"y":          nullable(band.Upper),
				"line":       map[string]any{"width": 0},
				"showlegend": false,
				"hoverinfo":  "skip",
				"name":       "upper",
			},
			Trace{
				"type":      "scatter",
				"mode":      "lines",
				"x":         band.X,
				"y":         nullable(band.Lower),
				"fill":      "tonexty",
				"fillcolor": "rgba(79,172,254,0.18)",
				"line":      map[string]any{"width": 0},
				"name":      band.Name,
			},
		)
	}
	points := 0
	for i, l := range lines {
		points += finiteCount(l.Y)
		line := map[string]any{"color": Color(i), "width": 2}
		if l.Dash != "" {
			line["dash"] = l.Dash
		}
		traces = append(traces, Trace{
			"type": "scatter",
			"mode": "lines+markers",
			"name": l.Name,
			"x":    l.X,
			"y":    nullable(l.Y),
			"line": line,
		})
	}
	if points == 0 {
		return Figure{}, ErrNoData
	}
	layout := NewLayout(titled(title, Layout{"hovermode": "x unified"}))
	return newFigure(layout, traces...), nil
}

// Box draws a single box plot.
func Box(title, name string, values []float64) (Figure, error) {
	return GroupedBox(title, []Series{{Name: name, Values: values}})
}

// GroupedBox draws one box per series.
func GroupedBox(title string, groups []Series) (Figure, error) {
	var traces []Trace
	for i, g := range groups {
		if finiteCount(g.Values) == 0 {
			continue
		}
		traces = append(traces, Trace{
			"type":      "box",
			"name":      g.Name,
			"y":         nullable(g.Values),
			"boxpoints": "outliers",
			"marker":    map[string]any{"color": Color(i)},
		})
	}
	if len(traces) == 0 {
		return Figure{}, ErrNoData
	}
	layout := NewLayout(titled(title, nil))
	return newFigure(layout, traces...), nil
}

// Heatmap draws a labelled matrix with each cell's value printed on it.
func Heatmap(title string, z [][]float64, xLabels, yLabels []string) (Figure, error) {
	if len(z) == 0 {
		return Figure{}, ErrNoData
	}
	cols := len(z[0])
	text := make([][]string, len(z))
	cells := make([][]any, len(z))
	for i, row := range z {
		if len(row) != cols {
			return Figure{}, fmt.Errorf("heatmap: row %d has %d cells, want %d", i, len(row), cols)
		}
		text[i] = make([]string, cols)
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				text[i][j] = ""
			} else {
				text[i][j] = fmt.Sprintf("%.3f", v)
			}
		}
		cells[i] = nullable(row)
	}
	if xLabels == nil {
		xLabels = indexLabels(cols)
	}
	if yLabels == nil {
		yLabels = indexLabels(len(z))
	}
	tr := Trace{
		"type":          "heatmap",
		"z":             cells,
		"x":             xLabels,
		"y":             yLabels,
		"text":          text,
		"texttemplate":  "%{text}",
		"hovertemplate": HeatmapHoverTemplate,
		"colorscale":    "Viridis",
		"showscale":     true,
	}
	layout := NewLayout(titled(title, Layout{
		"yaxis": map[string]any{"autorange": "reversed"},
	}))
	return newFigure(layout, tr), nil
}

// Treemap draws a hierarchy given parallel labels, parents and values.
func Treemap(title string, labels, parents []string, values []float64) (Figure, error) {
	if len(labels) == 0 {
		return Figure{}, ErrNoData
	}
	if len(parents) != len(labels) || len(values) != len(labels) {
		return Figure{}, fmt.Errorf("treemap: %d labels, %d parents, %d values", len(labels), len(parents), len(values))
	}
	tr := Trace{
		"type":     "treemap",
		"labels":   labels,
		"parents":  parents,
		"values":   nullable(values),
		"textinfo": "label+value+percent parent",
	}
	layout := NewLayout(titled(title, Layout{"margin": map[string]any{"t": 50, "l": 10, "r": 10, "b": 10}}))
	return newFigure(layout, tr), nil
}

// Pie draws a pie chart; hole > 0 makes it a donut.
func Pie(title string, labels []string, values []float64, hole float64) (Figure, error) {
	if len(labels) != len(values) {
		return Figure{}, fmt.Errorf("pie chart: %d labels for %d values", len(labels), len(values))
	}
	if finiteCount(values) == 0 {
		return Figure{}, ErrNoData
	}
	colors := make([]string, len(labels))
	for i := range labels {
		colors[i] = Color(i)
	}
	tr := Trace{
		"type":     "pie",
		"labels":   labels,
		"values":   nullable(values),
		"textinfo": "label+percent",
		"marker":   map[string]any{"colors": colors},
	}
	if hole > 0 && hole < 1 {
		tr["hole"] = hole
	}
	layout := NewLayout(titled(title, nil))
	return newFigure(layout, tr), nil
}

func indexLabels(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%d", i+1)
	}
	return out
}

// CauseEffect plots factors by prominence (x) and relation (y). Factors
// above the zero line are net causes, those below net effects.
func CauseEffect(title string, factors []string, prominence, relation []float64) (Figure, error) {
	if len(factors) != len(prominence) || len(factors) != len(relation) {
		return Figure{}, fmt.Errorf("cause-effect: %d factors, %d prominence, %d relation values", len(factors), len(prominence), len(relation))
	}
	if finiteCount(prominence) == 0 || finiteCount(relation) == 0 {
		return Figure{}, ErrNoData
	}
	colors := make([]string, len(factors))
	for i, r := range relation {
		colors[i] = Color(1)
		if r < 0 {
			colors[i] = Color(2)
		}
	}
	tr := Trace{
		"type":          "scatter",
		"mode":          "markers+text",
		"x":             nullable(prominence),
		"y":             nullable(relation),
		"text":          factors,
		"textposition":  "top center",
		"hovertemplate": "%{text}<br>D+R: %{x:.3f}<br>D-R: %{y:.3f}<extra></extra>",
		"marker":        map[string]any{"size": 12, "color": colors},
	}
	layout := NewLayout(titled(title, Layout{
		"xaxis":      axisTitle("Prominence (D + R)"),
		"yaxis":      axisTitle("Relation (D - R)"),
		"showlegend": false,
		"shapes": []any{map[string]any{
			"type": "line", "xref": "paper", "x0": 0, "x1": 1, "y0": 0, "y1": 0,
			"line": map[string]any{"color": "rgba(255,255,255,0.35)", "dash": "dash"},
		}},
	}))
	return newFigure(layout, tr), nil
}
