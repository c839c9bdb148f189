package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/ziadkadry99/sage/internal/format"
	"github.com/ziadkadry99/sage/internal/result"
)

// Builder turns a backend visualization descriptor into a figure.
type Builder func(v result.Visualization) (Figure, error)

// Registry maps chart_type tags to builders.
type Registry struct {
	builders map[string]Builder
}

// NewRegistry returns a registry with every built-in chart type.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]Builder)}
	r.Register("histogram", buildHistogram)
	r.Register("bar", buildBar)
	r.Register("scatter", buildScatter)
	r.Register("pie", buildPie)
	r.Register("line", buildLine)
	r.Register("box", buildBox)
	r.Register("heatmap", buildHeatmap)
	r.Register("treemap", buildTreemap)
	return r
}

// Register adds or replaces the builder for a chart type.
func (r *Registry) Register(chartType string, b Builder) {
	r.builders[normalizeType(chartType)] = b
}

// Types lists the registered chart types.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.builders))
	for t := range r.builders {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Build dispatches v to its builder. A builder panic is reported as an error
// so one malformed chart cannot take down the page.
func (r *Registry) Build(v result.Visualization) (fig Figure, err error) {
	if v.Err != nil {
		return Figure{}, v.Err
	}
	b, ok := r.builders[normalizeType(v.ChartType)]
	if !ok {
		return Figure{}, fmt.Errorf("%w: %q", ErrUnsupportedChart, v.ChartType)
	}
	defer func() {
		if p := recover(); p != nil {
			fig, err = Figure{}, fmt.Errorf("building %s chart: %v", v.ChartType, p)
		}
	}()
	return b(v)
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

func titleOf(v result.Visualization, fallback string) string {
	if strings.TrimSpace(v.Title) != "" {
		return v.Title
	}
	if v.Variable != "" {
		return fallback + ": " + v.Variable
	}
	return fallback
}

func buildHistogram(v result.Visualization) (Figure, error) {
	values := result.Numbers(v.Values)
	if len(values) == 0 {
		var err error
		if values, err = decodeNumbers(v.Data); err != nil {
			return Figure{}, err
		}
	}
	return Histogram(titleOf(v, "Distribution"), v.Variable, values, int(v.Bins.Or(0)))
}

// buildBar draws a single series from x/y or a label -> number object. A
// category -> {series -> number} object, or y given as one array per
// series, becomes a grouped bar chart.
func buildBar(v result.Visualization) (Figure, error) {
	if categories, series, ok, err := decodeGrouped(v.Data); ok {
		if err != nil {
			return Figure{}, err
		}
		return GroupedBar(titleOf(v, "Grouped Bar Chart"), categories, series)
	}
	if series, ok := nestedSeries(v); ok {
		return GroupedBar(titleOf(v, "Grouped Bar Chart"), anyStrings(v.X), series)
	}
	labels, values := anyStrings(v.X), anyFloats(v.Y)
	if len(labels) == 0 {
		var err error
		if labels, values, err = decodeLabelled(v.Data); err != nil {
			return Figure{}, err
		}
	}
	return Bar(titleOf(v, "Bar Chart"), labels, values, v.XLabel, v.YLabel)
}

func buildScatter(v result.Visualization) (Figure, error) {
	xLabel, yLabel := v.XLabel, v.YLabel
	if xLabel == "" {
		xLabel = "X"
	}
	if yLabel == "" {
		yLabel = "Y"
	}
	return Scatter(titleOf(v, "Scatter Plot"), anyFloats(v.X), anyFloats(v.Y), xLabel, yLabel)
}

func buildPie(v result.Visualization) (Figure, error) {
	labels := texts(v.Labels)
	values := result.Numbers(v.Values)
	if len(labels) == 0 {
		var err error
		if labels, values, err = decodeLabelled(v.Data); err != nil {
			return Figure{}, err
		}
	}
	return Pie(titleOf(v, "Composition"), labels, values, v.Hole.Or(0))
}

func buildLine(v result.Visualization) (Figure, error) {
	x := anyStrings(v.X)
	lines := []LineSeries{{Name: v.YLabel, X: x, Y: anyFloats(v.Y)}}
	var band *Band
	if len(v.Lower) > 0 && len(v.Lower) == len(v.Upper) {
		band = &Band{Name: "Confidence interval", X: x, Lower: result.Numbers(v.Lower), Upper: result.Numbers(v.Upper)}
	}
	return Line(titleOf(v, "Trend"), lines, band)
}

func buildBox(v result.Visualization) (Figure, error) {
	if values := result.Numbers(v.Values); len(values) > 0 {
		return Box(titleOf(v, "Spread"), v.Variable, values)
	}
	if isJSONObject(v.Data) {
		var groups map[string][]result.Number
		if err := json.Unmarshal(v.Data, &groups); err != nil {
			return Figure{}, fmt.Errorf("box data: %w", err)
		}
		keys := make([]string, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		series := make([]Series, 0, len(keys))
		for _, k := range keys {
			series = append(series, Series{Name: k, Values: result.Numbers(groups[k])})
		}
		return GroupedBox(titleOf(v, "Spread by Group"), series)
	}
	values, err := decodeNumbers(v.Data)
	if err != nil {
		return Figure{}, err
	}
	return Box(titleOf(v, "Spread"), v.Variable, values)
}

func buildHeatmap(v result.Visualization) (Figure, error) {
	z := make([][]float64, len(v.Z))
	for i, row := range v.Z {
		z[i] = result.Numbers(row)
	}
	var xLabels, yLabels []string
	if len(v.X) > 0 {
		xLabels = anyStrings(v.X)
	}
	if len(v.Y) > 0 {
		yLabels = anyStrings(v.Y)
	}
	return Heatmap(titleOf(v, "Correlation Matrix"), z, xLabels, yLabels)
}

func buildTreemap(v result.Visualization) (Figure, error) {
	return Treemap(titleOf(v, "Hierarchy"), texts(v.Labels), texts(v.Parents), result.Numbers(v.Values))
}

func texts(ts []result.Text) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

func anyStrings(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = cast.ToString(v)
	}
	return out
}

func anyFloats(vals []any) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		if f, ok := format.Float(v); ok {
			out[i] = f
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func isJSONObject(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "{")
}

func decodeNumbers(raw json.RawMessage) ([]float64, error) {
	if len(raw) == 0 {
		return nil, ErrNoData
	}
	var ns []result.Number
	if err := json.Unmarshal(raw, &ns); err != nil {
		return nil, fmt.Errorf("expected a list of numbers: %w", err)
	}
	return result.Numbers(ns), nil
}

// decodeLabelled reads an object of label -> number, ordered by value
// descending then label.
func decodeLabelled(raw json.RawMessage) ([]string, []float64, error) {
	if len(raw) == 0 {
		return nil, nil, ErrNoData
	}
	var m map[string]result.Number
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("expected an object of label to number: %w", err)
	}
	labels := make([]string, 0, len(m))
	for k := range m {
		labels = append(labels, k)
	}
	sort.Slice(labels, func(i, j int) bool {
		a, b := m[labels[i]].Or(math.Inf(-1)), m[labels[j]].Or(math.Inf(-1))
		if a != b {
			return a > b
		}
		return labels[i] < labels[j]
	})
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = result.Numbers([]result.Number{m[l]})[0]
	}
	return labels, values, nil
}

// decodeGrouped reads category -> {series -> number}. ok is false when raw
// is not an object of objects. Categories and series are sorted by name;
// a series missing from a category plots as a gap.
func decodeGrouped(raw json.RawMessage) (categories []string, series []Series, ok bool, err error) {
	if !isJSONObject(raw) {
		return nil, nil, false, nil
	}
	var shape map[string]json.RawMessage
	if json.Unmarshal(raw, &shape) != nil {
		return nil, nil, false, nil
	}
	for _, v := range shape {
		if !isJSONObject(v) {
			return nil, nil, false, nil
		}
	}
	if len(shape) == 0 {
		return nil, nil, false, nil
	}

	var groups map[string]map[string]result.Number
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, nil, true, fmt.Errorf("grouped bar data: %w", err)
	}
	names := make(map[string]bool)
	for cat, row := range groups {
		categories = append(categories, cat)
		for name := range row {
			names[name] = true
		}
	}
	sort.Strings(categories)
	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	for _, name := range ordered {
		values := make([]float64, len(categories))
		for i, cat := range categories {
			values[i] = groups[cat][name].Or(math.NaN())
		}
		series = append(series, Series{Name: name, Values: values})
	}
	return categories, series, true, nil
}

// nestedSeries reads y given as one array per series. Series are named from
// labels when present.
func nestedSeries(v result.Visualization) ([]Series, bool) {
	if len(v.Y) == 0 {
		return nil, false
	}
	names := texts(v.Labels)
	series := make([]Series, 0, len(v.Y))
	for i, row := range v.Y {
		vals, isList := row.([]any)
		if !isList {
			return nil, false
		}
		name := fmt.Sprintf("Series %d", i+1)
		if i < len(names) && strings.TrimSpace(names[i]) != "" {
			name = names[i]
		}
		series = append(series, Series{Name: name, Values: anyFloats(vals)})
	}
	return series, true
}
