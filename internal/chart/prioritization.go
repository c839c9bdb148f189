package chart

import (
	"math/rand/v2"
)

// MaxJitter bounds the random offset added to each prioritization marker.
const MaxJitter = 0.1

// PriorityItem is one recommendation placed on the impact/effort matrix.
// Impact and Effort are ordinal scores on the 1..3 scale.
type PriorityItem struct {
	Label  string
	Impact float64
	Effort float64
}

// Jitter returns a uniform offset in [-MaxJitter, MaxJitter].
func Jitter(rng *rand.Rand) float64 {
	return (rng.Float64()*2 - 1) * MaxJitter
}

// Prioritization places items on an effort (x) by impact (y) grid split into
// four quadrants. Markers are jittered so equal scores do not overlap; the
// jitter only affects marker positions, never the hover text.
func Prioritization(title string, items []PriorityItem, rng *rand.Rand) (Figure, error) {
	if len(items) == 0 {
		return Figure{}, ErrNoData
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}

	xs := make([]float64, len(items))
	ys := make([]float64, len(items))
	labels := make([]string, len(items))
	hover := make([]string, len(items))
	colors := make([]string, len(items))
	for i, it := range items {
		xs[i] = it.Effort + Jitter(rng)
		ys[i] = it.Impact + Jitter(rng)
		labels[i] = it.Label
		hover[i] = it.Label + "<br>Impact: " + levelName(it.Impact) + "<br>Effort: " + levelName(it.Effort)
		colors[i] = quadrantColor(it.Impact, it.Effort)
	}

	tr := Trace{
		"type":         "scatter",
		"mode":         "markers+text",
		"x":            xs,
		"y":            ys,
		"text":         labels,
		"textposition": "top center",
		"hovertext":    hover,
		"hoverinfo":    "text",
		"marker": map[string]any{
			"size":  16,
			"color": colors,
			"line":  map[string]any{"color": "#ffffff", "width": 1},
		},
	}

	divider := func(x0, y0, x1, y1 float64) map[string]any {
		return map[string]any{
			"type": "line", "x0": x0, "y0": y0, "x1": x1, "y1": y1,
			"line": map[string]any{"color": "rgba(255,255,255,0.3)", "width": 1, "dash": "dot"},
		}
	}
	note := func(x, y float64, text string) map[string]any {
		return map[string]any{
			"x": x, "y": y, "text": text, "showarrow": false,
			"font": map[string]any{"color": "rgba(255,255,255,0.45)", "size": 13},
		}
	}

	tick := map[string]any{
		"tickvals": []float64{1, 2, 3},
		"ticktext": []string{"Low", "Medium", "High"},
		"range":    []float64{0.5, 3.5},
		"zeroline": false,
	}
	xaxis := map[string]any{"title": map[string]any{"text": "Effort"}}
	yaxis := map[string]any{"title": map[string]any{"text": "Impact"}}
	for k, v := range tick {
		xaxis[k] = v
		yaxis[k] = v
	}

	layout := NewLayout(titled(title, Layout{
		"xaxis":      xaxis,
		"yaxis":      yaxis,
		"showlegend": false,
		"shapes": []any{
			divider(2, 0.5, 2, 3.5),
			divider(0.5, 2, 3.5, 2),
		},
		"annotations": []any{
			note(1.25, 3.35, "Quick Wins"),
			note(2.75, 3.35, "Major Projects"),
			note(1.25, 0.65, "Fill-ins"),
			note(2.75, 0.65, "Thankless Tasks"),
		},
	}))
	return newFigure(layout, tr), nil
}

func levelName(score float64) string {
	switch {
	case score >= 2.5:
		return "High"
	case score <= 1.5:
		return "Low"
	default:
		return "Medium"
	}
}

func quadrantColor(impact, effort float64) string {
	switch {
	case impact >= 2 && effort < 2:
		return "#43e97b"
	case impact >= 2:
		return "#4facfe"
	case effort < 2:
		return "#fee140"
	default:
		return "#fa709a"
	}
}
