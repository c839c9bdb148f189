package chart

import (
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/ziadkadry99/sage/internal/result"
)

func TestNewLayoutKeepsThemeDefaults(t *testing.T) {
	l := NewLayout(Layout{
		"xaxis": map[string]any{"title": map[string]any{"text": "Effort"}},
	})

	xaxis, ok := l["xaxis"].(map[string]any)
	if !ok {
		t.Fatalf("xaxis = %T, want map", l["xaxis"])
	}
	if xaxis["gridcolor"] != "rgba(255,255,255,0.08)" {
		t.Errorf("gridcolor lost after merge: %v", xaxis["gridcolor"])
	}
	title, _ := xaxis["title"].(map[string]any)
	if title["text"] != "Effort" {
		t.Errorf("xaxis title = %v, want Effort", title["text"])
	}
	if l["paper_bgcolor"] != "rgba(0,0,0,0)" {
		t.Errorf("paper_bgcolor = %v", l["paper_bgcolor"])
	}

	// The merge must not leak into later layouts.
	fresh := BaseLayout()
	if _, leaked := fresh["xaxis"].(map[string]any)["title"]; leaked {
		t.Error("override leaked into BaseLayout")
	}
}

func TestFigureTitle(t *testing.T) {
	fig, err := Bar("Sales by Region", []string{"north", "south"}, []float64{3, 4}, "Region", "Sales")
	if err != nil {
		t.Fatalf("Bar: %v", err)
	}
	if got := fig.Title(); got != "Sales by Region" {
		t.Errorf("Title() = %q", got)
	}
	if fig.Config["displaylogo"] != false {
		t.Error("displaylogo should be disabled")
	}
}

func TestBarLengthMismatch(t *testing.T) {
	if _, err := Bar("x", []string{"a"}, []float64{1, 2}, "", ""); err == nil {
		t.Fatal("expected error for mismatched lengths")
	}
}

func TestHeatmapCells(t *testing.T) {
	z := [][]float64{{1, 0.5}, {0.5, math.NaN()}}
	fig, err := Heatmap("Correlation", z, []string{"a", "b"}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("Heatmap: %v", err)
	}
	tr := fig.Data[0]
	if tr["hovertemplate"] != HeatmapHoverTemplate {
		t.Errorf("hovertemplate = %v", tr["hovertemplate"])
	}
	if tr["texttemplate"] != "%{text}" {
		t.Errorf("texttemplate = %v", tr["texttemplate"])
	}
	text := tr["text"].([][]string)
	if text[0][1] != "0.500" || text[0][0] != "1.000" {
		t.Errorf("text = %v", text)
	}
	if text[1][1] != "" {
		t.Errorf("NaN cell text = %q, want empty", text[1][1])
	}
	cells := tr["z"].([][]any)
	if cells[1][1] != nil {
		t.Errorf("NaN cell = %v, want nil", cells[1][1])
	}
	if _, err := fig.JSON(); err != nil {
		t.Errorf("JSON: %v", err)
	}
}

func TestHeatmapRagged(t *testing.T) {
	if _, err := Heatmap("x", [][]float64{{1, 2}, {3}}, nil, nil); err == nil {
		t.Fatal("expected error for ragged matrix")
	}
}

func TestScatterCorrelationTitle(t *testing.T) {
	tests := []struct {
		name  string
		x, y  []float64
		title string
	}{
		{"perfect", []float64{1, 2, 3}, []float64{2, 4, 6}, "Price vs Demand (r = 1.000, R² = 1.000)"},
		{"inverse", []float64{1, 2, 3, 4}, []float64{8, 6, 4, 2}, "Price vs Demand (r = -1.000, R² = 1.000)"},
		{"two points", []float64{1, 2}, []float64{2, 4}, "Price vs Demand"},
		{"constant", []float64{1, 2, 3}, []float64{5, 5, 5}, "Price vs Demand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fig, err := Scatter("Price vs Demand", tt.x, tt.y, "Price", "Demand")
			if err != nil {
				t.Fatalf("Scatter: %v", err)
			}
			if got := fig.Title(); got != tt.title {
				t.Errorf("title = %q, want %q", got, tt.title)
			}
		})
	}
}

func TestPearsonSkipsNonFinite(t *testing.T) {
	r, n, ok := Pearson([]float64{1, 2, math.NaN(), 3}, []float64{1, 2, 10, 3})
	if !ok || n != 3 {
		t.Fatalf("Pearson ok=%v n=%d", ok, n)
	}
	if math.Abs(r-1) > 1e-9 {
		t.Errorf("r = %v, want 1", r)
	}
}

func TestLineWithBand(t *testing.T) {
	x := []string{"2024-01", "2024-02"}
	fig, err := Line("Forecast", []LineSeries{{Name: "Forecast", X: x, Y: []float64{10, 12}}},
		&Band{Name: "95% interval", X: x, Lower: []float64{8, 9}, Upper: []float64{12, 15}})
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	if len(fig.Data) != 3 {
		t.Fatalf("got %d traces, want 3", len(fig.Data))
	}
	if fig.Data[1]["fill"] != "tonexty" {
		t.Errorf("lower band fill = %v", fig.Data[1]["fill"])
	}
}

func TestLineNoData(t *testing.T) {
	_, err := Line("Empty", []LineSeries{{Name: "a", Y: []float64{math.NaN()}}}, nil)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestJitterBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 9))
	for i := 0; i < 1000; i++ {
		if j := Jitter(rng); math.Abs(j) > MaxJitter {
			t.Fatalf("jitter %v exceeds %v", j, MaxJitter)
		}
	}
}

func TestPrioritization(t *testing.T) {
	items := []PriorityItem{
		{Label: "Automate invoicing", Impact: 3, Effort: 1},
		{Label: "Rebuild warehouse", Impact: 3, Effort: 3},
		{Label: "Tidy wiki", Impact: 1, Effort: 1},
	}
	fig, err := Prioritization("Impact vs Effort", items, rand.New(rand.NewPCG(1, 1)))
	if err != nil {
		t.Fatalf("Prioritization: %v", err)
	}
	tr := fig.Data[0]
	xs := tr["x"].([]float64)
	ys := tr["y"].([]float64)
	for i, it := range items {
		if math.Abs(xs[i]-it.Effort) > MaxJitter || math.Abs(ys[i]-it.Impact) > MaxJitter {
			t.Errorf("%s placed at (%v, %v), too far from (%v, %v)", it.Label, xs[i], ys[i], it.Effort, it.Impact)
		}
	}
	hover := tr["hovertext"].([]string)
	if !strings.Contains(hover[0], "Impact: High") || !strings.Contains(hover[0], "Effort: Low") {
		t.Errorf("hover = %q", hover[0])
	}

	notes := fig.Layout["annotations"].([]any)
	var names []string
	for _, n := range notes {
		names = append(names, n.(map[string]any)["text"].(string))
	}
	want := "Quick Wins,Major Projects,Fill-ins,Thankless Tasks"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("quadrants = %s, want %s", got, want)
	}
}

func TestPrioritizationEmpty(t *testing.T) {
	if _, err := Prioritization("x", nil, nil); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestRegistryBuild(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name      string
		payload   string
		wantTrace string
		wantErr   error
	}{
		{"histogram values", `{"chart_type":"histogram","variable":"age","values":[21,34,"40",null]}`, "histogram", nil},
		{"histogram data", `{"chart_type":"Histogram","variable":"age","data":[1,2,3]}`, "histogram", nil},
		{"bar xy", `{"chart_type":"bar","x":["a","b"],"y":[1,2]}`, "bar", nil},
		{"bar data", `{"chart_type":"bar","data":{"a":2,"b":5}}`, "bar", nil},
		{"pie", `{"chart_type":"pie","labels":["x","y"],"values":[1,3],"hole":0.4}`, "pie", nil},
		{"box groups", `{"chart_type":"box","data":{"north":[1,2,3],"south":[4,5]}}`, "box", nil},
		{"heatmap", `{"chart_type":"heatmap","z":[[1,0.2],[0.2,1]],"x":["a","b"],"y":["a","b"]}`, "heatmap", nil},
		{"treemap", `{"chart_type":"treemap","labels":["all","a"],"parents":["",  "all"],"values":[3,3]}`, "treemap", nil},
		{"frequency table", `{"chart_type":"frequency_table","data":{}}`, "", ErrUnsupportedChart},
		{"unknown", `{"chart_type":"sankey"}`, "", ErrUnsupportedChart},
		{"empty histogram", `{"chart_type":"histogram"}`, "", ErrNoData},
		{"string bins", `{"chart_type":"histogram","bins":"10","values":[1,2,3]}`, "histogram", nil},
		{"mistyped title", `{"chart_type":"bar","title":["x"],"x":["a"],"y":[1]}`, "", result.ErrMalformedVisualization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v result.Visualization
			if err := json.Unmarshal([]byte(tt.payload), &v); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			fig, err := reg.Build(v)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := fig.Data[0]["type"]; got != tt.wantTrace {
				t.Errorf("trace type = %v, want %s", got, tt.wantTrace)
			}
		})
	}
}

func TestRegistryBarDataOrder(t *testing.T) {
	var v result.Visualization
	if err := json.Unmarshal([]byte(`{"chart_type":"bar","data":{"a":2,"b":5,"c":2}}`), &v); err != nil {
		t.Fatal(err)
	}
	fig, err := NewRegistry().Build(v)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	labels := fig.Data[0]["x"].([]string)
	if got := strings.Join(labels, ","); got != "b,a,c" {
		t.Errorf("labels = %s, want b,a,c", got)
	}
}

func TestRegistryGroupedBar(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		categories string
		series     string
	}{
		{
			"category objects",
			`{"chart_type":"bar","data":{"2024":{"north":3,"south":4},"2023":{"north":2}}}`,
			"2023,2024", "north,south",
		},
		{
			"nested y",
			`{"chart_type":"bar","x":["q1","q2"],"y":[[1,2],[3,4]],"labels":["plan","actual"]}`,
			"q1,q2", "plan,actual",
		},
		{
			"nested y unnamed",
			`{"chart_type":"bar","x":["q1"],"y":[[1],[3]]}`,
			"q1", "Series 1,Series 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v result.Visualization
			if err := json.Unmarshal([]byte(tt.payload), &v); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			fig, err := NewRegistry().Build(v)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if fig.Layout["barmode"] != "group" {
				t.Errorf("barmode = %v, want group", fig.Layout["barmode"])
			}
			var names []string
			for _, tr := range fig.Data {
				names = append(names, tr["name"].(string))
				if got := strings.Join(tr["x"].([]string), ","); got != tt.categories {
					t.Errorf("categories = %s, want %s", got, tt.categories)
				}
			}
			if got := strings.Join(names, ","); got != tt.series {
				t.Errorf("series = %s, want %s", got, tt.series)
			}
		})
	}
}

func TestRegistryGroupedBarGap(t *testing.T) {
	var v result.Visualization
	if err := json.Unmarshal([]byte(`{"chart_type":"bar","data":{"a":{"x":1},"b":{"y":2}}}`), &v); err != nil {
		t.Fatal(err)
	}
	fig, err := NewRegistry().Build(v)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	ys := fig.Data[0]["y"].([]any)
	if ys[1] != nil {
		t.Errorf("missing value = %v, want nil gap", ys[1])
	}
}

func TestRegistryRecoversFromPanic(t *testing.T) {
	reg := NewRegistry()
	reg.Register("boom", func(result.Visualization) (Figure, error) { panic("bad input") })
	if _, err := reg.Build(result.Visualization{ChartType: "boom"}); err == nil {
		t.Fatal("expected panic to surface as error")
	}
}

func TestRegistryTypes(t *testing.T) {
	got := strings.Join(NewRegistry().Types(), ",")
	want := "bar,box,heatmap,histogram,line,pie,scatter,treemap"
	if got != want {
		t.Errorf("Types() = %s, want %s", got, want)
	}
}

func TestCauseEffect(t *testing.T) {
	fig, err := CauseEffect("Cause & Effect", []string{"Leadership", "Quality"}, []float64{4.2, 3.1}, []float64{0.8, -0.8})
	if err != nil {
		t.Fatalf("CauseEffect: %v", err)
	}
	colors := fig.Data[0]["marker"].(map[string]any)["color"].([]string)
	if colors[0] == colors[1] {
		t.Error("causes and effects should be coloured differently")
	}
	if _, err := CauseEffect("x", []string{"a"}, []float64{1, 2}, []float64{1}); err == nil {
		t.Error("expected length mismatch error")
	}
}
