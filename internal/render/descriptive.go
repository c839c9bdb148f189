package render

import (
	"strconv"

	"github.com/ziadkadry99/sage/internal/format"
	"github.com/ziadkadry99/sage/internal/result"
)

func (e *Engine) descriptive(p map[string]*panel, r *result.Descriptive) {
	s := r.Summary
	p["summary"].Heading("Dataset Overview")
	p["summary"].Cards(
		Card{Label: "Rows", Value: format.Count(s.TotalRows)},
		Card{Label: "Columns", Value: format.Count(s.TotalColumns)},
		Card{Label: "Numerical Columns", Value: format.Count(s.NumericalColumns)},
		Card{Label: "Categorical Columns", Value: format.Count(s.CategoricalColumns)},
		Card{Label: "Missing Values", Value: format.Count(s.MissingValues), Tone: zeroTone(s.MissingValues)},
		Card{Label: "Duplicate Rows", Value: format.Count(s.DuplicateRows), Tone: zeroTone(s.DuplicateRows)},
	)

	num := Table{
		Caption: "Numerical Summary",
		Headers: []string{"Variable", "Count", "Mean", "Std", "Min", "25%", "Median", "75%", "Max", "Skewness", "Kurtosis", "Missing"},
	}
	for _, col := range r.NumericColumns() {
		st := r.NumericalSummary[col]
		num.Rows = append(num.Rows, Row{Cells: []Cell{
			e.labelCell(col),
			numCell(format.Count(st.Count)),
			numCell(format.Fixed(st.Mean, 2)),
			numCell(format.Fixed(st.Std, 2)),
			numCell(format.Fixed(st.Min, 2)),
			numCell(format.Fixed(st.Q1, 2)),
			numCell(format.Fixed(st.Median, 2)),
			numCell(format.Fixed(st.Q3, 2)),
			numCell(format.Fixed(st.Max, 2)),
			numCell(format.Fixed(st.Skewness, 3)),
			numCell(format.Fixed(st.Kurtosis, 3)),
			numCell(format.Count(st.Missing)),
		}})
	}
	p["numerical"].Table(num, "No numerical columns in this dataset.")

	cols := r.CategoricalColumns()
	if len(cols) == 0 {
		p["categorical"].Empty("No categorical columns in this dataset.")
	}
	for _, col := range cols {
		st := r.CategoricalSummary[col]
		cat := p["categorical"]
		cat.Heading(format.Label(col))
		cat.Cards(
			Card{Label: "Unique Values", Value: format.Count(st.UniqueCount)},
			Card{Label: "Most Frequent", Value: format.Truncate(format.Text(st.Mode.String()), e.labelWidth)},
		)
		cat.Table(e.frequencyTable("", st.Frequencies), "No categories recorded.")
	}

	if len(r.Visualizations) == 0 {
		p["charts"].Empty("No visualizations available.")
	}
	for _, v := range r.Visualizations {
		p["charts"].Visualization(v)
	}

	p["insights"].Insights("Business Insights", r.BusinessInsights)
}

func (e *Engine) visualization(p map[string]*panel, r *result.VisualizationSet) {
	if len(r.Visualizations) == 0 {
		p["charts"].Empty("No visualizations available.")
	}
	catalog := Table{Headers: []string{"#", "Title", "Chart Type", "Variable", "Status"}}
	for i, v := range r.Visualizations {
		p["charts"].Visualization(v)

		status, tone := "Supported", "pass"
		switch {
		case v.Err != nil:
			status, tone = "Malformed", "fail"
		case !e.supportsChart(v.ChartType):
			status, tone = "Unsupported", "fail"
		}
		catalog.Rows = append(catalog.Rows, Row{Cells: []Cell{
			numCell(strconv.Itoa(i + 1)),
			e.labelCell(v.Title),
			{Text: format.Label(v.ChartType)},
			{Text: format.Text(v.Variable)},
			{Text: status, Class: tone},
		}})
	}
	p["catalog"].Table(catalog, "No visualizations were produced.")

	p["insights"].Text(r.Summary)
	p["insights"].Insights("Key Findings", r.Insights)
}

func (e *Engine) supportsChart(chartType string) bool {
	if normalized := format.Label(chartType); normalized == "Frequency Table" {
		return true
	}
	for _, t := range e.charts.Types() {
		if format.Label(t) == format.Label(chartType) {
			return true
		}
	}
	return false
}

func numCell(text string) Cell { return Cell{Text: text, Class: "num"} }

// zeroTone flags a count that should ideally be zero.
func zeroTone(n result.Number) string {
	f, ok := n.Float()
	switch {
	case !ok:
		return ""
	case f == 0:
		return toneGood
	default:
		return toneWarn
	}
}
