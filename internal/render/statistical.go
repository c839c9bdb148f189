package render

import (
	"math"

	"github.com/ziadkadry99/sage/internal/chart"
	"github.com/ziadkadry99/sage/internal/format"
	"github.com/ziadkadry99/sage/internal/result"
)

func (e *Engine) predictive(p map[string]*panel, r *result.Predictive) {
	f := r.Predictions
	lines := []chart.LineSeries{}
	if len(f.HistoricalValues) > 0 {
		lines = append(lines, chart.LineSeries{Name: "Historical", X: f.HistoricalDates, Y: result.Numbers(f.HistoricalValues)})
	}
	lines = append(lines, chart.LineSeries{Name: "Forecast", X: f.Dates, Y: result.Numbers(f.Values), Dash: "dash"})
	var band *chart.Band
	if f.HasBand() {
		band = &chart.Band{Name: "Confidence interval", X: f.Dates, Lower: result.Numbers(f.LowerBound), Upper: result.Numbers(f.UpperBound)}
	}
	title := "Forecast"
	if r.DataSummary.TargetVariable != "" {
		title = "Forecast: " + r.DataSummary.TargetVariable
	}
	fig, err := chart.Line(title, lines, band)
	p["forecast"].Chart(title, fig, err)

	table := Table{Caption: "Forecast Values", Headers: []string{"Date", "Forecast", "Lower Bound", "Upper Bound"}}
	for i, d := range f.Dates {
		row := Row{Cells: []Cell{{Text: format.Text(d)}, numCell(format.Fixed(at(f.Values, i), 2))}}
		row.Cells = append(row.Cells, numCell(format.Fixed(at(f.LowerBound, i), 2)), numCell(format.Fixed(at(f.UpperBound, i), 2)))
		table.Rows = append(table.Rows, row)
	}
	p["forecast"].Table(table, "No forecast values returned.")

	m := r.ModelPerformance
	p["performance"].Heading(format.Text(m.ModelName))
	p["performance"].Cards(
		Card{Label: "MAE", Value: format.Fixed(m.MAE, 3), Hint: "Mean absolute error"},
		Card{Label: "RMSE", Value: format.Fixed(m.RMSE, 3), Hint: "Root mean squared error"},
		Card{Label: "MAPE", Value: format.Percent(m.MAPE, 2), Hint: "Mean absolute percentage error"},
		Card{Label: "R²", Value: format.Fixed(m.R2, 3), Hint: "Variance explained", Tone: fitTone(m.R2, 0.7, 0.4)},
	)

	d := r.DataSummary
	dateRange := format.NA
	if d.DateRange.Start != "" || d.DateRange.End != "" {
		dateRange = format.Text(d.DateRange.Start) + " to " + format.Text(d.DateRange.End)
	}
	p["data-summary"].Cards(
		Card{Label: "Target Variable", Value: format.Text(d.TargetVariable)},
		Card{Label: "Observations", Value: format.Count(d.TotalObservations)},
		Card{Label: "Frequency", Value: format.Text(d.Frequency)},
		Card{Label: "Date Range", Value: dateRange},
		Card{Label: "Mean", Value: format.Fixed(d.Mean, 2)},
		Card{Label: "Std. Deviation", Value: format.Fixed(d.Std, 2)},
		Card{Label: "Minimum", Value: format.Fixed(d.Min, 2)},
		Card{Label: "Maximum", Value: format.Fixed(d.Max, 2)},
	)

	p["insights"].Insights("Forecast Insights", r.Insights)
}

func (e *Engine) prescriptive(p map[string]*panel, r *result.Prescriptive) {
	var quickWins, highImpact int
	items := make([]chart.PriorityItem, 0, len(r.Prescriptions))
	for _, rx := range r.Prescriptions {
		impact, effort := rx.ImpactScore(), rx.EffortScore()
		if impact >= result.LevelMedium && effort < result.LevelMedium {
			quickWins++
		}
		if impact == result.LevelHigh {
			highImpact++
		}
		items = append(items, chart.PriorityItem{
			Label:  format.Truncate(format.Text(rx.Recommendation), 28),
			Impact: impact,
			Effort: effort,
		})
	}

	p["overview"].Text(r.Summary)
	p["overview"].Cards(
		Card{Label: "Recommendations", Value: format.Count(len(r.Prescriptions))},
		Card{Label: "Quick Wins", Value: format.Count(quickWins), Tone: toneGood},
		Card{Label: "High Impact", Value: format.Count(highImpact)},
	)
	p["overview"].List(List{Title: "Data Insights", Items: r.DataInsights})

	rng, unlock := e.jitterSource()
	fig, err := chart.Prioritization("Impact vs Effort", items, rng)
	unlock()
	p["matrix"].Chart("Impact vs Effort", fig, err)

	if len(r.Prescriptions) == 0 {
		p["action-plan"].Empty("No recommendations returned.")
		p["kpis"].Empty("No KPIs to track.")
	}
	kpis := 0
	for i, rx := range r.Prescriptions {
		p["action-plan"].Item(Item{
			Title:  format.Text(rx.Recommendation),
			Tone:   levelTone(rx.ImpactScore()),
			Badges: []string{"Impact: " + levelText(rx.Impact), "Effort: " + levelText(rx.Effort)},
			Fields: []Field{
				{Label: "Rationale", Value: format.Text(rx.Rationale)},
				{Label: "Expected Outcome", Value: format.Text(rx.ExpectedOutcome)},
			},
			Lists: []List{{Title: "Action Items", Items: rx.ActionItems, Ordered: true}},
		})
		if len(nonBlank(rx.KPIsToTrack)) > 0 {
			kpis++
			p["kpis"].List(List{Title: format.Count(i+1) + ". " + format.Text(rx.Recommendation), Items: rx.KPIsToTrack})
		}
	}
	if kpis == 0 && len(r.Prescriptions) > 0 {
		p["kpis"].Empty("No KPIs to track.")
	}
}

func (e *Engine) regression(p map[string]*panel, r *result.Regression) {
	m := r.ModelSummary
	p["summary"].Heading("Dependent variable: " + format.Text(m.DependentVariable))
	p["summary"].Cards(
		Card{Label: "Method", Value: format.Text(m.Method)},
		Card{Label: "R²", Value: format.Fixed(m.RSquared, 4), Tone: fitTone(m.RSquared, 0.7, 0.4)},
		Card{Label: "Adjusted R²", Value: format.Fixed(m.AdjRSquared, 4)},
		Card{Label: "F-statistic", Value: format.Fixed(m.FStatistic, 2)},
		Card{Label: "F p-value", Value: format.PValue(m.FPValue), Tone: sigTone(m.FPValue)},
		Card{Label: "Observations", Value: format.Count(m.Observations)},
	)

	table := Table{Headers: []string{"Variable", "Coefficient", "Std. Error", "t-value", "p-value", ""}}
	var names []string
	var coefs []float64
	for _, c := range r.Coefficients {
		table.Rows = append(table.Rows, Row{Cells: []Cell{
			e.labelCell(c.Variable),
			numCell(format.Fixed(c.Coefficient, 4)),
			numCell(format.Fixed(c.StdError, 4)),
			numCell(format.Fixed(c.TValue, 3)),
			numCell(format.PValue(c.PValue)),
			{Text: format.Stars(c.PValue), Class: "sig"},
		}})
		names = append(names, format.Truncate(c.Variable, e.labelWidth))
		coefs = append(coefs, c.Coefficient.Or(math.NaN()))
	}
	p["coefficients"].Table(table, "No coefficients returned.")
	if len(coefs) > 0 {
		fig, err := chart.Bar("Coefficients", names, coefs, "Variable", "Coefficient")
		p["coefficients"].Chart("Coefficients", fig, err)
	}
	p["coefficients"].Text("Significance: * p < 0.05, ** p < 0.01, *** p < 0.001")

	d := r.Diagnostics
	p["diagnostics"].Cards(
		Card{Label: "Durbin-Watson", Value: format.Fixed(d.DurbinWatson, 3), Hint: "≈ 2 means no autocorrelation", Tone: rangeTone(d.DurbinWatson, 1.5, 2.5)},
		Card{Label: "Jarque-Bera p", Value: format.PValue(d.JarqueBeraP), Hint: "> 0.05 means normal residuals", Tone: invSigTone(d.JarqueBeraP)},
		Card{Label: "Condition Number", Value: format.Fixed(d.ConditionNumber, 1), Hint: "< 30 means little multicollinearity", Tone: belowTone(d.ConditionNumber, 30, 100)},
	)
	if len(d.Residuals) > 0 {
		if len(d.Fitted) == len(d.Residuals) {
			fig, err := chart.Scatter("Residuals vs Fitted", result.Numbers(d.Fitted), result.Numbers(d.Residuals), "Fitted", "Residual")
			p["diagnostics"].Chart("Residuals vs Fitted", fig, err)
		}
		fig, err := chart.Histogram("Residual Distribution", "Residual", result.Numbers(d.Residuals), 0)
		p["diagnostics"].Chart("Residual Distribution", fig, err)
	}

	p["insights"].Insights("Model Insights", r.Insights)
}

// at returns ns[i], or an invalid Number when out of range.
func at(ns []result.Number, i int) result.Number {
	if i < 0 || i >= len(ns) {
		return result.Number{}
	}
	return ns[i]
}

func levelText(level string) string {
	switch result.LevelScore(level) {
	case result.LevelHigh:
		return "High"
	case result.LevelLow:
		return "Low"
	}
	return "Medium"
}

func levelTone(score float64) string {
	switch score {
	case result.LevelHigh:
		return toneGood
	case result.LevelLow:
		return toneNeutral
	}
	return toneWarn
}

// fitTone grades a goodness-of-fit value where higher is better.
func fitTone(n result.Number, good, fair float64) string {
	f, ok := n.Float()
	switch {
	case !ok:
		return ""
	case f >= good:
		return toneGood
	case f >= fair:
		return toneWarn
	default:
		return toneBad
	}
}

// belowTone grades a value where lower is better.
func belowTone(n result.Number, good, fair float64) string {
	f, ok := n.Float()
	switch {
	case !ok:
		return ""
	case f <= good:
		return toneGood
	case f <= fair:
		return toneWarn
	default:
		return toneBad
	}
}

func rangeTone(n result.Number, lo, hi float64) string {
	f, ok := n.Float()
	switch {
	case !ok:
		return ""
	case f >= lo && f <= hi:
		return toneGood
	default:
		return toneWarn
	}
}

// sigTone is good when p is significant at 5%.
func sigTone(p result.Number) string {
	f, ok := p.Float()
	switch {
	case !ok:
		return ""
	case f < 0.05:
		return toneGood
	default:
		return toneWarn
	}
}

// invSigTone is good when p is not significant, as for normality tests.
func invSigTone(p result.Number) string {
	f, ok := p.Float()
	switch {
	case !ok:
		return ""
	case f > 0.05:
		return toneGood
	default:
		return toneWarn
	}
}
