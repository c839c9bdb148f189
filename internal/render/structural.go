package render

import (
	"fmt"
	"log"
	"math"
	"sort"
	"strings"

	"github.com/ziadkadry99/sage/internal/chart"
	"github.com/ziadkadry99/sage/internal/csvtable"
	"github.com/ziadkadry99/sage/internal/diagram"
	"github.com/ziadkadry99/sage/internal/format"
	"github.com/ziadkadry99/sage/internal/result"
)

func (e *Engine) plsSEM(p map[string]*panel, r *result.PLSSEM) {
	dot := r.PathDiagram
	if strings.TrimSpace(dot) == "" {
		dot = diagram.PathModel(r.PathCoefficients)
	}
	p["path-model"].Diagram(dot)
	p["path-model"].Text("Edge labels show path coefficients. Stars mark significance: * p < 0.05, ** p < 0.01, *** p < 0.001.")

	paths := Table{Headers: []string{"From", "To", "β", "t-statistic", "p-value", "Significant"}}
	for _, pc := range r.PathCoefficients {
		sig, tone := "No", "fail"
		if f, ok := pc.PValue.Float(); ok && f < 0.05 {
			sig, tone = "Yes "+format.Stars(pc.PValue), "pass"
		} else if !ok {
			sig, tone = format.NA, ""
		}
		paths.Rows = append(paths.Rows, Row{Cells: []Cell{
			e.labelCell(pc.From),
			e.labelCell(pc.To),
			numCell(format.Fixed(pc.Coefficient, 3)),
			numCell(format.Fixed(pc.TStatistic, 2)),
			numCell(format.PValue(pc.PValue)),
			{Text: sig, Class: tone},
		}})
	}
	p["paths"].Table(paths, "No structural paths returned.")

	rel := Table{
		Caption: fmt.Sprintf("Thresholds: α ≥ %.2f, CR ≥ %.2f, AVE ≥ %.2f", result.MinCronbachAlpha, result.MinCompositeReliability, result.MinAVE),
		Headers: []string{"Construct", "Cronbach's α", "Composite Reliability", "AVE"},
	}
	for _, c := range r.Reliability {
		rel.Rows = append(rel.Rows, Row{Cells: []Cell{
			e.labelCell(c.Construct),
			thresholdCell(c.CronbachAlpha, result.MinCronbachAlpha),
			thresholdCell(c.CompositeReliability, result.MinCompositeReliability),
			thresholdCell(c.AVE, result.MinAVE),
		}})
	}
	p["reliability"].Table(rel, "No reliability measures returned.")
	if len(r.OuterLoadings) > 0 {
		loadings := Table{Caption: "Outer Loadings", Headers: []string{"Construct", "Indicator", "Loading"}}
		for _, l := range r.OuterLoadings {
			loadings.Rows = append(loadings.Rows, Row{Cells: []Cell{
				e.labelCell(l.Construct),
				e.labelCell(l.Indicator),
				thresholdCell(l.Loading, 0.7),
			}})
		}
		p["reliability"].Table(loadings, "")
	}

	constructs := r.Constructs()
	if len(constructs) == 0 {
		p["r-squared"].Empty("No R² values returned.")
	} else {
		values := make([]float64, len(constructs))
		table := Table{Headers: []string{"Construct", "R²", "Explanatory Power"}}
		for i, c := range constructs {
			n := r.RSquared[c]
			values[i] = n.Or(math.NaN())
			table.Rows = append(table.Rows, Row{Cells: []Cell{
				e.labelCell(c),
				numCell(format.Fixed(n, 3)),
				{Text: explanatoryPower(n)},
			}})
		}
		fig, err := chart.Bar("R² by Construct", constructs, values, "Construct", "R²")
		p["r-squared"].Chart("R² by Construct", fig, err)
		p["r-squared"].Table(table, "")
	}

	p["insights"].Insights("Model Insights", r.Insights)
}

func (e *Engine) dematel(p map[string]*panel, r *result.DEMATEL) {
	n := len(r.Factors)
	causes, effects := r.CauseGroup, r.EffectGroup
	if len(causes) == 0 && len(effects) == 0 {
		for i, f := range r.Factors {
			if at(r.Relation, i).Or(0) >= 0 {
				causes = append(causes, f)
			} else {
				effects = append(effects, f)
			}
		}
	}

	p["overview"].Cards(
		Card{Label: "Factors", Value: format.Count(n)},
		Card{Label: "Cause Factors", Value: format.Count(len(causes)), Tone: toneGood},
		Card{Label: "Effect Factors", Value: format.Count(len(effects)), Tone: toneWarn},
		Card{Label: "Threshold", Value: format.Fixed(r.Threshold, 3)},
	)
	table := Table{Headers: []string{"Factor", "Prominence (D+R)", "Relation (D-R)", "Group"}}
	for i, f := range r.Factors {
		rel := at(r.Relation, i)
		group, tone := format.NA, ""
		if v, ok := rel.Float(); ok {
			group, tone = "Cause", "pass"
			if v < 0 {
				group, tone = "Effect", "fail"
			}
		}
		table.Rows = append(table.Rows, Row{Cells: []Cell{
			e.labelCell(f),
			numCell(format.Fixed(at(r.Prominence, i), 3)),
			numCell(format.Fixed(rel, 3)),
			{Text: group, Class: tone},
		}})
	}
	p["overview"].Table(table, "No factors returned.")

	labels := make([]string, n)
	for i, f := range r.Factors {
		labels[i] = format.Truncate(f, 18)
	}
	fig, err := chart.Heatmap("Total Relation Matrix", matrix(r.TotalMatrix), labels, labels)
	p["matrix"].Chart("Total Relation Matrix", fig, err)
	if len(r.DirectMatrix) > 0 {
		fig, err := chart.Heatmap("Direct Relation Matrix", matrix(r.DirectMatrix), labels, labels)
		p["matrix"].Chart("Direct Relation Matrix", fig, err)
	}

	prominence := make([]float64, n)
	relation := make([]float64, n)
	for i := range r.Factors {
		prominence[i] = at(r.Prominence, i).Or(math.NaN())
		relation[i] = at(r.Relation, i).Or(math.NaN())
	}
	fig, err = chart.CauseEffect("Cause & Effect Diagram", labels, prominence, relation)
	p["cause-effect"].Chart("Cause & Effect Diagram", fig, err)
	p["cause-effect"].List(List{Title: "Cause Group", Items: causes})
	p["cause-effect"].List(List{Title: "Effect Group", Items: effects})

	p["insights"].Insights("Key Insights", r.Insights)
}

// Column aliases seen in estimates CSV exports.
var (
	colEstimate = []string{"Estimate", "est", "estimate"}
	colStdErr   = []string{"Std. Err", "Std.Err", "se", "std_err"}
	colZ        = []string{"z-value", "z", "z_value"}
	colP        = []string{"p-value", "P(>|z|)", "pvalue", "p_value"}
	colStd      = []string{"Std.all", "std.all", "Std. all", "est.std"}
)

func (e *Engine) sem(p map[string]*panel, r *result.SEM) {
	p["diagram"].Diagram(r.PathDiagram)
	if strings.TrimSpace(r.ModelSyntax) != "" {
		p["diagram"].Heading("Model Specification")
		p["diagram"].exec("code", r.ModelSyntax)
	}

	estimates, err := csvtable.Parse(r.EstimatesCSV)
	if err != nil {
		log.Printf("render: sem estimates: %v", err)
		for _, id := range []string{"measurement", "structural", "covariances"} {
			p[id].exec("chart-error", struct{ Title, Message string }{"Estimates", "the estimates table could not be parsed."})
		}
	} else {
		p["measurement"].Table(e.estimatesTable(estimates, result.OpMeasurement, "Latent", "Indicator"),
			"No measurement paths in this model.")
		p["structural"].Table(e.estimatesTable(estimates, result.OpRegression, "Outcome", "Predictor"),
			"No structural paths in this model.")
		p["covariances"].Table(e.estimatesTable(estimates, result.OpCovariance, "Variable", "With"),
			"No covariances in this model.")
	}

	fit, err := csvtable.Parse(r.FitIndicesCSV)
	if err != nil {
		log.Printf("render: sem fit indices: %v", err)
		p["fit"].exec("chart-error", struct{ Title, Message string }{"Fit Indices", "the fit indices could not be parsed."})
	} else {
		indices := fitIndices(fit)
		var cards []Card
		for _, name := range []string{"cfi", "tli", "rmsea", "srmr"} {
			if v, ok := indices[name]; ok {
				cards = append(cards, Card{Label: strings.ToUpper(name), Value: format.Fixed(v, 3), Tone: fitIndexTone(name, v)})
			}
		}
		p["fit"].Cards(cards...)
		table := Table{Headers: []string{"Index", "Value"}}
		for _, name := range sortedIndexNames(indices) {
			table.Rows = append(table.Rows, Row{Cells: []Cell{{Text: strings.ToUpper(name)}, numCell(format.Fixed(indices[name], 3))}})
		}
		p["fit"].Table(table, "No fit indices returned.")
		p["fit"].Text("Good fit: CFI and TLI ≥ 0.95, RMSEA ≤ 0.06, SRMR ≤ 0.08.")
	}

	p["diagram"].List(List{Title: "Insights", Items: r.Insights})
}

func (e *Engine) estimatesTable(t *csvtable.Table, op, left, right string) Table {
	out := Table{Headers: []string{left, right, "Estimate", "Std. Error", "z-value", "p-value", "Std. Estimate"}}
	for _, row := range t.Filter("op", op) {
		out.Rows = append(out.Rows, Row{Cells: []Cell{
			e.labelCell(cellText(pick(row, "lval", "lhs"))),
			e.labelCell(cellText(pick(row, "rval", "rhs"))),
			numCell(format.Fixed(pick(row, colEstimate...), 3)),
			numCell(format.Fixed(pick(row, colStdErr...), 3)),
			numCell(format.Fixed(pick(row, colZ...), 3)),
			numCell(format.PValue(pick(row, colP...))),
			numCell(format.Fixed(pick(row, colStd...), 3)),
		}})
	}
	return out
}

// pick returns the first non-nil value among the named columns.
func pick(row csvtable.Row, columns ...string) any {
	for _, c := range columns {
		if v, ok := row[c]; ok && v != nil {
			return v
		}
	}
	return nil
}

func cellText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// fitIndices reads either a long table (index name and value columns) or a
// wide one-row table (one column per index). Names are lower-cased.
func fitIndices(t *csvtable.Table) map[string]any {
	out := make(map[string]any)
	nameCol, valueCol := "", ""
	for _, h := range t.Headers {
		switch strings.ToLower(h) {
		case "index", "measure", "metric", "fit_index", "name":
			nameCol = h
		case "value", "estimate":
			valueCol = h
		}
	}
	if nameCol != "" && valueCol != "" {
		for _, row := range t.Rows {
			if name := strings.ToLower(strings.TrimSpace(cellText(row[nameCol]))); name != "" && row[valueCol] != nil {
				out[name] = row[valueCol]
			}
		}
		return out
	}
	if len(t.Rows) == 0 {
		return out
	}
	for _, h := range t.Headers {
		if v := t.Rows[0][h]; v != nil {
			if _, ok := format.Float(v); ok {
				out[strings.ToLower(h)] = v
			}
		}
	}
	return out
}

func sortedIndexNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func fitIndexTone(name string, v any) string {
	f, ok := format.Float(v)
	if !ok {
		return ""
	}
	n := result.Num(f)
	switch name {
	case "cfi", "tli":
		return fitTone(n, 0.95, 0.90)
	case "rmsea":
		return belowTone(n, 0.06, 0.08)
	case "srmr":
		return belowTone(n, 0.08, 0.10)
	}
	return ""
}

func thresholdCell(n result.Number, threshold float64) Cell {
	c := numCell(format.Fixed(n, 3))
	if f, ok := n.Float(); ok {
		if f >= threshold {
			c.Class += " pass"
		} else {
			c.Class += " fail"
		}
	}
	return c
}

func explanatoryPower(n result.Number) string {
	f, ok := n.Float()
	switch {
	case !ok:
		return format.NA
	case f >= 0.75:
		return "Substantial"
	case f >= 0.50:
		return "Moderate"
	case f >= 0.25:
		return "Weak"
	default:
		return "Very weak"
	}
}

func matrix(rows [][]result.Number) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = result.Numbers(r)
	}
	return out
}
