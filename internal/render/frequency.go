package render

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/ziadkadry99/sage/internal/format"
	"github.com/ziadkadry99/sage/internal/result"
)

// OtherLabel names the row that absorbs categories beyond the top N.
const OtherLabel = "Other"

// CollapseFrequencies keeps the top categories by count and folds the rest
// into a single "Other" row whose count and percentage are the sums of the
// folded rows. Rows without a count sort last. top <= 0 keeps every row.
func CollapseFrequencies(rows []result.FrequencyRow, top int) []result.FrequencyRow {
	sorted := make([]result.FrequencyRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, aok := sorted[i].Count.Float()
		b, bok := sorted[j].Count.Float()
		if aok != bok {
			return aok
		}
		return a > b
	})
	if top <= 0 || len(sorted) <= top {
		return sorted
	}

	var count, pct float64
	for _, r := range sorted[top:] {
		count += r.Count.Or(0)
		pct += r.Percentage.Or(0)
	}
	out := make([]result.FrequencyRow, top, top+1)
	copy(out, sorted[:top])
	return append(out, result.FrequencyRow{
		Value:      OtherLabel,
		Count:      result.Num(count),
		Percentage: result.Num(pct),
	})
}

// frequencyTable lays out collapsed frequencies as a table.
func (e *Engine) frequencyTable(caption string, rows []result.FrequencyRow) Table {
	t := Table{Caption: caption, Headers: []string{"Category", "Count", "Percentage"}}
	for _, r := range CollapseFrequencies(rows, e.topCategories) {
		row := Row{Cells: []Cell{
			e.labelCell(r.Value.String()),
			{Text: format.Count(r.Count), Class: "num"},
			{Text: format.Percent(r.Percentage, 2), Class: "num"},
		}}
		if r.Value == OtherLabel {
			row.Class = "sage-other"
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// labelCell truncates long labels for display and keeps the full text as
// a tooltip.
func (e *Engine) labelCell(label string) Cell {
	label = format.Text(label)
	short := format.Truncate(label, e.labelWidth)
	c := Cell{Text: short}
	if short != label {
		c.Title = label
	}
	return c
}

// decodeFrequencies accepts either a list of {value, count, percentage}
// rows or an object of category to count.
func decodeFrequencies(raw json.RawMessage, rows *[]result.FrequencyRow) error {
	if len(raw) == 0 {
		return errors.New("no frequency data")
	}
	if err := json.Unmarshal(raw, rows); err == nil {
		return nil
	}
	var counts map[string]result.Number
	if err := json.Unmarshal(raw, &counts); err != nil {
		return err
	}
	var total float64
	for _, n := range counts {
		total += n.Or(0)
	}
	out := make([]result.FrequencyRow, 0, len(counts))
	for k, n := range counts {
		r := result.FrequencyRow{Value: result.Text(k), Count: n}
		if total > 0 {
			r.Percentage = result.Num(n.Or(0) / total * 100)
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Count.Or(0), out[j].Count.Or(0)
		if a != b {
			return a > b
		}
		return out[i].Value < out[j].Value
	})
	*rows = out
	return nil
}
