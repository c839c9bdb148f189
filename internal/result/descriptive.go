package result

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Descriptive is the result of a descriptive statistics run.
type Descriptive struct {
	Summary            DatasetSummary              `json:"summary"`
	NumericalSummary   map[string]NumericStats     `json:"numerical_summary"`
	CategoricalSummary map[string]CategoricalStats `json:"categorical_summary"`
	Visualizations     []Visualization             `json:"visualizations"`
	BusinessInsights   []string                    `json:"business_insights"`
}

func (*Descriptive) Kind() Kind { return KindDescriptive }

// DatasetSummary describes the analysed dataset as a whole.
type DatasetSummary struct {
	TotalRows          Number `json:"total_rows"`
	TotalColumns       Number `json:"total_columns"`
	NumericalColumns   Number `json:"numerical_columns"`
	CategoricalColumns Number `json:"categorical_columns"`
	MissingValues      Number `json:"missing_values"`
	DuplicateRows      Number `json:"duplicate_rows"`
}

// NumericStats mirrors a pandas describe() column plus shape statistics.
type NumericStats struct {
	Count    Number `json:"count"`
	Mean     Number `json:"mean"`
	Std      Number `json:"std"`
	Min      Number `json:"min"`
	Q1       Number `json:"25%"`
	Median   Number `json:"50%"`
	Q3       Number `json:"75%"`
	Max      Number `json:"max"`
	Skewness Number `json:"skewness"`
	Kurtosis Number `json:"kurtosis"`
	Missing  Number `json:"missing"`
}

// CategoricalStats summarises one categorical column.
type CategoricalStats struct {
	UniqueCount Number         `json:"unique_count"`
	Mode        Text           `json:"mode"`
	Frequencies []FrequencyRow `json:"frequencies"`
}

// FrequencyRow is one category with its count and share in percent.
type FrequencyRow struct {
	Value      Text   `json:"value"`
	Count      Number `json:"count"`
	Percentage Number `json:"percentage"`
}

// NumericColumns returns the numerical summary keys sorted by name.
func (d *Descriptive) NumericColumns() []string {
	return sortedKeys(d.NumericalSummary)
}

// CategoricalColumns returns the categorical summary keys sorted by name.
func (d *Descriptive) CategoricalColumns() []string {
	return sortedKeys(d.CategoricalSummary)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Visualization describes one chart. Which fields are used depends on
// ChartType; Data carries the type-specific payload when x/y/labels are not used.
// An entry that does not decode keeps its chart type and title and carries
// the decode failure in Err, so only that chart is lost.
type Visualization struct {
	ChartType string          `json:"chart_type"`
	Title     string          `json:"title"`
	Variable  string          `json:"variable"`
	X         []any           `json:"x"`
	Y         []any           `json:"y"`
	Z         [][]Number      `json:"z"`
	Labels    []Text          `json:"labels"`
	Values    []Number        `json:"values"`
	Parents   []Text          `json:"parents"`
	Lower     []Number        `json:"lower"`
	Upper     []Number        `json:"upper"`
	XLabel    string          `json:"x_label"`
	YLabel    string          `json:"y_label"`
	Bins      Number          `json:"bins"`
	Hole      Number          `json:"hole"`
	Data      json.RawMessage `json:"data"`

	Err error `json:"-"`
}

func (v *Visualization) UnmarshalJSON(b []byte) error {
	type plain Visualization
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		var head struct {
			ChartType Text `json:"chart_type"`
			Title     Text `json:"title"`
			Variable  Text `json:"variable"`
		}
		if json.Unmarshal(b, &head) != nil {
			head.ChartType, head.Title, head.Variable = "", "", ""
		}
		*v = Visualization{
			ChartType: head.ChartType.String(),
			Title:     head.Title.String(),
			Variable:  head.Variable.String(),
			Err:       fmt.Errorf("%w: %v", ErrMalformedVisualization, err),
		}
		return nil
	}
	*v = Visualization(p)
	return nil
}

// VisualizationSet is the result of a pure visualization run.
type VisualizationSet struct {
	Visualizations []Visualization `json:"visualizations"`
	Summary        string          `json:"summary"`
	Insights       []string        `json:"insights"`
}

func (*VisualizationSet) Kind() Kind { return KindVisualization }
