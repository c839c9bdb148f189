package result

// PLSSEM is the result of a partial least squares structural equation model.
type PLSSEM struct {
	PathCoefficients []PathCoefficient     `json:"path_coefficients"`
	Reliability      []ConstructReliability `json:"reliability"`
	RSquared         map[string]Number      `json:"r_squared"`
	OuterLoadings    []Loading              `json:"outer_loadings"`
	PathDiagram      string                 `json:"path_diagram_dot"`
	Insights         []string               `json:"insights"`
}

func (*PLSSEM) Kind() Kind { return KindPLSSEM }

// Constructs returns the R² keys sorted by name.
func (p *PLSSEM) Constructs() []string { return sortedKeys(p.RSquared) }

// PathCoefficient is one structural path between constructs.
type PathCoefficient struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Coefficient Number `json:"coefficient"`
	TStatistic  Number `json:"t_statistic"`
	PValue      Number `json:"p_value"`
}

// ConstructReliability holds internal consistency measures for a construct.
type ConstructReliability struct {
	Construct            string `json:"construct"`
	CronbachAlpha        Number `json:"cronbach_alpha"`
	CompositeReliability Number `json:"composite_reliability"`
	AVE                  Number `json:"ave"`
}

// Reliability thresholds commonly applied to PLS-SEM measurement models.
const (
	MinCronbachAlpha        = 0.7
	MinCompositeReliability = 0.7
	MinAVE                  = 0.5
)

// Loading is an indicator's outer loading on its construct.
type Loading struct {
	Construct string `json:"construct"`
	Indicator string `json:"indicator"`
	Loading   Number `json:"loading"`
}

// SEM is the result of a covariance-based SEM run. Estimates and fit indices
// arrive as CSV text embedded in the JSON payload.
type SEM struct {
	EstimatesCSV  string   `json:"estimates_csv_content"`
	FitIndicesCSV string   `json:"fit_indices_csv_content"`
	PathDiagram   string   `json:"path_diagram_dot"`
	ModelSyntax   string   `json:"model_syntax"`
	Insights      []string `json:"insights"`
}

func (*SEM) Kind() Kind { return KindSEM }

// SEM estimate operators.
const (
	OpMeasurement = "=~"
	OpRegression  = "~"
	OpCovariance  = "~~"
)

// DEMATEL is the result of a decision-making trial and evaluation laboratory run.
type DEMATEL struct {
	Factors      []string   `json:"factors"`
	DirectMatrix [][]Number `json:"direct_relation_matrix"`
	TotalMatrix  [][]Number `json:"total_relation_matrix"`
	Prominence   []Number   `json:"prominence"`
	Relation     []Number   `json:"relation"`
	CauseGroup   []string   `json:"cause_group"`
	EffectGroup  []string   `json:"effect_group"`
	Threshold    Number     `json:"threshold"`
	Insights     []string   `json:"insights"`
}

func (*DEMATEL) Kind() Kind { return KindDEMATEL }
