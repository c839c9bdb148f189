package result

// Predictive is the result of a forecasting run.
type Predictive struct {
	Predictions      Forecast         `json:"predictions"`
	DataSummary      ForecastData     `json:"data_summary"`
	ModelPerformance ModelPerformance `json:"model_performance"`
	Insights         []string         `json:"insights"`
}

func (*Predictive) Kind() Kind { return KindPredictive }

// Forecast holds the predicted series with optional confidence bounds and
// the historical series it was fitted on.
type Forecast struct {
	Dates            []string `json:"dates"`
	Values           []Number `json:"values"`
	LowerBound       []Number `json:"lower_bound"`
	UpperBound       []Number `json:"upper_bound"`
	HistoricalDates  []string `json:"historical_dates"`
	HistoricalValues []Number `json:"historical_values"`
}

// HasBand reports whether both bounds line up with the forecast.
func (f Forecast) HasBand() bool {
	n := len(f.Values)
	return n > 0 && len(f.LowerBound) == n && len(f.UpperBound) == n
}

// ForecastData describes the input time series.
type ForecastData struct {
	TargetVariable    string    `json:"target_variable"`
	TotalObservations Number    `json:"total_observations"`
	Frequency         string    `json:"frequency"`
	DateRange         DateRange `json:"date_range"`
	Mean              Number    `json:"mean"`
	Std               Number    `json:"std"`
	Min               Number    `json:"min"`
	Max               Number    `json:"max"`
}

// DateRange is an inclusive start/end pair as sent by the backend.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ModelPerformance carries goodness-of-fit metrics for a forecast model.
type ModelPerformance struct {
	ModelName string `json:"model_name"`
	MAE       Number `json:"mae"`
	RMSE      Number `json:"rmse"`
	MAPE      Number `json:"mape"`
	R2        Number `json:"r2"`
}

// Prescriptive is the result of a prescriptive (recommendation) run.
type Prescriptive struct {
	Prescriptions []Prescription `json:"prescriptions"`
	Summary       string         `json:"summary"`
	DataInsights  []string       `json:"data_insights"`
}

func (*Prescriptive) Kind() Kind { return KindPrescriptive }

// Prescription is one recommended action.
type Prescription struct {
	Recommendation  string   `json:"recommendation"`
	Impact          string   `json:"impact"`
	Effort          string   `json:"effort"`
	Rationale       string   `json:"rationale"`
	ActionItems     []string `json:"action_items"`
	KPIsToTrack     []string `json:"kpis_to_track"`
	ExpectedOutcome string   `json:"expected_outcome"`
}

// ImpactScore maps Impact onto the 1..3 scale.
func (p Prescription) ImpactScore() float64 { return LevelScore(p.Impact) }

// EffortScore maps Effort onto the 1..3 scale.
func (p Prescription) EffortScore() float64 { return LevelScore(p.Effort) }

// Regression is the result of a linear regression run.
type Regression struct {
	ModelSummary RegressionSummary     `json:"model_summary"`
	Coefficients []Coefficient         `json:"coefficients"`
	Diagnostics  RegressionDiagnostics `json:"diagnostics"`
	Insights     []string              `json:"insights"`
}

func (*Regression) Kind() Kind { return KindRegression }

// RegressionSummary holds model-level statistics.
type RegressionSummary struct {
	DependentVariable string `json:"dependent_variable"`
	Method            string `json:"method"`
	RSquared          Number `json:"r_squared"`
	AdjRSquared       Number `json:"adj_r_squared"`
	FStatistic        Number `json:"f_statistic"`
	FPValue           Number `json:"f_pvalue"`
	Observations      Number `json:"n_observations"`
}

// Coefficient is one row of the coefficient table.
type Coefficient struct {
	Variable    string `json:"variable"`
	Coefficient Number `json:"coefficient"`
	StdError    Number `json:"std_error"`
	TValue      Number `json:"t_value"`
	PValue      Number `json:"p_value"`
}

// RegressionDiagnostics holds residual diagnostics.
type RegressionDiagnostics struct {
	Fitted          []Number `json:"fitted_values"`
	Residuals       []Number `json:"residuals"`
	DurbinWatson    Number   `json:"durbin_watson"`
	JarqueBeraP     Number   `json:"jarque_bera_p"`
	ConditionNumber Number   `json:"condition_number"`
}
