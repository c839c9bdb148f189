package result

import "encoding/json"

// ThreeHorizons is the result of a three-horizons growth analysis.
type ThreeHorizons struct {
	Horizon1        Horizon  `json:"horizon_1"`
	Horizon2        Horizon  `json:"horizon_2"`
	Horizon3        Horizon  `json:"horizon_3"`
	Recommendations []string `json:"recommendations"`
}

func (*ThreeHorizons) Kind() Kind { return KindThreeHorizons }

// Horizons returns the three horizons in order.
func (t *ThreeHorizons) Horizons() []Horizon {
	return []Horizon{t.Horizon1, t.Horizon2, t.Horizon3}
}

// Horizon is one growth horizon and its initiatives.
type Horizon struct {
	Title       string       `json:"title"`
	Timeframe   string       `json:"timeframe"`
	Description string       `json:"description"`
	Investment  Number       `json:"investment_percentage"`
	Initiatives []Initiative `json:"initiatives"`
}

// Initiative is a concrete piece of work inside a horizon.
type Initiative struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

// CreativeDissonance contrasts a vision with current reality.
type CreativeDissonance struct {
	Vision         VisionState  `json:"vision"`
	CurrentReality RealityState `json:"current_reality"`
	TensionGaps    []TensionGap `json:"tension_gaps"`
	ActionSteps    []ActionStep `json:"action_steps"`
}

func (*CreativeDissonance) Kind() Kind { return KindCreativeDissonance }

// VisionState is the desired future state.
type VisionState struct {
	Statement string   `json:"statement"`
	Elements  []string `json:"elements"`
}

// RealityState is the assessed present state.
type RealityState struct {
	Assessment  string   `json:"assessment"`
	Strengths   []string `json:"strengths"`
	Constraints []string `json:"constraints"`
}

// TensionGap is one area where reality falls short of the vision.
type TensionGap struct {
	Area       string   `json:"area"`
	Current    string   `json:"current"`
	Desired    string   `json:"desired"`
	GapScore   Number   `json:"gap_score"`
	Strategies []string `json:"strategies"`
}

// ActionStep closes part of a tension gap.
type ActionStep struct {
	Step     string `json:"step"`
	Owner    string `json:"owner"`
	Timeline string `json:"timeline"`
	Impact   string `json:"impact"`
}

// LivingSystem models an organisation as interacting components and loops.
type LivingSystem struct {
	Overview        string            `json:"system_overview"`
	Components      []SystemComponent `json:"components"`
	FeedbackLoops   []FeedbackLoop    `json:"feedback_loops"`
	LeveragePoints  []LeveragePoint   `json:"leverage_points"`
	Recommendations []string          `json:"recommendations"`
}

func (*LivingSystem) Kind() Kind { return KindLivingSystem }

// SystemComponent is one part of the living system.
type SystemComponent struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	HealthScore Number   `json:"health_score"`
	Connections []string `json:"connections"`
}

// FeedbackLoop types.
const (
	LoopReinforcing = "reinforcing"
	LoopBalancing   = "balancing"
)

// FeedbackLoop is a reinforcing or balancing causal loop.
type FeedbackLoop struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Elements    []string `json:"elements"`
}

// LeveragePoint is a place where a small change shifts the system.
type LeveragePoint struct {
	Point       string `json:"point"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
}

// LadderOfInference walks from observable data up to actions.
type LadderOfInference struct {
	Rungs               []Rung            `json:"rungs"`
	Assumptions         []AssumptionCheck `json:"assumptions"`
	ReflectionQuestions []string          `json:"reflection_questions"`
	Recommendations     []string          `json:"recommendations"`
}

func (*LadderOfInference) Kind() Kind { return KindLadderOfInference }

// Rung is one step on the ladder.
type Rung struct {
	Level   Number `json:"level"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// AssumptionCheck challenges one assumption made while climbing the ladder.
type AssumptionCheck struct {
	Assumption  string `json:"assumption"`
	Challenge   string `json:"challenge"`
	Alternative string `json:"alternative"`
}

// MissionVision is the result of the mission-vision workflow.
type MissionVision struct {
	Mission string          `json:"mission"`
	Vision  string          `json:"vision"`
	Values  []CoreValue     `json:"values"`
	Goals   []StrategicGoal `json:"goals"`
}

func (*MissionVision) Kind() Kind { return KindMissionVision }

// CoreValue is one organisational value. SourceNote records where a merged
// entry came from.
type CoreValue struct {
	Value       string `json:"value"`
	Description string `json:"description"`
	SourceNote  string `json:"source_note,omitempty"`
}

// StrategicGoal is one long-term goal.
type StrategicGoal struct {
	GoalName    string   `json:"goal_name"`
	Description string   `json:"description"`
	Timeframe   string   `json:"timeframe"`
	Metrics     []string `json:"metrics"`
	SourceNote  string   `json:"source_note,omitempty"`
}

// Objectives wraps the raw objective sets produced by the local model and
// the workflow engine side by side.
type Objectives struct {
	LocalModel json.RawMessage `json:"local_model_result"`
	Workflow   json.RawMessage `json:"workflow_result"`
}

func (*Objectives) Kind() Kind { return KindObjectives }

// ObjectiveSet is the expected shape of each side of Objectives.
type ObjectiveSet struct {
	Summary    string      `json:"summary"`
	Objectives []Objective `json:"objectives"`
}

// Objective is one objective with its key results.
type Objective struct {
	Objective  string   `json:"objective"`
	KeyResults []string `json:"key_results"`
	Timeline   string   `json:"timeline"`
	Owner      string   `json:"owner"`
}

// ParseObjectiveSet decodes one side of Objectives. ok is false when the raw
// payload does not have the expected shape.
func ParseObjectiveSet(raw json.RawMessage) (set ObjectiveSet, ok bool) {
	if len(raw) == 0 {
		return set, false
	}
	if err := json.Unmarshal(raw, &set); err != nil {
		return ObjectiveSet{}, false
	}
	return set, len(set.Objectives) > 0 || set.Summary != ""
}
