package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/ziadkadry99/sage/internal/result"
)

// Tab is one button in the tab nav together with its panel.
type Tab struct {
	ID      string
	Label   string
	PanelID string
	Active  bool
	Body    template.HTML
}

// Page is a rendered analysis: a tab nav and one panel per tab. Exactly one
// tab is active at a time.
type Page struct {
	ID          string
	Kind        result.Kind
	ResizeDelay int
	Tabs        []*Tab
}

type tabDef struct {
	id    string
	label string
}

// learnMoreTab closes every tab set.
var learnMoreTab = tabDef{"learn-more", "Learn More"}

var tabSets = map[result.Kind][]tabDef{
	result.KindDescriptive: {
		{"summary", "Summary"}, {"numerical", "Numerical"}, {"categorical", "Categorical"},
		{"charts", "Charts"}, {"insights", "Insights"}, learnMoreTab,
	},
	result.KindPredictive: {
		{"forecast", "Forecast"}, {"performance", "Performance"}, {"data-summary", "Data Summary"},
		{"insights", "Insights"}, learnMoreTab,
	},
	result.KindPrescriptive: {
		{"overview", "Overview"}, {"matrix", "Priority Matrix"}, {"action-plan", "Action Plan"},
		{"kpis", "KPIs"}, learnMoreTab,
	},
	result.KindVisualization: {
		{"charts", "Charts"}, {"catalog", "Catalog"}, {"insights", "Insights"}, learnMoreTab,
	},
	result.KindRegression: {
		{"summary", "Model Summary"}, {"coefficients", "Coefficients"}, {"diagnostics", "Diagnostics"},
		{"insights", "Insights"}, learnMoreTab,
	},
	result.KindPLSSEM: {
		{"path-model", "Path Model"}, {"paths", "Path Coefficients"}, {"reliability", "Reliability"},
		{"r-squared", "R²"}, {"insights", "Insights"}, learnMoreTab,
	},
	result.KindDEMATEL: {
		{"overview", "Overview"}, {"matrix", "Total Relation"}, {"cause-effect", "Cause & Effect"},
		{"insights", "Insights"}, learnMoreTab,
	},
	result.KindSEM: {
		{"diagram", "Path Diagram"}, {"measurement", "Measurement"}, {"structural", "Structural"},
		{"covariances", "Covariances"}, {"fit", "Model Fit"}, learnMoreTab,
	},
	result.KindThreeHorizons: {
		{"overview", "Overview"}, {"horizon-1", "Horizon 1"}, {"horizon-2", "Horizon 2"},
		{"horizon-3", "Horizon 3"}, {"recommendations", "Recommendations"}, learnMoreTab,
	},
	result.KindCreativeDissonance: {
		{"vision-reality", "Vision & Reality"}, {"tension-gaps", "Tension Gaps"},
		{"action-steps", "Action Steps"}, learnMoreTab,
	},
	result.KindLivingSystem: {
		{"overview", "Overview"}, {"components", "Components"}, {"feedback-loops", "Feedback Loops"},
		{"leverage-points", "Leverage Points"}, learnMoreTab,
	},
	result.KindLadderOfInference: {
		{"ladder", "Ladder"}, {"assumptions", "Assumptions"}, {"reflection", "Reflection"},
		{"recommendations", "Recommendations"}, learnMoreTab,
	},
	result.KindMissionVision: {
		{"statements", "Mission & Vision"}, {"values", "Core Values"}, {"goals", "Strategic Goals"},
		learnMoreTab,
	},
	result.KindObjectives: {
		{"local", "Local Model"}, {"workflow", "Workflow"}, {"comparison", "Comparison"},
		learnMoreTab,
	},
}

// TabIDs returns the fixed tab ids for kind, in display order.
func TabIDs(kind result.Kind) []string {
	defs := tabSets[kind]
	ids := make([]string, len(defs))
	for i, d := range defs {
		ids[i] = d.id
	}
	return ids
}

// newPage builds the tab set for kind with the first tab active.
func newPage(id string, kind result.Kind, resizeDelay int) *Page {
	defs := tabSets[kind]
	p := &Page{ID: id, Kind: kind, ResizeDelay: resizeDelay, Tabs: make([]*Tab, len(defs))}
	for i, d := range defs {
		p.Tabs[i] = &Tab{ID: d.id, Label: d.label, PanelID: id + "-" + d.id, Active: i == 0}
	}
	return p
}

// Tab returns the tab with the given id, or nil.
func (p *Page) Tab(id string) *Tab {
	for _, t := range p.Tabs {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// Active returns the active tab.
func (p *Page) Active() *Tab {
	for _, t := range p.Tabs {
		if t.Active {
			return t
		}
	}
	return nil
}

// Activate makes id the only active tab. Activating the active tab changes
// nothing; an unknown id leaves the page untouched and reports false.
func (p *Page) Activate(id string) bool {
	if p.Tab(id) == nil {
		return false
	}
	for _, t := range p.Tabs {
		t.Active = t.ID == id
	}
	return true
}

// HTML renders the page markup.
func (p *Page) HTML() (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "page", p); err != nil {
		return "", fmt.Errorf("rendering page: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Container is the target a page is rendered into. It stands in for the
// host page's DOM element and holds the last markup written to it.
type Container struct {
	mu   sync.Mutex
	id   string
	html string
}

// NewContainer returns an empty container. An empty id gets a generated one.
func NewContainer(id string) *Container {
	if id == "" {
		id = "sage-" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	}
	return &Container{id: id}
}

// ID returns the container id, used as the prefix of every panel id.
func (c *Container) ID() string { return c.id }

// Reset clears the container.
func (c *Container) Reset() { c.set("") }

// HTML returns the container's current markup.
func (c *Container) HTML() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.html
}

func (c *Container) set(html string) {
	c.mu.Lock()
	c.html = html
	c.mu.Unlock()
}
