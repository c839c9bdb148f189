package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ziadkadry99/sage/internal/chart"
	"github.com/ziadkadry99/sage/internal/diagram"
	"github.com/ziadkadry99/sage/internal/format"
	"github.com/ziadkadry99/sage/internal/result"
)

func (e *Engine) threeHorizons(p map[string]*panel, r *result.ThreeHorizons) {
	horizons := r.Horizons()
	labels := make([]string, len(horizons))
	invest := make([]float64, len(horizons))
	cards := make([]Card, len(horizons))
	for i, h := range horizons {
		name := fmt.Sprintf("Horizon %d", i+1)
		labels[i] = name
		if h.Title != "" {
			labels[i] = name + ": " + format.Truncate(h.Title, 24)
		}
		invest[i] = h.Investment.Or(math.NaN())
		cards[i] = Card{Label: name, Value: format.Percent(h.Investment, 0), Hint: format.Text(h.Timeframe)}
	}
	p["overview"].Cards(cards...)
	fig, err := chart.Pie("Investment Allocation", labels, invest, 0.45)
	p["overview"].Chart("Investment Allocation", fig, err)

	for i, h := range horizons {
		pn := p[fmt.Sprintf("horizon-%d", i+1)]
		pn.Heading(format.Text(h.Title))
		pn.Text(h.Description)
		pn.Cards(
			Card{Label: "Timeframe", Value: format.Text(h.Timeframe)},
			Card{Label: "Investment", Value: format.Percent(h.Investment, 0)},
			Card{Label: "Initiatives", Value: format.Count(len(h.Initiatives))},
		)
		if len(h.Initiatives) == 0 {
			pn.Empty("No initiatives listed for this horizon.")
		}
		for _, in := range h.Initiatives {
			it := Item{Title: in.Name, Fields: []Field{{Label: "Description", Value: format.Text(in.Description)}}}
			if in.Priority != "" {
				it.Badges = []string{"Priority: " + in.Priority}
				it.Tone = levelTone(result.LevelScore(in.Priority))
			}
			pn.Item(it)
		}
	}

	if len(nonBlank(r.Recommendations)) == 0 {
		p["recommendations"].Empty("No recommendations returned.")
	}
	p["recommendations"].List(List{Items: r.Recommendations, Ordered: true})
}

func (e *Engine) creativeDissonance(p map[string]*panel, r *result.CreativeDissonance) {
	vr := p["vision-reality"]
	vr.Callout("Vision", r.Vision.Statement, toneGood)
	vr.List(List{Title: "Vision Elements", Items: r.Vision.Elements})
	vr.Callout("Current Reality", r.CurrentReality.Assessment, toneWarn)
	vr.List(List{Title: "Strengths", Items: r.CurrentReality.Strengths})
	vr.List(List{Title: "Constraints", Items: r.CurrentReality.Constraints})

	tg := p["tension-gaps"]
	if len(r.TensionGaps) == 0 {
		tg.Empty("No tension gaps identified.")
	} else {
		areas := make([]string, len(r.TensionGaps))
		scores := make([]float64, len(r.TensionGaps))
		for i, g := range r.TensionGaps {
			areas[i] = format.Truncate(format.Text(g.Area), 24)
			scores[i] = g.GapScore.Or(math.NaN())
		}
		fig, err := chart.Bar("Tension Gap Scores", areas, scores, "Area", "Gap Score")
		tg.Chart("Tension Gap Scores", fig, err)
	}
	for _, g := range r.TensionGaps {
		tg.Item(Item{
			Title:  g.Area,
			Tone:   gapTone(g.GapScore),
			Badges: []string{"Gap: " + format.Fixed(g.GapScore, 1)},
			Fields: []Field{
				{Label: "Current", Value: format.Text(g.Current)},
				{Label: "Desired", Value: format.Text(g.Desired)},
			},
			Lists: []List{{Title: "Strategies", Items: g.Strategies}},
		})
	}

	steps := Table{Headers: []string{"#", "Step", "Owner", "Timeline", "Impact"}}
	for i, s := range r.ActionSteps {
		steps.Rows = append(steps.Rows, Row{Cells: []Cell{
			numCell(format.Count(i + 1)),
			{Text: format.Text(s.Step)},
			{Text: format.Text(s.Owner)},
			{Text: format.Text(s.Timeline)},
			{Text: format.Text(s.Impact)},
		}})
	}
	p["action-steps"].Table(steps, "No action steps returned.")
}

func (e *Engine) livingSystem(p map[string]*panel, r *result.LivingSystem) {
	var reinforcing, balancing int
	for _, l := range r.FeedbackLoops {
		switch strings.ToLower(strings.TrimSpace(l.Type)) {
		case result.LoopReinforcing:
			reinforcing++
		case result.LoopBalancing:
			balancing++
		}
	}
	var total float64
	var scored int
	for _, c := range r.Components {
		if f, ok := c.HealthScore.Float(); ok {
			total += f
			scored++
		}
	}
	avg := result.Number{}
	if scored > 0 {
		avg = result.Num(total / float64(scored))
	}

	ov := p["overview"]
	ov.Text(r.Overview)
	ov.Cards(
		Card{Label: "Components", Value: format.Count(len(r.Components))},
		Card{Label: "Reinforcing Loops", Value: format.Count(reinforcing)},
		Card{Label: "Balancing Loops", Value: format.Count(balancing)},
		Card{Label: "Average Health", Value: format.Fixed(avg, 1), Tone: healthTone(avg)},
	)
	if len(r.Components) > 0 {
		ov.Heading("Component Map")
		ov.Diagram(diagram.ComponentMap(r.Components))
	}

	table := Table{Headers: []string{"Component", "Role", "Health", "Connections"}}
	names := make([]string, 0, len(r.Components))
	health := make([]float64, 0, len(r.Components))
	for _, c := range r.Components {
		table.Rows = append(table.Rows, Row{Cells: []Cell{
			e.labelCell(c.Name),
			{Text: format.Text(c.Role)},
			{Text: format.Fixed(c.HealthScore, 1), Class: "num " + healthTone(c.HealthScore)},
			{Text: format.Text(strings.Join(nonBlank(c.Connections), ", "))},
		}})
		names = append(names, format.Truncate(c.Name, 24))
		health = append(health, c.HealthScore.Or(math.NaN()))
	}
	p["components"].Table(table, "No components returned.")
	if len(names) > 0 {
		fig, err := chart.Bar("Component Health", names, health, "Component", "Health (0-10)")
		p["components"].Chart("Component Health", fig, err)
	}

	if len(r.FeedbackLoops) == 0 {
		p["feedback-loops"].Empty("No feedback loops identified.")
	}
	for _, l := range r.FeedbackLoops {
		tone := toneNeutral
		switch strings.ToLower(strings.TrimSpace(l.Type)) {
		case result.LoopReinforcing:
			tone = toneWarn
		case result.LoopBalancing:
			tone = toneGood
		}
		p["feedback-loops"].Item(Item{
			Title:  l.Name,
			Tone:   tone,
			Badges: []string{format.Label(format.Text(l.Type))},
			Fields: []Field{{Label: "Description", Value: format.Text(l.Description)}},
			Lists:  []List{{Title: "Loop Elements", Items: l.Elements, Ordered: true}},
		})
	}

	lp := p["leverage-points"]
	if len(r.LeveragePoints) == 0 {
		lp.Empty("No leverage points identified.")
	}
	for _, pt := range r.LeveragePoints {
		it := Item{Title: pt.Point, Fields: []Field{{Label: "Description", Value: format.Text(pt.Description)}}}
		if pt.Impact != "" {
			it.Badges = []string{"Impact: " + pt.Impact}
			it.Tone = levelTone(result.LevelScore(pt.Impact))
		}
		lp.Item(it)
	}
	lp.List(List{Title: "Recommendations", Items: r.Recommendations})
}

func (e *Engine) ladderOfInference(p map[string]*panel, r *result.LadderOfInference) {
	rungs := make([]result.Rung, len(r.Rungs))
	copy(rungs, r.Rungs)
	sort.SliceStable(rungs, func(i, j int) bool {
		return rungs[i].Level.Or(math.Inf(1)) < rungs[j].Level.Or(math.Inf(1))
	})
	if len(rungs) == 0 {
		p["ladder"].Empty("No rungs returned.")
	}
	for i, rung := range rungs {
		level := format.Fixed(rung.Level, 0)
		if level == format.NA {
			level = format.Count(i + 1)
		}
		p["ladder"].Item(Item{
			Title:  format.Text(rung.Name),
			Badges: []string{"Rung " + level},
			Fields: []Field{{Label: "Thinking", Value: format.Text(rung.Content)}},
		})
	}

	table := Table{Headers: []string{"Assumption", "Challenge", "Alternative View"}}
	for _, a := range r.Assumptions {
		table.Rows = append(table.Rows, Row{Cells: []Cell{
			{Text: format.Text(a.Assumption)},
			{Text: format.Text(a.Challenge)},
			{Text: format.Text(a.Alternative)},
		}})
	}
	p["assumptions"].Table(table, "No assumptions were surfaced.")

	if len(nonBlank(r.ReflectionQuestions)) == 0 {
		p["reflection"].Empty("No reflection questions returned.")
	}
	p["reflection"].List(List{Title: "Questions to Ask", Items: r.ReflectionQuestions, Ordered: true})

	if len(nonBlank(r.Recommendations)) == 0 {
		p["recommendations"].Empty("No recommendations returned.")
	}
	p["recommendations"].List(List{Items: r.Recommendations})
}

func (e *Engine) missionVision(p map[string]*panel, r *result.MissionVision) {
	p["statements"].Callout("Mission", r.Mission, toneGood)
	p["statements"].Callout("Vision", r.Vision, toneNeutral)

	if len(r.Values) == 0 {
		p["values"].Empty("No core values returned.")
	}
	for _, v := range r.Values {
		it := Item{Title: v.Value, Fields: []Field{{Label: "Meaning", Value: format.Text(v.Description)}}}
		if v.SourceNote != "" {
			it.Badges = []string{v.SourceNote}
		}
		p["values"].Item(it)
	}

	if len(r.Goals) == 0 {
		p["goals"].Empty("No strategic goals returned.")
	}
	for _, g := range r.Goals {
		it := Item{
			Title: g.GoalName,
			Fields: []Field{
				{Label: "Description", Value: format.Text(g.Description)},
				{Label: "Timeframe", Value: format.Text(g.Timeframe)},
			},
			Lists: []List{{Title: "Success Metrics", Items: g.Metrics}},
		}
		if g.SourceNote != "" {
			it.Badges = []string{g.SourceNote}
		}
		p["goals"].Item(it)
	}
}

func (e *Engine) objectives(p map[string]*panel, r *result.Objectives) {
	local, localOK := result.ParseObjectiveSet(r.LocalModel)
	workflow, workflowOK := result.ParseObjectiveSet(r.Workflow)
	e.objectiveSet(p["local"], "Local Model", local, localOK, r.LocalModel)
	e.objectiveSet(p["workflow"], "Workflow", workflow, workflowOK, r.Workflow)

	cmp := p["comparison"]
	shared := 0
	inLocal := make(map[string]bool)
	var order []string
	titles := make(map[string]string)
	for _, o := range local.Objectives {
		k := normalize(o.Objective)
		if k == "" || inLocal[k] {
			continue
		}
		inLocal[k] = true
		order = append(order, k)
		titles[k] = o.Objective
	}
	inWorkflow := make(map[string]bool)
	for _, o := range workflow.Objectives {
		k := normalize(o.Objective)
		if k == "" || inWorkflow[k] {
			continue
		}
		inWorkflow[k] = true
		if inLocal[k] {
			shared++
			continue
		}
		order = append(order, k)
		titles[k] = o.Objective
	}

	cmp.Cards(
		Card{Label: "Local Model Objectives", Value: format.Count(len(local.Objectives))},
		Card{Label: "Workflow Objectives", Value: format.Count(len(workflow.Objectives))},
		Card{Label: "In Both", Value: format.Count(shared), Tone: toneGood},
	)
	table := Table{Headers: []string{"Objective", "Local Model", "Workflow"}}
	for _, k := range order {
		table.Rows = append(table.Rows, Row{Cells: []Cell{
			e.labelCell(titles[k]),
			presenceCell(inLocal[k]),
			presenceCell(inWorkflow[k]),
		}})
	}
	cmp.Table(table, "Neither source returned objectives.")
}

func (e *Engine) objectiveSet(pn *panel, source string, set result.ObjectiveSet, ok bool, raw json.RawMessage) {
	if !ok {
		pn.Callout(source, "This result did not match the expected objectives format. The raw response is shown below.", toneWarn)
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, raw, "", "  "); err != nil || len(raw) == 0 {
			pn.Empty("No response received.")
			return
		}
		pn.exec("code", pretty.String())
		return
	}
	pn.Text(set.Summary)
	if len(set.Objectives) == 0 {
		pn.Empty("No objectives returned.")
	}
	for _, o := range set.Objectives {
		pn.Item(Item{
			Title: o.Objective,
			Fields: []Field{
				{Label: "Owner", Value: format.Text(o.Owner)},
				{Label: "Timeline", Value: format.Text(o.Timeline)},
			},
			Lists: []List{{Title: "Key Results", Items: o.KeyResults}},
		})
	}
}

func presenceCell(present bool) Cell {
	if present {
		return Cell{Text: "Yes", Class: "pass"}
	}
	return Cell{Text: "No", Class: "fail"}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func gapTone(n result.Number) string {
	return belowTone(n, 3, 6)
}

func healthTone(n result.Number) string {
	return fitTone(n, 7, 4)
}
