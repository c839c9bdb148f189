package merge

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ziadkadry99/sage/internal/result"
)

// Template ids with a merge strategy.
const (
	TemplateMissionVision = "mission-vision"
	TemplateObjectives    = "objectives"
)

// WorkflowNote marks entries the workflow contributed to a merged result.
const WorkflowNote = "Added from workflow analysis"

// strategy combines the two payloads into one result of a single kind.
type strategy func(local, workflow json.RawMessage) (result.Kind, []byte, error)

var strategies = map[string]strategy{
	TemplateMissionVision: mergeMissionVision,
	TemplateObjectives:    wrapObjectives,
}

// HasStrategy reports whether results for templateID can be merged.
func HasStrategy(templateID string) bool {
	_, ok := strategies[templateID]
	return ok
}

// Templates lists the template ids that can be merged, sorted.
func Templates() []string {
	ids := make([]string, 0, len(strategies))
	for id := range strategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// mergeMissionVision uses the local result as the base and unions in the
// workflow's values and goals. Entries whose identity matches one already
// present, ignoring case and surrounding space, are dropped.
func mergeMissionVision(local, workflow json.RawMessage) (result.Kind, []byte, error) {
	var base, other result.MissionVision
	if err := json.Unmarshal(local, &base); err != nil {
		log.Printf("merge: local mission-vision result is not an object: %v", err)
	}
	if err := json.Unmarshal(workflow, &other); err != nil {
		log.Printf("merge: workflow mission-vision result is not an object: %v", err)
	}

	if strings.TrimSpace(base.Mission) == "" {
		base.Mission = other.Mission
	}
	if strings.TrimSpace(base.Vision) == "" {
		base.Vision = other.Vision
	}

	seen := make(map[string]bool, len(base.Values))
	for _, v := range base.Values {
		seen[identity(v.Value)] = true
	}
	for _, v := range other.Values {
		key := identity(v.Value)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		v.SourceNote = WorkflowNote
		base.Values = append(base.Values, v)
	}

	seen = make(map[string]bool, len(base.Goals))
	for _, g := range base.Goals {
		seen[identity(g.GoalName)] = true
	}
	for _, g := range other.Goals {
		key := identity(g.GoalName)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		g.SourceNote = WorkflowNote
		base.Goals = append(base.Goals, g)
	}

	data, err := json.Marshal(base)
	if err != nil {
		return "", nil, fmt.Errorf("encoding merged mission-vision: %w", err)
	}
	return result.KindMissionVision, data, nil
}

// wrapObjectives places both raw results side by side without merging.
func wrapObjectives(local, workflow json.RawMessage) (result.Kind, []byte, error) {
	data, err := json.Marshal(result.Objectives{LocalModel: orNull(local), Workflow: orNull(workflow)})
	if err != nil {
		return "", nil, fmt.Errorf("encoding objectives: %w", err)
	}
	return result.KindObjectives, data, nil
}

func identity(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// orNull keeps invalid JSON from breaking the wrapper. It is passed on as a
// string so the objectives page can still show what arrived.
func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	if !json.Valid(raw) {
		quoted, _ := json.Marshal(string(raw))
		return quoted
	}
	return raw
}
