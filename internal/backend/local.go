package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/ziadkadry99/sage/internal/llm"
)

// prompts holds the system prompt per template id.
var prompts = map[string]string{
	"mission-vision": `You are a strategy consultant. From the organisation description, write its
mission and vision. Answer with one JSON object and nothing else:
{"mission": string, "vision": string,
 "values": [{"value": string, "description": string}],
 "goals": [{"goal_name": string, "description": string, "timeframe": string, "metrics": [string]}]}`,

	"objectives": `You are a strategy consultant. From the organisation description, propose
measurable strategic objectives. Answer with one JSON object and nothing else:
{"summary": string,
 "objectives": [{"objective": string, "key_results": [string], "timeline": string, "owner": string}]}`,
}

// HasPrompt reports whether the local model can run templateID.
func HasPrompt(templateID string) bool {
	_, ok := prompts[templateID]
	return ok
}

// LocalModel prompts a local model for a structured analysis.
type LocalModel struct {
	provider    llm.Provider
	temperature float64
	maxTokens   int
}

// NewLocalModel returns a source backed by p.
func NewLocalModel(p llm.Provider, temperature float64, maxTokens int) *LocalModel {
	return &LocalModel{provider: p, temperature: temperature, maxTokens: maxTokens}
}

func (m *LocalModel) Name() string { return "local model (" + m.provider.Name() + ")" }

// Analyze prompts the model and returns its answer as JSON.
func (m *LocalModel) Analyze(ctx context.Context, req Request) (json.RawMessage, error) {
	system, ok := prompts[req.TemplateID]
	if !ok {
		return nil, fmt.Errorf("no local model prompt for template %q", req.TemplateID)
	}
	resp, err := m.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: req.Context},
		},
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.provider.Name(), err)
	}
	log.Printf("backend: %s answered %s using %s", m.provider.Name(), req.TemplateID, resp.Usage)
	if resp.Truncated {
		return nil, fmt.Errorf("%s (%s): %w; raise max_tokens above %d", m.provider.Name(), resp.Model, ErrTruncatedResponse, m.maxTokens)
	}
	out, valid := toJSON(resp.Content)
	if out == nil {
		return nil, ErrEmptyResponse
	}
	if !valid {
		log.Printf("backend: %s answered with non-JSON text for %s", m.provider.Name(), req.TemplateID)
	}
	return out, nil
}
