// Package backend holds the two asynchronous analysis sources whose results
// are merged: a local model prompted directly and a workflow engine webhook.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Request describes one analysis run.
type Request struct {
	TemplateID string `json:"template_id"`
	MessageID  string `json:"message_id,omitempty"`
	Context    string `json:"context"`
}

// Source produces a raw analysis result for a request.
type Source interface {
	Name() string
	Analyze(ctx context.Context, req Request) (json.RawMessage, error)
}

// ErrEmptyResponse is returned when a source answers with nothing usable.
var ErrEmptyResponse = errors.New("empty analysis response")

// ErrTruncatedResponse is returned when a model stopped at its token limit.
var ErrTruncatedResponse = errors.New("analysis response cut off at the token limit")

// ErrResponseTooLarge is returned when a webhook answer exceeds
// MaxWorkflowResponse.
var ErrResponseTooLarge = errors.New("workflow response too large")

// StripFences removes a surrounding Markdown code fence, with or without a
// language tag, from a model answer.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// toJSON returns text as JSON. Text that is not valid JSON, even after
// stripping fences, is kept as a JSON string so it can still be displayed.
func toJSON(text string) (json.RawMessage, bool) {
	body := StripFences(text)
	if body == "" {
		return nil, false
	}
	if json.Valid([]byte(body)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(body)); err == nil {
			return buf.Bytes(), true
		}
		return json.RawMessage(body), true
	}
	quoted, _ := json.Marshal(body)
	return quoted, false
}
