package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxWorkflowResponse caps the webhook answer read into memory.
const MaxWorkflowResponse = 8 << 20

// Workflow calls a workflow engine webhook (n8n) that runs the same
// analysis through its own pipeline.
type Workflow struct {
	url     string
	token   string
	client  *http.Client
	maxBody int64
}

// NewWorkflow returns a source posting to url. A non-empty token is sent as
// a bearer credential.
func NewWorkflow(url, token string, timeout time.Duration) *Workflow {
	return &Workflow{url: url, token: token, client: &http.Client{Timeout: timeout}, maxBody: MaxWorkflowResponse}
}

func (w *Workflow) Name() string { return "workflow" }

// Analyze posts req to the webhook and unwraps the answer.
func (w *Workflow) Analyze(ctx context.Context, req Request) (json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding workflow request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating workflow request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if w.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+w.token)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("workflow request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, w.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("reading workflow response: %w", err)
	}
	if int64(len(respBody)) > w.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, w.maxBody)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("workflow returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return Unwrap(respBody)
}

// Unwrap digs the analysis out of a webhook answer. n8n wraps results in a
// one-element array and often in an "output" field holding the model's text,
// which may itself be fenced JSON.
func Unwrap(body []byte) (json.RawMessage, error) {
	raw := json.RawMessage(bytes.TrimSpace(body))
	if len(raw) == 0 {
		return nil, ErrEmptyResponse
	}
	for depth := 0; depth < 4; depth++ {
		switch raw[0] {
		case '[':
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("decoding workflow array: %w", err)
			}
			if len(items) == 0 {
				return nil, ErrEmptyResponse
			}
			raw = bytes.TrimSpace(items[0])
		case '{':
			var obj map[string]json.RawMessage
			if err := json.Unmarshal(raw, &obj); err != nil {
				return nil, fmt.Errorf("decoding workflow object: %w", err)
			}
			out, ok := obj["output"]
			if !ok || len(obj) != 1 {
				return raw, nil
			}
			raw = bytes.TrimSpace(out)
		case '"':
			var text string
			if err := json.Unmarshal(raw, &text); err != nil {
				return nil, fmt.Errorf("decoding workflow text: %w", err)
			}
			out, valid := toJSON(text)
			if out == nil {
				return nil, ErrEmptyResponse
			}
			if !valid {
				return out, nil
			}
			raw = out
		default:
			if !json.Valid(raw) {
				quoted, _ := json.Marshal(string(raw))
				return quoted, nil
			}
			return raw, nil
		}
		if len(raw) == 0 {
			return nil, ErrEmptyResponse
		}
	}
	return raw, nil
}
