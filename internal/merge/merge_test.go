package merge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ziadkadry99/sage/internal/backend"
	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/result"
	"github.com/ziadkadry99/sage/internal/state"
)

type renderCall struct {
	kind result.Kind
	data []byte
}

type fakeRenderer struct {
	mu     sync.Mutex
	calls  []renderCall
	err    error
	delay  time.Duration
	ctxErr error
}

func (f *fakeRenderer) Render(ctx context.Context, _ *render.Container, kind result.Kind, data []byte, _ *state.Session) error {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, renderCall{kind, data})
	f.ctxErr = ctx.Err()
	return f.err
}

func (f *fakeRenderer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newCoordinator(templateID string, opts Options) (*Coordinator, *state.Session, *fakeRenderer) {
	s := state.NewSession("t")
	s.Begin(templateID, "msg", "ctx")
	r := &fakeRenderer{}
	return NewCoordinator(s, r, opts), s, r
}

func TestCompleteWaitsForBothSlots(t *testing.T) {
	c, s, r := newCoordinator(TemplateObjectives, Options{})
	ctx := context.Background()

	out, err := c.Complete(ctx, SourceWorkflow, json.RawMessage(`{"objectives":[]}`))
	if err != nil || out != Waiting {
		t.Fatalf("first completion: %v, %v", out, err)
	}
	if r.count() != 0 {
		t.Fatal("rendered before both slots were set")
	}
	if got := s.Snapshot().Status; got != StatusWaitingLocal {
		t.Errorf("status = %q", got)
	}
	local, workflow := c.Pending()
	if local || !workflow {
		t.Errorf("pending = %v, %v", local, workflow)
	}

	out, err = c.Complete(ctx, SourceLocal, json.RawMessage(`{"summary":"s"}`))
	if err != nil || out != Rendered {
		t.Fatalf("second completion: %v, %v", out, err)
	}
	if r.count() != 1 {
		t.Fatalf("render calls = %d, want 1", r.count())
	}
	if local, workflow := c.Pending(); local || workflow {
		t.Error("slots not cleared after render")
	}
	snap := s.Snapshot()
	if snap.Loading || snap.MessageID != "" || snap.Context != "" {
		t.Errorf("session not cleared: %+v", snap)
	}

	// A third completion starts a new cycle instead of re-rendering.
	if out, _ := c.Complete(ctx, SourceLocal, json.RawMessage(`{}`)); out != Waiting || r.count() != 1 {
		t.Errorf("unexpected re-render")
	}
}

func TestCompleteWaitingStatus(t *testing.T) {
	c, s, _ := newCoordinator(TemplateMissionVision, Options{})
	c.Complete(context.Background(), SourceLocal, json.RawMessage(`{"mission":"m"}`))
	if got := s.Snapshot().Status; got != StatusWaitingWorkflow {
		t.Errorf("status = %q, want %q", got, StatusWaitingWorkflow)
	}
}

func TestFirstWriteWins(t *testing.T) {
	c, _, r := newCoordinator(TemplateObjectives, Options{})
	ctx := context.Background()
	c.Complete(ctx, SourceLocal, json.RawMessage(`{"summary":"first"}`))
	c.Complete(ctx, SourceLocal, json.RawMessage(`{"summary":"second"}`))
	c.Complete(ctx, SourceWorkflow, json.RawMessage(`{"summary":"w"}`))

	if r.count() != 1 {
		t.Fatalf("render calls = %d", r.count())
	}
	if !strings.Contains(string(r.calls[0].data), "first") {
		t.Errorf("merged data = %s", r.calls[0].data)
	}
}

func TestMissionVisionDedup(t *testing.T) {
	c, _, r := newCoordinator(TemplateMissionVision, Options{})
	ctx := context.Background()
	c.Complete(ctx, SourceLocal, json.RawMessage(`{"mission":"Serve","vision":"Lead",
		"values":[{"value":"Integrity"}],"goals":[{"goal_name":"Grow"}]}`))
	out, err := c.Complete(ctx, SourceWorkflow, json.RawMessage(`{"mission":"Other","vision":"Other",
		"values":[{"value":"integrity "},{"value":"Teamwork"}],"goals":[{"goal_name":" GROW"},{"goal_name":"Expand"},{"goal_name":""}]}`))
	if err != nil || out != Rendered {
		t.Fatalf("Complete: %v, %v", out, err)
	}

	call := r.calls[0]
	if call.kind != result.KindMissionVision {
		t.Fatalf("kind = %s", call.kind)
	}
	var mv result.MissionVision
	if err := json.Unmarshal(call.data, &mv); err != nil {
		t.Fatal(err)
	}
	if mv.Mission != "Serve" || mv.Vision != "Lead" {
		t.Errorf("base statements replaced: %q / %q", mv.Mission, mv.Vision)
	}
	if len(mv.Values) != 2 || mv.Values[0].Value != "Integrity" || mv.Values[1].Value != "Teamwork" {
		t.Fatalf("values = %+v", mv.Values)
	}
	if mv.Values[0].SourceNote != "" || mv.Values[1].SourceNote != WorkflowNote {
		t.Errorf("source notes = %q, %q", mv.Values[0].SourceNote, mv.Values[1].SourceNote)
	}
	if len(mv.Goals) != 2 || mv.Goals[1].GoalName != "Expand" {
		t.Errorf("goals = %+v", mv.Goals)
	}
}

func TestMissionVisionFallsBackToWorkflowStatements(t *testing.T) {
	kind, data, err := mergeMissionVision(json.RawMessage(`"not an object"`), json.RawMessage(`{"mission":"M","vision":"V"}`))
	if err != nil || kind != result.KindMissionVision {
		t.Fatalf("merge: %v", err)
	}
	var mv result.MissionVision
	json.Unmarshal(data, &mv)
	if mv.Mission != "M" || mv.Vision != "V" {
		t.Errorf("merged = %+v", mv)
	}
}

func TestObjectivesWrap(t *testing.T) {
	kind, data, err := wrapObjectives(json.RawMessage(`{"summary":"l"}`), json.RawMessage(`not json`))
	if err != nil || kind != result.KindObjectives {
		t.Fatalf("wrap: %v", err)
	}
	want := `{"local_model_result":{"summary":"l"},"workflow_result":"not json"}`
	if string(data) != want {
		t.Errorf("data = %s, want %s", data, want)
	}
}

func TestUnknownTemplateKeepsSlots(t *testing.T) {
	c, _, r := newCoordinator("swot", Options{})
	ctx := context.Background()
	c.Complete(ctx, SourceLocal, json.RawMessage(`{}`))
	_, err := c.Complete(ctx, SourceWorkflow, json.RawMessage(`{}`))
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Fatalf("err = %v, want ErrUnknownTemplate", err)
	}
	if r.count() != 0 {
		t.Error("rendered for unknown template")
	}
	if local, workflow := c.Pending(); !local || !workflow {
		t.Error("slots should be kept")
	}
}

func TestRenderErrorStillClears(t *testing.T) {
	c, s, r := newCoordinator(TemplateObjectives, Options{})
	r.err = errors.New("invalid")
	c.Complete(context.Background(), SourceLocal, json.RawMessage(`{}`))
	out, err := c.Complete(context.Background(), SourceWorkflow, json.RawMessage(`{}`))
	if out != Rendered || err == nil {
		t.Fatalf("Complete = %v, %v", out, err)
	}
	if local, workflow := c.Pending(); local || workflow {
		t.Error("slots kept after a failed render")
	}
	if s.Snapshot().Status != StatusFailed {
		t.Errorf("status = %q", s.Snapshot().Status)
	}
}

func TestMergedEventRecorded(t *testing.T) {
	rec := &recorder{}
	c, _, _ := newCoordinator(TemplateObjectives, Options{History: rec})
	c.Complete(context.Background(), SourceLocal, json.RawMessage(`{}`))
	c.Complete(context.Background(), SourceWorkflow, json.RawMessage(`{}`))
	if len(rec.events) != 1 || rec.events[0].Status != state.StatusMerged || rec.events[0].TemplateID != TemplateObjectives {
		t.Errorf("events = %+v", rec.events)
	}
}

type recorder struct{ events []state.Event }

func (r *recorder) Record(_ context.Context, e state.Event) error {
	r.events = append(r.events, e)
	return nil
}

type source struct {
	name    string
	payload string
	delay   time.Duration
	err     error
}

func (s source) Name() string { return s.name }

func (s source) Analyze(ctx context.Context, _ backend.Request) (json.RawMessage, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.payload), nil
}

func TestRun(t *testing.T) {
	s := state.NewSession("run")
	r := &fakeRenderer{}
	c := NewCoordinator(s, r, Options{Timeout: time.Second})

	req := backend.Request{TemplateID: TemplateMissionVision, MessageID: "m1", Context: "bakery"}
	out, err := c.Run(context.Background(), req,
		source{name: "local", payload: `{"mission":"Bake","vision":"Best"}`},
		source{name: "workflow", payload: `{"values":[{"value":"Care"}]}`, delay: 20 * time.Millisecond},
	)
	if err != nil || out != Rendered {
		t.Fatalf("Run = %v, %v", out, err)
	}
	if r.count() != 1 {
		t.Errorf("render calls = %d", r.count())
	}
	if s.Snapshot().Loading {
		t.Error("loading not stopped")
	}
}

func TestRunTimeout(t *testing.T) {
	s := state.NewSession("run")
	r := &fakeRenderer{}
	c := NewCoordinator(s, r, Options{Timeout: 50 * time.Millisecond})

	req := backend.Request{TemplateID: TemplateObjectives}
	_, err := c.Run(context.Background(), req,
		source{name: "local", payload: `{}`},
		source{name: "workflow", payload: `{}`, delay: time.Minute},
	)
	if !errors.Is(err, ErrStalled) {
		t.Fatalf("err = %v, want ErrStalled", err)
	}
	snap := s.Snapshot()
	if snap.Status != StatusTimedOut || snap.Loading {
		t.Errorf("snapshot = %+v", snap)
	}
	if local, workflow := c.Pending(); local || workflow {
		t.Error("slots not reset after timeout")
	}
	if r.count() != 0 {
		t.Error("rendered after a stall")
	}
}

func TestRunWaitsForRenderInFlight(t *testing.T) {
	s := state.NewSession("run")
	r := &fakeRenderer{delay: 150 * time.Millisecond}
	c := NewCoordinator(s, r, Options{Timeout: 50 * time.Millisecond})

	out, err := c.Run(context.Background(), backend.Request{TemplateID: TemplateObjectives},
		source{name: "local", payload: `{}`},
		source{name: "workflow", payload: `{}`, delay: 10 * time.Millisecond},
	)
	if err != nil || out != Rendered {
		t.Fatalf("Run = %v, %v; want rendered once both sources answered", out, err)
	}
	if got := s.Snapshot().Status; got != StatusComplete {
		t.Errorf("status = %q, want %q", got, StatusComplete)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctxErr != nil {
		t.Errorf("render context was cancelled: %v", r.ctxErr)
	}
}

func TestRunSourceError(t *testing.T) {
	s := state.NewSession("run")
	c := NewCoordinator(s, &fakeRenderer{}, Options{})
	boom := errors.New("connection refused")
	_, err := c.Run(context.Background(), backend.Request{TemplateID: TemplateObjectives},
		source{name: "local", err: boom},
		source{name: "workflow", payload: `{}`},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if s.Snapshot().Status != StatusFailed {
		t.Errorf("status = %q", s.Snapshot().Status)
	}
}

func TestParseSource(t *testing.T) {
	for in, want := range map[string]Source{"local": SourceLocal, "ollama": SourceLocal, "workflow": SourceWorkflow, "n8n": SourceWorkflow} {
		if got, err := ParseSource(in); err != nil || got != want {
			t.Errorf("ParseSource(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseSource("gpt"); err == nil {
		t.Error("expected error")
	}
}

func TestTemplates(t *testing.T) {
	if got := strings.Join(Templates(), ","); got != "mission-vision,objectives" {
		t.Errorf("Templates() = %s", got)
	}
	if !HasStrategy(TemplateObjectives) || HasStrategy("swot") {
		t.Error("HasStrategy disagrees with Templates")
	}
}
