// Package merge joins the local-model and workflow results of one analysis
// run and renders the combined result once both have arrived.
package merge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ziadkadry99/sage/internal/backend"
	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/result"
	"github.com/ziadkadry99/sage/internal/state"
)

// Source names one of the two result slots.
type Source string

const (
	SourceLocal    Source = "local"
	SourceWorkflow Source = "workflow"
)

// ParseSource accepts the slot names used on the wire.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceLocal, SourceWorkflow:
		return Source(s), nil
	case "ollama":
		return SourceLocal, nil
	case "n8n":
		return SourceWorkflow, nil
	}
	return "", fmt.Errorf("unknown merge source %q", s)
}

// Session status lines.
const (
	StatusWaitingWorkflow = "Waiting for workflow analysis…"
	StatusWaitingLocal    = "Waiting for local model analysis…"
	StatusComplete        = "Analysis complete"
	StatusTimedOut        = "Analysis timed out"
	StatusFailed          = "Analysis failed"
)

var (
	// ErrUnknownTemplate is returned when both slots are full but the
	// session's template has no merge strategy. The slots are kept.
	ErrUnknownTemplate = errors.New("no merge strategy for template")
	// ErrStalled is returned by Run when a source did not answer in time.
	ErrStalled = errors.New("analysis stalled waiting for a source")
)

// Outcome reports what a completion did.
type Outcome int

const (
	// Waiting means the other slot is still empty.
	Waiting Outcome = iota
	// Rendered means both slots were merged and rendered.
	Rendered
)

func (o Outcome) String() string {
	if o == Rendered {
		return "rendered"
	}
	return "waiting"
}

// Renderer renders a raw result of a given kind into a container.
type Renderer interface {
	Render(ctx context.Context, c *render.Container, kind result.Kind, data []byte, s *state.Session) error
}

// Options configures a Coordinator.
type Options struct {
	// Timeout bounds Run. Zero waits for both sources indefinitely.
	Timeout time.Duration
	History state.Recorder
	// Container receives the merged page. A fresh one is created when nil.
	Container *render.Container
}

// Coordinator holds the two pending results of one session.
type Coordinator struct {
	session   *state.Session
	renderer  Renderer
	history   state.Recorder
	timeout   time.Duration
	container *render.Container

	mu       sync.Mutex
	cycle    uint64
	merged   uint64 // last cycle whose slots were merged and handed to the renderer
	local    json.RawMessage
	workflow json.RawMessage
}

// NewCoordinator returns a coordinator for s that renders through r.
func NewCoordinator(s *state.Session, r Renderer, opts Options) *Coordinator {
	c := opts.Container
	if c == nil {
		c = render.NewContainer("")
	}
	return &Coordinator{
		session:   s,
		renderer:  r,
		history:   opts.History,
		timeout:   opts.Timeout,
		container: c,
	}
}

// Container returns the container merged results are rendered into.
func (c *Coordinator) Container() *render.Container { return c.container }

// Pending reports which slots are filled.
func (c *Coordinator) Pending() (local, workflow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local != nil, c.workflow != nil
}

// Reset empties both slots and starts a new merge cycle. Completions from
// an earlier Run are ignored afterwards.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

func (c *Coordinator) resetLocked() {
	c.cycle++
	c.local, c.workflow = nil, nil
}

// Complete stores payload in source's slot. The first payload per slot and
// cycle wins. Once both slots are filled the session's template picks the
// merge strategy and the result is rendered exactly once.
func (c *Coordinator) Complete(ctx context.Context, source Source, payload json.RawMessage) (Outcome, error) {
	c.mu.Lock()
	cycle := c.cycle
	c.mu.Unlock()
	return c.complete(ctx, cycle, source, payload)
}

func (c *Coordinator) complete(ctx context.Context, cycle uint64, source Source, payload json.RawMessage) (Outcome, error) {
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}

	c.mu.Lock()
	if cycle != c.cycle {
		c.mu.Unlock()
		log.Printf("merge: dropping late %s result for session %s", source, c.session.ID())
		return Waiting, nil
	}
	switch source {
	case SourceLocal:
		if c.local == nil {
			c.local = payload
		}
	case SourceWorkflow:
		if c.workflow == nil {
			c.workflow = payload
		}
	default:
		c.mu.Unlock()
		return Waiting, fmt.Errorf("unknown merge source %q", source)
	}

	switch {
	case c.workflow == nil:
		c.mu.Unlock()
		c.session.SetStatus(StatusWaitingWorkflow)
		return Waiting, nil
	case c.local == nil:
		c.mu.Unlock()
		c.session.SetStatus(StatusWaitingLocal)
		return Waiting, nil
	}

	templateID := c.session.TemplateID()
	combine, ok := strategies[templateID]
	if !ok {
		c.mu.Unlock()
		log.Printf("merge: %v %q", ErrUnknownTemplate, templateID)
		return Waiting, fmt.Errorf("%w %q", ErrUnknownTemplate, templateID)
	}
	local, workflow := c.local, c.workflow
	c.merged = cycle
	c.resetLocked()
	c.mu.Unlock()

	kind, data, err := combine(local, workflow)
	if err == nil {
		err = c.renderer.Render(ctx, c.container, kind, data, c.session)
	}
	c.finish(ctx, templateID, kind, err)
	return Rendered, err
}

func (c *Coordinator) finish(ctx context.Context, templateID string, kind result.Kind, err error) {
	c.session.ClearAnalysis()
	c.session.SetLoading(false)
	status, detail := StatusComplete, "local + workflow"
	if err != nil {
		status, detail = StatusFailed, err.Error()
	}
	c.session.SetStatus(status)

	if c.history == nil {
		return
	}
	ev := state.Event{TemplateID: templateID, Kind: string(kind), Status: state.StatusMerged, Detail: detail}
	if ev.Kind == "" {
		ev.Kind = "unknown"
	}
	if recErr := c.history.Record(ctx, ev); recErr != nil {
		log.Printf("merge: recording merge of %s: %v", templateID, recErr)
	}
}

// Run starts a new cycle for req, asks both sources concurrently and feeds
// each answer through Complete. It returns ErrStalled when the timeout
// passes before both sources answered, in which case the cycle is
// abandoned. A render already under way when the timeout passes is waited
// for.
func (c *Coordinator) Run(ctx context.Context, req backend.Request, local, workflow backend.Source) (Outcome, error) {
	c.mu.Lock()
	c.resetLocked()
	cycle := c.cycle
	c.mu.Unlock()
	c.session.Begin(req.TemplateID, req.MessageID, req.Context)

	// The timeout bounds the sources, not the render.
	renderCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var (
		mu      sync.Mutex
		outcome = Waiting
	)
	g, gctx := errgroup.WithContext(ctx)
	ask := func(slot Source, src backend.Source) func() error {
		return func() error {
			payload, err := src.Analyze(gctx, req)
			if err != nil {
				return fmt.Errorf("%s analysis: %w", src.Name(), err)
			}
			o, err := c.complete(renderCtx, cycle, slot, payload)
			mu.Lock()
			if o == Rendered {
				outcome = Rendered
			}
			mu.Unlock()
			return err
		}
	}
	g.Go(ask(SourceLocal, local))
	g.Go(ask(SourceWorkflow, workflow))

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		if c.isMerged(cycle) {
			err = <-done
		} else {
			err = ctx.Err()
		}
	}

	mu.Lock()
	defer mu.Unlock()
	switch {
	case outcome == Rendered:
		return Rendered, err
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		c.abandon(cycle, StatusTimedOut)
		return Waiting, fmt.Errorf("%w after %s", ErrStalled, c.timeout)
	case err != nil:
		if !errors.Is(err, ErrUnknownTemplate) {
			c.abandon(cycle, StatusFailed)
		}
		return Waiting, err
	}
	return outcome, nil
}

func (c *Coordinator) isMerged(cycle uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.merged == cycle
}

// abandon resets the slots when cycle is still current.
func (c *Coordinator) abandon(cycle uint64, status string) {
	c.mu.Lock()
	current := cycle == c.cycle
	if current {
		c.resetLocked()
	}
	c.mu.Unlock()
	if !current {
		return
	}
	log.Printf("merge: session %s: %s", c.session.ID(), status)
	c.session.SetStatus(status)
	c.session.SetLoading(false)
}
