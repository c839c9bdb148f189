// Package render turns analysis results into tabbed HTML fragments with
// embedded chart descriptors, inline diagrams and learn-more content.
package render

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/ziadkadry99/sage/internal/chart"
	"github.com/ziadkadry99/sage/internal/diagram"
	"github.com/ziadkadry99/sage/internal/learn"
	"github.com/ziadkadry99/sage/internal/result"
	"github.com/ziadkadry99/sage/internal/state"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultTopCategories = 20
	DefaultResizeDelay   = 150 * time.Millisecond
	DefaultLabelWidth    = 40
)

// NoResizeDelay as Options.ResizeDelay resizes charts as soon as a page
// mounts.
const NoResizeDelay time.Duration = -1

// Options configures an Engine. Nil collaborators disable the feature they
// back: no cache writes, no history, inline messages in place of diagrams.
type Options struct {
	Charts        *chart.Registry
	Diagrams      diagram.Renderer
	Learn         *learn.Library
	Cache         state.Cache
	History       state.Recorder
	TopCategories int
	ResizeDelay   time.Duration
	LabelWidth    int
	// Rand supplies prioritization jitter. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Engine renders results into containers.
type Engine struct {
	charts        *chart.Registry
	diagrams      diagram.Renderer
	learn         *learn.Library
	cache         state.Cache
	history       state.Recorder
	topCategories int
	resizeDelay   time.Duration
	labelWidth    int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine returns an engine with the given collaborators.
func NewEngine(opts Options) *Engine {
	e := &Engine{
		charts:        opts.Charts,
		diagrams:      opts.Diagrams,
		learn:         opts.Learn,
		cache:         opts.Cache,
		history:       opts.History,
		topCategories: opts.TopCategories,
		resizeDelay:   opts.ResizeDelay,
		labelWidth:    opts.LabelWidth,
		rng:           opts.Rand,
	}
	if e.charts == nil {
		e.charts = chart.NewRegistry()
	}
	if e.topCategories <= 0 {
		e.topCategories = DefaultTopCategories
	}
	switch {
	case e.resizeDelay < 0:
		e.resizeDelay = 0
	case e.resizeDelay == 0:
		e.resizeDelay = DefaultResizeDelay
	}
	if e.labelWidth <= 0 {
		e.labelWidth = DefaultLabelWidth
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return e
}

// Render decodes data as kind and renders it into c. A structural error
// leaves c holding the InvalidResultMessage block, hides the session's
// actions, stops loading and is returned.
func (e *Engine) Render(ctx context.Context, c *Container, kind result.Kind, data []byte, s *state.Session) error {
	c.Reset()
	res, err := result.Decode(kind, data)
	if err != nil {
		return e.fail(ctx, c, kind, s, err)
	}
	return e.RenderResult(ctx, c, res, s)
}

// RenderResult renders an already decoded result into c, caches the markup
// under the session's template id and shows the session's actions.
func (e *Engine) RenderResult(ctx context.Context, c *Container, res result.Result, s *state.Session) error {
	c.Reset()
	if s == nil {
		s = state.NewSession("")
	}
	if res == nil {
		return e.fail(ctx, c, "", s, fmt.Errorf("%w: nil result", result.ErrUnknownKind))
	}
	kind := res.Kind()
	if _, ok := tabSets[kind]; !ok {
		return e.fail(ctx, c, kind, s, fmt.Errorf("%w: %q", result.ErrUnknownKind, kind))
	}

	page := newPage(c.ID(), kind, int(e.resizeDelay/time.Millisecond))
	panels := make(map[string]*panel, len(page.Tabs))
	for _, t := range page.Tabs {
		panels[t.ID] = &panel{ctx: ctx, e: e, id: t.PanelID}
	}
	e.fill(panels, res)
	panels[learnMoreTab.id].Learn(kind)
	for _, t := range page.Tabs {
		t.Body = panels[t.ID].HTML()
	}

	html, err := page.HTML()
	if err != nil {
		return e.fail(ctx, c, kind, s, err)
	}
	c.set(string(html))

	templateID := cacheKey(s, kind)
	if e.cache != nil {
		entry := state.Entry{TemplateID: templateID, Kind: string(kind), HTML: string(html)}
		if err := e.cache.Put(ctx, entry); err != nil {
			log.Printf("render: caching %s: %v", templateID, err)
		}
	}

	s.SetActionsVisible(true)
	s.SetLoading(false)
	e.record(ctx, state.Event{TemplateID: templateID, Kind: string(kind), Status: state.StatusRendered})
	return nil
}

// fill dispatches to the renderer for the result's kind.
func (e *Engine) fill(p map[string]*panel, res result.Result) {
	switch r := res.(type) {
	case *result.Descriptive:
		e.descriptive(p, r)
	case *result.Predictive:
		e.predictive(p, r)
	case *result.Prescriptive:
		e.prescriptive(p, r)
	case *result.VisualizationSet:
		e.visualization(p, r)
	case *result.Regression:
		e.regression(p, r)
	case *result.PLSSEM:
		e.plsSEM(p, r)
	case *result.DEMATEL:
		e.dematel(p, r)
	case *result.SEM:
		e.sem(p, r)
	case *result.ThreeHorizons:
		e.threeHorizons(p, r)
	case *result.CreativeDissonance:
		e.creativeDissonance(p, r)
	case *result.LivingSystem:
		e.livingSystem(p, r)
	case *result.LadderOfInference:
		e.ladderOfInference(p, r)
	case *result.MissionVision:
		e.missionVision(p, r)
	case *result.Objectives:
		e.objectives(p, r)
	}
}

func (e *Engine) fail(ctx context.Context, c *Container, kind result.Kind, s *state.Session, err error) error {
	var buf strings.Builder
	if execErr := templates.ExecuteTemplate(&buf, "error", InvalidResultMessage); execErr != nil {
		buf.Reset()
		buf.WriteString(InvalidResultMessage)
	}
	c.set(buf.String())

	if s == nil {
		s = state.NewSession("")
	}
	s.SetActionsVisible(false)
	s.SetLoading(false)

	log.Printf("render: invalid %s result: %v", kind, err)
	e.record(ctx, state.Event{
		TemplateID: cacheKey(s, kind),
		Kind:       string(kind),
		Status:     state.StatusInvalid,
		Detail:     describe(err),
	})
	return err
}

func (e *Engine) record(ctx context.Context, ev state.Event) {
	if e.history == nil {
		return
	}
	if ev.Kind == "" {
		ev.Kind = "unknown"
	}
	if err := e.history.Record(ctx, ev); err != nil {
		log.Printf("render: recording %s event: %v", ev.Status, err)
	}
}

// jitterSource returns the shared random source, locked for the caller.
func (e *Engine) jitterSource() (*rand.Rand, func()) {
	e.rngMu.Lock()
	return e.rng, e.rngMu.Unlock
}

// ResizeDelay reports the deferred chart resize delay embedded in pages.
func (e *Engine) ResizeDelay() time.Duration { return e.resizeDelay }

func cacheKey(s *state.Session, kind result.Kind) string {
	if s != nil {
		if id := s.TemplateID(); id != "" {
			return id
		}
	}
	return string(kind)
}

func describe(err error) string {
	var missing *result.MissingFieldsError
	if errors.As(err, &missing) {
		return "missing " + strings.Join(missing.Fields, ", ")
	}
	return err.Error()
}
