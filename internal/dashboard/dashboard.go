// Package dashboard serves the render service's HTTP API and the small
// page that hosts rendered analyses.
package dashboard

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/sage/internal/backend"
	"github.com/ziadkadry99/sage/internal/merge"
	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/state"
)

// SessionHeader names the header that selects the caller's session.
const SessionHeader = "X-Sage-Session"

// maxBodyBytes bounds request bodies carrying result JSON.
const maxBodyBytes = 8 << 20

// Options configures a Dashboard. Cache, History and the backend sources
// are optional; the routes that need a missing one answer 503.
type Options struct {
	Engine       *render.Engine
	Cache        state.Cache
	History      *state.History
	Sessions     *state.Sessions
	Local        backend.Source
	Workflow     backend.Source
	MergeTimeout time.Duration
}

// Dashboard routes HTTP requests to the render engine, the cache and the
// per-session merge coordinators.
type Dashboard struct {
	engine       *render.Engine
	cache        state.Cache
	history      *state.History
	sessions     *state.Sessions
	local        backend.Source
	workflow     backend.Source
	mergeTimeout time.Duration

	mu           sync.Mutex
	coordinators map[string]*merge.Coordinator
}

// New creates a new Dashboard.
func New(opts Options) *Dashboard {
	d := &Dashboard{
		engine:       opts.Engine,
		cache:        opts.Cache,
		history:      opts.History,
		sessions:     opts.Sessions,
		local:        opts.Local,
		workflow:     opts.Workflow,
		mergeTimeout: opts.MergeTimeout,
		coordinators: make(map[string]*merge.Coordinator),
	}
	if d.engine == nil {
		d.engine = render.NewEngine(render.Options{Cache: opts.Cache, History: d.recorder()})
	}
	if d.sessions == nil {
		d.sessions = state.NewSessions()
	}
	return d
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)
	r.Get("/static/sage.js", serveAsset("application/javascript; charset=utf-8", render.Script))
	r.Get("/static/sage.css", serveAsset("text/css; charset=utf-8", render.Stylesheet))

	r.Route("/api", func(r chi.Router) {
		r.Get("/kinds", d.handleKinds)
		r.Post("/render/{kind}", d.handleRender)
		r.Get("/cache", d.handleCacheList)
		r.Get("/cache/{templateID}", d.handleCacheGet)
		r.Delete("/cache/{templateID}", d.handleCacheDelete)
		r.Get("/history", d.handleHistory)
		r.Post("/session/template", d.handleSetTemplate)
		r.Post("/merge/{source}", d.handleMerge)
		r.Post("/analyze", d.handleAnalyze)
	})

	r.Get("/ws/status", d.handleStatus)
}

// session returns the caller's session. Browsers cannot set headers on a
// websocket handshake, so the session query parameter is accepted too.
func (d *Dashboard) session(r *http.Request) *state.Session {
	id := r.Header.Get(SessionHeader)
	if id == "" {
		id = r.URL.Query().Get("session")
	}
	return d.sessions.Get(id)
}

// coordinator returns the merge coordinator for s, creating it on first use.
func (d *Dashboard) coordinator(s *state.Session) *merge.Coordinator {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.coordinators[s.ID()]
	if !ok {
		c = merge.NewCoordinator(s, d.engine, merge.Options{
			Timeout: d.mergeTimeout,
			History: d.recorder(),
		})
		d.coordinators[s.ID()] = c
	}
	return c
}

// recorder returns the history as a Recorder, or nil without one.
func (d *Dashboard) recorder() state.Recorder {
	if d.history == nil {
		return nil
	}
	return d.history
}
