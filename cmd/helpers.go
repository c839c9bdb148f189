package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ziadkadry99/sage/internal/backend"
	"github.com/ziadkadry99/sage/internal/config"
	"github.com/ziadkadry99/sage/internal/db"
	"github.com/ziadkadry99/sage/internal/diagram"
	"github.com/ziadkadry99/sage/internal/learn"
	"github.com/ziadkadry99/sage/internal/llm"
	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/state"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `sage init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// stores bundles the persistence a command needs. database is nil with the
// memory cache backend, and so is history.
type stores struct {
	database *db.DB
	cache    state.Cache
	history  *state.History
}

func (s *stores) Close() {
	if s.database != nil {
		s.database.Close()
	}
}

// recorder returns the history as a Recorder, or nil without one.
func (s *stores) recorder() state.Recorder {
	if s.history == nil {
		return nil
	}
	return s.history
}

// openStores opens the cache backend named in cfg.
func openStores(cfg *config.Config) (*stores, error) {
	if cfg.Cache.Backend == config.CacheMemory {
		return &stores{cache: state.NewMemoryCache()}, nil
	}
	database, err := db.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &stores{
		database: database,
		cache:    state.NewSQLiteCache(database),
		history:  state.NewHistory(database),
	}, nil
}

// newEngine builds the render engine. The returned Graphviz must be closed.
func newEngine(cfg *config.Config, st *stores) (*render.Engine, *diagram.Graphviz) {
	gv := diagram.NewGraphviz()
	engine := render.NewEngine(render.Options{
		Diagrams:      gv,
		Learn:         learn.New(),
		Cache:         st.cache,
		History:       st.recorder(),
		TopCategories: cfg.Render.TopCategories,
		ResizeDelay:   resizeDelay(cfg),
		LabelWidth:    cfg.Render.LabelWidth,
	})
	return engine, gv
}

// resizeDelay maps a configured zero delay to an immediate resize, since a
// zero Options field means the engine default.
func resizeDelay(cfg *config.Config) time.Duration {
	if d := cfg.ResizeDelay(); d > 0 {
		return d
	}
	return render.NoResizeDelay
}

// newSources builds the two analysis sources. A source that cannot be
// configured is returned as nil with a warning on stderr.
func newSources(cfg *config.Config) (local, workflow backend.Source) {
	provider, err := llm.NewProvider(cfg.LLMSettings())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: local model disabled: %v\n", err)
	} else {
		local = backend.NewLocalModel(provider, cfg.LocalModel.Temperature, cfg.LocalModel.MaxTokens)
	}

	if cfg.Workflow.URL == "" {
		if verbose {
			fmt.Fprintln(os.Stderr, "Workflow webhook not configured; /api/analyze is disabled.")
		}
	} else {
		workflow = backend.NewWorkflow(cfg.Workflow.URL, cfg.Workflow.Token, cfg.WorkflowTimeout())
	}
	return local, workflow
}
