// Package server hosts the render API: chi router, middleware, CORS and a
// graceful lifecycle. Feature packages register their routes on Router.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/sage/internal/db"
)

// Config holds server configuration.
type Config struct {
	Port int
	// AllowedOrigins lists CORS origins. Empty allows localhost only.
	AllowedOrigins []string
	// AllowAll allows every CORS origin (dev mode).
	AllowAll bool
	// RequestTimeout bounds each request. Merges wait on two backends, so
	// this should exceed the merge timeout. Zero picks the default and
	// NoTimeout disables the bound.
	RequestTimeout time.Duration
}

// NoTimeout as Config.RequestTimeout lets requests run until the client
// goes away.
const NoTimeout time.Duration = -1

// Server is the HTTP front of the render service.
type Server struct {
	cfg        Config
	db         *db.DB
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. database may be nil when caching is in memory.
func New(cfg Config, database *db.DB) *Server {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 6 * time.Minute
	}
	s := &Server{cfg: cfg, db: database}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	if s.cfg.AllowAll {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Sage-Session"},
		AllowCredentials: !s.cfg.AllowAll,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"degraded","error":%q}`, err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection, if any.
func (s *Server) Database() *db.DB { return s.db }

// Handler wraps the router with the request timeout. Websocket upgrades are
// exempt since they outlive any single request.
func (s *Server) Handler() http.Handler {
	if s.cfg.RequestTimeout < 0 {
		return s.router
	}
	timeout := middleware.Timeout(s.cfg.RequestTimeout)(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") == "websocket" {
			s.router.ServeHTTP(w, r)
			return
		}
		timeout.ServeHTTP(w, r)
	})
}

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("sage server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
