// Package server exposes live canvases over a JSON HTTP API.
//
// A canvas is opened as a session, edited with the same commands the
// script form and the terminal editor use, drawn as SVG, and saved to a
// document store:
//
//	POST   /v1/canvases                 open a session (empty, inline or stored document)
//	GET    /v1/canvases                 list sessions
//	GET    /v1/canvases/{id}            session state and document
//	POST   /v1/canvases/{id}/commands   run commands (JSON or script text)
//	GET    /v1/canvases/{id}/svg        draw the canvas
//	PUT    /v1/canvases/{id}            save to the store
//	DELETE /v1/canvases/{id}            close the session
//	GET    /v1/documents                list stored documents
//	GET    /metrics                     Prometheus metrics, when enabled
//
// Canvases are single-threaded, so each session carries its own mutex and
// requests against one session are served one at a time.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/cutgraph/pkg/config"
	"github.com/matzehuels/cutgraph/pkg/store"
)

// Server serves the canvas API.
type Server struct {
	store    store.Store
	grid     config.Grid
	history  int
	maxBody  int64
	grace    time.Duration
	logger   *log.Logger
	gatherer prometheus.Gatherer
	sessions *sessions
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics serves g on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New returns a server that saves to st and opens canvases with the grid
// and history settings of cfg.
func New(st store.Store, cfg config.Config, opts ...Option) *Server {
	grace, err := time.ParseDuration(cfg.Server.ShutdownGrace)
	if err != nil || grace <= 0 {
		grace = 5 * time.Second
	}
	s := &Server{
		store:    st,
		grid:     cfg.Grid,
		history:  cfg.History.Capacity,
		maxBody:  cfg.Server.MaxBodyBytes,
		grace:    grace,
		logger:   log.Default(),
		sessions: newSessions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.limitBody)

		r.Get("/documents", s.handleListDocuments)

		r.Route("/canvases", func(r chi.Router) {
			r.Post("/", s.handleCreate)
			r.Get("/", s.handleListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGet)
				r.Put("/", s.handleSave)
				r.Delete("/", s.handleClose)
				r.Post("/commands", s.handleCommands)
				r.Get("/svg", s.handleSVG)
			})
		})
	})
	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down", "grace", s.grace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
