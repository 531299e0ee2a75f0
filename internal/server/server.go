// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the monitor pipeline over HTTP: seed management,
// synchronous and streamed citation discovery, batch analysis, and the
// persisted report files.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pdiddy/scholar-monitor/internal/analyze"
	"github.com/pdiddy/scholar-monitor/internal/discover"
	"github.com/pdiddy/scholar-monitor/internal/observability"
	"github.com/pdiddy/scholar-monitor/internal/session"
	"github.com/pdiddy/scholar-monitor/internal/store"
	"github.com/pdiddy/scholar-monitor/pkg/types"
)

// Deps are the collaborators a Server is built from. Store and Metrics may
// be nil.
type Deps struct {
	Config      types.MonitorConfig
	Session     *session.Session
	Engine      *discover.Engine
	NewAnalyzer analyze.Factory
	Store       *store.Store
	Metrics     *observability.Metrics
	Logger      zerolog.Logger
}

// Server is the HTTP API server.
type Server struct {
	cfg         types.MonitorConfig
	session     *session.Session
	engine      *discover.Engine
	newAnalyzer analyze.Factory
	store       *store.Store
	metrics     *observability.Metrics
	validate    *validator.Validate
	logger      zerolog.Logger

	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes mounted.
func New(d Deps) *Server {
	s := &Server{
		cfg:         d.Config,
		session:     d.Session,
		engine:      d.Engine,
		newAnalyzer: d.NewAnalyzer,
		store:       d.Store,
		metrics:     d.Metrics,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      d.Logger.With().Str("component", "http-server").Logger(),
	}
	if s.session == nil {
		s.session = session.New()
	}
	s.router = s.buildRouter()

	addr := d.Config.Server.Addr
	if addr == "" {
		addr = types.DefaultAddr
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/taxonomy", s.taxonomy)

		r.Route("/seed-papers", func(r chi.Router) {
			r.Get("/", s.listSeeds)
			r.Post("/extract", s.extractSeeds)
			r.Post("/add", s.addSeed)
			r.Post("/set", s.setSeeds)
			r.Post("/remove", s.removeSeed)
		})

		r.Post("/citations/find", s.findCitations)
		r.Post("/citations/find/stream", s.streamCitations)
		r.Post("/analyze", s.analyze)

		r.Get("/paper-logs/list", s.listLogs)
		r.Get("/paper-logs/{filename}", s.getLog)
	})

	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}
	return r
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then shuts down within the configured
// timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.logger.Info().Msg("HTTP server shutting down")
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response. The body uses the "detail" key
// the web front end reads.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"detail": message})
}

// decode reads an optional JSON body into v and validates it. An empty body
// leaves v at its zero value.
func (s *Server) decode(r *http.Request, v any) error {
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("invalid request body: %w", err)
		}
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
