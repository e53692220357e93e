// Package server exposes workspaces over a JSON HTTP API.
//
// Every workspace lives in a [session.Store] under a random id. Routes live
// under /api/v1/workspaces/{id}; tutor turns stream back as Server-Sent
// Events from POST /api/v1/workspaces/{id}/chat.
//
// Errors are rendered as
//
//	{"error": {"code": "SESSION_NOT_FOUND", "message": "..."}}
//
// with the status derived from the error code.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/socraticboard/pkg/session"
	"github.com/matzehuels/socraticboard/pkg/tutor"
	"github.com/matzehuels/socraticboard/pkg/workspace"
)

// Config holds server tuning knobs. Zero values fall back to defaults.
type Config struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	SessionTTL      time.Duration
	CleanupInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = session.DefaultTTL
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = session.DefaultCleanupInterval
	}
	return c
}

// Server serves the workspace API.
type Server struct {
	cfg     Config
	engine  tutor.Engine
	store   session.Store
	wsOpts  []workspace.Option
	logger  *log.Logger
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the session store. Defaults to an in-memory store.
func WithStore(st session.Store) Option {
	return func(s *Server) {
		if st != nil {
			s.store = st
		}
	}
}

// WithWorkspaceOptions sets options applied to every new workspace.
func WithWorkspaceOptions(opts ...workspace.Option) Option {
	return func(s *Server) {
		s.wsOpts = append(s.wsOpts, opts...)
	}
}

// New creates a Server that runs tutor turns on engine.
func New(engine tutor.Engine, cfg Config, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg.withDefaults(),
		engine: engine,
		store:  session.NewMemoryStore(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully. Expired sessions are swept in the background.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like Run but accepts connections on ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go s.cleanupLoop(ctx)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String(), "engine", s.engine.Name())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.store.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("session cleanup failed", "err", err)
				continue
			}
			if n > 0 {
				s.logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

// routes builds the router. Chat streams are exempt from the request
// timeout.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	s.useMiddleware(r)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/api/v1/workspaces", func(r chi.Router) {
		r.With(s.timeout).Post("/", s.handleCreate)

		r.Route("/{id}", func(r chi.Router) {
			r.Post("/chat", s.handleChat)

			r.Group(func(r chi.Router) {
				r.Use(s.timeout)
				r.Get("/", s.handleGet)
				r.Delete("/", s.handleDelete)
				r.Put("/viewport", s.handleViewport)
				r.Put("/camera", s.handleCamera)
				r.Post("/strokes", s.handleStroke)
				r.Post("/annotations", s.handlePropose)
				r.Post("/annotations/{aid}/approve", s.handleApprove)
				r.Post("/annotations/{aid}/dismiss", s.handleDismiss)
				r.Post("/reset", s.handleReset)
				r.Get("/canvas.svg", s.handleCanvasSVG)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.logger, notFound("no route for %s %s", r.Method, r.URL.Path))
	})
	return r
}
