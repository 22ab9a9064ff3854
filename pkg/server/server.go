// Package server exposes generalization over HTTP.
//
// Every client first opens a session and then posts scenes to it. The
// session scopes the placement state, so consecutive calls of one client
// are stable while clients stay independent of each other:
//
//	POST   /v1/sessions                 → {"id": "..."}
//	POST   /v1/sessions/{id}/generalize   scene JSON → result JSON
//	DELETE /v1/sessions/{id}
//	GET    /healthz
//	GET    /version
//
// The generalize endpoint takes its options from the query string:
// pan_x, pan_y, name, hide_unplaced and refresh.
//
// Calls on one session are serialized; different sessions run in parallel.
package server

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/declutter/pkg/cache"
	"github.com/matzehuels/declutter/pkg/session"
)

// Defaults for [Config].
const (
	DefaultAddr         = ":8080"
	DefaultMaxBodyBytes = 8 << 20
	DefaultTimeout      = 30 * time.Second
)

// Config configures a [Server].
type Config struct {
	// Addr is the listen address.
	Addr string

	// Cache stores sessions and placement state. Defaults to an in-memory
	// cache; pass a RedisCache to share sessions between instances.
	Cache cache.Cache

	// SessionTTL is how long an idle session lives.
	SessionTTL time.Duration

	// MaxBodyBytes limits the size of posted scenes.
	MaxBodyBytes int64

	Logger *log.Logger
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.Cache == nil {
		c.Cache = cache.NewMemoryCache()
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = session.DefaultTTL
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if c.Logger == nil {
		c.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Server is the HTTP host for generalization sessions.
type Server struct {
	cfg      Config
	sessions *session.Store
	locks    *session.Locker
	router   chi.Router
}

// New creates a server. It does not start listening.
func New(cfg Config) *Server {
	cfg.setDefaults()
	s := &Server{
		cfg:      cfg,
		sessions: session.NewStore(cfg.Cache),
		locks:    session.NewLocker(),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(middleware.Timeout(DefaultTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteSession)
			r.Post("/generalize", s.handleGeneralize)
		})
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.cfg.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Close releases the server's cache.
func (s *Server) Close() error {
	return s.cfg.Cache.Close()
}
