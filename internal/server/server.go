// Package server serves the directory over HTTP.
//
// Pages and the JSON API read the shared roster.State and never write it.
// Everything except /login, /healthz and /metrics sits behind the login
// gate when a Verifier is configured.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/roach88/staffdir/internal/auth"
	"github.com/roach88/staffdir/internal/metrics"
	"github.com/roach88/staffdir/internal/render"
	"github.com/roach88/staffdir/internal/roster"
)

// DarkModeStore persists the dark mode preference.
type DarkModeStore interface {
	DarkMode(ctx context.Context) (bool, error)
	SetDarkMode(ctx context.Context, on bool) error
}

// Options wires a Server.
type Options struct {
	State    *roster.State
	Renderer *render.Renderer
	Prefs    DarkModeStore

	// Verifier and Sessions enable the login gate. A nil Verifier leaves
	// the directory open.
	Verifier auth.Verifier
	Sessions *auth.Sessions

	// SecureCookies marks the session cookie Secure.
	SecureCookies bool

	Metrics metrics.Collector

	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler

	Logger *zap.Logger

	// Debounce is the search input delay used by the page script.
	Debounce time.Duration
}

// Server handles directory requests.
type Server struct {
	opts   Options
	logger *zap.Logger
	router chi.Router
}

// New validates opts and builds the router.
func New(opts Options) (*Server, error) {
	if opts.State == nil {
		return nil, errors.New("server: state is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("server: renderer is required")
	}
	if opts.Verifier != nil && opts.Sessions == nil {
		return nil, errors.New("server: sessions are required with a verifier")
	}
	opts.Metrics = metrics.OrNoOp(opts.Metrics)
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{opts: opts, logger: opts.Logger}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) gated() bool {
	return s.opts.Verifier != nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if s.gated() {
			r.Use(auth.Middleware(s.opts.Sessions))
			r.Get("/login", s.handleLoginPage)
			r.Post("/login", s.handleLogin)
		}

		r.Group(func(r chi.Router) {
			if s.gated() {
				r.Use(auth.RequireAuth("/login"))
			}
			r.Get("/", s.handleIndex)
			r.Get("/employees/{id}", s.handleDetails)
			r.Get("/api/employees", s.handleAPIEmployees)
			r.Get("/api/facets", s.handleAPIFacets)
			r.Post("/preferences/dark-mode", s.handleDarkMode)
			r.Post("/logout", s.handleLogout)
		})
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// Timeouts bound request handling and shutdown.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Shutdown time.Duration
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, t Timeouts) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, t)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, t Timeouts) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       t.Read,
		ReadHeaderTimeout: t.Read,
		WriteTimeout:      t.Write,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdown := t.Shutdown
	if shutdown <= 0 {
		shutdown = 5 * time.Second
	}
	sctx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()

	s.logger.Info("http server shutting down")
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
