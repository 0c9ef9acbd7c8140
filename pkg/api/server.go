package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/pseudomuto/chsync/pkg/migrator"
)

const shutdownTimeout = 10 * time.Second

type (
	// Config contains the collaborators for a Server.
	Config struct {
		Addr string

		// Syncer runs migrations. When nil, endpoints that talk to ClickHouse
		// answer 503.
		Syncer *migrator.Syncer

		// Markets expand {market} placeholders when a request names none.
		Markets []string

		Logger *slog.Logger
	}

	// Server exposes extraction, rewriting and migration over HTTP.
	Server struct {
		router  *chi.Mux
		syncer  *migrator.Syncer
		markets []string
		log     *slog.Logger
		srv     *http.Server
	}
)

// New creates a Server with its routes registered.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		router:  chi.NewRouter(),
		syncer:  cfg.Syncer,
		markets: cfg.Markets,
		log:     log,
	}

	s.setupRoutes()

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(Metrics)
	s.router.Use(s.requestLogger)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/tables", s.handleTables)
		r.Get("/tables/{name}/ddl", s.handleTableDDL)
		r.Post("/ddl/rewrite", s.handleRewrite)
		r.Post("/migrate", s.handleMigrate)
	})
}

// Handler returns the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.srv.Addr)
	}

	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", "addr", ln.Addr().String())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.log.Info("shutting down HTTP server")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "failed to shut down HTTP server")
	}

	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
