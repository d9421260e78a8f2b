// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/audexdev/IdeaSpark/internal/config"
	"github.com/audexdev/IdeaSpark/internal/gate"
	"github.com/audexdev/IdeaSpark/internal/generate"
	"github.com/audexdev/IdeaSpark/internal/handlers"
	"github.com/audexdev/IdeaSpark/internal/history"
	"github.com/audexdev/IdeaSpark/internal/identity"
	"github.com/audexdev/IdeaSpark/internal/metrics"
	"github.com/audexdev/IdeaSpark/internal/middleware"
	"github.com/audexdev/IdeaSpark/internal/ratelimit"
	"github.com/audexdev/IdeaSpark/internal/store"
	"github.com/audexdev/IdeaSpark/pkg/logger"
)

// Server is the HTTP server with all request-path dependencies wired.
type Server struct {
	cfg           *config.Config
	log           *logger.Logger
	httpServer    *http.Server
	healthHandler *handlers.HealthHandler
	store         store.Store
	history       history.Repository

	mu       sync.RWMutex
	listener net.Listener
	running  bool
}

// New builds a Server from configuration, connecting to the counter
// store and, when configured, the history database.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Server, error) {
	st, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo history.Repository
	if cfg.HistoryEnabled() {
		repo, err = history.NewPostgresRepository(ctx, &cfg.Database)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		log.Info("history persistence enabled")
	}

	svc := generate.NewClient(&cfg.Generator, log)
	return NewWithDeps(cfg, log, st, svc, repo), nil
}

// NewWithDeps builds a Server on already-constructed dependencies.
// Tests use it to swap in fakes.
func NewWithDeps(cfg *config.Config, log *logger.Logger, st store.Store, svc generate.Service, repo history.Repository) *Server {
	s := &Server{
		cfg:           cfg,
		log:           log,
		healthHandler: handlers.NewHealthHandler(),
		store:         st,
		history:       repo,
	}

	limits := ratelimit.LimitsFromConfig(&cfg.Rate)
	classifier := identity.NewClassifier(limits, cfg.Cookie)
	limiter := ratelimit.NewLimiter(st, log)
	g := gate.New(classifier, limiter, log)

	generateHandler := handlers.NewGenerateHandler(g, svc, repo, log)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("POST /api/v1/generate", generateHandler.Generate)

	if repo != nil {
		historyHandler := handlers.NewHistoryHandler(repo, log)
		mux.HandleFunc("GET /api/v1/history", historyHandler.List)
		mux.HandleFunc("POST /api/v1/history/{id}/bookmark", historyHandler.ToggleBookmark)
	}

	s.registerChecks()

	chain := middleware.New(
		middleware.Metrics(),
		middleware.RequestID(),
	)

	s.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      chain.Then(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return s
}

// buildStore selects the counter store implementation: the HTTP
// pipeline endpoint when configured, otherwise redis.
func buildStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store.UseRest() {
		return store.NewRestStore(&cfg.Store), nil
	}
	st, err := store.NewRedisStore(ctx, &cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("counter store: %w", err)
	}
	return st, nil
}

// registerChecks wires readiness checks for the wired dependencies.
func (s *Server) registerChecks() {
	s.healthHandler.RegisterCheck("store", func() bool {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ReadTimeout)
		defer cancel()
		return s.store.Ping(ctx) == nil
	})
	if s.history != nil {
		s.healthHandler.RegisterCheck("history", func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ReadTimeout)
			defer cancel()
			return s.history.HealthCheck(ctx) == nil
		})
	}
}

// Handler returns the fully wired handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving. It blocks until the server stops.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.cfg.Server.Address())
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.running = true
	s.mu.Unlock()

	s.log.Info("server starting", "address", listener.Addr().String())

	err = s.httpServer.Serve(listener)
	if err != nil && err != http.ErrServerClosed {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and closes its dependencies.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("server shutting down")
	s.healthHandler.SetReady(false)

	err := s.httpServer.Shutdown(ctx)

	if closeErr := s.store.Close(); closeErr != nil {
		s.log.Error("failed to close counter store", "error", closeErr.Error())
	}
	if s.history != nil {
		s.history.Close()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	if err != nil {
		s.log.Error("shutdown error", "error", err.Error())
		return err
	}
	s.log.Info("server stopped")
	return nil
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the bound address once the server has started.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
