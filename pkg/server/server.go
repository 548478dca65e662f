package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elormyevu/nku-gateway/pkg/config"
	"github.com/elormyevu/nku-gateway/pkg/gateway"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 15 * time.Second

// Server is the HTTP front end. It owns the listener and routes requests
// into the gateway pipeline.
type Server struct {
	config  *config.ServerConfig
	gateway *gateway.Gateway
	logger  *slog.Logger

	metricsPath string
	gatherer    prometheus.Gatherer

	httpServer   *http.Server
	mu           sync.RWMutex
	isRunning    bool
	shutdownOnce sync.Once
}

// Options carries the optional surfaces of a Server.
type Options struct {
	// MetricsPath mounts a Prometheus handler at the given path when
	// non-empty. Gatherer defaults to prometheus.DefaultGatherer.
	MetricsPath string
	Gatherer    prometheus.Gatherer

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// New builds a Server around an assembled gateway.
func New(cfg *config.ServerConfig, gw *gateway.Gateway, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config is required")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	return &Server{
		config:      cfg,
		gateway:     gw,
		logger:      logger.With("component", "server"),
		metricsPath: opts.MetricsPath,
		gatherer:    gatherer,
	}, nil
}

// Start runs the listener and blocks until shutdown. It returns nil on a
// clean shutdown and the listener error otherwise.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.setupRoutes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting gateway server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server. Safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", DefaultShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, DefaultShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("gateway server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the listener is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured route handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes wires the endpoint handlers onto a mux.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/v1/translate", s.taskHandler(gateway.TaskTranslate))
	mux.Handle("/v1/triage", s.taskHandler(gateway.TaskTriage))
	mux.HandleFunc("/health", s.handleHealth)

	if s.metricsPath != "" {
		mux.Handle(s.metricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
