package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"mlserve/internal/api/health"
	"mlserve/internal/metrics"
	"mlserve/pkg/errors"
	"mlserve/pkg/logger"
)

// ServerConfig contains configuration for the HTTP server
type ServerConfig struct {
	Port         int
	ServiceName  string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	RateLimitRPS   float64
	RateLimitBurst int
}

// Server wraps the HTTP server with lifecycle management
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer creates and configures the HTTP server with all routes.
// Prediction endpoints sit behind the rate limiter; health probes and
// metrics scrapes do not.
func NewServer(cfg ServerConfig, handlers *Handlers, healthHandler *health.Handler, m *metrics.Metrics, log *logger.Logger) *Server {
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	limited := func(h http.HandlerFunc) http.Handler {
		return withRateLimit(h, limiter)
	}

	mux := http.NewServeMux()

	// Health check endpoints (Kubernetes probes)
	mux.HandleFunc("/health", healthHandler.HandleHealth)
	mux.HandleFunc("/ready", healthHandler.HandleReadiness)
	mux.HandleFunc("/live", healthHandler.HandleLiveness)
	mux.HandleFunc("/ping", healthHandler.HandlePing)

	// Model information endpoints
	mux.HandleFunc("/model/metadata", handlers.HandleMetadata)
	mux.HandleFunc("/model/features", handlers.HandleFeatures)

	// Prediction endpoints
	mux.Handle("/predict", limited(handlers.HandlePredict))
	mux.Handle("/batch-predict", limited(handlers.HandleBatchPredict))
	mux.Handle("/invocations", limited(handlers.HandleInvocations))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", m.Handler())

	// Root endpoint (service info)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":    cfg.ServiceName,
			"version": cfg.Version,
			"status":  "running",
			"endpoints": map[string]string{
				"health":            "/health",
				"predictions":       "/predict",
				"batch_predictions": "/batch-predict",
				"invocations":       "/invocations",
				"model_info":        "/model/metadata",
				"metrics":           "/metrics",
			},
		})
	})

	port := 8000
	if cfg.Port > 0 {
		port = cfg.Port
	}

	var handler http.Handler = mux
	handler = withAccessLog(handler, log)
	handler = withRequestID(handler)
	handler = withRecovery(handler, log)

	log.Infof("HTTP server configured on port %d", port)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		httpServer: httpServer,
		log:        log,
	}
}

// Start begins listening for HTTP requests
// Blocks until the server is stopped or encounters an error
func (s *Server) Start() error {
	s.log.Infof("Starting HTTP server on %s", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "http server failed")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
// Waits for active connections to complete within the context deadline
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Stopping HTTP server...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "http server shutdown failed")
	}

	s.log.Info("HTTP server stopped")
	return nil
}
