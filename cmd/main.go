package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mlserve/internal/adapters/config"
	"mlserve/internal/adapters/errors/noop"
	"mlserve/internal/adapters/errors/sentry"
	"mlserve/internal/api"
	"mlserve/internal/api/health"
	"mlserve/internal/domain/model"
	"mlserve/internal/metrics"
	"mlserve/internal/ml"
	"mlserve/internal/services/prediction"
	"mlserve/pkg/errors"
	"mlserve/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize logger
	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	// Initialize error tracker
	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	m := metrics.New()

	// Load the classifier artifact. Failure here is fatal: the server must
	// not start accepting requests without a model.
	classifier, err := ml.LoadONNXModel(cfg.Model.Path)
	if err != nil {
		m.ModelLoaded.Set(0)
		log.Fatalf("Failed to load model from %s: %v", cfg.Model.Path, err)
	}
	defer classifier.Close()
	m.ModelLoaded.Set(1)
	log.Infof("Model loaded from %s", cfg.Model.Path)

	// A missing metadata record is tolerated (defaults are synthesized),
	// an unreadable one is not
	meta, err := model.Load(cfg.Model.MetadataPath, classifier.Descriptor(), log)
	if err != nil {
		log.Fatalf("Failed to load model metadata: %v", err)
	}
	log.Infof("Serving %s v%s (%d features, %d classes)",
		meta.Name, meta.Version, meta.NFeatures, len(meta.Classes))

	// Wire the serving stack
	service := prediction.NewService(classifier, meta, m, log)
	handlers := api.NewHandlers(service, log)
	healthHandler := health.New(service, cfg.App.Name, cfg.App.Version)

	server := api.NewServer(api.ServerConfig{
		Port:           cfg.Server.Port,
		ServiceName:    cfg.App.Name,
		Version:        cfg.App.Version,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	}, handlers, healthHandler, m, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	waitForShutdown(server, errorTracker, log)
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// waitForShutdown waits for a shutdown signal and drains the server
func waitForShutdown(server *api.Server, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("Shutdown error: %v", err)
	}

	if err := errorTracker.Flush(ctx); err != nil {
		log.Warnf("Failed to flush error tracker: %v", err)
	}

	log.Info("Shutdown complete")
}
