package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"job-board-go/internal/config"
	"job-board-go/internal/jobs"
	"job-board-go/internal/logging"
	"job-board-go/internal/storage"
	"job-board-go/internal/web"
)

func main() {
	configFile := flag.String("config", "config.json", "Configuration file path")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	logger, logFile, err := logging.Setup(cfg.Monitoring.LogFile, cfg.Monitoring.LogLevel, cfg.Monitoring.LogFormat)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	backend, closeBackend, err := storage.New(cfg.Backend)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "driver", cfg.Backend.Driver, "error", err)
	}
	defer closeBackend()

	logger.Info("Starting job board", "addr", cfg.Server.Addr, "driver", cfg.Backend.Driver)

	store := jobs.NewStore(backend, logger)
	defer store.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// The list view reports loading until this settles
	go func() {
		if err := store.Load(ctx); err != nil {
			logger.Error("Initial job load failed", "error", err)
		}
	}()

	var refreshDone chan struct{}
	if cfg.Store.RefreshInterval > 0 {
		refreshDone = make(chan struct{})
		go runPeriodicRefresh(ctx, store, cfg.Store.RefreshInterval, logger, refreshDone)
	}

	router := web.NewRouter(store, backend, web.Options{
		RecentLimit:   cfg.Store.RecentLimit,
		ExcerptLength: cfg.Store.ExcerptLength,
		EnableMetrics: cfg.Monitoring.Enabled,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("HTTP server failed", "error", err)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	if refreshDone != nil {
		<-refreshDone
		logger.Info("Periodic refresh stopped")
	}

	logger.Info("Job board shutdown complete")
}

// runPeriodicRefresh reloads the job collection at regular intervals
func runPeriodicRefresh(ctx context.Context, store *jobs.Store, interval time.Duration, logger logging.Logger, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Starting periodic refresh", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			if err := store.Reload(ctx); err != nil {
				logger.Warn("Scheduled refresh failed", "error", err)
				continue
			}
			logger.Debug("Scheduled refresh completed", "duration", time.Since(start).String(), "jobs", len(store.Jobs()))
		}
	}
}
