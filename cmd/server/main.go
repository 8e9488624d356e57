package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/calebross/stagebook/internal"
	"github.com/calebross/stagebook/internal/email"
	"github.com/calebross/stagebook/internal/handler"
	"github.com/calebross/stagebook/internal/metrics"
	"github.com/calebross/stagebook/internal/middleware"
	"github.com/calebross/stagebook/internal/store"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize booking store
	var bookingStore store.Store
	switch cfg.StoreBackend {
	case store.BackendMongo:
		mongoStore := store.NewMongoStore(store.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		}, logger)

		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = mongoStore.Connect(connectCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("store connection failed: %w", err)
		}
		bookingStore = mongoStore
	default:
		bookingStore, err = store.NewFileStore(cfg.StoreFilePath, logger)
		if err != nil {
			return fmt.Errorf("store initialization failed: %w", err)
		}
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := bookingStore.Close(closeCtx); err != nil {
			logger.Error("store close failed", "error", err)
		}
	}()
	logger.Info("Store ready", "backend", cfg.StoreBackend)

	// Initialize notifier
	notifier := email.NewSMTPNotifier(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, cfg.AdminEmail, logger)

	// Initialize middleware
	tokenAuth := middleware.NewTokenAuthMiddleware(cfg.APIToken, logger)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	bookingHandler := handler.NewBookingHandler(bookingStore, notifier, logger, cfg.MaxUploadBytes)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	bookingHandler.RegisterRoutes(mux, tokenAuth.RequireToken)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	root := middleware.Stack(loggingMw.Handler, metrics.Middleware)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: root,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	// Wait for interrupt signal
	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
