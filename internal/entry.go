// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/failbook/internal/aggregate"
	"github.com/starford/failbook/internal/api"
	"github.com/starford/failbook/internal/mcpserver"
	"github.com/starford/failbook/internal/render"
	"github.com/starford/failbook/internal/report"
	"github.com/starford/failbook/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{version: "dev"}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// MCP mode owns stdout for the protocol stream.
	var logOut io.Writer = os.Stdout
	if app.mcp {
		logOut = os.Stderr
	}

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("base_dir", cfg.Scan.BaseDir),
		slog.String("log_level", cfg.App.LogLevel.String()),
		slog.Bool("mcp", app.mcp))

	svc, err := newReportService(cfg, logger)
	if err != nil {
		return err
	}

	if app.mcp {
		logger.Info("Serving MCP on stdio")
		return mcpserver.New(svc, app.version).ServeStdio()
	}

	return serveHTTP(ctx, cfg, svc, logger)
}

func newReportService(cfg *Config, logger *slog.Logger) (*report.Service, error) {
	store, err := storage.NewFS(cfg.Scan.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	agg := aggregate.New(aggregate.Options{
		ResultsFile:    cfg.Scan.ResultsFile,
		TranscriptFile: cfg.Scan.TranscriptFile,
		Logger:         logger,
	})
	return report.NewService(store, agg, render.New(cfg.Output.Title), cfg.Output.Outputs(), logger), nil
}

// NewHandler builds the full HTTP handler: middleware, health checks and
// the report routes.
func NewHandler(svc *report.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/", api.NewRouter(svc))
	return r
}

func serveHTTP(ctx context.Context, cfg *Config, svc *report.Service, logger *slog.Logger) error {
	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           NewHandler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
