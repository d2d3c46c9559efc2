// Package main is the entry point for the CropSense API server.
//
// It loads configuration, connects the catalog store, builds the upstream
// clients (weather providers, chat-completion endpoint), probes the AI model
// preference list in the background, wires the HTTP handlers onto the core
// chassis, and serves until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"cropsense/internal/ai"
	"cropsense/internal/api/handlers"
	"cropsense/internal/catalog"
	"cropsense/internal/config"
	"cropsense/internal/core"
	"cropsense/internal/db"
	"cropsense/internal/external"
	"cropsense/internal/recommend"
	"cropsense/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// run encapsulates the startup lifecycle so that main() can cleanly exit on error.
func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.LogLevel)
	logger.Info("cropsense API starting",
		"environment", cfg.Environment,
		"service", cfg.Service,
		"port", cfg.Server.Port,
	)

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting catalog store: %w", err)
	}
	defer pool.Close()

	// Repositories.
	cropRepo := db.NewCropRepository(pool)
	categoryRepo := db.NewCategoryRepository(pool)
	cropDataRepo := db.NewCropDataRepository(pool)
	taxonomyRepo := db.NewTaxonomyRepository(pool)
	statsRepo := db.NewStatsRepository(pool)
	observationRepo := db.NewObservationRepository(pool)

	// Upstream clients share the breaker-and-retry transport but each
	// upstream keeps its own breaker, so a sustained WeatherAPI outage
	// cannot open the circuit for Windy or the AI endpoint.
	userAgent := cfg.Service + "/1.0"
	weatherAPIClient := external.NewBaseClient(
		&http.Client{Timeout: cfg.Weather.RequestTimeout},
		"weatherapi-upstream",
		external.DefaultRetryPolicy(),
		userAgent,
	)
	windyClient := external.NewBaseClient(
		&http.Client{Timeout: cfg.Weather.RequestTimeout},
		"windy-upstream",
		external.DefaultRetryPolicy(),
		userAgent,
	)
	aiClient := external.NewBaseClient(
		&http.Client{Timeout: cfg.AI.ChatTimeout},
		"ai-upstream",
		external.DefaultRetryPolicy(),
		userAgent,
	)

	// Weather acquisition chain, primary first.
	acquirer := weather.NewAcquirer([]weather.Source{
		weather.NewWeatherAPISource(weatherAPIClient, cfg.Weather.PrimaryBaseURL, cfg.Weather.PrimaryKey, cfg.Weather.ForecastDays),
		weather.NewWindySource(windyClient, cfg.Weather.SecondaryBaseURL, cfg.Weather.SecondaryKey),
	}, cfg.Weather.RequestTimeout, logger)

	// AI advisor with startup model probing. The probe runs in the background
	// so a slow upstream cannot delay serving; requests arriving before it
	// settles get fallback answers.
	chatClient := ai.NewChatClient(aiClient, cfg.AI.Endpoint, cfg.AI.Token)
	probe := ai.NewModelProbe(chatClient, cfg.AI.Models, cfg.AI.ProbeTimeout, logger)
	advisor := ai.NewAdvisor(chatClient, probe, cfg.AI.ChatTimeout, logger)
	go probe.Probe(ctx)

	// Catalog services.
	catalogService := catalog.NewService(cropRepo, categoryRepo, cropDataRepo, taxonomyRepo, catalog.Options{
		StrictFilterPagination: cfg.Catalog.StrictFilterPagination,
		DefaultLimit:           cfg.Catalog.DefaultLimit,
		MaxLimit:               cfg.Catalog.MaxLimit,
		TrainingExportLimit:    cfg.Catalog.TrainingExportLimit,
	}, logger)
	statsService := catalog.NewStatsService(cropRepo, taxonomyRepo, cropDataRepo, categoryRepo, statsRepo, logger)

	srv, err := core.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	srv.HealthProbes = append(srv.HealthProbes, &dbProbe{pool: pool})

	weatherHandler := handlers.NewWeatherHandler(acquirer, observationRepo, logger)
	recommendHandler := handlers.NewRecommendHandler(recommend.NewScorer(), observationRepo, srv.Validator, logger)
	aiHandler := handlers.NewAIHandler(advisor, probe, catalogService, srv.Validator, logger)
	cropsHandler := handlers.NewCropsHandler(catalogService, statsService, logger)

	srv.RouteRegistrars = append(srv.RouteRegistrars,
		weatherHandler.RegisterRoutes,
		recommendHandler.RegisterRoutes,
		aiHandler.RegisterRoutes,
		cropsHandler.RegisterRoutes,
	)
	srv.MountRoutes()

	return runHTTPServer(srv, cfg, logger)
}

// dbProbe reports catalog store connectivity to the /health endpoint.
type dbProbe struct {
	pool *pgxpool.Pool
}

func (p *dbProbe) Name() string { return "database" }

func (p *dbProbe) Check(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// runHTTPServer starts the server in standard HTTP mode with graceful shutdown.
func runHTTPServer(srv *core.Server, cfg *config.Config, logger *slog.Logger) error {
	addr := ":" + cfg.Server.Port

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("initiating graceful shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped cleanly")
	return nil
}

// newLogger creates a structured slog.Logger for the given log level.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(handler)
}
