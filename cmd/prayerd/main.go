package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/prayer-companion/internal/application"
	"github.com/example/prayer-companion/internal/calendar"
	"github.com/example/prayer-companion/internal/config"
	httptransport "github.com/example/prayer-companion/internal/http"
	"github.com/example/prayer-companion/internal/persistence/sqlite"
	"github.com/example/prayer-companion/internal/prayer"
)

// pruneSchedule runs the nightly resolution cleanup.
const pruneSchedule = "15 3 * * *"

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	settingsRepo := sqlite.NewSettingsRepository(store)
	sourceRepo := sqlite.NewSourceRepository(store)
	resolutionRepo := sqlite.NewResolutionRepository(store)

	defaults := application.Settings{
		Planning: prayer.DefaultConfig(),
		Calculation: application.Calculation{
			Latitude:  cfg.Location.Latitude,
			Longitude: cfg.Location.Longitude,
			Timezone:  cfg.Location.Timezone,
			Method:    cfg.Location.Method,
			AsrSchool: cfg.Location.AsrSchool,
		},
	}

	var planService *application.PlanService
	invalidatePlans := func() {
		if planService != nil {
			planService.InvalidateCache()
		}
	}

	settingsService := application.NewSettingsService(settingsRepo, defaults, now, logger, invalidatePlans)
	sourceService := application.NewSourceService(sourceRepo, idGenerator, now, logger, invalidatePlans)
	resolutionService := application.NewResolutionService(resolutionRepo, idGenerator, now, logger)

	fetcher := calendar.NewFetcher(&http.Client{Timeout: 30 * time.Second}, logger)
	planService = application.NewPlanService(settingsService, sourceService, fetcher, resolutionRepo, now, logger)

	scheduler := cron.New()
	if cfg.RefreshSchedule != "" {
		if _, err := scheduler.AddFunc(cfg.RefreshSchedule, func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			if err := planService.RefreshFeeds(refreshCtx); err != nil && !errors.Is(err, application.ErrNoSources) {
				logger.Error("background feed refresh failed", "error", err)
			}
		}); err != nil {
			logger.Error("invalid refresh schedule", "schedule", cfg.RefreshSchedule, "error", err)
			os.Exit(1)
		}
	}
	if cfg.RetainResolutionDays > 0 {
		if _, err := scheduler.AddFunc(pruneSchedule, func() {
			pruneCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			cutoff := now().AddDate(0, 0, -cfg.RetainResolutionDays).Format("2006-01-02")
			if err := resolutionService.PruneBefore(pruneCtx, cutoff); err != nil {
				logger.Error("resolution prune failed", "cutoff", cutoff, "error", err)
			}
		}); err != nil {
			logger.Error("failed to schedule resolution prune", "error", err)
			os.Exit(1)
		}
	}
	scheduler.Start()
	defer func() { <-scheduler.Stop().Done() }()

	planHandler := httptransport.NewPlanHandler(planService, logger)
	settingsHandler := httptransport.NewSettingsHandler(settingsService, logger)
	sourceHandler := httptransport.NewSourceHandler(sourceService, logger)
	resolutionHandler := httptransport.NewResolutionHandler(resolutionService, logger)
	exportHandler := httptransport.NewExportHandler(planService, settingsService, logger)

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Plan:        planHandler,
		Settings:    settingsHandler,
		Sources:     sourceHandler,
		Resolutions: resolutionHandler,
		Export:      exportHandler,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.BasicAuth(cfg.Auth.Username, cfg.Auth.PasswordHash, logger),
		},
	})

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("prayer companion API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}
