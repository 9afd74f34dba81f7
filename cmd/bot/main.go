package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-report-bot/internal/adapter/httpadapter"
	"github.com/couchcryptid/weather-report-bot/internal/adapter/telegram"
	"github.com/couchcryptid/weather-report-bot/internal/adapter/weatherstack"
	"github.com/couchcryptid/weather-report-bot/internal/assets"
	"github.com/couchcryptid/weather-report-bot/internal/bot"
	"github.com/couchcryptid/weather-report-bot/internal/config"
	"github.com/couchcryptid/weather-report-bot/internal/observability"
	"github.com/couchcryptid/weather-report-bot/internal/render"
	"github.com/couchcryptid/weather-report-bot/internal/stats"
	"github.com/couchcryptid/weather-report-bot/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	startEpoch := clock.Now().Unix()

	// Request tracking is feature-flagged via DATABASE_ENABLED.
	var db *store.Store
	if cfg.DatabaseEnabled {
		db, err = store.Open(cfg.DatabasePath)
		if err != nil {
			logger.Error("failed to open database", "path", cfg.DatabasePath, "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("database close error", "error", err)
			}
		}()
		logger.Info("request tracking enabled", "path", cfg.DatabasePath)
	} else {
		logger.Info("request tracking disabled")
	}

	catalog := assets.NewCatalog(assets.Config{
		BackgroundDir: cfg.BackgroundDir,
		IconDir:       cfg.IconDir,
		CodesPath:     cfg.CodesPath,
	}, logger)

	weather := weatherstack.NewClient(cfg.WeatherstackToken, cfg.WeatherstackUnits,
		cfg.WeatherstackHTTPS, metrics, logger)
	transport := telegram.NewClient(cfg.TelegramToken, cfg.PollTimeout, logger)
	renderer := render.New(catalog, cfg.FontPath, metrics, logger)

	// A nil *store.Store must stay a nil interface inside the loop.
	var registers bot.RegisterStore
	if db != nil {
		registers = db
	}

	loop := bot.New(transport, weather, renderer, registers,
		cfg.ScratchDir, clock, metrics, logger)

	srv := httpadapter.NewServer(cfg.HTTPAddr, loop, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := loop.Run(ctx); err != nil {
			logger.Error("conversation loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}

	// The loop must finish its in-flight update and scratch cleanup
	// before the store is read for statistics or closed.
	<-loopDone

	if cfg.ShowStats && db != nil {
		dumpStats(db, startEpoch, cfg.StatsDir, logger)
	}

	logger.Info("shutdown complete")
}

// dumpStats writes a summary of this run's registers plus a request map
// into the stats directory.
func dumpStats(db *store.Store, sinceEpoch int64, dir string, logger *slog.Logger) {
	summary, err := stats.Report(db, sinceEpoch)
	if err != nil {
		logger.Error("stats report failed", "error", err)
		return
	}
	logger.Info("session statistics",
		"users", summary.Users,
		"registers", summary.Registers,
		"min_temperature", summary.MinTemperature,
		"max_temperature", summary.MaxTemperature,
		"avg_temperature", summary.AvgTemperature)

	registers, err := db.RegistersSince(sinceEpoch)
	if err != nil {
		logger.Error("stats registers load failed", "error", err)
		return
	}
	mapPath := filepath.Join(dir, "map.html")
	if err := stats.WriteMap(registers, mapPath); err != nil {
		logger.Error("stats map write failed", "error", err)
		return
	}
	chartsPath := filepath.Join(dir, "charts.html")
	if err := stats.WriteCharts(registers, chartsPath); err != nil {
		logger.Error("stats charts write failed", "error", err)
		return
	}
	logger.Info("statistics written", "map", mapPath, "charts", chartsPath)
}
