package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/profile-comb/app/api"
	"github.com/lysyi3m/profile-comb/app/browser"
	"github.com/lysyi3m/profile-comb/app/cfg"
	"github.com/lysyi3m/profile-comb/app/config"
	"github.com/lysyi3m/profile-comb/app/database"
	"github.com/lysyi3m/profile-comb/app/profile"
	"github.com/lysyi3m/profile-comb/app/runner"
	"github.com/lysyi3m/profile-comb/app/sink"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting Profile Comb", "version", appCfg.Version, "continuous", appCfg.Continuous)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	migrationVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", migrationVersion, "dirty", dirty)

	targets, err := config.NewLoader(appCfg.TargetsFile).Load()
	if err != nil {
		slog.Error("Failed to load worklist", "path", appCfg.TargetsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Worklist loaded", "targets", len(targets.Targets))

	if len(targets.Targets) == 0 && !appCfg.DiscoverOnline {
		slog.Error("Nothing to collect: worklist is empty and online discovery is disabled")
		os.Exit(1)
	}

	repo := database.NewRepository(db)

	var store sink.RowStore
	if appCfg.SheetsEnabled {
		sheetStore, err := sink.NewSheetStore(context.Background())
		if err != nil {
			slog.Error("Failed to initialize spreadsheet sink", "error", err)
			os.Exit(1)
		}
		store = sheetStore
		slog.Info("Spreadsheet sink enabled", "spreadsheet", appCfg.SpreadsheetID)
	}

	writer := sink.NewWriter(sink.NewCSVWriter(appCfg.CSVPath), repo, store)

	sessions := browser.NewManager()
	defer sessions.Close()

	collector := runner.New(sessions, profile.NewExtractor(), profile.NewNormalizer(), writer, targets)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The status API only makes sense while passes keep running.
	var httpServer *http.Server
	if appCfg.Continuous {
		handler := api.NewHandler(repo, repo, collector)

		httpServer = &http.Server{
			Addr:         ":" + appCfg.Port,
			Handler:      api.NewServer(handler, appCfg.APIAccessKey),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		go func() {
			slog.Info("Starting HTTP server", "port", appCfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("HTTP server error", "error", err)
			}
		}()
	}

	runErr := collector.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Error("Run failed", "error", runErr)
	}

	if httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))
}
