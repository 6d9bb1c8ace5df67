package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/wordquiz/internal/config"
	"github.com/JonMunkholm/wordquiz/internal/core"
	"github.com/JonMunkholm/wordquiz/internal/logging"
	"github.com/JonMunkholm/wordquiz/internal/speech"
	"github.com/JonMunkholm/wordquiz/internal/store"
	"github.com/JonMunkholm/wordquiz/internal/transport"
	"github.com/JonMunkholm/wordquiz/internal/web"
)

func main() {
	// Load .env (if present) and validate configuration
	cfg, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()

	normalizer, err := core.NewNormalizer(cfg.Import)
	if err != nil {
		slog.Error("failed to load header keywords", "error", err)
		os.Exit(1)
	}

	// Import history: Postgres when configured, otherwise in memory
	var history store.History
	if cfg.Database.Enabled() {
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		history = pg
		slog.Info("import history stored in postgres")
	} else {
		history = store.NewMemory(cfg.Database.HistorySize)
		slog.Info("import history kept in memory", "size", cfg.Database.HistorySize)
	}

	fetcher := transport.New(
		transport.WithTimeout(cfg.Import.FetchTimeout),
		transport.WithMaxSize(cfg.Import.MaxFileSize),
		transport.WithLocalFiles(cfg.Security.AllowLocalPaths),
		transport.WithLogger(slog.Default()),
	)

	var voices speech.Provider
	if p, err := speech.NewCommandProvider(""); err == nil {
		voices = p
	} else {
		slog.Info("speech disabled", "error", err)
		voices = speech.NewNopProvider()
	}

	service := core.NewService(core.Options{
		Normalizer:  normalizer,
		Fetcher:     fetcher,
		History:     history,
		Limiter:     core.NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime),
		MaxFileSize: cfg.Import.MaxFileSize,
		PreviewRows: cfg.Import.PreviewRows,
		MaxCells:    cfg.Import.MaxCells,
	})

	server := web.NewServer(cfg, service, voices)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running imports to finish (with timeout)
		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active, "import_ids", status.IDs())
			if err := service.WaitForImports(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
