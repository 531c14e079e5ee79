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

	"github.com/use-agent/vehicledesc/api"
	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/metrics"
	"github.com/use-agent/vehicledesc/scraper"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("vehicledesc starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"chrome", cfg.Browser.Bin,
		"headless", cfg.Browser.Headless,
	)
	if cfg.Portals.Carfax.Username == "" || cfg.Portals.Carfax.Password == "" {
		slog.Warn("no default Carfax credentials configured; requests must supply them")
	}
	if cfg.Portals.Velocity.Username == "" || cfg.Portals.Velocity.Password == "" {
		slog.Warn("no default Velocity credentials configured; requests must supply them")
	}

	// ── 3. Metrics ──────────────────────────────────────────────────
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	// ── 4. Scraper (one browser per lookup, nothing launched yet) ───
	launcher := scraper.NewRodLauncher(cfg.Browser, cfg.Scraper.PageLoadTimeout)
	sc := scraper.NewScraper(launcher, cfg.Scraper, cfg.Portals, m)

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(sc, cfg, api.NewCaches(cfg.Cache), m, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// In-flight lookups own their browsers and close them on return, so
	// draining the server also drains Chromium.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Scraper.RequestTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err, "activeSessions", sc.ActiveSessions())
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("vehicledesc stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
