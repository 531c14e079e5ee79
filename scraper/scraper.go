package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/metrics"
	"github.com/use-agent/vehicledesc/models"
)

// Scraper runs the portal lookups. Every lookup gets its own browser session
// from the Launcher; nothing is shared between lookups. It is safe for
// concurrent use.
type Scraper struct {
	launcher Launcher
	cfg      config.ScraperConfig
	portals  config.PortalsConfig
	metrics  *metrics.Metrics

	activeSessions atomic.Int32
	now            func() time.Time
}

// NewScraper creates a Scraper. m may be nil.
func NewScraper(l Launcher, cfg config.ScraperConfig, portals config.PortalsConfig, m *metrics.Metrics) *Scraper {
	return &Scraper{
		launcher: l,
		cfg:      cfg,
		portals:  portals,
		metrics:  m,
		now:      time.Now,
	}
}

// ActiveSessions returns the number of browser sessions currently running.
func (s *Scraper) ActiveSessions() int {
	return int(s.activeSessions.Load())
}

// Credentials resolves the portal credentials a lookup would log in with:
// each empty override field falls back to the configured default. It fails
// with INVALID_INPUT when the result is incomplete or the portal is unknown.
func (s *Scraper) Credentials(portal string, override config.Credentials) (config.Credentials, error) {
	switch portal {
	case CarfaxPortal.Name:
		return resolveCredentials(override, s.portals.Carfax)
	case VelocityPortal.Name:
		return resolveCredentials(override, s.portals.Velocity)
	default:
		return config.Credentials{}, models.NewScrapeError(models.ErrCodeInvalidInput, "unknown portal "+portal, nil)
	}
}

// resolveCredentials fills each empty override field from the portal default.
func resolveCredentials(override, fallback config.Credentials) (config.Credentials, error) {
	creds := override
	if creds.Username == "" {
		creds.Username = fallback.Username
	}
	if creds.Password == "" {
		creds.Password = fallback.Password
	}
	if creds.Username == "" || creds.Password == "" {
		return creds, models.NewScrapeError(models.ErrCodeInvalidInput,
			"credentials are required: none supplied and no default configured", nil)
	}
	return creds, nil
}

// withSession is the scoped session lifecycle shared by both lookups:
//
//  1. Hard deadline on the whole lookup.
//  2. Launch a dedicated browser session.
//  3. DEFER: close the session on every exit path, panics included.
//  4. Run fn against the session.
//
// Any error leaving withSession is a *models.ScrapeError.
func (s *Scraper) withSession(ctx context.Context, portal, vin string, fn func(ctx context.Context, page Page) error) (err error) {
	start := time.Now()
	defer func() {
		code := "OK"
		var scrapeErr *models.ScrapeError
		if errors.As(err, &scrapeErr) {
			code = scrapeErr.Code
		}
		s.metrics.LookupFinished(portal, code, time.Since(start))
	}()

	// ── 1. Timeout guard ──────────────────────────────────────────────
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	// ── 2. Launch ─────────────────────────────────────────────────────
	page, launchErr := s.launcher.Launch(ctx)
	s.metrics.SessionLaunched(portal, launchErr)
	if launchErr != nil {
		slog.Error("browser launch failed", "portal", portal, "vin", vin, "error", launchErr)
		return categorizeError(launchErr, models.ErrCodeBrowserLaunch, "failed to launch browser")
	}
	s.activeSessions.Add(1)

	// ── 3. CRITICAL DEFER: guaranteed teardown ────────────────────────
	defer func() {
		if r := recover(); r != nil {
			slog.Error("lookup panicked", "portal", portal, "vin", vin, "panic", r)
			err = models.NewScrapeError(models.ErrCodeInternal, "internal error during lookup", fmt.Errorf("panic: %v", r))
		}
		if closeErr := page.Close(); closeErr != nil {
			slog.Warn("browser teardown reported an error", "portal", portal, "error", closeErr)
		}
		s.activeSessions.Add(-1)
		s.metrics.SessionClosed(portal)
	}()

	// ── 4. Run ────────────────────────────────────────────────────────
	slog.Info("lookup started", "portal", portal, "vin", vin)
	if runErr := fn(ctx, page); runErr != nil {
		scrapeErr := categorizeError(runErr, models.ErrCodeInternal, "lookup failed")
		slog.Error("lookup failed",
			"portal", portal,
			"vin", vin,
			"code", scrapeErr.Code,
			"error", runErr,
			"duration", time.Since(start),
		)
		return scrapeErr
	}
	slog.Info("lookup succeeded", "portal", portal, "vin", vin, "duration", time.Since(start))
	return nil
}
