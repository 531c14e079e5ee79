package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/vehicledesc/config"
	"github.com/use-agent/vehicledesc/models"
	"github.com/ysmood/gson"
)

// RodLauncher starts a dedicated headless Chromium per Launch call.
// Sessions are never pooled or shared.
type RodLauncher struct {
	browserCfg      config.BrowserConfig
	pageLoadTimeout time.Duration
}

// NewRodLauncher creates a launcher from the browser configuration.
func NewRodLauncher(browserCfg config.BrowserConfig, pageLoadTimeout time.Duration) *RodLauncher {
	return &RodLauncher{browserCfg: browserCfg, pageLoadTimeout: pageLoadTimeout}
}

// Launch starts Chromium, connects to it and opens the single tab the
// session works in. On any failure everything started so far is torn down.
func (r *RodLauncher) Launch(ctx context.Context) (Page, error) {
	cfg := r.browserCfg

	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("window-size"), fmt.Sprintf("%d,%d", cfg.WindowWidth, cfg.WindowHeight))
	l.Set(flags.Flag("user-agent"), cfg.UserAgent)
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("disable-extensions"))

	// Cleanup blocks until the process exits, so it is only safe once the
	// process has started.
	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to launch browser", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewScrapeError(models.ErrCodeBrowserLaunch, "failed to connect to browser", err)
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		l.Cleanup()
		return nil, categorizeError(err, models.ErrCodeBrowserLaunch, "failed to open page")
	}

	s := &rodPage{
		launcher:        l,
		browser:         browser,
		page:            page,
		pageLoadTimeout: r.pageLoadTimeout,
	}
	s.prepare(cfg)
	return s, nil
}

// rodPage is a Page backed by one rod tab in a browser it owns.
type rodPage struct {
	launcher *launcher.Launcher
	browser  *rod.Browser // not bound to the request context
	page     *rod.Page    // bound to the request context
	router   *rod.HijackRouter

	pageLoadTimeout time.Duration
}

// prepare applies viewport, headers, stealth and resource blocking. All of it
// must happen before the first navigation. Failures only degrade fidelity,
// so they are logged and ignored.
func (s *rodPage) prepare(cfg config.BrowserConfig) {
	if err := s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             cfg.WindowWidth,
		Height:            cfg.WindowHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("viewport override failed", "error", err)
	}

	if cfg.AcceptLanguage != "" {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": cfg.AcceptLanguage}),
		}).Call(s.page); err != nil {
			slog.Warn("setting extra headers failed", "error", err)
		}
	}

	if cfg.Stealth {
		if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	s.router = setupHijack(s.page, cfg.BlockedResourceTypes)
}

func (s *rodPage) Navigate(url string) error {
	p := s.page
	if s.pageLoadTimeout > 0 {
		p = p.Timeout(s.pageLoadTimeout)
		defer p.CancelTimeout()
	}
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

func (s *rodPage) Ready() (bool, error) {
	res, err := s.page.Eval(`() => document.readyState`)
	if err != nil {
		return false, err
	}
	return res.Value.Str() == "complete", nil
}

func (s *rodPage) Has(selector string) (bool, error) {
	found, _, err := s.page.Has(selector)
	return found, err
}

func (s *rodPage) find(selector string) (*rod.Element, error) {
	found, el, err := s.page.Has(selector)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	}
	return el, nil
}

func (s *rodPage) Fill(selector, value string) error {
	el, err := s.find(selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("clear %s: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("input %s: %w", selector, err)
	}
	return nil
}

func (s *rodPage) Click(selector string) error {
	el, err := s.find(selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (s *rodPage) Text(selector string) (string, bool, error) {
	found, el, err := s.page.Has(selector)
	if err != nil || !found {
		return "", false, err
	}
	text, err := el.Text()
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (s *rodPage) HTML() (string, error) {
	return s.page.HTML()
}

// Close stops the hijack router, closes the browser over CDP, then kills the
// process and removes its profile directory. It uses the browser reference
// without the request context so cleanup still works after a deadline.
func (s *rodPage) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	return err
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
