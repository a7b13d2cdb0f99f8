// CLAUDE:SUMMARY Launches (or attaches to) Chrome with stealth and hands the probe one isolated page per run.
// Package browser is the rod-backed probe.DriverFactory. Each Open starts a
// fresh Chrome process (or attaches to a remote one), applies stealth, the
// user agent and the viewport, and returns a session that tears all of it
// down on Close.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/menuwatch/bobawatch/internal/probe"
)

// Config configures the Factory.
type Config struct {
	// Bin is the Chrome executable. Empty lets rod find or download one.
	Bin string
	// RemoteURL attaches to an already running Chrome (host:port or ws URL)
	// instead of launching one.
	RemoteURL string

	Headless  bool
	NoSandbox bool

	UserAgent      string
	AcceptLanguage string
	Width          int
	Height         int

	// Block lists resource types to drop (images, fonts, media, stylesheets).
	Block []string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Width <= 0 {
		c.Width = 1920
	}
	if c.Height <= 0 {
		c.Height = 1080
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = "en-US,en;q=0.9"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Factory opens rod sessions.
type Factory struct {
	cfg Config
}

// NewFactory creates a Factory. No browser is started until Open.
func NewFactory(cfg Config) *Factory {
	cfg.defaults()
	return &Factory{cfg: cfg}
}

// LocalBin picks the Chrome binary for an interactive run: the override when
// set, else whatever rod finds on the system. Empty means rod downloads its
// own build on first launch.
func LocalBin(override string) string {
	if override = strings.TrimSpace(override); override != "" {
		return override
	}
	if p, ok := launcher.LookPath(); ok {
		return p
	}
	return ""
}

var _ probe.DriverFactory = (*Factory)(nil)

// Open starts a browser and returns a ready page.
func (f *Factory) Open(ctx context.Context) (probe.Session, error) {
	log := f.cfg.Logger
	s := &session{remote: f.cfg.RemoteURL != ""}

	wsURL, err := f.controlURL(ctx, s)
	if err != nil {
		return nil, err
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	// Detach the handle from ctx so Close still works after cancellation.
	s.browser = b.Context(context.Background())

	page, err := stealth.Page(s.browser)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: create page: %w", err)
	}
	s.page = page

	if f.cfg.UserAgent != "" {
		err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      f.cfg.UserAgent,
			AcceptLanguage: f.cfg.AcceptLanguage,
		})
		if err != nil {
			log.Warn("browser: set user agent failed", "error", err)
		}
	}
	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             f.cfg.Width,
		Height:            f.cfg.Height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		log.Warn("browser: set viewport failed", "error", err)
	}

	if len(f.cfg.Block) > 0 {
		s.router = blockResources(page, f.cfg.Block)
		log.Debug("browser: resource blocking enabled", "types", f.cfg.Block)
	}
	return s, nil
}

func (f *Factory) controlURL(ctx context.Context, s *session) (string, error) {
	log := f.cfg.Logger

	if u := f.cfg.RemoteURL; u != "" {
		if strings.HasPrefix(u, "ws://") || strings.HasPrefix(u, "wss://") {
			log.Info("browser: connecting to remote", "url", u)
			return u, nil
		}
		resolved, err := launcher.ResolveURL(u)
		if err != nil {
			return "", fmt.Errorf("browser: resolve remote %s: %w", u, err)
		}
		log.Info("browser: connecting to remote", "url", resolved)
		return resolved, nil
	}

	l := launcher.New().Context(ctx).
		Headless(f.cfg.Headless).
		NoSandbox(f.cfg.NoSandbox).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("window-size", fmt.Sprintf("%d,%d", f.cfg.Width, f.cfg.Height))
	if f.cfg.Bin != "" {
		l = l.Bin(f.cfg.Bin)
	}

	u, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("browser: launch: %w", err)
	}
	s.lnch = l
	log.Info("browser: launched local chrome", "bin", f.cfg.Bin, "headless", f.cfg.Headless)
	return u, nil
}

// session owns one page and everything started to serve it.
type session struct {
	page    *rod.Page
	browser *rod.Browser
	router  *rod.HijackRouter
	lnch    *launcher.Launcher
	remote  bool

	closed bool
}

// Close releases page, router, browser and launcher in that order. Safe to
// call more than once.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if s.router != nil {
		if err := s.router.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("browser: stop router: %w", err))
		}
	}
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("browser: close page: %w", err))
		}
	}
	// A remote browser is shared; only our page is ours to close.
	if s.browser != nil && !s.remote {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("browser: close browser: %w", err))
		}
	}
	if s.lnch != nil {
		s.lnch.Kill()
		s.lnch.Cleanup()
	}
	return errors.Join(errs...)
}
