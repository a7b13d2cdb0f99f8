// CLAUDE:SUMMARY Availability probe: navigate, clear the challenge, dismiss the modal, find the option toggle, read disabled state.
// Package probe drives one browser session to the item page and derives the
// availability verdict for the tracked option.
//
// The probe never returns an error: every fault maps to a PageUnreachable or
// ElementNotFound result, and the session is closed on every path, including
// a driver panic.
package probe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
)

// Config configures a Probe.
type Config struct {
	URL        string
	OptionText string

	// ModalCloseX locates the close button of the promo modal. Empty skips
	// modal handling.
	ModalCloseX string
	// ContentMarkerX must appear within LoadTimeout once the challenge is
	// cleared. Empty skips the check.
	ContentMarkerX string
	// ErrorPageX signals the item URL no longer exists. Empty skips the check.
	ErrorPageX string
	// ErrorPageWait is how long the error block may take to render.
	// Default: 3s.
	ErrorPageWait time.Duration

	Bypass BypassStrategy

	LoadTimeout time.Duration
	// BypassTimeout bounds the whole bypass step. Default: 4 x LoadTimeout.
	BypassTimeout    time.Duration
	DiscoveryTimeout time.Duration
	PollInterval     time.Duration

	// Screenshot and HTMLDump are artifact paths written on content-load
	// failure. Empty disables each.
	Screenshot string
	HTMLDump   string

	Logger *slog.Logger
	Sleep  SleepFunc
	Now    func() time.Time
}

func (c *Config) defaults() {
	if c.Bypass == nil {
		c.Bypass = NoBypass{}
	}
	if c.LoadTimeout <= 0 {
		c.LoadTimeout = 30 * time.Second
	}
	if c.BypassTimeout <= 0 {
		c.BypassTimeout = 4 * c.LoadTimeout
	}
	if c.ErrorPageWait <= 0 {
		c.ErrorPageWait = 3 * time.Second
	}
	if c.DiscoveryTimeout <= 0 {
		c.DiscoveryTimeout = 10 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Sleep == nil {
		c.Sleep = Sleep
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// Probe produces one availability.Result per Run.
type Probe struct {
	cfg    Config
	driver DriverFactory
}

// New creates a Probe acquiring sessions from driver.
func New(driver DriverFactory, cfg Config) *Probe {
	cfg.defaults()
	return &Probe{cfg: cfg, driver: driver}
}

// OptionXPath is the lookup rule for the option label.
func OptionXPath(text string) string {
	return fmt.Sprintf("//div[contains(@class, 'name') and contains(text(), %s)]", xpathLiteral(text))
}

// ToggleXPath resolves the input that controls the option.
func ToggleXPath(text string) string {
	return OptionXPath(text) + "/ancestor::label/preceding-sibling::input"
}

// Run acquires a session, inspects the page and releases the session.
func (p *Probe) Run(ctx context.Context) (res availability.Result) {
	log := p.cfg.Logger
	defer func() {
		if r := recover(); r != nil {
			log.Error("probe: driver panic", "panic", r)
			res = availability.Unreachable("driver panic", fmt.Errorf("probe: panic: %v", r))
		}
	}()

	s, err := p.driver.Open(ctx)
	if err != nil {
		return availability.Unreachable("open browser", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Warn("probe: close session", "error", err)
		}
	}()

	return p.inspect(ctx, s)
}

func (p *Probe) inspect(ctx context.Context, s Session) availability.Result {
	log := p.cfg.Logger

	log.Info("probe: navigating", "url", p.cfg.URL)
	loadCtx, cancel := context.WithTimeout(ctx, p.cfg.LoadTimeout)
	err := s.Navigate(loadCtx, p.cfg.URL)
	if err == nil {
		err = s.WaitLoad(loadCtx)
	}
	cancel()
	if err != nil {
		return availability.Unreachable("page load", fmt.Errorf("probe: navigate %s: %w", p.cfg.URL, err))
	}
	if title, err := s.Title(ctx); err == nil {
		log.Info("probe: page loaded", "title", title)
	}

	bypassCtx, cancel := context.WithTimeout(ctx, p.cfg.BypassTimeout)
	err = p.cfg.Bypass.Clear(bypassCtx, s)
	cancel()
	if err != nil {
		return availability.Unreachable("challenge bypass ("+p.cfg.Bypass.Name()+")", err)
	}

	if p.cfg.ContentMarkerX != "" {
		_, found, err := p.poll(ctx, s, p.cfg.ContentMarkerX, p.cfg.LoadTimeout, false)
		if err != nil {
			return availability.Unreachable("wait for content", err)
		}
		if !found {
			log.Warn("probe: main content did not load")
			p.captureArtifacts(ctx, s)
			return availability.Unreachable("main content did not load", nil)
		}
		log.Info("probe: main content loaded")
	}

	if p.cfg.ErrorPageX != "" {
		_, gone, err := p.poll(ctx, s, p.cfg.ErrorPageX, p.cfg.ErrorPageWait, false)
		if err != nil {
			return availability.Unreachable("error page check", err)
		}
		if gone {
			log.Error("probe: item page no longer exists or the URL has changed")
			return availability.NotFound("page no longer exists")
		}
	}

	_, found, err := p.poll(ctx, s, OptionXPath(p.cfg.OptionText), p.cfg.DiscoveryTimeout, true)
	if err != nil {
		return availability.Unreachable("option discovery", err)
	}
	if !found {
		p.captureArtifacts(ctx, s)
		return availability.NotFound(fmt.Sprintf("option %q not found within %s", p.cfg.OptionText, p.cfg.DiscoveryTimeout))
	}

	toggle, found, err := s.Lookup(ctx, ToggleXPath(p.cfg.OptionText))
	if err != nil {
		return availability.Unreachable("toggle lookup", fmt.Errorf("probe: toggle lookup: %w", err))
	}
	if !found {
		return availability.NotFound("toggle control not found")
	}

	_, disabled, err := toggle.Attribute(ctx, "disabled")
	if err != nil {
		return availability.Unreachable("read toggle", fmt.Errorf("probe: read disabled: %w", err))
	}
	aria, _, err := toggle.Attribute(ctx, "aria-disabled")
	if err != nil {
		return availability.Unreachable("read toggle", fmt.Errorf("probe: read aria-disabled: %w", err))
	}

	available := availability.FromToggle(disabled, aria)
	log.Info("probe: option state", "option", p.cfg.OptionText,
		"available", available, "disabled", disabled, "aria_disabled", aria)
	return availability.Verdict(available)
}

// poll looks xpath up until found or window elapses, sleeping PollInterval
// between attempts. With dismiss set, every attempt first tries to close the
// modal. Lookup faults inside the window are treated as "not yet"; only
// context cancellation is returned as an error.
func (p *Probe) poll(ctx context.Context, s Session, xpath string, window time.Duration, dismiss bool) (Element, bool, error) {
	deadline := p.cfg.Now().Add(window)
	for {
		if dismiss {
			p.dismissModal(ctx, s)
		}
		el, found, err := s.Lookup(ctx, xpath)
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, fmt.Errorf("probe: lookup: %w", ctx.Err())
			}
			p.cfg.Logger.Debug("probe: lookup failed", "xpath", xpath, "error", err)
		} else if found {
			return el, true, nil
		}
		if !p.cfg.Now().Before(deadline) {
			return nil, false, nil
		}
		if err := p.cfg.Sleep(ctx, p.cfg.PollInterval); err != nil {
			return nil, false, fmt.Errorf("probe: poll: %w", err)
		}
	}
}

// dismissModal clicks the modal close button when it is shown. Absence or a
// failed click is normal.
func (p *Probe) dismissModal(ctx context.Context, s Session) bool {
	if p.cfg.ModalCloseX == "" {
		return false
	}
	btn, found, err := s.Lookup(ctx, p.cfg.ModalCloseX)
	if err != nil || !found {
		return false
	}
	if visible, err := btn.Visible(ctx); err != nil || !visible {
		return false
	}
	if err := btn.Click(ctx); err != nil {
		p.cfg.Logger.Debug("probe: modal close click failed", "error", err)
		return false
	}
	p.cfg.Logger.Debug("probe: modal dismissed")
	return true
}

// captureArtifacts writes the screenshot and HTML dump. Best-effort: a
// failure is logged and never changes the result.
func (p *Probe) captureArtifacts(ctx context.Context, s Session) {
	log := p.cfg.Logger
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if p.cfg.Screenshot != "" {
		if data, err := s.Screenshot(ctx); err != nil {
			log.Warn("probe: screenshot failed", "error", err)
		} else if err := os.WriteFile(p.cfg.Screenshot, data, 0o644); err != nil {
			log.Warn("probe: save screenshot failed", "path", p.cfg.Screenshot, "error", err)
		} else {
			log.Info("probe: screenshot saved", "path", p.cfg.Screenshot)
		}
	}
	if p.cfg.HTMLDump != "" {
		if doc, err := s.HTML(ctx); err != nil {
			log.Warn("probe: html dump failed", "error", err)
		} else if err := os.WriteFile(p.cfg.HTMLDump, []byte(doc), 0o644); err != nil {
			log.Warn("probe: save html dump failed", "path", p.cfg.HTMLDump, "error", err)
		} else {
			log.Info("probe: html dump saved", "path", p.cfg.HTMLDump, "size", len(doc))
		}
	}
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a string with both quote kinds is built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	var b strings.Builder
	b.WriteString("concat(")
	for i, part := range parts {
		if i > 0 {
			b.WriteString(`, "'", `)
		}
		b.WriteString("'" + part + "'")
	}
	b.WriteString(")")
	return b.String()
}
