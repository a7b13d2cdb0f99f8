package bobawatch

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/menuwatch/bobawatch/internal/browser"
	"github.com/hazyhaar/menuwatch/bobawatch/internal/probe"
	"github.com/hazyhaar/menuwatch/bobawatch/internal/state"
)

// RunProfile is the execution mode, resolved once at startup. It decides
// where prior state lives and how the browser is started.
type RunProfile int

const (
	// Interactive runs on a workstation: state in a local file (or SQLite),
	// system or downloaded Chrome, sandbox on.
	Interactive RunProfile = iota
	// NonInteractive runs in CI: prior injected through WAS_UNAVAILABLE, new
	// value reported to the workflow, runner Chrome without sandbox.
	NonInteractive
)

func (p RunProfile) String() string {
	if p == NonInteractive {
		return "noninteractive"
	}
	return "interactive"
}

// ResolveProfile applies BOBAWATCH_PROFILE, else CI detection.
func ResolveProfile(cfg *Config) RunProfile {
	if cfg.Profile.NonInteractive() {
		return NonInteractive
	}
	return Interactive
}

// store builds the profile's state store. closeFn releases it.
func (p RunProfile) store(cfg *Config, log *slog.Logger) (st state.Store, closeFn func() error, err error) {
	nop := func() error { return nil }

	if p == NonInteractive {
		return &state.Env{
			Prior:      cfg.Profile.WasUnavailable,
			OutputPath: cfg.Profile.GitHubOutput,
			Logger:     log,
		}, nop, nil
	}

	switch cfg.State.Backend {
	case "", "file":
		return state.NewFile(cfg.State.File), nop, nil
	case "sqlite":
		db, err := state.OpenSQLite(cfg.State.DB, cfg.Probe.URL)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
	return nil, nil, fmt.Errorf("bobawatch: unknown state backend %q", cfg.State.Backend)
}

// driver builds the profile's browser factory.
func (p RunProfile) driver(cfg *Config, log *slog.Logger) probe.DriverFactory {
	bc := browser.Config{
		RemoteURL:      cfg.Browser.RemoteURL,
		Headless:       cfg.Browser.Headless,
		UserAgent:      cfg.Browser.UserAgent,
		AcceptLanguage: cfg.Browser.Language,
		Block:          cfg.Browser.Block,
		Logger:         log,
	}
	if p == NonInteractive {
		bc.Bin = strings.TrimSpace(cfg.Browser.Bin)
		if bc.Bin == "" {
			bc.Bin = cfg.Browser.CIBin
		}
		// Runner containers have no user namespace for the Chrome sandbox.
		bc.NoSandbox = true
		bc.Headless = true
	} else if bc.RemoteURL == "" {
		bc.Bin = browser.LocalBin(cfg.Browser.Bin)
	}
	return browser.NewFactory(bc)
}

// bypass maps the configured strategy name to an implementation.
func bypass(cfg *Config, log *slog.Logger) probe.BypassStrategy {
	pc := cfg.Probe
	switch pc.Bypass {
	case "none":
		return probe.NoBypass{}
	case "wait":
		return probe.SettleWait{Delay: pc.ChallengeDelay}
	}
	return probe.ChallengeRetry{
		TitleMarker: pc.ChallengeTitle,
		Retries:     pc.ChallengeRetries,
		Delay:       pc.ChallengeDelay,
		Logger:      log,
	}
}

// probeConfig carries everything but the logger, which is set per run.
func probeConfig(cfg *Config) probe.Config {
	pc := cfg.Probe
	// Every retry can cost a full reload plus the settle delay.
	bypassTimeout := time.Duration(pc.ChallengeRetries+1) * (pc.LoadTimeout + pc.ChallengeDelay)
	return probe.Config{
		URL:              pc.URL,
		OptionText:       pc.OptionText,
		ModalCloseX:      pc.ModalCloseX,
		ContentMarkerX:   pc.ContentMarkerX,
		ErrorPageX:       pc.ErrorPageX,
		ErrorPageWait:    pc.ErrorTimeout,
		LoadTimeout:      pc.LoadTimeout,
		BypassTimeout:    bypassTimeout,
		DiscoveryTimeout: pc.DiscoveryTimeout,
		PollInterval:     pc.PollInterval,
		Screenshot:       pc.Screenshot,
		HTMLDump:         pc.HTMLDump,
	}
}
