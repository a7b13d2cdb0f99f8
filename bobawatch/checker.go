// CLAUDE:SUMMARY One check cycle: load prior state, probe the page, decide, send at most one email, persist definitive outcomes.
// Package bobawatch wires the availability probe to the edge-triggered
// notification state machine. A Checker runs one cycle per Run; Watch runs
// cycles on a cron schedule.
package bobawatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
	"github.com/hazyhaar/menuwatch/bobawatch/internal/notify"
	"github.com/hazyhaar/menuwatch/bobawatch/internal/probe"
	"github.com/hazyhaar/menuwatch/bobawatch/internal/state"
	"github.com/hazyhaar/menuwatch/idgen"
)

// Outcome summarizes a completed cycle.
type Outcome struct {
	RunID  string
	Prior  availability.State
	Result availability.Result
	Next   availability.State

	// Message is the email the cycle decided to send, nil for none.
	Message *availability.Message
	// SendErr is the delivery failure, if any. It never fails the cycle.
	SendErr   error
	Persisted bool
}

// Checker runs check cycles against one profile's collaborators.
type Checker struct {
	cfg     *Config
	profile RunProfile

	driver   probe.DriverFactory
	store    state.Store
	notifier notify.Notifier
	tpl      availability.Templates

	logger   *slog.Logger
	newID    idgen.Generator
	closeFns []func() error
}

// Option configures a Checker.
type Option func(*Checker)

// WithLogger sets the base logger. Every cycle adds a run_id attribute.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) { c.logger = l }
}

// WithProfile forces the run profile instead of detecting it.
func WithProfile(p RunProfile) Option {
	return func(c *Checker) { c.profile = p }
}

// WithDriver replaces the profile's browser factory.
func WithDriver(d probe.DriverFactory) Option {
	return func(c *Checker) { c.driver = d }
}

// WithStore replaces the profile's state store.
func WithStore(s state.Store) Option {
	return func(c *Checker) { c.store = s }
}

// WithNotifier replaces the SMTP notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Checker) { c.notifier = n }
}

// WithRunIDGenerator sets the generator for run IDs.
func WithRunIDGenerator(gen idgen.Generator) Option {
	return func(c *Checker) { c.newID = gen }
}

// New builds a Checker. Collaborators not supplied by options come from the
// profile resolved from cfg.
func New(cfg *Config, opts ...Option) (*Checker, error) {
	c := &Checker{
		cfg:     cfg,
		profile: ResolveProfile(cfg),
		tpl:     availability.DefaultTemplates(),
		logger:  slog.Default(),
		newID:   idgen.RunID,
	}
	for _, o := range opts {
		o(c)
	}

	if c.store == nil {
		st, closeFn, err := c.profile.store(cfg, c.logger)
		if err != nil {
			return nil, fmt.Errorf("bobawatch: open state store: %w", err)
		}
		c.store = st
		c.closeFns = append(c.closeFns, closeFn)
	}
	if c.driver == nil {
		c.driver = c.profile.driver(cfg, c.logger)
	}
	if c.notifier == nil {
		m := cfg.Mail
		c.notifier = notify.NewSMTP(notify.SMTPConfig{
			Host:        m.Host,
			Port:        m.Port,
			Sender:      m.Sender,
			Password:    m.Password,
			Receiver:    m.Receiver,
			ImplicitTLS: m.ImplicitTLS,
		}, notify.WithLogger(c.logger))
	}

	c.logger.Debug("bobawatch: checker ready",
		"profile", c.profile, "store", c.store.Name(), "url", cfg.Probe.URL)
	return c, nil
}

// Profile returns the active run profile.
func (c *Checker) Profile() RunProfile { return c.profile }

// StoreName identifies the state backend, e.g. "file:boba_status.json".
func (c *Checker) StoreName() string { return c.store.Name() }

// State returns the persisted state as the next cycle would read it.
func (c *Checker) State(ctx context.Context) (availability.State, error) {
	return c.store.Load(ctx)
}

// Close releases the state store.
func (c *Checker) Close() error {
	var errs []error
	for _, fn := range c.closeFns {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closeFns = nil
	return errors.Join(errs...)
}

// Run executes one cycle. The only returned error is a persistence fault;
// probe failures and delivery failures are logged and reported in Outcome.
func (c *Checker) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{RunID: c.newID()}
	log := c.logger.With("run_id", out.RunID)
	log.Info("check: starting", "profile", c.profile, "store", c.store.Name())

	prior, err := c.store.Load(ctx)
	if err != nil {
		if errors.Is(err, state.ErrCorrupt) {
			log.Warn("state: prior record is corrupt, assuming available", "error", err)
		} else {
			log.Warn("state: load prior failed, assuming available", "error", err)
		}
		prior = availability.State{}
	}
	out.Prior = prior
	log.Info("state: prior loaded", "was_unavailable", prior.WasUnavailable)

	pcfg := probeConfig(c.cfg)
	pcfg.Bypass = bypass(c.cfg, log)
	pcfg.Logger = log
	out.Result = probe.New(c.driver, pcfg).Run(ctx)
	c.logResult(log, out.Result)

	d := availability.Decide(prior, out.Result, c.tpl)
	out.Next = d.Next
	out.Message = d.Notify

	if d.Notify != nil {
		out.SendErr = c.notifier.Send(ctx, *d.Notify)
		switch {
		case out.SendErr == nil:
		case errors.Is(out.SendErr, notify.ErrNoCredentials):
			log.Warn("notify: email credentials not set, skipping email", "subject", d.Notify.Subject)
		default:
			log.Warn("notify: send failed", "subject", d.Notify.Subject, "error", out.SendErr)
		}
	} else {
		log.Info("notify: no transition, no email")
	}

	if !d.Persist {
		log.Info("check: done, state unchanged", "result", out.Result.Kind)
		return out, nil
	}
	// A cancelled probe never yields a definitive result, so only the save
	// itself is bounded by ctx here.
	if err := c.store.Save(ctx, d.Next); err != nil {
		var pe *state.PersistError
		if !errors.As(err, &pe) {
			err = &state.PersistError{Backend: c.store.Name(), Cause: err}
		}
		log.Error("state: save failed", "error", err)
		return out, err
	}
	out.Persisted = true
	log.Info("check: done", "result", out.Result.Kind, "was_unavailable", d.Next.WasUnavailable)
	return out, nil
}

func (c *Checker) logResult(log *slog.Logger, r availability.Result) {
	switch r.Kind {
	case availability.Available, availability.Unavailable:
		log.Info("probe: verdict", "result", r.Kind, "option", c.cfg.Probe.OptionText)
	case availability.ElementNotFound:
		log.Warn("probe: option not found", "reason", r.Reason)
	default:
		log.Error("probe: page unreachable", "reason", r.Reason, "error", r.Err)
	}
}
