package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrChallenge is returned when the anti-bot interstitial never clears.
var ErrChallenge = errors.New("probe: challenge page did not clear")

// BypassStrategy gets past the anti-automation interstitial after the first
// load. A non-nil error means the real page was never reached.
type BypassStrategy interface {
	Clear(ctx context.Context, p Page) error
	Name() string
}

// NoBypass assumes the stealth session is enough.
type NoBypass struct{}

func (NoBypass) Clear(context.Context, Page) error { return nil }
func (NoBypass) Name() string                      { return "none" }

// SettleWait sleeps a fixed delay so a JS challenge can finish on its own.
type SettleWait struct {
	Delay time.Duration
	Sleep SleepFunc
}

func (w SettleWait) Name() string { return "wait" }

func (w SettleWait) Clear(ctx context.Context, _ Page) error {
	return w.sleep()(ctx, w.Delay)
}

func (w SettleWait) sleep() SleepFunc {
	if w.Sleep != nil {
		return w.Sleep
	}
	return Sleep
}

// ChallengeRetry polls the title up to Retries times. While the title carries
// TitleMarker it reloads, waits for load, and sleeps Delay.
type ChallengeRetry struct {
	TitleMarker string
	Retries     int
	Delay       time.Duration
	Sleep       SleepFunc
	Logger      *slog.Logger
}

func (r ChallengeRetry) Name() string { return "retry" }

func (r ChallengeRetry) Clear(ctx context.Context, p Page) error {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	marker := strings.ToLower(r.TitleMarker)
	if marker == "" {
		return nil
	}

	for attempt := 1; attempt <= r.Retries; attempt++ {
		title, err := p.Title(ctx)
		if err != nil {
			return fmt.Errorf("probe: read title: %w", err)
		}
		if !strings.Contains(strings.ToLower(title), marker) {
			if attempt > 1 {
				log.Info("probe: challenge cleared", "attempt", attempt, "title", title)
			}
			return nil
		}
		log.Info("probe: challenge detected, reloading",
			"attempt", attempt, "retries", r.Retries, "title", title)
		if err := p.Reload(ctx); err != nil {
			return fmt.Errorf("probe: reload: %w", err)
		}
		if err := p.WaitLoad(ctx); err != nil {
			return fmt.Errorf("probe: wait load after reload: %w", err)
		}
		if err := sleep(ctx, r.Delay); err != nil {
			return err
		}
	}

	// Last reload may have cleared it.
	title, err := p.Title(ctx)
	if err != nil {
		return fmt.Errorf("probe: read title: %w", err)
	}
	if strings.Contains(strings.ToLower(title), marker) {
		return fmt.Errorf("%w after %d retries (title %q)", ErrChallenge, r.Retries, title)
	}
	return nil
}

// SleepFunc waits d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-clock SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
