package bobawatch

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/hazyhaar/menuwatch/observability"
)

// Watch runs one cycle immediately, then one per tick of spec until ctx is
// done. Cycles never overlap: a tick that fires while a cycle is still
// running is skipped. A persistence fault stops the loop and is returned.
func (c *Checker) Watch(ctx context.Context, spec string) error {
	log := c.logger
	cl := observability.CronLogger(log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	fatal := make(chan error, 1)

	cycle := func() {
		if ctx.Err() != nil {
			return
		}
		if _, err := c.Run(ctx); err != nil {
			select {
			case fatal <- err:
			default:
			}
			cancel()
		}
	}

	sched := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := sched.AddFunc(spec, cycle); err != nil {
		return fmt.Errorf("watch: schedule %q: %w", spec, err)
	}

	log.Info("watch: starting", "schedule", spec, "profile", c.profile)
	cycle()
	sched.Start()

	<-ctx.Done()
	log.Info("watch: stopping")
	<-sched.Stop().Done()

	select {
	case err := <-fatal:
		return fmt.Errorf("watch: %w", err)
	default:
		return nil
	}
}
