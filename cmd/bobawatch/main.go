// CLAUDE:SUMMARY CLI entry point for bobawatch: one-shot check, cron watch loop, offline HTML inspection, state dump.
// Command bobawatch checks whether the 1/2 Boba option is orderable and
// emails on availability changes.
//
// Usage:
//
//	bobawatch                    # one check cycle (same as "check")
//	bobawatch watch              # cycles on BOBAWATCH_SCHEDULE until SIGINT/SIGTERM
//	bobawatch inspect page.html  # verdict from a saved page dump, no browser
//	bobawatch state              # print the persisted state
//
// All configuration comes from environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/menuwatch/bobawatch"
	"github.com/hazyhaar/menuwatch/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "bobawatch:", err)
		os.Exit(1)
	}
}

// app is what every subcommand needs, built once in PersistentPreRunE.
type app struct {
	cfg    *bobawatch.Config
	logger *observability.Logger
}

func (a *app) checker() (*bobawatch.Checker, error) {
	return bobawatch.New(a.cfg, bobawatch.WithLogger(a.logger.Logger))
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bobawatch",
		Short:         "Watch the 1/2 Boba option on the Toast menu and email on changes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bobawatch.LoadConfig()
			if err != nil {
				return err
			}
			l, err := observability.NewLogger(observability.LogConfig{
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
				File:   cfg.Log.File,
			})
			if err != nil {
				return err
			}
			a.cfg, a.logger = cfg, l
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logger != nil {
				return a.logger.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), a)
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "check",
			Short: "Run one check cycle and exit",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runCheck(cmd.Context(), a)
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Run check cycles on BOBAWATCH_SCHEDULE until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.checker()
				if err != nil {
					return err
				}
				defer c.Close()
				return c.Watch(cmd.Context(), a.cfg.Schedule)
			},
		},
		&cobra.Command{
			Use:   "inspect FILE",
			Short: "Derive the verdict from a saved page dump (no browser, no email, no state change)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				res, err := bobawatch.InspectFile(args[0], a.cfg.Probe.OptionText)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res)
				return nil
			},
		},
		&cobra.Command{
			Use:   "state",
			Short: "Print the persisted state for the active profile",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				c, err := a.checker()
				if err != nil {
					return err
				}
				defer c.Close()
				st, err := c.State(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "profile=%s store=%s was_unavailable=%t\n",
					c.Profile(), c.StoreName(), st.WasUnavailable)
				return nil
			},
		},
	)
	return root
}

func runCheck(ctx context.Context, a *app) error {
	c, err := a.checker()
	if err != nil {
		return err
	}
	defer c.Close()
	_, err = c.Run(ctx)
	return err
}
