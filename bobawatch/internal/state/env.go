package state

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
)

// Env is the non-interactive store. The prior comes from an injected
// variable (WAS_UNAVAILABLE); Save only reports the new value, plus a
// was_unavailable=<bool> line in the GitHub Actions output file when one is
// configured, so the workflow can carry it to the next run.
//
// Prior is read on the first Load. After that the store holds the last saved
// value, so a long-lived process (watch mode) stays edge-triggered.
type Env struct {
	// Prior is the raw injected value. "true" in any case means unavailable.
	Prior string
	// OutputPath is $GITHUB_OUTPUT. Empty means log only.
	OutputPath string
	Logger     *slog.Logger

	mu  sync.Mutex
	cur *bool
}

func (e *Env) Name() string { return "env" }

func (e *Env) Load(_ context.Context) (availability.State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		v := strings.EqualFold(strings.TrimSpace(e.Prior), "true")
		e.cur = &v
	}
	return availability.State{WasUnavailable: *e.cur}, nil
}

// Save records st as the current value. A failed output write leaves the
// held value untouched.
func (e *Env) Save(_ context.Context, st availability.State) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("state: would update WAS_UNAVAILABLE", "value", st.WasUnavailable)

	if err := e.writeOutput(st.WasUnavailable); err != nil {
		return err
	}
	v := st.WasUnavailable
	e.cur = &v
	return nil
}

func (e *Env) writeOutput(v bool) error {
	if e.OutputPath == "" {
		return nil
	}
	f, err := os.OpenFile(e.OutputPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &PersistError{Backend: "env:" + e.OutputPath, Cause: err}
	}
	if _, err := fmt.Fprintf(f, "was_unavailable=%s\n", strconv.FormatBool(v)); err != nil {
		f.Close()
		return &PersistError{Backend: "env:" + e.OutputPath, Cause: err}
	}
	if err := f.Close(); err != nil {
		return &PersistError{Backend: "env:" + e.OutputPath, Cause: err}
	}
	return nil
}
