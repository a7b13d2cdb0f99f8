// Package state persists the last known availability flag. Each run profile
// picks one Store: a JSON file next to the binary for interactive runs, a
// SQLite row when asked for, or the environment for CI where the workflow
// owns durability.
package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
)

// ErrCorrupt is returned by Load alongside the default state when the stored
// record cannot be decoded. Callers log it and proceed with the default.
var ErrCorrupt = errors.New("state: stored record is corrupt")

// Store loads and saves the single availability flag.
type Store interface {
	// Load returns the prior state. A missing record is the zero State and
	// no error.
	Load(ctx context.Context) (availability.State, error)
	// Save overwrites the record. Any error is a persistence fault.
	Save(ctx context.Context, st availability.State) error
	// Name identifies the backend in logs.
	Name() string
}

// PersistError reports a failed Save. It is fatal for the cycle.
type PersistError struct {
	Backend string
	Cause   error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("state: persist to %s: %v", e.Backend, e.Cause)
}

func (e *PersistError) Unwrap() error { return e.Cause }
