// Package idgen provides pluggable ID generation. bobawatch uses it to tag
// every check cycle with a run ID so the log lines of one cycle can be
// grouped, including across watch-mode ticks.
package idgen

import (
	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator of RFC 9562 UUID v7 strings. Time-sortable, so
// run IDs order the same way the cycles ran.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends a fixed prefix to every ID of gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

// RunID is the generator for check cycle IDs: "run_<uuidv7>".
var RunID Generator = Prefixed("run_", UUIDv7())
