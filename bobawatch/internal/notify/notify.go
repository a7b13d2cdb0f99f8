// CLAUDE:SUMMARY Plain-text email delivery over SMTP (go-mail) with implicit TLS and PLAIN auth.
// Package notify delivers the availability emails.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/hazyhaar/menuwatch/bobawatch/availability"
)

// ErrNoCredentials is returned by Send when sender, password or receiver is
// unset. Sending is disabled, not broken.
var ErrNoCredentials = errors.New("notify: email credentials not set")

// Notifier sends one message to the configured recipient.
type Notifier interface {
	Send(ctx context.Context, msg availability.Message) error
}

// SendError reports a failed delivery and the SMTP stage it failed at.
type SendError struct {
	Stage string // compose, dial, auth, send, quit
	Cause error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("notify: send failed at %s: %v", e.Stage, e.Cause)
}

func (e *SendError) Unwrap() error { return e.Cause }
