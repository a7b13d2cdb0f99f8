// CLAUDE:SUMMARY Probe result kinds, persisted availability state, and the edge-triggered notification decision.
// Package availability holds the value types shared by the probe and the
// notification state machine, and the pure transition that links them.
//
// Nothing here performs I/O: Decide maps (prior state, probe result) to the
// email to send and the state to persist, so the whole transition table can
// be exercised without a browser or a mail server.
package availability

import "fmt"

// Kind classifies the outcome of one probe run.
type Kind int

const (
	// PageUnreachable covers navigation, load, timeout and challenge failures.
	PageUnreachable Kind = iota
	// ElementNotFound means the page loaded but the option never showed up.
	ElementNotFound
	// Available means the option toggle is enabled.
	Available
	// Unavailable means the option toggle carries a disabled marker.
	Unavailable
)

// String returns the lower-case snake name used in logs.
func (k Kind) String() string {
	switch k {
	case Available:
		return "available"
	case Unavailable:
		return "unavailable"
	case ElementNotFound:
		return "element_not_found"
	case PageUnreachable:
		return "page_unreachable"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Definitive reports whether k is a verdict about the option itself.
func (k Kind) Definitive() bool {
	return k == Available || k == Unavailable
}

// Result is the transient outcome of a probe run. Reason and Err are for
// logging only and never influence the transition.
type Result struct {
	Kind   Kind
	Reason string
	Err    error
}

// Verdict builds a definitive Result.
func Verdict(available bool) Result {
	if available {
		return Result{Kind: Available}
	}
	return Result{Kind: Unavailable}
}

// NotFound builds an ElementNotFound result.
func NotFound(reason string) Result {
	return Result{Kind: ElementNotFound, Reason: reason}
}

// Unreachable builds a PageUnreachable result wrapping the fault that caused it.
func Unreachable(reason string, err error) Result {
	return Result{Kind: PageUnreachable, Reason: reason, Err: err}
}

func (r Result) String() string {
	switch {
	case r.Err != nil:
		return fmt.Sprintf("%s: %s: %v", r.Kind, r.Reason, r.Err)
	case r.Reason != "":
		return fmt.Sprintf("%s: %s", r.Kind, r.Reason)
	}
	return r.Kind.String()
}

// FromToggle derives availability from the toggle control's attributes.
// disabled reports whether the disabled attribute is present at all; its
// value is irrelevant, as in HTML.
func FromToggle(disabled bool, ariaDisabled string) bool {
	return !(disabled || ariaDisabled == "true")
}

// State is the persisted "last known" flag. The zero value is the first-run
// default.
type State struct {
	WasUnavailable bool `json:"was_unavailable"`
}

// Message is a plain-text email.
type Message struct {
	Subject string
	Body    string
}

// Templates are the two fixed notifications.
type Templates struct {
	Available   Message
	Unavailable Message
}

// DefaultTemplates returns the stock messages for the tracked option.
func DefaultTemplates() Templates {
	return Templates{
		Available: Message{
			Subject: "Boba Available Again!",
			Body:    "Good news! The 1/2 boba option is now available for Pistachio Milk Tea at Teas n' You.",
		},
		Unavailable: Message{
			Subject: "Boba Unavailable Alert",
			Body:    "The 1/2 boba option is currently unavailable for Pistachio Milk Tea at Teas n' You.",
		},
	}
}

// Decision is the outcome of one transition.
type Decision struct {
	// Notify is nil when no email is due.
	Notify *Message
	// Next is the state to persist. Equal to the prior when Persist is false.
	Next State
	// Persist is false for non-definitive results.
	Persist bool
}

// Decide applies the edge-triggered transition table. It is total and
// depends only on its arguments.
func Decide(prior State, r Result, tpl Templates) Decision {
	switch r.Kind {
	case Available:
		d := Decision{Next: State{WasUnavailable: false}, Persist: true}
		if prior.WasUnavailable {
			msg := tpl.Available
			d.Notify = &msg
		}
		return d
	case Unavailable:
		d := Decision{Next: State{WasUnavailable: true}, Persist: true}
		if !prior.WasUnavailable {
			msg := tpl.Unavailable
			d.Notify = &msg
		}
		return d
	}
	return Decision{Next: prior}
}
