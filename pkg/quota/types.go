package quota

import (
	"context"
	"time"
)

// Window identifies which sliding window produced a decision.
type Window string

const (
	// WindowMinute is the 60-second window.
	WindowMinute Window = "minute"
	// WindowHour is the 3600-second window.
	WindowHour Window = "hour"
)

// Window durations and the expiry slack kept on shared-store keys so counters
// outlive their window without accumulating forever.
const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour

	minuteKeyTTL = 2 * time.Minute
	hourKeyTTL   = 2 * time.Hour
)

// Limits are the per-client request ceilings for the two windows.
type Limits struct {
	// RequestsPerMinute is the 60-second ceiling.
	RequestsPerMinute int

	// RequestsPerHour is the 3600-second ceiling.
	RequestsPerHour int
}

// DefaultLimits returns the production defaults.
func DefaultLimits() Limits {
	return Limits{RequestsPerMinute: 30, RequestsPerHour: 500}
}

// Decision is the outcome of one quota check.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// RetryAfter is the caller's retry hint in seconds: 60 when the minute
	// window denied, 3600 when the hour window denied, 0 when allowed.
	RetryAfter int

	// Window names the window that denied the request; empty when allowed.
	Window Window
}

// Backend checks and records one request for a client in a single operation.
// Implementations must be safe for concurrent use; check-then-record must not
// be split across callers.
type Backend interface {
	// CheckAndRecord returns the decision for one request. When the request
	// is allowed, a timestamp has been recorded in both windows; when denied,
	// nothing was recorded.
	CheckAndRecord(ctx context.Context, clientID string) (Decision, error)

	// Close releases backend resources.
	Close() error
}

func allowed() Decision {
	return Decision{Allowed: true}
}

func deniedMinute() Decision {
	return Decision{RetryAfter: 60, Window: WindowMinute}
}

func deniedHour() Decision {
	return Decision{RetryAfter: 3600, Window: WindowHour}
}
