package gateway

import "errors"

// Stable rejection kinds surfaced to transport layers.
const (
	// KindValidationError covers input errors and security rejections,
	// deliberately indistinguishable from one another.
	KindValidationError = "validation_error"

	// KindRateLimitExceeded covers quota denials; RetryAfter is set.
	KindRateLimitExceeded = "rate_limit_exceeded"

	// KindGenerationFailed covers model-call failures and output-guard
	// rejections. The model response is discarded entirely.
	KindGenerationFailed = "generation_failed"
)

// Rejection is a typed, non-fatal pipeline outcome. It implements error so
// stages can short-circuit the pipeline with it.
type Rejection struct {
	// Kind is one of the Kind* constants.
	Kind string

	// Message is safe to return to the caller. It never names the rule or
	// pattern that fired.
	Message string

	// RetryAfter is the retry hint in seconds; non-zero only for
	// KindRateLimitExceeded.
	RetryAfter int
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return r.Kind + ": " + r.Message
}

// AsRejection unwraps err into a *Rejection when it is one.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
