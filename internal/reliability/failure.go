// Package reliability wraps scraping operations with failure
// classification, kind-aware retries, per-operation circuit breakers
// and partial-failure batch handling.
package reliability

import (
	"errors"
	"fmt"
	"time"
)

// FailureKind categorizes a fault for retry policy selection.
type FailureKind string

const (
	KindNetwork     FailureKind = "network"
	KindRateLimit   FailureKind = "rate_limit"
	KindServerError FailureKind = "server_error"
	KindParsing     FailureKind = "parsing"
	KindValidation  FailureKind = "validation"
	KindUnknown     FailureKind = "unknown"
)

// Fault is an error that carries an explicit failure kind. Code that
// knows what went wrong (HTTP status handling, CSV decoding, row
// validation) should raise a Fault so classification never has to
// fall back to message heuristics.
type Fault struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Fault) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", f.Message, f.Err)
	}
	return f.Message
}

func (f *Fault) Unwrap() error { return f.Err }

// NewFault creates a fault with the given kind.
func NewFault(kind FailureKind, err error, format string, args ...any) *Fault {
	return &Fault{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NewNetworkFault(err error, format string, args ...any) *Fault {
	return NewFault(KindNetwork, err, format, args...)
}

func NewRateLimitFault(err error, format string, args ...any) *Fault {
	return NewFault(KindRateLimit, err, format, args...)
}

func NewServerFault(err error, format string, args ...any) *Fault {
	return NewFault(KindServerError, err, format, args...)
}

func NewParsingFault(err error, format string, args ...any) *Fault {
	return NewFault(KindParsing, err, format, args...)
}

func NewValidationFault(err error, format string, args ...any) *Fault {
	return NewFault(KindValidation, err, format, args...)
}

// ClassifiedFailure wraps an underlying fault with its classification.
// Created once by Classify and never mutated afterwards.
type ClassifiedFailure struct {
	Kind       FailureKind
	Message    string
	Context    map[string]any
	OccurredAt time.Time
	Err        error
}

func (c *ClassifiedFailure) Error() string {
	return fmt.Sprintf("[%s] %s", c.Kind, c.Message)
}

func (c *ClassifiedFailure) Unwrap() error { return c.Err }

// ErrCircuitOpen signals that a call was rejected without being
// attempted because the operation's circuit is open. Distinct from the
// operation's own failures so callers can tell "it failed" from
// "we refused to try".
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitOpenError reports a rejected call with the cool-down remaining.
type CircuitOpenError struct {
	Operation string
	RetryIn   time.Duration
}

func (e *CircuitOpenError) Error() string {
	return fmt.Sprintf("circuit breaker is open for %q, retry in %s", e.Operation, e.RetryIn.Round(time.Millisecond))
}

func (e *CircuitOpenError) Unwrap() error { return ErrCircuitOpen }
