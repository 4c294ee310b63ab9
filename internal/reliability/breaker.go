package reliability

import (
	"log/slog"
	"sync"
	"time"
)

// BreakerState represents the circuit breaker state.
type BreakerState string

const (
	StateClosed   BreakerState = "closed"
	StateOpen     BreakerState = "open"
	StateHalfOpen BreakerState = "half_open"
)

// CircuitBreaker stops hammering a persistently failing operation.
// Starts Closed; opens once failureCount reaches the threshold; after
// the recovery timeout a single trial call is let through (HalfOpen),
// which either re-closes or re-opens the circuit.
type CircuitBreaker struct {
	name             string
	failureThreshold int
	recoveryTimeout  time.Duration

	mu           sync.Mutex
	state        BreakerState
	failureCount int
	openedAt     time.Time

	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker for the named operation.
func NewCircuitBreaker(name string, failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	if failureThreshold < 1 {
		failureThreshold = 1
	}
	return &CircuitBreaker{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// Allow reports whether a call may proceed. Open circuits are checked
// against the recovery timeout lazily here; an elapsed timeout moves
// the breaker to HalfOpen and admits exactly one trial call. Returns a
// *CircuitOpenError when the call must be rejected.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		elapsed := cb.now().Sub(cb.openedAt)
		if elapsed >= cb.recoveryTimeout {
			cb.setState(StateHalfOpen)
			return nil
		}
		return &CircuitOpenError{Operation: cb.name, RetryIn: cb.recoveryTimeout - elapsed}
	default: // HalfOpen: a trial call is already in flight
		return &CircuitOpenError{Operation: cb.name, RetryIn: 0}
	}
}

// RecordSuccess resets the breaker to Closed.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	if cb.state != StateClosed {
		cb.setState(StateClosed)
	}
}

// RecordFailure tallies one failure. A failed trial call re-opens the
// circuit; in Closed state the circuit opens once the threshold is hit.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateHalfOpen {
		cb.openedAt = cb.now()
		cb.setState(StateOpen)
		return
	}

	cb.failureCount++
	if cb.state == StateClosed && cb.failureCount >= cb.failureThreshold {
		cb.openedAt = cb.now()
		cb.setState(StateOpen)
		slog.Error("circuit breaker opened",
			"operation", cb.name,
			"failure_count", cb.failureCount,
			"recovery_timeout", cb.recoveryTimeout,
		)
	}
}

// State returns the current state without side effects.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the consecutive failure tally.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// setState transitions state and updates metrics. Caller holds the lock.
func (cb *CircuitBreaker) setState(s BreakerState) {
	cb.state = s
	metricCircuitTransitions.WithLabelValues(cb.name, string(s)).Inc()
	metricCircuitState.WithLabelValues(cb.name).Set(stateValue(s))
}

func stateValue(s BreakerState) float64 {
	switch s {
	case StateOpen:
		return 2
	case StateHalfOpen:
		return 1
	default:
		return 0
	}
}
