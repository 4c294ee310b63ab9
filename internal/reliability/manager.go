package reliability

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ManagerConfig holds breaker settings applied to every operation name.
type ManagerConfig struct {
	FailureThreshold int
	RecoveryTimeout  time.Duration
}

// DefaultManagerConfig mirrors the breaker defaults used in production.
var DefaultManagerConfig = ManagerConfig{
	FailureThreshold: 5,
	RecoveryTimeout:  60 * time.Second,
}

// Manager is the single entry point callers use. It owns one circuit
// breaker per operation name (created lazily, kept for the process
// lifetime) and routes protected calls through breaker and retry engine.
type Manager struct {
	engine *Engine
	cfg    ManagerConfig

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewManager creates a recovery manager. A nil engine gets default
// retry policies.
func NewManager(engine *Engine, cfg ManagerConfig) *Manager {
	if engine == nil {
		engine = NewEngine(nil)
	}
	if cfg.FailureThreshold == 0 {
		cfg = DefaultManagerConfig
	}
	return &Manager{
		engine:   engine,
		cfg:      cfg,
		breakers: make(map[string]*CircuitBreaker),
	}
}

// Breaker returns the circuit breaker for an operation name, creating
// it on first use.
func (m *Manager) Breaker(name string) *CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	cb, ok := m.breakers[name]
	if !ok {
		cb = NewCircuitBreaker(name, m.cfg.FailureThreshold, m.cfg.RecoveryTimeout)
		m.breakers[name] = cb
	}
	return cb
}

// BreakerStates reports the current state of every known breaker.
func (m *Manager) BreakerStates() map[string]BreakerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make(map[string]BreakerState, len(m.breakers))
	for name, cb := range m.breakers {
		states[name] = cb.State()
	}
	return states
}

// SafeExecute gates op through the operation's circuit breaker and, if
// the circuit permits, delegates to the retry engine. One SafeExecute
// call tallies at most one breaker failure, regardless of how many
// attempts the engine made internally.
func (m *Manager) SafeExecute(ctx context.Context, name string, op Operation) (any, error) {
	cb := m.Breaker(name)

	if err := cb.Allow(); err != nil {
		slog.Warn("call rejected by circuit breaker", "operation", name, "error", err)
		return nil, err
	}

	result, err := m.engine.Execute(ctx, name, op)
	if err != nil {
		cb.RecordFailure()
		return nil, err
	}

	cb.RecordSuccess()
	return result, nil
}

// GracefulDegradation attempts primary via SafeExecute and, on any
// failure, runs fallback directly. If both fail the fallback's failure
// propagates; the primary's is only logged.
func (m *Manager) GracefulDegradation(
	ctx context.Context,
	name string,
	primary, fallback Operation,
) (any, error) {
	result, err := m.SafeExecute(ctx, name, primary)
	if err == nil {
		return result, nil
	}

	slog.Warn("primary operation failed, attempting fallback", "operation", name, "error", err)

	result, fbErr := fallback(ctx)
	if fbErr != nil {
		classified := Classify(fbErr, map[string]any{
			"operation":     name,
			"fallback":      true,
			"primary_error": err.Error(),
		})
		slog.Error("fallback also failed", "operation", name, "error", classified)
		return nil, classified
	}

	slog.Info("fallback succeeded", "operation", name)
	return result, nil
}

// BatchItemFailure pairs a batch item with its classified failure.
type BatchItemFailure[T any] struct {
	Item    T
	Failure *ClassifiedFailure
}

// BatchOutcome is the result of a partial-failure-tolerant batch run.
// len(Succeeded) + len(Failed) always equals the input length, and each
// slice preserves input order.
type BatchOutcome[T, R any] struct {
	Succeeded []R
	Failed    []BatchItemFailure[T]
}

// HandlePartialFailure applies op to each item sequentially in input
// order, classifying per-item failures without aborting the rest.
// Items are not retried here; op may call SafeExecute itself if it
// wants retries.
func HandlePartialFailure[T, R any](
	ctx context.Context,
	name string,
	items []T,
	op func(ctx context.Context, item T) (R, error),
) BatchOutcome[T, R] {
	outcome := BatchOutcome[T, R]{
		Succeeded: make([]R, 0, len(items)),
	}

	for i, item := range items {
		result, err := op(ctx, item)
		if err != nil {
			failure := Classify(err, map[string]any{
				"operation":  name,
				"item_index": i,
			})
			metricBatchItems.WithLabelValues(name, "failed").Inc()
			slog.Warn("batch item failed",
				"operation", name,
				"item_index", i,
				"kind", failure.Kind,
				"error", err,
			)
			outcome.Failed = append(outcome.Failed, BatchItemFailure[T]{Item: item, Failure: failure})
			continue
		}
		metricBatchItems.WithLabelValues(name, "succeeded").Inc()
		outcome.Succeeded = append(outcome.Succeeded, result)
	}

	if len(outcome.Failed) > 0 {
		slog.Warn("batch completed with partial failure",
			"operation", name,
			"total", len(items),
			"succeeded", len(outcome.Succeeded),
			"failed", len(outcome.Failed),
		)
	}

	return outcome
}
