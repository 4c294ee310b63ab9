package reliability

import (
	"context"
	"log/slog"
	"time"
)

// Operation is a unit of work protected by the retry engine. It either
// returns a value or fails; the engine treats it as opaque.
type Operation func(ctx context.Context) (any, error)

// Engine executes operations with kind-aware exponential backoff.
type Engine struct {
	policies map[FailureKind]RetryPolicy

	// sleep is swapped out in tests to observe delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewEngine creates a retry engine. A nil policies map gets the defaults.
func NewEngine(policies map[FailureKind]RetryPolicy) *Engine {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Engine{
		policies: policies,
		sleep:    ctxSleep,
	}
}

// Execute runs op, retrying per the policy of whatever failure kind is
// encountered. On success it returns the operation's value. Once the
// policy is exhausted (or the kind is non-retryable) it returns the
// final classified failure, which unwraps to the original fault.
func (e *Engine) Execute(ctx context.Context, name string, op Operation) (any, error) {
	return e.ExecuteWithPolicy(ctx, name, op, nil)
}

// ExecuteWithPolicy is Execute with a caller-supplied policy override.
// When override is nil the policy is selected per classified kind and
// re-evaluated on every failure, since the kind can change between
// attempts (a 429 followed by a timeout).
func (e *Engine) ExecuteWithPolicy(
	ctx context.Context,
	name string,
	op Operation,
	override *RetryPolicy,
) (any, error) {
	var lastFailure *ClassifiedFailure

	for attempt := 1; ; attempt++ {
		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				slog.Info("operation recovered after retry",
					"operation", name,
					"attempt", attempt,
				)
			}
			return result, nil
		}

		lastFailure = Classify(err, map[string]any{
			"operation": name,
			"attempt":   attempt,
		})
		metricFailuresClassified.WithLabelValues(string(lastFailure.Kind)).Inc()
		metricRetryAttempts.WithLabelValues(name, string(lastFailure.Kind)).Inc()

		policy := e.policyFor(lastFailure.Kind, override)
		if attempt >= policy.MaxAttempts {
			slog.Error("operation failed, retries exhausted",
				"operation", name,
				"kind", lastFailure.Kind,
				"attempt", attempt,
				"max_attempts", policy.MaxAttempts,
				"error", err,
			)
			return nil, lastFailure
		}

		delay := policy.Delay(attempt)
		slog.Warn("operation failed, retrying",
			"operation", name,
			"kind", lastFailure.Kind,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"delay", delay,
			"error", err,
		)

		if err := e.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (e *Engine) policyFor(kind FailureKind, override *RetryPolicy) RetryPolicy {
	if override != nil {
		return *override
	}
	if p, ok := e.policies[kind]; ok {
		return p
	}
	return e.policies[KindUnknown]
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
