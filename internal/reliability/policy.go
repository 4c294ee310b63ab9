package reliability

import (
	"math"
	"time"
)

// RetryPolicy defines retry behavior for one failure kind.
type RetryPolicy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	Multiplier     float64
	ImmediateFirst bool // first retry fires without delay (server hiccups)
	MaxDelay       time.Duration
}

// Delay returns the backoff before retry i (1-indexed, counted after the
// first failure): BaseDelay * Multiplier^(i-1). With ImmediateFirst the
// first retry is instant and the exponent shifts by one.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry < 1 {
		retry = 1
	}
	exp := retry - 1
	if p.ImmediateFirst {
		if retry == 1 {
			return 0
		}
		exp = retry - 2
	}

	delay := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(exp))
	if p.MaxDelay > 0 && delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// DefaultPolicies returns the per-kind retry policies.
//
//   - Network: transient, short backoff (1s, 2s)
//   - RateLimit: the upstream is telling us to back off, so retrying
//     quickly only makes it worse (30s, 60s)
//   - ServerError: one immediate retry, then exponential backoff
//   - Parsing/Validation: deterministic, retrying cannot fix them
func DefaultPolicies() map[FailureKind]RetryPolicy {
	return map[FailureKind]RetryPolicy{
		KindNetwork:     {MaxAttempts: 3, BaseDelay: 1 * time.Second, Multiplier: 2, MaxDelay: 60 * time.Second},
		KindRateLimit:   {MaxAttempts: 3, BaseDelay: 30 * time.Second, Multiplier: 2, MaxDelay: 5 * time.Minute},
		KindServerError: {MaxAttempts: 3, BaseDelay: 1 * time.Second, Multiplier: 2, ImmediateFirst: true, MaxDelay: 60 * time.Second},
		KindParsing:     {MaxAttempts: 1},
		KindValidation:  {MaxAttempts: 1},
		KindUnknown:     {MaxAttempts: 1},
	}
}
