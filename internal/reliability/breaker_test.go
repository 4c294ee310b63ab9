package reliability

import (
	"errors"
	"testing"
	"time"
)

// fakeClock lets tests drive the breaker's view of time.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Unix(1700000000, 0)} }

func withClock(cb *CircuitBreaker, c *fakeClock) { cb.now = c.now }

func TestBreaker_OpensAtThreshold(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker("scrape", 5, 60*time.Second)
	withClock(cb, clock)

	for i := 0; i < 4; i++ {
		if err := cb.Allow(); err != nil {
			t.Fatalf("call %d unexpectedly rejected: %v", i, err)
		}
		cb.RecordFailure()
	}
	if cb.State() != StateClosed {
		t.Fatalf("expected closed after 4 failures, got %s", cb.State())
	}

	// 5th failure crosses the threshold
	if err := cb.Allow(); err != nil {
		t.Fatalf("5th call unexpectedly rejected: %v", err)
	}
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Fatalf("expected open after 5 failures, got %s", cb.State())
	}

	// 6th call is rejected without invoking the operation
	err := cb.Allow()
	if err == nil {
		t.Fatal("expected rejection while open")
	}
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	var coe *CircuitOpenError
	if !errors.As(err, &coe) || coe.Operation != "scrape" {
		t.Errorf("expected CircuitOpenError for scrape, got %v", err)
	}
}

func TestBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker("scrape", 3, time.Minute)

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()

	if cb.FailureCount() != 0 {
		t.Errorf("expected failure count 0 after success, got %d", cb.FailureCount())
	}

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != StateClosed {
		t.Errorf("expected closed, got %s", cb.State())
	}
}

func TestBreaker_HalfOpenTrialSucceeds(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker("scrape", 1, 60*time.Second)
	withClock(cb, clock)

	cb.RecordFailure()
	if cb.State() != StateOpen {
		t.Fatalf("expected open, got %s", cb.State())
	}

	// Not enough time elapsed: still rejected.
	clock.advance(30 * time.Second)
	if err := cb.Allow(); err == nil {
		t.Fatal("expected rejection before recovery timeout")
	}

	// Timeout elapsed: one trial call allowed.
	clock.advance(31 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected trial call after timeout, got %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("expected half_open, got %s", cb.State())
	}

	// A second caller during the trial is rejected.
	if err := cb.Allow(); err == nil {
		t.Error("expected second half-open call rejected")
	}

	cb.RecordSuccess()
	if cb.State() != StateClosed {
		t.Errorf("expected closed after trial success, got %s", cb.State())
	}
	if cb.FailureCount() != 0 {
		t.Errorf("expected failure count reset, got %d", cb.FailureCount())
	}
}

func TestBreaker_HalfOpenTrialFails(t *testing.T) {
	clock := newFakeClock()
	cb := NewCircuitBreaker("scrape", 1, 60*time.Second)
	withClock(cb, clock)

	cb.RecordFailure()
	openedAt := clock.t

	clock.advance(61 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Fatalf("expected trial call, got %v", err)
	}
	cb.RecordFailure()

	if cb.State() != StateOpen {
		t.Fatalf("expected re-open after trial failure, got %s", cb.State())
	}
	if !cb.openedAt.After(openedAt) {
		t.Error("expected opened_at to reset on trial failure")
	}

	// Cool-down restarts from the new opened_at.
	clock.advance(59 * time.Second)
	if err := cb.Allow(); err == nil {
		t.Error("expected rejection during restarted cool-down")
	}
	clock.advance(2 * time.Second)
	if err := cb.Allow(); err != nil {
		t.Errorf("expected trial after restarted cool-down, got %v", err)
	}
}
