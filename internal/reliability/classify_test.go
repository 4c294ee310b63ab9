package reliability

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type fakeNetError struct{ msg string }

func (e *fakeNetError) Error() string   { return e.msg }
func (e *fakeNetError) Timeout() bool   { return true }
func (e *fakeNetError) Temporary() bool { return true }

func TestKindOf_TypedFaults(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"network fault", NewNetworkFault(nil, "connection dropped"), KindNetwork},
		{"rate limit fault", NewRateLimitFault(nil, "slow down"), KindRateLimit},
		{"server fault", NewServerFault(nil, "upstream hiccup"), KindServerError},
		{"parsing fault", NewParsingFault(nil, "bad row"), KindParsing},
		{"validation fault", NewValidationFault(nil, "bad team name"), KindValidation},
		{"wrapped fault", fmt.Errorf("fetch schedule: %w", NewRateLimitFault(nil, "slow down")), KindRateLimit},
		{"net.Error", &fakeNetError{msg: "read tcp: i/o timeout"}, KindNetwork},
		{"deadline exceeded", context.DeadlineExceeded, KindNetwork},
	}

	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestKindOf_MessageMarkers(t *testing.T) {
	cases := []struct {
		msg  string
		want FailureKind
	}{
		{"HTTP 429 Too Many Requests", KindRateLimit},
		{"daily quota exceeded", KindRateLimit},
		{"request throttled by upstream", KindRateLimit},
		{"HTTP 503 Service Unavailable", KindServerError},
		{"got a 5xx from upstream", KindServerError},
		{"bad gateway", KindServerError},
		{"failed to parse schedule row", KindParsing},
		{"malformed csv record", KindParsing},
		{"record on line 3: wrong number of fields", KindParsing},
		{"validation failed for home_team", KindValidation},
		{"missing required column date", KindValidation},
		{"dial tcp 10.0.0.1:443: connection refused", KindNetwork},
		{"unexpected EOF", KindNetwork},
	}

	for _, tc := range cases {
		if got := KindOf(errors.New(tc.msg)); got != tc.want {
			t.Errorf("%q: expected %s, got %s", tc.msg, tc.want, got)
		}
	}
}

func TestKindOf_Unknown(t *testing.T) {
	if got := KindOf(errors.New("something completely different")); got != KindUnknown {
		t.Errorf("expected %s, got %s", KindUnknown, got)
	}
	if got := KindOf(nil); got != KindUnknown {
		t.Errorf("nil error: expected %s, got %s", KindUnknown, got)
	}
}

func TestKindOf_Deterministic(t *testing.T) {
	err := errors.New("HTTP 429 and also a timeout")
	first := KindOf(err)
	for i := 0; i < 10; i++ {
		if got := KindOf(err); got != first {
			t.Fatalf("classification not deterministic: %s then %s", first, got)
		}
	}
	// Status token rules come before generic network words.
	if first != KindRateLimit {
		t.Errorf("expected %s, got %s", KindRateLimit, first)
	}
}

func TestClassify_NeverFails(t *testing.T) {
	cf := Classify(nil, nil)
	if cf == nil {
		t.Fatal("Classify returned nil")
	}
	if cf.Kind != KindUnknown {
		t.Errorf("expected %s, got %s", KindUnknown, cf.Kind)
	}
	if cf.Context == nil {
		t.Error("expected non-nil context map")
	}
	if cf.OccurredAt.IsZero() {
		t.Error("expected occurred-at timestamp")
	}
}

func TestClassify_UnwrapsToOriginal(t *testing.T) {
	original := NewParsingFault(nil, "bad row")
	cf := Classify(original, map[string]any{"operation": "test"})

	if !errors.Is(cf, error(original)) {
		var fault *Fault
		if !errors.As(cf, &fault) || fault != original {
			t.Error("classified failure does not unwrap to the original fault")
		}
	}
	if cf.Context["operation"] != "test" {
		t.Error("context not carried")
	}
}
