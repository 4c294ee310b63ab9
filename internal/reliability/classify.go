package reliability

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// markerRule maps message substrings to a failure kind. Rules are
// evaluated in order; the first match wins.
type markerRule struct {
	kind    FailureKind
	markers []string
}

// Message heuristics for faults that carry no explicit kind. Status-code
// tokens are checked before generic words so "timeout after 429" still
// lands on rate_limit. The upstream's wording changes occasionally, so
// this list is extended whenever a new marker shows up in the logs.
var markerRules = []markerRule{
	{KindRateLimit, []string{
		"429", "403",
		"too many requests",
		"rate limit",
		"forbidden",
		"quota",
		"throttl",
	}},
	{KindServerError, []string{
		"500", "502", "503", "504", "5xx",
		"server error",
		"internal server",
		"bad gateway",
		"service unavailable",
		"gateway timeout",
	}},
	{KindValidation, []string{
		"validation",
		"invalid field",
		"missing required",
		"out of range",
	}},
	{KindParsing, []string{
		"parse",
		"parsing",
		"malformed",
		"unexpected token",
		"decode",
		"invalid syntax",
		"wrong number of fields",
	}},
	{KindNetwork, []string{
		"connection refused",
		"connection reset",
		"no such host",
		"timeout",
		"timed out",
		"dial tcp",
		"broken pipe",
		"unexpected eof",
		"network",
	}},
}

// KindOf determines the failure kind for an error. Typed faults win;
// generic errors fall back to message markers, then Unknown.
func KindOf(err error) FailureKind {
	if err == nil {
		return KindUnknown
	}

	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind
	}

	var classified *ClassifiedFailure
	if errors.As(err, &classified) {
		return classified.Kind
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range markerRules {
		for _, marker := range rule.markers {
			if strings.Contains(msg, marker) {
				return rule.kind
			}
		}
	}

	return KindUnknown
}

// Classify wraps an error into a ClassifiedFailure. It never fails:
// anything unrecognizable comes back as KindUnknown. The context map is
// carried verbatim for logging; Classify does not copy it, callers must
// not mutate it afterwards.
func Classify(err error, ctx map[string]any) *ClassifiedFailure {
	msg := "unknown failure"
	if err != nil {
		msg = err.Error()
	}
	if ctx == nil {
		ctx = map[string]any{}
	}

	return &ClassifiedFailure{
		Kind:       KindOf(err),
		Message:    msg,
		Context:    ctx,
		OccurredAt: time.Now(),
		Err:        err,
	}
}
