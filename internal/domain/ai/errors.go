package ai

import (
	"errors"
	"fmt"
)

// Upstream failure kinds. Each one is terminal for the request that hit it.
var (
	ErrAuthentication = errors.New("ai authentication failed")
	// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	ErrTransport     = errors.New("ai transport failure")
	ErrTimeout       = errors.New("ai request timed out")
)

// UpstreamError keeps the provider status and body next to the failure kind
// so callers can log what the remote side actually said.
type UpstreamError struct {
	Kind       error
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UpstreamError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindName returns a short stable label for err, or "" when err is not an upstream failure.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrAuthentication):
		return "authentication_failure"
	case errors.Is(err, ErrQuotaExceeded):
		return "rate_limit_exceeded"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrTransport):
		return "transport_failure"
	}
	return ""
}
