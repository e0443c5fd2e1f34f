package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrNotConfigured means the provider has no credentials. The merge engine
// degrades the whole category to mock data; this never reaches the caller.
type ErrNotConfigured struct {
	Provider string
}

func (e ErrNotConfigured) Error() string {
	return fmt.Sprintf("upstream provider %s is not configured", e.Provider)
}

// ErrTimeout wraps a request that exceeded its deadline.
type ErrTimeout struct {
	Operation string
	Err       error
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("upstream timeout during %s: %v", e.Operation, e.Err)
}

func (e ErrTimeout) Unwrap() error { return e.Err }

// ErrRateLimited wraps an HTTP 429 or equivalent provider throttle.
type ErrRateLimited struct {
	RetryAfter time.Duration
}

func (e ErrRateLimited) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("upstream rate limited, retry after %s", e.RetryAfter)
	}
	return "upstream rate limited"
}

// ErrMalformedResponse wraps a payload that failed to parse or validate.
type ErrMalformedResponse struct {
	Detail string
	Err    error
}

func (e ErrMalformedResponse) Error() string {
	return fmt.Sprintf("malformed upstream response: %s", e.Detail)
}

func (e ErrMalformedResponse) Unwrap() error { return e.Err }

// IsNotConfigured reports whether err is a missing-credentials failure.
func IsNotConfigured(err error) bool {
	var target ErrNotConfigured
	return errors.As(err, &target)
}

// IsTimeout reports whether err is a deadline/timeout failure, including
// raw context and net timeouts a provider may pass through.
func IsTimeout(err error) bool {
	var target ErrTimeout
	if errors.As(err, &target) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsRateLimited reports whether err is a provider throttle.
func IsRateLimited(err error) bool {
	var target ErrRateLimited
	return errors.As(err, &target)
}

// IsMalformed reports whether err is a parse/validation failure.
func IsMalformed(err error) bool {
	var target ErrMalformedResponse
	return errors.As(err, &target)
}
