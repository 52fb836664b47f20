package shorten

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrHTTPStatus        = errors.New("unexpected HTTP status")
	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalidSlug       = errors.New("invalid slug")
)

// ShortenError is returned by every failed shorten call.
type ShortenError struct {
	Provider ProviderID
	Err      error
}

func (e *ShortenError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider.Label(), e.Err)
}

func (e *ShortenError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx provider response. RetryAfter is zero
// unless the provider sent a Retry-After header.
type StatusError struct {
	Code       int
	RetryAfter time.Time
}

func (e *StatusError) Error() string {
	if e.RetryAfter.IsZero() {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d (retry after %s)", e.Code, e.RetryAfter.Local().Format(time.Kitchen))
}

func (e *StatusError) Is(target error) bool { return target == ErrHTTPStatus }

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
