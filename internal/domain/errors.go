package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredential means the provider API key is not configured.
	ErrMissingCredential = errors.New("API key not configured")
	// ErrRateLimited is returned when a provider answers 429.
	ErrRateLimited = errors.New("rate limited")
	// ErrMalformedResponse is returned when a provider body cannot be parsed.
	ErrMalformedResponse = errors.New("invalid response")
	// ErrPageUnavailable is returned for an illegal page transition.
	ErrPageUnavailable = errors.New("page is not reachable")
	// ErrStaleResult is returned when the filter changed while a page was in flight.
	ErrStaleResult = errors.New("result superseded by a newer request")
)

// UpstreamError reports a provider failure: a non-2xx status or a body that
// signals an error on HTTP 200 (StatusCode is then 200).
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = fmt.Sprintf("Failed to fetch news: %d", e.StatusCode)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, msg)
}

// MalformedError wraps ErrMalformedResponse with the provider name.
func MalformedError(provider string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w from %s", ErrMalformedResponse, provider)
	}
	return fmt.Errorf("%w from %s: %v", ErrMalformedResponse, provider, cause)
}
