package seranking

import (
	"errors"
	"fmt"
)

var (
	// ErrRateLimited is returned after the provider kept rejecting a
	// request with 429 through all retry attempts.
	ErrRateLimited = errors.New("seranking: rate limit retries exhausted")

	// ErrTaskTimeout is returned when a SERP task stayed in processing past
	// the polling deadline.
	ErrTaskTimeout = errors.New("seranking: timeout waiting for SERP results")
)

// ProviderError is a non-retryable provider response.
type ProviderError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("seranking %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

// MalformedError marks a response that parsed but made no sense.
type MalformedError struct {
	Endpoint string
	Reason   string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("seranking %s: malformed response: %s", e.Endpoint, e.Reason)
}
