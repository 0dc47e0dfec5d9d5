package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ProviderError is returned when a provider responds with a non-2xx
// status.
//
// Drivers should populate RawResponse with the provider response body
// bytes. RawResponse must never include API keys.
type ProviderError struct {
	Provider    string
	StatusCode  int
	Message     string
	RawResponse []byte
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed: status %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s request failed: %s", e.Provider, e.Message)
}

// IsThrottled reports whether err is a provider-side rate limit
// rejection. The pipeline maps this to a "service busy" outcome distinct
// from general connectivity failures.
func IsThrottled(err error) bool {
	var perr *ProviderError
	return errors.As(err, &perr) && perr != nil && perr.StatusCode == http.StatusTooManyRequests
}
