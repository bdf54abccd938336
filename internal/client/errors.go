package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for API operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTransport indicates the request failed at the network level
	// or the API answered with a non-2xx status.
	ErrTransport = errors.New("transport error")

	// ErrNoOrganization indicates the organization listing was empty.
	ErrNoOrganization = errors.New("no organization available")
)

// TransportError describes a failed API call.
// Status is zero when the failure happened before a response arrived.
type TransportError struct {
	Method string
	URL    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s %s: API request failed with status %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap lets errors.Is match both ErrTransport and the underlying cause.
func (e *TransportError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrTransport, e.Err}
	}
	return []error{ErrTransport}
}
