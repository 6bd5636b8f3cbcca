package procurement

import "fmt"

// AuthError means no usable access token could be obtained. It covers a
// failed refresh as well as a missing refresh token.
type AuthError struct {
	Status int
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	msg := "procurement auth failed"
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is a non-success response from the order endpoint
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("procurement API returned %d: %s", e.Status, e.Body)
}

// TransportError is a network-level failure talking to the order endpoint
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "procurement request failed: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }
