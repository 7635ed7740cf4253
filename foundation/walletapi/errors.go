package walletapi

import (
	"errors"
	"net/http"
)

// Fallback messages used when the API does not provide one.
const (
	msgUnauthorized = "Unauthorized"
	msgGeneric      = "An error occurred"
	msgNetwork      = "Network error. Please check your connection."
)

// Error is returned when the API answers with a non 2xx status. Message
// holds the message provided by the API or a generic fallback.
type Error struct {
	Status  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// IsUnauthorized reports if the error tells the caller has no valid
// session with the API.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized
}

// NetworkError is returned when the request never produced a response.
type NetworkError struct {
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return msgNetwork
}

// Unwrap provides access to the transport failure.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Message returns the message to show a user for the error, or the
// fallback when the error carries nothing useful.
func Message(err error, fallback string) string {
	if err == nil {
		return fallback
	}

	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.Error()
	}

	return fallback
}
