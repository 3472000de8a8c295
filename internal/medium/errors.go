package medium

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingToken is returned by NewClient when no integration token is configured.
	ErrMissingToken = errors.New("medium integration token is required")

	// ErrNoUserID is returned when GET /me succeeds without an account id.
	ErrNoUserID = errors.New("could not retrieve Medium user ID")
)

const msgNoUserID = "Could not retrieve Medium user ID."

// ValidationError reports malformed or missing caller input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Field, e.Reason)
}

// UpstreamError is a failed call against the Medium API, either a transport
// failure (Transport set, Status zero) or a non-2xx response.
type UpstreamError struct {
	Status    int
	Message   string
	Transport bool
	Retryable bool
	Attempts  int
}

func (e *UpstreamError) Error() string {
	if e.Transport {
		return fmt.Sprintf("Network error: %s", e.Message)
	}
	return fmt.Sprintf("Medium API error (%d): %s", e.Status, e.Message)
}

// failureMessage renders err as the caller-facing error text.
func failureMessage(err error) string {
	var (
		verr ValidationError
		uerr *UpstreamError
	)
	switch {
	case errors.Is(err, ErrNoUserID):
		return msgNoUserID
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &uerr):
		return uerr.Error()
	default:
		return fmt.Sprintf("Unexpected error: %v", err)
	}
}
