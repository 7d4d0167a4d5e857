package clip

import "errors"

// Domain-specific errors for dispatch operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoAddress is returned when a target bridge has no IP address.
	ErrNoAddress = errors.New("clip: target has no IP address")

	// ErrNoApplicationKey is returned when a target bridge has no
	// application key. Pair with the bridge first.
	ErrNoApplicationKey = errors.New("clip: target has no application key")

	// ErrLocalTimeout is returned when the local attempt timed out and
	// no bearer token was available for the remote fallback.
	ErrLocalTimeout = errors.New("clip: local attempt timed out")

	// ErrUnauthorised is returned when the endpoint rejects the
	// credentials. On the remote leg this means the access token has
	// expired and the caller must refresh it.
	ErrUnauthorised = errors.New("clip: request not authorised")

	// ErrRequestFailed is returned for any other non-success status.
	ErrRequestFailed = errors.New("clip: request failed")
)
