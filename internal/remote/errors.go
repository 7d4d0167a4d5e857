package remote

import "errors"

// Sentinel errors for remote account operations.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, remote.ErrRefreshTokenExpired) {
//	    // full reauthorisation required
//	}
var (
	// ErrIncompleteTokenResponse is returned when the token endpoint
	// replies with 2xx but the body is missing one or more of the four
	// required fields (access_token, expires_in, refresh_token,
	// token_type). A partial grant is never stored.
	ErrIncompleteTokenResponse = errors.New("remote: incomplete token response")

	// ErrRefreshTokenExpired is returned when a refresh attempt is
	// rejected with invalid_grant. The stored token set is no longer
	// usable and the account must go through authorisation again.
	ErrRefreshTokenExpired = errors.New("remote: refresh token expired, reauthorisation required")

	// ErrNoTokens is returned when no token set has been stored yet.
	ErrNoTokens = errors.New("remote: no token set stored")

	// ErrStateMismatch is returned when the state parameter on the
	// authorisation redirect does not match the one issued with the
	// authorisation URL.
	ErrStateMismatch = errors.New("remote: state parameter mismatch")

	// ErrCallbackClosed is returned when the callback server is closed
	// before a redirect arrives.
	ErrCallbackClosed = errors.New("remote: callback server closed")
)
