package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxTokenResponseBytes caps how much of a token endpoint reply is
// read. Token bodies are small; anything larger is malformed.
const maxTokenResponseBytes = 1 << 20

// invalidGrant is the OAuth error code the token endpoint returns for
// a refresh token that is expired or revoked.
const invalidGrant = "invalid_grant"

// tokenResponse is the raw token endpoint reply.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// endpointError is a non-2xx reply from the token endpoint, carrying
// the OAuth error code when the body supplied one.
type endpointError struct {
	Status      int
	Code        string
	Description string
}

func (e *endpointError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("token endpoint status %d: %s: %s", e.Status, e.Code, e.Description)
	}
	return fmt.Sprintf("token endpoint status %d", e.Status)
}

// ExchangeCode redeems an authorisation code for a token set.
//
// Parameters:
//   - ctx: Context for cancellation
//   - code: Authorisation code from the redirect
//   - verifier: PKCE verifier issued with the authorisation URL
//
// Returns:
//   - *TokenSet: Complete grant with computed expiration
//   - error: ErrIncompleteTokenResponse if any of the four token
//     fields is missing; transport and endpoint errors otherwise
func (f *Flow) ExchangeCode(ctx context.Context, code, verifier string) (*TokenSet, error) {
	if code == "" {
		return nil, fmt.Errorf("authorisation code is required")
	}
	if verifier == "" {
		return nil, fmt.Errorf("code verifier is required")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", f.redirectURI)
	form.Set("code_verifier", verifier)

	tokens, err := f.requestToken(ctx, form)
	if err != nil {
		return nil, err
	}

	f.logDebug("authorisation code exchanged", "expiration", tokens.Expiration)
	return tokens, nil
}

// Refresh redeems a refresh token for a new token set.
//
// An invalid_grant rejection means the refresh token itself has
// expired; that is surfaced as ErrRefreshTokenExpired so callers can
// distinguish it from transient failures and restart authorisation.
//
// Parameters:
//   - ctx: Context for cancellation
//   - refreshToken: Refresh token from the stored set
//
// Returns:
//   - *TokenSet: Fresh grant with computed expiration
//   - error: ErrRefreshTokenExpired when the grant is rejected as
//     invalid; ErrIncompleteTokenResponse on a partial reply;
//     transport and endpoint errors otherwise
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("refresh token is required")
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	tokens, err := f.requestToken(ctx, form)
	if err != nil {
		var endpoint *endpointError
		if errors.As(err, &endpoint) && endpoint.Code == invalidGrant {
			return nil, fmt.Errorf("%w: %v", ErrRefreshTokenExpired, err)
		}
		return nil, err
	}

	f.logDebug("token set refreshed", "expiration", tokens.Expiration)
	return tokens, nil
}

// requestToken posts a form to the token endpoint and normalises the
// reply. The application authenticates with HTTP basic auth.
func (f *Flow) requestToken(ctx context.Context, form url.Values) (*TokenSet, error) {
	endpoint := f.apiBase + tokenPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(f.clientID, f.clientSecret)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-side close

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var body struct {
			Error       string `json:"error"`
			Description string `json:"error_description"`
		}
		_ = json.Unmarshal(payload, &body) //nolint:errcheck // error bodies are not always JSON
		return nil, &endpointError{Status: resp.StatusCode, Code: body.Error, Description: body.Description}
	}

	var body tokenResponse
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	return f.normalise(body)
}

// normalise validates a 2xx token reply and derives the stored
// expiration. All four fields must be present; a partial grant would
// strand later refreshes, so it is rejected outright.
func (f *Flow) normalise(body tokenResponse) (*TokenSet, error) {
	switch {
	case body.AccessToken == "":
		return nil, fmt.Errorf("%w: missing access_token", ErrIncompleteTokenResponse)
	case body.ExpiresIn <= 0:
		return nil, fmt.Errorf("%w: missing expires_in", ErrIncompleteTokenResponse)
	case body.RefreshToken == "":
		return nil, fmt.Errorf("%w: missing refresh_token", ErrIncompleteTokenResponse)
	case body.TokenType == "":
		return nil, fmt.Errorf("%w: missing token_type", ErrIncompleteTokenResponse)
	}

	expiresAt := f.now().Add(time.Duration(body.ExpiresIn) * time.Second)

	return &TokenSet{
		AccessToken:  body.AccessToken,
		ExpiresIn:    body.ExpiresIn,
		RefreshToken: body.RefreshToken,
		TokenType:    body.TokenType,
		Expiration:   FormatExpiration(expiresAt),
	}, nil
}
