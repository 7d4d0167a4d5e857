package remote

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/nerrad567/huelink/internal/infrastructure/logging"
)

const (
	// DefaultAPIBase is the remote account API root.
	DefaultAPIBase = "https://api.meethue.com"

	// DefaultTokenTimeout bounds a single call to the token endpoint.
	DefaultTokenTimeout = 10 * time.Second

	authorizePath = "/v2/oauth2/authorize"
	tokenPath     = "/v2/oauth2/token"

	// State values carry a random numeric prefix so redirects can be
	// correlated with the attempt that issued them even when the
	// caller supplies no state of its own.
	stateDigitsMin = 31
	stateDigitsMax = 45
)

// Flow drives the authorisation-code grant against the remote API:
// building authorisation URLs, exchanging codes for token sets, and
// refreshing them.
type Flow struct {
	clientID     string
	clientSecret string
	redirectURI  string
	deviceName   string
	apiBase      string
	httpClient   *http.Client
	logger       *logging.Logger
	now          func() time.Time
}

// FlowOptions configures a Flow.
type FlowOptions struct {
	// ClientID identifies the application to the remote API. Required.
	ClientID string

	// ClientSecret authenticates token endpoint calls. Required.
	ClientSecret string

	// RedirectURI is where the authorisation server sends the user
	// back. Required, and must match the URI registered for the
	// application.
	RedirectURI string

	// DeviceName, when set, is shown to the user on the consent page.
	DeviceName string

	// APIBase overrides the remote API root. Defaults to
	// DefaultAPIBase. Trailing slashes are trimmed.
	APIBase string

	// Timeout bounds each token endpoint call. Defaults to
	// DefaultTokenTimeout.
	Timeout time.Duration

	// Logger for debug output. May be nil.
	Logger *logging.Logger

	// now is a test seam for expiration computation.
	now func() time.Time
}

// NewFlow creates a Flow from options.
//
// Returns:
//   - *Flow: Configured flow
//   - error: If a required option is missing
func NewFlow(opts FlowOptions) (*Flow, error) {
	if opts.ClientID == "" {
		return nil, fmt.Errorf("client id is required")
	}
	if opts.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required")
	}
	if opts.RedirectURI == "" {
		return nil, fmt.Errorf("redirect uri is required")
	}

	apiBase := opts.APIBase
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	for len(apiBase) > 0 && apiBase[len(apiBase)-1] == '/' {
		apiBase = apiBase[:len(apiBase)-1]
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTokenTimeout
	}

	now := opts.now
	if now == nil {
		now = time.Now
	}

	return &Flow{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		redirectURI:  opts.RedirectURI,
		deviceName:   opts.DeviceName,
		apiBase:      apiBase,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       opts.Logger,
		now:          now,
	}, nil
}

// AuthorizationRequest is everything the caller must retain to finish
// an authorisation attempt: the URL to open in a browser, the state to
// verify on the redirect, and the verifier to present at code
// exchange.
type AuthorizationRequest struct {
	URL      string
	State    string
	Verifier string
}

// AuthorizationRequest builds the authorisation URL for one attempt.
//
// Each call generates a fresh PKCE pair and a fresh state value. The
// state is a random numeric prefix of 31 to 45 digits; when callerState
// is non-empty it is appended after a "-" separator, and the redirect
// handler can recover it by splitting on the first dash.
//
// Parameters:
//   - callerState: Opaque value to round-trip through the redirect.
//     May be empty, in which case the state is the bare prefix with no
//     separator.
//
// Returns:
//   - *AuthorizationRequest: URL, composed state, and PKCE verifier
//   - error: If random generation fails
func (f *Flow) AuthorizationRequest(callerState string) (*AuthorizationRequest, error) {
	pkce, err := NewPKCE()
	if err != nil {
		return nil, err
	}

	state, err := composeState(callerState)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("client_id", f.clientID)
	query.Set("response_type", "code")
	query.Set("code_challenge_method", "S256")
	query.Set("code_challenge", pkce.Challenge)
	query.Set("state", state)
	query.Set("redirect_uri", f.redirectURI)
	if f.deviceName != "" {
		query.Set("device_name", f.deviceName)
	}

	f.logDebug("authorisation request built", "state_length", len(state))

	return &AuthorizationRequest{
		URL:      f.apiBase + authorizePath + "?" + query.Encode(),
		State:    state,
		Verifier: pkce.Verifier,
	}, nil
}

// composeState builds a state value: a random run of decimal digits,
// between stateDigitsMin and stateDigitsMax long, followed by
// "-" + callerState when callerState is non-empty.
func composeState(callerState string) (string, error) {
	span, err := rand.Int(rand.Reader, big.NewInt(int64(stateDigitsMax-stateDigitsMin+1)))
	if err != nil {
		return "", fmt.Errorf("generating state length: %w", err)
	}
	length := stateDigitsMin + int(span.Int64())

	digits := make([]byte, length)
	for i := range digits {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generating state digit: %w", err)
		}
		digits[i] = '0' + byte(d.Int64())
	}

	if callerState == "" {
		return string(digits), nil
	}
	return string(digits) + "-" + callerState, nil
}

// CallerState recovers the caller-supplied portion of a composed state
// value. It returns "" when the state carries only the random prefix.
func CallerState(state string) string {
	for i := 0; i < len(state); i++ {
		if state[i] == '-' {
			return state[i+1:]
		}
	}
	return ""
}

// logDebug logs at debug level if a logger is configured.
func (f *Flow) logDebug(msg string, args ...any) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
