package remote

import (
	"net/url"
	"strings"
	"testing"
)

func newTestFlow(t *testing.T, mutate func(*FlowOptions)) *Flow {
	t.Helper()

	opts := FlowOptions{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "http://127.0.0.1:8585/callback",
	}
	if mutate != nil {
		mutate(&opts)
	}

	flow, err := NewFlow(opts)
	if err != nil {
		t.Fatalf("NewFlow() error = %v", err)
	}
	return flow
}

func TestNewFlow_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*FlowOptions)
	}{
		{"missing client id", func(o *FlowOptions) { o.ClientID = "" }},
		{"missing client secret", func(o *FlowOptions) { o.ClientSecret = "" }},
		{"missing redirect uri", func(o *FlowOptions) { o.RedirectURI = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := FlowOptions{
				ClientID:     "client-id",
				ClientSecret: "client-secret",
				RedirectURI:  "http://127.0.0.1:8585/callback",
			}
			tt.mutate(&opts)

			if _, err := NewFlow(opts); err == nil {
				t.Error("NewFlow() error = nil, want validation error")
			}
		})
	}
}

func TestFlow_AuthorizationRequest(t *testing.T) {
	flow := newTestFlow(t, func(o *FlowOptions) {
		o.DeviceName = "huelink-test"
	})

	request, err := flow.AuthorizationRequest("")
	if err != nil {
		t.Fatalf("AuthorizationRequest() error = %v", err)
	}

	parsed, err := url.Parse(request.URL)
	if err != nil {
		t.Fatalf("authorisation URL does not parse: %v", err)
	}

	if parsed.Scheme != "https" || parsed.Host != "api.meethue.com" {
		t.Errorf("authorisation URL host = %s://%s, want https://api.meethue.com", parsed.Scheme, parsed.Host)
	}
	if parsed.Path != "/v2/oauth2/authorize" {
		t.Errorf("authorisation URL path = %q, want /v2/oauth2/authorize", parsed.Path)
	}

	query := parsed.Query()
	if got := query.Get("client_id"); got != "client-id" {
		t.Errorf("client_id = %q, want %q", got, "client-id")
	}
	if got := query.Get("response_type"); got != "code" {
		t.Errorf("response_type = %q, want %q", got, "code")
	}
	if got := query.Get("code_challenge_method"); got != "S256" {
		t.Errorf("code_challenge_method = %q, want S256", got)
	}
	if got := query.Get("code_challenge"); got != ChallengeS256(request.Verifier) {
		t.Errorf("code_challenge = %q does not match verifier", got)
	}
	if got := query.Get("state"); got != request.State {
		t.Errorf("state in URL = %q, want %q", got, request.State)
	}
	if got := query.Get("redirect_uri"); got != "http://127.0.0.1:8585/callback" {
		t.Errorf("redirect_uri = %q, want callback URI", got)
	}
	if got := query.Get("device_name"); got != "huelink-test" {
		t.Errorf("device_name = %q, want %q", got, "huelink-test")
	}
}

func TestFlow_AuthorizationRequest_OmitsDeviceName(t *testing.T) {
	flow := newTestFlow(t, nil)

	request, err := flow.AuthorizationRequest("")
	if err != nil {
		t.Fatalf("AuthorizationRequest() error = %v", err)
	}

	parsed, err := url.Parse(request.URL)
	if err != nil {
		t.Fatalf("authorisation URL does not parse: %v", err)
	}
	if parsed.Query().Has("device_name") {
		t.Error("device_name present in URL despite empty option")
	}
}

func TestFlow_AuthorizationRequest_FreshPerAttempt(t *testing.T) {
	flow := newTestFlow(t, nil)

	first, err := flow.AuthorizationRequest("")
	if err != nil {
		t.Fatalf("AuthorizationRequest() error = %v", err)
	}
	second, err := flow.AuthorizationRequest("")
	if err != nil {
		t.Fatalf("AuthorizationRequest() error = %v", err)
	}

	if first.Verifier == second.Verifier {
		t.Error("two attempts share a verifier")
	}
	if first.State == second.State {
		t.Error("two attempts share a state")
	}
}

func TestComposeState_BarePrefix(t *testing.T) {
	// The length is random within its bound, so sample repeatedly.
	for i := 0; i < 25; i++ {
		state, err := composeState("")
		if err != nil {
			t.Fatalf("composeState() error = %v", err)
		}

		if len(state) < stateDigitsMin || len(state) > stateDigitsMax {
			t.Fatalf("state length = %d, want %d..%d", len(state), stateDigitsMin, stateDigitsMax)
		}
		if strings.Contains(state, "-") {
			t.Fatalf("state %q contains separator despite empty caller state", state)
		}
		for _, c := range state {
			if c < '0' || c > '9' {
				t.Fatalf("state %q contains non-digit %q", state, c)
			}
		}
	}
}

func TestComposeState_WithCallerState(t *testing.T) {
	state, err := composeState("session-42")
	if err != nil {
		t.Fatalf("composeState() error = %v", err)
	}

	dash := strings.Index(state, "-")
	if dash < 0 {
		t.Fatalf("state %q has no separator despite caller state", state)
	}

	prefix := state[:dash]
	if len(prefix) < stateDigitsMin || len(prefix) > stateDigitsMax {
		t.Errorf("prefix length = %d, want %d..%d", len(prefix), stateDigitsMin, stateDigitsMax)
	}
	for _, c := range prefix {
		if c < '0' || c > '9' {
			t.Fatalf("prefix %q contains non-digit %q", prefix, c)
		}
	}

	if got := state[dash+1:]; got != "session-42" {
		t.Errorf("caller portion = %q, want %q", got, "session-42")
	}
}

func TestCallerState(t *testing.T) {
	tests := []struct {
		name  string
		state string
		want  string
	}{
		{"bare prefix", "1234567890123456789012345678901", ""},
		{"with caller state", "1234567890123456789012345678901-abc", "abc"},
		{"caller state containing dashes", "123-session-42", "session-42"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CallerState(tt.state); got != tt.want {
				t.Errorf("CallerState(%q) = %q, want %q", tt.state, got, tt.want)
			}
		})
	}
}
