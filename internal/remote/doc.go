// Package remote implements cloud account authorisation for the Hue
// remote API using the OAuth 2.0 authorisation-code grant with PKCE.
//
// # Architecture
//
//	┌─────────────┐   authorisation URL    ┌──────────────────┐
//	│    Flow     │───────────────────────▶│     browser      │
//	│             │                        └────────┬─────────┘
//	│  PKCE pair  │                                 │ redirect
//	│  state      │                        ┌────────▼─────────┐
//	│             │◀── code + state ───────│  CallbackServer  │
//	└──────┬──────┘                        │  (loopback HTTP) │
//	       │ code exchange / refresh       └──────────────────┘
//	       ▼
//	┌─────────────┐        ┌───────────────────┐
//	│  token      │───────▶│  TokenRepository  │
//	│  endpoint   │        │  (SQLite)         │
//	└─────────────┘        └───────────────────┘
//
// # Key Types
//
//   - Flow: Builds authorisation URLs and talks to the token endpoint.
//     Every authorisation attempt gets a fresh PKCE verifier and a
//     fresh state value.
//   - CallbackServer: Short-lived loopback listener that catches the
//     authorisation redirect and verifies its state.
//   - TokenSet: One complete grant. The expiration is stored as a
//     zone-free UTC timestamp truncated to whole seconds.
//   - TokenRepository: Persists exactly one token set; each save
//     replaces the previous set because refresh tokens rotate.
//
// # Usage
//
//	flow, err := remote.NewFlow(remote.FlowOptions{
//	    ClientID:     cfg.Remote.ClientID,
//	    ClientSecret: cfg.Remote.ClientSecret,
//	    RedirectURI:  cfg.Remote.RedirectURI,
//	})
//	request, err := flow.AuthorizationRequest("")
//	// open request.URL in a browser, then:
//	result, err := callback.Wait(ctx)
//	tokens, err := flow.ExchangeCode(ctx, result.Code, request.Verifier)
//	err = repo.Save(ctx, tokens)
//
// An expired access token is refreshed with Flow.Refresh. When the
// refresh itself fails with ErrRefreshTokenExpired the stored set is
// dead and the account must be authorised from scratch.
//
// # Security Considerations
//
// Access and refresh tokens are credentials: they are excluded from
// JSON serialisation and never logged. The PKCE verifier leaves the
// process only as its S256 challenge. Redirects are accepted solely
// from the loopback listener and only when their state matches the
// issuing attempt.
//
// # Thread Safety
//
// Flow and CallbackServer are safe for concurrent use. TokenSet values
// are treated as immutable once stored.
package remote
