package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/huelink/internal/infrastructure/logging"
)

// DefaultCallbackListen is the loopback address the callback server
// binds when none is configured.
const DefaultCallbackListen = "127.0.0.1:8585"

// callbackReadHeaderTimeout bounds header reads on the loopback
// listener so a stalled connection cannot wedge the flow.
const callbackReadHeaderTimeout = 5 * time.Second

// CallbackResult is what a successful authorisation redirect delivers.
type CallbackResult struct {
	Code  string
	State string
}

// callbackOutcome carries either a result or a terminal error from the
// redirect handler to Wait.
type callbackOutcome struct {
	result CallbackResult
	err    error
}

// CallbackServer is a short-lived loopback HTTP server that catches
// the authorisation redirect during an interactive login.
//
// It serves a single route, GET /callback, verifies the state
// parameter against the one issued with the authorisation URL, and
// hands the authorisation code to whoever is blocked in Wait().
type CallbackServer struct {
	expectedState string
	logger        *logging.Logger
	listener      net.Listener
	server        *http.Server
	outcomes      chan callbackOutcome
	deliverOnce   sync.Once
	closeOnce     sync.Once
}

// CallbackOptions configures a CallbackServer.
type CallbackOptions struct {
	// ListenAddr is the loopback address to bind. Defaults to
	// DefaultCallbackListen. Must match the host and port of the
	// redirect URI registered for the application.
	ListenAddr string

	// ExpectedState is the state issued with the authorisation URL.
	// Required; redirects carrying any other state are rejected.
	ExpectedState string

	// Logger for debug output. May be nil.
	Logger *logging.Logger
}

// NewCallbackServer binds the listener and starts serving. The server
// runs until Close() is called or a redirect has been delivered.
//
// Returns:
//   - *CallbackServer: Listening server
//   - error: If ExpectedState is missing or the address cannot be bound
func NewCallbackServer(opts CallbackOptions) (*CallbackServer, error) {
	if opts.ExpectedState == "" {
		return nil, fmt.Errorf("expected state is required")
	}

	addr := opts.ListenAddr
	if addr == "" {
		addr = DefaultCallbackListen
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding callback listener: %w", err)
	}

	s := &CallbackServer{
		expectedState: opts.ExpectedState,
		logger:        opts.Logger,
		listener:      listener,
		outcomes:      make(chan callbackOutcome, 1),
	}

	router := chi.NewRouter()
	router.Get("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: callbackReadHeaderTimeout,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logDebug("callback server error", "error", err)
		}
	}()

	return s, nil
}

// Addr returns the address the server is actually listening on.
// Useful when the configured address used port 0.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

// Wait blocks until a redirect arrives, the context ends, or the
// server is closed.
//
// Returns:
//   - CallbackResult: Authorisation code and verified state
//   - error: ErrStateMismatch if the redirect carried the wrong state;
//     ErrCallbackClosed if Close() ran first; ctx.Err() on timeout
func (s *CallbackServer) Wait(ctx context.Context) (CallbackResult, error) {
	select {
	case outcome := <-s.outcomes:
		return outcome.result, outcome.err
	case <-ctx.Done():
		return CallbackResult{}, fmt.Errorf("waiting for authorisation redirect: %w", ctx.Err())
	}
}

// Close stops the server. Pending Wait() calls receive
// ErrCallbackClosed unless a redirect was already delivered.
func (s *CallbackServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.deliver(callbackOutcome{err: ErrCallbackClosed})
		err = s.server.Close()
	})
	return err
}

// handleCallback is the redirect endpoint. Whatever the outcome, it
// renders a self-contained page so the browser tab explains itself.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errCode := query.Get("error"); errCode != "" {
		desc := query.Get("error_description")
		s.logDebug("authorisation rejected", "error", errCode)
		s.renderPage(w, http.StatusBadRequest, "Authorisation failed",
			fmt.Sprintf("The authorisation server reported: %s. You can close this window.", errCode))
		s.deliver(callbackOutcome{err: fmt.Errorf("authorisation rejected: %s: %s", errCode, desc)})
		return
	}

	state := query.Get("state")
	if state != s.expectedState {
		s.logDebug("state mismatch on redirect")
		s.renderPage(w, http.StatusBadRequest, "Authorisation failed",
			"The redirect did not match this login attempt. You can close this window.")
		s.deliver(callbackOutcome{err: ErrStateMismatch})
		return
	}

	code := query.Get("code")
	if code == "" {
		s.renderPage(w, http.StatusBadRequest, "Authorisation failed",
			"The redirect carried no authorisation code. You can close this window.")
		s.deliver(callbackOutcome{err: fmt.Errorf("redirect carried no authorisation code")})
		return
	}

	s.logDebug("authorisation redirect received")
	s.renderPage(w, http.StatusOK, "Authorisation complete",
		"You can close this window and return to the terminal.")
	s.deliver(callbackOutcome{result: CallbackResult{Code: code, State: state}})
}

// deliver hands the first outcome to Wait. Later redirects for the
// same attempt are answered over HTTP but otherwise ignored.
func (s *CallbackServer) deliver(outcome callbackOutcome) {
	s.deliverOnce.Do(func() {
		s.outcomes <- outcome
	})
}

// renderPage writes a minimal HTML page. The code itself never
// appears in the page body.
func (s *CallbackServer) renderPage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body><h1>%s</h1><p>%s</p></body></html>", title, title, body) //nolint:errcheck // best-effort page
}

// logDebug logs at debug level if a logger is configured.
func (s *CallbackServer) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
