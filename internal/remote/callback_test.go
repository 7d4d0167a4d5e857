package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

// startCallbackServer binds a server on an ephemeral loopback port.
func startCallbackServer(t *testing.T, expectedState string) *CallbackServer {
	t.Helper()

	server, err := NewCallbackServer(CallbackOptions{
		ListenAddr:    "127.0.0.1:0",
		ExpectedState: expectedState,
	})
	if err != nil {
		t.Fatalf("NewCallbackServer() error = %v", err)
	}
	t.Cleanup(func() {
		server.Close() //nolint:errcheck // already closed in most tests
	})
	return server
}

// redirect simulates the browser hitting the callback route.
func redirect(t *testing.T, server *CallbackServer, query url.Values) *http.Response {
	t.Helper()

	resp, err := http.Get("http://" + server.Addr() + "/callback?" + query.Encode())
	if err != nil {
		t.Fatalf("redirect request error = %v", err)
	}
	t.Cleanup(func() {
		resp.Body.Close() //nolint:errcheck // test response
	})
	return resp
}

func TestCallbackServer_DeliversCode(t *testing.T) {
	server := startCallbackServer(t, "12345-abc")

	resp := redirect(t, server, url.Values{
		"code":  {"auth-code-1"},
		"state": {"12345-abc"},
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("redirect status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading page: %v", err)
	}
	if strings.Contains(string(body), "auth-code-1") {
		t.Error("authorisation code leaked into the response page")
	}

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	result, err := server.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if result.Code != "auth-code-1" {
		t.Errorf("Code = %q, want auth-code-1", result.Code)
	}
	if result.State != "12345-abc" {
		t.Errorf("State = %q, want 12345-abc", result.State)
	}
}

func TestCallbackServer_RejectsWrongState(t *testing.T) {
	server := startCallbackServer(t, "expected-state")

	resp := redirect(t, server, url.Values{
		"code":  {"auth-code-1"},
		"state": {"forged-state"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("redirect status = %d, want 400", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	if _, err := server.Wait(ctx); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("Wait() error = %v, want ErrStateMismatch", err)
	}
}

func TestCallbackServer_SurfacesProviderError(t *testing.T) {
	server := startCallbackServer(t, "12345")

	resp := redirect(t, server, url.Values{
		"error":             {"access_denied"},
		"error_description": {"user declined"},
		"state":             {"12345"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("redirect status = %d, want 400", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	_, err := server.Wait(ctx)
	if err == nil {
		t.Fatal("Wait() error = nil, want provider error")
	}
	if !strings.Contains(err.Error(), "access_denied") {
		t.Errorf("Wait() error = %v, want mention of access_denied", err)
	}
}

func TestCallbackServer_MissingCode(t *testing.T) {
	server := startCallbackServer(t, "12345")

	resp := redirect(t, server, url.Values{
		"state": {"12345"},
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("redirect status = %d, want 400", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	if _, err := server.Wait(ctx); err == nil {
		t.Error("Wait() error = nil, want missing-code error")
	}
}

func TestCallbackServer_CloseUnblocksWait(t *testing.T) {
	server := startCallbackServer(t, "12345")

	if err := server.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 2*time.Second)
	defer cancel()

	if _, err := server.Wait(ctx); !errors.Is(err, ErrCallbackClosed) {
		t.Errorf("Wait() after Close(): error = %v, want ErrCallbackClosed", err)
	}
}

func TestCallbackServer_WaitHonoursContext(t *testing.T) {
	server := startCallbackServer(t, "12345")

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	if _, err := server.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestNewCallbackServer_RequiresState(t *testing.T) {
	if _, err := NewCallbackServer(CallbackOptions{ListenAddr: "127.0.0.1:0"}); err == nil {
		t.Error("NewCallbackServer() error = nil, want validation error")
	}
}
