package clip

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const testEnvelope = `{"errors":[],"data":[{"id":"ok"}]}`

// slowHandler blocks until the request is abandoned, forcing the local
// attempt to time out without holding the test server open.
func slowHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			fmt.Fprint(w, testEnvelope)
		}
	}
}

// localTarget points a Target at a test TLS server, standing in for a
// bridge LAN address.
func localTarget(ts *httptest.Server) Target {
	return Target{
		IPAddress:      strings.TrimPrefix(ts.URL, "https://"),
		ApplicationKey: "app-key",
		BearerToken:    "bearer-token",
	}
}

func newTestRouter(t *testing.T, localTimeout time.Duration, remoteBase string, tel Telemetry) *Router {
	t.Helper()
	router, err := NewRouter(RouterOptions{
		Client:       newTestClient(),
		LocalTimeout: localTimeout,
		RemoteBase:   remoteBase,
		Telemetry:    tel,
	})
	if err != nil {
		t.Fatalf("NewRouter() error = %v", err)
	}
	return router
}

func TestNewRouter_RequiresClient(t *testing.T) {
	if _, err := NewRouter(RouterOptions{}); err == nil {
		t.Error("NewRouter() error = nil, want client requirement error")
	}
}

func TestRouter_LocalSuccess_NoFallback(t *testing.T) {
	var localCalls, remoteCalls atomic.Int32

	local := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		localCalls.Add(1)
		if got := r.URL.Path; got != "/clip/v2/resource/light/5" {
			t.Errorf("local path = %q, want /clip/v2/resource/light/5", got)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("local attempt carried a bearer token")
		}
		fmt.Fprint(w, testEnvelope)
	}))
	defer local.Close()

	remote := httptest.NewTLSServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		remoteCalls.Add(1)
	}))
	defer remote.Close()

	router := newTestRouter(t, 500*time.Millisecond, remote.URL, nil)
	resp, err := router.Fetch(context.Background(), localTarget(local), ResourceTypeLight, "5")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp == nil {
		t.Fatal("Fetch() response = nil")
	}

	if got := localCalls.Load(); got != 1 {
		t.Errorf("local calls = %d, want 1", got)
	}
	if got := remoteCalls.Load(); got != 0 {
		t.Errorf("remote calls = %d, want 0", got)
	}
}

func TestRouter_LocalTimeout_FallsBackToRemote(t *testing.T) {
	var remoteCalls atomic.Int32

	local := httptest.NewTLSServer(slowHandler())
	defer local.Close()

	remote := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteCalls.Add(1)
		if got := r.URL.Path; got != "/route/clip/v2/resource/light/5" {
			t.Errorf("remote path = %q, want /route/clip/v2/resource/light/5", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer bearer-token" {
			t.Errorf("remote Authorization = %q, want bearer token", got)
		}
		if got := r.Header.Get("hue-application-key"); got != "app-key" {
			t.Errorf("remote hue-application-key = %q, want app-key", got)
		}
		fmt.Fprint(w, testEnvelope)
	}))
	defer remote.Close()

	router := newTestRouter(t, 50*time.Millisecond, remote.URL, nil)
	resp, err := router.Fetch(context.Background(), localTarget(local), ResourceTypeLight, "5")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if resp == nil {
		t.Fatal("Fetch() response = nil")
	}

	if got := remoteCalls.Load(); got != 1 {
		t.Errorf("remote calls = %d, want exactly 1", got)
	}
}

func TestRouter_LocalError_NoFallback(t *testing.T) {
	var remoteCalls atomic.Int32

	local := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"errors":[{"description":"bridge internal error"}],"data":[]}`)
	}))
	defer local.Close()

	remote := httptest.NewTLSServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		remoteCalls.Add(1)
	}))
	defer remote.Close()

	router := newTestRouter(t, 500*time.Millisecond, remote.URL, nil)
	_, err := router.Fetch(context.Background(), localTarget(local), ResourceTypeLight, "5")
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("Fetch() error = %v, want ErrRequestFailed", err)
	}

	if got := remoteCalls.Load(); got != 0 {
		t.Errorf("remote calls = %d, want 0 for non-timeout failure", got)
	}
}

func TestRouter_NoBearerToken_SurfacesLocalTimeout(t *testing.T) {
	var remoteCalls atomic.Int32

	local := httptest.NewTLSServer(slowHandler())
	defer local.Close()

	remote := httptest.NewTLSServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		remoteCalls.Add(1)
	}))
	defer remote.Close()

	target := localTarget(local)
	target.BearerToken = ""

	router := newTestRouter(t, 50*time.Millisecond, remote.URL, nil)
	_, err := router.Fetch(context.Background(), target, ResourceTypeLight, "5")
	if !errors.Is(err, ErrLocalTimeout) {
		t.Fatalf("Fetch() error = %v, want ErrLocalTimeout", err)
	}

	if got := remoteCalls.Load(); got != 0 {
		t.Errorf("remote calls = %d, want 0 without bearer token", got)
	}
}

func TestRouter_ParentDeadline_NoFallback(t *testing.T) {
	var remoteCalls atomic.Int32

	local := httptest.NewTLSServer(slowHandler())
	defer local.Close()

	remote := httptest.NewTLSServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		remoteCalls.Add(1)
	}))
	defer remote.Close()

	// Parent deadline fires before the local timeout would. The caller
	// gave up, so the relay must not run.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	router := newTestRouter(t, time.Second, remote.URL, nil)
	_, err := router.Fetch(ctx, localTarget(local), ResourceTypeLight, "5")
	if err == nil {
		t.Fatal("Fetch() error = nil, want deadline error")
	}

	if got := remoteCalls.Load(); got != 0 {
		t.Errorf("remote calls = %d, want 0 after parent deadline", got)
	}
}

func TestRouter_Preconditions(t *testing.T) {
	router := newTestRouter(t, 50*time.Millisecond, DefaultRemoteBase, nil)

	t.Run("missing address", func(t *testing.T) {
		_, err := router.Fetch(context.Background(), Target{ApplicationKey: "k"}, ResourceTypeLight, "")
		if !errors.Is(err, ErrNoAddress) {
			t.Errorf("Fetch() error = %v, want ErrNoAddress", err)
		}
	})

	t.Run("missing application key", func(t *testing.T) {
		_, err := router.Fetch(context.Background(), Target{IPAddress: "192.168.1.10"}, ResourceTypeLight, "")
		if !errors.Is(err, ErrNoApplicationKey) {
			t.Errorf("Fetch() error = %v, want ErrNoApplicationKey", err)
		}
	})
}

func TestRouter_VerbMapping(t *testing.T) {
	type capture struct {
		method  string
		hasBody bool
	}

	var mu sync.Mutex
	var got capture

	local := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		got = capture{method: r.Method, hasBody: r.ContentLength > 0}
		mu.Unlock()
		fmt.Fprint(w, testEnvelope)
	}))
	defer local.Close()

	router := newTestRouter(t, 500*time.Millisecond, DefaultRemoteBase, nil)
	target := localTarget(local)
	body := map[string]string{"name": "Porch"}

	tests := []struct {
		name     string
		call     func() error
		method   string
		wantBody bool
	}{
		{
			name: "fetch",
			call: func() error {
				_, err := router.Fetch(context.Background(), target, ResourceTypeLight, "5")
				return err
			},
			method: http.MethodGet,
		},
		{
			name: "create",
			call: func() error {
				_, err := router.Create(context.Background(), target, ResourceTypeScene, "", body)
				return err
			},
			method:   http.MethodPost,
			wantBody: true,
		},
		{
			name: "update",
			call: func() error {
				_, err := router.Update(context.Background(), target, ResourceTypeLight, "5", body)
				return err
			},
			method:   http.MethodPut,
			wantBody: true,
		},
		{
			name: "remove",
			call: func() error {
				_, err := router.Remove(context.Background(), target, ResourceTypeScene, "abc")
				return err
			},
			method: http.MethodDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); err != nil {
				t.Fatalf("%s error = %v", tt.name, err)
			}
			mu.Lock()
			defer mu.Unlock()
			if got.method != tt.method {
				t.Errorf("method = %q, want %q", got.method, tt.method)
			}
			if got.hasBody != tt.wantBody {
				t.Errorf("hasBody = %v, want %v", got.hasBody, tt.wantBody)
			}
		})
	}
}

type dispatchRecord struct {
	bridgeIP string
	verb     string
	remote   bool
	failed   bool
}

type telemetryRecorder struct {
	mu      sync.Mutex
	records []dispatchRecord
}

func (tr *telemetryRecorder) RecordDispatch(bridgeIP, verb string, remote bool, _ time.Duration, err error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.records = append(tr.records, dispatchRecord{
		bridgeIP: bridgeIP,
		verb:     verb,
		remote:   remote,
		failed:   err != nil,
	})
}

func (tr *telemetryRecorder) snapshot() []dispatchRecord {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	out := make([]dispatchRecord, len(tr.records))
	copy(out, tr.records)
	return out
}

func TestRouter_TelemetryRecordsBothLegs(t *testing.T) {
	local := httptest.NewTLSServer(slowHandler())
	defer local.Close()

	remote := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, testEnvelope)
	}))
	defer remote.Close()

	recorder := &telemetryRecorder{}
	router := newTestRouter(t, 50*time.Millisecond, remote.URL, recorder)

	target := localTarget(local)
	if _, err := router.Update(context.Background(), target, ResourceTypeLight, "5", map[string]bool{"on": true}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	records := recorder.snapshot()
	if len(records) != 2 {
		t.Fatalf("recorded %d legs, want 2", len(records))
	}

	localLeg, remoteLeg := records[0], records[1]
	if localLeg.remote || !localLeg.failed {
		t.Errorf("first leg = %+v, want failed local attempt", localLeg)
	}
	if !remoteLeg.remote || remoteLeg.failed {
		t.Errorf("second leg = %+v, want successful remote attempt", remoteLeg)
	}
	if localLeg.verb != http.MethodPut || remoteLeg.verb != http.MethodPut {
		t.Errorf("verbs = %q, %q, want PUT on both legs", localLeg.verb, remoteLeg.verb)
	}
	if localLeg.bridgeIP != target.IPAddress {
		t.Errorf("bridgeIP = %q, want %q", localLeg.bridgeIP, target.IPAddress)
	}
}
