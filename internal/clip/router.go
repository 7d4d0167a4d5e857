package clip

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/huelink/internal/infrastructure/logging"
)

// DefaultLocalTimeout bounds the local attempt before the router fails
// over to the remote relay. A bridge on the same LAN answers well
// inside this; anything slower is presumed off-network.
const DefaultLocalTimeout = time.Second

// Target carries the addressing and credentials for one bridge.
type Target struct {
	// IPAddress is the bridge's LAN address.
	IPAddress string

	// ApplicationKey authenticates both local and remote calls.
	ApplicationKey string

	// BearerToken authenticates the remote relay. Empty disables the
	// remote fallback: a local timeout is then surfaced as-is.
	BearerToken string
}

// Telemetry receives one record per dispatch leg. Implementations must
// not block; the router calls this on the request path.
type Telemetry interface {
	RecordDispatch(bridgeIP, verb string, remote bool, elapsed time.Duration, err error)
}

// Router issues resource operations local-first with a remote fallback.
//
// Policy: every operation goes to the bridge's LAN address with a short
// timeout. Only a timeout triggers the remote relay; any other local
// failure propagates. Local and remote attempts are strictly
// sequential so mutating verbs never double-execute.
//
// Thread Safety:
//   - Safe for concurrent use; the router holds no per-operation state.
type Router struct {
	client       *Client
	localTimeout time.Duration
	remoteBase   string
	telemetry    Telemetry
	logger       *logging.Logger
}

// RouterOptions configures a Router.
type RouterOptions struct {
	// Client performs the HTTP calls. Required.
	Client *Client

	// LocalTimeout bounds the local attempt. Zero means
	// DefaultLocalTimeout.
	LocalTimeout time.Duration

	// RemoteBase is the cloud origin for relayed requests. Empty means
	// DefaultRemoteBase.
	RemoteBase string

	// Telemetry is optional; nil disables dispatch recording.
	Telemetry Telemetry

	// Logger is optional; nil disables router logging.
	Logger *logging.Logger
}

// NewRouter creates a dispatch router.
func NewRouter(opts RouterOptions) (*Router, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("clip: router requires a client")
	}

	timeout := opts.LocalTimeout
	if timeout <= 0 {
		timeout = DefaultLocalTimeout
	}

	base := opts.RemoteBase
	if base == "" {
		base = DefaultRemoteBase
	}

	return &Router{
		client:       opts.Client,
		localTimeout: timeout,
		remoteBase:   base,
		telemetry:    opts.Telemetry,
		logger:       opts.Logger,
	}, nil
}

// Fetch retrieves resources (GET).
func (r *Router) Fetch(ctx context.Context, target Target, rtype ResourceType, path string) (*Response, error) {
	return r.dispatch(ctx, http.MethodGet, target, rtype, path, nil)
}

// Create adds a resource (POST).
func (r *Router) Create(ctx context.Context, target Target, rtype ResourceType, path string, body any) (*Response, error) {
	return r.dispatch(ctx, http.MethodPost, target, rtype, path, body)
}

// Update modifies a resource (PUT).
func (r *Router) Update(ctx context.Context, target Target, rtype ResourceType, path string, body any) (*Response, error) {
	return r.dispatch(ctx, http.MethodPut, target, rtype, path, body)
}

// Remove deletes a resource (DELETE).
func (r *Router) Remove(ctx context.Context, target Target, rtype ResourceType, path string) (*Response, error) {
	return r.dispatch(ctx, http.MethodDelete, target, rtype, path, nil)
}

// dispatch runs the local-first, remote-fallback policy for one
// operation.
func (r *Router) dispatch(ctx context.Context, method string, target Target, rtype ResourceType, path string, body any) (*Response, error) {
	if target.IPAddress == "" {
		return nil, ErrNoAddress
	}
	if target.ApplicationKey == "" {
		return nil, ErrNoApplicationKey
	}

	localURL := buildResourceURL(r.remoteBase, target.IPAddress, rtype, path, false)

	localCtx, cancel := context.WithTimeout(ctx, r.localTimeout)
	start := time.Now()
	resp, err := r.client.Do(localCtx, method, localURL, Headers{ApplicationKey: target.ApplicationKey}, body)
	cancel()
	r.record(target.IPAddress, method, false, time.Since(start), err)

	if err == nil {
		return resp, nil
	}

	// Only a timed-out local attempt justifies the relay. A dead parent
	// context means the caller gave up, not that the bridge is remote.
	if !IsTimeout(err) || ctx.Err() != nil {
		return nil, err
	}

	if target.BearerToken == "" {
		return nil, fmt.Errorf("%w: no bearer token for remote fallback", ErrLocalTimeout)
	}

	r.logDebug("local attempt timed out, dispatching via relay",
		"bridge_ip", target.IPAddress,
		"method", method,
		"resource_type", rtype.String(),
	)

	remoteURL := buildResourceURL(r.remoteBase, target.IPAddress, rtype, path, true)

	start = time.Now()
	resp, err = r.client.Do(ctx, method, remoteURL, Headers{
		ApplicationKey: target.ApplicationKey,
		BearerToken:    target.BearerToken,
	}, body)
	r.record(target.IPAddress, method, true, time.Since(start), err)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *Router) record(bridgeIP, verb string, remote bool, elapsed time.Duration, err error) {
	if r.telemetry != nil {
		r.telemetry.RecordDispatch(bridgeIP, verb, remote, elapsed, err)
	}
}

func (r *Router) logDebug(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
