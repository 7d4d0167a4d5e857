package pairing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/clip"
	"github.com/nerrad567/huelink/internal/infrastructure/logging"
)

// linkButtonNotPressed is the exact error description the bridge
// returns on every poll until its physical button is pressed.
const linkButtonNotPressed = "link button not pressed"

// DefaultInterval is the pacing between polls. The bridge treats
// faster polling as abuse.
const DefaultInterval = time.Second

// Transport performs the HTTP calls for one pairing attempt.
// *clip.Client satisfies it.
type Transport interface {
	Do(ctx context.Context, method, url string, hdr clip.Headers, body any) (*clip.Response, error)
	DoJSON(ctx context.Context, method, url string, hdr clip.Headers, body, out any) error
}

// Coordinator drives the first-contact handshake: poll the bridge's
// pairing endpoint once per tick until it issues credentials, then
// fetch its self-description to learn its authoritative id.
//
// Thread Safety:
//   - Safe for concurrent use; each FirstContact call owns its state.
//     The per-attempt Controller is the only shared mutable piece.
type Coordinator struct {
	transport  Transport
	interval   time.Duration
	deviceType string
	logger     *logging.Logger
}

// Options configures a Coordinator.
type Options struct {
	// Transport performs the HTTP calls. Required.
	Transport Transport

	// Interval paces the polling loop. Zero means DefaultInterval.
	Interval time.Duration

	// DeviceType is sent in the pairing request. Empty means
	// DefaultDeviceType().
	DeviceType string

	// Logger is optional.
	Logger *logging.Logger
}

// NewCoordinator creates a pairing coordinator.
func NewCoordinator(opts Options) (*Coordinator, error) {
	if opts.Transport == nil {
		return nil, fmt.Errorf("pairing: coordinator requires a transport")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	deviceType := opts.DeviceType
	if deviceType == "" {
		deviceType = DefaultDeviceType()
	}

	return &Coordinator{
		transport:  opts.Transport,
		interval:   interval,
		deviceType: deviceType,
		logger:     opts.Logger,
	}, nil
}

// pairRequest is the registration body POSTed to /api.
type pairRequest struct {
	DeviceType        string `json:"devicetype"`
	GenerateClientKey bool   `json:"generateclientkey"`
}

// pairReplyEntry is one element of the array the pairing endpoint
// returns. Exactly one of Success or Error is set on a well-formed
// reply.
type pairReplyEntry struct {
	Success *pairSuccess `json:"success,omitempty"`
	Error   *pairError   `json:"error,omitempty"`
}

type pairSuccess struct {
	Username  string `json:"username"`
	ClientKey string `json:"clientkey"`
}

type pairError struct {
	Type        int    `json:"type"`
	Description string `json:"description"`
}

type replyStatus int

const (
	replyPending replyStatus = iota
	replySucceeded
	replyUnrecognised
)

// FirstContact pairs with the bridge at ip.
//
// The loop polls exactly ctrl.TimeoutSeconds() times, one poll per
// interval tick. Every per-tick failure (unreachable bridge, malformed
// reply, explicit "link button not pressed") means keep waiting; the
// loop ends with credentials, a consumed cancellation, or ErrTimeout.
//
// Parameters:
//   - ctx: Aborts the attempt between polls and bounds each request
//   - ip: The bridge's LAN address
//   - ctrl: Per-attempt budget and cancellation handle. Required.
//
// Returns:
//   - *bridge.Bridge: Fully identified bridge with fresh credentials
//   - error: ErrCancelled, ErrTimeout, ErrNotIdentified, or a context
//     error
func (c *Coordinator) FirstContact(ctx context.Context, ip string, ctrl *Controller) (*bridge.Bridge, error) {
	if ip == "" {
		return nil, fmt.Errorf("pairing: bridge ip required")
	}
	if ctrl == nil {
		return nil, fmt.Errorf("pairing: controller required")
	}

	url := clip.PairingURL(ip)
	body := pairRequest{
		DeviceType:        c.deviceType,
		GenerateClientKey: true,
	}
	total := ctrl.TimeoutSeconds()

	c.logDebug("starting pairing", "bridge_ip", ip, "ticks", total)

	for tick := 1; tick <= total; tick++ {
		if ctrl.consumeCancel() {
			c.logDebug("pairing cancelled", "bridge_ip", ip, "tick", tick)
			return nil, ErrCancelled
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var reply []pairReplyEntry
		err := c.transport.DoJSON(ctx, http.MethodPost, url, clip.Headers{}, body, &reply)
		if err != nil {
			// Bridge unreachable or reply unparseable this tick:
			// indistinguishable from an unpressed button, keep waiting.
			c.logDebug("pairing poll failed", "bridge_ip", ip, "tick", tick, "error", err)
		} else {
			appKey, clientKey, status := classifyReply(reply)
			switch status {
			case replySucceeded:
				c.logDebug("pairing succeeded", "bridge_ip", ip, "tick", tick)
				return c.identify(ctx, ip, appKey, clientKey)
			case replyUnrecognised:
				c.logDebug("unrecognised pairing reply", "bridge_ip", ip, "tick", tick)
			case replyPending:
			}
		}

		if tick < total {
			select {
			case <-time.After(c.interval):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	c.logDebug("pairing timed out", "bridge_ip", ip, "ticks", total)
	return nil, ErrTimeout
}

// classifyReply inspects one poll's reply array. A success entry with
// a username wins; an explicit "link button not pressed" is pending;
// anything else is treated as transient.
func classifyReply(reply []pairReplyEntry) (appKey, clientKey string, status replyStatus) {
	for _, entry := range reply {
		if entry.Success != nil && entry.Success.Username != "" {
			return entry.Success.Username, entry.Success.ClientKey, replySucceeded
		}
		if entry.Error != nil && entry.Error.Description == linkButtonNotPressed {
			return "", "", replyPending
		}
	}
	return "", "", replyUnrecognised
}

// identify fetches the bridge's self-description with the fresh
// application key. This call is always local; no bearer token exists
// yet for a bridge being paired.
func (c *Coordinator) identify(ctx context.Context, ip, appKey, clientKey string) (*bridge.Bridge, error) {
	url := clip.TargetURL(ip, clip.ResourceTypeBridge, "", false)
	resp, err := c.transport.Do(ctx, http.MethodGet, url, clip.Headers{ApplicationKey: appKey}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching self-description: %v", ErrNotIdentified, err)
	}

	var infos []clip.BridgeInfo
	if err := resp.DecodeData(&infos); err != nil {
		return nil, fmt.Errorf("%w: decoding self-description: %v", ErrNotIdentified, err)
	}
	if len(infos) == 0 || infos[0].ID == "" {
		return nil, ErrNotIdentified
	}

	info := infos[0]
	b := &bridge.Bridge{
		ID:             info.ID,
		BridgeID:       info.BridgeID,
		IPAddress:      ip,
		ApplicationKey: appKey,
		ClientKey:      clientKey,
		TimeZone:       info.TimeZone.TimeZone,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (c *Coordinator) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
