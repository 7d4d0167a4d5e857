package clip

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/huelink/internal/infrastructure/logging"
)

// maxResponseBytes bounds how much of a response body is read. Bridge
// payloads are small; anything larger is not a bridge talking.
const maxResponseBytes = 4 << 20

// Client performs single HTTP verb calls against bridge and cloud
// endpoints. It owns header injection (application key, bearer token),
// JSON encoding, and status classification; it never retries.
//
// Thread Safety:
//   - Safe for concurrent use from multiple goroutines.
type Client struct {
	httpClient *http.Client
	logger     *logging.Logger
}

// ClientOptions configures a Client.
type ClientOptions struct {
	// TLSVerify enables certificate verification. Bridges present
	// self-signed certificates, so local traffic needs this off; the
	// trust anchor is the application key, not the certificate chain.
	TLSVerify bool

	// Timeout bounds a whole request when the caller's context carries
	// no tighter deadline. Zero means no client-level timeout.
	Timeout time.Duration

	// Logger is optional; nil disables client logging.
	Logger *logging.Logger
}

// Headers are the credentials attached to a call. Zero values mean the
// corresponding header is omitted.
type Headers struct {
	ApplicationKey string
	BearerToken    string
}

// NewClient creates a transport client.
func NewClient(opts ClientOptions) *Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !opts.TLSVerify, //nolint:gosec // Bridges ship self-signed certificates
		},
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		logger: opts.Logger,
	}
}

// Do performs a verb call against a CLIP endpoint and decodes the
// standard envelope.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - method: HTTP verb (GET, POST, PUT, DELETE)
//   - url: Fully built endpoint URL
//   - hdr: Credentials to attach
//   - body: Optional request body, JSON-encoded when non-nil
//
// Returns:
//   - *Response: Decoded envelope on success
//   - error: Transport failure, ErrUnauthorised, or ErrRequestFailed
func (c *Client) Do(ctx context.Context, method, url string, hdr Headers, body any) (*Response, error) {
	out := &Response{}
	if err := c.DoJSON(ctx, method, url, hdr, body, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DoJSON performs a verb call and decodes the response body into out.
// Used directly by callers whose endpoints do not speak the CLIP
// envelope (pairing, discovery registry).
//
// A nil out discards the response body.
func (c *Client) DoJSON(ctx context.Context, method, url string, hdr Headers, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("clip: encoding request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("clip: building request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if hdr.ApplicationKey != "" {
		req.Header.Set("hue-application-key", hdr.ApplicationKey)
	}
	if hdr.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+hdr.BearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("clip: executing request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort on read path

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("clip: reading response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		c.logDebug("request not authorised", "url", url, "status", resp.StatusCode)
		return fmt.Errorf("%w: status %d", ErrUnauthorised, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		desc := envelopeDescription(payload)
		if desc != "" {
			return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, desc)
		}
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("clip: decoding response: %w", err)
	}

	return nil
}

// envelopeDescription extracts the first error description from a CLIP
// envelope body, best effort.
func envelopeDescription(payload []byte) string {
	var envelope Response
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return ""
	}
	return envelope.FirstError()
}

// IsTimeout reports whether err represents a request that ran out of
// time, as opposed to any other transport failure. The router uses
// this to decide whether the remote fallback applies.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func (c *Client) logDebug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
