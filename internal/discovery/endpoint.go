package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/huelink/internal/infrastructure/logging"
)

const (
	// DefaultEndpointURL is the vendor's bridge registry. It lists
	// bridges that have phoned home from the caller's public address.
	DefaultEndpointURL = "https://discovery.meethue.com"

	// DefaultEndpointTimeout bounds one registry lookup.
	DefaultEndpointTimeout = 5 * time.Second

	maxEndpointResponseBytes = 1 << 20
)

// EndpointTransport discovers bridges through the cloud registry
// lookup. It reaches the public internet, so it works where multicast
// does not, but only reports bridges that share the caller's WAN
// address.
type EndpointTransport struct {
	url        string
	httpClient *http.Client
	logger     *logging.Logger
}

// EndpointOptions configures an EndpointTransport.
type EndpointOptions struct {
	// URL overrides the registry endpoint. Empty means
	// DefaultEndpointURL.
	URL string

	// Timeout bounds one lookup. Zero means DefaultEndpointTimeout.
	Timeout time.Duration

	// Logger is optional.
	Logger *logging.Logger
}

// NewEndpointTransport creates a cloud registry transport.
func NewEndpointTransport(opts EndpointOptions) *EndpointTransport {
	url := opts.URL
	if url == "" {
		url = DefaultEndpointURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultEndpointTimeout
	}

	return &EndpointTransport{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     opts.Logger,
	}
}

// endpointRecord is one entry in the registry's response array.
type endpointRecord struct {
	ID                string `json:"id"`
	InternalIPAddress string `json:"internalipaddress"`
	Port              int    `json:"port"`
}

// Discover queries the registry and returns every listed bridge.
// The registry rate-limits aggressively; a 429 surfaces as an error
// the scanner absorbs.
func (t *EndpointTransport) Discover(ctx context.Context) ([]DiscoveredBridge, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("discovery: building registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("discovery: registry lookup: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only response body

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("discovery: registry rate limited")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery: registry returned status %d", resp.StatusCode)
	}

	var records []endpointRecord
	decoder := json.NewDecoder(http.MaxBytesReader(nil, resp.Body, maxEndpointResponseBytes))
	if err := decoder.Decode(&records); err != nil {
		return nil, fmt.Errorf("discovery: decoding registry response: %w", err)
	}

	found := make([]DiscoveredBridge, 0, len(records))
	for _, record := range records {
		if record.InternalIPAddress == "" {
			continue
		}
		found = append(found, DiscoveredBridge{
			IPAddress:  record.InternalIPAddress,
			EndpointID: record.ID,
		})
	}

	t.logDebug("registry lookup complete", "found", len(found))
	return found, nil
}

func (t *EndpointTransport) logDebug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
