package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/nerrad567/huelink/internal/infrastructure/logging"
)

const (
	// DefaultService is the mDNS service Hue bridges advertise.
	DefaultService = "_hue._tcp"
	// DefaultDomain is the mDNS domain.
	DefaultDomain = "local."
	// DefaultMDNSTimeout bounds one multicast scan window.
	DefaultMDNSTimeout = 3 * time.Second
)

type browseFunc func(ctx context.Context, service, domain string, entries chan<- *zeroconf.ServiceEntry) error

// MDNSTransport discovers bridges via multicast service discovery.
// Bridges on the same LAN answer a `_hue._tcp` browse with their
// address and a TXT record carrying the hardware bridge id.
type MDNSTransport struct {
	service string
	domain  string
	timeout time.Duration
	browse  browseFunc
	logger  *logging.Logger
}

// MDNSOptions configures an MDNSTransport.
type MDNSOptions struct {
	// Service overrides the browsed service. Empty means DefaultService.
	Service string

	// Domain overrides the browse domain. Empty means DefaultDomain.
	Domain string

	// Timeout bounds one scan window. Zero means DefaultMDNSTimeout.
	Timeout time.Duration

	// Logger is optional.
	Logger *logging.Logger

	// browseFn replaces the zeroconf resolver in tests.
	browseFn browseFunc
}

// NewMDNSTransport creates a multicast discovery transport.
func NewMDNSTransport(opts MDNSOptions) *MDNSTransport {
	service := opts.Service
	if service == "" {
		service = DefaultService
	}
	domain := opts.Domain
	if domain == "" {
		domain = DefaultDomain
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultMDNSTimeout
	}

	return &MDNSTransport{
		service: service,
		domain:  domain,
		timeout: timeout,
		browse:  opts.browseFn,
		logger:  opts.Logger,
	}
}

// Discover browses the local network for one scan window and returns
// every bridge that answered. An environment without multicast support
// surfaces as an error; the scanner treats that as an empty result.
func (t *MDNSTransport) Discover(ctx context.Context) ([]DiscoveredBridge, error) {
	browse := t.browse
	if browse == nil {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("discovery: creating mdns resolver: %w", err)
		}
		browse = resolver.Browse
	}

	scanCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 32)
	collectorDone := make(chan struct{})
	var found []DiscoveredBridge

	go func() {
		defer close(collectorDone)
		for {
			select {
			case <-scanCtx.Done():
				return
			case entry := <-entries:
				if entry == nil {
					continue
				}
				b, ok := parseServiceEntry(entry)
				if !ok {
					continue
				}
				found = append(found, b)
			}
		}
	}()

	if err := browse(scanCtx, t.service, t.domain, entries); err != nil {
		cancel()
		<-collectorDone
		return nil, fmt.Errorf("discovery: mdns browse: %w", err)
	}

	// The scan window ending naturally is the normal completion path.
	<-scanCtx.Done()
	<-collectorDone

	t.logDebug("mdns scan complete", "found", len(found))
	return found, nil
}

// parseServiceEntry extracts a bridge record from one mDNS answer.
// Entries without a resolvable address are skipped.
func parseServiceEntry(entry *zeroconf.ServiceEntry) (DiscoveredBridge, bool) {
	var ip string
	for _, addr := range entry.AddrIPv4 {
		if addr != nil {
			ip = addr.String()
			break
		}
	}
	if ip == "" {
		for _, addr := range entry.AddrIPv6 {
			if addr != nil {
				ip = addr.String()
				break
			}
		}
	}
	if ip == "" {
		return DiscoveredBridge{}, false
	}

	id := txtValue(entry.Text, "bridgeid")
	if id == "" {
		id = strings.TrimSpace(entry.Instance)
	}

	return DiscoveredBridge{
		IPAddress: ip,
		MDNSID:    id,
	}, true
}

// txtValue finds a key=value TXT record and returns its value.
func txtValue(text []string, key string) string {
	prefix := key + "="
	for _, record := range text {
		if strings.HasPrefix(record, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(record, prefix))
		}
	}
	return ""
}

func (t *MDNSTransport) logDebug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
