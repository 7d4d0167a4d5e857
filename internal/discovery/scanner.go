package discovery

import (
	"context"
	"sync"

	"github.com/nerrad567/huelink/internal/bridge"
	"github.com/nerrad567/huelink/internal/infrastructure/logging"
)

// Transport is one way of locating bridges. Both implementations are
// unreliable on their own: multicast needs LAN access, the registry
// needs the bridge to have phoned home recently. The scanner merges
// them.
type Transport interface {
	Discover(ctx context.Context) ([]DiscoveredBridge, error)
}

// Scanner runs the discovery transports and merges their results into
// one deduplicated set.
//
// Thread Safety:
//   - Safe for concurrent use; each Discover call owns its own state.
type Scanner struct {
	mdns     Transport
	endpoint Transport
	logger   *logging.Logger
}

// ScannerOptions configures a Scanner. A nil transport is skipped
// entirely, which is how environments without multicast support are
// handled: capability gating, not an error.
type ScannerOptions struct {
	MDNS     Transport
	Endpoint Transport
	Logger   *logging.Logger
}

// NewScanner creates a discovery scanner.
func NewScanner(opts ScannerOptions) *Scanner {
	return &Scanner{
		mdns:     opts.MDNS,
		endpoint: opts.Endpoint,
		logger:   opts.Logger,
	}
}

// Discover runs both transports concurrently, merges their results by
// IP address, and drops bridges already present in known. A failing
// transport contributes an empty result; Discover itself never fails.
//
// Known bridges without an IP address never match anything, so they
// cannot hide a discovery.
func (s *Scanner) Discover(ctx context.Context, known []bridge.Bridge) []DiscoveredBridge {
	var wg sync.WaitGroup
	var mdnsFound, endpointFound []DiscoveredBridge

	if s.mdns != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, err := s.mdns.Discover(ctx)
			if err != nil {
				s.logDebug("mdns transport failed", "error", err)
				return
			}
			mdnsFound = found
		}()
	}

	if s.endpoint != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			found, err := s.endpoint.Discover(ctx)
			if err != nil {
				s.logDebug("endpoint transport failed", "error", err)
				return
			}
			endpointFound = found
		}()
	}

	wg.Wait()

	merged := merge(mdnsFound, endpointFound)
	filtered := filterKnown(merged, known)

	s.logDebug("discovery complete",
		"mdns", len(mdnsFound),
		"endpoint", len(endpointFound),
		"merged", len(merged),
		"returned", len(filtered),
	)
	return filtered
}

// merge combines both transports' results into one set keyed by IP
// address. When both transports saw the same address, the entry keeps
// both raw identifiers. Multicast records come first; unmatched
// endpoint records follow in discovery order.
func merge(mdnsFound, endpointFound []DiscoveredBridge) []DiscoveredBridge {
	index := make(map[string]int, len(mdnsFound)+len(endpointFound))
	merged := make([]DiscoveredBridge, 0, len(mdnsFound)+len(endpointFound))

	add := func(b DiscoveredBridge) {
		if b.IPAddress == "" {
			return
		}
		if i, ok := index[b.IPAddress]; ok {
			if merged[i].MDNSID == "" {
				merged[i].MDNSID = b.MDNSID
			}
			if merged[i].EndpointID == "" {
				merged[i].EndpointID = b.EndpointID
			}
			return
		}
		index[b.IPAddress] = len(merged)
		merged = append(merged, b)
	}

	for _, b := range mdnsFound {
		add(b)
	}
	for _, b := range endpointFound {
		add(b)
	}
	return merged
}

// filterKnown drops every discovery whose IP address belongs to an
// already-paired bridge.
func filterKnown(found []DiscoveredBridge, known []bridge.Bridge) []DiscoveredBridge {
	knownIPs := make(map[string]struct{}, len(known))
	for _, b := range known {
		if b.IPAddress != "" {
			knownIPs[b.IPAddress] = struct{}{}
		}
	}
	if len(knownIPs) == 0 {
		return found
	}

	filtered := make([]DiscoveredBridge, 0, len(found))
	for _, b := range found {
		if _, ok := knownIPs[b.IPAddress]; ok {
			continue
		}
		filtered = append(filtered, b)
	}
	return filtered
}

func (s *Scanner) logDebug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
