// Package discovery locates Hue bridges on the local network.
//
// Two independent transports feed one merger. Multicast DNS answers
// arrive only on networks that carry multicast; the cloud registry
// lists only bridges that recently phoned home from the caller's
// public address. Either alone misses bridges the other finds, so the
// scanner always runs both and merges by IP address.
//
// # Architecture
//
//	┌─────────────────┐     ┌──────────────────────┐
//	│  MDNSTransport  │     │  EndpointTransport   │
//	│  (_hue._tcp)    │     │  (cloud registry)    │
//	└────────┬────────┘     └──────────┬───────────┘
//	         │   concurrent browse     │
//	         ▼                         ▼
//	       ┌─────────────────────────────┐
//	       │           Scanner           │
//	       │  • merge keyed by IP        │
//	       │  • drop known bridges       │
//	       └─────────────────────────────┘
//
// # Usage
//
//	scanner := discovery.NewScanner(discovery.ScannerOptions{
//	    MDNS:     discovery.NewMDNSTransport(discovery.MDNSOptions{}),
//	    Endpoint: discovery.NewEndpointTransport(discovery.EndpointOptions{}),
//	    Logger:   log,
//	})
//
//	known, _ := repo.List(ctx)
//	found := scanner.Discover(ctx, known)
//
// A transport failure never fails the scan; the failing transport just
// contributes nothing that run. Results are ephemeral and unordered
// beyond discovery order.
package discovery
