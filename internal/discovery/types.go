package discovery

// DiscoveredBridge is one bridge a discovery run located. Identity for
// deduplication is IPAddress; the two raw identifiers are supplementary
// metadata merged when both transports report the same address.
//
// DiscoveredBridge is ephemeral. It is produced per scan and never
// persisted; pairing is what turns a discovery into a stored Bridge.
type DiscoveredBridge struct {
	// IPAddress is the bridge's LAN address.
	IPAddress string `json:"ip_address"`

	// MDNSID is the identifier carried in the bridge's mDNS TXT
	// records, when the multicast transport saw it.
	MDNSID string `json:"mdns_id,omitempty"`

	// EndpointID is the identifier the cloud registry reported, when
	// the endpoint transport saw it.
	EndpointID string `json:"endpoint_id,omitempty"`
}
