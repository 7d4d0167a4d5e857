package bridge

import "time"

// Bridge is one paired Hue bridge. A Bridge exists only after first
// contact completes: its ID comes from the bridge's own self-description
// resource, never from discovery.
type Bridge struct {
	// ID is the bridge's CLIP resource id, authoritative once fetched
	// from the self-description after pairing.
	ID string `json:"id"`

	// BridgeID is the hardware identifier the bridge advertises
	// (also present in its mDNS TXT records).
	BridgeID string `json:"bridge_id,omitempty"`

	// IPAddress is the LAN address used for local dispatch.
	IPAddress string `json:"ip_address"`

	// ApplicationKey is the long-lived credential issued during
	// pairing. Never serialised to API clients.
	ApplicationKey string `json:"-"`

	// ClientKey is the secondary credential for encrypted streaming
	// protocols. May be empty when the bridge did not issue one.
	ClientKey string `json:"-"`

	// TimeZone is the bridge's configured time zone, as reported by
	// its self-description.
	TimeZone string `json:"time_zone,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields every paired bridge must carry.
func (b *Bridge) Validate() error {
	if b.ID == "" {
		return ErrInvalidBridge
	}
	if b.IPAddress == "" {
		return ErrInvalidBridge
	}
	if b.ApplicationKey == "" {
		return ErrInvalidBridge
	}
	return nil
}
