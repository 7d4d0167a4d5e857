package mqtt

import "fmt"

// DefaultTopicRoot is the topic namespace when none is configured.
const DefaultTopicRoot = "huelink"

// Topics provides builders for huelink MQTT topics. Using these
// helpers keeps topic naming consistent across the codebase.
//
// The hierarchy is:
//
//	{root}/availability                                      retained, LWT
//	{root}/{bridge_id}/{resource_type}/{resource_id}/state   retained
//	{root}/{bridge_id}/events                                not retained
//
// Bridge ids are the hardware ids reported by the bridges themselves,
// so topics stay stable across re-pairing and IP changes.
type Topics struct {
	// Root overrides the topic namespace. Empty means DefaultTopicRoot.
	Root string
}

// root returns the effective topic namespace.
func (t Topics) root() string {
	if t.Root == "" {
		return DefaultTopicRoot
	}
	return t.Root
}

// Availability returns the service availability topic. The broker
// retains the last message, and the LWT posts "offline" here when the
// service dies without a graceful shutdown.
//
// Example: huelink/availability
func (t Topics) Availability() string {
	return t.root() + "/availability"
}

// ResourceState returns the retained state mirror topic for one
// resource on one bridge.
//
// Example: huelink/ecb5fafffe001122/light/1a2b3c/state
func (t Topics) ResourceState(bridgeID, resourceType, resourceID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/state", t.root(), bridgeID, resourceType, resourceID)
}

// Events returns the event stream topic for one bridge. Events are
// not retained; subscribers only care about what is happening now.
//
// Example: huelink/ecb5fafffe001122/events
func (t Topics) Events(bridgeID string) string {
	return fmt.Sprintf("%s/%s/events", t.root(), bridgeID)
}
