package monitor

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types mirror the change kinds a poll can observe.
const (
	EventAdd    = "add"
	EventUpdate = "update"
	EventDelete = "delete"
)

// Event is one observed resource change on one bridge.
//
// Events go to the bridge's event topic and to WebSocket subscribers.
// Data carries the resource body for add and update; it is omitted for
// delete since the resource is gone.
type Event struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	BridgeID     string          `json:"bridge_id"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id"`
	Data         json.RawMessage `json:"data,omitempty"`
	Timestamp    string          `json:"timestamp"`
}

// newEvent builds an event with a fresh id and timestamp.
func newEvent(eventType, bridgeID, resourceType, resourceID string, data json.RawMessage) Event {
	return Event{
		ID:           "evt-" + uuid.NewString()[:16],
		Type:         eventType,
		BridgeID:     bridgeID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Data:         data,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
}
