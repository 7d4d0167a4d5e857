package monitor

import (
	"encoding/json"
	"reflect"
)

// resourceEnvelope is the minimal shape every CLIP resource shares.
type resourceEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// cachedResource is one resource as last observed.
type cachedResource struct {
	resourceType string
	raw          json.RawMessage
	decoded      any
}

// bridgeState is the observed resource set for one bridge.
type bridgeState struct {
	// seeded is false until the first successful poll. The seeding
	// poll populates retained state topics without emitting events,
	// so a restart does not replay the whole house as changes.
	seeded    bool
	resources map[string]cachedResource
}

// change is one detected difference between polls.
type change struct {
	eventType    string
	resourceType string
	resourceID   string
	raw          json.RawMessage
}

// diff applies a freshly polled resource list to the bridge state and
// returns the changes. Resources are compared by decoded value, not
// raw bytes, so key ordering differences do not count as changes.
func (s *bridgeState) diff(items []json.RawMessage) []change {
	if s.resources == nil {
		s.resources = make(map[string]cachedResource)
	}

	seen := make(map[string]bool, len(items))
	var changes []change

	for _, raw := range items {
		var envelope resourceEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			continue
		}
		if envelope.ID == "" || envelope.Type == "" {
			continue
		}
		seen[envelope.ID] = true

		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			continue
		}

		previous, exists := s.resources[envelope.ID]
		if exists && reflect.DeepEqual(previous.decoded, decoded) {
			continue
		}

		s.resources[envelope.ID] = cachedResource{
			resourceType: envelope.Type,
			raw:          raw,
			decoded:      decoded,
		}

		eventType := EventUpdate
		if !exists {
			eventType = EventAdd
		}
		changes = append(changes, change{
			eventType:    eventType,
			resourceType: envelope.Type,
			resourceID:   envelope.ID,
			raw:          raw,
		})
	}

	for id, cached := range s.resources {
		if seen[id] {
			continue
		}
		delete(s.resources, id)
		changes = append(changes, change{
			eventType:    EventDelete,
			resourceType: cached.resourceType,
			resourceID:   id,
		})
	}

	return changes
}
