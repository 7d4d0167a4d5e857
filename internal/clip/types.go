package clip

import (
	"encoding/json"
	"fmt"
)

// ResourceType identifies a CLIP v2 resource category. The dispatch
// layer treats it as an opaque path segment; it never interprets the
// payloads behind it.
type ResourceType string

// Resource types accepted by /clip/v2/resource.
const (
	ResourceTypeDevice             ResourceType = "device"
	ResourceTypeBridge             ResourceType = "bridge"
	ResourceTypeBridgeHome         ResourceType = "bridge_home"
	ResourceTypeLight              ResourceType = "light"
	ResourceTypeScene              ResourceType = "scene"
	ResourceTypeSmartScene         ResourceType = "smart_scene"
	ResourceTypeRoom               ResourceType = "room"
	ResourceTypeZone               ResourceType = "zone"
	ResourceTypeGroupedLight       ResourceType = "grouped_light"
	ResourceTypeMotion             ResourceType = "motion"
	ResourceTypeButton             ResourceType = "button"
	ResourceTypeTemperature        ResourceType = "temperature"
	ResourceTypeLightLevel         ResourceType = "light_level"
	ResourceTypeDevicePower        ResourceType = "device_power"
	ResourceTypeZigbeeConnectivity ResourceType = "zigbee_connectivity"
	ResourceTypeEntertainment      ResourceType = "entertainment"
	ResourceTypeGeofenceClient     ResourceType = "geofence_client"
)

func (rt ResourceType) String() string {
	return string(rt)
}

// ResourceRef points at another resource, as the bridge encodes
// ownership and grouping relations.
type ResourceRef struct {
	ID   string       `json:"rid"`
	Type ResourceType `json:"rtype"`
}

// Response is the CLIP v2 envelope every resource endpoint returns.
// Data stays raw: resource payload interpretation is the caller's
// business, not the dispatch layer's.
type Response struct {
	Errors []APIError      `json:"errors"`
	Data   json.RawMessage `json:"data"`
}

// APIError is a single error entry in a CLIP v2 envelope.
type APIError struct {
	Description string `json:"description"`
}

// DecodeData unmarshals the raw data array into v.
func (r *Response) DecodeData(v any) error {
	if len(r.Data) == 0 {
		return fmt.Errorf("clip: response has no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("clip: decoding data: %w", err)
	}
	return nil
}

// FirstError returns the first error description in the envelope, or
// an empty string when the envelope carries none.
func (r *Response) FirstError() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Description
}

// BridgeInfo is the bridge's self-description resource
// (/clip/v2/resource/bridge). Only the fields huelink records are
// mapped; the rest of the payload is ignored.
type BridgeInfo struct {
	ID       string      `json:"id"`
	IDV1     string      `json:"id_v1"`
	BridgeID string      `json:"bridge_id"`
	Owner    ResourceRef `json:"owner"`
	TimeZone struct {
		TimeZone string `json:"time_zone"`
	} `json:"time_zone"`
}
