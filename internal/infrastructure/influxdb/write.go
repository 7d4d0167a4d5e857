package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Dispatch measurement schema. Tags are low-cardinality routing facts;
// the single field is the elapsed time.
const (
	dispatchMeasurement = "dispatch"

	// LegLocal and LegRemote identify which transport served a dispatch.
	LegLocal  = "local"
	LegRemote = "remote"

	// OutcomeOK and OutcomeError identify whether the leg succeeded.
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// RecordDispatch writes one dispatch leg measurement.
//
// The router calls this once per attempted leg: a request that times
// out locally and succeeds remotely produces two points. The write is
// non-blocking; data is batched and sent asynchronously, and a
// disconnected client drops the point rather than stalling dispatch.
//
// Parameters:
//   - bridgeIP: Bridge address the dispatch targeted
//   - verb: HTTP method of the operation
//   - remote: Whether this leg went through the cloud relay
//   - elapsed: Wall time the leg took
//   - err: Leg error, nil on success
func (c *Client) RecordDispatch(bridgeIP, verb string, remote bool, elapsed time.Duration, err error) {
	if !c.IsConnected() {
		return
	}

	leg := LegLocal
	if remote {
		leg = LegRemote
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}

	point := write.NewPoint(
		dispatchMeasurement,
		map[string]string{
			"bridge":  bridgeIP,
			"verb":    verb,
			"leg":     leg,
			"outcome": outcome,
		},
		map[string]interface{}{
			"duration_ms": float64(elapsed) / float64(time.Millisecond),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the dispatch helper.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("monitor",
//	    map[string]string{"bridge": "ecb5fafffe001122"},
//	    map[string]interface{}{"resources_seen": 42})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
