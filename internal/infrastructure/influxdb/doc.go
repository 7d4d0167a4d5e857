// Package influxdb provides dispatch telemetry storage for huelink.
//
// It wraps the official influxdb-client-go v2 library with huelink's
// patterns for connection management, measurement writing, and health
// monitoring.
//
// # Purpose
//
// Every dispatched bridge request is recorded as a point in the
// "dispatch" measurement, tagged with bridge, verb, leg (local or
// remote), and outcome. The same client serves the aggregation query
// behind GET /api/v1/metrics/dispatch, so operators can see how often
// local dispatch times out and falls back to the cloud relay.
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "huelink",
//	    Bucket: "huelink",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Record a dispatch leg (the router does this automatically)
//	client.RecordDispatch("192.168.1.10", "PUT", false, 84*time.Millisecond, nil)
//
//	// Aggregate the last hour
//	stats, err := client.DispatchStats(ctx, time.Hour)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are delivered via
// a callback. Connection and query errors are returned directly. When
// telemetry is disabled in config, Connect returns ErrDisabled and the
// rest of the system runs without it.
package influxdb
