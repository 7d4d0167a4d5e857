package influxdb

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// DispatchBucket aggregates dispatch legs sharing a bridge, leg, and
// outcome within the queried window.
type DispatchBucket struct {
	Bridge  string  `json:"bridge"`
	Leg     string  `json:"leg"`
	Outcome string  `json:"outcome"`
	Count   int64   `json:"count"`
	MeanMS  float64 `json:"mean_ms"`
}

// DispatchStats is the aggregated dispatch view for one window.
type DispatchStats struct {
	Window  string           `json:"window"`
	Buckets []DispatchBucket `json:"buckets"`
}

// DispatchStats aggregates dispatch measurements over the trailing
// window, grouped by bridge, leg, and outcome.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - window: Trailing duration to aggregate, must be positive
//
// Returns:
//   - *DispatchStats: Buckets sorted by bridge, leg, outcome
//   - error: ErrNotConnected when the client is absent or closed
func (c *Client) DispatchStats(ctx context.Context, window time.Duration) (*DispatchStats, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive")
	}

	flux := fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == %q and r._field == "duration_ms")
  |> group(columns: ["bridge", "leg", "outcome"])
  |> reduce(
      fn: (r, accumulator) => ({count: accumulator.count + 1, total: accumulator.total + r._value}),
      identity: {count: 0, total: 0.0},
  )`,
		c.cfg.Bucket, window, dispatchMeasurement,
	)

	result, err := c.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("querying dispatch stats: %w", err)
	}
	defer result.Close() //nolint:errcheck // read-side close

	stats := &DispatchStats{
		Window:  window.String(),
		Buckets: []DispatchBucket{},
	}

	for result.Next() {
		record := result.Record()

		bucket := DispatchBucket{}
		bucket.Bridge, _ = record.ValueByKey("bridge").(string)
		bucket.Leg, _ = record.ValueByKey("leg").(string)
		bucket.Outcome, _ = record.ValueByKey("outcome").(string)
		bucket.Count, _ = record.ValueByKey("count").(int64)

		total, _ := record.ValueByKey("total").(float64)
		if bucket.Count > 0 {
			bucket.MeanMS = total / float64(bucket.Count)
		}

		stats.Buckets = append(stats.Buckets, bucket)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("reading dispatch stats: %w", err)
	}

	sort.Slice(stats.Buckets, func(i, j int) bool {
		a, b := stats.Buckets[i], stats.Buckets[j]
		if a.Bridge != b.Bridge {
			return a.Bridge < b.Bridge
		}
		if a.Leg != b.Leg {
			return a.Leg < b.Leg
		}
		return a.Outcome < b.Outcome
	})

	return stats, nil
}
