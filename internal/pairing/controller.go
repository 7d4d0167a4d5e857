package pairing

import "sync"

// Timeout bounds for one pairing attempt. The bridge keeps its link
// button window open for about 30 seconds, so polling longer buys
// nothing.
const (
	MinTimeoutSeconds     = 0
	MaxTimeoutSeconds     = 30
	DefaultTimeoutSeconds = 30
)

// Controller bounds and cancels one pairing attempt. Create one per
// attempt and hand it to FirstContact; a controller must not drive two
// attempts at once.
//
// Thread Safety:
//   - Cancel and CancelRequested may be called from any goroutine
//     while FirstContact runs.
type Controller struct {
	timeoutSeconds int

	mu              sync.Mutex
	cancelRequested bool
}

// NewController creates a controller polling for timeoutSeconds ticks.
// Values outside [MinTimeoutSeconds, MaxTimeoutSeconds] are clamped.
func NewController(timeoutSeconds int) *Controller {
	if timeoutSeconds < MinTimeoutSeconds {
		timeoutSeconds = MinTimeoutSeconds
	}
	if timeoutSeconds > MaxTimeoutSeconds {
		timeoutSeconds = MaxTimeoutSeconds
	}
	return &Controller{timeoutSeconds: timeoutSeconds}
}

// TimeoutSeconds returns the clamped tick budget for this attempt.
func (c *Controller) TimeoutSeconds() int {
	return c.timeoutSeconds
}

// Cancel requests cooperative cancellation. The attempt observes it at
// the next tick boundary; an in-flight request is never interrupted.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelRequested = true
}

// CancelRequested reports whether a cancellation is pending.
func (c *Controller) CancelRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelRequested
}

// consumeCancel returns the pending cancellation and resets it, so a
// stale request cannot leak into a later attempt reusing the
// controller.
func (c *Controller) consumeCancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	requested := c.cancelRequested
	c.cancelRequested = false
	return requested
}
