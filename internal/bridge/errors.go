package bridge

import "errors"

// Domain errors for the bridge package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, bridge.ErrBridgeNotFound) {
//	    // handle not found case
//	}
var (
	// ErrBridgeNotFound is returned when a bridge ID does not exist.
	ErrBridgeNotFound = errors.New("bridge: not found")

	// ErrInvalidBridge is returned when a bridge is missing its id,
	// IP address, or application key.
	ErrInvalidBridge = errors.New("bridge: invalid")
)
