package pairing

import "errors"

// Domain errors for the pairing package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, pairing.ErrTimeout) {
//	    // ask the user to press the link button and retry
//	}
var (
	// ErrTimeout is returned when the tick budget elapses without the
	// link button being pressed.
	ErrTimeout = errors.New("pairing: timed out waiting for link button")

	// ErrCancelled is returned when the attempt's controller consumed
	// a cancellation request.
	ErrCancelled = errors.New("pairing: cancelled")

	// ErrNotIdentified is returned when the bridge issued credentials
	// but its self-description could not be fetched or carried no id.
	// The pairing is treated as failed, not partial.
	ErrNotIdentified = errors.New("pairing: bridge did not identify itself")
)
