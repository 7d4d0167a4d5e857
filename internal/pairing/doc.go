// Package pairing implements first contact with a Hue bridge.
//
// Pairing exchanges a physical button press for a long-lived
// application key. The bridge refuses registration until someone
// presses its link button, so the coordinator polls once per second,
// treating every failure the same way: keep waiting. A user who has
// not pressed the button yet and a bridge that is briefly unreachable
// look identical until the attempt's tick budget runs out.
//
// # Flow
//
//	Polling ──▶ Succeeded (credentials + self-description)
//	   │
//	   ├─────▶ Cancelled  (controller consumed a cancel request)
//	   └─────▶ TimedOut   (tick budget exhausted)
//
// After the bridge issues credentials the coordinator immediately
// fetches its self-description resource to learn the authoritative
// bridge id. A bridge that hands out a key but cannot identify itself
// is reported as a failed pairing, never a partial one.
//
// # Usage
//
//	coord, err := pairing.NewCoordinator(pairing.Options{
//	    Transport: client,
//	    Logger:    log,
//	})
//	if err != nil {
//	    return err
//	}
//
//	ctrl := pairing.NewController(30)
//	paired, err := coord.FirstContact(ctx, "192.168.1.10", ctrl)
//	if errors.Is(err, pairing.ErrTimeout) {
//	    // ask the user to press the link button and retry
//	}
//
// # Security Considerations
//
// The application key returned here authorises every future operation
// against the bridge. It must go straight to the bridge store and must
// never be logged.
package pairing
