// Package bridge provides the paired-bridge store for huelink.
//
// A Bridge row records everything huelink needs to talk to one Hue
// bridge after first contact: its resource id, LAN address, and the
// credentials the pairing handshake produced. Discovery results never
// enter this store; only a completed pairing does.
//
// # Key Types
//
//   - Bridge: One paired bridge with its addressing and credentials
//   - Repository: Persistence interface, implemented by SQLiteRepository
//
// # Usage
//
//	repo := bridge.NewSQLiteRepository(db)
//
//	// After a successful pairing
//	if err := repo.Save(ctx, paired); err != nil {
//	    return err
//	}
//
//	// Feed the save-aware discovery filter
//	known, _ := repo.List(ctx)
//
// # Security Considerations
//
// Application keys and client keys live in this store. They are never
// included in JSON serialisations of Bridge; API handlers can return
// the type directly without leaking credentials. Log statements must
// not print them either.
package bridge
