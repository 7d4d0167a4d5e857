// Package database provides SQLite connectivity for the huelink store.
//
// This package manages:
//   - Database connection with WAL mode for concurrent access
//   - Forward-only schema migrations embedded in the binary
//   - Connection lifecycle management
//
// The store holds two kinds of rows: paired bridges (with their
// application and client keys) and the active remote token set.
//
// Security Considerations:
//   - All queries use parameterised statements (no SQL injection)
//   - Database file permissions are set to 0600 (owner read/write only);
//     the file contains credentials that grant control of the bridge
//
// Performance Characteristics:
//   - WAL mode allows concurrent reads during writes
//   - Busy timeout prevents lock contention errors
//
// Usage:
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migration Strategy:
//
// Migrations are additive-only:
//   - New columns must be NULLABLE or have DEFAULT values
//   - Never DROP or RENAME columns
//   - Migration files are named YYYYMMDD_HHMMSS_description.up.sql
package database
