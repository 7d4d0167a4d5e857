package bridge

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for bridge persistence operations.
// This abstraction allows for different implementations (SQLite, mock)
// and enables unit testing without database dependencies.
type Repository interface {
	// Save inserts or updates a bridge. Re-pairing the same bridge
	// replaces its stored credentials rather than creating a second row.
	Save(ctx context.Context, b *Bridge) error

	// GetByID retrieves a bridge by its resource id.
	// Returns ErrBridgeNotFound if the bridge does not exist.
	GetByID(ctx context.Context, id string) (*Bridge, error)

	// GetByIP retrieves a bridge by its LAN address.
	// Returns ErrBridgeNotFound if no bridge has that address.
	GetByIP(ctx context.Context, ip string) (*Bridge, error)

	// List retrieves all paired bridges.
	List(ctx context.Context) ([]Bridge, error)

	// Delete removes a bridge by ID.
	// Returns ErrBridgeNotFound if the bridge does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save inserts or updates a bridge keyed by its resource id.
func (r *SQLiteRepository) Save(ctx context.Context, b *Bridge) error {
	if err := b.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now

	query := `
		INSERT INTO bridges (
			id, bridge_id, ip_address, application_key, client_key,
			time_zone, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			bridge_id = excluded.bridge_id,
			ip_address = excluded.ip_address,
			application_key = excluded.application_key,
			client_key = excluded.client_key,
			time_zone = excluded.time_zone,
			updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.BridgeID,
		b.IPAddress,
		b.ApplicationKey,
		b.ClientKey,
		b.TimeZone,
		b.CreatedAt.Format(time.RFC3339),
		b.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving bridge: %w", err)
	}

	return nil
}

// GetByID retrieves a bridge by its resource id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Bridge, error) {
	query := `
		SELECT id, bridge_id, ip_address, application_key, client_key,
			time_zone, created_at, updated_at
		FROM bridges
		WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	b, err := scanBridge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBridgeNotFound
		}
		return nil, fmt.Errorf("querying bridge by id: %w", err)
	}
	return b, nil
}

// GetByIP retrieves a bridge by its LAN address.
func (r *SQLiteRepository) GetByIP(ctx context.Context, ip string) (*Bridge, error) {
	query := `
		SELECT id, bridge_id, ip_address, application_key, client_key,
			time_zone, created_at, updated_at
		FROM bridges
		WHERE ip_address = ?`

	row := r.db.QueryRowContext(ctx, query, ip)
	b, err := scanBridge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBridgeNotFound
		}
		return nil, fmt.Errorf("querying bridge by ip: %w", err)
	}
	return b, nil
}

// List retrieves all paired bridges, oldest pairing first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Bridge, error) {
	query := `
		SELECT id, bridge_id, ip_address, application_key, client_key,
			time_zone, created_at, updated_at
		FROM bridges
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying bridges: %w", err)
	}
	defer rows.Close()

	var bridges []Bridge
	for rows.Next() {
		b, err := scanBridge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning bridge: %w", err)
		}
		bridges = append(bridges, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bridges: %w", err)
	}

	return bridges, nil
}

// Delete removes a bridge by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM bridges WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting bridge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrBridgeNotFound
	}

	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanBridge scans a row or rows result into a Bridge.
func scanBridge(scanner rowScanner) (*Bridge, error) {
	var b Bridge
	var createdAt, updatedAt string

	err := scanner.Scan(
		&b.ID,
		&b.BridgeID,
		&b.IPAddress,
		&b.ApplicationKey,
		&b.ClientKey,
		&b.TimeZone,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	var parseErr error
	b.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	b.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &b, nil
}
