package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TokenRepository persists the single active token set.
type TokenRepository interface {
	// Save stores a token set, replacing any previously stored set.
	// The refresh token rotates on every grant, so old rows are dead
	// the moment a new set arrives.
	Save(ctx context.Context, tokens *TokenSet) error

	// Get returns the stored token set, or ErrNoTokens when none is
	// stored.
	Get(ctx context.Context) (*TokenSet, error)

	// Clear removes the stored token set. Clearing an empty store is
	// not an error.
	Clear(ctx context.Context) error
}

// SQLiteTokenRepository implements TokenRepository using SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a token repository backed by the given
// database connection.
func NewTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

// Save stores tokens inside a transaction that first deletes whatever
// set was there before. Replacement is atomic: a reader sees either
// the old set or the new one, never neither.
func (r *SQLiteTokenRepository) Save(ctx context.Context, tokens *TokenSet) error {
	if tokens == nil {
		return fmt.Errorf("token set is required")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return fmt.Errorf("%w: empty credentials", ErrIncompleteTokenResponse)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM remote_tokens`); err != nil {
		return fmt.Errorf("clearing previous token set: %w", err)
	}

	id := tokens.ID
	if id == "" {
		id = "tok-" + uuid.NewString()[:16]
	}
	createdAt := tokens.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO remote_tokens (id, access_token, refresh_token, token_type, expires_in, expiration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		tokens.AccessToken,
		tokens.RefreshToken,
		tokens.TokenType,
		tokens.ExpiresIn,
		tokens.Expiration,
		createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving token set: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing token set: %w", err)
	}

	tokens.ID = id
	tokens.CreatedAt = createdAt
	return nil
}

// Get returns the stored token set.
func (r *SQLiteTokenRepository) Get(ctx context.Context) (*TokenSet, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, access_token, refresh_token, token_type, expires_in, expiration, created_at
		FROM remote_tokens
		ORDER BY created_at DESC
		LIMIT 1`,
	)

	var tokens TokenSet
	var createdAt string
	err := row.Scan(
		&tokens.ID,
		&tokens.AccessToken,
		&tokens.RefreshToken,
		&tokens.TokenType,
		&tokens.ExpiresIn,
		&tokens.Expiration,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoTokens
	}
	if err != nil {
		return nil, fmt.Errorf("loading token set: %w", err)
	}

	tokens.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &tokens, nil
}

// Clear removes any stored token set.
func (r *SQLiteTokenRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM remote_tokens`); err != nil {
		return fmt.Errorf("clearing token set: %w", err)
	}
	return nil
}
