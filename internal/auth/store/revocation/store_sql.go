package revocation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Expiry is stored as unix seconds so the same statements run on postgres and sqlite.
const schema = `CREATE TABLE IF NOT EXISTS session_revocations (
	jti        TEXT PRIMARY KEY,
	expires_at BIGINT NOT NULL
)`

// SQLTRL persists revoked JTIs next to the registrations table.
type SQLTRL struct {
	db    *sql.DB
	clock Clock
}

type SQLTRLOption func(*SQLTRL)

// WithSQLClock sets the clock function for testability.
func WithSQLClock(clock Clock) SQLTRLOption {
	return func(t *SQLTRL) {
		if clock != nil {
			t.clock = clock
		}
	}
}

func NewSQLTRL(db *sql.DB, opts ...SQLTRLOption) *SQLTRL {
	t := &SQLTRL{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// EnsureSchema creates the revocation table if it does not exist.
func (t *SQLTRL) EnsureSchema(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create session_revocations: %w", err)
	}
	return nil
}

func (t *SQLTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	now := t.clock()
	if _, err := t.db.ExecContext(ctx, `DELETE FROM session_revocations WHERE expires_at < $1`, now.Unix()); err != nil {
		return fmt.Errorf("prune session revocations: %w", err)
	}
	query := `
		INSERT INTO session_revocations (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET
			expires_at = EXCLUDED.expires_at
	`
	if _, err := t.db.ExecContext(ctx, query, jti, now.Add(ttl).Unix()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (t *SQLTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var expiresAt int64
	err := t.db.QueryRowContext(ctx, `SELECT expires_at FROM session_revocations WHERE jti = $1`, jti).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	return t.clock().Unix() <= expiresAt, nil
}
