package store

import (
	"context"
	"time"
)

// RevokeToken marks a token id as revoked until it expires.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES (?, ?)
		 ON CONFLICT (jti) DO NOTHING`),
		jti, expiresAt.UTC())
	return err
}

// IsTokenRevoked reports whether a token id has been revoked.
func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM revoked_tokens WHERE jti = ?`), jti).Scan(&n)
	return n > 0, err
}

// CleanupRevokedTokens removes revocations whose tokens have expired anyway.
func (s *Store) CleanupRevokedTokens(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM revoked_tokens WHERE expires_at < ?`), now())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
