package store

import (
	"context"
	"database/sql"
	"errors"
)

// GetImportedFileHash returns the stored SHA-256 hex digest for path.
// Returns an empty string when the file was never imported.
func (s *Store) GetImportedFileHash(ctx context.Context, path string) (string, error) {
	var hash string
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT sha256 FROM imported_files WHERE path = ?`), path).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash upserts the digest of an imported file.
func (s *Store) SetImportedFileHash(ctx context.Context, path, hash string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO imported_files (path, sha256, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT (path) DO UPDATE SET sha256 = excluded.sha256, imported_at = excluded.imported_at`),
		path, hash, now())
	return err
}
