package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pavelanni/otms/internal/model"
)

// StartSession records when a student first opened a test and returns the stored
// session. Later calls keep the original start time.
func (s *Store) StartSession(ctx context.Context, testID, userID int64) (model.TestSession, error) {
	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO test_sessions (test_id, user_id, started_at) VALUES (?, ?, ?)
		 ON CONFLICT (test_id, user_id) DO NOTHING`),
		testID, userID, now())
	if err != nil {
		return model.TestSession{}, fmt.Errorf("start session: %w", err)
	}
	return s.GetSession(ctx, testID, userID)
}

// GetSession returns the session for (testID, userID).
func (s *Store) GetSession(ctx context.Context, testID, userID int64) (model.TestSession, error) {
	var ts model.TestSession
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT test_id, user_id, started_at FROM test_sessions WHERE test_id = ? AND user_id = ?`),
		testID, userID).Scan(&ts.TestID, &ts.UserID, &ts.StartedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ts, model.NotFound(model.EntitySession)
	}
	return ts, err
}
