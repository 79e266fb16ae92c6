package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/otms/internal/model"
)

const studentTestColumns = `id, test_id, user_id, status, answers, score, created_at, submitted_at`

func scanStudentTest(row rowScanner, extra ...any) (model.StudentTest, error) {
	var st model.StudentTest
	var submittedAt sql.NullTime
	dest := append([]any{&st.ID, &st.TestID, &st.UserID, &st.Status, &st.Answers, &st.Score,
		&st.CreatedAt, &submittedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return st, err
	}
	if submittedAt.Valid {
		t := submittedAt.Time
		st.SubmittedAt = &t
	}
	return st, nil
}

// AssignTest creates a pending student test for each user in one transaction.
// Pairs that already have a row are left untouched; the existing row is returned.
func (s *Store) AssignTest(ctx context.Context, testID int64, userIDs []int64) ([]model.StudentTest, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	created := now()
	for _, uid := range userIDs {
		_, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO student_tests (test_id, user_id, status, score, created_at)
			 VALUES (?, ?, ?, 0, ?)
			 ON CONFLICT (test_id, user_id) DO NOTHING`),
			testID, uid, model.StatusPending, created)
		if err != nil {
			return nil, fmt.Errorf("assign test %d to user %d: %w", testID, uid, err)
		}
	}

	out := make([]model.StudentTest, 0, len(userIDs))
	for _, uid := range userIDs {
		st, err := scanStudentTest(tx.QueryRowContext(ctx, s.rebind(
			`SELECT `+studentTestColumns+` FROM student_tests WHERE test_id = ? AND user_id = ?`), testID, uid))
		if err != nil {
			return nil, fmt.Errorf("read assignment of test %d for user %d: %w", testID, uid, err)
		}
		out = append(out, st)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	slog.Info("assigned test", "test_id", testID, "students", len(userIDs))
	return out, nil
}

// UpsertSubmission records a graded submission for (testID, userID) in a single
// statement. An existing row is overwritten; otherwise a new one is created.
func (s *Store) UpsertSubmission(ctx context.Context, testID, userID int64, answers model.SubmittedAnswers, score int) (int64, error) {
	ts := now()
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO student_tests (test_id, user_id, status, answers, score, created_at, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (test_id, user_id) DO UPDATE SET
			status = excluded.status,
			answers = excluded.answers,
			score = excluded.score,
			submitted_at = excluded.submitted_at
		 RETURNING id`),
		testID, userID, model.StatusSubmitted, answers, score, ts, ts,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert submission: %w", err)
	}
	return id, nil
}

// GetStudentTest returns the row for (testID, userID).
func (s *Store) GetStudentTest(ctx context.Context, testID, userID int64) (model.StudentTest, error) {
	st, err := scanStudentTest(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+studentTestColumns+` FROM student_tests WHERE test_id = ? AND user_id = ?`), testID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return st, model.NotFound(model.EntityResult)
	}
	return st, err
}

// ListAssignmentsForStudent returns every student test of a user joined with its test, newest first.
func (s *Store) ListAssignmentsForStudent(ctx context.Context, userID int64) ([]model.Assignment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+prefixed("st", studentTestColumns)+`, `+prefixed("t", testColumns)+`
		 FROM student_tests st
		 JOIN tests t ON t.id = st.test_id
		 WHERE st.user_id = ?
		 ORDER BY st.id DESC`), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Assignment
	for rows.Next() {
		var a model.Assignment
		t := &a.Test
		st, err := scanStudentTest(rows, &t.ID, &t.Name, &t.Description, &t.Time, &t.Score,
			&t.TeacherID, &t.IsActive, &t.CreatedAt)
		if err != nil {
			return nil, err
		}
		a.StudentTest = st
		out = append(out, a)
	}
	return out, rows.Err()
}
