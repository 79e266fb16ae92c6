package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/otms/internal/model"
)

const testColumns = `id, name, description, time_limit, score, teacher_id, is_active, created_at`

func scanTest(row rowScanner) (model.Test, error) {
	var t model.Test
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Time, &t.Score, &t.TeacherID, &t.IsActive, &t.CreatedAt)
	return t, err
}

// CreateTest stores a test and its questions in one transaction and returns the test ID.
func (s *Store) CreateTest(ctx context.Context, t model.Test, questions []model.Question) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	testID, err := s.insertID(ctx, tx,
		`INSERT INTO tests (name, description, time_limit, score, teacher_id, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Description, t.Time, t.Score, t.TeacherID, t.IsActive, now(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert test: %w", err)
	}

	for i, q := range questions {
		_, err := s.insertID(ctx, tx,
			`INSERT INTO test_questions (test_id, question, options, answer, score) VALUES (?, ?, ?, ?, ?)`,
			testID, q.Question, q.Options, q.Answer, q.Score,
		)
		if err != nil {
			return 0, fmt.Errorf("insert question %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Info("created test", "id", testID, "teacher_id", t.TeacherID, "questions", len(questions), "score", t.Score)
	return testID, nil
}

// GetTest returns a test by ID regardless of its active flag.
func (s *Store) GetTest(ctx context.Context, id int64) (model.Test, error) {
	t, err := scanTest(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+testColumns+` FROM tests WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, model.NotFound(model.EntityTest)
	}
	return t, err
}

// GetActiveTest returns a test by ID only if it is active.
func (s *Store) GetActiveTest(ctx context.Context, id int64) (model.Test, error) {
	t, err := scanTest(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+testColumns+` FROM tests WHERE id = ? AND is_active = ?`), id, true))
	if errors.Is(err, sql.ErrNoRows) {
		return t, model.NotFound(model.EntityTest)
	}
	return t, err
}

// ListTestsByTeacher returns the tests created by a teacher, newest first.
func (s *Store) ListTestsByTeacher(ctx context.Context, teacherID int64) ([]model.Test, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+testColumns+` FROM tests WHERE teacher_id = ? ORDER BY id DESC`), teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tests []model.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, err
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

// ListQuestions returns the questions of a test in creation order.
func (s *Store) ListQuestions(ctx context.Context, testID int64) ([]model.Question, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, test_id, question, options, answer, score FROM test_questions WHERE test_id = ? ORDER BY id`), testID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.TestID, &q.Question, &q.Options, &q.Answer, &q.Score); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SetTestActive updates the active flag of a test.
func (s *Store) SetTestActive(ctx context.Context, id int64, active bool) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE tests SET is_active = ? WHERE id = ?`), active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NotFound(model.EntityTest)
	}
	return nil
}
