package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pavelanni/otms/internal/model"
)

// ListScoreRecords returns submitted student tests joined with their test and
// student, ordered by test creation then submission row creation, newest first.
func (s *Store) ListScoreRecords(ctx context.Context, f model.ScoreFilter) ([]model.ScoreRecord, error) {
	where := []string{"st.status = ?"}
	args := []any{model.StatusSubmitted}
	if f.TeacherID != 0 {
		where = append(where, "t.teacher_id = ?")
		args = append(args, f.TeacherID)
	}
	if f.StudentID != 0 {
		where = append(where, "st.user_id = ?")
		args = append(args, f.StudentID)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+prefixed("st", studentTestColumns)+`, `+prefixed("t", testColumns)+`, `+prefixed("u", userColumns)+`
		 FROM student_tests st
		 JOIN tests t ON t.id = st.test_id
		 JOIN users u ON u.id = st.user_id
		 WHERE `+strings.Join(where, " AND ")+`
		 ORDER BY t.created_at DESC, st.created_at DESC, st.id DESC`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ScoreRecord
	for rows.Next() {
		var r model.ScoreRecord
		t, u := &r.Test, &r.Student
		var createdBy sql.NullInt64
		st, err := scanStudentTest(rows,
			&t.ID, &t.Name, &t.Description, &t.Time, &t.Score, &t.TeacherID, &t.IsActive, &t.CreatedAt,
			&u.ID, &u.Role, &u.FirstName, &u.LastName, &u.Email, &u.Username, &u.Phone, &u.PasswordHash,
			&createdBy, &u.CreatedAt)
		if err != nil {
			return nil, err
		}
		if createdBy.Valid {
			u.CreatedBy = &createdBy.Int64
		}
		r.StudentTest = st
		out = append(out, r)
	}
	return out, rows.Err()
}
