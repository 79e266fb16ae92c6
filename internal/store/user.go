package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/pavelanni/otms/internal/model"
)

const userColumns = `id, role, first_name, last_name, email, username, phone, password_hash, created_by, created_at`

func scanUser(row rowScanner) (model.User, error) {
	var u model.User
	var createdBy sql.NullInt64
	err := row.Scan(&u.ID, &u.Role, &u.FirstName, &u.LastName, &u.Email, &u.Username,
		&u.Phone, &u.PasswordHash, &createdBy, &u.CreatedAt)
	if createdBy.Valid {
		u.CreatedBy = &createdBy.Int64
	}
	return u, err
}

// CreateUser inserts a new user. A duplicate email or username returns a ConflictError.
func (s *Store) CreateUser(ctx context.Context, u model.User) (int64, error) {
	if u.Username == "" {
		u.Username = u.Email
	}
	id, err := s.insertID(ctx, s.db,
		`INSERT INTO users (role, first_name, last_name, email, username, phone, password_hash, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Role, u.FirstName, u.LastName, u.Email, u.Username, u.Phone, u.PasswordHash, u.CreatedBy, now(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, &model.ConflictError{Reason: "email or username already exists"}
		}
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return 0, err
	}
	slog.Info("created user", "id", id, "username", u.Username, "role", u.Role)
	return id, nil
}

// GetUserByID returns a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return u, model.NotFound(model.EntityUser)
	}
	return u, err
}

// GetUserByUsername returns a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE username = ?`), username))
	if errors.Is(err, sql.ErrNoRows) {
		return u, model.NotFound(model.EntityUser)
	}
	return u, err
}

// UserExists reports whether any user has the given email or username.
func (s *Store) UserExists(ctx context.Context, email, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM users WHERE email = ? OR username = ?`), email, username).Scan(&n)
	return n > 0, err
}

func (s *Store) listUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListStudentsCreatedBy returns the students provisioned by a teacher.
func (s *Store) ListStudentsCreatedBy(ctx context.Context, creatorID int64) ([]model.User, error) {
	return s.listUsers(ctx,
		`SELECT `+userColumns+` FROM users WHERE role = ? AND created_by = ? ORDER BY id`,
		model.UserRoleStudent, creatorID)
}

// ListUsersByIDs returns the users with the given IDs, ordered by ID.
func (s *Store) ListUsersByIDs(ctx context.Context, ids []int64) ([]model.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return s.listUsers(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+strings.Join(placeholders, ", ")+`) ORDER BY id`,
		args...)
}

// ListTeachers returns all teachers with the number of students and tests each created.
func (s *Store) ListTeachers(ctx context.Context) ([]model.TeacherSummary, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT `+prefixed("u", userColumns)+`,
			(SELECT COUNT(*) FROM users c WHERE c.created_by = u.id AND c.role = ?),
			(SELECT COUNT(*) FROM tests t WHERE t.teacher_id = u.id)
		 FROM users u WHERE u.role = ? ORDER BY u.id DESC`),
		model.UserRoleStudent, model.UserRoleTeacher)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var teachers []model.TeacherSummary
	for rows.Next() {
		var ts model.TeacherSummary
		var createdBy sql.NullInt64
		if err := rows.Scan(&ts.ID, &ts.Role, &ts.FirstName, &ts.LastName, &ts.Email, &ts.Username,
			&ts.Phone, &ts.PasswordHash, &createdBy, &ts.CreatedAt, &ts.StudentCount, &ts.TestCount); err != nil {
			return nil, err
		}
		if createdBy.Valid {
			ts.CreatedBy = &createdBy.Int64
		}
		teachers = append(teachers, ts)
	}
	return teachers, rows.Err()
}

// CountDependents returns how many users and tests were created by a user.
func (s *Store) CountDependents(ctx context.Context, userID int64) (users, tests int, err error) {
	err = s.db.QueryRowContext(ctx, s.rebind(
		`SELECT
			(SELECT COUNT(*) FROM users WHERE created_by = ?),
			(SELECT COUNT(*) FROM tests WHERE teacher_id = ?)`), userID, userID).Scan(&users, &tests)
	return users, tests, err
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.NotFound(model.EntityUser)
	}
	slog.Info("deleted user", "id", id)
	return nil
}

// UserCount returns the total number of users.
func (s *Store) UserCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
