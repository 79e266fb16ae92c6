// Package account provisions users and authenticates them.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/otms/internal/auth"
	"github.com/pavelanni/otms/internal/model"
)

// Store is the persistence the account service needs.
type Store interface {
	CreateUser(ctx context.Context, u model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	UserExists(ctx context.Context, email, username string) (bool, error)
	ListStudentsCreatedBy(ctx context.Context, creatorID int64) ([]model.User, error)
	ListTeachers(ctx context.Context) ([]model.TeacherSummary, error)
	CountDependents(ctx context.Context, userID int64) (users, tests int, err error)
	DeleteUser(ctx context.Context, id int64) error
	UserCount(ctx context.Context) (int, error)
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
}

// Service implements user provisioning and login.
type Service struct {
	store  Store
	tokens *auth.Issuer
	cfg    model.ServerConfig
}

// New returns an account Service.
func New(store Store, tokens *auth.Issuer, cfg model.ServerConfig) *Service {
	return &Service{store: store, tokens: tokens, cfg: cfg}
}

// NewUser is the input to CreateUser.
type NewUser struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Role      model.UserRole
}

// CreateUser provisions a user on behalf of caller. Admins create teachers and
// admins; teachers create students. The new user's username is its email and
// its password is the configured default.
func (s *Service) CreateUser(ctx context.Context, caller model.Identity, in NewUser) (model.User, error) {
	switch caller.Role {
	case model.UserRoleAdmin:
		if in.Role == "" {
			in.Role = model.UserRoleTeacher
		}
		if in.Role != model.UserRoleTeacher && in.Role != model.UserRoleAdmin {
			return model.User{}, model.Invalid("role", "must be teacher or admin")
		}
	case model.UserRoleTeacher:
		in.Role = model.UserRoleStudent
	default:
		return model.User{}, model.ErrForbidden
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return model.User{}, model.Invalid("email", "is required")
	}

	exists, err := s.store.UserExists(ctx, email, email)
	if err != nil {
		return model.User{}, fmt.Errorf("check user: %w", err)
	}
	if exists {
		return model.User{}, &model.ConflictError{Reason: "user with this email already exists"}
	}

	hash, err := auth.HashPassword(s.cfg.DefaultPassword)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	creator := caller.UserID
	u := model.User{
		Role:         in.Role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Username:     email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: hash,
		CreatedBy:    &creator,
	}
	id, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return model.User{}, err
	}
	return s.store.GetUserByID(ctx, id)
}

// Login checks credentials and returns a signed token.
func (s *Service) Login(ctx context.Context, username, password string) (string, model.User, error) {
	u, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, model.ErrNotFound) {
		slog.Warn("login failed: unknown user", "username", username)
		return "", model.User{}, model.ErrUnauthorized
	}
	if err != nil {
		return "", model.User{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		slog.Warn("login failed: wrong password", "username", username)
		return "", model.User{}, model.ErrUnauthorized
	}
	token, _, err := s.tokens.Issue(u)
	if err != nil {
		return "", model.User{}, err
	}
	slog.Info("user logged in", "user_id", u.ID, "role", u.Role)
	return token, u, nil
}

// Logout revokes the caller's token until it expires.
func (s *Service) Logout(ctx context.Context, caller model.Identity) error {
	return s.store.RevokeToken(ctx, caller.TokenID, caller.ExpiresAt)
}

// Profile returns the caller's user record.
func (s *Service) Profile(ctx context.Context, caller model.Identity) (model.User, error) {
	return s.store.GetUserByID(ctx, caller.UserID)
}

// ListStudents returns the students created by a teacher.
func (s *Service) ListStudents(ctx context.Context, teacherID int64) ([]model.User, error) {
	return s.store.ListStudentsCreatedBy(ctx, teacherID)
}

// ListTeachers returns every teacher with student and test counts.
func (s *Service) ListTeachers(ctx context.Context) ([]model.TeacherSummary, error) {
	return s.store.ListTeachers(ctx)
}

// DeleteTeacher removes a teacher that has not created any users or tests.
func (s *Service) DeleteTeacher(ctx context.Context, teacherID int64) error {
	u, err := s.store.GetUserByID(ctx, teacherID)
	if errors.Is(err, model.ErrNotFound) || (err == nil && u.Role != model.UserRoleTeacher) {
		return model.NotFound(model.EntityTeacher)
	}
	if err != nil {
		return err
	}
	users, tests, err := s.store.CountDependents(ctx, teacherID)
	if err != nil {
		return fmt.Errorf("count dependents: %w", err)
	}
	if users > 0 || tests > 0 {
		return model.Invalid("teacher_id",
			fmt.Sprintf("teacher has created %d users and %d tests", users, tests))
	}
	return s.store.DeleteUser(ctx, teacherID)
}

// SeedAdmin creates the "admin" user when the database has no users.
// It reports whether a user was created.
func (s *Service) SeedAdmin(ctx context.Context, password string) (bool, error) {
	count, err := s.store.UserCount(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if password == "" {
		return false, errors.New("admin password is required: set --admin-password flag or OTMS_ADMIN_PASSWORD env var")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	_, err = s.store.CreateUser(ctx, model.User{
		Role:         model.UserRoleAdmin,
		FirstName:    "Administrator",
		Email:        "admin",
		Username:     "admin",
		PasswordHash: hash,
	})
	if err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}
	slog.Info("seeded default admin user", "username", "admin")
	return true, nil
}
