package model

import (
	"context"
	"strings"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleStudent takes tests assigned by a teacher.
	UserRoleStudent UserRole = "student"
	// UserRoleTeacher creates tests and students.
	UserRoleTeacher UserRole = "teacher"
	// UserRoleAdmin provisions teachers and other admins.
	UserRoleAdmin UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleStudent, UserRoleTeacher, UserRoleAdmin:
		return true
	}
	return false
}

// User represents a system user.
type User struct {
	ID           int64     `json:"id"`
	Role         UserRole  `json:"role"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	CreatedBy    *int64    `json:"created_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName returns "first last", falling back to the username and then the email.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Identity is the verified (user, role) pair carried by an access token.
type Identity struct {
	UserID int64
	Role   UserRole
	// TokenID is the jti of the token the identity was read from.
	TokenID   string
	ExpiresAt time.Time
}

type identityCtxKey struct{}

// ContextWithIdentity stores the caller's identity in the request context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext retrieves the caller's identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// StudentTestStatus is the lifecycle state of an assignment row.
type StudentTestStatus string

const (
	StatusPending   StudentTestStatus = "pending"
	StatusSubmitted StudentTestStatus = "submitted"
)

// Test is a timed multiple-choice test owned by the teacher who created it.
type Test struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Time        int       `json:"time"` // seconds, 0 means untimed
	Score       int       `json:"score"`
	TeacherID   int64     `json:"teacher_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Duration returns the session length, or zero for untimed tests.
func (t Test) Duration() time.Duration {
	return time.Duration(t.Time) * time.Second
}

// Question is a single multiple-choice question of a test.
type Question struct {
	ID       int64      `json:"id"`
	TestID   int64      `json:"test_id"`
	Question string     `json:"question"`
	Options  StringList `json:"options"`
	Answer   AnswerSet  `json:"answer"`
	Score    int        `json:"score"`
}

// Type returns "multiple" when more than one option is correct, "single" otherwise.
func (q Question) Type() string {
	if len(q.Answer) > 1 {
		return "multiple"
	}
	return "single"
}

// StudentTest is the assignment and submission record of one student for one test.
type StudentTest struct {
	ID          int64             `json:"id"`
	TestID      int64             `json:"test_id"`
	UserID      int64             `json:"user_id"`
	Status      StudentTestStatus `json:"status"`
	Answers     SubmittedAnswers  `json:"answers"`
	Score       int               `json:"score"`
	CreatedAt   time.Time         `json:"created_at"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
}

// Assignment pairs a StudentTest with its Test.
type Assignment struct {
	StudentTest StudentTest
	Test        Test
}

// TestSession records when a student first opened a test.
type TestSession struct {
	TestID    int64     `json:"test_id"`
	UserID    int64     `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

// Deadline returns the instant after which a submission is late, and false for untimed tests.
func (s TestSession) Deadline(t Test, grace time.Duration) (time.Time, bool) {
	if t.Time <= 0 {
		return time.Time{}, false
	}
	return s.StartedAt.Add(t.Duration() + grace), true
}

// TeacherSummary is a teacher with counts of what they created.
type TeacherSummary struct {
	User
	StudentCount int `json:"student_count"`
	TestCount    int `json:"test_count"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	DefaultPassword string        // initial password for provisioned users
	SubmitGrace     time.Duration // added to a test's time before submissions are rejected
	Lang            string        // fallback UI language (en, ru)
}
