// Package exam implements the test catalog, assignment, timed test sessions,
// grading of submissions and score reporting.
package exam

import (
	"context"
	"time"

	"github.com/pavelanni/otms/internal/model"
)

// Store is the persistence the exam service needs.
type Store interface {
	GetUserByID(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	ListUsersByIDs(ctx context.Context, ids []int64) ([]model.User, error)

	CreateTest(ctx context.Context, t model.Test, questions []model.Question) (int64, error)
	GetTest(ctx context.Context, id int64) (model.Test, error)
	GetActiveTest(ctx context.Context, id int64) (model.Test, error)
	ListTestsByTeacher(ctx context.Context, teacherID int64) ([]model.Test, error)
	ListQuestions(ctx context.Context, testID int64) ([]model.Question, error)
	SetTestActive(ctx context.Context, id int64, active bool) error

	AssignTest(ctx context.Context, testID int64, userIDs []int64) ([]model.StudentTest, error)
	UpsertSubmission(ctx context.Context, testID, userID int64, answers model.SubmittedAnswers, score int) (int64, error)
	GetStudentTest(ctx context.Context, testID, userID int64) (model.StudentTest, error)
	ListAssignmentsForStudent(ctx context.Context, userID int64) ([]model.Assignment, error)

	StartSession(ctx context.Context, testID, userID int64) (model.TestSession, error)
	GetSession(ctx context.Context, testID, userID int64) (model.TestSession, error)

	ListScoreRecords(ctx context.Context, f model.ScoreFilter) ([]model.ScoreRecord, error)

	GetImportedFileHash(ctx context.Context, path string) (string, error)
	SetImportedFileHash(ctx context.Context, path, hash string) error
}

// Service runs the test lifecycle from creation to graded result.
type Service struct {
	store Store
	cfg   model.ServerConfig
	now   func() time.Time
}

// New returns an exam Service.
func New(store Store, cfg model.ServerConfig) *Service {
	return &Service{store: store, cfg: cfg, now: time.Now}
}

// ownedTest loads a test and checks that teacherID created it.
func (s *Service) ownedTest(ctx context.Context, teacherID, testID int64, activeOnly bool) (model.Test, error) {
	var (
		t   model.Test
		err error
	)
	if activeOnly {
		t, err = s.store.GetActiveTest(ctx, testID)
	} else {
		t, err = s.store.GetTest(ctx, testID)
	}
	if err != nil {
		return t, err
	}
	if t.TeacherID != teacherID {
		return t, model.ErrForbidden
	}
	return t, nil
}
