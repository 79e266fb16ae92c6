package exam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/otms/internal/grading"
	"github.com/pavelanni/otms/internal/model"
)

// ListAvailable returns the tests a student can still take: pending, active and
// without recorded answers.
func (s *Service) ListAvailable(ctx context.Context, studentID int64) ([]model.TestView, error) {
	assignments, err := s.store.ListAssignmentsForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	views := []model.TestView{}
	for _, a := range assignments {
		if a.StudentTest.Status != model.StatusPending || !a.Test.IsActive || len(a.StudentTest.Answers) > 0 {
			continue
		}
		questions, err := s.store.ListQuestions(ctx, a.Test.ID)
		if err != nil {
			return nil, fmt.Errorf("list questions of test %d: %w", a.Test.ID, err)
		}
		v := model.NewTestView(a.Test, questions)
		// The listing shows the questions without their type.
		for i := range v.Questions {
			v.Questions[i].QuestionType = ""
		}
		views = append(views, v)
	}
	slog.Debug("available tests", "student_id", studentID, "assigned", len(assignments), "available", len(views))
	return views, nil
}

// StartTest returns the session payload of an active test and records the
// student's start time on the first call.
func (s *Service) StartTest(ctx context.Context, studentID, testID int64) (model.TestView, error) {
	t, err := s.store.GetActiveTest(ctx, testID)
	if err != nil {
		return model.TestView{}, err
	}
	questions, err := s.store.ListQuestions(ctx, t.ID)
	if err != nil {
		return model.TestView{}, fmt.Errorf("list questions: %w", err)
	}
	sess, err := s.store.StartSession(ctx, t.ID, studentID)
	if err != nil {
		return model.TestView{}, err
	}

	v := model.NewTestView(t, questions)
	started := sess.StartedAt
	v.StartedAt = &started
	if deadline, ok := sess.Deadline(t, 0); ok {
		v.Deadline = &deadline
	}
	return v, nil
}

// validateAnswers rejects malformed submissions before anything is read or written.
// An empty list and an empty answer are valid: they score 0.
func validateAnswers(answers model.SubmittedAnswers) error {
	seen := make(map[int64]bool, len(answers))
	for i, a := range answers {
		if a.QuestionID <= 0 {
			return model.Invalid(fmt.Sprintf("answers[%d].question_id", i), "is required")
		}
		if seen[a.QuestionID] {
			return model.Invalid(fmt.Sprintf("answers[%d].question_id", i),
				fmt.Sprintf("question %d answered more than once", a.QuestionID))
		}
		seen[a.QuestionID] = true
	}
	return nil
}

// Submit grades and records a student's answers for an active test. A second
// submission for the same test replaces the first. It returns the student test ID.
func (s *Service) Submit(ctx context.Context, studentID, testID int64, answers model.SubmittedAnswers) (int64, error) {
	if err := validateAnswers(answers); err != nil {
		return 0, err
	}

	t, err := s.store.GetActiveTest(ctx, testID)
	if err != nil {
		return 0, err
	}
	questions, err := s.store.ListQuestions(ctx, t.ID)
	if err != nil {
		return 0, fmt.Errorf("list questions: %w", err)
	}
	inTest := make(map[int64]bool, len(questions))
	for _, q := range questions {
		inTest[q.ID] = true
	}
	for i, a := range answers {
		if !inTest[a.QuestionID] {
			return 0, model.Invalid(fmt.Sprintf("answers[%d].question_id", i),
				fmt.Sprintf("question %d is not part of test %d", a.QuestionID, t.ID))
		}
	}

	if err := s.checkDeadline(ctx, t, studentID); err != nil {
		return 0, err
	}

	normalized := make(model.SubmittedAnswers, len(answers))
	for i, a := range answers {
		normalized[i] = model.SubmittedAnswer{
			QuestionID: a.QuestionID,
			Answer:     model.AnswerSet(grading.Normalize(a.Answer)),
		}
	}
	score, _ := grading.Score(questions, normalized)

	id, err := s.store.UpsertSubmission(ctx, t.ID, studentID, normalized, score)
	if err != nil {
		return 0, err
	}
	slog.Info("test submitted", "test_id", t.ID, "student_id", studentID, "student_test_id", id,
		"score", score, "max", t.Score)
	return id, nil
}

// checkDeadline rejects a submission that arrives after the session's time
// and grace period have run out. Students without a recorded session are let through.
func (s *Service) checkDeadline(ctx context.Context, t model.Test, studentID int64) error {
	sess, err := s.store.GetSession(ctx, t.ID, studentID)
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	deadline, ok := sess.Deadline(t, s.cfg.SubmitGrace)
	if !ok {
		return nil
	}
	if now := s.now(); now.After(deadline) {
		slog.Warn("late submission rejected", "test_id", t.ID, "student_id", studentID,
			"deadline", deadline, "late_by", now.Sub(deadline))
		return fmt.Errorf("%w: deadline was %s", model.ErrDeadlineExceeded, deadline.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return nil
}
