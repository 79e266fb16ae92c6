package exam

import (
	"context"
	"errors"
	"fmt"

	"github.com/pavelanni/otms/internal/grading"
	"github.com/pavelanni/otms/internal/model"
)

// Result returns the graded breakdown of a student's submission.
func (s *Service) Result(ctx context.Context, testID, studentID int64) (model.TestResult, error) {
	st, err := s.store.GetStudentTest(ctx, testID, studentID)
	if err != nil {
		return model.TestResult{}, err
	}
	if st.Status != model.StatusSubmitted {
		return model.TestResult{}, model.NotFound(model.EntityResult)
	}

	t, err := s.store.GetTest(ctx, testID)
	if err != nil {
		return model.TestResult{}, err
	}
	questions, err := s.store.ListQuestions(ctx, testID)
	if err != nil {
		return model.TestResult{}, fmt.Errorf("list questions: %w", err)
	}
	student, err := s.store.GetUserByID(ctx, studentID)
	if err != nil {
		return model.TestResult{}, err
	}

	results := make([]model.QuestionResult, 0, len(questions))
	for _, q := range questions {
		submitted := grading.Normalize(st.Answers.Lookup(q.ID))
		o := grading.ScoreQuestion(q, submitted)
		results = append(results, model.QuestionResult{
			QuestionID:    q.ID,
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: grading.Normalize(q.Answer),
			StudentAnswer: submitted,
			IsCorrect:     o.Correct,
			Score:         o.Max,
			EarnedScore:   o.Earned,
		})
	}

	submittedAt := st.CreatedAt
	if st.SubmittedAt != nil {
		submittedAt = *st.SubmittedAt
	}
	return model.TestResult{
		TestID:          t.ID,
		TestName:        t.Name,
		TestDescription: t.Description,
		TestTotalScore:  t.Score,
		TestDuration:    t.Time,
		StudentID:       student.ID,
		StudentName:     student.DisplayName(),
		StudentEmail:    student.Email,
		TotalScore:      st.Score,
		Percentage:      grading.Percentage(st.Score, t.Score),
		SubmittedAt:     submittedAt,
		Questions:       results,
	}, nil
}

// TeacherResult returns a student's result for a test owned by teacherID.
func (s *Service) TeacherResult(ctx context.Context, teacherID, testID, studentID int64) (model.TestResult, error) {
	if _, err := s.ownedTest(ctx, teacherID, testID, false); err != nil {
		return model.TestResult{}, err
	}
	r, err := s.Result(ctx, testID, studentID)
	if errors.Is(err, model.ErrNotFound) {
		return r, model.NotFound(model.EntityResult)
	}
	return r, err
}
