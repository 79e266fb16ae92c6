package exam

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pavelanni/otms/internal/grading"
	"github.com/pavelanni/otms/internal/model"
)

// validateTest checks a test definition and returns its questions ready to
// store. Answers are deduplicated; the total score is the sum of question scores.
func validateTest(in model.TestImport) (model.Test, []model.Question, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Test{}, nil, model.Invalid("name", "is required")
	}
	if in.Time < 0 {
		return model.Test{}, nil, model.Invalid("time", "must not be negative")
	}
	if len(in.Questions) == 0 {
		return model.Test{}, nil, model.Invalid("questions", "at least one question is required")
	}

	questions := make([]model.Question, 0, len(in.Questions))
	total := 0
	for i, qi := range in.Questions {
		field := fmt.Sprintf("questions[%d]", i)
		text := strings.TrimSpace(qi.Question)
		if text == "" {
			return model.Test{}, nil, model.Invalid(field+".question", "is required")
		}
		if len(qi.Options) == 0 {
			return model.Test{}, nil, model.Invalid(field+".options", "at least one option is required")
		}
		seen := make(map[string]bool, len(qi.Options))
		for _, o := range qi.Options {
			if o == "" {
				return model.Test{}, nil, model.Invalid(field+".options", "options must not be empty")
			}
			if seen[o] {
				return model.Test{}, nil, model.Invalid(field+".options", fmt.Sprintf("duplicate option %q", o))
			}
			seen[o] = true
		}
		answer := grading.Normalize(qi.Answer)
		if len(answer) == 0 {
			return model.Test{}, nil, model.Invalid(field+".answer", "at least one correct option is required")
		}
		for _, a := range answer {
			if !seen[a] {
				return model.Test{}, nil, model.Invalid(field+".answer", fmt.Sprintf("%q is not one of the options", a))
			}
		}
		if qi.Score <= 0 {
			return model.Test{}, nil, model.Invalid(field+".score", "must be positive")
		}
		total += qi.Score
		questions = append(questions, model.Question{
			Question: text,
			Options:  model.StringList(qi.Options),
			Answer:   model.AnswerSet(answer),
			Score:    qi.Score,
		})
	}

	return model.Test{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Time:        in.Time,
		Score:       total,
		IsActive:    true,
	}, questions, nil
}

// CreateTest validates and stores a test owned by teacherID.
func (s *Service) CreateTest(ctx context.Context, teacherID int64, in model.TestImport) (int64, error) {
	t, questions, err := validateTest(in)
	if err != nil {
		return 0, err
	}
	t.TeacherID = teacherID
	return s.store.CreateTest(ctx, t, questions)
}

// ListTests returns the tests created by a teacher.
func (s *Service) ListTests(ctx context.Context, teacherID int64) ([]model.Test, error) {
	tests, err := s.store.ListTestsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if tests == nil {
		tests = []model.Test{}
	}
	return tests, nil
}

// GetTestView returns an active test with its questions, answers omitted.
func (s *Service) GetTestView(ctx context.Context, testID int64) (model.TestView, error) {
	t, err := s.store.GetActiveTest(ctx, testID)
	if err != nil {
		return model.TestView{}, err
	}
	questions, err := s.store.ListQuestions(ctx, t.ID)
	if err != nil {
		return model.TestView{}, fmt.Errorf("list questions: %w", err)
	}
	return model.NewTestView(t, questions), nil
}

// SetActive toggles whether students can see and submit a test.
func (s *Service) SetActive(ctx context.Context, teacherID, testID int64, active bool) error {
	if _, err := s.ownedTest(ctx, teacherID, testID, false); err != nil {
		return err
	}
	if err := s.store.SetTestActive(ctx, testID, active); err != nil {
		return err
	}
	slog.Info("test visibility changed", "test_id", testID, "active", active)
	return nil
}
