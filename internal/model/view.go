package model

import "time"

// QuestionView is a question as shown during a session. It never carries the answer.
type QuestionView struct {
	ID           int64      `json:"id"`
	Question     string     `json:"question"`
	Options      StringList `json:"options"`
	QuestionType string     `json:"question_type,omitempty"`
	Score        int        `json:"score"`
}

// NewQuestionView projects q without its answer.
func NewQuestionView(q Question) QuestionView {
	return QuestionView{
		ID:           q.ID,
		Question:     q.Question,
		Options:      q.Options,
		QuestionType: q.Type(),
		Score:        q.Score,
	}
}

// TestView is the session payload of a test.
type TestView struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Time        int            `json:"time"`
	TotalScore  int            `json:"total_score"`
	Questions   []QuestionView `json:"questions"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	Deadline    *time.Time     `json:"deadline,omitempty"`
}

// NewTestView builds the session payload for t and its questions.
func NewTestView(t Test, questions []Question) TestView {
	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, NewQuestionView(q))
	}
	return TestView{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Time:        t.Time,
		TotalScore:  t.Score,
		Questions:   views,
		CreatedAt:   t.CreatedAt,
	}
}

// QuestionResult is the graded breakdown of one question.
type QuestionResult struct {
	QuestionID    int64      `json:"question_id"`
	Question      string     `json:"question"`
	Options       StringList `json:"options"`
	CorrectAnswer []string   `json:"correct_answer"`
	StudentAnswer []string   `json:"student_answer"`
	IsCorrect     bool       `json:"is_correct"`
	Score         int        `json:"score"`
	EarnedScore   int        `json:"earned_score"`
}

// TestResult is the detailed graded result of a submission.
type TestResult struct {
	TestID          int64            `json:"test_id"`
	TestName        string           `json:"test_name"`
	TestDescription string           `json:"test_description"`
	TestTotalScore  int              `json:"test_total_score"`
	TestDuration    int              `json:"test_duration"`
	StudentID       int64            `json:"student_id"`
	StudentName     string           `json:"student_name"`
	StudentEmail    string           `json:"student_email"`
	TotalScore      int              `json:"total_score"`
	Percentage      int              `json:"percentage"`
	SubmittedAt     time.Time        `json:"submitted_at"`
	Questions       []QuestionResult `json:"questions"`
}
