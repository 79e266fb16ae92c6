package model

import "time"

// ScoreRecord is one submitted StudentTest joined with its test and student.
type ScoreRecord struct {
	StudentTest StudentTest
	Test        Test
	Student     User
}

// ScoreFilter narrows a score listing. Zero fields are ignored.
type ScoreFilter struct {
	TeacherID int64 // tests created by this teacher
	StudentID int64 // rows belonging to this student
}

// ScoreRow is a flat, percentage-annotated row of a score report.
type ScoreRow struct {
	ID             int64             `json:"id"`
	TestID         int64             `json:"test_id"`
	TestName       string            `json:"test_name"`
	TestTotalScore int               `json:"test_total_score"`
	TestDuration   int               `json:"test_duration"`
	TestCreatedAt  time.Time         `json:"test_created_at"`
	StudentID      int64             `json:"student_id"`
	StudentName    string            `json:"student_name"`
	StudentEmail   string            `json:"student_email"`
	Score          int               `json:"score"`
	Status         StudentTestStatus `json:"status"`
	Percentage     int               `json:"percentage"`
	SubmittedAt    time.Time         `json:"submitted_at"`
}

// ScoreExport is the top-level JSON structure written by the export command.
type ScoreExport struct {
	ExportedAt time.Time  `json:"exported_at"`
	Count      int        `json:"count"`
	Scores     []ScoreRow `json:"scores"`
}

// TestImport is a test definition loaded from JSON, shaped like the create request.
type TestImport struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Time        int              `json:"time"`
	Questions   []QuestionImport `json:"questions"`
}

// QuestionImport is one question of a TestImport.
type QuestionImport struct {
	Question string    `json:"question"`
	Options  []string  `json:"options"`
	Answer   AnswerSet `json:"answer"`
	Score    int       `json:"score"`
}
