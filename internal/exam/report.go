package exam

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/pavelanni/otms/internal/grading"
	"github.com/pavelanni/otms/internal/model"
)

// Sort keys accepted by Scores.
const (
	SortDate       = "date"
	SortScore      = "score"
	SortPercentage = "percentage"
)

// ScoreQuery filters and orders a score listing.
type ScoreQuery struct {
	Search string // case-insensitive substring of test name, student name or email
	Sort   string // date, score or percentage; empty keeps the default order
	Order  string // asc or desc; defaults to desc
}

// NewScoreRow flattens a score record and computes its percentage.
func NewScoreRow(r model.ScoreRecord) model.ScoreRow {
	submittedAt := r.StudentTest.CreatedAt
	if r.StudentTest.SubmittedAt != nil {
		submittedAt = *r.StudentTest.SubmittedAt
	}
	return model.ScoreRow{
		ID:             r.StudentTest.ID,
		TestID:         r.Test.ID,
		TestName:       r.Test.Name,
		TestTotalScore: r.Test.Score,
		TestDuration:   r.Test.Time,
		TestCreatedAt:  r.Test.CreatedAt,
		StudentID:      r.Student.ID,
		StudentName:    r.Student.DisplayName(),
		StudentEmail:   r.Student.Email,
		Score:          r.StudentTest.Score,
		Status:         r.StudentTest.Status,
		Percentage:     grading.Percentage(r.StudentTest.Score, r.Test.Score),
		SubmittedAt:    submittedAt,
	}
}

// Scores lists the submitted results visible to caller: a teacher sees results
// for the tests they created, a student sees their own.
func (s *Service) Scores(ctx context.Context, caller model.Identity, q ScoreQuery) ([]model.ScoreRow, error) {
	var f model.ScoreFilter
	switch caller.Role {
	case model.UserRoleTeacher:
		f.TeacherID = caller.UserID
	case model.UserRoleStudent:
		f.StudentID = caller.UserID
	default:
		return nil, model.ErrForbidden
	}

	switch q.Sort {
	case "", SortDate, SortScore, SortPercentage:
	default:
		return nil, model.Invalid("sort", "must be one of date, score, percentage")
	}
	switch q.Order {
	case "", "asc", "desc":
	default:
		return nil, model.Invalid("order", "must be asc or desc")
	}

	records, err := s.store.ListScoreRecords(ctx, f)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(q.Search))
	rows := make([]model.ScoreRow, 0, len(records))
	for _, r := range records {
		row := NewScoreRow(r)
		if search != "" && !matchesSearch(row, search) {
			continue
		}
		rows = append(rows, row)
	}

	if q.Sort != "" {
		sortScoreRows(rows, q.Sort, q.Order == "asc")
	}
	return rows, nil
}

func matchesSearch(row model.ScoreRow, needle string) bool {
	for _, hay := range []string{row.TestName, row.StudentName, row.StudentEmail} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func sortScoreRows(rows []model.ScoreRow, key string, asc bool) {
	slices.SortStableFunc(rows, func(a, b model.ScoreRow) int {
		var c int
		switch key {
		case SortScore:
			c = cmp.Compare(a.Score, b.Score)
		case SortPercentage:
			c = cmp.Compare(a.Percentage, b.Percentage)
		default:
			c = a.SubmittedAt.Compare(b.SubmittedAt)
		}
		if !asc {
			c = -c
		}
		return c
	})
}

// ExportScores returns every submitted result for offline processing.
func (s *Service) ExportScores(ctx context.Context) (model.ScoreExport, error) {
	records, err := s.store.ListScoreRecords(ctx, model.ScoreFilter{})
	if err != nil {
		return model.ScoreExport{}, err
	}
	rows := make([]model.ScoreRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, NewScoreRow(r))
	}
	return model.ScoreExport{
		ExportedAt: s.now().UTC().Truncate(time.Second),
		Count:      len(rows),
		Scores:     rows,
	}, nil
}
