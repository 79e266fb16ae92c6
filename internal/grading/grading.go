// Package grading scores multiple-choice submissions by exact set match.
//
// A question is correct only when the submitted options and the correct
// options contain the same distinct strings. Order and duplicates are
// ignored, and there is no partial credit.
package grading

import (
	"math"

	"github.com/pavelanni/otms/internal/model"
)

// Normalize returns values with duplicates removed, keeping first occurrences in order.
// The result is never nil.
func Normalize(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SetEqual reports whether a and b hold the same distinct elements.
func SetEqual(a, b []string) bool {
	as := toSet(a)
	bs := toSet(b)
	if len(as) != len(bs) {
		return false
	}
	for v := range as {
		if _, ok := bs[v]; !ok {
			return false
		}
	}
	return true
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// Outcome is the grading of one question.
type Outcome struct {
	QuestionID int64
	Correct    bool
	Submitted  []string
	Earned     int
	Max        int
}

// ScoreQuestion grades a single question. A missing answer is incorrect.
func ScoreQuestion(q model.Question, submitted []string) Outcome {
	submitted = Normalize(submitted)
	o := Outcome{
		QuestionID: q.ID,
		Submitted:  submitted,
		Max:        q.Score,
	}
	if len(submitted) > 0 && SetEqual(q.Answer, submitted) {
		o.Correct = true
		o.Earned = q.Score
	}
	return o
}

// Score grades every question of a test against answers and returns the total
// with per-question outcomes in question order. Answers for questions not in
// questions are ignored.
func Score(questions []model.Question, answers model.SubmittedAnswers) (int, []Outcome) {
	total := 0
	outcomes := make([]Outcome, 0, len(questions))
	for _, q := range questions {
		o := ScoreQuestion(q, answers.Lookup(q.ID))
		total += o.Earned
		outcomes = append(outcomes, o)
	}
	return total, outcomes
}

// MaxScore sums the scores of questions.
func MaxScore(questions []model.Question) int {
	total := 0
	for _, q := range questions {
		total += q.Score
	}
	return total
}

// Percentage returns round(100*score/total), or 0 when total is not positive.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(score) / float64(total)))
}
