// Package session tracks a student's timed attempt at a test on the client side.
//
// A Session moves from NotStarted to InProgress when the test payload is
// loaded, and to Submitted once a submission succeeds. The remaining time is
// computed from the start instant on every call, so it does not drift.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/pavelanni/otms/internal/grading"
	"github.com/pavelanni/otms/internal/model"
)

// State is the lifecycle state of a Session.
type State int

const (
	NotStarted State = iota
	InProgress
	Submitted
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case InProgress:
		return "in_progress"
	case Submitted:
		return "submitted"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrNotStarted       = errors.New("session not started")
	ErrAlreadyStarted   = errors.New("session already started")
	ErrAlreadySubmitted = errors.New("session already submitted")
	ErrUnknownQuestion  = errors.New("question is not part of the test")
)

// Submitter sends a test's answers to the server.
type Submitter interface {
	Submit(ctx context.Context, testID int64, answers model.SubmittedAnswers) error
}

// Session is safe for concurrent use, so a countdown goroutine can submit
// while another goroutine records answers.
type Session struct {
	mu        sync.Mutex
	state     State
	test      model.TestView
	startedAt time.Time
	answers   map[int64]model.AnswerSet
}

// New returns a session in the NotStarted state.
func New() *Session {
	return &Session{answers: make(map[int64]model.AnswerSet)}
}

// Start begins the session. A start time recorded by the server takes
// precedence over now.
func (s *Session) Start(test model.TestView, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case InProgress:
		return ErrAlreadyStarted
	case Submitted:
		return ErrAlreadySubmitted
	}
	s.test = test
	s.startedAt = now
	if test.StartedAt != nil {
		s.startedAt = *test.StartedAt
	}
	s.state = InProgress
	return nil
}

// Answer records the chosen options for a question, replacing earlier ones.
// Calling it with no values clears the answer.
func (s *Session) Answer(questionID int64, values ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if !slices.ContainsFunc(s.test.Questions, func(q model.QuestionView) bool { return q.ID == questionID }) {
		return fmt.Errorf("%w: %d", ErrUnknownQuestion, questionID)
	}
	values = grading.Normalize(values)
	if len(values) == 0 {
		delete(s.answers, questionID)
		return nil
	}
	s.answers[questionID] = model.AnswerSet(values)
	return nil
}

// Answers returns the recorded answers in question order.
func (s *Session) Answers() model.SubmittedAnswers {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answersLocked()
}

func (s *Session) answersLocked() model.SubmittedAnswers {
	out := make(model.SubmittedAnswers, 0, len(s.answers))
	for _, q := range s.test.Questions {
		if a, ok := s.answers[q.ID]; ok {
			out = append(out, model.SubmittedAnswer{QuestionID: q.ID, Answer: slices.Clone(a)})
		}
	}
	return out
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Test returns the test being taken.
func (s *Session) Test() model.TestView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.test
}

// Timed reports whether the test has a time limit.
func (s *Session) Timed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.test.Time > 0
}

// Remaining returns the time left at now. It is zero for untimed tests, for
// sessions that are not in progress, and once time is up.
func (s *Session) Remaining(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remainingLocked(now)
}

func (s *Session) remainingLocked(now time.Time) time.Duration {
	if s.state != InProgress || s.test.Time <= 0 {
		return 0
	}
	left := s.startedAt.Add(time.Duration(s.test.Time) * time.Second).Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a timed session in progress has run out of time.
func (s *Session) Expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == InProgress && s.test.Time > 0 && s.remainingLocked(now) == 0
}

// Submit sends the answers. On failure the session stays in progress with its
// answers intact so the caller can retry.
func (s *Session) Submit(ctx context.Context, sub Submitter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireInProgress(); err != nil {
		return err
	}
	if err := sub.Submit(ctx, s.test.ID, s.answersLocked()); err != nil {
		return err
	}
	s.state = Submitted
	return nil
}

func (s *Session) requireInProgress() error {
	switch s.state {
	case NotStarted:
		return ErrNotStarted
	case Submitted:
		return ErrAlreadySubmitted
	}
	return nil
}
