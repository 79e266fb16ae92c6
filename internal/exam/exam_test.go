package exam

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/pavelanni/otms/internal/model"
	"github.com/pavelanni/otms/internal/store"
)

type testEnv struct {
	svc      *Service
	db       *store.Store
	teacher  int64
	other    int64
	students []int64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := store.New(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	mk := func(email string, role model.UserRole, createdBy *int64) int64 {
		id, err := db.CreateUser(ctx, model.User{Role: role, FirstName: "N", LastName: email, Email: email, PasswordHash: "x", CreatedBy: createdBy})
		if err != nil {
			t.Fatalf("CreateUser %s: %v", email, err)
		}
		return id
	}
	env := &testEnv{db: db}
	env.teacher = mk("teacher@example.com", model.UserRoleTeacher, nil)
	env.other = mk("other@example.com", model.UserRoleTeacher, nil)
	env.students = []int64{
		mk("x@example.com", model.UserRoleStudent, &env.teacher),
		mk("y@example.com", model.UserRoleStudent, &env.teacher),
	}
	env.svc = New(db, model.ServerConfig{DefaultPassword: "123456", SubmitGrace: 30 * time.Second})
	return env
}

func quiz1() model.TestImport {
	return model.TestImport{
		Name: "Quiz1",
		Time: 60,
		Questions: []model.QuestionImport{
			{Question: "2+2?", Options: []string{"3", "4", "5"}, Answer: model.AnswerSet{"4"}, Score: 10},
			{Question: "Colors?", Options: []string{"Red", "Blue", "Green"}, Answer: model.AnswerSet{"Red", "Blue"}, Score: 20},
		},
	}
}

func (e *testEnv) createQuiz(t *testing.T) (int64, []model.Question) {
	t.Helper()
	ctx := context.Background()
	id, err := e.svc.CreateTest(ctx, e.teacher, quiz1())
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	qs, err := e.db.ListQuestions(ctx, id)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	return id, qs
}

func TestQuiz1EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.students[0]

	testID, qs := env.createQuiz(t)
	test, err := env.db.GetTest(ctx, testID)
	if err != nil {
		t.Fatalf("GetTest: %v", err)
	}
	if test.Score != 30 {
		t.Fatalf("total score = %d, want 30", test.Score)
	}

	rows, err := env.svc.Assign(ctx, env.teacher, testID, []int64{student})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != model.StatusPending {
		t.Fatalf("unexpected assignment %+v", rows)
	}

	first, err := env.svc.Submit(ctx, student, testID, model.SubmittedAnswers{
		{QuestionID: qs[0].ID, Answer: model.AnswerSet{"4"}},
		{QuestionID: qs[1].ID, Answer: model.AnswerSet{"Red", "Blue"}},
	})
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	res, err := env.svc.Result(ctx, testID, student)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.TotalScore != 30 || res.Percentage != 100 {
		t.Errorf("first result = %d (%d%%), want 30 (100%%)", res.TotalScore, res.Percentage)
	}

	second, err := env.svc.Submit(ctx, student, testID, model.SubmittedAnswers{
		{QuestionID: qs[0].ID, Answer: model.AnswerSet{"3"}},
		{QuestionID: qs[1].ID, Answer: model.AnswerSet{"Red"}},
	})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if first != second || first != rows[0].ID {
		t.Errorf("resubmission used rows %d, %d; assignment row is %d", first, second, rows[0].ID)
	}

	res, err = env.svc.Result(ctx, testID, student)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if res.TotalScore != 0 || res.Percentage != 0 {
		t.Errorf("second result = %d (%d%%), want 0 (0%%)", res.TotalScore, res.Percentage)
	}
	if got := res.Questions[1].StudentAnswer; !slices.Equal(got, []string{"Red"}) {
		t.Errorf("stored answer = %v, want only the second submission", got)
	}

	st, err := env.db.GetStudentTest(ctx, testID, student)
	if err != nil {
		t.Fatalf("GetStudentTest: %v", err)
	}
	if st.Status != model.StatusSubmitted {
		t.Errorf("status = %q, want submitted", st.Status)
	}
}

func TestCreateTestValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	mutate := func(f func(*model.TestImport)) model.TestImport {
		in := quiz1()
		in.Questions = slices.Clone(in.Questions)
		f(&in)
		return in
	}
	tests := []struct {
		name  string
		in    model.TestImport
		field string
	}{
		{"blank name", mutate(func(in *model.TestImport) { in.Name = "  " }), "name"},
		{"negative time", mutate(func(in *model.TestImport) { in.Time = -1 }), "time"},
		{"no questions", mutate(func(in *model.TestImport) { in.Questions = nil }), "questions"},
		{"blank question", mutate(func(in *model.TestImport) { in.Questions[0].Question = "" }), "questions[0].question"},
		{"no options", mutate(func(in *model.TestImport) { in.Questions[0].Options = nil }), "questions[0].options"},
		{"duplicate options", mutate(func(in *model.TestImport) { in.Questions[0].Options = []string{"4", "4"} }), "questions[0].options"},
		{"no answer", mutate(func(in *model.TestImport) { in.Questions[1].Answer = nil }), "questions[1].answer"},
		{"answer not an option", mutate(func(in *model.TestImport) { in.Questions[1].Answer = model.AnswerSet{"Pink"} }), "questions[1].answer"},
		{"zero score", mutate(func(in *model.TestImport) { in.Questions[1].Score = 0 }), "questions[1].score"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.CreateTest(ctx, env.teacher, tt.in)
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("field = %q, want %q", verr.Field, tt.field)
			}
		})
	}

	tests0, err := env.svc.ListTests(ctx, env.teacher)
	if err != nil {
		t.Fatalf("ListTests: %v", err)
	}
	if len(tests0) != 0 {
		t.Errorf("invalid tests were stored: %+v", tests0)
	}
}

func TestCreateTestUntimedAndDuplicateAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	in := quiz1()
	in.Time = 0
	in.Questions[1].Answer = model.AnswerSet{"Red", "Blue", "Red"}

	id, err := env.svc.CreateTest(ctx, env.teacher, in)
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	qs, _ := env.db.ListQuestions(ctx, id)
	if !slices.Equal(qs[1].Answer, model.AnswerSet{"Red", "Blue"}) {
		t.Errorf("stored answer = %v, want deduplicated", qs[1].Answer)
	}

	view, err := env.svc.StartTest(ctx, env.students[0], id)
	if err != nil {
		t.Fatalf("StartTest: %v", err)
	}
	if view.Deadline != nil {
		t.Errorf("untimed test has a deadline: %v", view.Deadline)
	}
}

func TestGetTestViewHidesAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, _ := env.createQuiz(t)

	v, err := env.svc.GetTestView(ctx, id)
	if err != nil {
		t.Fatalf("GetTestView: %v", err)
	}
	if v.TotalScore != 30 || len(v.Questions) != 2 {
		t.Errorf("unexpected view %+v", v)
	}
	if v.Questions[0].QuestionType != "single" || v.Questions[1].QuestionType != "multiple" {
		t.Errorf("question types = %q, %q", v.Questions[0].QuestionType, v.Questions[1].QuestionType)
	}

	if err := env.svc.SetActive(ctx, env.other, id, false); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("foreign teacher deactivating: expected ErrForbidden, got %v", err)
	}
	if err := env.svc.SetActive(ctx, env.teacher, id, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if _, err := env.svc.GetTestView(ctx, id); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("inactive test: expected ErrNotFound, got %v", err)
	}
}

func TestAssignErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, _ := env.createQuiz(t)

	tests := []struct {
		name    string
		teacher int64
		testID  int64
		ids     []int64
		want    error
	}{
		{"foreign teacher", env.other, id, env.students, model.ErrForbidden},
		{"missing test", env.teacher, 9999, env.students, model.ErrNotFound},
		{"teacher id as student", env.teacher, id, []int64{env.other}, nil},
		{"unknown user", env.teacher, id, []int64{9999}, nil},
		{"empty list", env.teacher, id, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Assign(ctx, tt.teacher, tt.testID, tt.ids)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				return
			}
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}

	rows, err := env.svc.Assign(ctx, env.teacher, id, []int64{env.students[0], env.students[0]})
	if err != nil {
		t.Fatalf("Assign duplicate ids: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected duplicate ids collapsed to 1 row, got %d", len(rows))
	}
}

// answeredPending reports every assignment as pending with stale answers.
type answeredPending struct {
	*store.Store
}

func (s answeredPending) ListAssignmentsForStudent(ctx context.Context, userID int64) ([]model.Assignment, error) {
	list, err := s.Store.ListAssignmentsForStudent(ctx, userID)
	for i := range list {
		list[i].StudentTest.Status = model.StatusPending
		list[i].StudentTest.Answers = model.SubmittedAnswers{{QuestionID: 1, Answer: model.AnswerSet{"4"}}}
	}
	return list, err
}

func TestListAvailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.students[0]

	empty, err := env.svc.ListAvailable(ctx, student)
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %#v", empty)
	}

	a, _ := env.createQuiz(t)
	b, bqs := env.createQuiz(t)
	c, _ := env.createQuiz(t)
	for _, id := range []int64{a, b, c} {
		if _, err := env.svc.Assign(ctx, env.teacher, id, []int64{student}); err != nil {
			t.Fatalf("Assign: %v", err)
		}
	}
	if _, err := env.svc.Submit(ctx, student, b, model.SubmittedAnswers{{QuestionID: bqs[0].ID, Answer: model.AnswerSet{"4"}}}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := env.svc.SetActive(ctx, env.teacher, c, false); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	list, err := env.svc.ListAvailable(ctx, student)
	if err != nil {
		t.Fatalf("ListAvailable: %v", err)
	}
	if len(list) != 1 || list[0].ID != a {
		t.Fatalf("expected only test %d, got %+v", a, list)
	}
	if list[0].TotalScore != 30 || len(list[0].Questions) != 2 {
		t.Errorf("unexpected payload %+v", list[0])
	}

	stale := New(answeredPending{env.db}, env.svc.cfg)
	list, err = stale.ListAvailable(ctx, student)
	if err != nil {
		t.Fatalf("ListAvailable with stale answers: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("rows with answers must be hidden even when pending, got %d", len(list))
	}
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.students[0]
	id, qs := env.createQuiz(t)
	_, otherQs := env.createQuiz(t)

	tests := []struct {
		name    string
		testID  int64
		answers model.SubmittedAnswers
		notFnd  bool
	}{
		{"missing question id", id, model.SubmittedAnswers{{Answer: model.AnswerSet{"4"}}}, false},
		{"repeated question", id, model.SubmittedAnswers{
			{QuestionID: qs[0].ID, Answer: model.AnswerSet{"4"}},
			{QuestionID: qs[0].ID, Answer: model.AnswerSet{"3"}},
		}, false},
		{"question of another test", id, model.SubmittedAnswers{{QuestionID: otherQs[0].ID, Answer: model.AnswerSet{"4"}}}, false},
		{"missing test", 9999, model.SubmittedAnswers{{QuestionID: qs[0].ID, Answer: model.AnswerSet{"4"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Submit(ctx, student, tt.testID, tt.answers)
			if tt.notFnd {
				if !errors.Is(err, model.ErrNotFound) {
					t.Errorf("expected ErrNotFound, got %v", err)
				}
				return
			}
			var verr *model.ValidationError
			if !errors.As(err, &verr) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}

	if _, err := env.db.GetStudentTest(ctx, id, student); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("rejected submissions must not write a row: %v", err)
	}
}

func TestSubmitWithoutAnswersScoresZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, qs := env.createQuiz(t)

	tests := []struct {
		name    string
		student int64
		answers model.SubmittedAnswers
	}{
		{"empty list", env.students[0], model.SubmittedAnswers{}},
		{"unanswered questions", env.students[1], model.SubmittedAnswers{
			{QuestionID: qs[0].ID, Answer: nil},
			{QuestionID: qs[1].ID, Answer: model.AnswerSet{}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := env.svc.Assign(ctx, env.teacher, id, []int64{tt.student}); err != nil {
				t.Fatalf("Assign: %v", err)
			}
			if _, err := env.svc.Submit(ctx, tt.student, id, tt.answers); err != nil {
				t.Fatalf("Submit: %v", err)
			}
			st, err := env.db.GetStudentTest(ctx, id, tt.student)
			if err != nil {
				t.Fatalf("GetStudentTest: %v", err)
			}
			if st.Status != model.StatusSubmitted || st.Score != 0 {
				t.Errorf("row = %+v, want submitted with score 0", st)
			}
			available, err := env.svc.ListAvailable(ctx, tt.student)
			if err != nil {
				t.Fatalf("ListAvailable: %v", err)
			}
			if len(available) != 0 {
				t.Errorf("submitted test still available: %d", len(available))
			}
			res, err := env.svc.Result(ctx, id, tt.student)
			if err != nil {
				t.Fatalf("Result: %v", err)
			}
			if res.TotalScore != 0 || res.Percentage != 0 || len(res.Questions) != 2 {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestSubmitWithoutAssignmentCreatesRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, qs := env.createQuiz(t)

	stID, err := env.svc.Submit(ctx, env.students[1], id, model.SubmittedAnswers{
		{QuestionID: qs[1].ID, Answer: model.AnswerSet{"Blue", "Red", "Blue"}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	st, err := env.db.GetStudentTest(ctx, id, env.students[1])
	if err != nil {
		t.Fatalf("GetStudentTest: %v", err)
	}
	if st.ID != stID || st.Score != 20 {
		t.Errorf("unexpected row %+v", st)
	}
	if got := st.Answers.Lookup(qs[1].ID); !slices.Equal(got, model.AnswerSet{"Blue", "Red"}) {
		t.Errorf("stored answer = %v, want normalized", got)
	}
}

func TestSubmitDeadline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.students[0]
	id, qs := env.createQuiz(t)
	answers := model.SubmittedAnswers{{QuestionID: qs[0].ID, Answer: model.AnswerSet{"4"}}}

	view, err := env.svc.StartTest(ctx, student, id)
	if err != nil {
		t.Fatalf("StartTest: %v", err)
	}
	if view.StartedAt == nil || view.Deadline == nil {
		t.Fatalf("expected started_at and deadline, got %+v", view)
	}
	if got := view.Deadline.Sub(*view.StartedAt); got != 60*time.Second {
		t.Errorf("deadline is %s after start, want 60s", got)
	}
	started := *view.StartedAt

	tests := []struct {
		name    string
		at      time.Time
		wantErr bool
	}{
		{"in time", started.Add(59 * time.Second), false},
		{"within grace", started.Add(85 * time.Second), false},
		{"late", started.Add(91 * time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.svc.now = func() time.Time { return tt.at }
			_, err := env.svc.Submit(ctx, student, id, answers)
			if tt.wantErr {
				if !errors.Is(err, model.ErrDeadlineExceeded) {
					t.Errorf("expected ErrDeadlineExceeded, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Submit: %v", err)
			}
		})
	}

	// No recorded session: accepted regardless of the clock.
	env.svc.now = func() time.Time { return started.Add(24 * time.Hour) }
	if _, err := env.svc.Submit(ctx, env.students[1], id, answers); err != nil {
		t.Errorf("submission without a session: %v", err)
	}
}

func TestResultScoreConsistency(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := env.students[0]
	id, qs := env.createQuiz(t)

	submissions := []model.SubmittedAnswers{
		{{QuestionID: qs[0].ID, Answer: model.AnswerSet{"4"}}},
		{{QuestionID: qs[1].ID, Answer: model.AnswerSet{"Blue", "Red"}}},
		{{QuestionID: qs[0].ID, Answer: model.AnswerSet{"4", "5"}}, {QuestionID: qs[1].ID, Answer: model.AnswerSet{"Red", "Blue", "Green"}}},
		{{QuestionID: qs[1].ID, Answer: model.AnswerSet{"Blue", "Red"}}, {QuestionID: qs[0].ID, Answer: model.AnswerSet{"4"}}},
	}
	for i, answers := range submissions {
		if _, err := env.svc.Submit(ctx, student, id, answers); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
		res, err := env.svc.Result(ctx, id, student)
		if err != nil {
			t.Fatalf("Result %d: %v", i, err)
		}
		sum := 0
		for _, q := range res.Questions {
			sum += q.EarnedScore
			if q.IsCorrect != (q.EarnedScore == q.Score) {
				t.Errorf("submission %d question %d: is_correct %v with %d/%d", i, q.QuestionID, q.IsCorrect, q.EarnedScore, q.Score)
			}
		}
		if sum != res.TotalScore {
			t.Errorf("submission %d: earned scores sum to %d, stored score is %d", i, sum, res.TotalScore)
		}
	}
}

func TestResultNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, _ := env.createQuiz(t)

	if _, err := env.svc.Result(ctx, id, env.students[0]); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("no row: expected ErrNotFound, got %v", err)
	}
	if _, err := env.svc.Assign(ctx, env.teacher, id, env.students[:1]); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if _, err := env.svc.Result(ctx, id, env.students[0]); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("pending row: expected ErrNotFound, got %v", err)
	}
	if _, err := env.svc.TeacherResult(ctx, env.other, id, env.students[0]); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("foreign teacher: expected ErrForbidden, got %v", err)
	}
}

func TestTeacherResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, qs := env.createQuiz(t)
	if _, err := env.svc.Submit(ctx, env.students[0], id, model.SubmittedAnswers{{QuestionID: qs[1].ID, Answer: model.AnswerSet{"Red", "Blue"}}}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	res, err := env.svc.TeacherResult(ctx, env.teacher, id, env.students[0])
	if err != nil {
		t.Fatalf("TeacherResult: %v", err)
	}
	if res.TotalScore != 20 || res.Percentage != 67 {
		t.Errorf("result = %d (%d%%), want 20 (67%%)", res.TotalScore, res.Percentage)
	}
	if res.StudentEmail != "x@example.com" || res.StudentName != "N x@example.com" {
		t.Errorf("student = %q <%s>", res.StudentName, res.StudentEmail)
	}
	if len(res.Questions[0].StudentAnswer) != 0 || res.Questions[0].IsCorrect {
		t.Errorf("unanswered question = %+v", res.Questions[0])
	}
}

func TestNewScoreRowZeroTotal(t *testing.T) {
	row := NewScoreRow(model.ScoreRecord{
		StudentTest: model.StudentTest{Score: 5},
		Test:        model.Test{Score: 0},
		Student:     model.User{Email: "e@example.com"},
	})
	if row.Percentage != 0 {
		t.Errorf("percentage = %d, want 0", row.Percentage)
	}
	if row.StudentName != "e@example.com" {
		t.Errorf("student name = %q, want the email fallback", row.StudentName)
	}
}

func TestScores(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id, qs := env.createQuiz(t)

	otherTest, err := env.svc.CreateTest(ctx, env.other, model.TestImport{
		Name:      "Geography",
		Questions: []model.QuestionImport{{Question: "Capital?", Options: []string{"Paris", "Rome"}, Answer: model.AnswerSet{"Paris"}, Score: 5}},
	})
	if err != nil {
		t.Fatalf("CreateTest: %v", err)
	}
	otherQs, _ := env.db.ListQuestions(ctx, otherTest)

	submit := func(student, testID int64, answers model.SubmittedAnswers) {
		t.Helper()
		if _, err := env.svc.Submit(ctx, student, testID, answers); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	submit(env.students[0], id, model.SubmittedAnswers{{QuestionID: qs[0].ID, Answer: model.AnswerSet{"4"}}})
	submit(env.students[1], id, model.SubmittedAnswers{{QuestionID: qs[1].ID, Answer: model.AnswerSet{"Red", "Blue"}}})
	submit(env.students[0], otherTest, model.SubmittedAnswers{{QuestionID: otherQs[0].ID, Answer: model.AnswerSet{"Paris"}}})

	teacher := model.Identity{UserID: env.teacher, Role: model.UserRoleTeacher}
	student := model.Identity{UserID: env.students[0], Role: model.UserRoleStudent}

	tests := []struct {
		name   string
		caller model.Identity
		q      ScoreQuery
		want   []int // expected scores in order
	}{
		{"teacher default", teacher, ScoreQuery{}, nil},
		{"teacher by score asc", teacher, ScoreQuery{Sort: SortScore, Order: "asc"}, []int{10, 20}},
		{"teacher by percentage desc", teacher, ScoreQuery{Sort: SortPercentage}, []int{20, 10}},
		{"teacher search email", teacher, ScoreQuery{Search: "Y@EXAMPLE"}, []int{20}},
		{"teacher search no match", teacher, ScoreQuery{Search: "nobody"}, []int{}},
		{"student sees own rows", student, ScoreQuery{Sort: SortScore, Order: "asc"}, []int{5, 10}},
		{"student search test name", student, ScoreQuery{Search: "geo"}, []int{5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := env.svc.Scores(ctx, tt.caller, tt.q)
			if err != nil {
				t.Fatalf("Scores: %v", err)
			}
			if tt.want == nil {
				if len(rows) != 2 {
					t.Errorf("expected 2 rows, got %d", len(rows))
				}
				return
			}
			got := make([]int, 0, len(rows))
			for _, r := range rows {
				got = append(got, r.Score)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("scores = %v, want %v", got, tt.want)
			}
		})
	}

	admin := model.Identity{UserID: 99, Role: model.UserRoleAdmin}
	if _, err := env.svc.Scores(ctx, admin, ScoreQuery{}); !errors.Is(err, model.ErrForbidden) {
		t.Errorf("admin: expected ErrForbidden, got %v", err)
	}
	var verr *model.ValidationError
	if _, err := env.svc.Scores(ctx, teacher, ScoreQuery{Sort: "name"}); !errors.As(err, &verr) {
		t.Errorf("bad sort: expected ValidationError, got %v", err)
	}
	if _, err := env.svc.Scores(ctx, teacher, ScoreQuery{Order: "up"}); !errors.As(err, &verr) {
		t.Errorf("bad order: expected ValidationError, got %v", err)
	}

	export, err := env.svc.ExportScores(ctx)
	if err != nil {
		t.Fatalf("ExportScores: %v", err)
	}
	if export.Count != 3 || len(export.Scores) != 3 {
		t.Errorf("export count = %d, rows = %d; want 3", export.Count, len(export.Scores))
	}
}

func TestImportFiles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()

	single := filepath.Join(dir, "quiz.json")
	if err := os.WriteFile(single, []byte(`{
		"name": "Imported",
		"time": 120,
		"questions": [{"question": "2+2?", "options": ["3", "4"], "answer": "4", "score": 1}]
	}`), 0o644); err != nil {
		t.Fatal(err)
	}
	many := filepath.Join(dir, "many.json")
	if err := os.WriteFile(many, []byte(`[
		{"name": "A", "questions": [{"question": "q", "options": ["x", "y"], "answer": ["x", "y"], "score": 2}]},
		{"name": "B", "questions": [{"question": "q", "options": ["x"], "answer": "x", "score": 3}]}
	]`), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := env.svc.ImportFiles(ctx, "teacher@example.com", []string{single, many})
	if err != nil {
		t.Fatalf("ImportFiles: %v", err)
	}
	if n != 3 {
		t.Errorf("imported %d tests, want 3", n)
	}

	// Unchanged and changed files are both skipped.
	if err := os.WriteFile(many, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	n, err = env.svc.ImportFiles(ctx, "teacher@example.com", []string{single, many})
	if err != nil {
		t.Fatalf("ImportFiles again: %v", err)
	}
	if n != 0 {
		t.Errorf("re-import created %d tests, want 0", n)
	}

	list, _ := env.svc.ListTests(ctx, env.teacher)
	if len(list) != 3 {
		t.Errorf("teacher has %d tests, want 3", len(list))
	}

	if _, err := env.svc.ImportFiles(ctx, "x@example.com", []string{single}); err == nil {
		t.Error("expected error importing as a student")
	}
	if _, err := env.svc.ImportFiles(ctx, "nobody", []string{single}); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("unknown teacher: expected ErrNotFound, got %v", err)
	}
}
