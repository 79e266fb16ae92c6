package handler

import (
	"net/http"

	"github.com/pavelanni/otms/internal/account"
	"github.com/pavelanni/otms/internal/i18n"
	"github.com/pavelanni/otms/internal/model"
)

type createStudentRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
}

type createTestRequest struct {
	Name        string                  `json:"name" validate:"required"`
	Description string                  `json:"description"`
	Time        int                     `json:"time" validate:"min=0"`
	Questions   []createQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type createQuestionRequest struct {
	Question string          `json:"question" validate:"required"`
	Options  []string        `json:"options" validate:"required,min=1"`
	Answer   model.AnswerSet `json:"answer" validate:"required"`
	Score    int             `json:"score" validate:"gt=0"`
}

func (req createTestRequest) toImport() model.TestImport {
	in := model.TestImport{Name: req.Name, Description: req.Description, Time: req.Time}
	for _, q := range req.Questions {
		in.Questions = append(in.Questions, model.QuestionImport{
			Question: q.Question,
			Options:  q.Options,
			Answer:   q.Answer,
			Score:    q.Score,
		})
	}
	return in
}

type assignRequest struct {
	StudentIDs []int64 `json:"student_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.accounts.CreateUser(r.Context(), identity(r), account.NewUser{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      model.UserRoleStudent,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string          `json:"message"`
		User    profileResponse `json:"user"`
	}{i18n.T(r.Context(), "MsgStudentCreated"), newProfile(u)})
}

func (h *Handler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.accounts.ListStudents(r.Context(), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]profileResponse, 0, len(students))
	for _, u := range students {
		out = append(out, newProfile(u))
	}
	writeJSON(w, http.StatusOK, map[string]any{"students": out})
}

func (h *Handler) handleCreateTest(w http.ResponseWriter, r *http.Request) {
	var req createTestRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.exams.CreateTest(r.Context(), identity(r).UserID, req.toImport())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message string `json:"message"`
		TestID  int64  `json:"test_id"`
	}{i18n.T(r.Context(), "MsgTestCreated"), id})
}

func (h *Handler) handleListTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.exams.ListTests(r.Context(), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tests": tests})
}

func (h *Handler) handleGetTest(w http.ResponseWriter, r *http.Request) {
	testID, err := pathID(r, "test_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.exams.GetTestView(r.Context(), testID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSetActive(active bool) http.HandlerFunc {
	msgID := "MsgTestDeactivated"
	if active {
		msgID = "MsgTestActivated"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		testID, err := pathID(r, "test_id")
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := h.exams.SetActive(r.Context(), identity(r).UserID, testID, active); err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Message  string `json:"message"`
			TestID   int64  `json:"test_id"`
			IsActive bool   `json:"is_active"`
		}{i18n.T(r.Context(), msgID), testID, active})
	}
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	testID, err := pathID(r, "test_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req assignRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rows, err := h.exams.Assign(r.Context(), identity(r).UserID, testID, req.StudentIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Message      string              `json:"message"`
		StudentTests []model.StudentTest `json:"student_tests"`
	}{i18n.Tp(r.Context(), "MsgTestAssigned", len(rows)), rows})
}

func (h *Handler) handleTeacherResult(w http.ResponseWriter, r *http.Request) {
	testID, err := pathID(r, "test_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	studentID, err := pathID(r, "student_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.exams.TeacherResult(r.Context(), identity(r).UserID, testID, studentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
