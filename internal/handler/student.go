package handler

import (
	"net/http"
	"strings"

	"github.com/pavelanni/otms/internal/exam"
	"github.com/pavelanni/otms/internal/i18n"
	"github.com/pavelanni/otms/internal/model"
)

type submitRequest struct {
	Answers model.SubmittedAnswers `json:"answers" validate:"required"`
}

func (h *Handler) handleAvailableTests(w http.ResponseWriter, r *http.Request) {
	tests, err := h.exams.ListAvailable(r.Context(), identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tests": tests})
}

func (h *Handler) handleStartTest(w http.ResponseWriter, r *http.Request) {
	testID, err := pathID(r, "test_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.exams.StartTest(r.Context(), identity(r).UserID, testID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	testID, err := pathID(r, "test_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req submitRequest
	if err := h.decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.exams.Submit(r.Context(), identity(r).UserID, testID, req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Message string `json:"message"`
		TestID  int64  `json:"test_id"`
	}{i18n.T(r.Context(), "MsgTestSubmitted"), id})
}

func (h *Handler) handleResult(w http.ResponseWriter, r *http.Request) {
	testID, err := pathID(r, "test_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.exams.Result(r.Context(), testID, identity(r).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rows, err := h.exams.Scores(r.Context(), identity(r), exam.ScoreQuery{
		Search: strings.TrimSpace(q.Get("q")),
		Sort:   q.Get("sort"),
		Order:  q.Get("order"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"scores": rows})
}
