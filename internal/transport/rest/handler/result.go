package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"proctorexam/internal/service"
	"proctorexam/internal/transport/rest/middleware"
)

// ResultHandler handles result and leaderboard endpoints
type ResultHandler struct {
	resultSvc *service.ResultService
}

// NewResultHandler creates a new result handler
func NewResultHandler(resultSvc *service.ResultService) *ResultHandler {
	return &ResultHandler{resultSvc: resultSvc}
}

// ExamResults handles GET /api/exams/{examId}/results
func (h *ResultHandler) ExamResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.resultSvc.ExamResults(r.Context(), mux.Vars(r)["examId"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// Leaderboard handles GET /api/exams/{examId}/leaderboard?limit=N
func (h *ResultHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := h.resultSvc.Leaderboard(r.Context(), mux.Vars(r)["examId"], limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

// StudentHistory handles GET /api/exams/student/{studentId}/history
func (h *ResultHandler) StudentHistory(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, mux.Vars(r)["studentId"])
}

// MyHistory handles GET /api/exams/student-history
func (h *ResultHandler) MyHistory(w http.ResponseWriter, r *http.Request) {
	h.history(w, r, middleware.GetUserID(r.Context()))
}

func (h *ResultHandler) history(w http.ResponseWriter, r *http.Request, studentID string) {
	history, err := h.resultSvc.StudentHistory(r.Context(), studentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// Delete handles DELETE /api/exams/results/{id}
func (h *ResultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.resultSvc.DeleteResult(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeMessage(w, "Result deleted successfully", nil)
}
