package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"proctorexam/internal/model"
	"proctorexam/internal/service"
	"proctorexam/internal/transport/rest/middleware"
)

// ProctorHandler receives live proctoring events from exam takers
type ProctorHandler struct {
	proctorSvc *service.ProctorService
}

// NewProctorHandler creates a new proctoring handler
func NewProctorHandler(proctorSvc *service.ProctorService) *ProctorHandler {
	return &ProctorHandler{proctorSvc: proctorSvc}
}

// RecordViolation handles POST /api/exams/{examId}/violations
func (h *ProctorHandler) RecordViolation(w http.ResponseWriter, r *http.Request) {
	var v model.Violation
	if !decodeJSON(w, r, &v) {
		return
	}

	logged, err := h.proctorSvc.RecordViolation(r.Context(), mux.Vars(r)["examId"], middleware.GetUserID(r.Context()), v)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"count":      len(logged),
		"violations": logged,
	})
}
