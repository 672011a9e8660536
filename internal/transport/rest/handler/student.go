package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"proctorexam/internal/service"
)

// StudentHandler handles admin management of students
type StudentHandler struct {
	studentSvc *service.StudentService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(studentSvc *service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// Delete handles DELETE /api/exams/students/{id}
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.studentSvc.DeleteStudent(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeMessage(w, "Student and all their results deleted successfully", nil)
}

// ToggleBlock handles PATCH /api/exams/students/{id}/block
func (h *StudentHandler) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	blocked, err := h.studentSvc.ToggleBlock(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	state := "unblocked"
	if blocked {
		state = "blocked"
	}
	writeMessage(w, "Student "+state+" successfully", map[string]interface{}{"isBlocked": blocked})
}
