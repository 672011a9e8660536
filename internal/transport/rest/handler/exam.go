package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"proctorexam/internal/model"
	"proctorexam/internal/service"
	"proctorexam/internal/transport/rest/middleware"
)

// ExamHandler handles exam authoring and exam-taking endpoints
type ExamHandler struct {
	examSvc       *service.ExamService
	submissionSvc *service.SubmissionService
	runSvc        *service.RunService
}

// NewExamHandler creates a new exam handler
func NewExamHandler(examSvc *service.ExamService, submissionSvc *service.SubmissionService, runSvc *service.RunService) *ExamHandler {
	return &ExamHandler{
		examSvc:       examSvc,
		submissionSvc: submissionSvc,
		runSvc:        runSvc,
	}
}

// Create handles POST /api/exams/create
func (h *ExamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input model.ExamInput
	if !decodeJSON(w, r, &input) {
		return
	}

	exam, err := h.examSvc.Create(r.Context(), middleware.GetUserID(r.Context()), &input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, exam)
}

// List handles GET /api/exams/all
func (h *ExamHandler) List(w http.ResponseWriter, r *http.Request) {
	exams, err := h.examSvc.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, exams)
}

// Update handles PUT /api/exams/{id}
func (h *ExamHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input model.ExamInput
	if !decodeJSON(w, r, &input) {
		return
	}

	exam, err := h.examSvc.Update(r.Context(), mux.Vars(r)["id"], &input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeMessage(w, "Exam updated successfully", map[string]interface{}{"exam": exam})
}

// ToggleStatus handles PATCH /api/exams/{id}/status
func (h *ExamHandler) ToggleStatus(w http.ResponseWriter, r *http.Request) {
	active, err := h.examSvc.ToggleStatus(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	writeMessage(w, "Exam "+state+" successfully", map[string]interface{}{"isActive": active})
}

// Delete handles DELETE /api/exams/{id}
func (h *ExamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.examSvc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeMessage(w, "Exam and associated results deleted successfully", nil)
}

// VerifyKeyRequest is the request body for POST /api/exams/verify-key
type VerifyKeyRequest struct {
	ExamKey string `json:"examKey"`
}

// VerifyKey handles POST /api/exams/verify-key
func (h *ExamHandler) VerifyKey(w http.ResponseWriter, r *http.Request) {
	var req VerifyKeyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	exam, err := h.examSvc.VerifyKey(r.Context(), middleware.GetUserID(r.Context()), req.ExamKey)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, exam)
}

// Submit handles POST /api/exams/submit
func (h *ExamHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ExamID == "" {
		writeError(w, http.StatusBadRequest, "examId is required")
		return
	}

	result, err := h.submissionSvc.Submit(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// RunCode handles POST /api/exams/run-code
func (h *ExamHandler) RunCode(w http.ResponseWriter, r *http.Request) {
	var req model.RunRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, h.runSvc.RunCode(r.Context(), &req))
}
