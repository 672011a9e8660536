package handler

import (
	"net/http"

	"proctorexam/internal/model"
	"proctorexam/internal/service"
	"proctorexam/internal/transport/rest/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc    *service.AuthService
	studentSvc *service.StudentService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc *service.AuthService, studentSvc *service.StudentService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, studentSvc: studentSvc}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authSvc.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.authSvc.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authSvc.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Students handles GET /api/auth/students
func (h *AuthHandler) Students(w http.ResponseWriter, r *http.Request) {
	students, err := h.studentSvc.ListStudents(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, students)
}
