package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"proctorexam/internal/service"
)

// maxBodyBytes bounds request bodies; submissions carry a base64 photo
const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeMessage(w http.ResponseWriter, message string, extra map[string]interface{}) {
	body := map[string]interface{}{"message": message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

var serviceErrors = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrInvalidCredentials, http.StatusBadRequest, "Invalid Credentials"},
	{service.ErrUserExists, http.StatusBadRequest, "User already exists"},
	{service.ErrInvalidAdminSecret, http.StatusForbidden, "Invalid Admin Secret Key"},
	{service.ErrAccountBlocked, http.StatusForbidden, "Your account has been blocked. Please contact the administrator."},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Token is not valid"},
	{service.ErrExamNotFound, http.StatusNotFound, "Exam not found"},
	{service.ErrInvalidExamKey, http.StatusNotFound, "Invalid Exam Key"},
	{service.ErrExamAlreadyTaken, http.StatusBadRequest, "You have already taken this exam"},
	{service.ErrResultNotFound, http.StatusNotFound, "Result not found"},
	{service.ErrStudentNotFound, http.StatusNotFound, "Student not found"},
	{service.ErrNoActiveSession, http.StatusConflict, "No active proctoring session for this exam"},
}

// writeServiceError maps service errors to the API's status codes and
// messages; anything unknown is logged and hidden behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Error())
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.message)
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "Server Error")
}
