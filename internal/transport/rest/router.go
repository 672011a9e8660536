package rest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"

	"proctorexam/internal/service"
	"proctorexam/internal/transport/rest/handler"
	authmw "proctorexam/internal/transport/rest/middleware"
	"proctorexam/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService       *service.AuthService
	ExamService       *service.ExamService
	SubmissionService *service.SubmissionService
	ResultService     *service.ResultService
	StudentService    *service.StudentService
	ProctorService    *service.ProctorService
	RunService        *service.RunService
	WSHub             *ws.Hub
	CORSOrigins       string
	// Health reports dependency status; nil means always healthy
	Health func(r *http.Request) error
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService, c.StudentService)
	examHandler := handler.NewExamHandler(c.ExamService, c.SubmissionService, c.RunService)
	resultHandler := handler.NewResultHandler(c.ResultService)
	studentHandler := handler.NewStudentHandler(c.StudentService)
	proctorHandler := handler.NewProctorHandler(c.ProctorService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.CORSOrigins)

	// Initialize middleware
	authMW := authmw.NewAuthMiddleware(c.AuthService)

	r.Use(authmw.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(c.CORSOrigins))

	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param)
	api.HandleFunc("/ws/exams/{examId}/monitor", wsHandler.MonitorWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if c.Health != nil {
			if err := c.Health(req); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				w.Write([]byte(`{"status":"unavailable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Routes for any signed-in user
	userRoutes := api.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireAuth)

	userRoutes.HandleFunc("/auth/me", authHandler.Me).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/exams/verify-key", examHandler.VerifyKey).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/exams/submit", examHandler.Submit).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/exams/run-code", examHandler.RunCode).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/exams/student-history", resultHandler.MyHistory).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/exams/{examId}/violations", proctorHandler.RecordViolation).Methods("POST", "OPTIONS")

	// Admin routes
	adminRoutes := api.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAuth, authMW.RequireAdmin)

	adminRoutes.HandleFunc("/auth/students", authHandler.Students).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/exams/create", examHandler.Create).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/exams/all", examHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/exams/{examId}/results", resultHandler.ExamResults).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/exams/{examId}/leaderboard", resultHandler.Leaderboard).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/exams/student/{studentId}/history", resultHandler.StudentHistory).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/exams/results/{id}", resultHandler.Delete).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/exams/students/{id}", studentHandler.Delete).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/exams/students/{id}/block", studentHandler.ToggleBlock).Methods("PATCH", "OPTIONS")
	adminRoutes.HandleFunc("/exams/{id}", examHandler.Update).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/exams/{id}", examHandler.Delete).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/exams/{id}/status", examHandler.ToggleStatus).Methods("PATCH", "OPTIONS")

	return r
}

func corsMiddleware(allowedOrigins string) mux.MiddlewareFunc {
	allowedOrigins = strings.TrimSpace(allowedOrigins)
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := "*"
			if allowedOrigins != "*" {
				origin = ""
				for _, o := range origins {
					if o == r.Header.Get("Origin") {
						origin = o
						break
					}
				}
				w.Header().Add("Vary", "Origin")
			}

			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, x-auth-token")
			}

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
