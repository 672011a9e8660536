package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"proctorexam/internal/model"
	"proctorexam/internal/service"
)

type contextKey string

const (
	UserIDKey contextKey = "userId"
	RoleKey   contextKey = "role"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// RequireAuth validates the JWT from the Authorization or x-auth-token header
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			deny(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}

		claims, err := m.authSvc.ValidateToken(token)
		if err != nil {
			deny(w, http.StatusUnauthorized, "Token is not valid")
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, RoleKey, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects authenticated users that are not admins. It must run
// after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRole(r.Context()) != model.RoleAdmin {
			deny(w, http.StatusForbidden, "Access Denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(UserIDKey).(string); ok {
		return v
	}
	return ""
}

// GetRole extracts the user role from context
func GetRole(ctx context.Context) model.Role {
	if v, ok := ctx.Value(RoleKey).(model.Role); ok {
		return v
	}
	return ""
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func extractToken(r *http.Request) string {
	if token := r.Header.Get("x-auth-token"); token != "" {
		return token
	}
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
