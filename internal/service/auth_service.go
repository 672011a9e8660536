package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"proctorexam/internal/model"
	"proctorexam/internal/repository"
)

// AuthService handles admin and student accounts and their tokens
type AuthService struct {
	users       repository.UserRepo
	jwtSecret   []byte
	adminSecret string
	tokenTTL    time.Duration
	hashCost    int
}

// NewAuthService creates a new auth service
func NewAuthService(users repository.UserRepo, jwtSecret, adminSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:       users,
		jwtSecret:   []byte(jwtSecret),
		adminSecret: adminSecret,
		tokenTTL:    tokenTTL,
		hashCost:    bcrypt.DefaultCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// secretMatches reports whether key unlocks admin access. With no admin
// secret configured nobody can register as admin.
func (s *AuthService) secretMatches(key string) bool {
	if s.adminSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.adminSecret)) == 1
}

// Register creates an account and signs the user in
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}

	switch {
	case name == "":
		return nil, invalid("name", "is required")
	case email == "":
		return nil, invalid("email", "is required")
	case req.Password == "":
		return nil, invalid("password", "is required")
	case role != model.RoleStudent && role != model.RoleAdmin:
		return nil, invalid("role", "must be %q or %q", model.RoleStudent, model.RoleAdmin)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("email", "is not a valid address")
	}

	if role == model.RoleAdmin && !s.secretMatches(req.SecretKey) {
		return nil, ErrInvalidAdminSecret
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID, "role", user.Role)
	return s.respond(user)
}

// Login checks credentials. Admin accounts also need the admin secret.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if user.IsBlocked {
		return nil, ErrAccountBlocked
	}
	if user.Role == model.RoleAdmin && s.adminSecret != "" && !s.secretMatches(req.SecretKey) {
		return nil, ErrInvalidAdminSecret
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.respond(user)
}

// Me returns the signed-in user unless the account was blocked or removed
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.IsBlocked {
		return nil, ErrAccountBlocked
	}
	return user, nil
}

func (s *AuthService) respond(user *model.User) (*model.AuthResponse, error) {
	token, err := s.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &model.AuthResponse{Token: token, User: user.Summary()}, nil
}

// IssueToken signs a {id, role} token valid for the configured TTL
func (s *AuthService) IssueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := &model.UserClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT and returns claims
func (s *AuthService) ValidateToken(tokenString string) (*model.UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.UserClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
