package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proctorexam/internal/model"
)

func TestRegister(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp, err := e.auth.Register(ctx, &model.RegisterRequest{
		Name: "Ada", Email: " Ada@Example.com ", Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, model.RoleStudent, resp.User.Role)

	stored, err := e.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, "hunter22", stored.PasswordHash)

	_, err = e.auth.Register(ctx, &model.RegisterRequest{Name: "Ada", Email: "ada@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterRejects(t *testing.T) {
	tests := []struct {
		name string
		req  model.RegisterRequest
		want error
	}{
		{"admin without secret", model.RegisterRequest{Name: "A", Email: "a@x.io", Password: "p", Role: model.RoleAdmin}, ErrInvalidAdminSecret},
		{"admin with wrong secret", model.RegisterRequest{Name: "A", Email: "a@x.io", Password: "p", Role: model.RoleAdmin, SecretKey: "nope"}, ErrInvalidAdminSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.auth.Register(context.Background(), &tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	invalidReqs := map[string]model.RegisterRequest{
		"missing name":  {Email: "a@x.io", Password: "p"},
		"missing email": {Name: "A", Password: "p"},
		"bad email":     {Name: "A", Email: "not-an-email", Password: "p"},
		"no password":   {Name: "A", Email: "a@x.io"},
		"unknown role":  {Name: "A", Email: "a@x.io", Password: "p", Role: "moderator"},
	}
	for name, req := range invalidReqs {
		t.Run(name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.auth.Register(context.Background(), &req)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestRegisterAdminWithSecret(t *testing.T) {
	e := newEnv(t)
	resp, err := e.auth.Register(context.Background(), &model.RegisterRequest{
		Name: "Root", Email: "root@x.io", Password: "pw", Role: model.RoleAdmin, SecretKey: "admin-key",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
}

func TestLogin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.auth.Register(ctx, &model.RegisterRequest{Name: "Ada", Email: "ada@x.io", Password: "secret"})
	require.NoError(t, err)
	_, err = e.auth.Register(ctx, &model.RegisterRequest{Name: "Root", Email: "root@x.io", Password: "secret", Role: model.RoleAdmin, SecretKey: "admin-key"})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  model.LoginRequest
		want error
	}{
		{"student ok", model.LoginRequest{Email: "ada@x.io", Password: "secret"}, nil},
		{"case-insensitive email", model.LoginRequest{Email: "ADA@x.io", Password: "secret"}, nil},
		{"wrong password", model.LoginRequest{Email: "ada@x.io", Password: "guess"}, ErrInvalidCredentials},
		{"unknown email", model.LoginRequest{Email: "who@x.io", Password: "secret"}, ErrInvalidCredentials},
		{"admin ok", model.LoginRequest{Email: "root@x.io", Password: "secret", SecretKey: "admin-key"}, nil},
		{"admin missing secret", model.LoginRequest{Email: "root@x.io", Password: "secret"}, ErrInvalidAdminSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := e.auth.Login(ctx, &tt.req)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Token)
		})
	}
}

func TestLoginBlocked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp, err := e.auth.Register(ctx, &model.RegisterRequest{Name: "Ada", Email: "ada@x.io", Password: "secret"})
	require.NoError(t, err)
	require.NoError(t, e.users.SetBlocked(ctx, resp.User.ID, true))

	_, err = e.auth.Login(ctx, &model.LoginRequest{Email: "ada@x.io", Password: "secret"})
	assert.ErrorIs(t, err, ErrAccountBlocked)

	_, err = e.auth.Me(ctx, resp.User.ID)
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestTokens(t *testing.T) {
	e := newEnv(t)
	user := &model.User{ID: "64b7f0c2a1b2c3d4e5f60718", Role: model.RoleAdmin}

	token, err := e.auth.IssueToken(user)
	require.NoError(t, err)

	claims, err := e.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)

	other := NewAuthService(e.users, "another-secret", "", time.Hour)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &model.UserClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})
	signed, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = e.auth.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = e.auth.ValidateToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
