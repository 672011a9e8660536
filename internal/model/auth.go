package model

import "github.com/golang-jwt/jwt/v5"

// UserClaims are JWT claims issued at login/register
type UserClaims struct {
	UserID string `json:"id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// RegisterRequest is the request body for POST /api/auth/register
type RegisterRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
	SecretKey string `json:"secretKey"`
}

// LoginRequest is the request body for POST /api/auth/login
type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	SecretKey string `json:"secretKey"`
}

// AuthResponse is returned after successful login or registration
type AuthResponse struct {
	Token string      `json:"token"`
	User  UserSummary `json:"user"`
}

// UserSummary is the public part of a user
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
