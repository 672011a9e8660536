package model

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

// User is a registered admin or student
type User struct {
	ID           string    `json:"_id" bson:"_id,omitempty"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	Role         Role      `json:"role" bson:"role"`
	IsBlocked    bool      `json:"isBlocked" bson:"isBlocked"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}
