package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role is the permission level attached to an identity.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Elevated reports whether the role may manage course content and moderate
// other people's posts.
func (r Role) Elevated() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// JWTClaims are embedded in issued access tokens.
type JWTClaims struct {
	UserID string `json:"uid"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// LoginRequest holds credentials. Username is a student id, a student e-mail
// or the staff account name.
type LoginRequest struct {
	Username string `mapstructure:"username" validate:"required"`
	Password string `mapstructure:"password" validate:"required"`
}

// LoginResponse returns the issued token and who it belongs to.
type LoginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	User        UserInfo `json:"user"`
}

// UserInfo describes the authenticated principal in responses.
type UserInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// ChangePasswordRequest is the body of students?action=change_password.
type ChangePasswordRequest struct {
	StudentID       string `mapstructure:"student_id" validate:"required"`
	CurrentPassword string `mapstructure:"current_password" validate:"required"`
	NewPassword     string `mapstructure:"new_password" validate:"required,min=8"`
}
