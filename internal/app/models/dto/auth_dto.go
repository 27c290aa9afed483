package dto

import "time"

// RegisterRequest represents a student registration
type RegisterRequest struct {
	Roll     string `json:"roll" binding:"required,roll" example:"20HN1A0501"`
	Email    string `json:"email" binding:"required,email" example:"student@college.edu"`
	Password string `json:"password" binding:"required,password" example:"results2025"`
}

// LoginRequest represents login credentials. Either roll or email identifies the account.
type LoginRequest struct {
	Roll     string `json:"roll" binding:"required_without=Email" example:"20HN1A0501"`
	Email    string `json:"email" binding:"omitempty,email" example:"student@college.edu"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// UserProfile is the public view of an account
type UserProfile struct {
	ID          int64      `json:"id" example:"1"`
	Roll        string     `json:"roll" example:"20HN1A0501"`
	Email       string     `json:"email" example:"student@college.edu"`
	Role        string     `json:"role" example:"STUDENT" enums:"STUDENT,ADMIN"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  UserProfile   `json:"user"`
}
