package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Roll        string     `json:"roll" db:"roll" example:"20HN1A0501"`
	Email       string     `json:"email" db:"email" example:"student@college.edu"`
	Password    string     `json:"-" db:"password"`
	IsAdmin     bool       `json:"isAdmin" db:"is_admin" example:"false"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

// Role returns the role carried in access tokens
func (u *User) Role() RoleType {
	if u.IsAdmin {
		return RoleAdmin
	}
	return RoleStudent
}
