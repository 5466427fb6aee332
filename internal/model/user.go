// Package model defines domain entities for the application.
package model

import "time"

// Column limits for the users table.
const (
	MaxUserNameLength = 100
	MaxAPIKeyLength   = 100
)

// User is an account that can generate websites.
// APIKey is the upstream provider key used as the bearer for completions.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	APIKey       string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HasAPIKey reports whether the user can call the upstream provider.
func (u *User) HasAPIKey() bool {
	return u != nil && u.APIKey != ""
}

// Profile returns the public view of the user.
func (u *User) Profile() *UserProfile {
	return &UserProfile{ID: u.ID, Name: u.Name}
}

// UserProfile is the public part of a user, safe to cache and return.
type UserProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AuthContext holds authenticated request context.
// This is injected into the request context by auth middleware.
type AuthContext struct {
	UserID   string
	UserName string
	TokenID  string
}
