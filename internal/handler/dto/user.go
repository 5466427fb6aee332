package dto

import "github.com/webagent/webagent/internal/model"

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	APIKey   string `json:"api_key"`
}

// LoginRequest carries credentials. Clients usually post them as an
// urlencoded form with username and password fields.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest represents the request body for refreshing tokens.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateAPIKeyRequest represents the request body for replacing the upstream key.
type UpdateAPIKeyRequest struct {
	NewAPIKey       string `json:"new_api_key"`
	CurrentPassword string `json:"current_password"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ToUserResponse converts a profile to its response form.
func ToUserResponse(p *model.UserProfile) UserResponse {
	return UserResponse{ID: p.ID, Name: p.Name}
}
