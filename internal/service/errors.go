// Package service provides business logic for the application.
package service

import "errors"

// Service errors.
var (
	ErrNameRequired     = errors.New("username is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrAPIKeyRequired   = errors.New("api key is required")
	ErrNameTooLong      = errors.New("username exceeds maximum length")
	ErrNameInvalid      = errors.New("username contains invalid characters")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length")
	ErrAPIKeyTooLong    = errors.New("api key exceeds maximum length")

	ErrUserNameTaken       = errors.New("username already registered")
	ErrInvalidCredentials  = errors.New("incorrect username or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenReused  = errors.New("refresh token already used")
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrUserNotFound        = errors.New("user not found")
	ErrIncorrectPassword   = errors.New("incorrect current password")

	ErrPromptRequired      = errors.New("prompt is required")
	ErrDescriptionRequired = errors.New("description is required")
	ErrMissingAPIKey       = errors.New("api key not found for user")
	ErrAnalysisFailed      = errors.New("image analysis failed")
)
