package service

import (
	"unicode"
	"unicode/utf8"

	"github.com/webagent/webagent/internal/model"
)

// MaxPasswordLength bounds the Argon2 input.
const MaxPasswordLength = 256

// ValidateUserName checks a trimmed user name.
func ValidateUserName(name string) error {
	if name == "" {
		return ErrNameRequired
	}

	if utf8.RuneCountInString(name) > model.MaxUserNameLength {
		return ErrNameTooLong
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrNameInvalid
		}
	}

	return nil
}

// ValidatePassword checks a password. Passwords are taken verbatim.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}

// ValidateAPIKey checks a trimmed upstream provider key.
func ValidateAPIKey(key string) error {
	if key == "" {
		return ErrAPIKeyRequired
	}
	if len(key) > model.MaxAPIKeyLength {
		return ErrAPIKeyTooLong
	}
	return nil
}
