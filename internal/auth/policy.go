package auth

import (
	"unicode"

	"github.com/agrimech/portal/internal/apperr"
)

const (
	MinPasswordLen = 8
	// MaxPasswordLen is bcrypt's input limit in bytes.
	MaxPasswordLen = 72
)

// ValidatePassword enforces the password policy: 8 to 72 bytes with at least one letter and one digit.
func ValidatePassword(pw string) error {
	if len(pw) < MinPasswordLen {
		return apperr.Validation("password must be at least %d characters", MinPasswordLen)
	}
	if len(pw) > MaxPasswordLen {
		return apperr.Validation("password must be at most %d bytes", MaxPasswordLen)
	}
	var letter, digit bool
	for _, r := range pw {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return apperr.Validation("password must contain a letter and a digit")
	}
	return nil
}
