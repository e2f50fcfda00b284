package auth

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinPasswordLength is the shortest accepted new password, counted in characters.
const MinPasswordLength = 8

// MaxPasswordBytes is the longest secret bcrypt accepts.
const MaxPasswordBytes = 72

// ValidateNewPassword applies the password policy for identity. The username
// check runs first so a password equal to the username always reports
// ErrPasswordEqualsUsername.
func ValidateNewPassword(identity, secret string) error {
	if strings.EqualFold(strings.TrimSpace(identity), secret) {
		return ErrPasswordEqualsUsername
	}
	if utf8.RuneCountInString(secret) < MinPasswordLength {
		return fmt.Errorf("%w: sekurang-kurangnya %d aksara", ErrWeakPassword, MinPasswordLength)
	}
	if len(secret) > MaxPasswordBytes {
		return fmt.Errorf("%w: tidak boleh melebihi %d bait", ErrWeakPassword, MaxPasswordBytes)
	}
	var upper, lower, digit bool
	for _, r := range secret {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return fmt.Errorf("%w: perlu sekurang-kurangnya satu huruf besar", ErrWeakPassword)
	case !lower:
		return fmt.Errorf("%w: perlu sekurang-kurangnya satu huruf kecil", ErrWeakPassword)
	case !digit:
		return fmt.Errorf("%w: perlu sekurang-kurangnya satu digit", ErrWeakPassword)
	}
	return nil
}
