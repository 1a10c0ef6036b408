package crypto

import (
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"campushelp/helpdesk/internal/apperr"
)

// passwordSymbols is the accepted special-character set. The policy is:
// at least 8 characters, one digit, one uppercase, one lowercase and one
// character from this set, checked in that order.
const passwordSymbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// ValidatePassword reports the first unmet strength rule, nil if all pass.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperr.Validation("password_too_short")
	}
	var digit, upper, lower, symbol bool
	for _, char := range password {
		switch {
		case unicode.IsDigit(char):
			digit = true
		case unicode.IsUpper(char):
			upper = true
		case unicode.IsLower(char):
			lower = true
		}
		if strings.ContainsRune(passwordSymbols, char) {
			symbol = true
		}
	}
	if !digit {
		return apperr.Validation("password_needs_digit")
	}
	if !upper {
		return apperr.Validation("password_needs_uppercase")
	}
	if !lower {
		return apperr.Validation("password_needs_lowercase")
	}
	if !symbol {
		return apperr.Validation("password_needs_symbol")
	}
	return nil
}
