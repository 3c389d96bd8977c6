package security

import (
	"regexp"
	"strings"

	"github.com/nexuscore/nexus/internal/apperr"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	specialChars = "!@#$%^&*()_-+={}[]\\|:;\"'<>,.?/"
)

func isValidUsername(username string) bool {
	if len(username) < 3 || len(username) > 32 {
		return false
	}
	return usernamePattern.MatchString(username)
}

func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailPattern.MatchString(email)
}

// PasswordPolicy mirrors the configuration-driven password rules.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
	RequireSpecial   bool
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:        8,
		RequireUppercase: true,
		RequireLowercase: true,
		RequireDigit:     true,
		RequireSpecial:   true,
	}
}

func validatePassword(password string, policy PasswordPolicy) error {
	if password == "" {
		return apperr.New(apperr.KindValidation, "password cannot be empty")
	}
	if len(password) < policy.MinLength {
		return apperr.Newf(apperr.KindValidation, "password must be at least %d characters long", policy.MinLength)
	}
	if policy.RequireUppercase && !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return apperr.New(apperr.KindValidation, "password must contain at least one uppercase letter")
	}
	if policy.RequireLowercase && !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		return apperr.New(apperr.KindValidation, "password must contain at least one lowercase letter")
	}
	if policy.RequireDigit && !strings.ContainsAny(password, "0123456789") {
		return apperr.New(apperr.KindValidation, "password must contain at least one digit")
	}
	if policy.RequireSpecial && !strings.ContainsAny(password, specialChars) {
		return apperr.New(apperr.KindValidation, "password must contain at least one special character")
	}
	return nil
}
