package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// ProgramCodeRegex validates program code format
	ProgramCodeRegex = regexp.MustCompile(`^[A-Z0-9][A-Z0-9\-]{1,19}$`)
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword validates password
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password is too long (max 128 characters)")
	}
	return nil
}

// ValidateFullName validates a person's display name
func ValidateFullName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("full name is required")
	}
	if utf8.RuneCountInString(name) > 120 {
		return fmt.Errorf("full name is too long (max 120 characters)")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("full name contains invalid characters")
	}
	return nil
}

// ValidateProgramCode validates a program's short code, e.g. "LIVELIHOOD-01"
func ValidateProgramCode(code string) error {
	if code == "" {
		return fmt.Errorf("program code is required")
	}
	if !ProgramCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid program code format (uppercase letters, digits and dashes, 2-20 characters)")
	}
	return nil
}

// ValidateProgramName validates a program name
func ValidateProgramName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("program name is required")
	}
	if utf8.RuneCountInString(name) > 200 {
		return fmt.Errorf("program name is too long (max 200 characters)")
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("program name contains invalid characters")
	}
	return nil
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
