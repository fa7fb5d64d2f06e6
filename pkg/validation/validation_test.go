package validation

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"valid email", "user@example.com", false},
		{"valid email with subdomain", "user@mail.example.com", false},
		{"empty email", "", true},
		{"invalid format", "invalid-email", true},
		{"missing @", "userexample.com", true},
		{"too long", strings.Repeat("a", 250) + "@example.com", true},
		{"valid with plus", "user+tag@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid password", "secret12", false},
		{"too short", "abc", true},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePassword() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateProgramCode(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{"valid code", "LIVELIHOOD-01", false},
		{"valid short", "AK", false},
		{"empty", "", true},
		{"lowercase", "livelihood", true},
		{"too long", strings.Repeat("A", 21), true},
		{"spaces", "LIVELIHOOD 01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProgramCode(tt.code)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateProgramCode() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFullName(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		wantErr  bool
	}{
		{"valid name", "Maria Dela Cruz", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", 121), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFullName(tt.fullName)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFullName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
