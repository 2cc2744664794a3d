package ipa

import (
	"strings"
	"testing"
)

func TestGeneratePassword(t *testing.T) {
	password, err := GeneratePassword(DefaultPasswordLength)
	if err != nil {
		t.Fatalf("GeneratePassword() error = %v", err)
	}

	if len(password) != DefaultPasswordLength {
		t.Errorf("password length = %d, want %d", len(password), DefaultPasswordLength)
	}

	for _, r := range password {
		if !strings.ContainsRune(passwordAlphabet, r) {
			t.Errorf("password contains %q, outside the allowed alphabet", r)
		}
	}
}

func TestGeneratePasswordLengths(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantLen int
	}{
		{"explicit length", 20, 20},
		{"zero falls back to default", 0, DefaultPasswordLength},
		{"negative falls back to default", -3, DefaultPasswordLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			password, err := GeneratePassword(tt.length)
			if err != nil {
				t.Fatalf("GeneratePassword(%d) error = %v", tt.length, err)
			}
			if len(password) != tt.wantLen {
				t.Errorf("password length = %d, want %d", len(password), tt.wantLen)
			}
		})
	}
}

func TestGeneratePasswordVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 16; i++ {
		password, err := GeneratePassword(DefaultPasswordLength)
		if err != nil {
			t.Fatalf("GeneratePassword() error = %v", err)
		}
		if seen[password] {
			t.Fatalf("password %q repeated", password)
		}
		seen[password] = true
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"country code prefix", "+905551234567", "5551234567"},
		{"trunk zero", "05551234567", "5551234567"},
		{"country code and spaces", "+90 555 123 45 67", "5551234567"},
		{"hyphens", "0555-123-45-67", "5551234567"},
		{"already bare", "5551234567", "5551234567"},
		{"only first trunk zero stripped", "05550001234", "5550001234"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizePhone(tt.phone, DefaultCountryCode, DefaultTrunkPrefix)
			if got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.phone, got, tt.want)
			}
		})
	}
}

func TestNormalizePhoneCustomPrefixes(t *testing.T) {
	got := NormalizePhone("+441632960961", "+44", "0")
	if got != "1632960961" {
		t.Errorf("NormalizePhone() = %q, want %q", got, "1632960961")
	}

	got = NormalizePhone("01632 960961", "+44", "0")
	if got != "1632960961" {
		t.Errorf("NormalizePhone() = %q, want %q", got, "1632960961")
	}
}

func TestMatchPhone(t *testing.T) {
	tests := []struct {
		name     string
		stored   []string
		supplied string
		want     bool
	}{
		{
			name:     "exact match",
			stored:   []string{"5551234567"},
			supplied: "5551234567",
			want:     true,
		},
		{
			name:     "stored with country code, supplied with trunk zero",
			stored:   []string{"+90 555 123 45 67"},
			supplied: "05551234567",
			want:     true,
		},
		{
			name:     "second number matches",
			stored:   []string{"5550000000", "+905551234567"},
			supplied: "0555 123-45-67",
			want:     true,
		},
		{
			name:     "no match",
			stored:   []string{"5551234567"},
			supplied: "5559999999",
			want:     false,
		},
		{
			name:     "no stored numbers",
			stored:   nil,
			supplied: "5551234567",
			want:     false,
		},
		{
			name:     "empty stored list",
			stored:   []string{},
			supplied: "5551234567",
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchPhone(tt.stored, tt.supplied, DefaultCountryCode, DefaultTrunkPrefix)
			if got != tt.want {
				t.Errorf("MatchPhone(%v, %q) = %v, want %v", tt.stored, tt.supplied, got, tt.want)
			}
		})
	}
}
