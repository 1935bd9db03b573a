package utils

import "testing"

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"local mobile to E164", "0917 123 4567", "+639171234567"},
		{"already E164", "+639171234567", "+639171234567"},
		{"free text kept verbatim", "ext. 402 / warehouse", "ext. 402 / warehouse"},
		{"trimmed", "  0917 123 4567  ", "+639171234567"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhoneNumber(tt.input, "PH"); got != tt.want {
				t.Errorf("NormalizePhoneNumber(%q) = %q; want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"buyer@example.com", "a.b+tag@sub.domain.ph"}
	for _, email := range valid {
		if !IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = false; want true", email)
		}
	}
	invalid := []string{"", "not-an-email", "missing@tld", "@example.com"}
	for _, email := range invalid {
		if IsValidEmail(email) {
			t.Errorf("IsValidEmail(%q) = true; want false", email)
		}
	}
}

func TestStringToDecimal(t *testing.T) {
	dec, err := StringToDecimal(" 12.50 ")
	if err != nil {
		t.Fatalf("StringToDecimal: %v", err)
	}
	if dec.String() != "12.5" {
		t.Errorf("dec = %s; want 12.5", dec.String())
	}

	if _, err := StringToDecimal(""); err == nil {
		t.Error("expected error for empty string")
	}
	if _, err := StringToDecimal("abc"); err == nil {
		t.Error("expected error for non-numeric string")
	}
}

func TestNilIfEmpty(t *testing.T) {
	if NilIfEmpty("") != nil {
		t.Error("NilIfEmpty(\"\") must be nil")
	}
	if got := NilIfEmpty("x"); got == nil || *got != "x" {
		t.Errorf("NilIfEmpty(\"x\") = %v", got)
	}
}
