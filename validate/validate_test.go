package validate

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRequired(t *testing.T) {
	err := Required("email", "   ")
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "email" || !errors.Is(err, ErrRequired) {
		t.Fatalf("expected required email error, got %v", err)
	}
	if err := Required("email", "a@b.co"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEmail(t *testing.T) {
	valid := []string{"a@b.co", "jane.doe@example.com", "x_y+z@sub.domain.org", `"quoted name"@example.com`}
	for _, s := range valid {
		if err := Email(s); err != nil {
			t.Fatalf("Email(%q) = %v", s, err)
		}
	}
	invalid := []string{"", "plain", "a@b", "a@b.c", "a b@c.com", "a@@b.com", "a@b..com", ".a@b.com"}
	for _, s := range invalid {
		if err := Email(s); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("Email(%q) = %v, want invalid_email", s, err)
		}
	}
}

func TestPassword(t *testing.T) {
	tests := []struct {
		in    string
		rules []string
	}{
		{"Abc123!@", nil},
		{"Sixteen1!abcdefg", nil},
		{"abc12345", []string{RuleUppercase, RuleSymbol}},
		{"Ab1!", []string{RuleLength}},
		{"Seventeen1!abcdef", []string{RuleLength}},
		{"ABCDEFG!", []string{RuleDigit}},
		{"Abc123!(", []string{RuleCharset}},
		{"Abc 123!", []string{RuleCharset}},
		{"Ábc123!@", []string{RuleUppercase, RuleCharset}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := Password(tt.in)
			if tt.rules == nil {
				if err != nil {
					t.Fatalf("Password(%q) = %v", tt.in, err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) || !errors.Is(err, ErrInvalidPassword) {
				t.Fatalf("Password(%q) = %v, want invalid_password", tt.in, err)
			}
			if fe.Field != "password" {
				t.Fatalf("field = %q", fe.Field)
			}
			if !reflect.DeepEqual(fe.Rules, tt.rules) {
				t.Fatalf("rules = %v, want %v", fe.Rules, tt.rules)
			}
		})
	}
}

func TestBirthday(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	if err := Birthday(time.Date(2011, 6, 15, 0, 0, 0, 0, time.UTC), now, 15); err != nil {
		t.Fatalf("exactly fifteen should pass: %v", err)
	}
	if err := Birthday(time.Date(2011, 6, 16, 0, 0, 0, 0, time.UTC), now, 15); !errors.Is(err, ErrUnderage) {
		t.Fatalf("expected underage, got %v", err)
	}
}

func TestParseDateAndGender(t *testing.T) {
	if _, err := ParseDate("birthday", "1990-04-01"); err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if _, err := ParseDate("birthday", "1990-04-01T10:00:00Z"); err != nil {
		t.Fatalf("ParseDate rfc3339: %v", err)
	}
	if _, err := ParseDate("birthday", "01/04/1990"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected invalid_date, got %v", err)
	}
	if g, err := Gender("male"); err != nil || g != "MALE" {
		t.Fatalf("Gender(male) = %q, %v", g, err)
	}
	if _, err := Gender("other"); !errors.Is(err, ErrInvalidGender) {
		t.Fatalf("expected invalid_gender, got %v", err)
	}
}
