// Package validate provides the pure input checks applied before any account
// operation touches the store. Every failure is a *FieldError naming the
// offending field, so callers can report exactly one problem at a time.
package validate

import (
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/MrEthical07/goAccount/user"
)

var (
	ErrRequired        = errors.New("required")
	ErrInvalidEmail    = errors.New("invalid_email")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrUnderage        = errors.New("must_be_over_15_years")
	ErrInvalidDate     = errors.New("invalid_date")
	ErrInvalidGender   = errors.New("invalid_gender")
)

// Password rule identifiers reported in FieldError.Rules.
const (
	RuleLength    = "length_8_16"
	RuleUppercase = "uppercase"
	RuleDigit     = "digit"
	RuleSymbol    = "symbol"
	RuleCharset   = "charset"
)

// FieldError is a single validation failure.
type FieldError struct {
	Field  string
	Reason error
	Rules  []string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Reason
}

// Required fails when value is empty after trimming.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &FieldError{Field: field, Reason: ErrRequired}
	}
	return nil
}

var emailPattern = regexp.MustCompile(`^(([^<>()\[\]\.,;:\s@"]+(\.[^<>()\[\]\.,;:\s@"]+)*)|(".+"))@(([^<>()\[\]\.,;:\s@"]+\.)+[^<>()\[\]\.,;:\s@"]{2,})$`)

// Email checks the address shape.
func Email(s string) error {
	if !emailPattern.MatchString(s) {
		return &FieldError{Field: "email", Reason: ErrInvalidEmail}
	}
	return nil
}

// PasswordPolicy describes the accepted password shape.
type PasswordPolicy struct {
	MinLength int
	MaxLength int
	Symbols   string
}

// DefaultPasswordPolicy: 8 to 16 characters, one uppercase letter, one digit,
// one of !@#$%^&*, nothing outside letters, digits and those symbols.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength: 8,
	MaxLength: 16,
	Symbols:   "!@#$%^&*",
}

// Password checks s against DefaultPasswordPolicy.
func Password(s string) error {
	return DefaultPasswordPolicy.Check(s)
}

// Check reports every rule s violates in a single FieldError.
func (p PasswordPolicy) Check(s string) error {
	var (
		rules     []string
		hasUpper  bool
		hasDigit  bool
		hasSymbol bool
		badChar   bool
	)

	n := 0
	for _, r := range s {
		n++
		switch {
		case r <= unicode.MaxASCII && unicode.IsUpper(r):
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(p.Symbols, r):
			hasSymbol = true
		case r <= unicode.MaxASCII && unicode.IsLower(r):
		default:
			badChar = true
		}
	}

	if n < p.MinLength || n > p.MaxLength {
		rules = append(rules, RuleLength)
	}
	if !hasUpper {
		rules = append(rules, RuleUppercase)
	}
	if !hasDigit {
		rules = append(rules, RuleDigit)
	}
	if !hasSymbol {
		rules = append(rules, RuleSymbol)
	}
	if badChar {
		rules = append(rules, RuleCharset)
	}
	if len(rules) > 0 {
		return &FieldError{Field: "password", Reason: ErrInvalidPassword, Rules: rules}
	}
	return nil
}

// Birthday fails when birthday is later than now minus minAge years.
func Birthday(birthday, now time.Time, minAge int) error {
	if birthday.After(now.AddDate(-minAge, 0, 0)) {
		return &FieldError{Field: "birthday", Reason: ErrUnderage}
	}
	return nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, time.RFC3339Nano}

// ParseDate accepts YYYY-MM-DD or RFC 3339.
func ParseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &FieldError{Field: field, Reason: ErrInvalidDate}
}

// Gender parses MALE or FEMALE, ignoring case.
func Gender(s string) (user.Gender, error) {
	g := user.Gender(strings.ToUpper(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", &FieldError{Field: "gender", Reason: ErrInvalidGender}
	}
	return g, nil
}
