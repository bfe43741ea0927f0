package flows

import (
	"time"

	"github.com/MrEthical07/goAccount/user"
	"github.com/MrEthical07/goAccount/validate"
)

// Policy is the flow-local view of the account policy.
type Policy struct {
	RequireBirthday bool
	RequireZipCode  bool
	RequireGender   bool
	MinimumAge      int
	Password        validate.PasswordPolicy
}

func (p Policy) passwordPolicy() validate.PasswordPolicy {
	if p.Password.MaxLength == 0 {
		return validate.DefaultPasswordPolicy
	}
	return p.Password
}

// SignUpInput is the raw sign-up payload.
type SignUpInput struct {
	Email     string
	Password  string
	Birthday  string
	ZipCode   string
	Gender    string
	CellPhone string
}

// ParsedSignUp is SignUpInput after every check passed.
type ParsedSignUp struct {
	Email     string
	Password  string
	Birthday  time.Time
	ZipCode   string
	Gender    user.Gender
	CellPhone string
}

// ValidateSignUp applies the checks in their fixed order and returns the
// first failure: email presence, email format, birthday, zipCode and gender
// presence (as the policy requires), password presence, password format,
// then birthday format and age, then the gender enum.
func ValidateSignUp(in SignUpInput, policy Policy, now time.Time) (ParsedSignUp, error) {
	if err := validate.Required("email", in.Email); err != nil {
		return ParsedSignUp{}, err
	}
	if err := validate.Email(in.Email); err != nil {
		return ParsedSignUp{}, err
	}
	if policy.RequireBirthday {
		if err := validate.Required("birthday", in.Birthday); err != nil {
			return ParsedSignUp{}, err
		}
	}
	if policy.RequireZipCode {
		if err := validate.Required("zipCode", in.ZipCode); err != nil {
			return ParsedSignUp{}, err
		}
	}
	if policy.RequireGender {
		if err := validate.Required("gender", in.Gender); err != nil {
			return ParsedSignUp{}, err
		}
	}
	if err := validate.Required("password", in.Password); err != nil {
		return ParsedSignUp{}, err
	}
	if err := policy.passwordPolicy().Check(in.Password); err != nil {
		return ParsedSignUp{}, err
	}

	out := ParsedSignUp{
		Email:     normalizeEmail(in.Email),
		Password:  in.Password,
		ZipCode:   in.ZipCode,
		Gender:    user.GenderFemale,
		CellPhone: in.CellPhone,
	}
	if in.Birthday != "" {
		b, err := validate.ParseDate("birthday", in.Birthday)
		if err != nil {
			return ParsedSignUp{}, err
		}
		if policy.MinimumAge > 0 {
			if err := validate.Birthday(b, now, policy.MinimumAge); err != nil {
				return ParsedSignUp{}, err
			}
		}
		out.Birthday = b
	}
	if in.Gender != "" {
		g, err := validate.Gender(in.Gender)
		if err != nil {
			return ParsedSignUp{}, err
		}
		out.Gender = g
	}
	return out, nil
}

// ValidateCredentials checks a login payload: email presence, email format,
// password presence, password format.
func ValidateCredentials(email, password string, policy Policy) error {
	if err := validate.Required("email", email); err != nil {
		return err
	}
	if err := validate.Email(email); err != nil {
		return err
	}
	if err := validate.Required("password", password); err != nil {
		return err
	}
	return policy.passwordPolicy().Check(password)
}
