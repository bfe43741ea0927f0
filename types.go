package goAccount

import (
	"context"

	"github.com/MrEthical07/goAccount/mailer"
	"github.com/MrEthical07/goAccount/user"
)

// EmailDelivery reports the fate of a confirmation code. It serializes as
// true, false or "no_code".
type EmailDelivery uint8

const (
	// EmailNotSent means no email service is wired. The code is still stored.
	EmailNotSent EmailDelivery = iota
	// EmailSent means the email service accepted the code.
	EmailSent
	// EmailNoCode means the code could not be attached or delivered.
	EmailNoCode
)

func (d EmailDelivery) MarshalJSON() ([]byte, error) {
	switch d {
	case EmailSent:
		return []byte("true"), nil
	case EmailNoCode:
		return []byte(`"no_code"`), nil
	default:
		return []byte("false"), nil
	}
}

func (d EmailDelivery) String() string {
	switch d {
	case EmailSent:
		return "sent"
	case EmailNoCode:
		return "no_code"
	default:
		return "not_sent"
	}
}

// Sender hands a rendered message to the email service. *mailer.Client
// satisfies it.
type Sender interface {
	Send(ctx context.Context, msg mailer.Message) error
}

/*
====================================
REQUESTS
====================================
*/

// SignUpRequest is the email sign-up payload.
type SignUpRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Birthday  string `json:"birthday"`
	ZipCode   string `json:"zipCode"`
	Gender    string `json:"gender"`
	CellPhone string `json:"cellPhone"`
}

// LoginRequest is the email login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SocialSignInRequest carries a provider credential. UserID is the
// provider's id of the account, required by Apple. Email stands in only when
// the provider vouches for none, and a returning account must still belong
// to the verified provider subject.
type SocialSignInRequest struct {
	Provider string `json:"-"`
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
}

// ProfileUpdate lists the editable profile fields. Nil fields are unchanged.
// Nickname is honored only when the policy allows it.
type ProfileUpdate struct {
	Birthday  *string `json:"birthday"`
	CellPhone *string `json:"cellPhone"`
	Gender    *string `json:"gender"`
	ZipCode   *string `json:"zipCode"`
	Nickname  *string `json:"nickname"`
}

// PreferenceKind selects which favorites list UpdatePreferences replaces.
type PreferenceKind string

const (
	PreferenceDrinks PreferenceKind = "drinks"
	PreferenceDishes PreferenceKind = "dishes"
)

/*
====================================
RESULTS
====================================
*/

// SignUpResult is returned by Engine.SignUp.
type SignUpResult struct {
	OK           bool          `json:"ok"`
	User         *user.User    `json:"user"`
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken"`
	SentEmail    EmailDelivery `json:"sentEmail"`
}

// LoginResult is returned by Engine.Login.
type LoginResult struct {
	OK           bool       `json:"ok"`
	User         *user.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
}

// SocialSignInResult is returned by Engine.SocialSignIn. SignUp is true when
// the call created the account.
type SocialSignInResult struct {
	OK           bool       `json:"ok"`
	User         *user.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
	SignUp       bool       `json:"signUp"`
}

// RefreshResult is returned by Engine.Refresh.
type RefreshResult struct {
	OK           bool       `json:"ok"`
	User         *user.User `json:"user"`
	Token        string     `json:"token"`
	RefreshToken string     `json:"refreshToken"`
}

// UserResult wraps a single account.
type UserResult struct {
	OK   bool       `json:"ok"`
	User *user.User `json:"user"`
}

// UsersResult is returned by Engine.ListUsers.
type UsersResult struct {
	OK    bool         `json:"ok"`
	Users []*user.User `json:"users"`
	Count int64        `json:"count"`
}

// ConfirmationResult is returned by Engine.ResendConfirmationCode.
type ConfirmationResult struct {
	OK        bool          `json:"ok"`
	User      *user.User    `json:"user"`
	SentEmail EmailDelivery `json:"sentEmail"`
}
