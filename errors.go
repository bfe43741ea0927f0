package goAccount

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goAccount/user"
	"github.com/MrEthical07/goAccount/validate"
)

// Sentinel errors. Their text is the message reported to callers.
var (
	// ErrRegisteredUser is returned when the email already belongs to an account.
	ErrRegisteredUser = errors.New("registered_user")
	// ErrEmailNotFound is returned by Login for an unknown email.
	ErrEmailNotFound = errors.New("email_not_found")
	// ErrInvalidCredentials is returned by Login for a wrong password.
	ErrInvalidCredentials = errors.New("invalid_credentials")
	// ErrNotAuthorizedFinal is returned by Refresh when the refresh token is
	// missing, invalid or revoked. Clients must log in again.
	ErrNotAuthorizedFinal = errors.New("not_authorized_final")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrIncorrectCode      = errors.New("incorrect_code")
	ErrExistingPromotion  = errors.New("existing_promotion")
	ErrExpiredToken       = errors.New("expired_token")
	ErrNotAuthorized      = errors.New("not_authorized")
	ErrRoleNotAuthorized  = errors.New("role_not_authorized")
	ErrInvalidPreferences = errors.New("invalid_preferences")
	ErrInvalidProvider    = errors.New("invalid_provider")
	ErrInvalidNickname    = errors.New("invalid_nickname")
	ErrNicknameTaken      = errors.New("nickname_taken")
	// ErrInvalidBody is returned by the HTTP layer for a malformed JSON body.
	ErrInvalidBody = errors.New("invalid_body")

	ErrAppleKeyUnavailable = errors.New("apple_key_unavailable")
	ErrAppleTokenInvalid   = errors.New("apple_token_invalid")
	ErrAppleUserMismatch   = errors.New("apple_user_mismatch")
	ErrAppInvalid          = errors.New("app_invalid")
	ErrProviderUnavailable = errors.New("provider_unavailable")
	ErrEmailServiceTimeout = errors.New("email_service_timeout")

	// ErrInternal replaces every unexpected error in responses.
	ErrInternal       = errors.New("internal_error")
	ErrEngineNotReady = errors.New("engine not initialized")
)

// ErrorKind is the failure class of an error.
type ErrorKind uint8

const (
	// KindStore covers unexpected persistence failures and any unclassified error.
	KindStore ErrorKind = iota
	KindValidation
	KindAuthentication
	KindForbidden
	KindConflict
	KindNotFound
	KindExternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindExternal:
		return "external"
	default:
		return "store"
	}
}

// Failure is a classified error with the metadata callers need to react.
type Failure struct {
	Err          error
	Kind         ErrorKind
	Field        string
	RegisteredBy user.Provenance
	Provider     user.Provenance
	Rules        []string
	// cause is logged, never reported.
	cause error
}

func (f *Failure) Error() string {
	return f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func newFailure(kind ErrorKind, err error) *Failure {
	return &Failure{Kind: kind, Err: err}
}

func registeredFailure(field string, via user.Provenance) *Failure {
	if via == "" {
		via = user.ProvenanceEmail
	}
	return &Failure{Kind: KindConflict, Err: ErrRegisteredUser, Field: field, RegisteredBy: via}
}

func validationFailure(err error) *Failure {
	var fe *validate.FieldError
	if errors.As(err, &fe) {
		return &Failure{Kind: KindValidation, Err: fe.Reason, Field: fe.Field, Rules: fe.Rules}
	}
	return &Failure{Kind: KindValidation, Err: err}
}

func storeFailure(cause error) *Failure {
	return &Failure{Kind: KindStore, Err: ErrInternal, cause: cause}
}

var sentinelKinds = map[error]ErrorKind{
	ErrRegisteredUser:      KindConflict,
	ErrEmailNotFound:       KindValidation,
	ErrInvalidCredentials:  KindAuthentication,
	ErrNotAuthorizedFinal:  KindAuthentication,
	ErrUserNotFound:        KindNotFound,
	ErrIncorrectCode:       KindValidation,
	ErrExistingPromotion:   KindConflict,
	ErrExpiredToken:        KindAuthentication,
	ErrNotAuthorized:       KindAuthentication,
	ErrRoleNotAuthorized:   KindAuthentication,
	ErrInvalidPreferences:  KindValidation,
	ErrInvalidProvider:     KindValidation,
	ErrInvalidNickname:     KindValidation,
	ErrNicknameTaken:       KindConflict,
	ErrInvalidBody:         KindValidation,
	ErrAppleKeyUnavailable: KindExternal,
	ErrAppleTokenInvalid:   KindAuthentication,
	ErrAppleUserMismatch:   KindAuthentication,
	ErrAppInvalid:          KindAuthentication,
	ErrProviderUnavailable: KindExternal,
	ErrEmailServiceTimeout: KindExternal,
}

// KindOf classifies err. Unknown errors are KindStore.
func KindOf(err error) ErrorKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	var fe *validate.FieldError
	if errors.As(err, &fe) {
		return KindValidation
	}
	for sentinel, kind := range sentinelKinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindStore
}

// StatusCode maps err to its HTTP status class.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindExternal:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorBody is the err member of a failed response.
type ErrorBody struct {
	Message      string   `json:"message"`
	Field        string   `json:"field,omitempty"`
	RegisteredBy string   `json:"registered_by,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	Required     bool     `json:"required,omitempty"`
	Rules        []string `json:"rules,omitempty"`
}

// Envelope is the body of a failed response.
type Envelope struct {
	OK  bool       `json:"ok"`
	Err *ErrorBody `json:"err"`
}

// ErrorResponse translates err into a status code and body. Unclassified
// errors are reported as internal_error without their text.
func ErrorResponse(err error) (int, Envelope) {
	status := StatusCode(err)
	body := &ErrorBody{Message: ErrInternal.Error()}

	var f *Failure
	var fe *validate.FieldError
	switch {
	case errors.As(err, &f):
		if f.Kind != KindStore {
			body.Message = f.Err.Error()
		}
		body.Field = f.Field
		body.RegisteredBy = string(f.RegisteredBy)
		body.Provider = string(f.Provider)
		body.Rules = f.Rules
		body.Required = errors.Is(f.Err, validate.ErrRequired)
	case errors.As(err, &fe):
		body.Message = fe.Reason.Error()
		body.Field = fe.Field
		body.Rules = fe.Rules
		body.Required = errors.Is(fe.Reason, validate.ErrRequired)
	case status != http.StatusInternalServerError:
		for sentinel := range sentinelKinds {
			if errors.Is(err, sentinel) {
				body.Message = sentinel.Error()
				break
			}
		}
	}
	return status, Envelope{OK: false, Err: body}
}
