package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goAccount/user"
	"github.com/MrEthical07/goAccount/validate"
)

// DeliveryStatus reports what happened to a confirmation code.
type DeliveryStatus uint8

const (
	// DeliveryNotAttempted means no sender is configured. The code is still
	// attached to the account.
	DeliveryNotAttempted DeliveryStatus = iota
	// DeliverySent means the code was attached and accepted by the sender.
	DeliverySent
	// DeliveryNoCode means the code could not be attached or sent.
	DeliveryNoCode
)

// Delivery is the outcome of one delivery attempt; Err holds the cause of a
// DeliveryNoCode status.
type Delivery struct {
	Status DeliveryStatus
	Err    error
}

// ConfirmationFailureKind classifies verify and resend failures.
type ConfirmationFailureKind int

const (
	ConfirmationFailureNone ConfirmationFailureKind = iota
	ConfirmationFailureValidation
	ConfirmationFailureUserNotFound
	ConfirmationFailureIncorrectCode
	ConfirmationFailureRegistered
	ConfirmationFailureStore
)

// ConfirmationResult carries the updated account or failure metadata.
type ConfirmationResult struct {
	Failure      ConfirmationFailureKind
	Err          error
	RegisteredBy user.Provenance
	User         *user.User
	Delivery     Delivery
}

// ConfirmationDeps captures confirmation-code dependencies. Send is nil when
// no email service is configured.
type ConfirmationDeps struct {
	NewCode     func() (string, error)
	FindByID    func(context.Context, string) (*user.User, error)
	FindByEmail func(context.Context, string) (*user.User, error)
	Update      func(context.Context, string, user.Patch) (*user.User, error)
	Consume     func(ctx context.Context, id, code string) (*user.User, error)
	Send        func(ctx context.Context, to, code, authToken string) error
}

// RunDeliverCode attaches a fresh code to u and hands it to the sender. The
// code is attached before sending so it is valid by the time the email lands.
func RunDeliverCode(ctx context.Context, u *user.User, authToken string, deps ConfirmationDeps) Delivery {
	code, err := deps.NewCode()
	if err != nil {
		return Delivery{Status: DeliveryNoCode, Err: err}
	}
	if _, err := deps.Update(ctx, u.ID, user.Patch{ConfirmationCode: &code}); err != nil {
		return Delivery{Status: DeliveryNoCode, Err: err}
	}
	if deps.Send == nil {
		return Delivery{Status: DeliveryNotAttempted}
	}
	if err := deps.Send(ctx, u.Email, code, authToken); err != nil {
		return Delivery{Status: DeliveryNoCode, Err: err}
	}
	return Delivery{Status: DeliverySent}
}

// RunVerifyCode consumes the pending code of userID. A mismatch changes
// nothing; a match clears the code and confirms the account in one store
// operation, so a code is accepted at most once.
func RunVerifyCode(ctx context.Context, userID, code string, deps ConfirmationDeps) ConfirmationResult {
	if err := validate.Required("confirmationCode", code); err != nil {
		return ConfirmationResult{Failure: ConfirmationFailureValidation, Err: err}
	}

	u, err := deps.Consume(ctx, userID, code)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return ConfirmationResult{Failure: ConfirmationFailureUserNotFound}
		case errors.Is(err, user.ErrCodeMismatch):
			return ConfirmationResult{Failure: ConfirmationFailureIncorrectCode}
		default:
			return ConfirmationResult{Failure: ConfirmationFailureStore, Err: err}
		}
	}
	return ConfirmationResult{User: u}
}

// RunResendCode moves the account to newEmail and sends a fresh code there.
// The email change is the authoritative effect; a failed delivery is only
// reported in the result.
func RunResendCode(ctx context.Context, userID, newEmail, authToken string, deps ConfirmationDeps) ConfirmationResult {
	if err := validate.Required("email", newEmail); err != nil {
		return ConfirmationResult{Failure: ConfirmationFailureValidation, Err: err}
	}
	if err := validate.Email(newEmail); err != nil {
		return ConfirmationResult{Failure: ConfirmationFailureValidation, Err: err}
	}
	email := normalizeEmail(newEmail)

	if _, err := deps.FindByID(ctx, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ConfirmationResult{Failure: ConfirmationFailureUserNotFound}
		}
		return ConfirmationResult{Failure: ConfirmationFailureStore, Err: err}
	}

	if owner, err := deps.FindByEmail(ctx, email); err == nil && owner.ID != userID {
		return ConfirmationResult{Failure: ConfirmationFailureRegistered, RegisteredBy: owner.Provenance}
	} else if err != nil && !errors.Is(err, user.ErrNotFound) {
		return ConfirmationResult{Failure: ConfirmationFailureStore, Err: err}
	}

	u, err := deps.Update(ctx, userID, user.Patch{Email: &email})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			return ConfirmationResult{Failure: ConfirmationFailureUserNotFound}
		case errors.Is(err, user.ErrDuplicateEmail):
			return ConfirmationResult{Failure: ConfirmationFailureRegistered, RegisteredBy: registeredBy(ctx, deps.FindByEmail, email)}
		default:
			return ConfirmationResult{Failure: ConfirmationFailureStore, Err: err}
		}
	}

	return ConfirmationResult{User: u, Delivery: RunDeliverCode(ctx, u, authToken, deps)}
}
