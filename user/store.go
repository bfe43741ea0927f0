package user

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when a write would break email uniqueness.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrCodeMismatch is returned by ConsumeConfirmationCode when the pending
	// code differs from the submitted one. The record is left untouched.
	ErrCodeMismatch = errors.New("confirmation code mismatch")
	// ErrPromotionExists is returned by AddPromotion for a duplicate code.
	ErrPromotionExists = errors.New("promotion already exists")
)

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Email            *string
	Nickname         *string
	Birthday         *time.Time
	CellPhone        *string
	Gender           *Gender
	ZipCode          *string
	ConfirmationCode *string
	FavoriteDrinks   *[]Favorite
	FavoriteDishes   *[]Favorite
}

// Empty reports whether p changes nothing.
func (p Patch) Empty() bool {
	return p.Email == nil && p.Nickname == nil && p.Birthday == nil &&
		p.CellPhone == nil && p.Gender == nil && p.ZipCode == nil &&
		p.ConfirmationCode == nil && p.FavoriteDrinks == nil && p.FavoriteDishes == nil
}

// Apply writes p onto u. Store implementations without native partial
// updates use it.
func (p Patch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Nickname != nil {
		u.Nickname = *p.Nickname
	}
	if p.Birthday != nil {
		u.Birthday = *p.Birthday
	}
	if p.CellPhone != nil {
		u.CellPhone = *p.CellPhone
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.ZipCode != nil {
		u.ZipCode = *p.ZipCode
	}
	if p.ConfirmationCode != nil {
		u.ConfirmationCode = *p.ConfirmationCode
	}
	if p.FavoriteDrinks != nil {
		u.FavoriteDrinks = append([]Favorite(nil), (*p.FavoriteDrinks)...)
	}
	if p.FavoriteDishes != nil {
		u.FavoriteDishes = append([]Favorite(nil), (*p.FavoriteDishes)...)
	}
}

// Store persists accounts. Every method is safe for concurrent use.
//
// ConsumeConfirmationCode and AddPromotion must be single atomic operations:
// the comparison and the write happen in one step against the backing store.
type Store interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByNickname(ctx context.Context, nickname string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Count(ctx context.Context) (int64, error)

	// Create assigns ID, CreatedAt and UpdatedAt and returns the stored record.
	Create(ctx context.Context, u *User) (*User, error)
	// Update applies patch and returns the record after the write.
	Update(ctx context.Context, id string, patch Patch) (*User, error)
	// ConsumeConfirmationCode clears the pending code and marks the account
	// confirmed only if the pending code equals code.
	ConsumeConfirmationCode(ctx context.Context, id, code string) (*User, error)
	// AddPromotion appends p unless a promotion with the same code exists.
	AddPromotion(ctx context.Context, id string, p Promotion) (*User, error)
}
