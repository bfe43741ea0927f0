// Package user holds the account record, its enums, and the store contract
// the engine persists through.
package user

import (
	"regexp"
	"strings"
	"time"
)

// Role is the authorization tier carried in every token claim.
type Role string

const (
	RoleAdmin    Role = "ADMIN_ROLE"
	RoleEmployee Role = "EMPLOYEE"
	RoleUser     Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleUser:
		return true
	}
	return false
}

// Gender is the profile gender enum.
type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Valid reports whether g is MALE or FEMALE.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// DefaultPhoto is stored for accounts that never uploaded a picture.
const DefaultPhoto = "url_photo"

// Favorite is one entry of the favorite drinks or dishes lists.
type Favorite struct {
	ID          string `json:"id" bson:"id"`
	Name        string `json:"name" bson:"name"`
	Picture     string `json:"picture,omitempty" bson:"picture,omitempty"`
	Category    string `json:"category,omitempty" bson:"category,omitempty"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// Promotion is a redeemable offer attached to an account. Code is unique per user.
type Promotion struct {
	ID          string    `json:"id" bson:"id"`
	Code        string    `json:"code" bson:"code"`
	Name        string    `json:"name" bson:"name"`
	Type        string    `json:"type" bson:"type"`
	Value       string    `json:"value" bson:"value"`
	Description string    `json:"description" bson:"description"`
	StartDate   time.Time `json:"startDate" bson:"startDate"`
	EndDate     time.Time `json:"endDate" bson:"endDate"`
}

// User is the persisted account. PasswordHash and ConfirmationCode never leave
// the service in JSON.
type User struct {
	ID               string      `json:"_id"`
	Email            string      `json:"email"`
	Nickname         string      `json:"nickname"`
	Username         string      `json:"username"`
	PasswordHash     string      `json:"-"`
	Role             Role        `json:"role"`
	Gender           Gender      `json:"gender"`
	Birthday         time.Time   `json:"birthday"`
	ZipCode          string      `json:"zipCode"`
	CellPhone        string      `json:"cellPhone"`
	Photo            string      `json:"photo"`
	Confirmed        bool        `json:"confirm"`
	ConfirmationCode string      `json:"-"`
	Provenance       Provenance  `json:"provenance"`
	FavoriteDrinks   []Favorite  `json:"favoriteDrinks"`
	FavoriteDishes   []Favorite  `json:"favoriteDishes"`
	Promotions       []Promotion `json:"promotions"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Claim is the minimal identity embedded in access and refresh tokens.
type Claim struct {
	ID       string `json:"_id"`
	Role     Role   `json:"role"`
	Nickname string `json:"nickname"`
}

// Claim returns the token claim for u.
func (u *User) Claim() Claim {
	return Claim{ID: u.ID, Role: u.Role, Nickname: u.Nickname}
}

// HasPromotion reports whether a promotion with code is already attached.
func (u *User) HasPromotion(code string) bool {
	for _, p := range u.Promotions {
		if p.Code == code {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so store implementations never share slices with callers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.FavoriteDrinks = append([]Favorite(nil), u.FavoriteDrinks...)
	out.FavoriteDishes = append([]Favorite(nil), u.FavoriteDishes...)
	out.Promotions = append([]Promotion(nil), u.Promotions...)
	return &out
}

var nicknameReplacer = regexp.MustCompile(`[^\w\s]`)

// NicknameFromEmail derives the public handle: every character that is neither
// a word character nor whitespace becomes '-', then the result is lowercased.
func NicknameFromEmail(email string) string {
	return strings.ToLower(nicknameReplacer.ReplaceAllString(email, "-"))
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// LooksLikeID reports whether s has the shape of a document id (24 hex chars).
func LooksLikeID(s string) bool {
	return objectIDPattern.MatchString(s)
}
