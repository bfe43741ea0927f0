package mongo

import (
	"time"

	"github.com/MrEthical07/goAccount/user"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// userDocument is the persisted shape of a user.User. Older records carry the
// four provenance booleans instead of the provenance field.
type userDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Email            string             `bson:"email"`
	Nickname         string             `bson:"nickname"`
	Username         string             `bson:"username"`
	Password         string             `bson:"password"`
	Role             string             `bson:"role"`
	Gender           string             `bson:"gender"`
	Birthday         time.Time          `bson:"birthday,omitempty"`
	ZipCode          string             `bson:"zipCode"`
	CellPhone        string             `bson:"cellPhone"`
	Photo            string             `bson:"photo"`
	Confirm          bool               `bson:"confirm"`
	ConfirmationCode string             `bson:"confirmationCode"`
	Provenance       string             `bson:"provenance,omitempty"`
	FavoriteDrinks   []user.Favorite    `bson:"favoriteDrinks"`
	FavoriteDishes   []user.Favorite    `bson:"favoriteDishes"`
	Promotions       []user.Promotion   `bson:"promotions"`
	CreatedAt        time.Time          `bson:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt"`

	WithEmail bool `bson:"withEmail,omitempty"`
	Apple     bool `bson:"apple,omitempty"`
	Facebook  bool `bson:"facebook,omitempty"`
	Google    bool `bson:"google,omitempty"`
}

func fromUser(u *user.User) userDocument {
	return userDocument{
		Email:            u.Email,
		Nickname:         u.Nickname,
		Username:         u.Username,
		Password:         u.PasswordHash,
		Role:             string(u.Role),
		Gender:           string(u.Gender),
		Birthday:         u.Birthday,
		ZipCode:          u.ZipCode,
		CellPhone:        u.CellPhone,
		Photo:            u.Photo,
		Confirm:          u.Confirmed,
		ConfirmationCode: u.ConfirmationCode,
		Provenance:       string(u.Provenance),
		FavoriteDrinks:   nonNilFavorites(u.FavoriteDrinks),
		FavoriteDishes:   nonNilFavorites(u.FavoriteDishes),
		Promotions:       nonNilPromotions(u.Promotions),
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func (d userDocument) toUser() *user.User {
	prov, err := user.ParseProvenance(d.Provenance)
	if err != nil {
		prov = user.ProvenanceFromFlags(d.Apple, d.Facebook, d.Google)
	}
	return &user.User{
		ID:               d.ID.Hex(),
		Email:            d.Email,
		Nickname:         d.Nickname,
		Username:         d.Username,
		PasswordHash:     d.Password,
		Role:             user.Role(d.Role),
		Gender:           user.Gender(d.Gender),
		Birthday:         d.Birthday,
		ZipCode:          d.ZipCode,
		CellPhone:        d.CellPhone,
		Photo:            d.Photo,
		Confirmed:        d.Confirm,
		ConfirmationCode: d.ConfirmationCode,
		Provenance:       prov,
		FavoriteDrinks:   d.FavoriteDrinks,
		FavoriteDishes:   d.FavoriteDishes,
		Promotions:       d.Promotions,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

func nonNilFavorites(in []user.Favorite) []user.Favorite {
	if in == nil {
		return []user.Favorite{}
	}
	return in
}

func nonNilPromotions(in []user.Promotion) []user.Promotion {
	if in == nil {
		return []user.Promotion{}
	}
	return in
}
