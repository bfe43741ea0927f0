// Package mongo persists accounts in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/user"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mdb "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultCollection is the collection used when none is configured.
const DefaultCollection = "users"

// Store implements user.Store on a single collection.
type Store struct {
	coll *mdb.Collection
	now  func() time.Time
}

// New returns a Store on db.collection. Call EnsureIndexes once at startup.
func New(db *mdb.Database, collection string) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Store{coll: db.Collection(collection), now: time.Now}
}

// EnsureIndexes creates the unique email index and the nickname lookup index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mdb.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "nickname", Value: 1}},
			Options: options.Index().SetName("nickname"),
		},
	})
	if err != nil {
		return fmt.Errorf("ensure user indexes: %w", err)
	}
	return nil
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, user.ErrNotFound
	}
	return oid, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*user.User, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mdb.ErrNoDocuments) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toUser(), nil
}

// FindByID loads the document with the given ObjectID hex.
func (s *Store) FindByID(ctx context.Context, id string) (*user.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, bson.M{"_id": oid})
}

// FindByEmail loads the document by lowercased email.
func (s *Store) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

// FindByNickname loads the first document with nickname.
func (s *Store) FindByNickname(ctx context.Context, nickname string) (*user.User, error) {
	return s.findOne(ctx, bson.M{"nickname": nickname})
}

// List returns every account ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*user.User, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]*user.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toUser())
	}
	return out, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Create inserts u with a fresh ObjectID. A unique-index violation maps to
// user.ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, u *user.User) (*user.User, error) {
	doc := fromUser(u)
	doc.ID = primitive.NewObjectID()
	doc.Email = strings.ToLower(strings.TrimSpace(doc.Email))
	now := s.now().UTC().Truncate(time.Millisecond)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mdb.IsDuplicateKeyError(err) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return doc.toUser(), nil
}

func patchSet(p user.Patch) bson.M {
	set := bson.M{}
	if p.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*p.Email))
	}
	if p.Nickname != nil {
		set["nickname"] = *p.Nickname
	}
	if p.Birthday != nil {
		set["birthday"] = *p.Birthday
	}
	if p.CellPhone != nil {
		set["cellPhone"] = *p.CellPhone
	}
	if p.Gender != nil {
		set["gender"] = string(*p.Gender)
	}
	if p.ZipCode != nil {
		set["zipCode"] = *p.ZipCode
	}
	if p.ConfirmationCode != nil {
		set["confirmationCode"] = *p.ConfirmationCode
	}
	if p.FavoriteDrinks != nil {
		set["favoriteDrinks"] = nonNilFavorites(*p.FavoriteDrinks)
	}
	if p.FavoriteDishes != nil {
		set["favoriteDishes"] = nonNilFavorites(*p.FavoriteDishes)
	}
	return set
}

func (s *Store) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*user.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetUpsert(false)
	var doc userDocument
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mdb.ErrNoDocuments) {
			return nil, mdb.ErrNoDocuments
		}
		if mdb.IsDuplicateKeyError(err) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toUser(), nil
}

// Update $sets the patched fields and returns the document after the write.
func (s *Store) Update(ctx context.Context, id string, patch user.Patch) (*user.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	set := patchSet(patch)
	set["updatedAt"] = s.now().UTC().Truncate(time.Millisecond)

	u, err := s.findOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set})
	if errors.Is(err, mdb.ErrNoDocuments) {
		return nil, user.ErrNotFound
	}
	return u, err
}

// ConsumeConfirmationCode matches id and code in the filter of a single
// FindOneAndUpdate, so two concurrent calls can never both succeed.
func (s *Store) ConsumeConfirmationCode(ctx context.Context, id, code string) (*user.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return nil, s.missOrMismatch(ctx, oid, user.ErrCodeMismatch)
	}

	u, err := s.findOneAndUpdate(ctx,
		bson.M{"_id": oid, "confirmationCode": code},
		bson.M{"$set": bson.M{
			"confirmationCode": "",
			"confirm":          true,
			"updatedAt":        s.now().UTC().Truncate(time.Millisecond),
		}},
	)
	if errors.Is(err, mdb.ErrNoDocuments) {
		return nil, s.missOrMismatch(ctx, oid, user.ErrCodeMismatch)
	}
	return u, err
}

// AddPromotion pushes p in one FindOneAndUpdate whose filter excludes
// accounts already holding the code.
func (s *Store) AddPromotion(ctx context.Context, id string, p user.Promotion) (*user.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}

	u, err := s.findOneAndUpdate(ctx,
		bson.M{"_id": oid, "promotions.code": bson.M{"$ne": p.Code}},
		bson.M{
			"$push": bson.M{"promotions": p},
			"$set":  bson.M{"updatedAt": s.now().UTC().Truncate(time.Millisecond)},
		},
	)
	if errors.Is(err, mdb.ErrNoDocuments) {
		return nil, s.missOrMismatch(ctx, oid, user.ErrPromotionExists)
	}
	return u, err
}

// missOrMismatch tells a conditional update that found no document apart
// from one that found the document but not the condition.
func (s *Store) missOrMismatch(ctx context.Context, oid primitive.ObjectID, mismatch error) error {
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("count user: %w", err)
	}
	if n == 0 {
		return user.ErrNotFound
	}
	return mismatch
}

var _ user.Store = (*Store)(nil)
