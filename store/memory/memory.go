// Package memory is a process-local user.Store for tests and single-node
// development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goAccount/user"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store keeps accounts in a map guarded by one mutex. Every compare-and-write
// operation runs entirely under the lock.
type Store struct {
	mu      sync.Mutex
	byID    map[string]*user.User
	byEmail map[string]string
	now     func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:    make(map[string]*user.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FindByID returns a copy of the account with id, or user.ErrNotFound.
func (s *Store) FindByID(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u.Clone(), nil
}

// FindByEmail looks the account up by its lowercased email.
func (s *Store) FindByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, user.ErrNotFound
	}
	return s.byID[id].Clone(), nil
}

// FindByNickname returns the first account with nickname.
func (s *Store) FindByNickname(_ context.Context, nickname string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.byID {
		if u.Nickname == nickname {
			return u.Clone(), nil
		}
	}
	return nil, user.ErrNotFound
}

// List returns every account ordered by creation time.
func (s *Store) List(_ context.Context) ([]*user.User, error) {
	s.mu.Lock()
	out := make([]*user.User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, u.Clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Count returns the number of stored accounts.
func (s *Store) Count(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byID)), nil
}

// Create assigns an ObjectID hex id and timestamps, then stores a copy of u.
// An email already in use fails with user.ErrDuplicateEmail.
func (s *Store) Create(_ context.Context, u *user.User) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(u.Email)
	if _, exists := s.byEmail[email]; exists {
		return nil, user.ErrDuplicateEmail
	}

	rec := u.Clone()
	rec.ID = primitive.NewObjectID().Hex()
	rec.Email = email
	now := s.now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	s.byID[rec.ID] = rec
	s.byEmail[email] = rec.ID
	return rec.Clone(), nil
}

// Update applies patch under the store lock and moves the email index when
// the email changes.
func (s *Store) Update(_ context.Context, id string, patch user.Patch) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if patch.Email != nil {
		email := normalizeEmail(*patch.Email)
		if owner, taken := s.byEmail[email]; taken && owner != id {
			return nil, user.ErrDuplicateEmail
		}
		delete(s.byEmail, rec.Email)
		s.byEmail[email] = id
		patch.Email = &email
	}
	patch.Apply(rec)
	rec.UpdatedAt = s.now().UTC()
	return rec.Clone(), nil
}

// ConsumeConfirmationCode clears the pending code and confirms the account
// when code matches. An empty code never matches.
func (s *Store) ConsumeConfirmationCode(_ context.Context, id, code string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if code == "" || rec.ConfirmationCode != code {
		return nil, user.ErrCodeMismatch
	}
	rec.ConfirmationCode = ""
	rec.Confirmed = true
	rec.UpdatedAt = s.now().UTC()
	return rec.Clone(), nil
}

// AddPromotion appends p unless the account already holds its code.
func (s *Store) AddPromotion(_ context.Context, id string, p user.Promotion) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	if rec.HasPromotion(p.Code) {
		return nil, user.ErrPromotionExists
	}
	rec.Promotions = append(rec.Promotions, p)
	rec.UpdatedAt = s.now().UTC()
	return rec.Clone(), nil
}

var _ user.Store = (*Store)(nil)
