package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hongminglow/storefront-be/internal/models"
	"github.com/hongminglow/storefront-be/internal/storage"
)

var _ storage.UserStore = (*Store)(nil)

// Store keeps users in process memory. Used by tests and the "memory" driver.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]models.User
	byEmail map[string]string
}

// NewUserStore returns an empty store.
func NewUserStore() *Store {
	return &Store{
		byID:    map[string]models.User{},
		byEmail: map[string]string{},
	}
}

// CreateUser stores user unless its email or id is taken.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[user.Email]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	if _, exists := s.byID[user.ID]; exists {
		return models.User{}, storage.ErrAlreadyExists
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return user, nil
}

// FindByEmail looks up a user by exact email.
func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.byID[id], nil
}

// FindByID looks up a user by id.
func (s *Store) FindByID(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

// ListUsers returns all users, newest first.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.User, 0, len(s.byID))
	for _, u := range s.byID {
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateProfile applies the non-empty fields of update.
func (s *Store) UpdateProfile(_ context.Context, id string, update models.ProfileUpdate) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	if update.Email != "" && update.Email != user.Email {
		if _, taken := s.byEmail[update.Email]; taken {
			return models.User{}, storage.ErrAlreadyExists
		}
		delete(s.byEmail, user.Email)
		user.Email = update.Email
		s.byEmail[user.Email] = id
	}
	if update.Name != "" {
		user.Name = update.Name
	}
	user.UpdatedAt = time.Now().UTC()
	s.byID[id] = user
	return user, nil
}

// DeleteUser removes the user and frees its email.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, user.Email)
	return nil
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }
