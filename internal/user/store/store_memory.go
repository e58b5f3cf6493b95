package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/UltraQuamfy/contentify/internal/user/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
)

// InMemory stores users in memory for tests and local development.
type InMemory struct {
	mu     sync.RWMutex
	users  map[id.UserID]*models.User
	keyIdx map[string]id.UserID
}

// NewInMemory creates an in-memory user store.
func NewInMemory() *InMemory {
	return &InMemory{
		users:  make(map[id.UserID]*models.User),
		keyIdx: make(map[string]id.UserID),
	}
}

// FindByAPIKey looks up a user by their access token.
func (s *InMemory) FindByAPIKey(_ context.Context, apiKey string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.keyIdx[apiKey]
	if !ok {
		return nil, fmt.Errorf("user by api key: %w", sentinel.ErrNotFound)
	}
	copied := *s.users[userID]
	return &copied, nil
}

// FindByID looks up a user by primary key.
func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

// Create inserts a new user, rejecting duplicate api keys.
func (s *InMemory) Create(_ context.Context, user *models.User) error {
	if user == nil {
		return fmt.Errorf("user is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.keyIdx[user.APIKey]; exists {
		return fmt.Errorf("user api key already exists: %w", sentinel.ErrConflict)
	}
	copied := *user
	s.users[user.ID] = &copied
	s.keyIdx[user.APIKey] = user.ID
	return nil
}

// DecrementCredits spends one issuance credit, flooring at zero.
func (s *InMemory) DecrementCredits(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	if user.CreditsRemaining > 0 {
		user.CreditsRemaining--
	}
	return nil
}
