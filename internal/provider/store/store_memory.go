package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/UltraQuamfy/contentify/internal/provider/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
)

// InMemory stores providers in memory for tests and local development.
type InMemory struct {
	mu        sync.RWMutex
	providers map[id.ProviderID]*models.Provider
	nameIdx   map[string]id.ProviderID
}

// NewInMemory creates an in-memory provider store.
func NewInMemory() *InMemory {
	return &InMemory{
		providers: make(map[id.ProviderID]*models.Provider),
		nameIdx:   make(map[string]id.ProviderID),
	}
}

// FindByID looks up a provider by primary key. The SQL store never needs
// this because enriched reads join in the issuer columns; the memory store
// substitutes lookups for joins.
func (s *InMemory) FindByID(_ context.Context, providerID id.ProviderID) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	provider, ok := s.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", providerID, sentinel.ErrNotFound)
	}
	copied := *provider
	return &copied, nil
}

// FindByName looks up a provider by its unique name.
func (s *InMemory) FindByName(_ context.Context, name string) (*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	providerID, ok := s.nameIdx[name]
	if !ok {
		return nil, fmt.Errorf("provider %q: %w", name, sentinel.ErrNotFound)
	}
	copied := *s.providers[providerID]
	return &copied, nil
}

// List returns all active providers ordered by name.
func (s *InMemory) List(_ context.Context) ([]*models.Provider, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var providers []*models.Provider
	for _, p := range s.providers {
		if !p.Active {
			continue
		}
		copied := *p
		providers = append(providers, &copied)
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i].Name < providers[j].Name })
	return providers, nil
}

// Upsert inserts the provider, leaving an existing row with the same name
// untouched.
func (s *InMemory) Upsert(_ context.Context, provider *models.Provider) error {
	if provider == nil {
		return fmt.Errorf("provider is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.nameIdx[provider.Name]; exists {
		return nil
	}
	copied := *provider
	s.providers[provider.ID] = &copied
	s.nameIdx[provider.Name] = provider.ID
	return nil
}

// AttachDID persists a minted DID onto a provider that has none, reporting
// ErrConflict when another caller attached one first.
func (s *InMemory) AttachDID(_ context.Context, providerID id.ProviderID, did, keypairID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	provider, ok := s.providers[providerID]
	if !ok {
		return fmt.Errorf("provider %s: %w", providerID, sentinel.ErrNotFound)
	}
	if provider.DID != "" {
		return fmt.Errorf("provider %s already has a did: %w", providerID, sentinel.ErrConflict)
	}
	provider.DID = did
	provider.KeypairID = keypairID
	return nil
}

// Count returns the number of active providers.
func (s *InMemory) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, p := range s.providers {
		if p.Active {
			count++
		}
	}
	return count, nil
}
