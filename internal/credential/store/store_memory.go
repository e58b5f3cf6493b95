package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/UltraQuamfy/contentify/internal/credential/models"
	providermodels "github.com/UltraQuamfy/contentify/internal/provider/models"
	usermodels "github.com/UltraQuamfy/contentify/internal/user/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
)

// ProviderLookup resolves issuer fields for enriched reads.
type ProviderLookup func(ctx context.Context, providerID id.ProviderID) (*providermodels.Provider, error)

// UserLookup resolves the owner's fields for enriched reads.
type UserLookup func(ctx context.Context, userID id.UserID) (*usermodels.User, error)

// InMemory stores credentials in memory for tests and local development.
// The SQL store enriches reads with joins; this one substitutes the
// configured lookups.
type InMemory struct {
	mu            sync.RWMutex
	credentials   map[id.CredentialID]*models.Credential
	verifications []*models.Verification
	providers     ProviderLookup
	users         UserLookup
}

// InMemoryOption configures the in-memory store.
type InMemoryOption func(*InMemory)

// WithJoins configures the lookups used to enrich reads the way the SQL
// joins do. Without them enrichment fields stay empty.
func WithJoins(providers ProviderLookup, users UserLookup) InMemoryOption {
	return func(s *InMemory) {
		s.providers = providers
		s.users = users
	}
}

// NewInMemory creates an in-memory credential store.
func NewInMemory(opts ...InMemoryOption) *InMemory {
	s := &InMemory{credentials: make(map[id.CredentialID]*models.Credential)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Insert persists a new credential.
func (s *InMemory) Insert(_ context.Context, credential *models.Credential) error {
	if credential == nil {
		return fmt.Errorf("credential is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.credentials[credential.ID]; exists {
		return fmt.Errorf("credential %s already exists: %w", credential.ID, sentinel.ErrConflict)
	}
	copied := *credential
	s.credentials[credential.ID] = &copied
	return nil
}

// FindByID returns one credential enriched with issuer and owner fields.
func (s *InMemory) FindByID(ctx context.Context, credentialID id.CredentialID) (*models.EnrichedCredential, error) {
	s.mu.RLock()
	credential, ok := s.credentials[credentialID]
	if !ok {
		s.mu.RUnlock()
		return nil, fmt.Errorf("credential %s: %w", credentialID, sentinel.ErrNotFound)
	}
	copied := *credential
	s.mu.RUnlock()
	return s.enrich(ctx, &copied)
}

// ListByUser returns a user's credentials, newest first.
func (s *InMemory) ListByUser(ctx context.Context, userID id.UserID) ([]*models.EnrichedCredential, error) {
	s.mu.RLock()
	var owned []*models.Credential
	for _, c := range s.credentials {
		if c.UserID == userID {
			copied := *c
			owned = append(owned, &copied)
		}
	}
	s.mu.RUnlock()

	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	enriched := make([]*models.EnrichedCredential, 0, len(owned))
	for _, c := range owned {
		e, err := s.enrich(ctx, c)
		if err != nil {
			return nil, err
		}
		enriched = append(enriched, e)
	}
	return enriched, nil
}

// BumpVerification adds one verification to the credential's counters and
// returns the fresh values.
func (s *InMemory) BumpVerification(_ context.Context, credentialID id.CredentialID) (count int, revenue float64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credential, ok := s.credentials[credentialID]
	if !ok {
		return 0, 0, fmt.Errorf("credential %s: %w", credentialID, sentinel.ErrNotFound)
	}
	credential.VerificationCount++
	credential.RevenueEarned += credential.PaymentAmount
	return credential.VerificationCount, credential.RevenueEarned, nil
}

// InsertVerification records one verification event.
func (s *InMemory) InsertVerification(_ context.Context, verification *models.Verification) error {
	if verification == nil {
		return fmt.Errorf("verification is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *verification
	s.verifications = append(s.verifications, &copied)
	return nil
}

// Totals aggregates service-wide issuance and verification counters.
func (s *InMemory) Totals(_ context.Context) (credentials, verifications int64, revenue float64, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.credentials {
		credentials++
		revenue += c.RevenueEarned
	}
	verifications = int64(len(s.verifications))
	return credentials, verifications, revenue, nil
}

// Verifications returns a snapshot of recorded verification rows.
func (s *InMemory) Verifications() []*models.Verification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Verification, 0, len(s.verifications))
	for _, v := range s.verifications {
		copied := *v
		out = append(out, &copied)
	}
	return out
}

func (s *InMemory) enrich(ctx context.Context, credential *models.Credential) (*models.EnrichedCredential, error) {
	enriched := &models.EnrichedCredential{Credential: *credential}
	if s.providers != nil {
		provider, err := s.providers(ctx, credential.ProviderID)
		if err != nil {
			return nil, fmt.Errorf("enrich credential issuer: %w", err)
		}
		enriched.ProviderName = provider.Name
		enriched.ProviderDisplayName = provider.DisplayName
		enriched.ProviderDID = provider.DID
	}
	if s.users != nil {
		user, err := s.users(ctx, credential.UserID)
		if err != nil {
			return nil, fmt.Errorf("enrich credential owner: %w", err)
		}
		enriched.UserEmail = user.Email
	}
	return enriched, nil
}
