package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	credmodels "github.com/UltraQuamfy/contentify/internal/credential/models"
	providermodels "github.com/UltraQuamfy/contentify/internal/provider/models"
	usermodels "github.com/UltraQuamfy/contentify/internal/user/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
)

// GetCredential returns one enriched credential. Reads go through the cache
// when one is configured.
func (s *Service) GetCredential(ctx context.Context, rawID string) (*credmodels.EnrichedCredential, error) {
	credentialID, err := id.ParseCredentialID(rawID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "Credential not found")
	}

	if s.cache != nil {
		if cached, err := s.cache.Find(ctx, credentialID); err == nil {
			return cached, nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			// A broken cache degrades to database reads.
			s.logger.WarnContext(ctx, "get_credential.cache_read_failed", "error", err)
		}
	}

	enriched, err := s.credentials.FindByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load credential")
	}

	if s.cache != nil {
		if err := s.cache.Save(ctx, enriched); err != nil {
			s.logger.WarnContext(ctx, "get_credential.cache_write_failed", "error", err)
		}
	}
	return enriched, nil
}

// UserStats aggregates one account's issuance activity.
type UserStats struct {
	TotalCredentials   int
	TotalVerifications int
	TotalRevenue       float64
}

// UserCredentialsResult is the account dashboard payload.
type UserCredentialsResult struct {
	User        *usermodels.User
	Credentials []*credmodels.EnrichedCredential
	Stats       UserStats
}

// UserCredentials lists an account's credentials with aggregate stats.
func (s *Service) UserCredentials(ctx context.Context, apiKey string) (*UserCredentialsResult, error) {
	if apiKey == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "API key required")
	}

	user, err := s.users.FindByAPIKey(ctx, apiKey)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load user")
	}

	credentials, err := s.credentials.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to list credentials")
	}

	var stats UserStats
	stats.TotalCredentials = len(credentials)
	for _, c := range credentials {
		stats.TotalVerifications += c.VerificationCount
		stats.TotalRevenue += c.RevenueEarned
	}

	return &UserCredentialsResult{
		User:        user,
		Credentials: credentials,
		Stats:       stats,
	}, nil
}

// StatsResult aggregates service-wide counters.
type StatsResult struct {
	TotalCredentials   int64
	TotalVerifications int64
	TotalProviders     int64
	TotalRevenue       float64
}

// Stats fans the aggregate queries out concurrently; both must succeed.
func (s *Service) Stats(ctx context.Context) (*StatsResult, error) {
	var result StatsResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		credentials, verifications, revenue, err := s.credentials.Totals(gctx)
		if err != nil {
			return err
		}
		result.TotalCredentials = credentials
		result.TotalVerifications = verifications
		result.TotalRevenue = revenue
		return nil
	})
	g.Go(func() error {
		providers, err := s.providers.Count(gctx)
		if err != nil {
			return err
		}
		result.TotalProviders = providers
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to aggregate stats")
	}
	return &result, nil
}

// ListProviders returns the active issuer catalog.
func (s *Service) ListProviders(ctx context.Context) ([]*providermodels.Provider, error) {
	providers, err := s.providers.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to list providers")
	}
	return providers, nil
}
