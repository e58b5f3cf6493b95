package service

import (
	"context"
	"errors"
	"time"

	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
	"github.com/UltraQuamfy/contentify/pkg/requestcontext"
)

// TestGetCredential_NotFound covers both flavors of a missing credential:
// an ID that does not parse and one that parses but was never issued.
func (s *ServiceSuite) TestGetCredential_NotFound() {
	s.Run("malformed id", func() {
		_, err := s.service.GetCredential(context.Background(), "credential-42")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.EqualError(err, "Credential not found")
	})

	s.Run("unknown id", func() {
		_, err := s.service.GetCredential(context.Background(), "urn:uuid:7b5bb2a4-58ff-47cb-b8e7-3c3fd1a0a111")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.EqualError(err, "Credential not found")
	})
}

// TestGetCredential_ReturnsEnrichedRow verifies the read joins in the
// issuer display fields.
func (s *ServiceSuite) TestGetCredential_ReturnsEnrichedRow() {
	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)

	issued := s.issueOne(time.Now())

	enriched, err := s.service.GetCredential(context.Background(), issued.Credential.ID.String())
	s.Require().NoError(err)
	s.Equal(issued.Credential.ID, enriched.ID)
	s.Equal("openai", enriched.ProviderName)
	s.Equal("OpenAI", enriched.ProviderDisplayName)
	s.Equal(testDID, enriched.ProviderDID)
	s.Require().NotNil(enriched.Metadata)
	s.Require().NotNil(enriched.Metadata.Document)
}

// TestGetCredential_CacheReadThrough verifies the cache fills on first
// read, answers the second, and is dropped when a verification moves the
// counters so readers never see stale counts.
func (s *ServiceSuite) TestGetCredential_CacheReadThrough() {
	cache := newFakeCache()
	cached := s.newService(WithCache(cache))

	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)
	issued := s.issueOne(time.Now())
	rawID := issued.Credential.ID.String()

	first, err := cached.GetCredential(context.Background(), rawID)
	s.Require().NoError(err)
	s.Equal(1, cache.saves)
	s.Equal(0, cache.hits)

	second, err := cached.GetCredential(context.Background(), rawID)
	s.Require().NoError(err)
	s.Equal(1, cache.hits)
	s.Equal(first.ID, second.ID)

	_, err = cached.Verify(context.Background(), VerifyParams{
		CredentialID:    rawID,
		VerifierAddress: "cheqd1qverifier",
	})
	s.Require().NoError(err)
	s.Equal(1, cache.invalidates)

	fresh, err := cached.GetCredential(context.Background(), rawID)
	s.Require().NoError(err)
	s.Equal(1, fresh.VerificationCount)
	s.Equal(2, cache.saves)
}

// TestGetCredential_CacheFailureFallsThrough verifies a broken cache
// degrades to database reads instead of failing the request.
func (s *ServiceSuite) TestGetCredential_CacheFailureFallsThrough() {
	cache := newFakeCache()
	cache.findErr = errors.New("connection refused")
	cached := s.newService(WithCache(cache))

	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)
	issued := s.issueOne(time.Now())

	enriched, err := cached.GetCredential(context.Background(), issued.Credential.ID.String())
	s.Require().NoError(err)
	s.Equal(issued.Credential.ID, enriched.ID)
}

// TestUserCredentials_Rejections pins the dashboard endpoint's auth
// behavior: no key is unauthorized, an unknown key is not found.
func (s *ServiceSuite) TestUserCredentials_Rejections() {
	s.Run("missing api key", func() {
		_, err := s.service.UserCredentials(context.Background(), "")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		s.EqualError(err, "API key required")
	})

	s.Run("unknown api key", func() {
		_, err := s.service.UserCredentials(context.Background(), "ck_nobody")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.EqualError(err, "User not found")
	})
}

// TestUserCredentials_AggregatesAccountView verifies the dashboard sums
// per-credential counters and lists newest first.
func (s *ServiceSuite) TestUserCredentials_AggregatesAccountView() {
	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL).Times(2)

	first := s.issueOne(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC))

	params := validIssueParams()
	params.UserAPIKey = first.User.APIKey
	laterCtx := requestcontext.WithTime(context.Background(), time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))
	second, err := s.service.Issue(laterCtx, params)
	s.Require().NoError(err)

	_, err = s.service.Verify(context.Background(), VerifyParams{
		CredentialID:    first.Credential.ID.String(),
		VerifierAddress: "cheqd1qverifier",
	})
	s.Require().NoError(err)

	result, err := s.service.UserCredentials(context.Background(), first.User.APIKey)
	s.Require().NoError(err)

	s.Equal(first.User.ID, result.User.ID)
	s.Equal(2, result.Stats.TotalCredentials)
	s.Equal(1, result.Stats.TotalVerifications)
	s.InDelta(2.5, result.Stats.TotalRevenue, 1e-9)

	s.Require().Len(result.Credentials, 2)
	s.Equal(second.Credential.ID, result.Credentials[0].ID)
	s.Equal(first.Credential.ID, result.Credentials[1].ID)
}

// TestStats_AggregatesAcrossProviders verifies the service-wide totals
// spanning several issuers and accounts.
func (s *ServiceSuite) TestStats_AggregatesAcrossProviders() {
	s.expectMint("did:cheqd:testnet:openai1", "kid-a")
	s.expectMint("did:cheqd:testnet:anthropic1", "kid-b")
	s.expectStatusList(testListURL).Times(2)

	first := s.issueOne(time.Now())

	params := validIssueParams()
	params.AIProvider = "anthropic"
	_, err := s.service.Issue(context.Background(), params)
	s.Require().NoError(err)

	_, err = s.service.Verify(context.Background(), VerifyParams{
		CredentialID:    first.Credential.ID.String(),
		VerifierAddress: "cheqd1qverifier",
	})
	s.Require().NoError(err)

	stats, err := s.service.Stats(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(2), stats.TotalCredentials)
	s.Equal(int64(1), stats.TotalVerifications)
	s.Equal(int64(5), stats.TotalProviders)
	s.InDelta(2.5, stats.TotalRevenue, 1e-9)
}

// TestListProviders_CatalogAndDIDFlags verifies the catalog listing and
// that the DID flag flips once an issuer's DID is minted.
func (s *ServiceSuite) TestListProviders_CatalogAndDIDFlags() {
	providers, err := s.service.ListProviders(context.Background())
	s.Require().NoError(err)
	s.Require().Len(providers, 5)

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name)
		s.False(p.HasDID())
	}
	s.Equal([]string{"anthropic", "meta", "midjourney", "openai", "stability"}, names)

	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)
	s.issueOne(time.Now())

	providers, err = s.service.ListProviders(context.Background())
	s.Require().NoError(err)
	for _, p := range providers {
		if p.Name == "openai" {
			s.True(p.HasDID())
		} else {
			s.False(p.HasDID())
		}
	}
}
