package service

import (
	"context"
	"time"

	analyticsmodels "github.com/UltraQuamfy/contentify/internal/analytics/models"
	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
	"github.com/UltraQuamfy/contentify/pkg/requestcontext"
)

const chromeOnMacUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// TestVerify_ValidationAndNotFound pins the verify endpoint's rejection
// behavior. A malformed credential ID reads as not-found, not as a
// validation failure; the path segment names no credential.
func (s *ServiceSuite) TestVerify_ValidationAndNotFound() {
	s.Run("missing verifier address", func() {
		_, err := s.service.Verify(context.Background(), VerifyParams{
			CredentialID: "urn:uuid:1f1f32a0-9d5e-4f6a-8a86-3d3f58e2b111",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.EqualError(err, "Verifier address is required")
	})

	s.Run("malformed credential id", func() {
		_, err := s.service.Verify(context.Background(), VerifyParams{
			CredentialID:    "not-a-credential",
			VerifierAddress: "cheqd1qverifier",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.EqualError(err, "Credential not found")
	})

	s.Run("unknown credential id", func() {
		_, err := s.service.Verify(context.Background(), VerifyParams{
			CredentialID:    "urn:uuid:1f1f32a0-9d5e-4f6a-8a86-3d3f58e2b111",
			VerifierAddress: "cheqd1qverifier",
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.EqualError(err, "Credential not found")
	})
}

// TestVerify_BumpsCountersByStoredAmount verifies each verification moves
// the count by one and the revenue by the credential's stored payment
// amount, with the fresh counters returned to the caller.
func (s *ServiceSuite) TestVerify_BumpsCountersByStoredAmount() {
	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)

	issued := s.issueOne(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC))

	verifiedAt := time.Date(2026, 3, 2, 14, 45, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), verifiedAt)
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", chromeOnMacUA)

	first, err := s.service.Verify(ctx, VerifyParams{
		CredentialID:    issued.Credential.ID.String(),
		VerifierAddress: "cheqd1qverifier",
		PaymentTxHash:   "0xdeadbeef",
	})
	s.Require().NoError(err)
	s.Equal(1, first.VerificationCount)
	s.InDelta(2.5, first.RevenueEarned, 1e-9)
	s.Equal("cheqd1qverifier", first.Verification.VerifierAddress)
	s.Equal("0xdeadbeef", first.Verification.PaymentTxHash)
	s.Equal(verifiedAt, first.Verification.VerifiedAt)
	s.Contains(first.Verification.VerifierDevice, "Chrome")
	s.Contains(first.Verification.VerifierDevice, "on")

	second, err := s.service.Verify(ctx, VerifyParams{
		CredentialID:    issued.Credential.ID.String(),
		VerifierAddress: "cheqd1qother",
	})
	s.Require().NoError(err)
	s.Equal(2, second.VerificationCount)
	s.InDelta(5.0, second.RevenueEarned, 1e-9)

	stored, err := s.credentials.FindByID(context.Background(), issued.Credential.ID)
	s.Require().NoError(err)
	s.Equal(2, stored.VerificationCount)
	s.InDelta(5.0, stored.RevenueEarned, 1e-9)

	verified, err := s.analytics.CountByType(context.Background(), analyticsmodels.EventCredentialVerified)
	s.Require().NoError(err)
	s.Equal(int64(2), verified)

	// Two issuance entries plus two verification entries.
	pending, err := s.outbox.CountPending(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(4), pending)
}

// TestVerify_MissingUserAgent verifies an absent User-Agent records the
// placeholder device rather than an empty string.
func (s *ServiceSuite) TestVerify_MissingUserAgent() {
	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)

	issued := s.issueOne(time.Now())

	result, err := s.service.Verify(context.Background(), VerifyParams{
		CredentialID:    issued.Credential.ID.String(),
		VerifierAddress: "cheqd1qverifier",
	})
	s.Require().NoError(err)
	s.Equal("Unknown Device", result.Verification.VerifierDevice)
}

// TestDeviceSummary exercises the user-agent to display-name mapping.
func (s *ServiceSuite) TestDeviceSummary() {
	s.Run("empty user agent", func() {
		s.Equal("Unknown Device", deviceSummary(""))
	})

	s.Run("chrome on desktop", func() {
		result := deviceSummary(chromeOnMacUA)
		s.Contains(result, "Chrome")
		s.Contains(result, "on")
		s.NotContains(result, "  ")
	})

	s.Run("safari on iphone", func() {
		result := deviceSummary("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
		s.Contains(result, "on")
		s.Contains(result, "iPhone")
	})

	s.Run("firefox on linux", func() {
		result := deviceSummary("Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0")
		s.Contains(result, "Firefox")
		s.Contains(result, "on")
	})

	s.Run("unrecognized user agent still formats", func() {
		result := deviceSummary("Unknown/1.0")
		s.Contains(result, "on")
		s.NotEmpty(result)
	})
}
