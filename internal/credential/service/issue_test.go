package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	analyticsmodels "github.com/UltraQuamfy/contentify/internal/analytics/models"
	"github.com/UltraQuamfy/contentify/internal/cheqd"
	credmodels "github.com/UltraQuamfy/contentify/internal/credential/models"
	"github.com/UltraQuamfy/contentify/internal/identity"
	usermodels "github.com/UltraQuamfy/contentify/internal/user/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
	"github.com/UltraQuamfy/contentify/pkg/secrets"
)

// TestIssue_ValidationErrors pins the exact messages the create endpoint
// returns for rejected input. No store or client is touched before
// validation passes; the armed-but-uncalled mocks enforce that.
func (s *ServiceSuite) TestIssue_ValidationErrors() {
	cases := []struct {
		name    string
		mutate  func(*IssueParams)
		message string
	}{
		{
			name:    "empty content",
			mutate:  func(p *IssueParams) { p.Content = "" },
			message: "Content is required",
		},
		{
			name:    "whitespace content",
			mutate:  func(p *IssueParams) { p.Content = "   \n\t" },
			message: "Content is required",
		},
		{
			name:    "missing cheqd api key",
			mutate:  func(p *IssueParams) { p.CheqdAPIKey = "" },
			message: "cheqdApiKey is required",
		},
		{
			name:    "payment below minimum",
			mutate:  func(p *IssueParams) { p.PaymentAmount = 0.05 },
			message: "Payment amount must be between 0.1 and 100 CHEQ",
		},
		{
			name:    "payment above maximum",
			mutate:  func(p *IssueParams) { p.PaymentAmount = 250 },
			message: "Payment amount must be between 0.1 and 100 CHEQ",
		},
		{
			name:    "payment absent",
			mutate:  func(p *IssueParams) { p.PaymentAmount = 0 },
			message: "Payment amount must be between 0.1 and 100 CHEQ",
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			params := validIssueParams()
			tc.mutate(&params)

			_, err := s.service.Issue(context.Background(), params)

			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation))
			s.EqualError(err, tc.message)
		})
	}
}

// TestIssue_CreatesAccountWhenKeyAbsent verifies the get-or-create account
// flow: no api key mints a free-tier account with the starting allowance,
// and the forwarded cheqd key survives only as a bcrypt hash plus hint.
func (s *ServiceSuite) TestIssue_CreatesAccountWhenKeyAbsent() {
	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)

	result := s.issueOne(time.Now())

	s.True(result.UserCreated)
	s.NotEmpty(result.User.APIKey)
	s.Equal(usermodels.TierFree, result.User.SubscriptionTier)

	stored, err := s.users.FindByAPIKey(context.Background(), result.User.APIKey)
	s.Require().NoError(err)
	s.Equal(usermodels.FreeTierCredits-1, stored.CreditsRemaining)
	s.NoError(secrets.Verify(testCheqdKey, stored.CheqdAPIKeyHash))
	s.Equal(secrets.Hint(testCheqdKey), stored.CheqdAPIKeyHint)

	userEvents, err := s.analytics.CountByType(context.Background(), analyticsmodels.EventUserCreated)
	s.Require().NoError(err)
	s.Equal(int64(1), userEvents)
}

// TestIssue_ReusesAccountForKnownKey verifies a valid api key reuses the
// existing account instead of minting a fresh one.
func (s *ServiceSuite) TestIssue_ReusesAccountForKnownKey() {
	existing := &usermodels.User{
		ID:               id.UserID(uuid.New()),
		APIKey:           "ck_known_key",
		SubscriptionTier: usermodels.TierFree,
		CreditsRemaining: 7,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	s.Require().NoError(s.users.Create(context.Background(), existing))

	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)

	params := validIssueParams()
	params.UserAPIKey = "ck_known_key"
	result, err := s.service.Issue(context.Background(), params)

	s.Require().NoError(err)
	s.False(result.UserCreated)
	s.Equal(existing.ID, result.User.ID)

	stored, err := s.users.FindByAPIKey(context.Background(), "ck_known_key")
	s.Require().NoError(err)
	s.Equal(6, stored.CreditsRemaining)

	userEvents, err := s.analytics.CountByType(context.Background(), analyticsmodels.EventUserCreated)
	s.Require().NoError(err)
	s.Zero(userEvents)
}

// TestIssue_UnknownKeyFallsThroughToCreate verifies an unrecognized api key
// is treated like an absent one rather than rejected.
func (s *ServiceSuite) TestIssue_UnknownKeyFallsThroughToCreate() {
	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)

	params := validIssueParams()
	params.UserAPIKey = "ck_never_issued"
	result, err := s.service.Issue(context.Background(), params)

	s.Require().NoError(err)
	s.True(result.UserCreated)
	s.NotEqual("ck_never_issued", result.User.APIKey)
}

// TestIssue_ZeroCreditsStillIssues verifies exhausted accounts keep issuing
// and the balance floors at zero instead of going negative.
func (s *ServiceSuite) TestIssue_ZeroCreditsStillIssues() {
	broke := &usermodels.User{
		ID:               id.UserID(uuid.New()),
		APIKey:           "ck_no_credits",
		SubscriptionTier: usermodels.TierFree,
		CreditsRemaining: 0,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	s.Require().NoError(s.users.Create(context.Background(), broke))

	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)

	params := validIssueParams()
	params.UserAPIKey = "ck_no_credits"
	result, err := s.service.Issue(context.Background(), params)

	s.Require().NoError(err)
	s.NotNil(result.Credential)

	stored, err := s.users.FindByAPIKey(context.Background(), "ck_no_credits")
	s.Require().NoError(err)
	s.Equal(0, stored.CreditsRemaining)
}

// TestIssue_UnsupportedProvider verifies the rejection names the offender
// and lists the supported catalog.
func (s *ServiceSuite) TestIssue_UnsupportedProvider() {
	params := validIssueParams()
	params.AIProvider = "gemini"

	_, err := s.service.Issue(context.Background(), params)

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), "Unsupported AI provider: gemini")
	s.Contains(err.Error(), "Supported providers: ")
	s.Contains(err.Error(), "openai")
	s.Contains(err.Error(), "anthropic")
}

// TestIssue_MintsDIDOnceAndReuses verifies the second issuance for the same
// provider reuses the stored DID with no further identity calls. The mock
// expectations allow exactly one keypair and one DID creation.
func (s *ServiceSuite) TestIssue_MintsDIDOnceAndReuses() {
	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL).Times(2)

	first := s.issueOne(time.Now())
	second := s.issueOne(time.Now())

	s.Equal(testDID, first.Provider.DID)
	s.Equal(testDID, second.Provider.DID)
	s.Equal(testDID, first.Document.Issuer)
	s.Equal(testDID, second.Document.Issuer)

	stored, err := s.providers.FindByName(context.Background(), "openai")
	s.Require().NoError(err)
	s.True(stored.HasDID())
	s.Equal(testKid, stored.KeypairID)
}

// TestIssue_ConcurrentFirstIssuancesShareOneMint verifies concurrent first
// issuances for one provider collapse to a single hosted mint. Whichever
// interleaving the scheduler picks, the identity API sees one keypair and
// one DID creation.
func (s *ServiceSuite) TestIssue_ConcurrentFirstIssuancesShareOneMint() {
	const workers = 8

	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL).Times(workers)

	results := make([]*IssueResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.service.Issue(context.Background(), validIssueParams())
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		s.Require().NoError(errs[i])
		s.Equal(testDID, results[i].Provider.DID)
	}
}

// TestIssue_AttachConflictUsesWinner simulates another instance landing its
// DID between our mint and our attach. The conditional update loses, and
// the issuance proceeds with the DID that actually persisted.
func (s *ServiceSuite) TestIssue_AttachConflictUsesWinner() {
	const winnerDID = "did:cheqd:testnet:winner"

	s.identityAPI.EXPECT().
		CreateKeypair(gomock.Any(), testCheqdKey).
		DoAndReturn(func(ctx context.Context, _ string) (*identity.Keypair, error) {
			fresh, err := s.providers.FindByName(ctx, "openai")
			s.Require().NoError(err)
			s.Require().NoError(s.providers.AttachDID(ctx, fresh.ID, winnerDID, "kid-winner"))
			return &identity.Keypair{Kid: "kid-loser", PublicKeyHex: "d4e5f6"}, nil
		})
	s.identityAPI.EXPECT().
		CreateDID(gomock.Any(), testCheqdKey, gomock.Any()).
		Return(&identity.DID{DID: "did:cheqd:testnet:loser", ControllerKeyID: "kid-loser"}, nil)
	s.statusListAPI.EXPECT().
		Create(gomock.Any(), testCheqdKey, winnerDID, gomock.Any(), gomock.Any()).
		Return(nil, cheqd.NewAPIError(cheqd.ErrorOutage, "createStatusList", "", nil))

	result, err := s.service.Issue(context.Background(), validIssueParams())

	s.Require().NoError(err)
	s.Equal(winnerDID, result.Provider.DID)
	s.Equal("kid-winner", result.Provider.KeypairID)
	s.Equal(winnerDID, result.Document.Issuer)

	stored, err := s.providers.FindByName(context.Background(), "openai")
	s.Require().NoError(err)
	s.Equal(winnerDID, stored.DID)
}

// TestIssue_StatusListFailureDegrades verifies a failed status list call
// still issues the credential, just without a status reference.
func (s *ServiceSuite) TestIssue_StatusListFailureDegrades() {
	s.expectMint(testDID, testKid)
	s.statusListAPI.EXPECT().
		Create(gomock.Any(), testCheqdKey, testDID, gomock.Any(), gomock.Any()).
		Return(nil, cheqd.NewAPIError(cheqd.ErrorTimeout, "createStatusList", "", context.DeadlineExceeded))

	result, err := s.service.Issue(context.Background(), validIssueParams())

	s.Require().NoError(err)
	s.Empty(result.StatusListURL)
	s.Nil(result.Document.CredentialStatus)

	stored, err := s.credentials.FindByID(context.Background(), result.Credential.ID)
	s.Require().NoError(err)
	s.Equal(credmodels.StatusActive, stored.Status)
}

// TestIssue_IdentityFailures verifies the hosted API failure translations:
// a tripped breaker reads as unavailable, a remote rejection surfaces the
// remote message, and neither persists a credential.
func (s *ServiceSuite) TestIssue_IdentityFailures() {
	s.Run("circuit open maps to unavailable", func() {
		s.identityAPI.EXPECT().
			CreateKeypair(gomock.Any(), testCheqdKey).
			Return(nil, cheqd.ErrCircuitOpen)

		_, err := s.service.Issue(context.Background(), validIssueParams())

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
		s.EqualError(err, "Identity service temporarily unavailable")
	})

	s.Run("remote rejection surfaces remote message", func() {
		s.identityAPI.EXPECT().
			CreateKeypair(gomock.Any(), testCheqdKey).
			Return(nil, cheqd.NewAPIError(cheqd.ErrorAuthentication, "createKeypair", "Invalid API key provided", nil))

		_, err := s.service.Issue(context.Background(), validIssueParams())

		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeExternalService))
		s.EqualError(err, "Invalid API key provided")
	})

	credentials, _, _, err := s.credentials.Totals(context.Background())
	s.Require().NoError(err)
	s.Zero(credentials)
}

// TestIssue_PersistsEverythingTogether walks the stored side effects of one
// issuance: the credential row, the credit decrement, the analytics rows,
// and the outbox entries all landed, and the assembled document carries the
// expected shape.
func (s *ServiceSuite) TestIssue_PersistsEverythingTogether() {
	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL)

	issuedAt := time.Date(2026, 2, 11, 9, 30, 0, 0, time.UTC)
	result := s.issueOne(issuedAt)

	s.Run("credential row", func() {
		stored, err := s.credentials.FindByID(context.Background(), result.Credential.ID)
		s.Require().NoError(err)
		s.Equal("openai", stored.ProviderName)
		s.Equal("OpenAI", stored.ProviderDisplayName)
		s.Equal(testDID, stored.ProviderDID)
		s.Equal(credmodels.StatusActive, stored.Status)
		s.Len(stored.ContentHash, 64)
		s.GreaterOrEqual(stored.AuthenticityScore, 70)
		s.LessOrEqual(stored.AuthenticityScore, 100)
		s.Require().NotNil(stored.Metadata)
		s.Require().NotNil(stored.Metadata.Document)
		s.True(strings.HasPrefix(stored.Metadata.QRCode, "data:image/png;base64,"))
	})

	s.Run("document shape", func() {
		doc := result.Document
		s.Equal("https://www.w3.org/2018/credentials/v1", doc.Context[0])
		s.Equal(result.Credential.ID.String(), doc.ID)
		s.Contains(doc.Type, "VerifiableCredential")
		s.Equal(testDID, doc.Issuer)
		s.Equal(issuedAt.Format(time.RFC3339), doc.IssuanceDate)
		s.Equal(result.Credential.ContentHash, doc.CredentialSubject.ContentHash)
		s.Equal("openai", doc.CredentialSubject.AIProvider)

		s.Require().NotNil(doc.CredentialStatus)
		s.Equal(testListURL+"#0", doc.CredentialStatus.ID)
		s.Equal("revocation", doc.CredentialStatus.StatusPurpose)
		s.Equal(testListURL, doc.CredentialStatus.StatusListCredential)

		s.Require().NotNil(doc.PaymentRails)
		s.False(doc.PaymentRails.Enabled)
		s.Equal("testnet", doc.PaymentRails.Network)
		s.Equal("CHEQ", doc.PaymentRails.Currency)
		s.InDelta(2.5, doc.PaymentRails.Amount, 1e-9)
	})

	s.Run("verification link", func() {
		s.Equal(testBaseURL+"/api/credentials/"+result.Credential.ID.String(), result.VerificationURL)
	})

	s.Run("bookkeeping", func() {
		stored, err := s.users.FindByAPIKey(context.Background(), result.User.APIKey)
		s.Require().NoError(err)
		s.Equal(usermodels.FreeTierCredits-1, stored.CreditsRemaining)

		created, err := s.analytics.CountByType(context.Background(), analyticsmodels.EventCredentialCreated)
		s.Require().NoError(err)
		s.Equal(int64(1), created)

		pending, err := s.outbox.CountPending(context.Background())
		s.Require().NoError(err)
		s.Equal(int64(2), pending)
	})
}

// TestIssue_DistinctCredentialsForSameContent verifies identical content
// issues twice under distinct credential ids.
func (s *ServiceSuite) TestIssue_DistinctCredentialsForSameContent() {
	s.expectMint(testDID, testKid)
	s.expectStatusList(testListURL).Times(2)

	first := s.issueOne(time.Now())
	second := s.issueOne(time.Now())

	s.NotEqual(first.Credential.ID, second.Credential.ID)
	s.Equal(first.Credential.ContentHash, second.Credential.ContentHash)
	assert.Equal(s.T(), first.Credential.AuthenticityScore, second.Credential.AuthenticityScore)
}
