package testutil

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	analyticsmodels "github.com/UltraQuamfy/contentify/internal/analytics/models"
	credmodels "github.com/UltraQuamfy/contentify/internal/credential/models"
	"github.com/UltraQuamfy/contentify/internal/outbox"
	providermodels "github.com/UltraQuamfy/contentify/internal/provider/models"
	usermodels "github.com/UltraQuamfy/contentify/internal/user/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
)

// NewTestUser builds a free-tier account with a unique api key.
func NewTestUser() *usermodels.User {
	now := time.Now().UTC()
	return &usermodels.User{
		ID:               id.UserID(uuid.New()),
		Email:            "user-" + uuid.NewString()[:8] + "@example.com",
		APIKey:           "ck_test_" + uuid.NewString(),
		SubscriptionTier: usermodels.TierFree,
		CreditsRemaining: usermodels.FreeTierCredits,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// NewTestProvider builds an active catalog entry without an attached DID.
func NewTestProvider(name string) *providermodels.Provider {
	now := time.Now().UTC()
	return &providermodels.Provider{
		ID:          id.ProviderID(uuid.New()),
		Name:        name,
		DisplayName: strings.ToUpper(name[:1]) + name[1:],
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// NewTestCredential builds an active credential row tied to the given owner
// and issuer. The content hash is synthetic but well formed.
func NewTestCredential(userID id.UserID, providerID id.ProviderID) *credmodels.Credential {
	now := time.Now().UTC()
	return &credmodels.Credential{
		ID:                id.NewCredentialID(),
		UserID:            userID,
		ProviderID:        providerID,
		ContentHash:       strings.Repeat("ab", 32),
		ContentPreview:    "Synthetic content preview",
		AuthenticityScore: 85,
		PaymentAmount:     2.5,
		Status:            credmodels.StatusActive,
		Metadata: &credmodels.Metadata{
			QRCode: "data:image/png;base64,dGVzdA==",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestVerification builds one verification event for a credential.
func NewTestVerification(credentialID id.CredentialID) *credmodels.Verification {
	return &credmodels.Verification{
		ID:              id.VerificationID(uuid.New()),
		CredentialID:    credentialID,
		VerifierAddress: "cheqd1q" + uuid.NewString()[:12],
		VerifierDevice:  "Chrome on Mac OS X",
		PaymentAmount:   2.5,
		PaymentTxHash:   "0x" + uuid.NewString()[:16],
		VerifiedAt:      time.Now().UTC(),
	}
}

// NewTestEvent builds an analytics event owned by the given user.
func NewTestEvent(userID id.UserID, eventType string) *analyticsmodels.Event {
	payload, _ := json.Marshal(map[string]string{"source": "testutil"})
	return analyticsmodels.NewEvent(userID, eventType, payload, time.Now().UTC())
}

// NewTestOutboxEntry builds a pending outbox entry.
func NewTestOutboxEntry(eventType string) *outbox.Entry {
	payload, _ := json.Marshal(map[string]string{"event": eventType})
	return outbox.NewEntry("credential", string(id.NewCredentialID()), eventType, payload)
}
