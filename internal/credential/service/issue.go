package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	analyticsmodels "github.com/UltraQuamfy/contentify/internal/analytics/models"
	"github.com/UltraQuamfy/contentify/internal/credential/assembler"
	credmodels "github.com/UltraQuamfy/contentify/internal/credential/models"
	"github.com/UltraQuamfy/contentify/internal/identity"
	"github.com/UltraQuamfy/contentify/internal/outbox"
	providermodels "github.com/UltraQuamfy/contentify/internal/provider/models"
	"github.com/UltraQuamfy/contentify/internal/statuslist"
	usermodels "github.com/UltraQuamfy/contentify/internal/user/models"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
	"github.com/UltraQuamfy/contentify/pkg/requestcontext"
	"github.com/UltraQuamfy/contentify/pkg/secrets"
)

// Payment bounds for a single issuance, in CHEQ.
const (
	minPaymentAmount = 0.1
	maxPaymentAmount = 100
)

// IssueParams are the inputs of the create-credential operation.
type IssueParams struct {
	Content       string
	AIProvider    string
	PaymentAmount float64
	CheqdAPIKey   string
	UserAPIKey    string
}

func (p IssueParams) validate() error {
	if strings.TrimSpace(p.Content) == "" {
		return dErrors.New(dErrors.CodeValidation, "Content is required")
	}
	if p.CheqdAPIKey == "" {
		return dErrors.New(dErrors.CodeValidation, "cheqdApiKey is required")
	}
	if p.PaymentAmount < minPaymentAmount || p.PaymentAmount > maxPaymentAmount {
		return dErrors.New(dErrors.CodeValidation, "Payment amount must be between 0.1 and 100 CHEQ")
	}
	return nil
}

// IssueResult carries everything the create endpoint responds with.
type IssueResult struct {
	Credential      *credmodels.Credential
	Provider        *providermodels.Provider
	User            *usermodels.User
	Document        credmodels.Document
	QRCode          string
	VerificationURL string
	StatusListURL   string
	UserCreated     bool
}

// Issue runs the full issuance flow: resolve the account, ensure the
// issuer's DID, create the status list, assemble and persist the
// credential. Everything that must not partially apply runs in one
// transaction at the end; external calls stay outside it.
func (s *Service) Issue(ctx context.Context, params IssueParams) (*IssueResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx).UTC()

	user, userCreated, err := s.resolveUser(ctx, params, now)
	if err != nil {
		s.countIssuanceFailure("user")
		return nil, err
	}

	provider, err := s.lookupProvider(ctx, params.AIProvider)
	if err != nil {
		s.countIssuanceFailure("provider")
		return nil, err
	}

	did, keypairID, err := s.ensureDID(ctx, params.CheqdAPIKey, provider)
	if err != nil {
		s.countIssuanceFailure("did_mint")
		return nil, err
	}
	provider.DID = did
	provider.KeypairID = keypairID

	list := s.createStatusList(ctx, params.CheqdAPIKey, provider, params.PaymentAmount)

	contentHash := assembler.HashContent(params.Content)
	score := assembler.Score(params.Content)
	credentialID := id.NewCredentialID()

	assembleParams := assembler.Params{
		CredentialID:   credentialID,
		IssuerDID:      did,
		IssuedAt:       now,
		AIProvider:     provider.Name,
		ContentHash:    contentHash,
		ContentPreview: assembler.Preview(params.Content),
		Score:          score,
		PaymentAmount:  params.PaymentAmount,
		Network:        s.network,
	}
	if list != nil {
		assembleParams.StatusListURL = list.URL
		assembleParams.StatusPurpose = list.StatusPurpose
		assembleParams.PaymentAddress = list.PaymentAddress
	}
	document := assembler.Assemble(assembleParams)

	verificationURL := s.verificationURL(credentialID)
	qrCode, err := assembler.RenderQR(assembler.QRPayload{
		CredentialID:      credentialID.String(),
		VerificationURL:   verificationURL,
		Issuer:            did,
		ContentHash:       contentHash,
		AuthenticityScore: score,
	})
	if err != nil {
		s.countIssuanceFailure("qr_render")
		return nil, err
	}

	credential := &credmodels.Credential{
		ID:                credentialID,
		UserID:            user.ID,
		ProviderID:        provider.ID,
		ContentHash:       contentHash,
		ContentPreview:    assembleParams.ContentPreview,
		AuthenticityScore: score,
		PaymentAmount:     params.PaymentAmount,
		Status:            credmodels.StatusActive,
		Metadata:          &credmodels.Metadata{Document: &document, QRCode: qrCode},
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if user.CreditsRemaining == 0 && s.metrics != nil {
		s.metrics.CreditsExhausted.Inc()
	}

	payload, err := json.Marshal(struct {
		CredentialID string  `json:"credentialId"`
		Provider     string  `json:"provider"`
		Score        int     `json:"authenticityScore"`
		Amount       float64 `json:"paymentAmount"`
	}{credentialID.String(), provider.Name, score, params.PaymentAmount})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode analytics event")
	}

	err = s.txRunner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.credentials.Insert(txCtx, credential); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to save credential")
		}
		if err := s.users.DecrementCredits(txCtx, user.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to decrement credits")
		}
		event := analyticsmodels.NewEvent(user.ID, analyticsmodels.EventCredentialCreated, payload, now)
		if err := s.analytics.Append(txCtx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to record analytics")
		}
		entry := outbox.NewEntry("credential", credentialID.String(), analyticsmodels.EventCredentialCreated, payload)
		if err := s.outbox.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to enqueue analytics event")
		}
		return nil
	})
	if err != nil {
		s.countIssuanceFailure("persist")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CredentialsIssued.Inc()
		s.metrics.AuthenticityScore.Observe(float64(score))
	}
	s.logger.InfoContext(ctx, "issue_credential.ok",
		"credential_id", credentialID.String(),
		"provider", provider.Name,
		"score", score,
		"status_list", list != nil,
		"user_created", userCreated,
	)

	return &IssueResult{
		Credential:      credential,
		Provider:        provider,
		User:            user,
		Document:        document,
		QRCode:          qrCode,
		VerificationURL: verificationURL,
		StatusListURL:   assembleParams.StatusListURL,
		UserCreated:     userCreated,
	}, nil
}

// resolveUser finds the caller's account by api key, creating a fresh
// free-tier account when the key is absent or unknown.
func (s *Service) resolveUser(ctx context.Context, params IssueParams, now time.Time) (*usermodels.User, bool, error) {
	if params.UserAPIKey != "" {
		user, err := s.users.FindByAPIKey(ctx, params.UserAPIKey)
		if err == nil {
			return user, false, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, false, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load user")
		}
		// Unknown key falls through to account creation.
	}
	user, err := s.createUser(ctx, params.CheqdAPIKey, now)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// createUser mints a free-tier account. The forwarded cheqd key is stored
// only as a bcrypt hash plus a display hint.
func (s *Service) createUser(ctx context.Context, cheqdAPIKey string, now time.Time) (*usermodels.User, error) {
	apiKey, err := secrets.Generate()
	if err != nil {
		return nil, err
	}
	keyHash, err := secrets.Hash(cheqdAPIKey)
	if err != nil {
		return nil, err
	}

	user := &usermodels.User{
		ID:               id.UserID(uuid.New()),
		APIKey:           apiKey,
		CheqdAPIKeyHash:  keyHash,
		CheqdAPIKeyHint:  secrets.Hint(cheqdAPIKey),
		SubscriptionTier: usermodels.TierFree,
		CreditsRemaining: s.initialCredits,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	payload, err := json.Marshal(struct {
		UserID string `json:"userId"`
		Tier   string `json:"subscriptionTier"`
	}{user.ID.String(), user.SubscriptionTier})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode analytics event")
	}

	err = s.txRunner.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.users.Create(txCtx, user); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to create user")
		}
		event := analyticsmodels.NewEvent(user.ID, analyticsmodels.EventUserCreated, payload, now)
		if err := s.analytics.Append(txCtx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to record analytics")
		}
		entry := outbox.NewEntry("user", user.ID.String(), analyticsmodels.EventUserCreated, payload)
		if err := s.outbox.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to enqueue analytics event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.UsersCreated.Inc()
	}
	s.logger.InfoContext(ctx, "user.created", "user_id", user.ID.String())
	return user, nil
}

// lookupProvider resolves the issuer, turning an unknown name into a
// validation error that lists what is supported.
func (s *Service) lookupProvider(ctx context.Context, name string) (*providermodels.Provider, error) {
	provider, err := s.providers.FindByName(ctx, name)
	if err == nil {
		return provider, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load provider")
	}

	msg := fmt.Sprintf("Unsupported AI provider: %s", name)
	if supported := s.supportedProviderNames(ctx); len(supported) > 0 {
		msg += ". Supported providers: " + strings.Join(supported, ", ")
	}
	return nil, dErrors.New(dErrors.CodeValidation, msg)
}

func (s *Service) supportedProviderNames(ctx context.Context) []string {
	providers, err := s.providers.List(ctx)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name)
	}
	return names
}

// ensureDID returns the issuer's DID and keypair id, minting them on first
// issuance. A stored DID short-circuits with no outbound call. Concurrent
// mints for the same issuer collapse in-process via singleflight; across
// processes the conditional AttachDID update decides the winner.
func (s *Service) ensureDID(ctx context.Context, apiKey string, provider *providermodels.Provider) (did, keypairID string, err error) {
	if provider.HasDID() {
		return provider.DID, provider.KeypairID, nil
	}

	type minted struct {
		did       string
		keypairID string
	}
	v, err, _ := s.didMints.Do(provider.Name, func() (any, error) {
		did, keypairID, err := s.mintDID(ctx, apiKey, provider)
		if err != nil {
			return nil, err
		}
		return minted{did: did, keypairID: keypairID}, nil
	})
	if err != nil {
		return "", "", err
	}
	m := v.(minted)
	return m.did, m.keypairID, nil
}

func (s *Service) mintDID(ctx context.Context, apiKey string, provider *providermodels.Provider) (string, string, error) {
	// Another request may have attached a DID between the caller's read and
	// this flight winning the singleflight slot.
	fresh, err := s.providers.FindByName(ctx, provider.Name)
	if err == nil && fresh.HasDID() {
		return fresh.DID, fresh.KeypairID, nil
	}

	keypair, err := s.identity.CreateKeypair(ctx, apiKey)
	if err != nil {
		return "", "", translateExternal(err, "failed to create keypair")
	}

	created, err := s.identity.CreateDID(ctx, apiKey, identity.CreateDIDParams{
		Kid:          keypair.Kid,
		ProviderName: provider.DisplayName,
		ProfileURL:   s.publicBaseURL + "/providers/" + provider.Name,
	})
	if err != nil {
		return "", "", translateExternal(err, "failed to create DID")
	}

	if err := s.providers.AttachDID(ctx, provider.ID, created.DID, keypair.Kid); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// A concurrent issuance in another process won the attach; use
			// the DID that landed.
			winner, err := s.providers.FindByName(ctx, provider.Name)
			if err != nil {
				return "", "", dErrors.Wrap(err, dErrors.CodePersistence, "failed to reload provider")
			}
			s.logger.InfoContext(ctx, "did_mint.lost_race", "provider", provider.Name, "did", winner.DID)
			return winner.DID, winner.KeypairID, nil
		}
		return "", "", dErrors.Wrap(err, dErrors.CodePersistence, "failed to attach DID")
	}

	s.logger.InfoContext(ctx, "did_mint.ok", "provider", provider.Name, "did", created.DID)
	return created.DID, keypair.Kid, nil
}

// createStatusList creates the hosted revocation list for this issuance.
// Failures degrade the credential to one without a status reference rather
// than failing the request.
func (s *Service) createStatusList(ctx context.Context, apiKey string, provider *providermodels.Provider, paymentAmount float64) *statuslist.StatusList {
	name := provider.Name + "-content-credentials"
	list, err := s.statusLists.Create(ctx, apiKey, provider.DID, name, paymentAmount)
	if err != nil {
		s.logger.WarnContext(ctx, "issue_credential.statuslist_degraded",
			"provider", provider.Name,
			"error", err,
		)
		if s.metrics != nil {
			s.metrics.StatusListDegraded.Inc()
		}
		return nil
	}
	return list
}

func (s *Service) verificationURL(credentialID id.CredentialID) string {
	return fmt.Sprintf("%s/api/credentials/%s", s.publicBaseURL, credentialID)
}

func (s *Service) countIssuanceFailure(stage string) {
	if s.metrics != nil {
		s.metrics.IncrementIssuanceFailure(stage)
	}
}
