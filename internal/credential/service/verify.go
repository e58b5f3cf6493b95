package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	analyticsmodels "github.com/UltraQuamfy/contentify/internal/analytics/models"
	credmodels "github.com/UltraQuamfy/contentify/internal/credential/models"
	"github.com/UltraQuamfy/contentify/internal/outbox"
	id "github.com/UltraQuamfy/contentify/pkg/domain"
	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
	"github.com/UltraQuamfy/contentify/pkg/requestcontext"
)

// VerifyParams are the inputs of the verify operation. The credential ID
// arrives raw from the URL path.
type VerifyParams struct {
	CredentialID    string
	VerifierAddress string
	PaymentTxHash   string
}

// VerifyResult carries the recorded verification and the fresh counters.
type VerifyResult struct {
	Verification      *credmodels.Verification
	VerificationCount int
	RevenueEarned     float64
}

// Verify records one verification event: a verification row is appended and
// the credential's counters move by exactly one verification, atomically.
func (s *Service) Verify(ctx context.Context, params VerifyParams) (*VerifyResult, error) {
	if params.VerifierAddress == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Verifier address is required")
	}

	credentialID, err := id.ParseCredentialID(params.CredentialID)
	if err != nil {
		// A malformed ID names no credential.
		return nil, dErrors.New(dErrors.CodeNotFound, "Credential not found")
	}

	credential, err := s.credentials.FindByID(ctx, credentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to load credential")
	}

	now := requestcontext.Now(ctx).UTC()
	verification := &credmodels.Verification{
		ID:              id.VerificationID(uuid.New()),
		CredentialID:    credentialID,
		VerifierAddress: params.VerifierAddress,
		VerifierDevice:  deviceSummary(requestcontext.UserAgent(ctx)),
		PaymentAmount:   credential.PaymentAmount,
		PaymentTxHash:   params.PaymentTxHash,
		VerifiedAt:      now,
	}

	payload, err := json.Marshal(struct {
		CredentialID    string  `json:"credentialId"`
		VerifierAddress string  `json:"verifierAddress"`
		Amount          float64 `json:"paymentAmount"`
	}{credentialID.String(), params.VerifierAddress, credential.PaymentAmount})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to encode analytics event")
	}

	var (
		count   int
		revenue float64
	)
	err = s.txRunner.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		count, revenue, err = s.credentials.BumpVerification(txCtx, credentialID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to update verification counters")
		}
		if err := s.credentials.InsertVerification(txCtx, verification); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to record verification")
		}
		event := analyticsmodels.NewEvent(credential.UserID, analyticsmodels.EventCredentialVerified, payload, now)
		if err := s.analytics.Append(txCtx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to record analytics")
		}
		entry := outbox.NewEntry("credential", credentialID.String(), analyticsmodels.EventCredentialVerified, payload)
		if err := s.outbox.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodePersistence, "failed to enqueue analytics event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Stale counters must not outlive the bump.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, credentialID); err != nil {
			s.logger.WarnContext(ctx, "verify_credential.cache_invalidate_failed",
				"credential_id", credentialID.String(),
				"error", err,
			)
		}
	}

	if s.metrics != nil {
		s.metrics.VerificationsTotal.Inc()
	}
	s.logger.InfoContext(ctx, "verify_credential.ok",
		"credential_id", credentialID.String(),
		"verifier", params.VerifierAddress,
		"verification_count", count,
	)

	return &VerifyResult{
		Verification:      verification,
		VerificationCount: count,
		RevenueEarned:     revenue,
	}, nil
}
