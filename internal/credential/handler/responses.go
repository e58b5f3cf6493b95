package handler

import (
	"time"

	credmodels "github.com/UltraQuamfy/contentify/internal/credential/models"
	"github.com/UltraQuamfy/contentify/internal/credential/service"
	providermodels "github.com/UltraQuamfy/contentify/internal/provider/models"
)

// CredentialSummary is the credential block of the create response.
type CredentialSummary struct {
	ID                string                   `json:"id"`
	IssuerDID         string                   `json:"issuerDID"`
	IssuerName        string                   `json:"issuerName"`
	ContentHash       string                   `json:"contentHash"`
	AuthenticityScore int                      `json:"authenticityScore"`
	PaymentRails      *credmodels.PaymentRails `json:"paymentRails"`
	StatusListURL     string                   `json:"statusListUrl,omitempty"`
	VerificationURL   string                   `json:"verificationUrl"`
}

// CreateCredentialResponse is the HTTP response for
// POST /api/credentials/create.
type CreateCredentialResponse struct {
	Success        bool                 `json:"success"`
	Credential     CredentialSummary    `json:"credential"`
	QRCode         string               `json:"qrCode"`
	FullCredential *credmodels.Document `json:"fullCredential"`
}

// FromIssueResult converts an issuance result to the create response.
func FromIssueResult(result *service.IssueResult) *CreateCredentialResponse {
	doc := result.Document
	return &CreateCredentialResponse{
		Success: true,
		Credential: CredentialSummary{
			ID:                result.Credential.ID.String(),
			IssuerDID:         result.Provider.DID,
			IssuerName:        result.Provider.DisplayName,
			ContentHash:       result.Credential.ContentHash,
			AuthenticityScore: result.Credential.AuthenticityScore,
			PaymentRails:      doc.PaymentRails,
			StatusListURL:     result.StatusListURL,
			VerificationURL:   result.VerificationURL,
		},
		QRCode:         result.QRCode,
		FullCredential: &doc,
	}
}

// CredentialDetail is the stored view returned by reads.
type CredentialDetail struct {
	ID                string    `json:"id"`
	IssuerDID         string    `json:"issuerDID"`
	IssuerName        string    `json:"issuerName"`
	ContentHash       string    `json:"contentHash"`
	ContentPreview    string    `json:"contentPreview"`
	AuthenticityScore int       `json:"authenticityScore"`
	Status            string    `json:"status"`
	PaymentAmount     float64   `json:"paymentAmount"`
	VerificationCount int       `json:"verificationCount"`
	RevenueEarned     float64   `json:"revenueEarned"`
	CreatedAt         time.Time `json:"createdAt"`
}

// GetCredentialResponse is the HTTP response for GET /api/credentials/{id}.
type GetCredentialResponse struct {
	Success        bool                 `json:"success"`
	Credential     CredentialDetail     `json:"credential"`
	FullCredential *credmodels.Document `json:"fullCredential,omitempty"`
}

// FromEnriched converts an enriched read to the get response.
func FromEnriched(enriched *credmodels.EnrichedCredential) *GetCredentialResponse {
	response := &GetCredentialResponse{
		Success:    true,
		Credential: detailFromEnriched(enriched),
	}
	if enriched.Metadata != nil {
		response.FullCredential = enriched.Metadata.Document
	}
	return response
}

func detailFromEnriched(enriched *credmodels.EnrichedCredential) CredentialDetail {
	return CredentialDetail{
		ID:                enriched.ID.String(),
		IssuerDID:         enriched.ProviderDID,
		IssuerName:        enriched.ProviderDisplayName,
		ContentHash:       enriched.ContentHash,
		ContentPreview:    enriched.ContentPreview,
		AuthenticityScore: enriched.AuthenticityScore,
		Status:            string(enriched.Status),
		PaymentAmount:     enriched.PaymentAmount,
		VerificationCount: enriched.VerificationCount,
		RevenueEarned:     enriched.RevenueEarned,
		CreatedAt:         enriched.CreatedAt,
	}
}

// VerificationView is the verification block of the verify response.
type VerificationView struct {
	ID                string    `json:"id"`
	CredentialID      string    `json:"credentialId"`
	VerifierAddress   string    `json:"verifierAddress"`
	VerifierDevice    string    `json:"verifierDevice"`
	PaymentAmount     float64   `json:"paymentAmount"`
	PaymentTxHash     string    `json:"paymentTxHash,omitempty"`
	VerifiedAt        time.Time `json:"verifiedAt"`
	VerificationCount int       `json:"verificationCount"`
	RevenueEarned     float64   `json:"revenueEarned"`
}

// VerifyCredentialResponse is the HTTP response for
// POST /api/credentials/{id}/verify.
type VerifyCredentialResponse struct {
	Success      bool             `json:"success"`
	Verification VerificationView `json:"verification"`
}

// FromVerifyResult converts a verify result to the verify response.
func FromVerifyResult(result *service.VerifyResult) *VerifyCredentialResponse {
	v := result.Verification
	return &VerifyCredentialResponse{
		Success: true,
		Verification: VerificationView{
			ID:                v.ID.String(),
			CredentialID:      v.CredentialID.String(),
			VerifierAddress:   v.VerifierAddress,
			VerifierDevice:    v.VerifierDevice,
			PaymentAmount:     v.PaymentAmount,
			PaymentTxHash:     v.PaymentTxHash,
			VerifiedAt:        v.VerifiedAt,
			VerificationCount: result.VerificationCount,
			RevenueEarned:     result.RevenueEarned,
		},
	}
}

// StatsResponse is the HTTP response for GET /api/stats.
type StatsResponse struct {
	TotalCredentials   int64   `json:"totalCredentials"`
	TotalVerifications int64   `json:"totalVerifications"`
	TotalProviders     int64   `json:"totalProviders"`
	TotalRevenue       float64 `json:"totalRevenue"`
}

// FromStats converts the aggregate totals to the stats response.
func FromStats(stats *service.StatsResult) *StatsResponse {
	return &StatsResponse{
		TotalCredentials:   stats.TotalCredentials,
		TotalVerifications: stats.TotalVerifications,
		TotalProviders:     stats.TotalProviders,
		TotalRevenue:       stats.TotalRevenue,
	}
}

// ProviderView is one issuer in the provider listing.
type ProviderView struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	HasDID      bool   `json:"hasDID"`
}

// ListProvidersResponse is the HTTP response for GET /api/providers.
type ListProvidersResponse struct {
	Providers []ProviderView `json:"providers"`
}

// FromProviders converts the issuer catalog to the provider listing.
func FromProviders(providers []*providermodels.Provider) *ListProvidersResponse {
	views := make([]ProviderView, 0, len(providers))
	for _, p := range providers {
		views = append(views, ProviderView{
			Name:        p.Name,
			DisplayName: p.DisplayName,
			HasDID:      p.HasDID(),
		})
	}
	return &ListProvidersResponse{Providers: views}
}

// UserView is the account block of the dashboard response.
type UserView struct {
	Email            string `json:"email"`
	SubscriptionTier string `json:"subscriptionTier"`
	CreditsRemaining int    `json:"creditsRemaining"`
}

// UserStatsView is the aggregate block of the dashboard response.
type UserStatsView struct {
	TotalCredentials   int     `json:"totalCredentials"`
	TotalVerifications int     `json:"totalVerifications"`
	TotalRevenue       float64 `json:"totalRevenue"`
}

// UserCredentialsResponse is the HTTP response for
// GET /api/user/credentials.
type UserCredentialsResponse struct {
	User        UserView           `json:"user"`
	Stats       UserStatsView      `json:"stats"`
	Credentials []CredentialDetail `json:"credentials"`
}

// FromUserCredentials converts the account dashboard to its response.
func FromUserCredentials(result *service.UserCredentialsResult) *UserCredentialsResponse {
	details := make([]CredentialDetail, 0, len(result.Credentials))
	for _, c := range result.Credentials {
		details = append(details, detailFromEnriched(c))
	}
	return &UserCredentialsResponse{
		User: UserView{
			Email:            result.User.Email,
			SubscriptionTier: result.User.SubscriptionTier,
			CreditsRemaining: result.User.CreditsRemaining,
		},
		Stats: UserStatsView{
			TotalCredentials:   result.Stats.TotalCredentials,
			TotalVerifications: result.Stats.TotalVerifications,
			TotalRevenue:       result.Stats.TotalRevenue,
		},
		Credentials: details,
	}
}
