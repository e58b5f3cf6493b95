package handler

import (
	"strings"

	"github.com/UltraQuamfy/contentify/internal/credential/service"
)

// CreateCredentialRequest is the HTTP request body for
// POST /api/credentials/create. Field validation lives in the service so
// the exact rejection messages have one home; the handler only cleans up
// the input.
type CreateCredentialRequest struct {
	Content       string  `json:"content"`
	AIProvider    string  `json:"aiProvider"`
	PaymentAmount float64 `json:"paymentAmount"`
	CheqdAPIKey   string  `json:"cheqdApiKey"`
	UserAPIKey    string  `json:"userApiKey"`
}

// Sanitize trims the key fields. Content is left untouched; its whitespace
// belongs to the submitted work.
func (r *CreateCredentialRequest) Sanitize() {
	r.AIProvider = strings.TrimSpace(r.AIProvider)
	r.CheqdAPIKey = strings.TrimSpace(r.CheqdAPIKey)
	r.UserAPIKey = strings.TrimSpace(r.UserAPIKey)
}

// Normalize lowercases the provider so "OpenAI" and "openai" name the same
// issuer row.
func (r *CreateCredentialRequest) Normalize() {
	r.AIProvider = strings.ToLower(r.AIProvider)
}

func (r *CreateCredentialRequest) toParams() service.IssueParams {
	return service.IssueParams{
		Content:       r.Content,
		AIProvider:    r.AIProvider,
		PaymentAmount: r.PaymentAmount,
		CheqdAPIKey:   r.CheqdAPIKey,
		UserAPIKey:    r.UserAPIKey,
	}
}

// VerifyCredentialRequest is the HTTP request body for
// POST /api/credentials/{id}/verify.
type VerifyCredentialRequest struct {
	VerifierAddress string `json:"verifierAddress"`
	PaymentTxHash   string `json:"paymentTxHash"`
}

func (r *VerifyCredentialRequest) Sanitize() {
	r.VerifierAddress = strings.TrimSpace(r.VerifierAddress)
	r.PaymentTxHash = strings.TrimSpace(r.PaymentTxHash)
}

func (r *VerifyCredentialRequest) toParams(credentialID string) service.VerifyParams {
	return service.VerifyParams{
		CredentialID:    credentialID,
		VerifierAddress: r.VerifierAddress,
		PaymentTxHash:   r.PaymentTxHash,
	}
}
