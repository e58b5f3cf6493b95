package models

import (
	"time"

	id "github.com/UltraQuamfy/contentify/pkg/domain"
)

// Status is the lifecycle state of an issued credential.
type Status string

const (
	StatusActive    Status = "active"
	StatusRevoked   Status = "revoked"
	StatusSuspended Status = "suspended"
)

// IsValid reports whether the status is one of the known lifecycle states.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusRevoked, StatusSuspended:
		return true
	}
	return false
}

// Credential is the bookkeeping row for an issued content credential.
//
// AuthenticityScore is computed once at issuance and never recomputed;
// the score check lives in the assembler, the bounds check in the schema.
// VerificationCount and RevenueEarned only move via atomic SQL increments.
type Credential struct {
	ID                id.CredentialID
	UserID            id.UserID
	ProviderID        id.ProviderID
	ContentHash       string
	ContentPreview    string
	AuthenticityScore int
	PaymentAmount     float64
	Status            Status
	VerificationCount int
	RevenueEarned     float64
	Metadata          *Metadata
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Metadata is the JSONB payload stored with each credential: the full
// assembled document plus the rendered QR data URL.
type Metadata struct {
	Document *Document `json:"document,omitempty"`
	QRCode   string    `json:"qrCode,omitempty"`
}

// EnrichedCredential is a credential joined with the display fields the
// read endpoints return.
type EnrichedCredential struct {
	Credential
	ProviderName        string
	ProviderDisplayName string
	ProviderDID         string
	UserEmail           string
}

// Verification is one append-only verification event against a credential.
type Verification struct {
	ID              id.VerificationID
	CredentialID    id.CredentialID
	VerifierAddress string
	VerifierDevice  string
	PaymentAmount   float64
	PaymentTxHash   string
	VerifiedAt      time.Time
}
