// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "github.com/UltraQuamfy/contentify/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing UserID where ProviderID is expected.
type (
	UserID         uuid.UUID
	ProviderID     uuid.UUID
	VerificationID uuid.UUID
)

// CredentialID is the public identifier of an issued credential, in
// "urn:uuid:<uuid>" form. It is minted fresh per issuance and never derived
// from content, so identical content submitted twice gets distinct IDs.
type CredentialID string

const credentialURNPrefix = "urn:uuid:"

// NewCredentialID mints a fresh credential URN.
func NewCredentialID() CredentialID {
	return CredentialID(credentialURNPrefix + uuid.NewString())
}

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseUserID(s string) (UserID, error) {
	id, err := parseUUID(s, "user ID")
	return UserID(id), err
}

func ParseProviderID(s string) (ProviderID, error) {
	id, err := parseUUID(s, "provider ID")
	return ProviderID(id), err
}

func ParseVerificationID(s string) (VerificationID, error) {
	id, err := parseUUID(s, "verification ID")
	return VerificationID(id), err
}

// ParseCredentialID validates a credential URN from an untrusted source.
func ParseCredentialID(s string) (CredentialID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential ID cannot be empty")
	}
	rest, ok := strings.CutPrefix(s, credentialURNPrefix)
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential ID must be a urn:uuid")
	}
	if _, err := uuid.Parse(rest); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid credential ID format")
	}
	return CredentialID(s), nil
}

// String methods - for logging and persistence.

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ProviderID) String() string     { return uuid.UUID(id).String() }
func (id VerificationID) String() string { return uuid.UUID(id).String() }
func (id CredentialID) String() string   { return string(id) }

// IsNil checks - used for service-layer validation.

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ProviderID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id VerificationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CredentialID) IsNil() bool   { return id == "" }

// parseUUID is the shared validation logic. Nil UUIDs are rejected because
// no row is ever keyed by them.
func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label+" format")
	}
	if id == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return id, nil
}
