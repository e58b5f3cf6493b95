// Package models defines the AI provider issuing credentials.
package models

import (
	"time"

	id "github.com/UltraQuamfy/contentify/pkg/domain"
)

// Provider is an AI service acting as credential issuer. DID and KeypairID
// start empty and are attached exactly once, on the provider's first
// issuance.
type Provider struct {
	ID          id.ProviderID
	Name        string
	DisplayName string
	DID         string
	KeypairID   string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasDID reports whether an issuer identity has already been minted.
func (p *Provider) HasDID() bool {
	return p.DID != "" && p.KeypairID != ""
}
