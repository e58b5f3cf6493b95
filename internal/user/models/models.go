// Package models defines the account owning issued credentials.
package models

import (
	"time"

	id "github.com/UltraQuamfy/contentify/pkg/domain"
)

// Subscription tiers. Only "free" is minted automatically; paid tiers are
// assigned out of band.
const (
	TierFree = "free"
	TierPro  = "pro"
)

// FreeTierCredits is the issuance allowance granted to a freshly created
// free-tier account.
const FreeTierCredits = 10

// User is an account created on first credential issuance. The forwarded
// cheqd API key is never stored in plaintext; only a bcrypt hash and a
// display hint survive the request.
type User struct {
	ID               id.UserID
	Email            string
	APIKey           string
	CheqdAPIKeyHash  string
	CheqdAPIKeyHint  string
	SubscriptionTier string
	CreditsRemaining int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
