// Package models defines analytics events recorded alongside issuance and
// verification.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "github.com/UltraQuamfy/contentify/pkg/domain"
)

// Event types recorded by the service.
const (
	EventUserCreated        = "user_created"
	EventCredentialCreated  = "credential_created"
	EventCredentialVerified = "credential_verified"
)

// Event is one analytics row. Payload carries event-specific fields as
// opaque JSON.
type Event struct {
	ID        uuid.UUID
	UserID    id.UserID
	EventType string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// NewEvent builds an event with a fresh ID.
func NewEvent(userID id.UserID, eventType string, payload json.RawMessage, at time.Time) *Event {
	return &Event{
		ID:        uuid.New(),
		UserID:    userID,
		EventType: eventType,
		Payload:   payload,
		CreatedAt: at,
	}
}
