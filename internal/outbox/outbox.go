// Package outbox implements the transactional outbox pattern for analytics
// events. Events are appended in the same database transaction as the
// business write and published to Kafka by a background worker, so an event
// is never emitted for a change that rolled back.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry represents a pending event in the outbox table.
type Entry struct {
	ID            uuid.UUID
	AggregateType string     // e.g., "credential", "user", "provider"
	AggregateID   string     // e.g., credential URN, user ID
	EventType     string     // e.g., "credential_created", "credential_verified"
	Payload       []byte     // JSON-encoded analytics event
	CreatedAt     time.Time  // When the entry was created
	ProcessedAt   *time.Time // NULL = pending, non-NULL = published to Kafka
}

// IsPending returns true if this entry has not been processed yet.
func (e *Entry) IsPending() bool {
	return e.ProcessedAt == nil
}

// NewEntry creates a new outbox entry with a generated UUID.
func NewEntry(aggregateType, aggregateID, eventType string, payload []byte) *Entry {
	return &Entry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
}

// Store defines the outbox persistence operations.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append adds a new entry to the outbox. Call it inside the same
	// transaction as the business operation that produced the event.
	Append(ctx context.Context, entry *Entry) error

	// FetchUnprocessed returns up to limit entries that haven't been processed,
	// oldest first. Implementations should use row-level locking
	// (e.g., FOR UPDATE SKIP LOCKED) to support concurrent workers.
	FetchUnprocessed(ctx context.Context, limit int) ([]*Entry, error)

	// MarkProcessed marks an entry as successfully published to Kafka.
	MarkProcessed(ctx context.Context, id uuid.UUID, processedAt time.Time) error

	// CountPending returns the number of unprocessed entries.
	CountPending(ctx context.Context) (int64, error)

	// DeleteProcessedBefore removes old processed entries for cleanup.
	// Returns the number of entries deleted.
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
