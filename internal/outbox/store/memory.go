package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/UltraQuamfy/contentify/internal/outbox"
	"github.com/UltraQuamfy/contentify/pkg/platform/sentinel"
)

// InMemory stores outbox entries in memory for tests and local development.
type InMemory struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*outbox.Entry
}

// NewInMemory creates an in-memory outbox store.
func NewInMemory() *InMemory {
	return &InMemory{entries: make(map[uuid.UUID]*outbox.Entry)}
}

// Append adds a new entry.
func (s *InMemory) Append(_ context.Context, entry *outbox.Entry) error {
	if entry == nil {
		return fmt.Errorf("entry is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *entry
	s.entries[entry.ID] = &stored
	return nil
}

// FetchUnprocessed returns up to limit pending entries, oldest first.
func (s *InMemory) FetchUnprocessed(_ context.Context, limit int) ([]*outbox.Entry, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*outbox.Entry
	for _, entry := range s.entries {
		if entry.IsPending() {
			copied := *entry
			pending = append(pending, &copied)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

// MarkProcessed marks an entry as published.
func (s *InMemory) MarkProcessed(_ context.Context, id uuid.UUID, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok || !entry.IsPending() {
		return fmt.Errorf("outbox entry %s: %w", id, sentinel.ErrNotFound)
	}
	at := processedAt
	entry.ProcessedAt = &at
	return nil
}

// CountPending returns the number of unprocessed entries.
func (s *InMemory) CountPending(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, entry := range s.entries {
		if entry.IsPending() {
			count++
		}
	}
	return count, nil
}

// DeleteProcessedBefore removes old processed entries.
func (s *InMemory) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, entry := range s.entries {
		if entry.ProcessedAt != nil && entry.ProcessedAt.Before(before) {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}
