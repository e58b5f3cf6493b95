package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/UltraQuamfy/contentify/internal/analytics/models"
)

// InMemory stores analytics events in memory for tests.
type InMemory struct {
	mu     sync.RWMutex
	events []*models.Event
}

// NewInMemory creates an in-memory analytics store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append records one analytics event.
func (s *InMemory) Append(_ context.Context, event *models.Event) error {
	if event == nil {
		return fmt.Errorf("event is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *event
	s.events = append(s.events, &copied)
	return nil
}

// CountByType returns the number of recorded events of one type.
func (s *InMemory) CountByType(_ context.Context, eventType string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, e := range s.events {
		if e.EventType == eventType {
			count++
		}
	}
	return count, nil
}

// Events returns a snapshot of all recorded events, oldest first.
func (s *InMemory) Events() []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		copied := *e
		out = append(out, &copied)
	}
	return out
}
