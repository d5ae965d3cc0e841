package repo

import (
	"context"
	"sync"

	"pulljoker/src/core/domain"
)

// MemoryEventStore keeps streams in process memory.
type MemoryEventStore struct {
	mu      sync.RWMutex
	streams map[string][]domain.Event
}

// NewMemoryEventStore creates an empty store.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{streams: make(map[string][]domain.Event)}
}

func (s *MemoryEventStore) Health(context.Context) error { return nil }

func (s *MemoryEventStore) Close() error { return nil }

func (s *MemoryEventStore) LoadVersion(_ context.Context, aggregateID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.streams[aggregateID]), nil
}

func (s *MemoryEventStore) LoadHistory(_ context.Context, aggregateID string) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stream := s.streams[aggregateID]
	if len(stream) == 0 {
		return nil, domain.NewError(domain.ErrAggregateNotFound, "aggregate %s", aggregateID)
	}
	out := make([]domain.Event, len(stream))
	copy(out, stream)
	return out, nil
}

func (s *MemoryEventStore) Append(_ context.Context, aggregateID string, expectedVersion int, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	head := len(s.streams[aggregateID])
	switch {
	case head > expectedVersion:
		return conflictError(aggregateID, expectedVersion)
	case head < expectedVersion:
		return gapError(aggregateID, expectedVersion, head)
	}
	s.streams[aggregateID] = append(s.streams[aggregateID], events...)
	return nil
}
