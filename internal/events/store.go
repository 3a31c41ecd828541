package events

import (
	"context"
	"sync"
)

// Store is an append-only sink for cart activity events.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// MemoryStore keeps events in memory, newest last. Used in tests and as
// the default sink when no broker is configured.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ListByOwner returns the owner's events in append order.
func (s *MemoryStore) ListByOwner(_ context.Context, owner string) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.Owner == owner {
			out = append(out, e)
		}
	}
	return out, nil
}

// Multi fans an event out to several sinks. The first failure wins but all
// sinks still see the event.
func Multi(stores ...Store) Store {
	return multiStore(stores)
}

type multiStore []Store

func (m multiStore) Append(ctx context.Context, event Event) error {
	var first error
	for _, s := range m {
		if err := s.Append(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
