package cart

import (
	"sync"
)

// Manager hands out one Store per owner, created lazily. Each store gets a
// persistence handle namespaced to its owner, so independent sessions never
// share durable records. Two processes serving the same owner remain
// last-writer-wins at the persistence layer; the manager only guarantees a
// single store per owner within this process.
type Manager struct {
	mu      sync.Mutex
	stores  map[string]*Store
	factory Factory
	opts    []Option
}

// NewManager builds a manager over the given persistence factory. The
// options are applied to every store it creates.
func NewManager(factory Factory, opts ...Option) *Manager {
	return &Manager{
		stores:  make(map[string]*Store),
		factory: factory,
		opts:    opts,
	}
}

// ForOwner returns the owner's store, constructing and hydrating it on
// first use.
func (m *Manager) ForOwner(owner string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[owner]; ok {
		return s
	}
	s := NewStore(m.factory.ForOwner(owner), m.opts...)
	m.stores[owner] = s
	return s
}
