package memory

import (
	"context"
	"log/slog"
	"sync"

	"savora/internal/cart"
	"savora/internal/cart/models"
	"savora/internal/cart/persist/record"
)

// Factory keeps cart records in process memory, keyed by owner. It backs
// tests and dev runs, and doubles as the reference behavior for the durable
// backends: raw JSON records, independent per record, self-healing on
// corruption.
type Factory struct {
	mu     sync.RWMutex
	items  map[string][]byte
	notifs map[string][]byte
	logger *slog.Logger
}

// Option configures a Factory.
type Option func(*Factory)

// WithLogger attaches a logger for self-healing events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) { f.logger = logger }
}

// NewFactory constructs an empty in-memory record store.
func NewFactory(opts ...Option) *Factory {
	f := &Factory{
		items:  make(map[string][]byte),
		notifs: make(map[string][]byte),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// ForOwner returns the persistence handle for one owner's records.
func (f *Factory) ForOwner(owner string) cart.Persistence {
	return &ownerRecords{f: f, owner: owner}
}

// SeedRawItems plants a raw line-item record, valid or not. Test hook for
// corruption and migration scenarios.
func (f *Factory) SeedRawItems(owner, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[owner] = []byte(raw)
}

// SeedRawNotifications plants a raw notification record.
func (f *Factory) SeedRawNotifications(owner, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifs[owner] = []byte(raw)
}

// RawItems returns the stored line-item record and whether it exists.
func (f *Factory) RawItems(owner string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	raw, ok := f.items[owner]
	return string(raw), ok
}

// RawNotifications returns the stored notification record and whether it exists.
func (f *Factory) RawNotifications(owner string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	raw, ok := f.notifs[owner]
	return string(raw), ok
}

type ownerRecords struct {
	f     *Factory
	owner string
}

func (r *ownerRecords) Load(_ context.Context) (cart.SavedState, error) {
	r.f.mu.Lock()
	defer r.f.mu.Unlock()

	var state cart.SavedState
	if raw, ok := r.f.items[r.owner]; ok {
		items, err := record.DecodeItems(raw)
		if err != nil {
			r.f.logger.Warn("discarding corrupt line-item record",
				"owner", r.owner, "error", err)
			delete(r.f.items, r.owner)
		} else {
			state.Items = items
		}
	}
	if raw, ok := r.f.notifs[r.owner]; ok {
		count, err := record.DecodeCount(raw)
		if err != nil {
			r.f.logger.Warn("discarding corrupt notification record",
				"owner", r.owner, "error", err)
			delete(r.f.notifs, r.owner)
		} else {
			state.Notifications = count
		}
	}
	return state, nil
}

func (r *ownerRecords) SaveItems(_ context.Context, items []models.LineItem) error {
	raw, err := record.EncodeItems(items)
	if err != nil {
		return err
	}
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.items[r.owner] = raw
	return nil
}

func (r *ownerRecords) SaveNotifications(_ context.Context, count int) error {
	raw, err := record.EncodeCount(count)
	if err != nil {
		return err
	}
	r.f.mu.Lock()
	defer r.f.mu.Unlock()
	r.f.notifs[r.owner] = raw
	return nil
}
