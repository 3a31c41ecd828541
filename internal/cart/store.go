package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	cartmetrics "savora/internal/cart/metrics"
	"savora/internal/cart/models"
)

// Store is the authoritative in-memory cart for one owner. All external
// interaction goes through its public operations; nothing else may touch
// the line items or the notification counter.
//
// Construction immediately begins the one-time load from the injected
// Persistence. Until that load completes the store is hydrating: mutations
// apply to memory at once, but nothing is saved, so an empty default can
// never overwrite previously persisted state. The hydrating -> ready
// transition fires exactly once and is terminal.
type Store struct {
	persist Persistence
	logger  *slog.Logger
	metrics *cartmetrics.Metrics

	mu sync.Mutex

	items         []models.LineItem
	notifications NotificationCounter
	// Per-record mutation versions, bumped under mu by every effective
	// mutation. Saves carry the version they snapshot so an older
	// snapshot can never be persisted after a newer one.
	itemsVersion  uint64
	notifsVersion uint64

	hydrated             bool
	ready                chan struct{}
	pendingItems         bool
	pendingNotifications bool
	// Clear / ClearNotifications issued while hydrating invalidate the
	// corresponding loaded record entirely.
	itemsClearedWhileHydrating  bool
	notifsClearedWhileHydrating bool

	observers    map[int]Observer
	nextObserver int

	// saveMu orders writes to persistence; the saved versions record the
	// newest snapshot version already handed to each record's save.
	saveMu             sync.Mutex
	savedItemsVersion  uint64
	savedNotifsVersion uint64

	constructedAt time.Time
}

// Observer receives the post-mutation snapshot. Callbacks run outside the
// store's critical section.
type Observer func(models.Snapshot)

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a structured logger for swallowed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithMetrics attaches cart module metrics.
func WithMetrics(m *cartmetrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore constructs an empty store and starts its one-time load.
func NewStore(persist Persistence, opts ...Option) *Store {
	s := &Store{
		persist:       persist,
		logger:        slog.New(slog.DiscardHandler),
		ready:         make(chan struct{}),
		observers:     make(map[int]Observer),
		constructedAt: time.Now(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	go s.hydrate(context.Background())
	return s
}

// hydrate seeds initial state from persistence, exactly once. The loaded
// records are only a base: mutations issued since construction are replayed
// on top via the merge rule, so a late load never clobbers them and the
// one-item-per-configuration invariant holds across the seam.
func (s *Store) hydrate(ctx context.Context) {
	saved, err := s.persist.Load(ctx)
	if err != nil {
		s.logger.Warn("cart load failed; starting empty", "error", err)
		saved = SavedState{}
	}

	s.mu.Lock()
	base := saved.Items
	if s.itemsClearedWhileHydrating {
		base = nil
	}
	pending := s.items
	s.items = make([]models.LineItem, 0, len(base)+len(pending))
	for _, it := range base {
		s.items = append(s.items, it.Clone())
	}
	for _, p := range pending {
		s.mergeLocked(p)
	}
	if !s.notifsClearedWhileHydrating {
		s.notifications.Add(saved.Notifications)
	}

	s.hydrated = true
	flushItems := s.pendingItems
	flushNotifs := s.pendingNotifications
	itemsVer, notifsVer := s.itemsVersion, s.notifsVersion
	snap := s.snapshotLocked()
	obs := s.observerListLocked()
	s.mu.Unlock()

	// Flush withheld saves before releasing ready-waiters, so anyone who
	// waited for readiness mutates strictly after the flush.
	if flushItems {
		s.saveItems(ctx, snap.Items, itemsVer)
	}
	if flushNotifs {
		s.saveNotifications(ctx, snap.NotificationCount, notifsVer)
	}

	close(s.ready)

	if s.metrics != nil {
		s.metrics.HydrationLatency.Observe(time.Since(s.constructedAt).Seconds())
	}
	notify(obs, snap)
}

// mergeLocked folds item into the collection by configuration key: an
// existing line item absorbs the quantity, otherwise the item is appended
// as-is (keeping its id).
func (s *Store) mergeLocked(item models.LineItem) {
	key := item.Key()
	for i := range s.items {
		if s.items[i].Key() == key {
			s.items[i].Quantity += item.Quantity
			return
		}
	}
	s.items = append(s.items, item)
}

// WaitReady blocks until the one-time load has completed.
func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether hydration has completed.
func (s *Store) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// AddLineItem merges the candidate into an existing line item with the same
// configuration key, or appends a new one with a fresh id. Quantities below
// 1 clamp to 1. The notification counter advances by exactly 1 either way,
// regardless of quantity magnitude.
func (s *Store) AddLineItem(ctx context.Context, cand models.Candidate, quantity int) models.Snapshot {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	key := cand.Key()
	merged := false
	for i := range s.items {
		if s.items[i].Key() == key {
			s.items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		s.items = append(s.items, newLineItem(cand, quantity))
	}
	s.notifications.Increment()
	snap, obs, persistNow := s.mutatedLocked(true, true)
	itemsVer, notifsVer := s.itemsVersion, s.notifsVersion
	s.mu.Unlock()

	if s.metrics != nil {
		outcome := "created"
		if merged {
			outcome = "merged"
		}
		s.metrics.Additions.WithLabelValues(outcome).Inc()
	}
	if persistNow {
		s.saveItems(ctx, snap.Items, itemsVer)
		s.saveNotifications(ctx, snap.NotificationCount, notifsVer)
	}
	notify(obs, snap)
	return snap
}

// RemoveLineItem removes the line item with the given id and reports whether
// it existed. Unknown ids are a silent no-op: nothing is saved and observers
// do not fire.
func (s *Store) RemoveLineItem(ctx context.Context, id uuid.UUID) (models.Snapshot, bool) {
	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, false
	}
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	snap, obs, persistNow := s.mutatedLocked(true, false)
	itemsVer := s.itemsVersion
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Removals.Inc()
	}
	if persistNow {
		s.saveItems(ctx, snap.Items, itemsVer)
	}
	notify(obs, snap)
	return snap, true
}

// UpdateQuantity sets the quantity of an existing line item and reports
// whether the cart changed. A quantity of zero or less removes the item
// instead; no stored line item may hold a non-positive quantity. Unknown ids
// are a silent no-op.
func (s *Store) UpdateQuantity(ctx context.Context, id uuid.UUID, quantity int) (models.Snapshot, bool) {
	if quantity <= 0 {
		return s.RemoveLineItem(ctx, id)
	}

	s.mu.Lock()
	idx := s.indexOfLocked(id)
	if idx < 0 {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, false
	}
	s.items[idx].Quantity = quantity
	snap, obs, persistNow := s.mutatedLocked(true, false)
	itemsVer := s.itemsVersion
	s.mu.Unlock()

	if persistNow {
		s.saveItems(ctx, snap.Items, itemsVer)
	}
	notify(obs, snap)
	return snap, true
}

// Clear empties the line-item collection. The notification counter is
// deliberately untouched; its lifecycle is independent.
func (s *Store) Clear(ctx context.Context) models.Snapshot {
	s.mu.Lock()
	s.items = nil
	if !s.hydrated {
		s.itemsClearedWhileHydrating = true
	}
	snap, obs, persistNow := s.mutatedLocked(true, false)
	itemsVer := s.itemsVersion
	s.mu.Unlock()

	if persistNow {
		s.saveItems(ctx, snap.Items, itemsVer)
	}
	notify(obs, snap)
	return snap
}

// ClearNotifications resets the unseen-addition counter to zero.
func (s *Store) ClearNotifications(ctx context.Context) {
	s.mu.Lock()
	s.notifications.Reset()
	if !s.hydrated {
		s.notifsClearedWhileHydrating = true
	}
	snap, obs, persistNow := s.mutatedLocked(false, true)
	notifsVer := s.notifsVersion
	s.mu.Unlock()

	if persistNow {
		s.saveNotifications(ctx, snap.NotificationCount, notifsVer)
	}
	notify(obs, snap)
}

// Subscribe registers an observer for post-mutation snapshots. The returned
// cancel function unregisters it.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.mu.Lock()
	id := s.nextObserver
	s.nextObserver++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

// Snapshot returns the current derived cart view.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// LineItems returns the held line items in first-add order.
func (s *Store) LineItems() []models.LineItem {
	return s.Snapshot().Items
}

// ItemCount is the sum of all quantities.
func (s *Store) ItemCount() int {
	return s.Snapshot().ItemCount
}

// TotalPriceCents is the sum over items of (unit price + add-on prices) * quantity.
func (s *Store) TotalPriceCents() int64 {
	return s.Snapshot().TotalPriceCents
}

// NotificationCount is the number of unseen addition events.
func (s *Store) NotificationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notifications.Count()
}

func (s *Store) indexOfLocked(id uuid.UUID) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// mutatedLocked records which records an effective mutation touched and
// reports whether they may be saved now. While hydrating, saving is
// withheld and flushed right after the ready transition.
func (s *Store) mutatedLocked(itemsChanged, notifsChanged bool) (models.Snapshot, []Observer, bool) {
	if itemsChanged {
		s.itemsVersion++
	}
	if notifsChanged {
		s.notifsVersion++
	}
	if !s.hydrated {
		s.pendingItems = s.pendingItems || itemsChanged
		s.pendingNotifications = s.pendingNotifications || notifsChanged
	}
	return s.snapshotLocked(), s.observerListLocked(), s.hydrated
}

func (s *Store) snapshotLocked() models.Snapshot {
	items := make([]models.LineItem, len(s.items))
	count := 0
	var total int64
	for i, it := range s.items {
		items[i] = it.Clone()
		count += it.Quantity
		total += it.LineTotalCents()
	}
	return models.Snapshot{
		Items:             items,
		ItemCount:         count,
		TotalPriceCents:   total,
		NotificationCount: s.notifications.Count(),
	}
}

func (s *Store) observerListLocked() []Observer {
	if len(s.observers) == 0 {
		return nil
	}
	out := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		out = append(out, fn)
	}
	return out
}

func (s *Store) saveItems(ctx context.Context, items []models.LineItem, version uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if version <= s.savedItemsVersion {
		return
	}
	// Advance even on failure; an older snapshot must never land after a
	// newer one, and a later mutation will carry the current state anyway.
	s.savedItemsVersion = version
	if err := s.persist.SaveItems(ctx, items); err != nil {
		s.logger.Warn("cart items save failed; memory remains authoritative", "error", err)
		if s.metrics != nil {
			s.metrics.SaveFailures.WithLabelValues("items").Inc()
		}
	}
}

func (s *Store) saveNotifications(ctx context.Context, count int, version uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if version <= s.savedNotifsVersion {
		return
	}
	s.savedNotifsVersion = version
	if err := s.persist.SaveNotifications(ctx, count); err != nil {
		s.logger.Warn("notification counter save failed; memory remains authoritative", "error", err)
		if s.metrics != nil {
			s.metrics.SaveFailures.WithLabelValues("notifications").Inc()
		}
	}
}

func notify(observers []Observer, snap models.Snapshot) {
	for _, fn := range observers {
		fn(snap)
	}
}

func newLineItem(cand models.Candidate, quantity int) models.LineItem {
	li := models.LineItem{
		ID:             uuid.New(),
		CatalogItemID:  cand.CatalogItemID,
		Name:           cand.Name,
		UnitPriceCents: cand.UnitPriceCents,
		ImageRef:       cand.ImageRef,
		VendorID:       cand.VendorID,
		VendorName:     cand.VendorName,
		Kind:           cand.Kind,
		Instructions:   cand.Instructions,
		Quantity:       quantity,
	}
	if len(cand.AddOns) > 0 {
		li.AddOns = make([]models.AddOn, len(cand.AddOns))
		copy(li.AddOns, cand.AddOns)
	}
	return li
}
