package cart

import (
	"context"

	"savora/internal/cart/models"
)

// SavedState is what a durable backend hands back on load.
type SavedState struct {
	Items         []models.LineItem
	Notifications int
}

// Persistence is the durable-record contract for one cart owner. Two
// independent logical records live behind it: the line-item collection and
// the notification counter. A failure touching one record never blocks the
// other.
//
// Load is best-effort and self-healing: a missing record yields the default
// value with a nil error, and a corrupt record is discarded (best-effort
// delete) and defaulted, again with a nil error. Only infrastructure
// failure surfaces as an error, and the Store maps that to an empty state.
//
// Save errors are returned Go-style; the Store is the boundary that
// swallows them. Backends must never mutate what they are handed.
type Persistence interface {
	Load(ctx context.Context) (SavedState, error)
	SaveItems(ctx context.Context, items []models.LineItem) error
	SaveNotifications(ctx context.Context, count int) error
}

// Factory yields per-owner persistence handles. Backends namespace their
// records by owner so independent sessions never share state.
type Factory interface {
	ForOwner(owner string) Persistence
}
