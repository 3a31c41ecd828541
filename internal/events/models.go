package events

import "time"

// Action names the effective cart operation behind an event. Operations
// that change nothing (unknown line-item ids) emit no event at all.
const (
	ActionItemAdded            = "item_added"
	ActionItemRemoved          = "item_removed"
	ActionQuantityUpdated      = "quantity_updated"
	ActionCartCleared          = "cart_cleared"
	ActionNotificationsCleared = "notifications_cleared"
)

// Event is a cart activity record. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	Timestamp       time.Time `json:"timestamp"`
	Owner           string    `json:"owner"`
	Action          string    `json:"action"`
	LineItemID      string    `json:"line_item_id,omitempty"`
	CatalogItemID   string    `json:"catalog_item_id,omitempty"`
	Quantity        int       `json:"quantity,omitempty"`
	ItemCount       int       `json:"item_count"`
	TotalPriceCents int64     `json:"total_price_cents"`
}
