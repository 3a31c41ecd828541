package handler

import (
	"savora/internal/cart/models"
)

// SnapshotResponse is the HTTP shape of a cart snapshot. Line items reuse
// the models wire format; aggregates are always derived server-side.
type SnapshotResponse struct {
	Items             []models.LineItem `json:"items"`
	ItemCount         int               `json:"item_count"`
	TotalPriceCents   int64             `json:"total_price_cents"`
	NotificationCount int               `json:"notification_count"`
}

// NotificationsResponse is the HTTP response for GET /cart/notifications.
type NotificationsResponse struct {
	NotificationCount int `json:"notification_count"`
}

// FromSnapshot converts a cart snapshot to its HTTP response.
func FromSnapshot(snap models.Snapshot) SnapshotResponse {
	items := snap.Items
	if items == nil {
		items = []models.LineItem{}
	}
	return SnapshotResponse{
		Items:             items,
		ItemCount:         snap.ItemCount,
		TotalPriceCents:   snap.TotalPriceCents,
		NotificationCount: snap.NotificationCount,
	}
}
