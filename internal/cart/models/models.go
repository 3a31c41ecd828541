package models

import (
	"github.com/google/uuid"
)

// ItemKind distinguishes plan subscriptions from regular menu items. It is
// informational only and plays no part in merge identity.
type ItemKind string

const (
	KindSubscriptionPlan ItemKind = "subscription_plan"
	KindCatalogItem      ItemKind = "catalog_item"
)

// AddOn is a separately priced modifier attached to a line item. Order in
// the AddOns slice is preserved for display; it is irrelevant for identity.
type AddOn struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

// LineItem is one distinct purchasable selection held in the cart. Display
// and pricing attributes are copied from the catalog at selection time and
// never re-fetched.
type LineItem struct {
	ID             uuid.UUID `json:"id"`
	CatalogItemID  string    `json:"catalog_item_id"`
	Name           string    `json:"name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	ImageRef       string    `json:"image_ref,omitempty"`
	VendorID       string    `json:"vendor_id"`
	VendorName     string    `json:"vendor_name"`
	Kind           ItemKind  `json:"kind"`
	Instructions   string    `json:"special_instructions,omitempty"`
	AddOns         []AddOn   `json:"add_ons,omitempty"`
	Quantity       int       `json:"quantity"`
}

// Candidate is a line item before it enters the cart: everything except the
// generated ID and the quantity. The catalog resolver produces these.
type Candidate struct {
	CatalogItemID  string
	Name           string
	UnitPriceCents int64
	ImageRef       string
	VendorID       string
	VendorName     string
	Kind           ItemKind
	Instructions   string
	AddOns         []AddOn
}

// AddOnIDs returns the modifier ids in display order.
func (c Candidate) AddOnIDs() []string {
	return addOnIDs(c.AddOns)
}

// Key derives the merge identity for this candidate.
func (c Candidate) Key() string {
	return ConfigKey(c.CatalogItemID, c.AddOnIDs(), c.Instructions)
}

// Key derives the merge identity for a held line item.
func (li LineItem) Key() string {
	return ConfigKey(li.CatalogItemID, addOnIDs(li.AddOns), li.Instructions)
}

// LineTotalCents is the full price of this line: unit price plus all add-on
// prices, times quantity.
func (li LineItem) LineTotalCents() int64 {
	unit := li.UnitPriceCents
	for _, a := range li.AddOns {
		unit += a.PriceCents
	}
	return unit * int64(li.Quantity)
}

// Clone returns a deep copy so snapshots cannot alias store-owned state.
func (li LineItem) Clone() LineItem {
	out := li
	if li.AddOns != nil {
		out.AddOns = make([]AddOn, len(li.AddOns))
		copy(out.AddOns, li.AddOns)
	}
	return out
}

func addOnIDs(addOns []AddOn) []string {
	if len(addOns) == 0 {
		return nil
	}
	ids := make([]string, len(addOns))
	for i, a := range addOns {
		ids[i] = a.ID
	}
	return ids
}

// Snapshot is the derived cart view handed to consumers: the ordered items
// plus aggregates recomputed from them.
type Snapshot struct {
	Items             []LineItem `json:"items"`
	ItemCount         int        `json:"item_count"`
	TotalPriceCents   int64      `json:"total_price_cents"`
	NotificationCount int        `json:"notification_count"`
}
