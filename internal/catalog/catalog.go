package catalog

//go:generate mockgen -source=catalog.go -destination=mocks/mocks.go -package=mocks Resolver

import (
	"context"

	dErrors "savora/pkg/domain-errors"

	"savora/internal/cart/models"
)

// Item is a purchasable menu entry as the catalog declares it, including
// the add-ons it permits.
type Item struct {
	ID             string
	Name           string
	UnitPriceCents int64
	ImageRef       string
	VendorID       string
	VendorName     string
	Kind           models.ItemKind
	AddOns         []models.AddOn
}

// Resolver turns a client's selection into a fully-formed cart candidate.
// Name, price, image and vendor are copied from the catalog at selection
// time so later catalog edits never mutate carts retroactively.
type Resolver interface {
	Resolve(ctx context.Context, itemID string, addOnIDs []string, instructions string) (models.Candidate, error)
}

// Memory is a Resolver over a fixed in-process menu.
type Memory struct {
	items map[string]Item
}

func NewMemory(items ...Item) *Memory {
	m := &Memory{items: make(map[string]Item, len(items))}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *Memory) Resolve(_ context.Context, itemID string, addOnIDs []string, instructions string) (models.Candidate, error) {
	item, ok := m.items[itemID]
	if !ok {
		return models.Candidate{}, dErrors.New(dErrors.CodeNotFound, "catalog item not found")
	}

	permitted := make(map[string]models.AddOn, len(item.AddOns))
	for _, a := range item.AddOns {
		permitted[a.ID] = a
	}

	var addOns []models.AddOn
	seen := make(map[string]bool, len(addOnIDs))
	for _, id := range addOnIDs {
		a, ok := permitted[id]
		if !ok {
			return models.Candidate{}, dErrors.New(dErrors.CodeNotFound, "add-on not available for this item")
		}
		if seen[id] {
			return models.Candidate{}, dErrors.New(dErrors.CodeBadRequest, "duplicate add-on")
		}
		seen[id] = true
		addOns = append(addOns, a)
	}

	return models.Candidate{
		CatalogItemID:  item.ID,
		Name:           item.Name,
		UnitPriceCents: item.UnitPriceCents,
		ImageRef:       item.ImageRef,
		VendorID:       item.VendorID,
		VendorName:     item.VendorName,
		Kind:           item.Kind,
		Instructions:   instructions,
		AddOns:         addOns,
	}, nil
}

// DefaultMenu seeds the in-memory resolver for local development.
func DefaultMenu() []Item {
	return []Item{
		{
			ID: "pad-thai", Name: "Pad Thai", UnitPriceCents: 1250,
			VendorID: "thai-corner", VendorName: "Thai Corner", Kind: models.KindCatalogItem,
			AddOns: []models.AddOn{
				{ID: "egg", Name: "Fried Egg", PriceCents: 150},
				{ID: "shrimp", Name: "Shrimp", PriceCents: 350},
			},
		},
		{
			ID: "green-curry", Name: "Green Curry", UnitPriceCents: 1400,
			VendorID: "thai-corner", VendorName: "Thai Corner", Kind: models.KindCatalogItem,
			AddOns: []models.AddOn{
				{ID: "tofu", Name: "Tofu", PriceCents: 200},
			},
		},
		{
			ID: "weekly-lunch-plan", Name: "Weekly Lunch Plan", UnitPriceCents: 4900,
			VendorID: "savora", VendorName: "Savora", Kind: models.KindSubscriptionPlan,
		},
	}
}
