package handler

import (
	"strings"

	dErrors "savora/pkg/domain-errors"
)

// AddItemRequest is the HTTP request body for POST /cart/items.
type AddItemRequest struct {
	CatalogItemID       string   `json:"catalog_item_id"`
	AddOnIDs            []string `json:"add_on_ids"`
	SpecialInstructions string   `json:"special_instructions"`
	Quantity            int      `json:"quantity"`
}

// Validate validates and normalizes the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *AddItemRequest) Validate() error {
	r.CatalogItemID = strings.TrimSpace(r.CatalogItemID)
	if r.CatalogItemID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "catalog_item_id is required")
	}
	if len(r.SpecialInstructions) > 500 {
		return dErrors.New(dErrors.CodeBadRequest, "special_instructions must be at most 500 characters")
	}
	for i, id := range r.AddOnIDs {
		r.AddOnIDs[i] = strings.TrimSpace(id)
		if r.AddOnIDs[i] == "" {
			return dErrors.New(dErrors.CodeBadRequest, "add_on_ids must not contain blanks")
		}
	}
	// Quantity is intentionally not validated here: the cart clamps
	// values below 1 to 1.
	return nil
}

// UpdateQuantityRequest is the HTTP request body for PATCH /cart/items/{id}.
// A quantity of zero or less removes the line item.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (r *UpdateQuantityRequest) Validate() error {
	if r.Quantity == nil {
		return dErrors.New(dErrors.CodeBadRequest, "quantity is required")
	}
	return nil
}
