package record

import (
	"encoding/json"
	"fmt"

	"savora/internal/cart/models"
	"savora/pkg/platform/sentinel"
)

// Wire format shared by every persistence backend: the line-item record is
// a JSON array in insertion order, the notification record a bare
// non-negative JSON integer. Keeping the codec in one place guarantees the
// backends stay byte-compatible with each other.

// EncodeItems marshals the line-item record. A nil slice encodes as the
// empty array so an emptied cart round-trips to an empty cart, not null.
func EncodeItems(items []models.LineItem) ([]byte, error) {
	if items == nil {
		items = []models.LineItem{}
	}
	return json.Marshal(items)
}

// DecodeItems unmarshals the line-item record. Corruption is reported as
// sentinel.ErrCorrupted so backends can self-heal uniformly.
func DecodeItems(raw []byte) ([]models.LineItem, error) {
	var items []models.LineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode line-item record: %v: %w", err, sentinel.ErrCorrupted)
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return nil, fmt.Errorf("line item %s has quantity %d: %w", it.ID, it.Quantity, sentinel.ErrCorrupted)
		}
	}
	return items, nil
}

// EncodeCount marshals the notification record.
func EncodeCount(count int) ([]byte, error) {
	if count < 0 {
		count = 0
	}
	return json.Marshal(count)
}

// DecodeCount unmarshals the notification record.
func DecodeCount(raw []byte) (int, error) {
	var count int
	if err := json.Unmarshal(raw, &count); err != nil {
		return 0, fmt.Errorf("decode notification record: %v: %w", err, sentinel.ErrCorrupted)
	}
	if count < 0 {
		return 0, fmt.Errorf("notification count %d is negative: %w", count, sentinel.ErrCorrupted)
	}
	return count, nil
}
