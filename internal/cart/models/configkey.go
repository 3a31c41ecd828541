package models

import (
	"slices"
	"strings"
)

// keySep separates key segments. A unit separator cannot appear in ids and
// is vanishingly unlikely in free text, so user input cannot forge a
// segment boundary.
const keySep = "\x1f"

// ConfigKey derives the merge identity of a selection: the catalog item,
// the set of chosen add-ons, and the special instructions. Two selections
// with the same key are the same configuration and must occupy a single
// line item.
//
// The derivation is order-independent in addOnIDs, and absent inputs
// normalize to empties here, once, never at call sites: nil and empty
// add-on lists are identical, as are "" instructions and none at all.
func ConfigKey(catalogItemID string, addOnIDs []string, instructions string) string {
	sorted := make([]string, len(addOnIDs))
	copy(sorted, addOnIDs)
	slices.Sort(sorted)

	var b strings.Builder
	b.WriteString(catalogItemID)
	b.WriteString(keySep)
	b.WriteString(strings.Join(sorted, keySep))
	b.WriteString(keySep)
	b.WriteString(instructions)
	return b.String()
}
