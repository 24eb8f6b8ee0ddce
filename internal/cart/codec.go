package cart

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EncodeItems serialises a cart snapshot. An empty cart encodes as "[]".
func EncodeItems(items []LineItem) ([]byte, error) {
	if items == nil {
		items = []LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode cart: %w", err)
	}
	return data, nil
}

// DecodeItems parses a persisted cart snapshot. Records with missing ids,
// non-positive quantities, negative prices or duplicate products are rejected
// as a whole.
func DecodeItems(data []byte) ([]LineItem, error) {
	var items []LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	seen := make(map[string]struct{}, len(items))
	for i := range items {
		it := &items[i]
		it.ProductID = strings.TrimSpace(it.ProductID)
		if it.ProductID == "" {
			return nil, fmt.Errorf("decode cart: item %d has no id", i)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("decode cart: item %s has quantity %d", it.ProductID, it.Quantity)
		}
		if it.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("decode cart: item %s has negative price", it.ProductID)
		}
		if _, dup := seen[it.ProductID]; dup {
			return nil, fmt.Errorf("decode cart: duplicate item %s", it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
		if it.Thumbnail == "" {
			it.Thumbnail = PlaceholderThumbnail
		}
	}
	return items, nil
}
