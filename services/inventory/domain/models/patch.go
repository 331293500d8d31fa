package models

import (
	"encoding/json"
	"fmt"
)

// ItemPatch lists the fields an update may overwrite. A nil field is left
// untouched. Fields outside Item's schema cannot be expressed, so the schema
// stays closed.
type ItemPatch struct {
	SKU      *SKU    `json:"sku,omitempty"`
	Name     *string `json:"name,omitempty"`
	Category *string `json:"category,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
}

// ParsePatch decodes a JSON object into an ItemPatch. Keys that are not Item
// fields are ignored.
func ParsePatch(data []byte) (ItemPatch, error) {
	var p ItemPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return ItemPatch{}, fmt.Errorf("parse item patch: %w", err)
	}
	return p, nil
}

// IsEmpty reports whether the patch sets no field.
func (p ItemPatch) IsEmpty() bool {
	return p.SKU == nil && p.Name == nil && p.Category == nil && p.Quantity == nil
}

// Apply writes every set field of p onto item and returns the names of the
// fields it changed, in declaration order.
func (p ItemPatch) Apply(item *Item) []string {
	var changed []string
	if p.SKU != nil {
		item.SKU = *p.SKU
		changed = append(changed, FieldSKU)
	}
	if p.Name != nil {
		item.Name = *p.Name
		changed = append(changed, FieldName)
	}
	if p.Category != nil {
		item.Category = *p.Category
		changed = append(changed, FieldCategory)
	}
	if p.Quantity != nil {
		item.Quantity = *p.Quantity
		changed = append(changed, FieldQuantity)
	}
	return changed
}
