package models

// SKU is the stock-keeping unit derived from an item's name and category.
// SKUs are not unique; two items may share one.
type SKU string

// String returns the underlying string value.
func (s SKU) String() string {
	return string(s)
}
