package models

// Item is one inventory record. It is a plain value: behaviour lives on the
// item manager, so copies can be handed out freely.
type Item struct {
	SKU      SKU    `json:"sku"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

// Field names of Item in declaration order, as used by reports and patches.
const (
	FieldSKU      = "sku"
	FieldName     = "name"
	FieldCategory = "category"
	FieldQuantity = "quantity"
)

// FieldNames lists Item's fields in declaration order.
var FieldNames = []string{FieldSKU, FieldName, FieldCategory, FieldQuantity}

// CreateItemInput is the raw input for creating an Item. Quantity is a
// pointer so that a missing quantity can be told apart from zero stock.
type CreateItemInput struct {
	Name     string `json:"name"     validate:"required,nonspace_gt=5"`
	Category string `json:"category" validate:"required,singleword,min=2"`
	Quantity *int   `json:"quantity" validate:"required"`
}

// Quantity returns a pointer to n for building a CreateItemInput.
func Quantity(n int) *int {
	return &n
}
