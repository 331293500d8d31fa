package services

import (
	"github.com/ghuser/inventory/services/inventory/domain/models"
)

// SKUDeriver computes the SKU of a new item from its name and category.
type SKUDeriver func(name, category string) models.SKU

// ItemFactory builds validated Items.
type ItemFactory struct {
	deriveSKU SKUDeriver
}

// FactoryOption configures an ItemFactory.
type FactoryOption func(*ItemFactory)

// WithSKUDeriver replaces DeriveSKU as the factory's SKU scheme.
func WithSKUDeriver(fn SKUDeriver) FactoryOption {
	return func(f *ItemFactory) {
		if fn != nil {
			f.deriveSKU = fn
		}
	}
}

// NewItemFactory returns an ItemFactory using DeriveSKU unless overridden.
func NewItemFactory(opts ...FactoryOption) *ItemFactory {
	f := &ItemFactory{deriveSKU: DeriveSKU}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create validates in and builds an Item from it. Invalid input yields the
// zero Item and a *domain.ValidationError; callers branch on the error before
// using the Item.
func (f *ItemFactory) Create(in models.CreateItemInput) (models.Item, error) {
	if err := ValidateItem(in); err != nil {
		return models.Item{}, err
	}
	return models.Item{
		SKU:      f.deriveSKU(in.Name, in.Category),
		Name:     in.Name,
		Category: in.Category,
		Quantity: *in.Quantity,
	}, nil
}
