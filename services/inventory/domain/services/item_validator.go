// Package services contains stateless domain services for the inventory
// bounded context: input validation, SKU derivation and item construction.
package services

import (
	"fmt"
	"strings"

	pkgvalidator "github.com/ghuser/inventory/pkg/validator"
	"github.com/ghuser/inventory/services/inventory/domain"
	"github.com/ghuser/inventory/services/inventory/domain/models"
)

const (
	multiWordFirstChars  = 2
	multiWordSecondChars = 1
	singleWordChars      = 3
	categoryChars        = 2
)

// ValidateItem checks creation input against the item rules:
//   - name, category and quantity are all present
//   - name has more than 5 characters once whitespace is removed
//   - category is a single token of at least 2 characters with no whitespace
//
// Quantity is only checked for presence. On failure the returned error is a
// *domain.ValidationError.
func ValidateItem(in models.CreateItemInput) error {
	if err := pkgvalidator.Validate(&in); err != nil {
		fields := pkgvalidator.FormatValidationErrors(err)
		if len(fields) == 0 {
			return fmt.Errorf("%w: %w", domain.ErrInvalidItem, err)
		}
		return domain.NewValidationError(fields)
	}
	return nil
}

// IsValidItem is the boolean form of ValidateItem.
func IsValidItem(name, category string, quantity *int) bool {
	return ValidateItem(models.CreateItemInput{Name: name, Category: category, Quantity: quantity}) == nil
}

// DeriveSKU builds the upper-cased SKU for an item. A multi-word name
// contributes the first 2 characters of its first word and the first character
// of its second; a single-word name contributes its first 3 characters. The
// first 2 characters of the category follow. Words shorter than the slice
// contribute what they have.
func DeriveSKU(name, category string) models.SKU {
	var b strings.Builder

	words := strings.Fields(name)
	switch {
	case len(words) > 1:
		b.WriteString(prefix(words[0], multiWordFirstChars))
		b.WriteString(prefix(words[1], multiWordSecondChars))
	case len(words) == 1:
		b.WriteString(prefix(words[0], singleWordChars))
	}
	b.WriteString(prefix(category, categoryChars))

	return models.SKU(strings.ToUpper(b.String()))
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
