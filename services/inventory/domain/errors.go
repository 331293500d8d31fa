package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the inventory domain. Use errors.Is() to check these.
var (
	// ErrInvalidItem indicates the item input violates domain constraints.
	ErrInvalidItem = errors.New("invalid item")

	// ErrItemNotFound indicates no item carries the requested SKU.
	ErrItemNotFound = errors.New("item not found")
)

// ValidationError is the result returned in place of an Item when creation
// input fails validation. Fields maps the offending input field to a message.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError returns a ValidationError for the given field messages.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidItem.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidItem, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, ErrInvalidItem) match a ValidationError.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidItem
}
