// Package service holds the use cases that span several repositories:
// inventory range updates, availability quotes, reservation commits and
// ledger synchronization.  Every entry point takes the caller's
// auth.Context and resolves its hotel scope before touching data.
package service

import (
	"fmt"

	"github.com/iliyamo/hotel-reservation/internal/inventory"
)

// ValidationError reports input that cannot be processed.  Handlers map it
// to 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error { return &ValidationError{Field: field, Message: msg} }

// CapacityError is returned when a reservation does not fit the remaining
// inventory.  Quote holds the per-day breakdown that failed.
type CapacityError struct {
	Quote inventory.Quote
}

func (e *CapacityError) Error() string { return "not enough availability for the requested stay" }
