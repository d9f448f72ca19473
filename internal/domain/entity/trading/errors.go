package trading

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTradeNotFound = errors.New("trade not found")
	ErrLotNotFound   = errors.New("lot not found")

	// ErrConcurrentModification is returned when a lot changed between being read and being realized.
	ErrConcurrentModification = errors.New("lot was modified concurrently")
)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned for malformed input before anything is persisted.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NoOpenLotsError is returned when a sell targets a stock without any open lot.
type NoOpenLotsError struct {
	Stock string
}

func (e *NoOpenLotsError) Error() string {
	return fmt.Sprintf("No open lots found for stock: %s", e.Stock)
}

// InsufficientInventoryError is returned when open lots cannot cover a sell.
type InsufficientInventoryError struct {
	Stock     string
	Requested int64
	Available int64
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("Not enough shares of %s to sell. Requested: %d, Available: %d", e.Stock, e.Requested, e.Available)
}

// IsDomainRejection reports whether err means the sell cannot be covered by inventory.
func IsDomainRejection(err error) bool {
	var noLots *NoOpenLotsError
	var insufficient *InsufficientInventoryError
	return errors.As(err, &noLots) || errors.As(err, &insufficient)
}
