package domain

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrTransitionConflict means the order was no longer in the expected status
	// when the transition was written.
	ErrTransitionConflict  = errors.New("order status changed concurrently")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidOrderRequest = errors.New("invalid order request")
	ErrInvalidProduct      = errors.New("invalid product")
)

type InsufficientStockError struct {
	ProductID string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for product %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with id %s not found", e.ProductID)
}

// InvalidStateError reports a status outside the lifecycle. Correct wiring never
// produces one.
type InvalidStateError struct {
	Status OrderStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid order status %q", string(e.Status))
}

// StoreUnavailableError wraps a storage failure that is expected to be transient.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: store unavailable", e.Op)
	}
	return fmt.Sprintf("%s: store unavailable: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}
