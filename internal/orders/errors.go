package orders

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired      = errors.New("name is required")
	ErrInvalidPrice      = errors.New("price must be between 0 and 9999999999.99")
	ErrInvalidStock      = errors.New("stock must not be negative")
	ErrInvalidQuantity   = errors.New("quantity must be between 0 and 2147483647")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductNotFound   = errors.New("product not found")
	ErrClientNotFound    = errors.New("client not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrProductInUse      = errors.New("product is referenced by orders")
	ErrClientHasOrders   = errors.New("client has orders")

	// dipakai Store saat idempotency_key sudah dipegang order lain
	errIdempotencyKeyTaken = errors.New("idempotency key already used")
)

// InsufficientStockError names the line that aborted an order.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
