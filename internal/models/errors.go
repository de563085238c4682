package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is the root of every lookup failure
var ErrNotFound = errors.New("not found")

var (
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	ErrEmployeeNotFound = fmt.Errorf("employee %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)

	ErrDuplicateID       = errors.New("identification already registered")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidState      = errors.New("invalid order state")
	ErrLineNotFound      = errors.New("line item not found")
	ErrInvalidLine       = errors.New("invalid line item")
	ErrInvalidProduct    = errors.New("invalid product")
	ErrMissingIdentity   = errors.New("identification is required")

	// ErrNoSnapshot is returned by snapshot stores that hold no state yet
	ErrNoSnapshot = errors.New("no snapshot stored")
)

// InsufficientStockError names the product whose stock could not cover a request
type InsufficientStockError struct {
	Code      string `json:"product_code"`
	Name      string `json:"product_name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s (%s): requested=%d, available=%d",
		e.Code, e.Name, e.Requested, e.Available)
}

// Is makes errors.Is(err, ErrInsufficientStock) match
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
