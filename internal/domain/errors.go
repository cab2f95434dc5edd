package domain

import "errors"

var (
	// ErrInvalidPricingInput indicates a line item or discount that fails
	// validation before any pricing arithmetic runs.
	ErrInvalidPricingInput = errors.New("invalid pricing input")

	// ErrEmptyOrder indicates a checkout attempt with zero line items.
	ErrEmptyOrder = errors.New("order has no line items")
)
