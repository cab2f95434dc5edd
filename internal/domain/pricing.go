package domain

import "fmt"

// DiscountKind selects how a discount value is interpreted.
type DiscountKind string

const (
	DiscountAmount     DiscountKind = "amount"
	DiscountPercentage DiscountKind = "percentage"
)

// DiscountSpec describes a discount on a line item or a whole order.
// For DiscountPercentage the value is a whole percentage in [0, 100];
// for DiscountAmount it is a minor-unit amount.
type DiscountSpec struct {
	Kind  DiscountKind `json:"kind"`
	Value int64        `json:"value"`
}

// LineInput is the cart-side view of a line item before pricing.
// StockOnHand below zero means stock is not tracked for the product and the
// quantity check is skipped.
type LineInput struct {
	ProductID   string        `json:"product_id"`
	Name        string        `json:"name"`
	UnitPrice   Money         `json:"unit_price"`
	Quantity    int           `json:"quantity"`
	StockOnHand int           `json:"stock_on_hand"`
	Discount    *DiscountSpec `json:"discount,omitempty"`
}

// LineItem is a priced line. Total is never negative: an amount discount is
// capped at the line subtotal.
type LineItem struct {
	ProductID      string        `json:"product_id"`
	Name           string        `json:"name"`
	UnitPrice      Money         `json:"unit_price"`
	Quantity       int           `json:"quantity"`
	Discount       *DiscountSpec `json:"discount,omitempty"`
	Subtotal       Money         `json:"subtotal"`
	DiscountAmount Money         `json:"discount_amount"`
	Total          Money         `json:"total"`
}

// PriceLine validates and prices a single line item. It is a pure function
// with no side effects; validation failures wrap ErrInvalidPricingInput so
// they surface before any network or transport work starts.
func PriceLine(in LineInput) (LineItem, error) {
	if in.UnitPrice < 0 {
		return LineItem{}, fmt.Errorf("%w: unit price %d is negative", ErrInvalidPricingInput, in.UnitPrice)
	}
	if in.Quantity <= 0 {
		return LineItem{}, fmt.Errorf("%w: quantity %d must be positive", ErrInvalidPricingInput, in.Quantity)
	}
	if in.StockOnHand >= 0 && in.Quantity > in.StockOnHand {
		return LineItem{}, fmt.Errorf("%w: quantity %d exceeds stock on hand %d for product %s",
			ErrInvalidPricingInput, in.Quantity, in.StockOnHand, in.ProductID)
	}
	if err := validateDiscount(in.Discount); err != nil {
		return LineItem{}, err
	}

	subtotal := in.UnitPrice * Money(in.Quantity)
	discount := discountOn(subtotal, in.Discount)

	return LineItem{
		ProductID:      in.ProductID,
		Name:           in.Name,
		UnitPrice:      in.UnitPrice,
		Quantity:       in.Quantity,
		Discount:       in.Discount,
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          subtotal - discount,
	}, nil
}

func validateDiscount(d *DiscountSpec) error {
	if d == nil {
		return nil
	}
	if d.Value < 0 {
		return fmt.Errorf("%w: discount value %d is negative", ErrInvalidPricingInput, d.Value)
	}
	switch d.Kind {
	case DiscountAmount:
		return nil
	case DiscountPercentage:
		if d.Value > 100 {
			return fmt.Errorf("%w: percentage discount %d exceeds 100", ErrInvalidPricingInput, d.Value)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown discount kind %q", ErrInvalidPricingInput, d.Kind)
	}
}

// discountOn computes the discount amount for a base, clamped so the result
// can never exceed the base. Rounding happens here exactly once per discount.
func discountOn(base Money, d *DiscountSpec) Money {
	if d == nil {
		return 0
	}
	var amount Money
	switch d.Kind {
	case DiscountPercentage:
		amount = base.ApplyPercent(d.Value)
	default:
		amount = Money(d.Value)
	}
	if amount > base {
		return base
	}
	return amount
}
