package domain

import "fmt"

// PaymentState classifies how much of an order has been paid.
type PaymentState string

const (
	Unpaid             PaymentState = "unpaid"
	PartiallyPaid      PaymentState = "partially_paid"
	ExactlyPaid        PaymentState = "exactly_paid"
	OverpaidWithChange PaymentState = "overpaid_with_change"
)

// OrderTotals is the frozen monetary outcome of one checkout attempt. It is
// built once from a cart snapshot and never mutated; editing the cart means
// computing a new value.
type OrderTotals struct {
	Lines               []LineItem   `json:"lines"`
	Subtotal            Money        `json:"subtotal"`
	ItemDiscountTotal   Money        `json:"item_discount_total"`
	TaxableBase         Money        `json:"taxable_base"`
	OrderDiscountAmount Money        `json:"order_discount_amount"`
	TaxPercent          int64        `json:"tax_percent"`
	TaxAmount           Money        `json:"tax_amount"`
	GrandTotal          Money        `json:"grand_total"`
	AmountPaid          Money        `json:"amount_paid"`
	ChangeDue           Money        `json:"change_due"`
	RemainingBalance    Money        `json:"remaining_balance"`
	State               PaymentState `json:"state"`
}

// ComputeTotals prices every line and aggregates them into an OrderTotals.
//
// The steps run in a fixed order so printed receipts always match stored
// records: sum line subtotals, sum line discounts, derive the taxable base,
// apply the order discount clamped to that base, compute tax on the
// post-discount base, derive the grand total, classify the payment state.
// Rounding happens exactly once for the order discount and once for tax;
// no other step rounds.
func ComputeTotals(lines []LineInput, orderDiscount *DiscountSpec, taxPercent int64, amountPaid Money) (OrderTotals, error) {
	if len(lines) == 0 {
		return OrderTotals{}, ErrEmptyOrder
	}
	if taxPercent < 0 || taxPercent > 100 {
		return OrderTotals{}, fmt.Errorf("%w: tax percent %d out of range", ErrInvalidPricingInput, taxPercent)
	}
	if amountPaid < 0 {
		return OrderTotals{}, fmt.Errorf("%w: amount paid %d is negative", ErrInvalidPricingInput, amountPaid)
	}
	if err := validateDiscount(orderDiscount); err != nil {
		return OrderTotals{}, err
	}

	priced := make([]LineItem, 0, len(lines))
	var subtotal, itemDiscountTotal Money
	for _, in := range lines {
		item, err := PriceLine(in)
		if err != nil {
			return OrderTotals{}, err
		}
		priced = append(priced, item)
		subtotal += item.Subtotal
		itemDiscountTotal += item.DiscountAmount
	}

	taxableBase := subtotal - itemDiscountTotal
	orderDiscountAmount := discountOn(taxableBase, orderDiscount)

	// Tax applies after every discount, never before.
	taxAmount := (taxableBase - orderDiscountAmount).ApplyPercent(taxPercent)
	grandTotal := taxableBase - orderDiscountAmount + taxAmount

	changeDue := amountPaid - grandTotal
	if changeDue < 0 {
		changeDue = 0
	}
	remaining := grandTotal - amountPaid
	if remaining < 0 {
		remaining = 0
	}

	return OrderTotals{
		Lines:               priced,
		Subtotal:            subtotal,
		ItemDiscountTotal:   itemDiscountTotal,
		TaxableBase:         taxableBase,
		OrderDiscountAmount: orderDiscountAmount,
		TaxPercent:          taxPercent,
		TaxAmount:           taxAmount,
		GrandTotal:          grandTotal,
		AmountPaid:          amountPaid,
		ChangeDue:           changeDue,
		RemainingBalance:    remaining,
		State:               classifyPayment(grandTotal, amountPaid, changeDue, remaining),
	}, nil
}

// classifyPayment derives the single payment state that holds for the given
// amounts. A zero grand total with zero paid counts as exactly paid.
func classifyPayment(grandTotal, amountPaid, changeDue, remaining Money) PaymentState {
	switch {
	case changeDue > 0:
		return OverpaidWithChange
	case remaining == 0:
		return ExactlyPaid
	case amountPaid == 0:
		return Unpaid
	default:
		return PartiallyPaid
	}
}
