package domain

import "time"

// HeldOrder is a cart parked mid-sale so the till can serve the next customer.
// Held orders are transient; the store expires them after a configured TTL.
type HeldOrder struct {
	ID            string        `json:"id"`
	Label         string        `json:"label"`
	CustomerName  string        `json:"customer_name,omitempty"`
	Lines         []LineInput   `json:"lines"`
	OrderDiscount *DiscountSpec `json:"order_discount,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}
