package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/warungku/poscore/internal/domain"
	"github.com/warungku/poscore/internal/journal"
	"github.com/warungku/poscore/internal/orderclient"
	"github.com/warungku/poscore/internal/printer"
	"github.com/warungku/poscore/internal/receipt"
	apperrors "github.com/warungku/poscore/pkg/errors"
)

// OrderSubmitter persists a completed sale remotely. orderclient.Client is
// the production implementation.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, input orderclient.SubmitOrderInput) (string, error)
}

// EventPublisher publishes sale domain events.
type EventPublisher interface {
	PublishSaleCompleted(ctx context.Context, orderNumber, cashier string, totals domain.OrderTotals) error
	PublishReceiptPrinted(ctx context.Context, orderNumber string, copiesPrinted int, reprint bool) error
}

// ReceiptJournal records printed receipts locally for reprints.
type ReceiptJournal interface {
	Record(entry journal.Entry) error
	MarkReprinted(orderNumber string) (journal.Entry, error)
	Recent(limit int) ([]journal.Entry, error)
}

// ReceiptPrinter prints receipts for finished orders.
type ReceiptPrinter interface {
	PrintReceipt(ctx context.Context, totals domain.OrderTotals, meta receipt.OrderMeta, copies int) (printer.Outcome, error)
}

// CheckoutInput is one checkout attempt: the cart snapshot plus payment.
// TaxPercent and Copies are optional; when omitted the service falls back to
// the configured defaults. An explicit tax_percent of 0 means no tax.
type CheckoutInput struct {
	Lines         []domain.LineInput   `json:"lines" validate:"required,min=1,dive"`
	OrderDiscount *domain.DiscountSpec `json:"order_discount,omitempty"`
	TaxPercent    *int64               `json:"tax_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	AmountPaid    domain.Money         `json:"amount_paid" validate:"gte=0"`
	Cashier       string               `json:"cashier" validate:"required"`
	CustomerName  string               `json:"customer_name"`
	Notes         string               `json:"notes"`
	Copies        int                  `json:"copies" validate:"gte=0,lte=5"`
}

// CheckoutResult reports a persisted sale. Printing happens after the order
// is already persisted, so a print failure shows up here instead of failing
// the checkout.
type CheckoutResult struct {
	OrderNumber   string             `json:"order_number"`
	Totals        domain.OrderTotals `json:"totals"`
	CopiesPrinted int                `json:"copies_printed"`
	PrintError    string             `json:"print_error,omitempty"`
}

// ReprintResult reports a reprinted receipt.
type ReprintResult struct {
	OrderNumber   string `json:"order_number"`
	CopiesPrinted int    `json:"copies_printed"`
	Reprints      int    `json:"reprints"`
}

// Defaults are the shop-level settings applied when a checkout request leaves
// the corresponding field unset.
type Defaults struct {
	TaxPercent int64
	Copies     int
}

// CheckoutService turns carts into persisted, printed sales.
type CheckoutService struct {
	orders   OrderSubmitter
	producer EventPublisher
	journal  ReceiptJournal
	printing ReceiptPrinter
	defaults Defaults
	logger   *slog.Logger
	now      func() time.Time
}

// NewCheckoutService creates a checkout service.
func NewCheckoutService(orders OrderSubmitter, producer EventPublisher, receipts ReceiptJournal, printing ReceiptPrinter, defaults Defaults, logger *slog.Logger) *CheckoutService {
	if defaults.Copies < 1 {
		defaults.Copies = 1
	}
	return &CheckoutService{
		orders:   orders,
		producer: producer,
		journal:  receipts,
		printing: printing,
		defaults: defaults,
		logger:   logger,
		now:      nowUTC,
	}
}

// Quote computes totals for display without persisting anything. The till
// calls this on every cart edit so the shown total always comes from the
// same arithmetic as the persisted one.
func (s *CheckoutService) Quote(ctx context.Context, input *CheckoutInput) (domain.OrderTotals, error) {
	return s.computeTotals(input)
}

// Checkout freezes the cart into totals, persists the order remotely, then
// journals, prints, and announces it. Validation failures happen before any
// side effect; once the order service accepts the sale, local failures are
// reported but never roll the sale back.
func (s *CheckoutService) Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutResult, error) {
	totals, err := s.computeTotals(input)
	if err != nil {
		return nil, err
	}

	soldAt := s.now()
	orderNumber, err := s.orders.SubmitOrder(ctx, orderclient.SubmitOrderInput{
		Totals:       totals,
		Cashier:      input.Cashier,
		CustomerName: input.CustomerName,
		Notes:        input.Notes,
		SoldAt:       soldAt,
	})
	if err != nil {
		return nil, err
	}

	copies := input.Copies
	if copies < 1 {
		copies = s.defaults.Copies
	}

	entry := journal.Entry{
		OrderNumber:  orderNumber,
		Totals:       totals,
		Cashier:      input.Cashier,
		CustomerName: input.CustomerName,
		Notes:        input.Notes,
		PrintedAt:    soldAt,
		Copies:       copies,
	}
	if err := s.journal.Record(entry); err != nil {
		// The order is already persisted remotely; losing the local journal
		// entry only affects offline reprints.
		s.logger.ErrorContext(ctx, "failed to journal receipt",
			slog.String("order_number", orderNumber),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishSaleCompleted(ctx, orderNumber, input.Cashier, totals); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish sale.completed",
			slog.String("order_number", orderNumber),
			slog.String("error", err.Error()),
		)
	}

	result := &CheckoutResult{
		OrderNumber: orderNumber,
		Totals:      totals,
	}

	outcome, err := s.printing.PrintReceipt(ctx, totals, entry.Meta(false), copies)
	result.CopiesPrinted = outcome.CopiesPrinted
	if err != nil {
		result.PrintError = err.Error()
		s.logger.WarnContext(ctx, "receipt print failed after checkout",
			slog.String("order_number", orderNumber),
			slog.Int("copies_printed", outcome.CopiesPrinted),
			slog.String("error", err.Error()),
		)
	}

	if outcome.CopiesPrinted > 0 {
		if err := s.producer.PublishReceiptPrinted(ctx, orderNumber, outcome.CopiesPrinted, false); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish receipt.printed",
				slog.String("order_number", orderNumber),
				slog.String("error", err.Error()),
			)
		}
	}

	return result, nil
}

// Reprint rebuilds the receipt for a journaled order and prints one marked
// copy.
func (s *CheckoutService) Reprint(ctx context.Context, orderNumber string) (*ReprintResult, error) {
	if orderNumber == "" {
		return nil, apperrors.InvalidInput("order number is required")
	}

	entry, err := s.journal.MarkReprinted(orderNumber)
	if err != nil {
		return nil, err
	}

	outcome, err := s.printing.PrintReceipt(ctx, entry.Totals, entry.Meta(true), 1)
	if err != nil {
		return nil, err
	}

	if err := s.producer.PublishReceiptPrinted(ctx, orderNumber, outcome.CopiesPrinted, true); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish receipt.printed",
			slog.String("order_number", orderNumber),
			slog.String("error", err.Error()),
		)
	}

	return &ReprintResult{
		OrderNumber:   orderNumber,
		CopiesPrinted: outcome.CopiesPrinted,
		Reprints:      entry.Reprints,
	}, nil
}

// RecentReceipts lists the latest journaled receipts, newest first.
func (s *CheckoutService) RecentReceipts(ctx context.Context, limit int) ([]journal.Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.journal.Recent(limit)
}

func (s *CheckoutService) computeTotals(input *CheckoutInput) (domain.OrderTotals, error) {
	if input == nil {
		return domain.OrderTotals{}, apperrors.InvalidInput("checkout input is required")
	}
	if input.Cashier == "" {
		return domain.OrderTotals{}, apperrors.InvalidInput("cashier is required")
	}

	taxPercent := s.defaults.TaxPercent
	if input.TaxPercent != nil {
		taxPercent = *input.TaxPercent
	}

	totals, err := domain.ComputeTotals(input.Lines, input.OrderDiscount, taxPercent, input.AmountPaid)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyOrder) || errors.Is(err, domain.ErrInvalidPricingInput) {
			return domain.OrderTotals{}, apperrors.InvalidInput(err.Error())
		}
		return domain.OrderTotals{}, err
	}
	return totals, nil
}
