package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/warungku/poscore/internal/domain"
	pkgkafka "github.com/warungku/poscore/pkg/kafka"
)

// Kafka topics for sale domain events.
const (
	TopicSaleCompleted  = "pos.sale.completed"
	TopicReceiptPrinted = "pos.receipt.printed"
)

// Aggregate type constant.
const AggregateTypeSale = "sale"

// Source identifier for events originating from this service.
const SourcePOSCore = "poscore"

// SaleCompletedData is the payload for a sale.completed event.
type SaleCompletedData struct {
	OrderNumber string              `json:"order_number"`
	Cashier     string              `json:"cashier"`
	GrandTotal  int64               `json:"grand_total"`
	AmountPaid  int64               `json:"amount_paid"`
	State       domain.PaymentState `json:"state"`
	LineCount   int                 `json:"line_count"`
}

// ReceiptPrintedData is the payload for a receipt.printed event.
type ReceiptPrintedData struct {
	OrderNumber   string `json:"order_number"`
	CopiesPrinted int    `json:"copies_printed"`
	Reprint       bool   `json:"reprint"`
}

// Producer publishes sale domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishSaleCompleted publishes a sale.completed event.
func (p *Producer) PublishSaleCompleted(ctx context.Context, orderNumber, cashier string, totals domain.OrderTotals) error {
	data := SaleCompletedData{
		OrderNumber: orderNumber,
		Cashier:     cashier,
		GrandTotal:  int64(totals.GrandTotal),
		AmountPaid:  int64(totals.AmountPaid),
		State:       totals.State,
		LineCount:   len(totals.Lines),
	}

	event, err := pkgkafka.NewEvent(TopicSaleCompleted, orderNumber, AggregateTypeSale, SourcePOSCore, data)
	if err != nil {
		return fmt.Errorf("create sale.completed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicSaleCompleted, event); err != nil {
		return fmt.Errorf("publish sale.completed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published sale.completed event",
		slog.String("order_number", orderNumber),
		slog.Int64("grand_total", data.GrandTotal),
	)

	return nil
}

// PublishReceiptPrinted publishes a receipt.printed event.
func (p *Producer) PublishReceiptPrinted(ctx context.Context, orderNumber string, copiesPrinted int, reprint bool) error {
	data := ReceiptPrintedData{
		OrderNumber:   orderNumber,
		CopiesPrinted: copiesPrinted,
		Reprint:       reprint,
	}

	event, err := pkgkafka.NewEvent(TopicReceiptPrinted, orderNumber, AggregateTypeSale, SourcePOSCore, data)
	if err != nil {
		return fmt.Errorf("create receipt.printed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicReceiptPrinted, event); err != nil {
		return fmt.Errorf("publish receipt.printed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published receipt.printed event",
		slog.String("order_number", orderNumber),
		slog.Int("copies_printed", copiesPrinted),
	)

	return nil
}
