package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/warungku/poscore/internal/domain"
	"github.com/warungku/poscore/internal/printer"
	"github.com/warungku/poscore/internal/receipt"
	apperrors "github.com/warungku/poscore/pkg/errors"
)

// JobPrinter sequences print runs. printer.Orchestrator is the production
// implementation.
type JobPrinter interface {
	Print(ctx context.Context, docFn printer.DocumentFunc, copies int) (printer.Outcome, error)
}

// PrinterStatus is the connection state reported to the till UI.
type PrinterStatus struct {
	State  string `json:"state"`
	Device string `json:"device,omitempty"`
}

// PrintingService owns the printer connection and turns frozen order totals
// into physical receipts.
type PrintingService struct {
	transport printer.Transport
	jobs      JobPrinter
	shop      receipt.ShopInfo
	width     int
	logger    *slog.Logger
}

// NewPrintingService creates a printing service for the configured paper width.
func NewPrintingService(transport printer.Transport, jobs JobPrinter, shop receipt.ShopInfo, width int, logger *slog.Logger) *PrintingService {
	return &PrintingService{
		transport: transport,
		jobs:      jobs,
		shop:      shop,
		width:     width,
		logger:    logger,
	}
}

// Connect establishes the printer session.
func (s *PrintingService) Connect(ctx context.Context) error {
	if err := s.transport.Connect(ctx); err != nil {
		return mapPrinterError(err)
	}
	return nil
}

// Disconnect tears the printer session down. Always succeeds locally.
func (s *PrintingService) Disconnect() error {
	return s.transport.Disconnect()
}

// Status reports the transport state and connected device.
func (s *PrintingService) Status() PrinterStatus {
	return PrinterStatus{
		State:  s.transport.State().String(),
		Device: s.transport.DeviceName(),
	}
}

// PrintReceipt prints copies of the receipt for a finished order. The
// returned outcome is meaningful even on error: copies already printed stay
// printed.
func (s *PrintingService) PrintReceipt(ctx context.Context, totals domain.OrderTotals, meta receipt.OrderMeta, copies int) (printer.Outcome, error) {
	docFn := func(copyIndex, totalCopies int) receipt.Document {
		return receipt.Build(totals, s.shop, meta, copyIndex, totalCopies, s.width)
	}

	outcome, err := s.jobs.Print(ctx, docFn, copies)
	if err != nil {
		return outcome, mapPrinterError(err)
	}
	return outcome, nil
}

// TestPrint prints a short alignment page so the cashier can verify the
// connection and paper width.
func (s *PrintingService) TestPrint(ctx context.Context) error {
	doc := receipt.Document{Width: s.width, Lines: []receipt.Line{
		{Text: truncateTo(s.shop.Name, s.width), Align: receipt.AlignCenter, Emphasis: receipt.EmphasisBold},
		{Text: "Tes printer", Align: receipt.AlignCenter},
		{Text: time.Now().Format("02/01/2006 15:04:05"), Align: receipt.AlignCenter},
	}}

	_, err := s.jobs.Print(ctx, func(int, int) receipt.Document { return doc }, 1)
	if err != nil {
		return mapPrinterError(err)
	}
	return nil
}

func truncateTo(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// mapPrinterError translates transport sentinels into user-facing errors with
// actionable text. Raw protocol details never reach the cashier.
func mapPrinterError(err error) error {
	switch {
	case errors.Is(err, printer.ErrAlreadyConnected):
		return apperrors.Conflict("printer is already connected")
	case errors.Is(err, printer.ErrPrinterBusy):
		return apperrors.Conflict("printer is busy with another job, try again in a moment")
	case errors.Is(err, printer.ErrNotConnected):
		return apperrors.Conflict("no printer connected, connect a printer first")
	case errors.Is(err, printer.ErrNoCompatibleDevice):
		return apperrors.ServiceUnavailable("no compatible printer found, check that the printer is on and paired")
	case errors.Is(err, printer.ErrConnectionRejected):
		return apperrors.ServiceUnavailable("the printer rejected the connection, power it off and on and retry")
	case errors.Is(err, printer.ErrNoWritableCharacteristic):
		return apperrors.ServiceUnavailable("this printer is not supported")
	case errors.Is(err, printer.ErrConnectionTimeout):
		return apperrors.GatewayTimeout("timed out reaching the printer")
	case errors.Is(err, printer.ErrWriteTimeout):
		return apperrors.GatewayTimeout("the printer stopped responding mid-print")
	case errors.Is(err, printer.ErrTransportWrite):
		return apperrors.BadGateway("printing failed partway, check the printer and reprint if needed")
	default:
		return fmt.Errorf("print receipt: %w", err)
	}
}
