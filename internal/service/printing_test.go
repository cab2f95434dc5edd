package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/warungku/poscore/internal/domain"
	"github.com/warungku/poscore/internal/printer"
	"github.com/warungku/poscore/internal/receipt"
	apperrors "github.com/warungku/poscore/pkg/errors"
)

// --- Mocks ---

type mockTransport struct {
	mock.Mock
}

func (m *mockTransport) Connect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockTransport) Write(ctx context.Context, data []byte) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *mockTransport) Disconnect() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockTransport) State() printer.State {
	args := m.Called()
	return args.Get(0).(printer.State)
}

func (m *mockTransport) DeviceName() string {
	args := m.Called()
	return args.String(0)
}

type mockJobPrinter struct {
	mock.Mock
}

func (m *mockJobPrinter) Print(ctx context.Context, docFn printer.DocumentFunc, copies int) (printer.Outcome, error) {
	args := m.Called(ctx, docFn, copies)
	return args.Get(0).(printer.Outcome), args.Error(1)
}

// --- Test Helpers ---

func newTestPrintingService() (*PrintingService, *mockTransport, *mockJobPrinter) {
	transport := new(mockTransport)
	jobs := new(mockJobPrinter)
	shop := receipt.ShopInfo{Name: "Warung Kopi", Address: "Jl. Sudirman 12", Phone: "021-5550123"}
	svc := NewPrintingService(transport, jobs, shop, receipt.WidthNarrow, newTestLogger())
	return svc, transport, jobs
}

func sampleTotals(t *testing.T) domain.OrderTotals {
	t.Helper()
	totals, err := domain.ComputeTotals([]domain.LineInput{
		{ProductID: "p1", Name: "Kopi", UnitPrice: 50000, Quantity: 1, StockOnHand: 5},
	}, nil, 0, 50000)
	require.NoError(t, err)
	return totals
}

// --- Connect / Disconnect / Status Tests ---

func TestPrintingConnect_Success(t *testing.T) {
	svc, transport, _ := newTestPrintingService()
	transport.On("Connect", mock.Anything).Return(nil)

	assert.NoError(t, svc.Connect(context.Background()))
	transport.AssertExpectations(t)
}

func TestPrintingConnect_MapsNoDeviceError(t *testing.T) {
	svc, transport, _ := newTestPrintingService()
	transport.On("Connect", mock.Anything).Return(printer.ErrNoCompatibleDevice)

	err := svc.Connect(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	assert.NotContains(t, err.Error(), "0x", "no protocol details in user-facing errors")
}

func TestPrintingConnect_MapsAlreadyConnected(t *testing.T) {
	svc, transport, _ := newTestPrintingService()
	transport.On("Connect", mock.Anything).Return(printer.ErrAlreadyConnected)

	err := svc.Connect(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestPrintingConnect_MapsTimeout(t *testing.T) {
	svc, transport, _ := newTestPrintingService()
	transport.On("Connect", mock.Anything).Return(printer.ErrConnectionTimeout)

	err := svc.Connect(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrTimeout)
}

func TestPrintingStatus(t *testing.T) {
	svc, transport, _ := newTestPrintingService()
	transport.On("State").Return(printer.StateReady)
	transport.On("DeviceName").Return("RPP02N")

	status := svc.Status()
	assert.Equal(t, "ready", status.State)
	assert.Equal(t, "RPP02N", status.Device)
}

// --- PrintReceipt Tests ---

func TestPrintReceipt_BuildsDocumentPerCopy(t *testing.T) {
	svc, _, jobs := newTestPrintingService()
	totals := sampleTotals(t)

	jobs.On("Print", mock.Anything, mock.Anything, 2).
		Run(func(args mock.Arguments) {
			docFn := args.Get(1).(printer.DocumentFunc)
			doc := docFn(2, 2)
			assert.Equal(t, receipt.WidthNarrow, doc.Width)

			var foundMarker bool
			for _, line := range doc.Lines {
				if line.Text == "SALINAN 2/2" {
					foundMarker = true
				}
			}
			assert.True(t, foundMarker, "copy marker must carry the copy index")
		}).
		Return(printer.Outcome{CopiesPrinted: 2}, nil)

	meta := receipt.OrderMeta{OrderNumber: "ORD-1", Cashier: "Dewi"}
	outcome, err := svc.PrintReceipt(context.Background(), totals, meta, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, outcome.CopiesPrinted)
}

func TestPrintReceipt_BusyMappedToConflict(t *testing.T) {
	svc, _, jobs := newTestPrintingService()

	jobs.On("Print", mock.Anything, mock.Anything, 1).
		Return(printer.Outcome{}, printer.ErrPrinterBusy)

	_, err := svc.PrintReceipt(context.Background(), sampleTotals(t), receipt.OrderMeta{}, 1)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestPrintReceipt_PartialOutcomePreservedOnFailure(t *testing.T) {
	svc, _, jobs := newTestPrintingService()

	jobs.On("Print", mock.Anything, mock.Anything, 3).
		Return(printer.Outcome{CopiesPrinted: 1}, printer.ErrTransportWrite)

	outcome, err := svc.PrintReceipt(context.Background(), sampleTotals(t), receipt.OrderMeta{}, 3)
	assert.Error(t, err)
	assert.Equal(t, 1, outcome.CopiesPrinted)
}

// --- TestPrint Tests ---

func TestTestPrint_PrintsSingleCopy(t *testing.T) {
	svc, _, jobs := newTestPrintingService()

	jobs.On("Print", mock.Anything, mock.Anything, 1).
		Return(printer.Outcome{CopiesPrinted: 1}, nil)

	assert.NoError(t, svc.TestPrint(context.Background()))
	jobs.AssertExpectations(t)
}

func TestTestPrint_NotConnectedMapped(t *testing.T) {
	svc, _, jobs := newTestPrintingService()

	jobs.On("Print", mock.Anything, mock.Anything, 1).
		Return(printer.Outcome{}, printer.ErrNotConnected)

	err := svc.TestPrint(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}
