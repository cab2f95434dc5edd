package http

import (
	"log/slog"
	"net/http"

	"github.com/warungku/poscore/internal/service"
	"github.com/warungku/poscore/pkg/httputil"
)

// PrinterHandler handles HTTP requests for printer connection management.
type PrinterHandler struct {
	printing *service.PrintingService
	logger   *slog.Logger
}

// NewPrinterHandler creates a new printer HTTP handler.
func NewPrinterHandler(printing *service.PrintingService, logger *slog.Logger) *PrinterHandler {
	return &PrinterHandler{
		printing: printing,
		logger:   logger,
	}
}

// Connect handles POST /api/v1/printer/connect
func (h *PrinterHandler) Connect(w http.ResponseWriter, r *http.Request) {
	if err := h.printing.Connect(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.printing.Status()})
}

// Disconnect handles POST /api/v1/printer/disconnect
func (h *PrinterHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if err := h.printing.Disconnect(); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.printing.Status()})
}

// Status handles GET /api/v1/printer/status
func (h *PrinterHandler) Status(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.printing.Status()})
}

// TestPrint handles POST /api/v1/printer/test
func (h *PrinterHandler) TestPrint(w http.ResponseWriter, r *http.Request) {
	if err := h.printing.TestPrint(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "printed"}})
}
