package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/warungku/poscore/internal/service"
	"github.com/warungku/poscore/pkg/httputil"
	"github.com/warungku/poscore/pkg/validator"
)

// CheckoutHandler handles HTTP requests for quotes, checkouts, and receipts.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: svc,
		logger:  logger,
	}
}

// Quote handles POST /api/v1/checkout/quote
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeCheckoutInput(w, r)
	if !ok {
		return
	}

	totals, err := h.service.Quote(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: totals})
}

// Checkout handles POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeCheckoutInput(w, r)
	if !ok {
		return
	}

	result, err := h.service.Checkout(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: result})
}

// Reprint handles POST /api/v1/receipts/{orderNumber}/reprint
func (h *CheckoutHandler) Reprint(w http.ResponseWriter, r *http.Request) {
	orderNumber := chi.URLParam(r, "orderNumber")

	result, err := h.service.Reprint(r.Context(), orderNumber)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// RecentReceipts handles GET /api/v1/receipts
func (h *CheckoutHandler) RecentReceipts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "limit must be an integer"},
			})
			return
		}
		limit = parsed
	}

	entries, err := h.service.RecentReceipts(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: entries})
}

func (h *CheckoutHandler) decodeCheckoutInput(w http.ResponseWriter, r *http.Request) (*service.CheckoutInput, bool) {
	var input service.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return nil, false
	}

	if err := validator.Validate(input); err != nil {
		httputil.WriteValidationError(w, err)
		return nil, false
	}

	return &input, true
}
