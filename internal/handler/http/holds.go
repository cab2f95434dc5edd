package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warungku/poscore/internal/service"
	"github.com/warungku/poscore/pkg/httputil"
	"github.com/warungku/poscore/pkg/validator"
)

// HoldHandler handles HTTP requests for held orders.
type HoldHandler struct {
	holds  *service.HoldService
	logger *slog.Logger
}

// NewHoldHandler creates a new hold HTTP handler.
func NewHoldHandler(holds *service.HoldService, logger *slog.Logger) *HoldHandler {
	return &HoldHandler{
		holds:  holds,
		logger: logger,
	}
}

// Create handles POST /api/v1/holds
func (h *HoldHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.HoldInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	hold, err := h.holds.Hold(r.Context(), &input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: hold})
}

// List handles GET /api/v1/holds
func (h *HoldHandler) List(w http.ResponseWriter, r *http.Request) {
	holds, err := h.holds.List(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: holds})
}

// Get handles GET /api/v1/holds/{id}
func (h *HoldHandler) Get(w http.ResponseWriter, r *http.Request) {
	hold, err := h.holds.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: hold})
}

// Resume handles POST /api/v1/holds/{id}/resume
func (h *HoldHandler) Resume(w http.ResponseWriter, r *http.Request) {
	hold, err := h.holds.Resume(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: hold})
}

// Delete handles DELETE /api/v1/holds/{id}
func (h *HoldHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.holds.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "deleted"}})
}
