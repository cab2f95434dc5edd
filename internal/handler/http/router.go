package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warungku/poscore/internal/service"
	"github.com/warungku/poscore/pkg/health"
	"github.com/warungku/poscore/pkg/middleware"
)

// NewRouter creates a chi router with all routes registered.
func NewRouter(
	checkoutService *service.CheckoutService,
	printingService *service.PrintingService,
	holdService *service.HoldService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("poscore"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	checkoutHandler := NewCheckoutHandler(checkoutService, logger)
	printerHandler := NewPrinterHandler(printingService, logger)
	holdHandler := NewHoldHandler(holdService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/checkout/quote", checkoutHandler.Quote)
		r.Post("/checkout", checkoutHandler.Checkout)

		r.Get("/receipts", checkoutHandler.RecentReceipts)
		r.Post("/receipts/{orderNumber}/reprint", checkoutHandler.Reprint)

		r.Post("/printer/connect", printerHandler.Connect)
		r.Post("/printer/disconnect", printerHandler.Disconnect)
		r.Get("/printer/status", printerHandler.Status)
		r.Post("/printer/test", printerHandler.TestPrint)

		r.Post("/holds", holdHandler.Create)
		r.Get("/holds", holdHandler.List)
		r.Get("/holds/{id}", holdHandler.Get)
		r.Post("/holds/{id}/resume", holdHandler.Resume)
		r.Delete("/holds/{id}", holdHandler.Delete)
	})

	return r
}
