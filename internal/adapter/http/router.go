package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cardledger/cardledger/internal/adapter/http/handler"
	"github.com/cardledger/cardledger/internal/adapter/http/middleware"
	"github.com/cardledger/cardledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	InstrumentHandler  *handler.InstrumentHandler
	TransactionHandler *handler.TransactionHandler
	InvoiceHandler     *handler.InvoiceHandler
	SummaryHandler     *handler.SummaryHandler
	LedgerHandler      *handler.LedgerHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	RateLimiter        *middleware.RateLimiter
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Wrap)
	}
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Instruments
		r.Route("/instruments", func(r chi.Router) {
			r.Post("/", cfg.InstrumentHandler.Create)
			r.Get("/", cfg.InstrumentHandler.List)
			r.Get("/{id}", cfg.InstrumentHandler.Get)
			r.Get("/{id}/invoices", cfg.InvoiceHandler.ListByInstrument)
			r.Get("/{id}/invoices/period", cfg.InvoiceHandler.GetPeriod)
		})

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", cfg.TransactionHandler.Create)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Patch("/{id}", cfg.TransactionHandler.Update)
			r.Delete("/{id}", cfg.TransactionHandler.Delete)
		})

		// Invoices
		r.Route("/invoices", func(r chi.Router) {
			r.Get("/{id}", cfg.InvoiceHandler.Get)
			r.Get("/{id}/transactions", cfg.TransactionHandler.ListByInvoice)
			r.Post("/{id}/pay", cfg.InvoiceHandler.Pay)
			r.Post("/{id}/reopen", cfg.InvoiceHandler.Reopen)
			r.Get("/{id}/summaries", cfg.SummaryHandler.GetByInvoice)
			r.Post("/{id}/summaries/refresh", cfg.SummaryHandler.Refresh)
		})

		// Ledger
		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
