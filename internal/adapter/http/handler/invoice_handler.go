package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cardledger/cardledger/internal/adapter/http/dto"
	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/usecase"
)

// InvoiceService defines the behavior needed by InvoiceHandler.
type InvoiceService interface {
	FindOrCreateInvoice(ctx context.Context, instrumentID string, year int, month time.Month) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, id string) (*domain.Invoice, error)
	ListInvoicesByInstrument(ctx context.Context, input usecase.ListInvoicesByInstrumentInput) ([]*domain.Invoice, error)
	MarkInvoicePaid(ctx context.Context, id string) (*domain.Invoice, error)
	ReopenInvoice(ctx context.Context, id string) (*domain.Invoice, error)
}

// InvoiceHandler handles invoice-related HTTP requests.
type InvoiceHandler struct {
	invoiceUC InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceUC InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceUC: invoiceUC}
}

// Get retrieves an invoice by ID.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	invoice, err := h.invoiceUC.GetInvoice(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get invoice", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}

// GetPeriod returns the invoice for an explicit billing period, creating it
// with a zero total when it does not exist yet.
func (h *InvoiceHandler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "id")
	if instrumentID == "" {
		writeError(w, http.StatusBadRequest, "missing instrument ID", "")
		return
	}

	year := parseIntQuery(r, "year", 0)
	month := parseIntQuery(r, "month", 0)
	if year == 0 || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "invalid period", "year and month query parameters are required")
		return
	}

	invoice, err := h.invoiceUC.FindOrCreateInvoice(r.Context(), instrumentID, year, time.Month(month))
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to resolve invoice", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}

// ListByInstrument lists invoices for an instrument.
func (h *InvoiceHandler) ListByInstrument(w http.ResponseWriter, r *http.Request) {
	instrumentID := chi.URLParam(r, "id")
	if instrumentID == "" {
		writeError(w, http.StatusBadRequest, "missing instrument ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 24)
	offset := parseIntQuery(r, "offset", 0)

	invoices, err := h.invoiceUC.ListInvoicesByInstrument(r.Context(), usecase.ListInvoicesByInstrumentInput{
		InstrumentID: instrumentID,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list invoices", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.InvoicesFromDomain(invoices))
}

// Pay marks an invoice as paid.
func (h *InvoiceHandler) Pay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	invoice, err := h.invoiceUC.MarkInvoicePaid(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to pay invoice", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}

// Reopen transitions a paid invoice back to open.
func (h *InvoiceHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	invoice, err := h.invoiceUC.ReopenInvoice(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to reopen invoice", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}
