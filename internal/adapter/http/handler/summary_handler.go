package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardledger/cardledger/internal/adapter/http/dto"
	"github.com/cardledger/cardledger/internal/domain"
)

// SummaryService defines the behavior needed by SummaryHandler.
type SummaryService interface {
	GetInvoiceSummaries(ctx context.Context, invoiceID string) ([]*domain.InvoiceSummary, error)
	RefreshInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceSummary, error)
}

// SummaryHandler handles invoice summary HTTP requests.
type SummaryHandler struct {
	summaryUC SummaryService
}

// NewSummaryHandler creates a new SummaryHandler.
func NewSummaryHandler(summaryUC SummaryService) *SummaryHandler {
	return &SummaryHandler{summaryUC: summaryUC}
}

// GetByInvoice returns the per-scope summaries for an invoice. Summaries are
// an eventually-consistent cache and may lag the invoice's obligations until
// the next refresh.
func (h *SummaryHandler) GetByInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")
	if invoiceID == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	summaries, err := h.summaryUC.GetInvoiceSummaries(r.Context(), invoiceID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get summaries", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.SummariesFromDomain(summaries))
}

// Refresh synchronously recomputes the summaries for an invoice.
func (h *SummaryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")
	if invoiceID == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	summaries, err := h.summaryUC.RefreshInvoice(r.Context(), invoiceID)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to refresh summaries", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.SummariesFromDomain(summaries))
}
