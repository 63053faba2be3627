package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cardledger/cardledger/internal/adapter/http/dto"
	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/usecase"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	CreateObligationGroup(ctx context.Context, input usecase.CreateObligationGroupInput) ([]*domain.Obligation, error)
	GetObligation(ctx context.Context, id string) (*domain.Obligation, error)
	UpdateObligation(ctx context.Context, input usecase.UpdateObligationInput) (*domain.Obligation, error)
	DeleteObligation(ctx context.Context, id string) error
	ListObligationsByInvoice(ctx context.Context, input usecase.ListObligationsByInvoiceInput) ([]*domain.Obligation, error)
}

// TransactionHandler handles purchase and obligation HTTP requests.
type TransactionHandler struct {
	obligationUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(obligationUC TransactionService) *TransactionHandler {
	return &TransactionHandler{obligationUC: obligationUC}
}

// Create records a purchase, splitting it into installment obligations when
// requested.
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	obligations, err := h.obligationUC.CreateObligationGroup(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to record transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionsFromDomain(obligations))
}

// Get retrieves an obligation by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	obligation, err := h.obligationUC.GetObligation(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(obligation))
}

// Update edits an obligation, optionally fanning descriptive changes out to
// the whole installment group.
func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	var req dto.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	obligation, err := h.obligationUC.UpdateObligation(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to update transaction", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(obligation))
}

// Delete removes an obligation. Deleting any member of an installment group
// removes the whole group.
func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	if err := h.obligationUC.DeleteObligation(r.Context(), id); err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to delete transaction", err.Error())

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListByInvoice lists the obligations assigned to an invoice.
func (h *TransactionHandler) ListByInvoice(w http.ResponseWriter, r *http.Request) {
	invoiceID := chi.URLParam(r, "id")
	if invoiceID == "" {
		writeError(w, http.StatusBadRequest, "missing invoice ID", "")
		return
	}

	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	obligations, err := h.obligationUC.ListObligationsByInvoice(r.Context(), usecase.ListObligationsByInvoiceInput{
		InvoiceID: invoiceID,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(obligations))
}
