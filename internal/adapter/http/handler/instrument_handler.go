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

// InstrumentService defines the behavior needed by InstrumentHandler.
type InstrumentService interface {
	CreateInstrument(ctx context.Context, input usecase.CreateInstrumentInput) (*domain.Instrument, error)
	GetInstrument(ctx context.Context, id string) (*domain.Instrument, error)
	ListInstruments(ctx context.Context, limit, offset int) ([]*domain.Instrument, error)
}

// InstrumentHandler handles instrument-related HTTP requests.
type InstrumentHandler struct {
	instrumentUC InstrumentService
}

// NewInstrumentHandler creates a new InstrumentHandler.
func NewInstrumentHandler(instrumentUC InstrumentService) *InstrumentHandler {
	return &InstrumentHandler{instrumentUC: instrumentUC}
}

// Create registers a new credit instrument.
func (h *InstrumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInstrumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput()
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err.Error())
		return
	}

	instrument, err := h.instrumentUC.CreateInstrument(r.Context(), input)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to create instrument", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.InstrumentFromDomain(instrument))
}

// Get retrieves an instrument by ID.
func (h *InstrumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing instrument ID", "")
		return
	}

	instrument, err := h.instrumentUC.GetInstrument(r.Context(), id)
	if err != nil {
		status := mapDomainError(err)
		writeError(w, status, "failed to get instrument", err.Error())

		return
	}

	writeJSON(w, http.StatusOK, dto.InstrumentFromDomain(instrument))
}

// List lists instruments.
func (h *InstrumentHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := parseIntQuery(r, "limit", 50)
	offset := parseIntQuery(r, "offset", 0)

	instruments, err := h.instrumentUC.ListInstruments(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list instruments", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.InstrumentsFromDomain(instruments))
}
