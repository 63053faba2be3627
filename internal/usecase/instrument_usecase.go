package usecase

import (
	"context"
	"time"

	"github.com/cardledger/cardledger/internal/domain"
)

// InstrumentUseCase handles credit instrument management.
type InstrumentUseCase struct {
	instrumentRepo InstrumentRepository
	idGen          IDGenerator
}

// NewInstrumentUseCase creates a new InstrumentUseCase.
func NewInstrumentUseCase(instrumentRepo InstrumentRepository, idGen IDGenerator) *InstrumentUseCase {
	return &InstrumentUseCase{
		instrumentRepo: instrumentRepo,
		idGen:          idGen,
	}
}

// CreateInstrumentInput represents input for registering an instrument.
type CreateInstrumentInput struct {
	Name       string
	ClosingDay int
	DueDay     int
	TotalLimit domain.Money
}

// CreateInstrument registers a new credit instrument.
func (uc *InstrumentUseCase) CreateInstrument(ctx context.Context, input CreateInstrumentInput) (*domain.Instrument, error) {
	now := time.Now().UTC()

	instrument := &domain.Instrument{
		ID:         uc.idGen.Generate(),
		Name:       input.Name,
		ClosingDay: input.ClosingDay,
		DueDay:     input.DueDay,
		TotalLimit: input.TotalLimit,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := instrument.Validate(); err != nil {
		return nil, err
	}

	if err := uc.instrumentRepo.Create(ctx, instrument); err != nil {
		return nil, err
	}

	return instrument, nil
}

// GetInstrument retrieves an instrument by ID.
func (uc *InstrumentUseCase) GetInstrument(ctx context.Context, id string) (*domain.Instrument, error) {
	return uc.instrumentRepo.GetByID(ctx, id)
}

// ListInstruments lists instruments with pagination.
func (uc *InstrumentUseCase) ListInstruments(ctx context.Context, limit, offset int) ([]*domain.Instrument, error) {
	if limit <= 0 {
		limit = 50
	}

	if limit > 200 {
		limit = 200
	}

	return uc.instrumentRepo.List(ctx, limit, offset)
}
