package usecase

import (
	"context"
	"time"

	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/infrastructure/metrics"
)

// InvoiceUseCase handles invoice lookup and status transitions.
type InvoiceUseCase struct {
	txManager      TransactionManager
	instrumentRepo InstrumentRepository
	invoiceRepo    InvoiceRepository
	idGen          IDGenerator
	metrics        *metrics.Metrics
}

// NewInvoiceUseCase creates a new InvoiceUseCase.
func NewInvoiceUseCase(
	txManager TransactionManager,
	instrumentRepo InstrumentRepository,
	invoiceRepo InvoiceRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txManager:      txManager,
		instrumentRepo: instrumentRepo,
		invoiceRepo:    invoiceRepo,
		idGen:          idGen,
		metrics:        metrics,
	}
}

// FindOrCreateInvoice returns the invoice for an explicit billing period,
// creating it with a zero total when it does not exist yet.
func (uc *InvoiceUseCase) FindOrCreateInvoice(ctx context.Context, instrumentID string, year int, month time.Month) (*domain.Invoice, error) {
	instrument, err := uc.instrumentRepo.GetByID(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	period, err := domain.PeriodForMonth(year, month, instrument.ClosingDay, instrument.DueDay)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	invoice, err := uc.invoiceRepo.FindOrCreate(ctx, tx, &domain.Invoice{
		ID:           uc.idGen.Generate(),
		InstrumentID: instrument.ID,
		Year:         period.Year,
		Month:        period.Month,
		ClosingDate:  period.ClosingDate,
		DueDate:      period.DueDate,
		Status:       domain.InvoiceStatusOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return invoice, nil
}

// GetInvoice retrieves an invoice by ID.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	return uc.invoiceRepo.GetByID(ctx, id)
}

// ListInvoicesByInstrumentInput represents input for listing invoices.
type ListInvoicesByInstrumentInput struct {
	InstrumentID string
	Limit        int
	Offset       int
}

// ListInvoicesByInstrument lists invoices for an instrument, newest period
// first.
func (uc *InvoiceUseCase) ListInvoicesByInstrument(ctx context.Context, input ListInvoicesByInstrumentInput) ([]*domain.Invoice, error) {
	if input.Limit <= 0 {
		input.Limit = 24
	}

	if input.Limit > 120 {
		input.Limit = 120
	}

	return uc.invoiceRepo.ListByInstrument(ctx, input.InstrumentID, input.Limit, input.Offset)
}

// MarkInvoicePaid transitions an invoice to paid, snapshotting its current
// total as the paid amount. No obligation mutation ever changes status
// implicitly; this is the only path to paid.
func (uc *InvoiceUseCase) MarkInvoicePaid(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := uc.transition(ctx, id, (*domain.Invoice).MarkPaid)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.InvoicesPaid.Inc()
		uc.metrics.InvoiceTotal.Observe(float64(invoice.TotalAmount))
	}

	return invoice, nil
}

// ReopenInvoice transitions a paid invoice back to open.
func (uc *InvoiceUseCase) ReopenInvoice(ctx context.Context, id string) (*domain.Invoice, error) {
	invoice, err := uc.transition(ctx, id, (*domain.Invoice).Reopen)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.InvoicesReopened.Inc()
	}

	return invoice, nil
}

func (uc *InvoiceUseCase) transition(ctx context.Context, id string, apply func(*domain.Invoice, time.Time) error) (*domain.Invoice, error) {
	now := time.Now().UTC()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	invoice, err := uc.invoiceRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(invoice, now); err != nil {
		return nil, err
	}

	if err := uc.invoiceRepo.UpdateStatus(ctx, tx, invoice.ID, invoice.Status, invoice.PaidAmount, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return invoice, nil
}
