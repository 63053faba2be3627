package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/usecase"
)

// InvoiceRepository implements usecase.InvoiceRepository.
type InvoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository creates a new InvoiceRepository.
func NewInvoiceRepository(pool *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{pool: pool}
}

const invoiceColumns = `
	id, instrument_id, billing_year, billing_month, total_amount, paid_amount,
	closing_date, due_date, status, created_at, updated_at
`

// FindOrCreate returns the invoice for the candidate's period key, inserting
// it when absent. The insert relies on the unique index over
// (instrument_id, billing_year, billing_month): concurrent callers racing on
// the same period converge on a single row, and the losing insert's candidate
// ID is discarded.
func (r *InvoiceRepository) FindOrCreate(ctx context.Context, tx usecase.Transaction, candidate *domain.Invoice) (*domain.Invoice, error) {
	pgxTx := tx.(*Tx).PgxTx()

	insert := `
		INSERT INTO invoices (` + invoiceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (instrument_id, billing_year, billing_month) DO NOTHING
	`

	_, err := pgxTx.Exec(ctx, insert,
		candidate.ID,
		candidate.InstrumentID,
		candidate.Year,
		int(candidate.Month),
		int64(candidate.TotalAmount),
		int64(candidate.PaidAmount),
		candidate.ClosingDate,
		candidate.DueDate,
		string(candidate.Status),
		candidate.CreatedAt,
		candidate.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE instrument_id = $1 AND billing_year = $2 AND billing_month = $3
	`

	invoice, err := scanInvoice(pgxTx.QueryRow(ctx, query, candidate.InstrumentID, candidate.Year, int(candidate.Month)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}

	return invoice, nil
}

// GetByID retrieves an invoice by ID.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1
	`

	invoice, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}

	return invoice, nil
}

// GetByIDForUpdate retrieves an invoice by ID with a FOR UPDATE lock.
func (r *InvoiceRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Invoice, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE id = $1
		FOR UPDATE
	`

	invoice, err := scanInvoice(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}

	return invoice, nil
}

// ListByInstrument lists invoices for an instrument, newest period first.
func (r *InvoiceRepository) ListByInstrument(ctx context.Context, instrumentID string, limit, offset int) ([]*domain.Invoice, error) {
	query := `
		SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE instrument_id = $1
		ORDER BY billing_year DESC, billing_month DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, instrumentID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	invoices := make([]*domain.Invoice, 0)
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}

	return invoices, rows.Err()
}

// AddToTotal adjusts the invoice's running total as a single atomic UPDATE.
// There is deliberately no read-then-write: concurrent increments interleave
// without losing updates.
func (r *InvoiceRepository) AddToTotal(ctx context.Context, tx usecase.Transaction, id string, delta domain.Money, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE invoices
		SET total_amount = total_amount + $2, updated_at = $3
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query, id, int64(delta), updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}

	return nil
}

// UpdateStatus updates an invoice's status and paid-amount snapshot.
func (r *InvoiceRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.InvoiceStatus, paidAmount domain.Money, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE invoices
		SET status = $2, paid_amount = $3, updated_at = $4
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query, id, string(status), int64(paidAmount), updatedAt)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}

	return nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		invoice     domain.Invoice
		month       int
		totalAmount int64
		paidAmount  int64
		status      string
	)

	err := row.Scan(
		&invoice.ID,
		&invoice.InstrumentID,
		&invoice.Year,
		&month,
		&totalAmount,
		&paidAmount,
		&invoice.ClosingDate,
		&invoice.DueDate,
		&status,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Month = time.Month(month)
	invoice.TotalAmount = domain.Money(totalAmount)
	invoice.PaidAmount = domain.Money(paidAmount)
	invoice.Status = domain.InvoiceStatus(status)

	return &invoice, nil
}
