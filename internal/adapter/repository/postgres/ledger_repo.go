package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// CountMismatchedInvoices returns how many invoices carry a total that does
// not equal the sum of their obligations. An invoice with no obligations
// must carry a zero total.
func (r *LedgerRepository) CountMismatchedInvoices(ctx context.Context) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM invoices i
		LEFT JOIN (
			SELECT invoice_id, SUM(amount) AS total
			FROM obligations
			GROUP BY invoice_id
		) o ON o.invoice_id = i.id
		WHERE i.total_amount <> COALESCE(o.total, 0)
	`

	var mismatched int64
	if err := r.pool.QueryRow(ctx, query).Scan(&mismatched); err != nil {
		return 0, err
	}

	return mismatched, nil
}
