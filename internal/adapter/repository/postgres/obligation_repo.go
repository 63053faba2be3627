package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/usecase"
)

// ObligationRepository implements usecase.ObligationRepository.
type ObligationRepository struct {
	pool *pgxpool.Pool
}

// NewObligationRepository creates a new ObligationRepository.
func NewObligationRepository(pool *pgxpool.Pool) *ObligationRepository {
	return &ObligationRepository{pool: pool}
}

const obligationColumns = `
	id, instrument_id, invoice_id, group_id, kind, description, category,
	amount, due_date, sequence_index, sequence_count, shared_with,
	created_at, updated_at
`

// Create inserts a new obligation.
func (r *ObligationRepository) Create(ctx context.Context, tx usecase.Transaction, obligation *domain.Obligation) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		INSERT INTO obligations (` + obligationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := pgxTx.Exec(ctx, query,
		obligation.ID,
		obligation.InstrumentID,
		obligation.InvoiceID,
		obligation.GroupID,
		string(obligation.Kind),
		obligation.Description,
		obligation.Category,
		int64(obligation.Amount),
		obligation.DueDate,
		obligation.SequenceIndex,
		obligation.SequenceCount,
		obligation.SharedWith,
		obligation.CreatedAt,
		obligation.UpdatedAt,
	)

	return err
}

// GetByID retrieves an obligation by ID.
func (r *ObligationRepository) GetByID(ctx context.Context, id string) (*domain.Obligation, error) {
	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE id = $1
	`

	obligation, err := scanObligation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObligationNotFound
		}
		return nil, err
	}

	return obligation, nil
}

// GetByIDForUpdate retrieves an obligation by ID with a FOR UPDATE lock.
func (r *ObligationRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Obligation, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE id = $1
		FOR UPDATE
	`

	obligation, err := scanObligation(pgxTx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrObligationNotFound
		}
		return nil, err
	}

	return obligation, nil
}

// ListByGroupForUpdate locks and returns every member of an installment
// group, ordered by sequence index. Group members are always locked in the
// same order to avoid lock cycles between concurrent group operations.
func (r *ObligationRepository) ListByGroupForUpdate(ctx context.Context, tx usecase.Transaction, groupID string) ([]*domain.Obligation, error) {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE group_id = $1
		ORDER BY sequence_index
		FOR UPDATE
	`

	rows, err := pgxTx.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectObligations(rows)
}

// ListByInvoice lists the obligations assigned to an invoice.
func (r *ObligationRepository) ListByInvoice(ctx context.Context, invoiceID string, limit, offset int) ([]*domain.Obligation, error) {
	query := `
		SELECT ` + obligationColumns + `
		FROM obligations
		WHERE invoice_id = $1
		ORDER BY due_date, id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, invoiceID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectObligations(rows)
}

// Update rewrites an obligation's mutable fields. The invoice assignment is
// not part of the update: it is fixed at creation.
func (r *ObligationRepository) Update(ctx context.Context, tx usecase.Transaction, obligation *domain.Obligation) error {
	pgxTx := tx.(*Tx).PgxTx()

	query := `
		UPDATE obligations
		SET description = $2, category = $3, shared_with = $4, amount = $5,
		    due_date = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := pgxTx.Exec(ctx, query,
		obligation.ID,
		obligation.Description,
		obligation.Category,
		obligation.SharedWith,
		int64(obligation.Amount),
		obligation.DueDate,
		obligation.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrObligationNotFound
	}

	return nil
}

// DeleteByGroup deletes every obligation in a group and returns the number of
// rows removed.
func (r *ObligationRepository) DeleteByGroup(ctx context.Context, tx usecase.Transaction, groupID string) (int64, error) {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx, `DELETE FROM obligations WHERE group_id = $1`, groupID)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func collectObligations(rows pgx.Rows) ([]*domain.Obligation, error) {
	obligations := make([]*domain.Obligation, 0)
	for rows.Next() {
		obligation, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, obligation)
	}

	return obligations, rows.Err()
}

func scanObligation(row pgx.Row) (*domain.Obligation, error) {
	var (
		obligation domain.Obligation
		kind       string
		amount     int64
	)

	err := row.Scan(
		&obligation.ID,
		&obligation.InstrumentID,
		&obligation.InvoiceID,
		&obligation.GroupID,
		&kind,
		&obligation.Description,
		&obligation.Category,
		&amount,
		&obligation.DueDate,
		&obligation.SequenceIndex,
		&obligation.SequenceCount,
		&obligation.SharedWith,
		&obligation.CreatedAt,
		&obligation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	obligation.Kind = domain.ObligationKind(kind)
	obligation.Amount = domain.Money(amount)

	return &obligation, nil
}
