package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cardledger/cardledger/internal/domain"
)

// InstrumentRepository implements usecase.InstrumentRepository.
type InstrumentRepository struct {
	pool *pgxpool.Pool
}

// NewInstrumentRepository creates a new InstrumentRepository.
func NewInstrumentRepository(pool *pgxpool.Pool) *InstrumentRepository {
	return &InstrumentRepository{pool: pool}
}

// Create inserts a new instrument.
func (r *InstrumentRepository) Create(ctx context.Context, instrument *domain.Instrument) error {
	query := `
		INSERT INTO instruments (id, name, closing_day, due_day, total_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		instrument.ID,
		instrument.Name,
		instrument.ClosingDay,
		instrument.DueDay,
		int64(instrument.TotalLimit),
		instrument.CreatedAt,
		instrument.UpdatedAt,
	)

	return err
}

// GetByID retrieves an instrument by ID.
func (r *InstrumentRepository) GetByID(ctx context.Context, id string) (*domain.Instrument, error) {
	query := `
		SELECT id, name, closing_day, due_day, total_limit, created_at, updated_at
		FROM instruments
		WHERE id = $1
	`

	instrument, err := scanInstrument(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInstrumentNotFound
		}
		return nil, err
	}

	return instrument, nil
}

// List retrieves instruments ordered by creation.
func (r *InstrumentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Instrument, error) {
	query := `
		SELECT id, name, closing_day, due_day, total_limit, created_at, updated_at
		FROM instruments
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	instruments := make([]*domain.Instrument, 0)
	for rows.Next() {
		instrument, err := scanInstrument(rows)
		if err != nil {
			return nil, err
		}
		instruments = append(instruments, instrument)
	}

	return instruments, rows.Err()
}

func scanInstrument(row pgx.Row) (*domain.Instrument, error) {
	var (
		instrument domain.Instrument
		totalLimit int64
	)

	err := row.Scan(
		&instrument.ID,
		&instrument.Name,
		&instrument.ClosingDay,
		&instrument.DueDay,
		&totalLimit,
		&instrument.CreatedAt,
		&instrument.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	instrument.TotalLimit = domain.Money(totalLimit)

	return &instrument, nil
}
