package usecase

import (
	"context"
	"time"

	"github.com/cardledger/cardledger/internal/domain"
)

// InstrumentRepository defines data access for credit instruments.
type InstrumentRepository interface {
	Create(ctx context.Context, instrument *domain.Instrument) error
	GetByID(ctx context.Context, id string) (*domain.Instrument, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Instrument, error)
}

// InvoiceRepository defines data access for monthly invoices.
type InvoiceRepository interface {
	// FindOrCreate returns the invoice for the candidate's
	// (instrument, year, month) key, inserting it when absent. The candidate's
	// ID is used only when a new row is created.
	FindOrCreate(ctx context.Context, tx Transaction, candidate *domain.Invoice) (*domain.Invoice, error)
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Invoice, error)
	ListByInstrument(ctx context.Context, instrumentID string, limit, offset int) ([]*domain.Invoice, error)
	// AddToTotal adjusts the invoice's running total by delta as a single
	// atomic statement, never as a separate read followed by a write.
	AddToTotal(ctx context.Context, tx Transaction, id string, delta domain.Money, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.InvoiceStatus, paidAmount domain.Money, updatedAt time.Time) error
}

// ObligationRepository defines data access for obligations.
type ObligationRepository interface {
	Create(ctx context.Context, tx Transaction, obligation *domain.Obligation) error
	GetByID(ctx context.Context, id string) (*domain.Obligation, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Obligation, error)
	ListByGroupForUpdate(ctx context.Context, tx Transaction, groupID string) ([]*domain.Obligation, error)
	ListByInvoice(ctx context.Context, invoiceID string, limit, offset int) ([]*domain.Obligation, error)
	Update(ctx context.Context, tx Transaction, obligation *domain.Obligation) error
	DeleteByGroup(ctx context.Context, tx Transaction, groupID string) (int64, error)
}

// SummaryRepository defines data access for precomputed invoice summaries.
type SummaryRepository interface {
	// RecomputeInvoice rebuilds every summary scope for one invoice from its
	// obligations. The rebuild is idempotent and must not block readers.
	RecomputeInvoice(ctx context.Context, invoiceID string, refreshedAt time.Time) ([]*domain.InvoiceSummary, error)
	ListByInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceSummary, error)
	ListInvoiceIDs(ctx context.Context) ([]string, error)
}

// ConflictRetrier re-runs a transactional operation that failed with a
// transient conflict (deadlock, serialization failure). The operation must be
// safe to run again from the start.
type ConflictRetrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// LedgerRepository exposes ledger-wide integrity queries.
type LedgerRepository interface {
	// CountMismatchedInvoices returns the number of invoices whose total
	// differs from the sum of their obligations.
	CountMismatchedInvoices(ctx context.Context) (int64, error)
}

// RefreshQueue publishes "recompute summaries for invoice X" tasks. Delivery
// is at-least-once; consumers must tolerate duplicates.
type RefreshQueue interface {
	PublishRefresh(ctx context.Context, invoiceID string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
