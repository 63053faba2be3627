package usecase

import (
	"context"
	"errors"
)

var (
	// ErrInconsistentLedger is returned when at least one invoice's running
	// total does not equal the sum of its obligations.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: invoice totals diverge from their obligations")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	ledgerRepo LedgerRepository
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(ledgerRepo LedgerRepository) *LedgerUseCase {
	return &LedgerUseCase{
		ledgerRepo: ledgerRepo,
	}
}

// CheckConsistency verifies that every invoice's total equals the sum of its
// obligations. The atomic-increment contract should make drift impossible;
// this is the operational check that it actually holds.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	mismatched, err := uc.ledgerRepo.CountMismatchedInvoices(ctx)
	if err != nil {
		return false, err
	}

	if mismatched != 0 {
		return false, ErrInconsistentLedger
	}

	return true, nil
}
