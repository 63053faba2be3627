package integration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cardledger/cardledger/internal/adapter/repository/postgres"
	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/usecase"
	"github.com/cardledger/cardledger/tests/testutil"
)

func TestObligationLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	pool := testDB.Pool
	txManager := postgres.NewTxManager(pool)
	instrumentRepo := postgres.NewInstrumentRepository(pool)
	invoiceRepo := postgres.NewInvoiceRepository(pool)
	obligationRepo := postgres.NewObligationRepository(pool)
	idGen := postgres.NewULIDGenerator()

	obligationUC := usecase.NewObligationUseCase(
		txManager, instrumentRepo, invoiceRepo, obligationRepo, idGen, nil,
		postgres.NewRetrier(zerolog.Nop()), nil, zerolog.Nop(),
	)
	ledgerUC := usecase.NewLedgerUseCase(postgres.NewLedgerRepository(pool))

	assertConsistent := func(t *testing.T) {
		t.Helper()
		if _, err := ledgerUC.CheckConsistency(ctx); err != nil {
			t.Fatalf("ledger inconsistent: %v", err)
		}
	}

	t.Run("installment group spans invoices with exact cents", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		instrument := testDB.CreateTestInstrument(ctx, "card", 20, 27)

		// 100.00 in 3 installments: 33.33, 33.33, 33.34.
		obligations, err := obligationUC.CreateObligationGroup(ctx, usecase.CreateObligationGroupInput{
			InstrumentID: instrument.ID,
			Description:  "new fridge",
			Amount:       domain.Money(10000),
			Installments: 3,
			PurchaseDate: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if len(obligations) != 3 {
			t.Fatalf("expected 3 obligations, got %d", len(obligations))
		}

		var sum domain.Money
		invoices := map[string]bool{}
		for _, o := range obligations {
			sum += o.Amount
			invoices[o.InvoiceID] = true
		}

		if sum != domain.Money(10000) {
			t.Fatalf("expected group to sum to 10000, got %d", sum)
		}
		if obligations[2].Amount != domain.Money(3334) {
			t.Fatalf("expected last installment to absorb the remainder, got %d", obligations[2].Amount)
		}
		if len(invoices) != 3 {
			t.Fatalf("expected each installment on its own monthly invoice, got %d", len(invoices))
		}

		assertConsistent(t)
	})

	t.Run("amount edit adjusts the owning invoice by the delta", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		instrument := testDB.CreateTestInstrument(ctx, "card", 20, 27)

		obligations, err := obligationUC.CreateObligationGroup(ctx, usecase.CreateObligationGroupInput{
			InstrumentID: instrument.ID,
			Description:  "groceries",
			Amount:       domain.Money(5000),
			Installments: 1,
			PurchaseDate: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		target := obligations[0]
		newAmount := domain.Money(7500)

		if _, err := obligationUC.UpdateObligation(ctx, usecase.UpdateObligationInput{
			ID:     target.ID,
			Amount: &newAmount,
		}); err != nil {
			t.Fatalf("update failed: %v", err)
		}

		if got := testDB.InvoiceTotal(ctx, target.InvoiceID); got != newAmount {
			t.Fatalf("expected invoice total %d after amount edit, got %d", newAmount, got)
		}

		assertConsistent(t)
	})

	t.Run("group delete reverses every invoice total", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		instrument := testDB.CreateTestInstrument(ctx, "card", 20, 27)

		obligations, err := obligationUC.CreateObligationGroup(ctx, usecase.CreateObligationGroupInput{
			InstrumentID: instrument.ID,
			Description:  "phone",
			Amount:       domain.Money(120000),
			Installments: 12,
			PurchaseDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}

		if err := obligationUC.DeleteObligation(ctx, obligations[4].ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		var remaining int64
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM obligations`).Scan(&remaining); err != nil {
			t.Fatalf("count obligations: %v", err)
		}
		if remaining != 0 {
			t.Fatalf("expected group delete to cascade, %d obligations left", remaining)
		}

		var nonZero int64
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE total_amount <> 0`).Scan(&nonZero); err != nil {
			t.Fatalf("count invoices: %v", err)
		}
		if nonZero != 0 {
			t.Fatalf("expected all invoice totals reversed to zero, %d still non-zero", nonZero)
		}

		assertConsistent(t)
	})
}
