package integration

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cardledger/cardledger/internal/adapter/repository/postgres"
	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/usecase"
	"github.com/cardledger/cardledger/tests/testutil"
)

func TestConcurrentPurchases(t *testing.T) {
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

	t.Run("100 concurrent purchases converge on one invoice", func(t *testing.T) {
		testDB.TruncateAll(ctx)

		instrument := testDB.CreateTestInstrument(ctx, "main card", 20, 27)
		purchaseDate := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)

		numPurchases := 100
		amount := domain.Money(1000) // 10.00 per purchase

		var (
			wg           sync.WaitGroup
			successCount atomic.Int32
			invoiceID    atomic.Value
		)

		wg.Add(numPurchases)

		for range numPurchases {
			go func() {
				defer wg.Done()

				obligations, err := obligationUC.CreateObligationGroup(ctx, usecase.CreateObligationGroupInput{
					InstrumentID: instrument.ID,
					Description:  "coffee",
					Amount:       amount,
					Installments: 1,
					PurchaseDate: purchaseDate,
				})
				if err != nil {
					t.Errorf("create failed: %v", err)
					return
				}

				successCount.Add(1)
				invoiceID.Store(obligations[0].InvoiceID)
			}()
		}

		wg.Wait()

		if got := successCount.Load(); got != int32(numPurchases) {
			t.Fatalf("expected %d successful purchases, got %d", numPurchases, got)
		}

		id, _ := invoiceID.Load().(string)
		if id == "" {
			t.Fatal("no invoice recorded")
		}

		var invoiceCount int64
		if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM invoices`).Scan(&invoiceCount); err != nil {
			t.Fatalf("count invoices: %v", err)
		}
		if invoiceCount != 1 {
			t.Fatalf("expected all purchases to land on one invoice, got %d invoices", invoiceCount)
		}

		want := amount * domain.Money(numPurchases)
		if got := testDB.InvoiceTotal(ctx, id); got != want {
			t.Fatalf("expected invoice total %d, got %d", want, got)
		}

		if _, err := ledgerUC.CheckConsistency(ctx); err != nil {
			t.Fatalf("ledger inconsistent after concurrent purchases: %v", err)
		}
	})
}
