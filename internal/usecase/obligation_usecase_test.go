package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/usecase"
	"github.com/cardledger/cardledger/internal/usecase/mocks"
)

type obligationFixture struct {
	uc             *usecase.ObligationUseCase
	instrumentRepo *mocks.MockInstrumentRepository
	invoiceRepo    *mocks.MockInvoiceRepository
	obligationRepo *mocks.MockObligationRepository
	queue          *mocks.MockRefreshQueue
	retrier        *rerunRetrier
}

func newObligationFixture(t *testing.T) *obligationFixture {
	t.Helper()

	f := &obligationFixture{
		instrumentRepo: mocks.NewMockInstrumentRepository(),
		invoiceRepo:    mocks.NewMockInvoiceRepository(),
		obligationRepo: mocks.NewMockObligationRepository(),
		queue:          mocks.NewMockRefreshQueue(),
		retrier:        &rerunRetrier{},
	}

	f.uc = usecase.NewObligationUseCase(
		mocks.NewMockTransactionManager(),
		f.instrumentRepo,
		f.invoiceRepo,
		f.obligationRepo,
		mocks.NewMockIDGenerator(),
		f.queue,
		f.retrier,
		nil,
		zerolog.Nop(),
	)

	return f
}

// rerunRetrier reruns a failed operation once when the failure is a
// transient database conflict, mirroring the bounded-backoff behavior of the
// production retrier without the waiting.
type rerunRetrier struct {
	attempts int
}

func (r *rerunRetrier) Retry(ctx context.Context, operation func() error) error {
	r.attempts++
	err := operation()
	if err == nil || !isTransientConflict(err) {
		return err
	}

	r.attempts++

	return operation()
}

func isTransientConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40P01" || pgErr.Code == "40001")
}

func (f *obligationFixture) addInstrument(t *testing.T, closingDay, dueDay int) *domain.Instrument {
	t.Helper()

	instrument := &domain.Instrument{
		ID:         "card-1",
		Name:       "main card",
		ClosingDay: closingDay,
		DueDay:     dueDay,
		TotalLimit: 1000000,
	}
	if err := f.instrumentRepo.Create(context.Background(), instrument); err != nil {
		t.Fatalf("failed to seed instrument: %v", err)
	}

	return instrument
}

func TestObligationUseCase_CreateObligationGroup(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	obligations, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "new couch",
		Category:     "home",
		Amount:       1000,
		Installments: 3,
		PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(obligations) != 3 {
		t.Fatalf("expected 3 obligations, got %d", len(obligations))
	}

	wantAmounts := []domain.Money{333, 333, 334}
	wantMonths := []time.Month{time.July, time.August, time.September}

	var sum domain.Money
	for i, o := range obligations {
		sum += o.Amount

		if o.Amount != wantAmounts[i] {
			t.Errorf("installment %d: expected amount %d, got %d", i+1, wantAmounts[i], o.Amount)
		}
		if o.GroupID != obligations[0].GroupID {
			t.Errorf("installment %d: expected shared group ID", i+1)
		}
		if o.SequenceIndex != i+1 || o.SequenceCount != 3 {
			t.Errorf("installment %d: unexpected sequence %d/%d", i+1, o.SequenceIndex, o.SequenceCount)
		}
		if o.Kind != domain.KindInstallment {
			t.Errorf("installment %d: expected kind installment, got %s", i+1, o.Kind)
		}

		invoice, err := f.invoiceRepo.GetByID(context.Background(), o.InvoiceID)
		if err != nil {
			t.Fatalf("installment %d: invoice not created: %v", i+1, err)
		}
		if invoice.Month != wantMonths[i] || invoice.Year != 2024 {
			t.Errorf("installment %d: expected period 2024-%s, got %d-%s", i+1, wantMonths[i], invoice.Year, invoice.Month)
		}
		if invoice.TotalAmount != o.Amount {
			t.Errorf("installment %d: expected invoice total %d, got %d", i+1, o.Amount, invoice.TotalAmount)
		}
	}

	if sum != 1000 {
		t.Errorf("expected amounts to sum to 1000, got %d", sum)
	}

	if got := len(f.queue.PublishedIDs()); got != 3 {
		t.Errorf("expected 3 refresh tasks, got %d", got)
	}
}

func TestObligationUseCase_CreateSinglePurchase(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	obligations, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "groceries",
		Category:     "food",
		Kind:         domain.KindPurchase,
		Amount:       5990,
		Installments: 1,
		PurchaseDate: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(obligations) != 1 {
		t.Fatalf("expected 1 obligation, got %d", len(obligations))
	}

	o := obligations[0]
	if o.Kind != domain.KindPurchase || o.SequenceIndex != 1 || o.SequenceCount != 1 {
		t.Errorf("unexpected single-purchase obligation: %+v", o)
	}

	// Day 3 is on or before closing day 7, so the June period owns it.
	invoice, err := f.invoiceRepo.GetByID(context.Background(), o.InvoiceID)
	if err != nil {
		t.Fatalf("invoice not created: %v", err)
	}
	if invoice.Month != time.June {
		t.Errorf("expected June invoice, got %s", invoice.Month)
	}
}

func TestObligationUseCase_CreateRetroactiveBackfill(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	obligations, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "phone",
		Amount:       1200,
		Installments: 12,
		Offset:       3,
		PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The first three installments are backfilled into past periods.
	if want := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC); !obligations[0].DueDate.Equal(want) {
		t.Errorf("expected first installment due %s, got %s", want, obligations[0].DueDate)
	}
	if want := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC); !obligations[3].DueDate.Equal(want) {
		t.Errorf("expected fourth installment due %s, got %s", want, obligations[3].DueDate)
	}
}

func TestObligationUseCase_CreateValidation(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.CreateObligationGroupInput
		wantErr error
	}{
		{
			name: "unknown instrument",
			input: usecase.CreateObligationGroupInput{
				InstrumentID: "missing", Amount: 100, Installments: 1,
				PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
			},
			wantErr: domain.ErrInstrumentNotFound,
		},
		{
			name: "non-positive amount",
			input: usecase.CreateObligationGroupInput{
				InstrumentID: "card-1", Amount: 0, Installments: 3,
				PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "zero installments",
			input: usecase.CreateObligationGroupInput{
				InstrumentID: "card-1", Amount: 100, Installments: 0,
				PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
			},
			wantErr: domain.ErrInvalidInstallments,
		},
		{
			name: "unknown kind",
			input: usecase.CreateObligationGroupInput{
				InstrumentID: "card-1", Kind: "purchse", Amount: 100, Installments: 1,
				PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
			},
			wantErr: domain.ErrInvalidConfiguration,
		},
		{
			name: "too many installments",
			input: usecase.CreateObligationGroupInput{
				InstrumentID: "card-1", Amount: 100, Installments: usecase.MaxInstallments + 1,
				PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
			},
			wantErr: domain.ErrInvalidInstallments,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newObligationFixture(t)
			f.addInstrument(t, 7, 15)

			_, err := f.uc.CreateObligationGroup(context.Background(), tt.input)
			if err != tt.wantErr {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}

			// Nothing may be persisted on a rejected request.
			if f.obligationRepo.Len() != 0 {
				t.Errorf("expected no obligations persisted, got %d", f.obligationRepo.Len())
			}
			if got := len(f.queue.PublishedIDs()); got != 0 {
				t.Errorf("expected no refresh tasks, got %d", got)
			}
		})
	}
}

func TestObligationUseCase_ConcurrentCreationsSameInvoice(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	// Two purchases on the same date: their second installments land in the
	// same future invoice. Whatever the interleaving, that invoice's total
	// must equal the sum of both installments.
	const workers = 8

	var wg sync.WaitGroup
	results := make([][]*domain.Obligation, workers)
	errs := make([]error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			results[w], errs[w] = f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
				InstrumentID: "card-1",
				Description:  "concurrent purchase",
				Amount:       1000,
				Installments: 2,
				PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
			})
		}(w)
	}
	wg.Wait()

	invoiceIDs := make(map[string]bool)
	for w := 0; w < workers; w++ {
		if errs[w] != nil {
			t.Fatalf("worker %d failed: %v", w, errs[w])
		}
		for _, o := range results[w] {
			invoiceIDs[o.InvoiceID] = true
		}
	}

	// All groups share the same two invoices (July and August 2024).
	if len(invoiceIDs) != 2 {
		t.Fatalf("expected 2 distinct invoices, got %d", len(invoiceIDs))
	}

	for id := range invoiceIDs {
		invoice, err := f.invoiceRepo.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("invoice %s missing: %v", id, err)
		}

		members, err := f.obligationRepo.ListByInvoice(context.Background(), id, 500, 0)
		if err != nil {
			t.Fatalf("listing obligations for %s: %v", id, err)
		}

		var want domain.Money
		for _, m := range members {
			want += m.Amount
		}

		if invoice.TotalAmount != want {
			t.Errorf("invoice %s: expected total %d, got %d (lost update)", id, want, invoice.TotalAmount)
		}
	}
}

func TestObligationUseCase_DeleteCascadesGroup(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	obligations, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "laptop",
		Amount:       12000,
		Installments: 12,
		PurchaseDate: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Deleting any one member removes all 12 and reverses each invoice.
	if err := f.uc.DeleteObligation(context.Background(), obligations[4].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.obligationRepo.Len() != 0 {
		t.Errorf("expected all 12 obligations deleted, got %d remaining", f.obligationRepo.Len())
	}

	for i, o := range obligations {
		invoice, err := f.invoiceRepo.GetByID(context.Background(), o.InvoiceID)
		if err != nil {
			t.Fatalf("invoice %d missing: %v", i+1, err)
		}
		if invoice.TotalAmount != 0 {
			t.Errorf("invoice for installment %d: expected total reversed to 0, got %d", i+1, invoice.TotalAmount)
		}
	}
}

func TestObligationUseCase_DeleteMissing(t *testing.T) {
	f := newObligationFixture(t)

	if err := f.uc.DeleteObligation(context.Background(), "missing"); err != domain.ErrObligationNotFound {
		t.Errorf("expected ErrObligationNotFound, got %v", err)
	}
}

func TestObligationUseCase_UpdateDateKeepsInvoice(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	obligations, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "dinner",
		Amount:       800,
		Installments: 1,
		PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	original := obligations[0]

	// Moving the date two months out would resolve to a different period,
	// but the invoice assignment is fixed at creation.
	newDate := time.Date(2024, time.August, 20, 0, 0, 0, 0, time.UTC)
	updated, err := f.uc.UpdateObligation(context.Background(), usecase.UpdateObligationInput{
		ID:      original.ID,
		DueDate: &newDate,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !updated.DueDate.Equal(newDate) {
		t.Errorf("expected date updated to %s, got %s", newDate, updated.DueDate)
	}
	if updated.InvoiceID != original.InvoiceID {
		t.Errorf("expected invoice ID unchanged, got %s -> %s", original.InvoiceID, updated.InvoiceID)
	}
}

func TestObligationUseCase_UpdateAmountAdjustsInvoiceTotal(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	obligations, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "headphones",
		Amount:       900,
		Installments: 3,
		PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	target := obligations[1]

	newAmount := domain.Money(450)
	if _, err := f.uc.UpdateObligation(context.Background(), usecase.UpdateObligationInput{
		ID:     target.ID,
		Amount: &newAmount,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	invoice, err := f.invoiceRepo.GetByID(context.Background(), target.InvoiceID)
	if err != nil {
		t.Fatalf("invoice missing: %v", err)
	}
	if invoice.TotalAmount != 450 {
		t.Errorf("expected invoice total adjusted to 450, got %d", invoice.TotalAmount)
	}

	// Sibling amounts and invoices stay untouched: no re-split.
	for _, sibling := range []*domain.Obligation{obligations[0], obligations[2]} {
		stored := f.obligationRepo.Obligation(sibling.ID)
		if stored.Amount != 300 {
			t.Errorf("expected sibling amount unchanged at 300, got %d", stored.Amount)
		}
	}
}

func TestObligationUseCase_UpdateFansOutToGroup(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	obligations, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "tv",
		Category:     "home",
		Amount:       3000,
		Installments: 3,
		PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	description := "tv (living room)"
	category := "electronics"
	if _, err := f.uc.UpdateObligation(context.Background(), usecase.UpdateObligationInput{
		ID:           obligations[0].ID,
		Description:  &description,
		Category:     &category,
		ApplyToGroup: true,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, o := range obligations {
		stored := f.obligationRepo.Obligation(o.ID)
		if stored.Description != description || stored.Category != category {
			t.Errorf("member %d: expected fan-out edit, got description=%q category=%q", i+1, stored.Description, stored.Category)
		}
	}
}

func TestObligationUseCase_RetriesTransactionOnDeadlock(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	// First total increment deadlocks; the whole transaction must be rerun
	// and succeed on the second attempt rather than surfacing the conflict.
	var addCalls int
	f.invoiceRepo.AddToTotalFunc = func(ctx context.Context, tx usecase.Transaction, id string, delta domain.Money, updatedAt time.Time) error {
		addCalls++
		if addCalls == 1 {
			return &pgconn.PgError{Code: "40P01"}
		}
		return nil
	}

	obligations, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "coffee",
		Amount:       500,
		Installments: 1,
		PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected deadlock to be retried, got %v", err)
	}
	if len(obligations) != 1 {
		t.Fatalf("expected 1 obligation, got %d", len(obligations))
	}

	if f.retrier.attempts != 2 {
		t.Errorf("expected 2 attempts through the retrier, got %d", f.retrier.attempts)
	}
	if addCalls != 2 {
		t.Errorf("expected AddToTotal called once per attempt, got %d", addCalls)
	}
}

func TestObligationUseCase_DoesNotRetryPermanentErrors(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	f.invoiceRepo.AddToTotalFunc = func(ctx context.Context, tx usecase.Transaction, id string, delta domain.Money, updatedAt time.Time) error {
		return domain.ErrInvoiceNotFound
	}

	_, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "coffee",
		Amount:       500,
		Installments: 1,
		PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
	})
	if !errors.Is(err, domain.ErrInvoiceNotFound) {
		t.Fatalf("expected ErrInvoiceNotFound, got %v", err)
	}

	if f.retrier.attempts != 1 {
		t.Errorf("expected a single attempt for a permanent error, got %d", f.retrier.attempts)
	}
}

func TestObligationUseCase_RefreshPublishFailureIsSwallowed(t *testing.T) {
	f := newObligationFixture(t)
	f.addInstrument(t, 7, 15)

	f.queue.PublishRefreshFunc = func(ctx context.Context, invoiceID string) error {
		return context.DeadlineExceeded
	}

	// A failing refresh queue must never fail the mutation.
	obligations, err := f.uc.CreateObligationGroup(context.Background(), usecase.CreateObligationGroupInput{
		InstrumentID: "card-1",
		Description:  "coffee",
		Amount:       500,
		Installments: 1,
		PurchaseDate: time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("expected mutation to succeed despite refresh failure, got %v", err)
	}
	if len(obligations) != 1 {
		t.Fatalf("expected 1 obligation, got %d", len(obligations))
	}
}
