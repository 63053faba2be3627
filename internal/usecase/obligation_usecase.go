package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/infrastructure/metrics"
)

// ObligationUseCase handles the lifecycle of purchases and their installment
// obligations.
type ObligationUseCase struct {
	txManager      TransactionManager
	instrumentRepo InstrumentRepository
	invoiceRepo    InvoiceRepository
	obligationRepo ObligationRepository
	idGen          IDGenerator
	refreshQueue   RefreshQueue
	retrier        ConflictRetrier
	metrics        *metrics.Metrics
	logger         zerolog.Logger
}

// NewObligationUseCase creates a new ObligationUseCase.
func NewObligationUseCase(
	txManager TransactionManager,
	instrumentRepo InstrumentRepository,
	invoiceRepo InvoiceRepository,
	obligationRepo ObligationRepository,
	idGen IDGenerator,
	refreshQueue RefreshQueue,
	retrier ConflictRetrier,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *ObligationUseCase {
	return &ObligationUseCase{
		txManager:      txManager,
		instrumentRepo: instrumentRepo,
		invoiceRepo:    invoiceRepo,
		obligationRepo: obligationRepo,
		idGen:          idGen,
		refreshQueue:   refreshQueue,
		retrier:        retrier,
		metrics:        metrics,
		logger:         logger,
	}
}

// CreateObligationGroupInput represents input for recording a purchase.
type CreateObligationGroupInput struct {
	PurchaseDate time.Time
	InstrumentID string
	Description  string
	Category     string
	SharedWith   string
	Kind         domain.ObligationKind
	Amount       domain.Money
	Installments int
	// Offset is the number of installments already billed before the purchase
	// was recorded; those are materialized with past dates and resolved into
	// their historical invoices.
	Offset int
}

// CreateObligationGroup splits a purchase into dated installment obligations,
// assigns each one to its billing period's invoice (creating invoices lazily)
// and increments the affected invoice totals, all in one transaction. Summary
// refreshes for the touched invoices are enqueued after commit, best-effort.
func (uc *ObligationUseCase) CreateObligationGroup(ctx context.Context, input CreateObligationGroupInput) ([]*domain.Obligation, error) {
	if input.Installments > MaxInstallments {
		return nil, domain.ErrInvalidInstallments
	}

	if input.Kind != "" && !input.Kind.Valid() {
		return nil, domain.ErrInvalidConfiguration
	}

	instrument, err := uc.instrumentRepo.GetByID(ctx, input.InstrumentID)
	if err != nil {
		return nil, err
	}

	seeds, err := domain.SplitInstallments(input.Amount, input.Installments, input.PurchaseDate, input.Offset)
	if err != nil {
		return nil, err
	}

	kind := input.Kind
	if kind == "" {
		kind = domain.KindPurchase
	}
	if len(seeds) > 1 {
		kind = domain.KindInstallment
	}

	groupID := uc.idGen.Generate()

	var (
		obligations []*domain.Obligation
		touched     map[string]bool
	)

	err = uc.withConflictRetry(ctx, func() error {
		now := time.Now().UTC()

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		obligations = make([]*domain.Obligation, 0, len(seeds))
		touched = make(map[string]bool)

		for _, seed := range seeds {
			invoice, err := uc.resolveInvoice(ctx, tx, instrument, seed.DueDate, now)
			if err != nil {
				return err
			}

			obligation := &domain.Obligation{
				ID:            uc.idGen.Generate(),
				InstrumentID:  instrument.ID,
				InvoiceID:     invoice.ID,
				GroupID:       groupID,
				Kind:          kind,
				Description:   input.Description,
				Category:      input.Category,
				SharedWith:    input.SharedWith,
				Amount:        seed.Amount,
				DueDate:       seed.DueDate,
				SequenceIndex: seed.SequenceIndex,
				SequenceCount: len(seeds),
				CreatedAt:     now,
				UpdatedAt:     now,
			}

			if err := obligation.Validate(); err != nil {
				return err
			}

			if err := uc.obligationRepo.Create(ctx, tx, obligation); err != nil {
				return err
			}

			if err := uc.invoiceRepo.AddToTotal(ctx, tx, invoice.ID, seed.Amount, now); err != nil {
				return err
			}

			obligations = append(obligations, obligation)
			touched[invoice.ID] = true
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ObligationsCreated.Add(float64(len(obligations)))
		if len(seeds) > 1 {
			uc.metrics.InstallmentGroups.Inc()
			uc.metrics.InstallmentCount.Observe(float64(len(seeds)))
		}
	}

	uc.enqueueRefresh(ctx, touched)

	return obligations, nil
}

// UpdateObligationInput represents input for editing an obligation. Nil
// fields are left unchanged.
type UpdateObligationInput struct {
	ID           string
	Description  *string
	Category     *string
	SharedWith   *string
	Amount       *domain.Money
	DueDate      *time.Time
	ApplyToGroup bool
}

// UpdateObligation edits an obligation. Description, category and shared-with
// changes fan out to every member of the installment group when ApplyToGroup
// is set; amount and due-date edits always bind to the single obligation.
// The obligation's invoice assignment never changes, regardless of what the
// edited date or amount would now resolve to.
func (uc *ObligationUseCase) UpdateObligation(ctx context.Context, input UpdateObligationInput) (*domain.Obligation, error) {
	if input.Amount != nil && !input.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}

	var (
		updated *domain.Obligation
		touched map[string]bool
	)

	err := uc.withConflictRetry(ctx, func() error {
		now := time.Now().UTC()

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		target, err := uc.obligationRepo.GetByIDForUpdate(ctx, tx, input.ID)
		if err != nil {
			return err
		}

		members := []*domain.Obligation{target}
		if input.ApplyToGroup && target.SequenceCount > 1 {
			members, err = uc.obligationRepo.ListByGroupForUpdate(ctx, tx, target.GroupID)
			if err != nil {
				return err
			}
		}

		touched = map[string]bool{}

		for _, member := range members {
			if input.Description != nil {
				member.Description = *input.Description
			}
			if input.Category != nil {
				member.Category = *input.Category
			}
			if input.SharedWith != nil {
				member.SharedWith = *input.SharedWith
			}

			if member.ID == target.ID {
				if input.Amount != nil && *input.Amount != member.Amount {
					delta := *input.Amount - member.Amount
					member.Amount = *input.Amount

					if err := uc.invoiceRepo.AddToTotal(ctx, tx, member.InvoiceID, delta, now); err != nil {
						return err
					}

					touched[member.InvoiceID] = true
				}

				if input.DueDate != nil {
					// The date moves; the invoice assignment does not.
					member.DueDate = *input.DueDate
				}

				updated = member
			}

			member.UpdatedAt = now
			if err := uc.obligationRepo.Update(ctx, tx, member); err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return nil, err
	}

	uc.enqueueRefresh(ctx, touched)

	return updated, nil
}

// DeleteObligation deletes an obligation. For installment groups the delete
// cascades to every member, reversing each affected invoice's total. Member
// deletions and total reversals commit or fail together.
func (uc *ObligationUseCase) DeleteObligation(ctx context.Context, id string) error {
	var (
		deleted int64
		touched map[string]bool
	)

	err := uc.withConflictRetry(ctx, func() error {
		now := time.Now().UTC()

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		target, err := uc.obligationRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		members, err := uc.obligationRepo.ListByGroupForUpdate(ctx, tx, target.GroupID)
		if err != nil {
			return err
		}

		if err := domain.ValidateGroup(members); err != nil {
			uc.logger.Warn().Err(err).Str("group_id", target.GroupID).Msg("deleting inconsistent obligation group")
		}

		touched = make(map[string]bool, len(members))
		for _, member := range members {
			if err := uc.invoiceRepo.AddToTotal(ctx, tx, member.InvoiceID, -member.Amount, now); err != nil {
				return err
			}

			touched[member.InvoiceID] = true
		}

		deleted, err = uc.obligationRepo.DeleteByGroup(ctx, tx, target.GroupID)
		if err != nil {
			return err
		}

		if deleted != int64(len(members)) {
			return domain.ErrObligationNotFound
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.ObligationsDeleted.Add(float64(deleted))
	}

	uc.enqueueRefresh(ctx, touched)

	return nil
}

// GetObligation retrieves an obligation by ID.
func (uc *ObligationUseCase) GetObligation(ctx context.Context, id string) (*domain.Obligation, error) {
	return uc.obligationRepo.GetByID(ctx, id)
}

// ListObligationsByInvoiceInput represents input for listing an invoice's
// obligations.
type ListObligationsByInvoiceInput struct {
	InvoiceID string
	Limit     int
	Offset    int
}

// ListObligationsByInvoice lists the obligations assigned to an invoice.
func (uc *ObligationUseCase) ListObligationsByInvoice(ctx context.Context, input ListObligationsByInvoiceInput) ([]*domain.Obligation, error) {
	if input.Limit <= 0 {
		input.Limit = 50
	}

	if input.Limit > 500 {
		input.Limit = 500
	}

	return uc.obligationRepo.ListByInvoice(ctx, input.InvoiceID, input.Limit, input.Offset)
}

func (uc *ObligationUseCase) resolveInvoice(ctx context.Context, tx Transaction, instrument *domain.Instrument, dueDate, now time.Time) (*domain.Invoice, error) {
	period, err := domain.ResolvePeriod(dueDate, instrument.ClosingDay, instrument.DueDay)
	if err != nil {
		return nil, err
	}

	return uc.invoiceRepo.FindOrCreate(ctx, tx, &domain.Invoice{
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
}

// withConflictRetry runs a transactional body through the conflict retrier.
// Concurrent group operations can deadlock on invoice row locks; the whole
// transaction is rerun rather than surfacing the conflict to the caller.
func (uc *ObligationUseCase) withConflictRetry(ctx context.Context, op func() error) error {
	if uc.retrier == nil {
		return op()
	}

	return uc.retrier.Retry(ctx, op)
}

// enqueueRefresh publishes summary refresh tasks for the touched invoices.
// Publish failures are logged and swallowed: summaries are an
// eventually-consistent cache and must never fail the mutation that
// triggered them.
func (uc *ObligationUseCase) enqueueRefresh(ctx context.Context, invoiceIDs map[string]bool) {
	if uc.refreshQueue == nil {
		return
	}

	for id := range invoiceIDs {
		if err := uc.refreshQueue.PublishRefresh(ctx, id); err != nil {
			uc.logger.Warn().Err(err).Str("invoice_id", id).Msg("failed to enqueue summary refresh")
		}
	}
}
