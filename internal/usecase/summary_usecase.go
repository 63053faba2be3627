package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/cardledger/cardledger/internal/domain"
)

// SummaryUseCase maintains the read-optimized per-invoice summaries. The
// summaries are a cache over the obligation table, never the source of truth;
// refreshes are idempotent and safe to repeat.
type SummaryUseCase struct {
	summaryRepo SummaryRepository
	cache       Cache
	logger      zerolog.Logger
}

// NewSummaryUseCase creates a new SummaryUseCase.
func NewSummaryUseCase(summaryRepo SummaryRepository, cache Cache, logger zerolog.Logger) *SummaryUseCase {
	return &SummaryUseCase{
		summaryRepo: summaryRepo,
		cache:       cache,
		logger:      logger,
	}
}

// RefreshInvoice recomputes every summary scope for one invoice and updates
// the cache. Cache update failures are logged and swallowed; the summary
// table remains authoritative for reads on a cache miss.
func (uc *SummaryUseCase) RefreshInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceSummary, error) {
	summaries, err := uc.summaryRepo.RecomputeInvoice(ctx, invoiceID, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	uc.cacheSummaries(ctx, invoiceID, summaries)

	return summaries, nil
}

// RefreshAll recomputes summaries for every invoice. Per-invoice failures are
// logged and counted but do not stop the sweep.
func (uc *SummaryUseCase) RefreshAll(ctx context.Context) (refreshed, failed int, err error) {
	ids, err := uc.summaryRepo.ListInvoiceIDs(ctx)
	if err != nil {
		return 0, 0, err
	}

	for _, id := range ids {
		if _, err := uc.RefreshInvoice(ctx, id); err != nil {
			failed++

			uc.logger.Warn().Err(err).Str("invoice_id", id).Msg("summary refresh failed")

			continue
		}

		refreshed++
	}

	return refreshed, failed, nil
}

// GetInvoiceSummaries returns the summaries for an invoice, served from cache
// when possible.
func (uc *SummaryUseCase) GetInvoiceSummaries(ctx context.Context, invoiceID string) ([]*domain.InvoiceSummary, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, summaryCacheKey(invoiceID)); err == nil {
			var summaries []*domain.InvoiceSummary
			if err := json.Unmarshal(data, &summaries); err == nil {
				return summaries, nil
			}
		}
	}

	summaries, err := uc.summaryRepo.ListByInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	uc.cacheSummaries(ctx, invoiceID, summaries)

	return summaries, nil
}

func (uc *SummaryUseCase) cacheSummaries(ctx context.Context, invoiceID string, summaries []*domain.InvoiceSummary) {
	if uc.cache == nil {
		return
	}

	data, err := json.Marshal(summaries)
	if err != nil {
		return
	}

	if err := uc.cache.Set(ctx, summaryCacheKey(invoiceID), data, SummaryCacheTTL); err != nil {
		uc.logger.Warn().Err(err).Str("invoice_id", invoiceID).Msg("failed to cache invoice summaries")
	}
}

func summaryCacheKey(invoiceID string) string {
	return "summaries:" + invoiceID
}
