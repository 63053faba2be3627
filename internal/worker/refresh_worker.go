package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cardledger/cardledger/internal/adapter/queue/amqp"
	"github.com/cardledger/cardledger/internal/domain"
)

// Refresher recomputes invoice summaries.
type Refresher interface {
	RefreshInvoice(ctx context.Context, invoiceID string) ([]*domain.InvoiceSummary, error)
	RefreshAll(ctx context.Context) (refreshed, failed int, err error)
}

// Consumer delivers summary refresh tasks.
type Consumer interface {
	ConsumeRefresh(ctx context.Context, handler func(*amqp.RefreshMessage) error) error
}

// RefreshWorker consumes refresh tasks and keeps invoice summaries current.
// Besides the queue it runs a periodic full sweep as a backup: queue delivery
// is at-least-once but a publish can still be lost before it reaches the
// broker, and the sweep repairs whatever slipped through.
type RefreshWorker struct {
	refresher     Refresher
	consumer      Consumer
	sweepInterval time.Duration
	logger        zerolog.Logger
}

// NewRefreshWorker creates a new RefreshWorker. A non-positive sweepInterval
// disables the periodic sweep.
func NewRefreshWorker(refresher Refresher, consumer Consumer, sweepInterval time.Duration, logger zerolog.Logger) *RefreshWorker {
	return &RefreshWorker{
		refresher:     refresher,
		consumer:      consumer,
		sweepInterval: sweepInterval,
		logger:        logger,
	}
}

// Run consumes refresh tasks until the context is cancelled.
func (w *RefreshWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.consumer.ConsumeRefresh(ctx, func(msg *amqp.RefreshMessage) error {
			return w.handle(ctx, msg)
		})
	})

	if w.sweepInterval > 0 {
		g.Go(func() error {
			return w.sweep(ctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *RefreshWorker) handle(ctx context.Context, msg *amqp.RefreshMessage) error {
	summaries, err := w.refresher.RefreshInvoice(ctx, msg.InvoiceID)
	if err != nil {
		return err
	}

	w.logger.Debug().
		Str("invoice_id", msg.InvoiceID).
		Int("scopes", len(summaries)).
		Msg("invoice summaries refreshed")

	return nil
}

func (w *RefreshWorker) sweep(ctx context.Context) error {
	ticker := time.NewTicker(w.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			refreshed, failed, err := w.refresher.RefreshAll(ctx)
			if err != nil {
				w.logger.Error().Err(err).Msg("summary sweep failed")
				continue
			}

			w.logger.Info().
				Int("refreshed", refreshed).
				Int("failed", failed).
				Msg("summary sweep completed")
		}
	}
}
