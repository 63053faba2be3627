package usecase

import "time"

const (
	// MaxInstallments caps how many installments one purchase may fan out into.
	MaxInstallments = 120

	// SummaryCacheTTL is how long cached invoice summaries are served before
	// falling back to the summary table.
	SummaryCacheTTL = 5 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour
)
