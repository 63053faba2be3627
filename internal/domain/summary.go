package domain

import "time"

// SummaryScope selects which obligations a precomputed invoice summary covers.
type SummaryScope string

const (
	ScopeAll          SummaryScope = "all"
	ScopeInstallment  SummaryScope = "installment"
	ScopeSubscription SummaryScope = "subscription"
)

// Scopes lists every summary scope recomputed on refresh.
var Scopes = []SummaryScope{ScopeAll, ScopeInstallment, ScopeSubscription}

// InvoiceSummary is a read-optimized aggregate over one invoice's
// obligations. Summaries are an eventually-consistent cache, never the source
// of truth: they may lag the invoice until the next successful refresh.
type InvoiceSummary struct {
	RefreshedAt time.Time
	InvoiceID   string
	Scope       SummaryScope
	TotalAmount Money
	ItemCount   int64
}
