package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardledger/cardledger/internal/domain"
)

// InstrumentResponse represents an instrument in API responses.
type InstrumentResponse struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	ClosingDay int             `json:"closing_day"`
	DueDay     int             `json:"due_day"`
	TotalLimit decimal.Decimal `json:"total_limit"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// InstrumentFromDomain converts a domain instrument to a response.
func InstrumentFromDomain(i *domain.Instrument) *InstrumentResponse {
	return &InstrumentResponse{
		ID:         i.ID,
		Name:       i.Name,
		ClosingDay: i.ClosingDay,
		DueDay:     i.DueDay,
		TotalLimit: i.TotalLimit.Decimal(),
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

// InstrumentsFromDomain converts domain instruments to responses.
func InstrumentsFromDomain(instruments []*domain.Instrument) []*InstrumentResponse {
	result := make([]*InstrumentResponse, len(instruments))
	for i, instrument := range instruments {
		result[i] = InstrumentFromDomain(instrument)
	}
	return result
}

// TransactionResponse represents an obligation in API responses.
type TransactionResponse struct {
	ID            string          `json:"id"`
	InstrumentID  string          `json:"instrument_id"`
	InvoiceID     string          `json:"invoice_id"`
	GroupID       string          `json:"group_id"`
	Kind          string          `json:"kind"`
	Description   string          `json:"description"`
	Category      string          `json:"category"`
	SharedWith    string          `json:"shared_with,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	SequenceIndex int             `json:"sequence_index"`
	SequenceCount int             `json:"sequence_count"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TransactionFromDomain converts a domain obligation to a response.
func TransactionFromDomain(o *domain.Obligation) *TransactionResponse {
	return &TransactionResponse{
		ID:            o.ID,
		InstrumentID:  o.InstrumentID,
		InvoiceID:     o.InvoiceID,
		GroupID:       o.GroupID,
		Kind:          string(o.Kind),
		Description:   o.Description,
		Category:      o.Category,
		SharedWith:    o.SharedWith,
		Amount:        o.Amount.Decimal(),
		DueDate:       o.DueDate,
		SequenceIndex: o.SequenceIndex,
		SequenceCount: o.SequenceCount,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain obligations to responses.
func TransactionsFromDomain(obligations []*domain.Obligation) []*TransactionResponse {
	result := make([]*TransactionResponse, len(obligations))
	for i, o := range obligations {
		result[i] = TransactionFromDomain(o)
	}
	return result
}

// InvoiceResponse represents an invoice in API responses.
type InvoiceResponse struct {
	ID           string          `json:"id"`
	InstrumentID string          `json:"instrument_id"`
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	ClosingDate  time.Time       `json:"closing_date"`
	DueDate      time.Time       `json:"due_date"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// InvoiceFromDomain converts a domain invoice to a response.
func InvoiceFromDomain(inv *domain.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:           inv.ID,
		InstrumentID: inv.InstrumentID,
		Year:         inv.Year,
		Month:        int(inv.Month),
		TotalAmount:  inv.TotalAmount.Decimal(),
		PaidAmount:   inv.PaidAmount.Decimal(),
		ClosingDate:  inv.ClosingDate,
		DueDate:      inv.DueDate,
		Status:       string(inv.Status),
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

// InvoicesFromDomain converts domain invoices to responses.
func InvoicesFromDomain(invoices []*domain.Invoice) []*InvoiceResponse {
	result := make([]*InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		result[i] = InvoiceFromDomain(inv)
	}
	return result
}

// SummaryResponse represents one invoice summary scope in API responses.
type SummaryResponse struct {
	InvoiceID   string          `json:"invoice_id"`
	Scope       string          `json:"scope"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int64           `json:"item_count"`
	RefreshedAt time.Time       `json:"refreshed_at"`
}

// SummaryFromDomain converts a domain summary to a response.
func SummaryFromDomain(s *domain.InvoiceSummary) *SummaryResponse {
	return &SummaryResponse{
		InvoiceID:   s.InvoiceID,
		Scope:       string(s.Scope),
		TotalAmount: s.TotalAmount.Decimal(),
		ItemCount:   s.ItemCount,
		RefreshedAt: s.RefreshedAt,
	}
}

// SummariesFromDomain converts domain summaries to responses.
func SummariesFromDomain(summaries []*domain.InvoiceSummary) []*SummaryResponse {
	result := make([]*SummaryResponse, len(summaries))
	for i, s := range summaries {
		result[i] = SummaryFromDomain(s)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
