package domain

import "time"

// InvoiceStatus is the lifecycle state of a monthly invoice. Transitions are
// explicit user actions, never time-driven.
type InvoiceStatus string

const (
	InvoiceStatusOpen    InvoiceStatus = "open"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusOverdue InvoiceStatus = "overdue"
)

// Invoice is the monthly statement for one instrument. At most one invoice
// exists per (instrument, year, month); it is created lazily on the first
// obligation assigned to that period.
type Invoice struct {
	ClosingDate  time.Time
	DueDate      time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ID           string
	InstrumentID string
	Status       InvoiceStatus
	Month        time.Month
	Year         int
	TotalAmount  Money
	PaidAmount   Money
}

// MarkPaid transitions the invoice to paid, snapshotting the total at that
// instant as the paid amount.
func (inv *Invoice) MarkPaid(now time.Time) error {
	if inv.Status == InvoiceStatusPaid {
		return ErrInvoicePaid
	}

	inv.Status = InvoiceStatusPaid
	inv.PaidAmount = inv.TotalAmount
	inv.UpdatedAt = now

	return nil
}

// Reopen transitions a paid invoice back to open.
func (inv *Invoice) Reopen(now time.Time) error {
	if inv.Status != InvoiceStatusPaid {
		return ErrInvoiceNotPaid
	}

	inv.Status = InvoiceStatusOpen
	inv.PaidAmount = 0
	inv.UpdatedAt = now

	return nil
}
