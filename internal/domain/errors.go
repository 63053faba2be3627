package domain

import "errors"

var (
	// Configuration errors
	ErrInvalidConfiguration = errors.New("closing day and due day must be between 1 and 31")

	// Amount errors
	ErrInvalidAmount       = errors.New("amount must be a positive whole number of minor units")
	ErrInvalidInstallments = errors.New("installment count must be at least 1 and offset must be smaller than count")

	// Not-found errors
	ErrInstrumentNotFound = errors.New("instrument not found")
	ErrInvoiceNotFound    = errors.New("invoice not found")
	ErrObligationNotFound = errors.New("obligation not found")

	// Invoice status errors
	ErrInvoicePaid    = errors.New("invoice is already paid")
	ErrInvoiceNotPaid = errors.New("invoice is not paid")
)
