package domain

import "time"

// Instrument is a credit card or similar revolving-credit vehicle with a
// monthly statement cycle. Closing and due days are fixed for period
// resolution: changing them later does not move invoices that already exist.
type Instrument struct {
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ID         string
	Name       string
	ClosingDay int
	DueDay     int
	TotalLimit Money
}

// Validate checks the instrument's billing configuration.
func (i *Instrument) Validate() error {
	if i.Name == "" {
		return ErrInvalidConfiguration
	}

	if i.ClosingDay < 1 || i.ClosingDay > 31 || i.DueDay < 1 || i.DueDay > 31 {
		return ErrInvalidConfiguration
	}

	if i.TotalLimit < 0 {
		return ErrInvalidAmount
	}

	return nil
}
