package domain

import (
	"fmt"
	"time"
)

// ObligationKind classifies a line item. Amounts are stored as positive
// magnitudes; direction is implied by the kind.
type ObligationKind string

const (
	KindPurchase     ObligationKind = "purchase"
	KindInstallment  ObligationKind = "installment"
	KindSubscription ObligationKind = "subscription"
)

// Valid reports whether the kind is one of the known obligation kinds. The
// summary scopes match on these values, so an unknown kind would be counted
// in "all" and silently missing everywhere else.
func (k ObligationKind) Valid() bool {
	switch k {
	case KindPurchase, KindInstallment, KindSubscription:
		return true
	}

	return false
}

// Obligation is one dated, amount-bearing line item: a single purchase, one
// installment of a multi-installment purchase, or one subscription charge.
//
// InvoiceID is fixed when the obligation is created. Later edits to the date
// or amount never move it to a different invoice; the obligation stays bound
// to its original billing period.
type Obligation struct {
	DueDate       time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ID            string
	InstrumentID  string
	InvoiceID     string
	GroupID       string
	Kind          ObligationKind
	Description   string
	Category      string
	SharedWith    string
	Amount        Money
	SequenceIndex int
	SequenceCount int
}

// Validate checks the obligation's amount and sequence position.
func (o *Obligation) Validate() error {
	if !o.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if o.SequenceCount < 1 || o.SequenceIndex < 1 || o.SequenceIndex > o.SequenceCount {
		return ErrInvalidInstallments
	}

	return nil
}

// ValidateGroup checks the group invariant over all members of one purchase:
// every member shares the same sequence count and the sequence indexes form a
// contiguous 1..count set with no duplicates.
func ValidateGroup(members []*Obligation) error {
	if len(members) == 0 {
		return ErrObligationNotFound
	}

	count := members[0].SequenceCount
	if count != len(members) {
		return fmt.Errorf("group %s has %d members, expected %d", members[0].GroupID, len(members), count)
	}

	seen := make(map[int]bool, count)
	for _, m := range members {
		if m.GroupID != members[0].GroupID || m.SequenceCount != count {
			return fmt.Errorf("group %s has inconsistent members", members[0].GroupID)
		}

		if m.SequenceIndex < 1 || m.SequenceIndex > count || seen[m.SequenceIndex] {
			return fmt.Errorf("group %s has invalid sequence index %d", m.GroupID, m.SequenceIndex)
		}

		seen[m.SequenceIndex] = true
	}

	return nil
}
