package domain

import "time"

// InstallmentSeed is one dated slice of a purchase before it becomes a stored
// obligation.
type InstallmentSeed struct {
	DueDate       time.Time
	Amount        Money
	SequenceIndex int
}

// SplitInstallments divides a purchase total into count dated installments.
//
// Each of the first count-1 installments receives the truncated per-installment
// amount; the last installment absorbs the division remainder, so the amounts
// always sum to total exactly. Installment i is due at purchaseDate plus
// (i-1-offset) calendar months.
//
// offset is the number of installments already billed before the purchase was
// recorded: with offset > 0 the first offset installments are dated in the
// past, which lets a plan that started before entry be backfilled into its
// historical invoices. A single-installment purchase goes through the same
// path with count == 1.
func SplitInstallments(total Money, count int, purchaseDate time.Time, offset int) ([]InstallmentSeed, error) {
	if !total.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if count < 1 || offset < 0 || offset >= count {
		return nil, ErrInvalidInstallments
	}

	base := total / Money(count)
	last := total - base*Money(count-1)

	seeds := make([]InstallmentSeed, count)
	for i := 1; i <= count; i++ {
		amount := base
		if i == count {
			amount = last
		}

		seeds[i-1] = InstallmentSeed{
			SequenceIndex: i,
			Amount:        amount,
			DueDate:       AddMonths(purchaseDate, i-1-offset),
		}
	}

	return seeds, nil
}
