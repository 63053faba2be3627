package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cardledger/cardledger/internal/domain"
	"github.com/cardledger/cardledger/internal/usecase"
)

// CreateInstrumentRequest represents a request to register a credit
// instrument.
type CreateInstrumentRequest struct {
	Name       string          `json:"name"`
	ClosingDay int             `json:"closing_day"`
	DueDay     int             `json:"due_day"`
	TotalLimit decimal.Decimal `json:"total_limit"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateInstrumentRequest) ToUseCaseInput() (usecase.CreateInstrumentInput, error) {
	limit, err := domain.MoneyFromDecimal(r.TotalLimit)
	if err != nil {
		return usecase.CreateInstrumentInput{}, err
	}

	return usecase.CreateInstrumentInput{
		Name:       r.Name,
		ClosingDay: r.ClosingDay,
		DueDay:     r.DueDay,
		TotalLimit: limit,
	}, nil
}

// CreateTransactionRequest represents a request to record a purchase. A count
// above one splits the amount into that many installment obligations; an
// offset marks installments already billed before the purchase was recorded.
type CreateTransactionRequest struct {
	InstrumentID string          `json:"instrument_id"`
	Description  string          `json:"description"`
	Category     string          `json:"category"`
	SharedWith   string          `json:"shared_with,omitempty"`
	Kind         string          `json:"kind,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Installments int             `json:"installments"`
	Offset       int             `json:"offset,omitempty"`
	PurchaseDate time.Time       `json:"purchase_date"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateTransactionRequest) ToUseCaseInput() (usecase.CreateObligationGroupInput, error) {
	amount, err := domain.MoneyFromDecimal(r.Amount)
	if err != nil {
		return usecase.CreateObligationGroupInput{}, err
	}

	installments := r.Installments
	if installments == 0 {
		installments = 1
	}

	return usecase.CreateObligationGroupInput{
		InstrumentID: r.InstrumentID,
		Description:  r.Description,
		Category:     r.Category,
		SharedWith:   r.SharedWith,
		Kind:         domain.ObligationKind(r.Kind),
		Amount:       amount,
		Installments: installments,
		Offset:       r.Offset,
		PurchaseDate: r.PurchaseDate,
	}, nil
}

// UpdateTransactionRequest represents a request to edit an obligation. Absent
// fields are left unchanged.
type UpdateTransactionRequest struct {
	Description  *string          `json:"description,omitempty"`
	Category     *string          `json:"category,omitempty"`
	SharedWith   *string          `json:"shared_with,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	DueDate      *time.Time       `json:"due_date,omitempty"`
	ApplyToGroup bool             `json:"apply_to_group,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateTransactionRequest) ToUseCaseInput(id string) (usecase.UpdateObligationInput, error) {
	input := usecase.UpdateObligationInput{
		ID:           id,
		Description:  r.Description,
		Category:     r.Category,
		SharedWith:   r.SharedWith,
		DueDate:      r.DueDate,
		ApplyToGroup: r.ApplyToGroup,
	}

	if r.Amount != nil {
		amount, err := domain.MoneyFromDecimal(*r.Amount)
		if err != nil {
			return usecase.UpdateObligationInput{}, err
		}
		input.Amount = &amount
	}

	return input, nil
}
