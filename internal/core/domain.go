package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"

	PaymentCash PaymentType = "cash"
	PaymentBank PaymentType = "bank"
)

type (
	TxType      string
	PaymentType string

	// Transaction is a single income or expense record. The amount carries no
	// sign; direction is given by Type.
	Transaction struct {
		ID          string
		Date        string // YYYY-MM-DD in storage, DD/MM/YYYY in views
		Description string
		Amount      decimal.Decimal
		Type        TxType
		Category    string
		PaymentType PaymentType // defaults to cash when empty
		Bank        string      // set only when PaymentType is bank
	}

	// Category is owned per user; the same name may exist under both types.
	Category struct {
		ID   string
		Name string
		Type TxType
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidPayment   = errors.New("invalid payment type")
	ErrEmptyDescription = errors.New("empty description")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory    = errors.New("empty category")
	ErrBankRequired     = errors.New("bank name required for bank payments")
	ErrBankNotAllowed   = errors.New("bank name only allowed for bank payments")
)

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

// Payment returns the effective payment type, defaulting to cash.
func (t Transaction) Payment() PaymentType {
	if t.PaymentType == "" {
		return PaymentCash
	}
	return t.PaymentType
}

func (t Transaction) Validate() error {
	if MonthKeyForDate(t.Date).IsZero() {
		return ErrInvalidDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return ErrDescriptionLong
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	switch t.Payment() {
	case PaymentBank:
		if strings.TrimSpace(t.Bank) == "" {
			return ErrBankRequired
		}
	case PaymentCash:
		if t.Bank != "" {
			return ErrBankNotAllowed
		}
	default:
		return ErrInvalidPayment
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}
