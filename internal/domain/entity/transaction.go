package entity

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TransactionType decides which aggregate bucket an amount contributes to
type TransactionType string

const (
	// Expense is money going out of the ledger
	Expense TransactionType = "expense"
	// Income is money coming into the ledger
	Income TransactionType = "income"
)

// IsValid reports whether the type is one of the known transaction types
func (t TransactionType) IsValid() bool {
	switch t {
	case Expense, Income:
		return true
	default:
		return false
	}
}

// Transaction represents a single income or expense event in the ledger
type Transaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
}

// TransactionInput is the payload used to create or replace a transaction
type TransactionInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
}

// TransactionPatch carries the fields a store should overwrite on update.
// Nil fields are left untouched.
type TransactionPatch struct {
	Amount      *decimal.Decimal
	Date        *Date
	Description *string
	Type        *TransactionType
}

// Validate ensures the payload meets all ledger invariants
func (in TransactionInput) Validate() error {
	switch {
	case in.Amount.IsZero():
		return &ValidationError{Field: "amount", Reason: ErrAmountZero}
	case in.Amount.IsNegative():
		return &ValidationError{Field: "amount", Reason: ErrAmountNegative}
	}

	if in.Date.IsZero() {
		return &ValidationError{Field: "date", Reason: ErrMissingDate}
	}

	if strings.TrimSpace(in.Description) == "" {
		return &ValidationError{Field: "description", Reason: ErrEmptyDescription}
	}

	if !in.Type.IsValid() {
		return &ValidationError{Field: "type", Reason: ErrInvalidType}
	}

	return nil
}

// Validate ensures the transaction meets all ledger invariants
func (t *Transaction) Validate() error {
	return t.Input().Validate()
}

// Input returns the mutable fields of the transaction
func (t *Transaction) Input() TransactionInput {
	return TransactionInput{
		Amount:      t.Amount,
		Date:        t.Date,
		Description: t.Description,
		Type:        t.Type,
	}
}

// FullPatch returns a patch that overwrites every mutable field
func (t *Transaction) FullPatch() TransactionPatch {
	amount := t.Amount
	date := t.Date
	desc := t.Description
	typ := t.Type

	return TransactionPatch{
		Amount:      &amount,
		Date:        &date,
		Description: &desc,
		Type:        &typ,
	}
}

// Apply overwrites the fields present in the patch
func (t *Transaction) Apply(p TransactionPatch) {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
}

// NewTransaction builds a transaction from a validated input and an assigned ID
func NewTransaction(id string, in TransactionInput) Transaction {
	return Transaction{
		ID:          id,
		Amount:      in.Amount,
		Date:        in.Date,
		Description: in.Description,
		Type:        in.Type,
	}
}
