package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType represents the type of bank account
type AccountType string

const (
	AccountTypeSavings  AccountType = "savings"
	AccountTypeChecking AccountType = "checking"
)

// CheckingOverdraftLimit is how far below zero a checking account may go
var CheckingOverdraftLimit = decimal.NewFromInt(500)

// AccountNumberLength is the fixed number of digits in an account number
const AccountNumberLength = 10

// IsValid reports whether t is a known account type
func (t AccountType) IsValid() bool {
	return t == AccountTypeSavings || t == AccountTypeChecking
}

// OverdraftLimit returns the amount the balance may drop below zero
func (t AccountType) OverdraftLimit() decimal.Decimal {
	if t == AccountTypeChecking {
		return CheckingOverdraftLimit
	}
	return decimal.Zero
}

// Floor returns the minimum balance permitted after a withdrawal
func (t AccountType) Floor() decimal.Decimal {
	return t.OverdraftLimit().Neg()
}

// Account represents a bank account
type Account struct {
	ID            uuid.UUID       `json:"id"`
	AccountNumber string          `json:"account_number"`
	Balance       decimal.Decimal `json:"balance"`
	AccountType   AccountType     `json:"account_type"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// IsNew returns true if the account has not been persisted yet
func (a *Account) IsNew() bool {
	return a.ID == uuid.Nil
}

// Withdrawable returns the most that can be withdrawn without crossing the floor
func (a *Account) Withdrawable() decimal.Decimal {
	return a.Balance.Sub(a.AccountType.Floor())
}

// CreateAccountRequest is the payload for creating a new account.
// Balance and account number are never taken from the caller.
type CreateAccountRequest struct {
	AccountType AccountType `json:"account_type" validate:"required,oneof=savings checking"`
	CustomerID  uuid.UUID   `json:"customer_id" validate:"required"`
}

// AmountRequest is the payload for deposits and withdrawals
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// ValidateAmount checks that a deposit or withdrawal amount is positive
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}
