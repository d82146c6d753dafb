package model

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound        = errors.New("account not found")
	ErrInvalidAccountType     = errors.New("invalid account type: must be savings or checking")
	ErrInvalidCustomer        = errors.New("customer does not exist")
	ErrDuplicateAccountNumber = errors.New("account number already in use")

	// Balance errors
	ErrInvalidAmount     = errors.New("invalid amount: must be greater than 0")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// InsufficientFundsError is returned when a withdrawal would take the balance
// below the account type's overdraft floor. It matches ErrInsufficientFunds.
type InsufficientFundsError struct {
	AccountType    AccountType
	Balance        decimal.Decimal
	OverdraftLimit decimal.Decimal
}

// NewInsufficientFundsError builds the error for an account at its current balance
func NewInsufficientFundsError(account *Account) *InsufficientFundsError {
	return &InsufficientFundsError{
		AccountType:    account.AccountType,
		Balance:        account.Balance,
		OverdraftLimit: account.AccountType.OverdraftLimit(),
	}
}

func (e *InsufficientFundsError) Error() string {
	if e.OverdraftLimit.IsPositive() {
		return fmt.Sprintf("insufficient funds: %s account cannot be overdrawn by more than %s (current balance: %s, overdraft limit: %s)",
			e.AccountType, e.OverdraftLimit, e.Balance, e.OverdraftLimit)
	}
	return fmt.Sprintf("insufficient funds: %s account cannot have a negative balance (current balance: %s)",
		e.AccountType, e.Balance)
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
