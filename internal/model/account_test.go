package model

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountType_IsValid(t *testing.T) {
	tests := []struct {
		name        string
		accountType AccountType
		want        bool
	}{
		{name: "savings", accountType: AccountTypeSavings, want: true},
		{name: "checking", accountType: AccountTypeChecking, want: true},
		{name: "empty", accountType: "", want: false},
		{name: "unknown", accountType: "loan", want: false},
		{name: "wrong case", accountType: "SAVINGS", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.accountType.IsValid())
		})
	}
}

func TestAccountType_Floor(t *testing.T) {
	assert.True(t, AccountTypeSavings.Floor().Equal(decimal.Zero))
	assert.True(t, AccountTypeChecking.Floor().Equal(decimal.NewFromInt(-500)))
	assert.True(t, AccountTypeChecking.OverdraftLimit().Equal(decimal.NewFromInt(500)))
}

func TestAccount_Withdrawable(t *testing.T) {
	tests := []struct {
		name        string
		accountType AccountType
		balance     int64
		want        int64
	}{
		{name: "savings positive", accountType: AccountTypeSavings, balance: 1000, want: 1000},
		{name: "savings zero", accountType: AccountTypeSavings, balance: 0, want: 0},
		{name: "checking positive", accountType: AccountTypeChecking, balance: 1000, want: 1500},
		{name: "checking overdrawn", accountType: AccountTypeChecking, balance: -400, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := Account{AccountType: tt.accountType, Balance: decimal.NewFromInt(tt.balance)}
			assert.True(t, account.Withdrawable().Equal(decimal.NewFromInt(tt.want)),
				"Withdrawable() = %s, want %d", account.Withdrawable(), tt.want)
		})
	}
}

func TestAccount_IsNew(t *testing.T) {
	assert.True(t, (&Account{}).IsNew())
	assert.False(t, (&Account{ID: uuid.New()}).IsNew())
}

func TestValidateAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{name: "positive", amount: "100.00", wantErr: false},
		{name: "smallest unit", amount: "0.01", wantErr: false},
		{name: "zero", amount: "0", wantErr: true},
		{name: "negative", amount: "-100", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAmount(decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestInsufficientFundsError(t *testing.T) {
	t.Run("savings reports balance", func(t *testing.T) {
		err := NewInsufficientFundsError(&Account{
			AccountType: AccountTypeSavings,
			Balance:     decimal.NewFromInt(1000),
		})

		assert.True(t, errors.Is(err, ErrInsufficientFunds))
		assert.Contains(t, err.Error(), "current balance: 1000")
		assert.NotContains(t, err.Error(), "overdraft limit")
	})

	t.Run("checking reports balance and limit", func(t *testing.T) {
		var err error = NewInsufficientFundsError(&Account{
			AccountType: AccountTypeChecking,
			Balance:     decimal.NewFromInt(1000),
		})

		var fundsErr *InsufficientFundsError
		require.True(t, errors.As(err, &fundsErr))
		assert.True(t, fundsErr.OverdraftLimit.Equal(decimal.NewFromInt(500)))
		assert.Contains(t, err.Error(), "current balance: 1000")
		assert.Contains(t, err.Error(), "overdraft limit: 500")
	})
}
