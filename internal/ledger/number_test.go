package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/simonkvalheim/hm9-accounts/internal/model"
)

func TestNewAccountNumber_Format(t *testing.T) {
	for i := 0; i < 1000; i++ {
		number := NewAccountNumber()
		if !IsAccountNumber(number) {
			t.Fatalf("NewAccountNumber() = %q, want 10 digits", number)
		}
	}
}

func TestNewAccountNumber_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 10000; i++ {
		number := NewAccountNumber()
		if _, dup := seen[number]; dup {
			t.Fatalf("NewAccountNumber() repeated %q after %d numbers", number, i)
		}
		seen[number] = struct{}{}
	}
}

func TestIsAccountNumber(t *testing.T) {
	tests := []struct {
		name   string
		number string
		want   bool
	}{
		{name: "ten digits", number: "0123456789", want: true},
		{name: "all zeros", number: "0000000000", want: true},
		{name: "too short", number: "123456789", want: false},
		{name: "too long", number: "12345678901", want: false},
		{name: "letters", number: "01234abcde", want: false},
		{name: "empty", number: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAccountNumber(tt.number))
		})
	}
}

func TestBalanceAfterWithdrawal(t *testing.T) {
	tests := []struct {
		name        string
		accountType model.AccountType
		balance     string
		amount      string
		want        string
		wantErr     bool
	}{
		{name: "savings exact", accountType: model.AccountTypeSavings, balance: "100.00", amount: "100.00", want: "0"},
		{name: "savings short by a cent", accountType: model.AccountTypeSavings, balance: "99.99", amount: "100.00", want: "99.99", wantErr: true},
		{name: "checking into overdraft", accountType: model.AccountTypeChecking, balance: "0", amount: "499.99", want: "-499.99"},
		{name: "checking at floor", accountType: model.AccountTypeChecking, balance: "0", amount: "500", want: "-500"},
		{name: "checking past floor", accountType: model.AccountTypeChecking, balance: "0", amount: "500.01", want: "0", wantErr: true},
		{name: "overdrawn checking to floor", accountType: model.AccountTypeChecking, balance: "-400", amount: "100", want: "-500"},
		{name: "overdrawn checking past floor", accountType: model.AccountTypeChecking, balance: "-400", amount: "100.01", want: "-400", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &model.Account{
				AccountType: tt.accountType,
				Balance:     decimal.RequireFromString(tt.balance),
			}

			got, err := balanceAfterWithdrawal(account, decimal.RequireFromString(tt.amount))
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInsufficientFunds)
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}
