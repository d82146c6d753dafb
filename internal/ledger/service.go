// Package ledger holds the account domain: creation against the customer
// directory, and the deposit/withdraw balance rules for each account type.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/hm9-accounts/internal/model"
)

// maxNumberAttempts bounds how many fresh account numbers CreateAccount tries
// when the store reports a collision.
const maxNumberAttempts = 5

// CustomerDirectory answers whether a customer exists
type CustomerDirectory interface {
	Exists(ctx context.Context, customerID uuid.UUID) (bool, error)
}

// AccountStore persists accounts.
// FindByID returns model.ErrAccountNotFound when no account has the given ID.
// Save inserts when the account has no ID yet and updates otherwise; an insert
// that reuses an account number fails with model.ErrDuplicateAccountNumber.
type AccountStore interface {
	Save(ctx context.Context, account *model.Account) (*model.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]model.Account, error)
	FindAll(ctx context.Context) ([]model.Account, error)
	Delete(ctx context.Context, account *model.Account) error

	// WithinTx runs fn as one unit of work. The store passed to fn is bound to
	// that unit; its writes are committed only if fn returns nil.
	WithinTx(ctx context.Context, fn func(ctx context.Context, store AccountStore) error) error
}

// Service implements the account operations
type Service struct {
	store     AccountStore
	customers CustomerDirectory
	newNumber func() string
	logger    *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithNumberGenerator replaces the default account number generator
func WithNumberGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newNumber = gen
	}
}

// WithLogger sets the logger used by the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new Service
func NewService(store AccountStore, customers CustomerDirectory, opts ...Option) *Service {
	s := &Service{
		store:     store,
		customers: customers,
		newNumber: NewAccountNumber,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAccount opens a new account for an existing customer.
// The account always starts at a zero balance with a system-assigned number.
func (s *Service) CreateAccount(ctx context.Context, req model.CreateAccountRequest) (*model.Account, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.customers.Exists(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to check customer %s: %w", req.CustomerID, err)
	}
	if !exists {
		return nil, model.ErrInvalidCustomer
	}

	for attempt := 1; attempt <= maxNumberAttempts; attempt++ {
		account := &model.Account{
			AccountNumber: s.newNumber(),
			Balance:       decimal.Zero,
			AccountType:   req.AccountType,
			CustomerID:    req.CustomerID,
		}

		var created *model.Account
		err := s.store.WithinTx(ctx, func(ctx context.Context, store AccountStore) error {
			var err error
			created, err = store.Save(ctx, account)
			return err
		})
		if err == nil {
			s.logger.Info("account created",
				slog.String("account_id", created.ID.String()),
				slog.String("account_type", string(created.AccountType)),
				slog.String("customer_id", created.CustomerID.String()))
			return created, nil
		}
		if !errors.Is(err, model.ErrDuplicateAccountNumber) {
			return nil, err
		}

		s.logger.Warn("account number collision, retrying",
			slog.String("account_number", account.AccountNumber),
			slog.Int("attempt", attempt))
	}

	return nil, fmt.Errorf("failed to allocate account number after %d attempts: %w",
		maxNumberAttempts, model.ErrDuplicateAccountNumber)
}

// ListAccounts returns every account in the store
func (s *Service) ListAccounts(ctx context.Context) ([]model.Account, error) {
	accounts, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

// ListAccountsByCustomer returns the accounts owned by a customer
func (s *Service) ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]model.Account, error) {
	accounts, err := s.store.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

// GetAccount returns a single account
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return s.store.FindByID(ctx, id)
}

// Deposit adds amount to the account balance
func (s *Service) Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error) {
	if err := model.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var updated *model.Account
	err := s.store.WithinTx(ctx, func(ctx context.Context, store AccountStore) error {
		account, err := store.FindByID(ctx, id)
		if err != nil {
			return err
		}

		account.Balance = account.Balance.Add(amount)

		updated, err = store.Save(ctx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Withdraw removes amount from the account balance, respecting the overdraft
// floor of the account type
func (s *Service) Withdraw(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*model.Account, error) {
	if err := model.ValidateAmount(amount); err != nil {
		return nil, err
	}

	var updated *model.Account
	err := s.store.WithinTx(ctx, func(ctx context.Context, store AccountStore) error {
		account, err := store.FindByID(ctx, id)
		if err != nil {
			return err
		}

		newBalance, err := balanceAfterWithdrawal(account, amount)
		if err != nil {
			s.logger.Info("withdrawal rejected",
				slog.String("account_id", account.ID.String()),
				slog.String("balance", account.Balance.String()),
				slog.String("amount", amount.String()))
			return err
		}
		account.Balance = newBalance

		updated, err = store.Save(ctx, account)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteAccount removes an account regardless of its balance
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, store AccountStore) error {
		account, err := store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		return store.Delete(ctx, account)
	})
	if err != nil {
		return err
	}

	s.logger.Info("account deleted", slog.String("account_id", id.String()))
	return nil
}

// balanceAfterWithdrawal computes the new balance, or an InsufficientFundsError
// when the result would fall below the account type's floor
func balanceAfterWithdrawal(account *model.Account, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.GreaterThan(account.Withdrawable()) {
		return account.Balance, model.NewInsufficientFundsError(account)
	}
	return account.Balance.Sub(amount), nil
}
