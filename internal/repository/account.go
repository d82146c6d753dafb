package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/simonkvalheim/hm9-accounts/internal/ledger"
	"github.com/simonkvalheim/hm9-accounts/internal/model"
)

const accountNumberConstraint = "accounts_account_number_key"

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository handles database operations for accounts
type AccountRepository struct {
	pool *pgxpool.Pool
	db   DBTX
	inTx bool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool, db: pool}
}

// Save inserts a new account or updates the balance of an existing one
func (r *AccountRepository) Save(ctx context.Context, account *model.Account) (*model.Account, error) {
	if account.IsNew() {
		return r.insert(ctx, account)
	}
	return r.update(ctx, account)
}

func (r *AccountRepository) insert(ctx context.Context, account *model.Account) (*model.Account, error) {
	query := `
		INSERT INTO accounts (id, account_number, balance, account_type, customer_id)
		VALUES ($1, $2, $3::numeric, $4, $5)
		RETURNING id, account_number, balance::text, account_type, customer_id, created_at, updated_at
	`

	saved, err := scanAccount(r.db.QueryRow(ctx, query,
		uuid.New(),
		account.AccountNumber,
		account.Balance.String(),
		account.AccountType,
		account.CustomerID,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == accountNumberConstraint {
			return nil, model.ErrDuplicateAccountNumber
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return saved, nil
}

func (r *AccountRepository) update(ctx context.Context, account *model.Account) (*model.Account, error) {
	query := `
		UPDATE accounts
		SET balance = $2::numeric, updated_at = NOW()
		WHERE id = $1
		RETURNING id, account_number, balance::text, account_type, customer_id, created_at, updated_at
	`

	saved, err := scanAccount(r.db.QueryRow(ctx, query, account.ID, account.Balance.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	return saved, nil
}

// FindByID retrieves an account by its ID.
// Inside a unit of work the row is locked until the transaction ends.
func (r *AccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `
		SELECT id, account_number, balance::text, account_type, customer_id, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`
	if r.inTx {
		query += " FOR UPDATE"
	}

	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return account, nil
}

// FindByCustomerID retrieves all accounts owned by a customer
func (r *AccountRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]model.Account, error) {
	query := `
		SELECT id, account_number, balance::text, account_type, customer_id, created_at, updated_at
		FROM accounts
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for customer: %w", err)
	}
	return collectAccounts(rows)
}

// FindAll retrieves every account
func (r *AccountRepository) FindAll(ctx context.Context) ([]model.Account, error) {
	query := `
		SELECT id, account_number, balance::text, account_type, customer_id, created_at, updated_at
		FROM accounts
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return collectAccounts(rows)
}

// Delete removes an account
func (r *AccountRepository) Delete(ctx context.Context, account *model.Account) error {
	_, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, account.ID)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// WithinTx runs fn inside a database transaction.
// Nested calls reuse the outer transaction.
func (r *AccountRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, store ledger.AccountStore) error) error {
	if r.inTx {
		return fn(ctx, r)
	}

	dbTx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer dbTx.Rollback(ctx)

	txRepo := &AccountRepository{pool: r.pool, db: dbTx, inTx: true}
	if err := fn(ctx, txRepo); err != nil {
		return err
	}

	if err := dbTx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Ping checks database connectivity
func (r *AccountRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var (
		account model.Account
		balance string
	)

	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&balance,
		&account.AccountType,
		&account.CustomerID,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.Balance, err = decimal.NewFromString(balance)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance %q: %w", balance, err)
	}

	return &account, nil
}

func collectAccounts(rows pgx.Rows) ([]model.Account, error) {
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}
