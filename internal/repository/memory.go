package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/simonkvalheim/hm9-accounts/internal/ledger"
	"github.com/simonkvalheim/hm9-accounts/internal/model"
)

// MemoryAccountRepository keeps accounts in process memory.
// Units of work are serialised and their writes are staged until commit.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	txMu     sync.Mutex
	accounts map[uuid.UUID]model.Account
	now      func() time.Time
}

// NewMemoryAccountRepository creates an empty in-memory store
func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{
		accounts: make(map[uuid.UUID]model.Account),
		now:      time.Now,
	}
}

// Save inserts or updates an account
func (r *MemoryAccountRepository) Save(ctx context.Context, account *model.Account) (*model.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	saved, err := r.prepare(account, nil)
	if err != nil {
		return nil, err
	}
	r.accounts[saved.ID] = *saved
	return saved, nil
}

// prepare stamps an account for storage and checks it against the committed
// accounts plus any staged ones. Callers hold r.mu.
func (r *MemoryAccountRepository) prepare(account *model.Account, staged map[uuid.UUID]*model.Account) (*model.Account, error) {
	saved := *account
	now := r.now()

	if saved.IsNew() {
		if r.numberTaken(saved.AccountNumber, staged) {
			return nil, model.ErrDuplicateAccountNumber
		}
		saved.ID = uuid.New()
		saved.CreatedAt = now
		saved.UpdatedAt = now
		return &saved, nil
	}

	current, ok := r.lookup(saved.ID, staged)
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	// Only the balance is mutable.
	current.Balance = saved.Balance
	current.UpdatedAt = now
	return &current, nil
}

func (r *MemoryAccountRepository) lookup(id uuid.UUID, staged map[uuid.UUID]*model.Account) (model.Account, bool) {
	if s, ok := staged[id]; ok {
		if s == nil {
			return model.Account{}, false
		}
		return *s, true
	}
	account, ok := r.accounts[id]
	return account, ok
}

func (r *MemoryAccountRepository) numberTaken(number string, staged map[uuid.UUID]*model.Account) bool {
	for id, account := range r.accounts {
		if s, ok := staged[id]; ok && s == nil {
			continue
		}
		if account.AccountNumber == number {
			return true
		}
	}
	for _, s := range staged {
		if s != nil && s.AccountNumber == number {
			if _, committed := r.accounts[s.ID]; !committed {
				return true
			}
		}
	}
	return false
}

// FindByID retrieves an account by its ID
func (r *MemoryAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return &account, nil
}

// FindByCustomerID retrieves all accounts owned by a customer
func (r *MemoryAccountRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(a model.Account) bool { return a.CustomerID == customerID }, nil), nil
}

// FindAll retrieves every account
func (r *MemoryAccountRepository) FindAll(ctx context.Context) ([]model.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(model.Account) bool { return true }, nil), nil
}

// filter returns matching accounts, newest first. Callers hold r.mu.
func (r *MemoryAccountRepository) filter(match func(model.Account) bool, staged map[uuid.UUID]*model.Account) []model.Account {
	var accounts []model.Account
	for id, account := range r.accounts {
		if _, ok := staged[id]; ok {
			continue
		}
		if match(account) {
			accounts = append(accounts, account)
		}
	}
	for _, s := range staged {
		if s != nil && match(*s) {
			accounts = append(accounts, *s)
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].AccountNumber < accounts[j].AccountNumber
		}
		return accounts[i].CreatedAt.After(accounts[j].CreatedAt)
	})
	return accounts
}

// Delete removes an account
func (r *MemoryAccountRepository) Delete(ctx context.Context, account *model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.accounts, account.ID)
	return nil
}

// WithinTx runs fn as a serialised unit of work. Writes made through the store
// handed to fn are applied only when fn returns nil.
func (r *MemoryAccountRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, store ledger.AccountStore) error) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	tx := &memoryTx{repo: r, staged: make(map[uuid.UUID]*model.Account)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	return r.commit(tx.staged)
}

func (r *MemoryAccountRepository) commit(staged map[uuid.UUID]*model.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range staged {
		if s == nil {
			continue
		}
		if _, exists := r.accounts[id]; exists {
			continue
		}
		for otherID, account := range r.accounts {
			if otherID != id && account.AccountNumber == s.AccountNumber {
				return model.ErrDuplicateAccountNumber
			}
		}
	}

	for id, s := range staged {
		if s == nil {
			delete(r.accounts, id)
			continue
		}
		r.accounts[id] = *s
	}
	return nil
}

// Ping always succeeds for the in-memory store
func (r *MemoryAccountRepository) Ping(ctx context.Context) error {
	return nil
}

// memoryTx is the store view handed to a unit of work
type memoryTx struct {
	repo   *MemoryAccountRepository
	staged map[uuid.UUID]*model.Account
}

func (t *memoryTx) Save(ctx context.Context, account *model.Account) (*model.Account, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()

	saved, err := t.repo.prepare(account, t.staged)
	if err != nil {
		return nil, err
	}
	staged := *saved
	t.staged[saved.ID] = &staged
	return saved, nil
}

func (t *memoryTx) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()

	account, ok := t.repo.lookup(id, t.staged)
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return &account, nil
}

func (t *memoryTx) FindByCustomerID(ctx context.Context, customerID uuid.UUID) ([]model.Account, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()

	return t.repo.filter(func(a model.Account) bool { return a.CustomerID == customerID }, t.staged), nil
}

func (t *memoryTx) FindAll(ctx context.Context) ([]model.Account, error) {
	t.repo.mu.RLock()
	defer t.repo.mu.RUnlock()

	return t.repo.filter(func(model.Account) bool { return true }, t.staged), nil
}

func (t *memoryTx) Delete(ctx context.Context, account *model.Account) error {
	t.staged[account.ID] = nil
	return nil
}

func (t *memoryTx) WithinTx(ctx context.Context, fn func(ctx context.Context, store ledger.AccountStore) error) error {
	return fn(ctx, t)
}
