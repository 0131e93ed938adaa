package memory

import (
	"sort"
	"sync"

	interfaces "github.com/sheikh-saqib/epoch-ledger/internal/interfaces"
	"github.com/sheikh-saqib/epoch-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryAccountStore is an in-memory implementation of interfaces.AccountStore.
// Balance reads share the lock; creations, transfers and Update take it exclusively.
type MemoryAccountStore struct {
	mu       sync.RWMutex                         // protects balances
	balances map[models.AccountID]decimal.Decimal // account id -> current balance
}

// NewMemoryAccountStore creates an empty store.
func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{
		balances: make(map[models.AccountID]decimal.Decimal), // start with no accounts
	}
}

// CreateAccount inserts a new account. An existing id is left untouched and
// reported with models.ErrDuplicateAccount.
func (m *MemoryAccountStore) CreateAccount(id models.AccountID, startingBalance decimal.Decimal) error {
	m.mu.Lock()         // exclusive: the map is written
	defer m.mu.Unlock() // unlock when the function returns
	return m.tx().CreateAccount(id, startingBalance)
}

// Balance returns the current balance of id or models.ErrAccountNotFound.
func (m *MemoryAccountStore) Balance(id models.AccountID) (decimal.Decimal, error) {
	m.mu.RLock()         // shared: readers wait only while an epoch is applied
	defer m.mu.RUnlock() // release the read lock on return
	return m.tx().Balance(id)
}

// ApplyTransfer moves amount from fromID to toID or changes nothing.
func (m *MemoryAccountStore) ApplyTransfer(fromID, toID models.AccountID, amount decimal.Decimal) error {
	m.mu.Lock()         // exclusive: both balances change together
	defer m.mu.Unlock() // unlock when the function returns
	return m.tx().ApplyTransfer(fromID, toID, amount)
}

// Update runs fn with the exclusive lock held for its whole duration.
func (m *MemoryAccountStore) Update(fn func(tx interfaces.AccountTx)) {
	m.mu.Lock()
	defer m.mu.Unlock() // released even if fn panics
	fn(m.tx())
}

// Accounts returns a copy of all accounts sorted by id.
func (m *MemoryAccountStore) Accounts() []models.Account {
	m.mu.RLock() // copy under the read lock only
	accounts := make([]models.Account, 0, len(m.balances))
	for id, balance := range m.balances {
		accounts = append(accounts, models.Account{ID: id, Balance: balance})
	}
	m.mu.RUnlock() // sorting happens outside the lock

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts
}

// Len reports the number of accounts in the store.
func (m *MemoryAccountStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.balances)
}

// Total returns the sum of every balance in the store.
func (m *MemoryAccountStore) Total() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := decimal.Zero
	for _, balance := range m.balances {
		total = total.Add(balance)
	}
	return total
}

func (m *MemoryAccountStore) tx() memoryTx {
	return memoryTx{balances: m.balances}
}

// memoryTx operates on the balance map directly. The caller holds m.mu.
type memoryTx struct {
	balances map[models.AccountID]decimal.Decimal
}

func (tx memoryTx) CreateAccount(id models.AccountID, startingBalance decimal.Decimal) error {
	if err := models.ValidateAmount(startingBalance); err != nil { // bounded amounts only
		return err
	}
	if _, exists := tx.balances[id]; exists {
		return models.ErrDuplicateAccount // existing balance is kept as is
	}
	tx.balances[id] = startingBalance // new account starts at its opening balance
	return nil
}

func (tx memoryTx) Balance(id models.AccountID) (decimal.Decimal, error) {
	balance, ok := tx.balances[id]
	if !ok {
		return decimal.Zero, models.ErrAccountNotFound
	}
	return balance, nil
}

func (tx memoryTx) ApplyTransfer(fromID, toID models.AccountID, amount decimal.Decimal) error {
	if err := models.ValidateAmount(amount); err != nil { // bounded amounts only
		return err
	}
	if fromID == toID {
		return models.ErrSameAccount // a self transfer would change nothing
	}

	fromBalance, fromExists := tx.balances[fromID]
	toBalance, toExists := tx.balances[toID]
	if !fromExists || !toExists {
		return models.ErrAccountNotFound
	}
	if fromBalance.LessThan(amount) {
		return models.ErrInsufficientFunds // balances never go negative
	}

	// Both sides are written together; no error path exists past this point.
	tx.balances[fromID] = fromBalance.Sub(amount)
	tx.balances[toID] = toBalance.Add(amount)
	return nil
}

// Compile-time check: ensure MemoryAccountStore implements AccountStore interface
var _ interfaces.AccountStore = (*MemoryAccountStore)(nil)
