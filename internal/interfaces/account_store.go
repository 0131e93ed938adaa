package interfaces

import (
	"github.com/sheikh-saqib/epoch-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// AccountTx is the set of account operations available inside an exclusive
// store section. Implementations must not lock; the enclosing Update holds the lock.
type AccountTx interface {
	CreateAccount(id models.AccountID, startingBalance decimal.Decimal) error
	Balance(id models.AccountID) (decimal.Decimal, error)
	ApplyTransfer(fromID, toID models.AccountID, amount decimal.Decimal) error
}

// AccountStore is the authoritative mapping of account id to balance.
// Every method is safe for concurrent use.
type AccountStore interface {
	AccountTx

	// Update runs fn while holding the store's exclusive lock, so readers
	// observe either none or all of the mutations made by fn.
	Update(fn func(tx AccountTx))

	// Accounts returns a copy of every account ordered by id.
	Accounts() []models.Account
	// Len reports the number of accounts.
	Len() int
	// Total returns the sum of all balances.
	Total() decimal.Decimal
}
