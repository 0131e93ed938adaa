package models

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// AccountID identifies an account. At most one account per id exists in the store.
type AccountID int64

func (id AccountID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseAccountID parses a base-10 signed account identifier.
func ParseAccountID(s string) (AccountID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return AccountID(v), nil
}

// Account is a snapshot of one account's balance.
type Account struct {
	ID      AccountID       // unique identifier
	Balance decimal.Decimal // current balance, never negative
}
