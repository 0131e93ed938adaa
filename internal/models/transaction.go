package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ActionKind names the variant of an Action.
type ActionKind string

const (
	KindCreateAccount ActionKind = "create-account"
	KindTransfer      ActionKind = "transfer"
)

// Action is a pending intent that is applied to the account store during
// settlement. The set of variants is closed: CreateAccount and Transfer.
type Action interface {
	Kind() ActionKind
	fmt.Stringer

	isAction()
}

// CreateAccount opens AccountID with StartingBalance.
type CreateAccount struct {
	AccountID       AccountID
	StartingBalance decimal.Decimal
}

func (CreateAccount) Kind() ActionKind { return KindCreateAccount }

func (c CreateAccount) String() string {
	return fmt.Sprintf("create-account(id=%s, balance=%s)", c.AccountID, c.StartingBalance)
}

func (CreateAccount) isAction() {}

// Transfer represents an intent to move Amount from FromID to ToID.
type Transfer struct {
	FromID AccountID
	ToID   AccountID
	Amount decimal.Decimal
}

func (Transfer) Kind() ActionKind { return KindTransfer }

func (t Transfer) String() string {
	return fmt.Sprintf("transfer(from=%s, to=%s, amount=%s)", t.FromID, t.ToID, t.Amount)
}

func (Transfer) isAction() {}
