package models

import "errors"

var (
	ErrDuplicateAccount  = errors.New("account already exists")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSameAccount       = errors.New("transfer between the same account")
	ErrInvalidAmount     = errors.New("amount is negative or out of range")
)

// Outcome is the settlement result of a single action.
type Outcome string

const (
	OutcomeApplied           Outcome = "applied"
	OutcomeDuplicate         Outcome = "duplicate"
	OutcomeNotFound          Outcome = "not-found"
	OutcomeInsufficientFunds Outcome = "insufficient-funds"
	OutcomeSameAccount       Outcome = "same-account"
	OutcomeInvalid           Outcome = "invalid"
)

// Outcomes lists every outcome in a stable order.
var Outcomes = []Outcome{
	OutcomeApplied,
	OutcomeDuplicate,
	OutcomeNotFound,
	OutcomeInsufficientFunds,
	OutcomeSameAccount,
	OutcomeInvalid,
}

// OutcomeOf maps an error returned by an account store operation to its outcome.
// A nil error is applied; unrecognized errors are invalid.
func OutcomeOf(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, ErrDuplicateAccount):
		return OutcomeDuplicate
	case errors.Is(err, ErrAccountNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrInsufficientFunds):
		return OutcomeInsufficientFunds
	case errors.Is(err, ErrSameAccount):
		return OutcomeSameAccount
	default:
		return OutcomeInvalid
	}
}
