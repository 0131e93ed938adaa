package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccountID(t *testing.T) {
	id, err := ParseAccountID("-42")
	require.NoError(t, err)
	assert.Equal(t, AccountID(-42), id)
	assert.Equal(t, "-42", id.String())

	for _, bad := range []string{"", "1.5", "0x10", "abc", "99999999999999999999"} {
		_, err := ParseAccountID(bad)
		assert.Error(t, err, bad)
	}
}

func TestOutcomeOf(t *testing.T) {
	tests := []struct {
		err  error
		want Outcome
	}{
		{nil, OutcomeApplied},
		{ErrDuplicateAccount, OutcomeDuplicate},
		{ErrAccountNotFound, OutcomeNotFound},
		{ErrInsufficientFunds, OutcomeInsufficientFunds},
		{ErrSameAccount, OutcomeSameAccount},
		{ErrInvalidAmount, OutcomeInvalid},
		{fmt.Errorf("settle 3: %w", ErrAccountNotFound), OutcomeNotFound},
		{errors.New("boom"), OutcomeInvalid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutcomeOf(tt.err), fmt.Sprint(tt.err))
	}
	assert.Len(t, Outcomes, 6)
}

func TestActionStrings(t *testing.T) {
	var a Action = CreateAccount{AccountID: 1, StartingBalance: decimal.RequireFromString("100.0")}
	assert.Equal(t, KindCreateAccount, a.Kind())
	assert.Equal(t, "create-account(id=1, balance=100)", a.String())

	a = Transfer{FromID: 1, ToID: 2, Amount: decimal.RequireFromString("40.25")}
	assert.Equal(t, KindTransfer, a.Kind())
	assert.Equal(t, "transfer(from=1, to=2, amount=40.25)", a.String())
}

func TestValidateAmount(t *testing.T) {
	valid := []string{"0", "0.00", "100", "100.5", "1e3", "0.000000000000000001", "999999999999999999999999999999", "1e29"}
	for _, raw := range valid {
		assert.NoError(t, ValidateAmount(decimal.RequireFromString(raw)), raw)
	}

	invalid := []string{
		"-1",
		"0.0000000000000000001",
		"1e-19",
		"1e30",
		"1000000000000000000000000000000",
		"1e20000000",
		"1e-20000000",
		"0e5000000",
		"0e-5000000",
	}
	for _, raw := range invalid {
		assert.ErrorIs(t, ValidateAmount(decimal.RequireFromString(raw)), ErrInvalidAmount, raw)
	}
}
