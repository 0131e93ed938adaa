package httpapi

import (
	"errors"
	"net/url"
	"strings"

	"github.com/sheikh-saqib/epoch-ledger/internal/models"
	"github.com/shopspring/decimal"
)

var errInvalidParams = errors.New("invalid parameters")

type createAccountParams struct {
	AccountID       models.AccountID
	StartingBalance decimal.Decimal
}

type transferParams struct {
	FromID models.AccountID
	ToID   models.AccountID
	Amount decimal.Decimal
}

type balanceParams struct {
	AccountID models.AccountID
}

func parseCreateAccount(q url.Values) (createAccountParams, error) {
	id, err := accountIDParam(q, "acct_id")
	if err != nil {
		return createAccountParams{}, err
	}
	balance, err := amountParam(q, "balance_0")
	if err != nil {
		return createAccountParams{}, err
	}
	return createAccountParams{AccountID: id, StartingBalance: balance}, nil
}

func parseTransfer(q url.Values) (transferParams, error) {
	from, err := accountIDParam(q, "from_id")
	if err != nil {
		return transferParams{}, err
	}
	to, err := accountIDParam(q, "to_id")
	if err != nil {
		return transferParams{}, err
	}
	amount, err := amountParam(q, "amount")
	if err != nil {
		return transferParams{}, err
	}
	return transferParams{FromID: from, ToID: to, Amount: amount}, nil
}

func parseBalance(q url.Values) (balanceParams, error) {
	id, err := accountIDParam(q, "acct_id")
	if err != nil {
		return balanceParams{}, err
	}
	return balanceParams{AccountID: id}, nil
}

func accountIDParam(q url.Values, key string) (models.AccountID, error) {
	raw, ok := param(q, key)
	if !ok {
		return 0, errInvalidParams
	}
	id, err := models.ParseAccountID(raw)
	if err != nil {
		return 0, errInvalidParams
	}
	return id, nil
}

// amountParam accepts a non-negative decimal, including exponent form, within
// the precision and magnitude bounds of models.ValidateAmount.
func amountParam(q url.Values, key string) (decimal.Decimal, error) {
	raw, ok := param(q, key)
	if !ok {
		return decimal.Zero, errInvalidParams
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil || models.ValidateAmount(amount) != nil {
		return decimal.Zero, errInvalidParams
	}
	return amount, nil
}

func param(q url.Values, key string) (string, bool) {
	values, ok := q[key]
	if !ok || len(values) != 1 {
		return "", false
	}
	v := strings.TrimSpace(values[0])
	return v, v != ""
}
