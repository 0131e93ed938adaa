package memory

import (
	"sync"
	"testing"

	interfaces "github.com/sheikh-saqib/epoch-ledger/internal/interfaces"
	"github.com/sheikh-saqib/epoch-ledger/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCreateAccount(t *testing.T) {
	store := NewMemoryAccountStore()

	require.NoError(t, store.CreateAccount(5, dec("10")))

	balance, err := store.Balance(5)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("10")))
}

func TestCreateAccount_DuplicateIsNotOverwritten(t *testing.T) {
	store := NewMemoryAccountStore()
	require.NoError(t, store.CreateAccount(5, dec("10")))

	err := store.CreateAccount(5, dec("999"))
	assert.ErrorIs(t, err, models.ErrDuplicateAccount)

	balance, err := store.Balance(5)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("10")), "duplicate create must not reset balance, got %s", balance)
	assert.Len(t, store.Accounts(), 1)
}

func TestCreateAccount_NegativeBalance(t *testing.T) {
	store := NewMemoryAccountStore()

	assert.ErrorIs(t, store.CreateAccount(1, dec("-1")), models.ErrInvalidAmount)
	_, err := store.Balance(1)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestBalance_NotFound(t *testing.T) {
	store := NewMemoryAccountStore()

	_, err := store.Balance(42)
	assert.ErrorIs(t, err, models.ErrAccountNotFound)
}

func TestApplyTransfer(t *testing.T) {
	tests := []struct {
		name     string
		from, to models.AccountID
		amount   string
		wantErr  error
		wantFrom string
		wantTo   string
	}{
		{name: "success", from: 1, to: 2, amount: "40", wantFrom: "60", wantTo: "40"},
		{name: "entire balance", from: 1, to: 2, amount: "100", wantFrom: "0", wantTo: "100"},
		{name: "zero amount", from: 1, to: 2, amount: "0", wantFrom: "100", wantTo: "0"},
		{name: "insufficient funds", from: 1, to: 2, amount: "100.01", wantErr: models.ErrInsufficientFunds, wantFrom: "100", wantTo: "0"},
		{name: "same account", from: 1, to: 1, amount: "1", wantErr: models.ErrSameAccount, wantFrom: "100", wantTo: "0"},
		{name: "missing destination", from: 1, to: 3, amount: "1", wantErr: models.ErrAccountNotFound, wantFrom: "100", wantTo: "0"},
		{name: "missing source", from: 3, to: 2, amount: "1", wantErr: models.ErrAccountNotFound, wantFrom: "100", wantTo: "0"},
		{name: "negative amount", from: 1, to: 2, amount: "-5", wantErr: models.ErrInvalidAmount, wantFrom: "100", wantTo: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryAccountStore()
			require.NoError(t, store.CreateAccount(1, dec("100")))
			require.NoError(t, store.CreateAccount(2, dec("0")))

			err := store.ApplyTransfer(tt.from, tt.to, dec(tt.amount))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			from, err := store.Balance(1)
			require.NoError(t, err)
			to, err := store.Balance(2)
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, from.String())
			assert.Equal(t, tt.wantTo, to.String())
			assert.True(t, store.Total().Equal(dec("100")), "total must be conserved")
		})
	}
}

func TestUpdate_ReadersSeeWholeBatch(t *testing.T) {
	store := NewMemoryAccountStore()
	require.NoError(t, store.CreateAccount(1, dec("100")))
	require.NoError(t, store.CreateAccount(2, dec("0")))

	stop := make(chan struct{})
	var wg sync.WaitGroup
	var torn []string
	var mu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			b, err := store.Balance(1)
			if err != nil {
				continue
			}
			// A batch moves 10 in ten steps of 1, so a reader only ever sees multiples of 10.
			if !b.Mod(dec("10")).IsZero() {
				mu.Lock()
				torn = append(torn, b.String())
				mu.Unlock()
			}
		}
	}()

	for i := 0; i < 50; i++ {
		store.Update(func(tx interfaces.AccountTx) {
			for j := 0; j < 10; j++ {
				_ = tx.ApplyTransfer(1, 2, dec("1"))
			}
		})
		store.Update(func(tx interfaces.AccountTx) {
			for j := 0; j < 10; j++ {
				_ = tx.ApplyTransfer(2, 1, dec("1"))
			}
		})
	}
	close(stop)
	wg.Wait()

	assert.Empty(t, torn, "reader observed a partially applied batch")
}

func TestUpdate_ReleasesLockOnPanic(t *testing.T) {
	store := NewMemoryAccountStore()

	assert.Panics(t, func() {
		store.Update(func(tx interfaces.AccountTx) {
			panic("boom")
		})
	})

	require.NoError(t, store.CreateAccount(1, dec("1")))
}

func TestConcurrentTransfersNeverGoNegative(t *testing.T) {
	store := NewMemoryAccountStore()
	for id := models.AccountID(1); id <= 4; id++ {
		require.NoError(t, store.CreateAccount(id, dec("25")))
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				from := models.AccountID((w+i)%4 + 1)
				to := models.AccountID((w+i+1)%4 + 1)
				_ = store.ApplyTransfer(from, to, dec("7.5"))
			}
		}(w)
	}
	wg.Wait()

	for _, acct := range store.Accounts() {
		assert.False(t, acct.Balance.IsNegative(), "account %d went negative: %s", acct.ID, acct.Balance)
	}
	assert.True(t, store.Total().Equal(dec("100")))
}

func TestAccounts_SortedCopy(t *testing.T) {
	store := NewMemoryAccountStore()
	require.NoError(t, store.CreateAccount(3, dec("3")))
	require.NoError(t, store.CreateAccount(-1, dec("1")))
	require.NoError(t, store.CreateAccount(2, dec("2")))

	accounts := store.Accounts()
	require.Len(t, accounts, 3)
	assert.Equal(t, models.AccountID(-1), accounts[0].ID)
	assert.Equal(t, models.AccountID(2), accounts[1].ID)
	assert.Equal(t, models.AccountID(3), accounts[2].ID)

	accounts[0].Balance = dec("1000")
	b, err := store.Balance(-1)
	require.NoError(t, err)
	assert.True(t, b.Equal(dec("1")))
}

func TestOutOfRangeAmountsNeverApplied(t *testing.T) {
	store := NewMemoryAccountStore()
	require.NoError(t, store.CreateAccount(1, decimal.NewFromInt(100)))
	require.NoError(t, store.CreateAccount(2, decimal.Zero))

	huge := decimal.RequireFromString("1e20000000")
	tiny := decimal.RequireFromString("1e-20000000")

	assert.ErrorIs(t, store.CreateAccount(3, huge), models.ErrInvalidAmount)
	assert.ErrorIs(t, store.CreateAccount(4, tiny), models.ErrInvalidAmount)
	assert.ErrorIs(t, store.ApplyTransfer(1, 2, tiny), models.ErrInvalidAmount)
	assert.ErrorIs(t, store.ApplyTransfer(1, 2, huge), models.ErrInvalidAmount)

	assert.Equal(t, 2, store.Len())
	assert.Equal(t, "100", store.Total().String())
}
