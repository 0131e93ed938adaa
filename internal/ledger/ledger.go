package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	interfaces "github.com/sheikh-saqib/epoch-ledger/internal/interfaces"
	"github.com/sheikh-saqib/epoch-ledger/internal/logging"
	"github.com/sheikh-saqib/epoch-ledger/internal/metrics"
	"github.com/sheikh-saqib/epoch-ledger/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultInterval is the settlement period used when none is configured.
const DefaultInterval = 10 * time.Second

// Ledger buffers submitted actions and applies them to the account store once
// per settlement epoch. The queue and the store are each guarded by their own
// lock; Ledger itself never holds either across I/O.
type Ledger struct {
	queue     interfaces.ActionQueue
	store     interfaces.AccountStore
	publisher interfaces.EventPublisher // optional
	interval  time.Duration
	log       *logging.Logger
	now       func() time.Time

	settleMu sync.Mutex // serializes epochs
	epoch    uint64     // guarded by settleMu
	state    atomic.Int32

	mu      sync.Mutex // guards the run loop fields below
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithInterval sets the settlement period.
func WithInterval(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithPublisher ships every epoch's outcomes to p after the epoch is applied.
func WithPublisher(p interfaces.EventPublisher) Option {
	return func(l *Ledger) { l.publisher = p }
}

// WithLogger sets the logger used for settlement output.
func WithLogger(log *logging.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger wires a ledger around an explicitly owned queue and store.
func NewLedger(queue interfaces.ActionQueue, store interfaces.AccountStore, opts ...Option) *Ledger {
	l := &Ledger{
		queue:    queue,
		store:    store,
		interval: DefaultInterval,
		log:      logging.NewDefault("settlement"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.state.Store(int32(StateIdle))
	return l
}

// Interval reports the settlement period.
func (l *Ledger) Interval() time.Duration {
	return l.interval
}

// SubmitCreateAccount queues an account creation. Acceptance is not
// confirmation: a duplicate id is only detected at settlement.
func (l *Ledger) SubmitCreateAccount(id models.AccountID, startingBalance decimal.Decimal) error {
	if err := models.ValidateAmount(startingBalance); err != nil {
		return err
	}
	return l.submit(models.CreateAccount{AccountID: id, StartingBalance: startingBalance})
}

// SubmitTransfer queues a transfer. Funds are not checked here; an accepted
// transfer can still fail at settlement.
func (l *Ledger) SubmitTransfer(fromID, toID models.AccountID, amount decimal.Decimal) error {
	if err := models.ValidateAmount(amount); err != nil {
		return err
	}
	return l.submit(models.Transfer{FromID: fromID, ToID: toID, Amount: amount})
}

func (l *Ledger) submit(action models.Action) error {
	if err := l.queue.Enqueue(action); err != nil {
		return err
	}
	metrics.SetPending(l.queue.Len())
	return nil
}

// Balance reads the settled balance of id. Pending actions are never visible.
func (l *Ledger) Balance(id models.AccountID) (decimal.Decimal, error) {
	return l.store.Balance(id)
}

// Pending reports how many actions wait for the next epoch.
func (l *Ledger) Pending() int {
	return l.queue.Len()
}

// State reports the worker's current phase.
func (l *Ledger) State() State {
	return State(l.state.Load())
}

func (l *Ledger) setState(s State) {
	l.state.Store(int32(s))
}

// IsInvalid reports whether err is a submission validation failure.
func IsInvalid(err error) bool {
	return errors.Is(err, models.ErrInvalidAmount)
}
