package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActionSettled is emitted once for every action consumed by a settlement epoch,
// whatever its outcome.
type ActionSettled struct {
	EpochID   string          `json:"epoch_id"`
	Epoch     uint64          `json:"epoch"`
	Sequence  int             `json:"sequence"`
	Kind      string          `json:"kind"`
	AccountID *int64          `json:"account_id,omitempty"`
	FromID    *int64          `json:"from_id,omitempty"`
	ToID      *int64          `json:"to_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Outcome   string          `json:"outcome"`
	Error     string          `json:"error,omitempty"`
	SettledAt time.Time       `json:"settled_at"`
}
