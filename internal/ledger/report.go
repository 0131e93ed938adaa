package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/sheikh-saqib/epoch-ledger/internal/models"
	"github.com/sheikh-saqib/epoch-ledger/internal/models/events"
)

// ActionResult is the outcome of one drained action.
type ActionResult struct {
	Sequence int // position within the epoch
	Action   models.Action
	Outcome  models.Outcome
	Err      error
}

// EpochReport describes one settlement epoch.
type EpochReport struct {
	ID         uuid.UUID
	Epoch      uint64
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []ActionResult
}

// Count returns how many actions ended with outcome.
func (r EpochReport) Count(outcome models.Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

func (r EpochReport) outcomeCounts() map[string]map[string]int {
	counts := make(map[string]map[string]int)
	for _, res := range r.Results {
		kind := string(res.Action.Kind())
		if counts[kind] == nil {
			counts[kind] = make(map[string]int)
		}
		counts[kind][string(res.Outcome)]++
	}
	return counts
}

// Events converts the report into one ActionSettled event per result.
func (r EpochReport) Events() []events.ActionSettled {
	out := make([]events.ActionSettled, 0, len(r.Results))
	for _, res := range r.Results {
		ev := events.ActionSettled{
			EpochID:   r.ID.String(),
			Epoch:     r.Epoch,
			Sequence:  res.Sequence,
			Kind:      string(res.Action.Kind()),
			Outcome:   string(res.Outcome),
			SettledAt: r.FinishedAt,
		}
		if res.Err != nil {
			ev.Error = res.Err.Error()
		}

		switch a := res.Action.(type) {
		case models.CreateAccount:
			id := int64(a.AccountID)
			ev.AccountID = &id
			ev.Amount = a.StartingBalance
		case models.Transfer:
			from, to := int64(a.FromID), int64(a.ToID)
			ev.FromID = &from
			ev.ToID = &to
			ev.Amount = a.Amount
		}
		out = append(out, ev)
	}
	return out
}
