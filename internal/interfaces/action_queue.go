package interfaces

import "github.com/sheikh-saqib/epoch-ledger/internal/models"

// ActionQueue buffers actions between submission and settlement.
type ActionQueue interface {
	Enqueue(action models.Action) error
	// DrainAll removes and returns every queued action in arrival order.
	DrainAll() []models.Action
	Len() int
}
