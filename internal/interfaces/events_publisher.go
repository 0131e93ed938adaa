package interfaces

import (
	"context"

	"github.com/sheikh-saqib/epoch-ledger/internal/models/events"
)

// EventPublisher ships settlement outcomes to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, settled []events.ActionSettled) error
	Close() error
}
