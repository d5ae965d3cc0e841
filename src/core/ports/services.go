package ports

import (
	"context"

	"pulljoker/src/core/domain"
)

// ExternalService is the base interface for external service adapters.
type ExternalService interface {
	// Health checks if the external service is reachable.
	Health(ctx context.Context) error
}

// Broadcaster publishes what a command did. It is called once per committed
// command with the events in generated order and the state they produced.
// Implementations decide who may see what; delivery failures are theirs to
// log, the command has already succeeded.
type Broadcaster interface {
	Broadcast(ctx context.Context, state domain.GameState, events []domain.Event)
}

// Broadcasters fans one broadcast out to several publishers in order.
type Broadcasters []Broadcaster

// Broadcast implements Broadcaster.
func (bs Broadcasters) Broadcast(ctx context.Context, state domain.GameState, events []domain.Event) {
	for _, b := range bs {
		b.Broadcast(ctx, state, events)
	}
}
