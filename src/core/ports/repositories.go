// Package ports defines interfaces (ports) that connect core domain to infrastructure.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern.
//
// Ports are defined here in the core layer, while implementations (adapters)
// live in src/infra/repo and src/app/ws. This keeps the core free of
// infrastructure imports.
package ports

import (
	"context"

	"pulljoker/src/core/domain"
)

// Repository is the base interface for all repositories.
type Repository interface {
	// Health checks if the underlying storage is reachable.
	Health(ctx context.Context) error
}

// EventStore persists the event stream of each game.
//
// Versions are 1-based and contiguous per aggregate: the n-th event ever
// appended for an aggregate has version n.
type EventStore interface {
	Repository

	// LoadVersion returns the version of the newest stored event, 0 if none.
	LoadVersion(ctx context.Context, aggregateID string) (int, error)

	// LoadHistory returns every stored event in version order.
	// It fails with domain.ErrAggregateNotFound when nothing is stored.
	LoadHistory(ctx context.Context, aggregateID string) ([]domain.Event, error)

	// Append stores events as versions expectedVersion+1 .. expectedVersion+len(events)
	// in one atomic write. If any of those versions already exists it stores
	// nothing and fails with domain.ErrConcurrencyConflict.
	Append(ctx context.Context, aggregateID string, expectedVersion int, events []domain.Event) error

	// Close releases the underlying connections.
	Close() error
}
