// Package domain contains the pull-the-joker game model.
//
// This package defines:
//   - Value objects: Card, Hand, PlayerRef
//   - Events: the closed set of payloads a game can record (RoomCreated ... GameEnded)
//   - Aggregate: the generic apply/replay machinery with invariant checks
//   - Game: the aggregate that validates commands and emits events
//   - Domain errors: rule violations, lookups, concurrency and invariant failures
//
// State only changes by folding events. A command runs against a working
// copy of the state and either commits every event it produced or none:
//
//	g, err := domain.RehydrateGame(history)
//	if err != nil {
//	    return err
//	}
//	if err := g.DrawCard(fromID, toID, 3); err != nil {
//	    return err
//	}
//	store.Append(ctx, g.ID(), version, g.PendingEvents())
//
// Rules for this package:
//   - No infrastructure concerns (database, HTTP, sockets)
//   - Randomness and time are injected through GameOption
package domain
