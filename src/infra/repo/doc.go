// Package repo implements ports.EventStore.
//
// Three adapters share one contract:
//   - PostgresEventStore: pgx pool, UNIQUE(aggregate_id, version)
//   - SQLiteEventStore: modernc.org/sqlite, PRIMARY KEY(aggregate_id, version)
//   - MemoryEventStore: a mutex-guarded map for tests and throwaway servers
//
// Each store receives its connection via constructor injection:
//
//	store := repo.NewPostgresEventStore(pg, log)
//	version, _ := store.LoadVersion(ctx, gameID)
//	err := store.Append(ctx, gameID, version, events)
//	if errors.Is(err, domain.ErrConcurrencyConflict) {
//	    // someone else appended first; reload and retry
//	}
package repo
