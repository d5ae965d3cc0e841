package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"pulljoker/src/core/domain"
	"pulljoker/src/core/ports"
	"pulljoker/src/infra/config"
	"pulljoker/src/infra/db"
	"pulljoker/src/infra/logger"
)

var testNow = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 123_000_000, time.UTC) }

// roomEvents returns the events of a room with the given players joined.
func roomEvents(t *testing.T, id string, players ...string) []domain.Event {
	t.Helper()
	g, err := domain.NewGame(id, domain.WithClock(testNow))
	require.NoError(t, err)
	for _, p := range players {
		require.NoError(t, g.JoinRoom(p, "name-"+p))
	}
	return g.PendingEvents()
}

func joinEvent(id, player string) domain.Event {
	return domain.NewEvent(domain.PlayerJoinedRoom{
		GameID: id,
		Player: domain.PlayerRef{ID: player, Name: player},
	}, testNow())
}

func runEventStoreContract(t *testing.T, newStore func(t *testing.T) ports.EventStore) {
	ctx := context.Background()

	t.Run("empty stream", func(t *testing.T) {
		store := newStore(t)
		v, err := store.LoadVersion(ctx, "nope")
		require.NoError(t, err)
		assert.Zero(t, v)

		_, err = store.LoadHistory(ctx, "nope")
		require.ErrorIs(t, err, domain.ErrAggregateNotFound)
	})

	t.Run("append and load", func(t *testing.T) {
		store := newStore(t)
		events := roomEvents(t, "g1", "A", "B")

		require.NoError(t, store.Append(ctx, "g1", 0, events))

		v, err := store.LoadVersion(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, 3, v)

		history, err := store.LoadHistory(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, events, history)

		g, err := domain.RehydrateGame(history)
		require.NoError(t, err)
		assert.Len(t, g.State().Players, 2)
	})

	t.Run("stale version conflicts and stores nothing", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Append(ctx, "g1", 0, roomEvents(t, "g1", "A")))

		err := store.Append(ctx, "g1", 1, []domain.Event{joinEvent("g1", "B"), joinEvent("g1", "C")})
		require.ErrorIs(t, err, domain.ErrConcurrencyConflict)
		assert.True(t, domain.IsRetryable(err))

		v, err := store.LoadVersion(ctx, "g1")
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	})

	t.Run("version gap is rejected", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Append(ctx, "g1", 0, roomEvents(t, "g1")))

		err := store.Append(ctx, "g1", 5, []domain.Event{joinEvent("g1", "B")})
		require.ErrorIs(t, err, domain.ErrInvariantViolation)
	})

	t.Run("streams are independent", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Append(ctx, "g1", 0, roomEvents(t, "g1", "A")))
		require.NoError(t, store.Append(ctx, "g2", 0, roomEvents(t, "g2")))

		v1, err := store.LoadVersion(ctx, "g1")
		require.NoError(t, err)
		v2, err := store.LoadVersion(ctx, "g2")
		require.NoError(t, err)
		assert.Equal(t, 2, v1)
		assert.Equal(t, 1, v2)
	})

	t.Run("concurrent appends at the same version", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Append(ctx, "g1", 0, roomEvents(t, "g1")))

		var won, lost atomic.Int32
		var eg errgroup.Group
		for i := range 8 {
			eg.Go(func() error {
				err := store.Append(ctx, "g1", 1, []domain.Event{joinEvent("g1", fmt.Sprintf("P%d", i))})
				switch {
				case err == nil:
					won.Add(1)
				case errors.Is(err, domain.ErrConcurrencyConflict):
					lost.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		require.NoError(t, eg.Wait())
		assert.EqualValues(t, 1, won.Load())
		assert.EqualValues(t, 7, lost.Load())

		history, err := store.LoadHistory(ctx, "g1")
		require.NoError(t, err)
		assert.Len(t, history, 2)
	})
}

func TestMemoryEventStore(t *testing.T) {
	runEventStoreContract(t, func(t *testing.T) ports.EventStore {
		return NewMemoryEventStore()
	})
}

func TestSQLiteEventStore(t *testing.T) {
	runEventStoreContract(t, func(t *testing.T) ports.EventStore {
		log := logger.Discard()
		sqlite, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "events.db"), log)
		require.NoError(t, err)
		store := NewSQLiteEventStore(sqlite, log)
		t.Cleanup(func() { _ = store.Close() })
		return store
	})
}

func TestSQLiteEventStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	log := logger.Discard()
	path := filepath.Join(t.TempDir(), "events.db")

	first, err := db.OpenSQLite(ctx, path, log)
	require.NoError(t, err)
	events := roomEvents(t, "g1", "A", "B", "C")
	require.NoError(t, NewSQLiteEventStore(first, log).Append(ctx, "g1", 0, events))
	require.NoError(t, first.Close())

	second, err := db.OpenSQLite(ctx, path, log)
	require.NoError(t, err)
	store := NewSQLiteEventStore(second, log)
	defer store.Close()

	history, err := store.LoadHistory(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, events, history)
}

// TestPostgresEventStore runs against a real server when APP_TEST_POSTGRES=1.
// Each run uses fresh aggregate ids, so the table may be shared.
func TestPostgresEventStore(t *testing.T) {
	if os.Getenv("APP_TEST_POSTGRES") != "1" {
		t.Skip("set APP_TEST_POSTGRES=1 and APP_DB_* to run")
	}
	cfg, err := config.Load()
	require.NoError(t, err)

	log := logger.Discard()
	pg, err := db.New(context.Background(), cfg.Database, log)
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	store := NewPostgresEventStore(pg, log)
	prefix := fmt.Sprintf("test-%d", time.Now().UnixNano())
	runEventStoreContract(t, func(t *testing.T) ports.EventStore {
		return &prefixedStore{EventStore: store, prefix: prefix + "-" + t.Name()}
	})
}

// prefixedStore namespaces aggregate ids so contract runs do not collide.
type prefixedStore struct {
	ports.EventStore
	prefix string
}

func (p *prefixedStore) LoadVersion(ctx context.Context, id string) (int, error) {
	return p.EventStore.LoadVersion(ctx, p.prefix+id)
}

func (p *prefixedStore) LoadHistory(ctx context.Context, id string) ([]domain.Event, error) {
	return p.EventStore.LoadHistory(ctx, p.prefix+id)
}

func (p *prefixedStore) Append(ctx context.Context, id string, v int, events []domain.Event) error {
	return p.EventStore.Append(ctx, p.prefix+id, v, events)
}
