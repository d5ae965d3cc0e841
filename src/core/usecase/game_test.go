package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"pulljoker/src/core/domain"
	"pulljoker/src/core/ports"
	"pulljoker/src/infra/logger"
	"pulljoker/src/infra/repo"
)

type broadcast struct {
	state  domain.GameState
	events []domain.Event
}

type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []broadcast
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, state domain.GameState, events []domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, broadcast{state: state, events: events})
}

func (r *recordingBroadcaster) last(t *testing.T) broadcast {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

func (r *recordingBroadcaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// racingStore lets another writer win the next races appends.
type racingStore struct {
	ports.EventStore
	races   int
	appends int
}

func (s *racingStore) Append(ctx context.Context, id string, expected int, events []domain.Event) error {
	s.appends++
	if s.races > 0 {
		s.races--
		rival := domain.NewEvent(domain.PlayerJoinedRoom{
			GameID: id,
			Player: domain.PlayerRef{ID: fmt.Sprintf("rival-%d", s.races), Name: "rival"},
		}, time.Now())
		if err := s.EventStore.Append(ctx, id, expected, []domain.Event{rival}); err != nil {
			return err
		}
	}
	return s.EventStore.Append(ctx, id, expected, events)
}

type brokenStore struct {
	ports.EventStore
	appends int
}

func (s *brokenStore) Append(context.Context, string, int, []domain.Event) error {
	s.appends++
	return errors.New("disk on fire")
}

var fastRetry = RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}

func newService(t *testing.T, store ports.EventStore, opts ...GameServiceOption) (*GameService, *recordingBroadcaster) {
	t.Helper()
	rec := &recordingBroadcaster{}
	opts = append([]GameServiceOption{
		WithRetryPolicy(fastRetry),
		WithGameOptions(domain.WithRandomizer(rand.New(rand.NewPCG(7, 7)))),
	}, opts...)
	return NewGameService(store, rec, logger.Discard(), opts...), rec
}

func TestCreateRoom(t *testing.T) {
	store := repo.NewMemoryEventStore()
	svc, rec := newService(t, store, WithIDGenerator(func() string { return "room-1" }))
	ctx := context.Background()

	id, err := svc.CreateRoom(ctx)
	require.NoError(t, err)
	assert.Equal(t, "room-1", id)

	v, err := store.LoadVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Zero(t, rec.count(), "nobody can listen to a room before it exists")

	_, err = svc.CreateRoom(ctx)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict, "ids are never reused")
}

func TestCommandsBroadcastCommittedEvents(t *testing.T) {
	store := repo.NewMemoryEventStore()
	svc, rec := newService(t, store)
	ctx := context.Background()

	id, err := svc.CreateRoom(ctx)
	require.NoError(t, err)
	for _, p := range []string{"A", "B", "C", "D"} {
		require.NoError(t, svc.JoinRoom(ctx, id, p, "name-"+p))
		last := rec.last(t)
		require.Len(t, last.events, 1)
		assert.Equal(t, domain.EventPlayerJoinedRoom, last.events[0].Type)
	}

	require.NoError(t, svc.StartGame(ctx, id, "A"))
	last := rec.last(t)
	assert.Equal(t, domain.StatusPlaying, last.state.Status)
	assert.Equal(t, domain.EventGameStarted, last.events[0].Type)

	history, err := store.LoadHistory(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, last.events, history[len(history)-len(last.events):], "broadcast in stored order")

	got, err := svc.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, last.state, got)
}

func TestRejectedCommandStoresNothing(t *testing.T) {
	store := repo.NewMemoryEventStore()
	svc, rec := newService(t, store)
	ctx := context.Background()

	id, err := svc.CreateRoom(ctx)
	require.NoError(t, err)
	for _, p := range []string{"A", "B", "C", "D"} {
		require.NoError(t, svc.JoinRoom(ctx, id, p, p))
	}
	require.NoError(t, svc.StartGame(ctx, id, "A"))
	before, err := store.LoadVersion(ctx, id)
	require.NoError(t, err)
	calls := rec.count()

	state, err := svc.GetGame(ctx, id)
	require.NoError(t, err)
	cur, _ := state.CurrentPlayer()

	// The current player may never draw from itself.
	err = svc.DrawCard(ctx, id, cur.ID, cur.ID, 0)
	require.ErrorIs(t, err, domain.ErrNotYourTurn)
	assert.True(t, domain.IsValidationError(err))

	err = svc.JoinRoom(ctx, id, "E", "E")
	require.ErrorIs(t, err, domain.ErrGameAlreadyStarted)

	after, err := store.LoadVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, calls, rec.count())
}

func TestUnknownGame(t *testing.T) {
	svc, rec := newService(t, repo.NewMemoryEventStore())
	ctx := context.Background()

	err := svc.JoinRoom(ctx, "missing", "A", "A")
	require.ErrorIs(t, err, domain.ErrAggregateNotFound)
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.GetGame(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrAggregateNotFound)
	assert.Zero(t, rec.count())
}

func TestLostRaceIsRetried(t *testing.T) {
	store := &racingStore{EventStore: repo.NewMemoryEventStore()}
	svc, rec := newService(t, store)
	ctx := context.Background()

	id, err := svc.CreateRoom(ctx)
	require.NoError(t, err)
	store.appends = 0
	store.races = 1

	require.NoError(t, svc.JoinRoom(ctx, id, "A", "alice"))
	assert.Equal(t, 2, store.appends)

	state := rec.last(t).state
	require.Len(t, state.Players, 2, "rerun saw the rival's join")
	assert.Equal(t, "rival-0", state.Players[0].ID)
	assert.Equal(t, "A", state.Players[1].ID)
}

func TestRetryBudgetExhausted(t *testing.T) {
	store := &racingStore{EventStore: repo.NewMemoryEventStore()}
	svc, rec := newService(t, store)
	ctx := context.Background()

	id, err := svc.CreateRoom(ctx)
	require.NoError(t, err)
	store.appends = 0
	store.races = fastRetry.MaxAttempts

	err = svc.JoinRoom(ctx, id, "A", "alice")
	require.ErrorIs(t, err, domain.ErrRetryExhausted)
	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.False(t, domain.IsRetryable(err))
	assert.True(t, domain.IsConflict(err))
	assert.Equal(t, fastRetry.MaxAttempts, store.appends)
	assert.Zero(t, rec.count())
}

func TestStoreFailureIsNotRetried(t *testing.T) {
	mem := repo.NewMemoryEventStore()
	ctx := context.Background()
	g, err := domain.NewGame("g1")
	require.NoError(t, err)
	require.NoError(t, mem.Append(ctx, "g1", 0, g.PendingEvents()))

	store := &brokenStore{EventStore: mem}
	svc, _ := newService(t, store)

	err = svc.JoinRoom(ctx, "g1", "A", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Equal(t, 1, store.appends)
}

type fixedIndex int

func (f fixedIndex) IntN(n int) int            { return int(f) % n }
func (fixedIndex) Shuffle(int, func(i, j int)) {}

func TestRandomDrawIgnoresRequestedIndex(t *testing.T) {
	svc, rec := newService(t, repo.NewMemoryEventStore(), WithRandomDraw(fixedIndex(0)))
	ctx := context.Background()

	id, err := svc.CreateRoom(ctx)
	require.NoError(t, err)
	for _, p := range []string{"A", "B", "C", "D"} {
		require.NoError(t, svc.JoinRoom(ctx, id, p, p))
	}
	require.NoError(t, svc.StartGame(ctx, id, "A"))

	state, err := svc.GetGame(ctx, id)
	require.NoError(t, err)
	cur, _ := state.CurrentPlayer()
	nxt, _ := state.NextPlayer()

	require.NoError(t, svc.DrawCard(ctx, id, cur.ID, nxt.ID, 999))
	drawn, ok := rec.last(t).events[0].Data.(domain.CardDrawn)
	require.True(t, ok)
	assert.Equal(t, 0, drawn.CardIndex)
	assert.Equal(t, cur.Hand[0], drawn.Card)
}

func TestConcurrentJoinsAllLand(t *testing.T) {
	store := repo.NewMemoryEventStore()
	svc, _ := newService(t, store, WithRetryPolicy(RetryPolicy{MaxAttempts: 10, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}))
	ctx := context.Background()

	id, err := svc.CreateRoom(ctx)
	require.NoError(t, err)

	var eg errgroup.Group
	for _, p := range []string{"A", "B", "C", "D"} {
		eg.Go(func() error { return svc.JoinRoom(ctx, id, p, p) })
	}
	require.NoError(t, eg.Wait())

	state, err := svc.GetGame(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.Players, 4)

	v, err := store.LoadVersion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
}

func TestRandomDrawAcrossGamesInParallel(t *testing.T) {
	shared := rand.New(rand.NewPCG(1, 2))
	svc, _ := newService(t, repo.NewMemoryEventStore(),
		WithGameOptions(domain.WithRandomizer(shared)),
		WithRandomDraw(shared),
	)
	ctx := context.Background()

	ids := make([]string, 8)
	for i := range ids {
		id, err := svc.CreateRoom(ctx)
		require.NoError(t, err)
		for _, p := range []string{"A", "B", "C", "D"} {
			require.NoError(t, svc.JoinRoom(ctx, id, p, p))
		}
		ids[i] = id
	}

	var eg errgroup.Group
	for _, id := range ids {
		eg.Go(func() error {
			if err := svc.StartGame(ctx, id, "A"); err != nil {
				return err
			}
			for range 20 {
				state, err := svc.GetGame(ctx, id)
				if err != nil {
					return err
				}
				if state.Status == domain.StatusEnd {
					return nil
				}
				cur, _ := state.CurrentPlayer()
				nxt, _ := state.NextPlayer()
				if err := svc.DrawCard(ctx, id, cur.ID, nxt.ID, 999); err != nil {
					return fmt.Errorf("game %s: %w", id, err)
				}
			}
			return nil
		})
	}
	require.NoError(t, eg.Wait())

	for _, id := range ids {
		state, err := svc.GetGame(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.DeckSize, state.CardCount(), "game %s", id)
	}
}
