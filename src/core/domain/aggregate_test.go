package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterRules folds every event into a count and rejects counts above 3.
var counterRules = Rules[int]{
	When: func(n int, ev Event) (int, error) {
		if _, ok := ev.Data.(GameEnded); ok {
			return n, errors.New("counter does not end")
		}
		return n + 1, nil
	},
	Invariant: func(n int) error {
		if n > 3 {
			return errors.New("too many")
		}
		return nil
	},
	Clone: func(n int) int { return n },
}

func tick() Event {
	return NewEvent(RoomCreated{GameID: "c", Status: StatusWaiting}, time.Unix(0, 0))
}

func TestAggregateApplyTracksVersionAndPending(t *testing.T) {
	a, err := newAggregate(counterRules, 0, tick())
	require.NoError(t, err)

	require.NoError(t, a.apply(tick()))
	assert.Equal(t, 2, a.Version())
	assert.Equal(t, 2, a.State())
	assert.Len(t, a.PendingEvents(), 2)

	a.ClearPending()
	assert.Empty(t, a.PendingEvents())
	assert.Equal(t, 2, a.Version())
}

func TestAggregateInvariantViolationRecordsNothing(t *testing.T) {
	a, err := rehydrate(counterRules, 0, []Event{tick(), tick(), tick()})
	require.NoError(t, err)
	assert.Empty(t, a.PendingEvents())

	err = a.apply(tick())
	require.ErrorIs(t, err, ErrInvariantViolation)
	assert.Equal(t, 3, a.Version())
	assert.Equal(t, 3, a.State())
	assert.Empty(t, a.PendingEvents())
}

func TestAggregateExecuteIsAllOrNothing(t *testing.T) {
	a, err := newAggregate(counterRules, 0, tick())
	require.NoError(t, err)
	a.ClearPending()

	err = a.Execute(func(tx *Tx[int]) error {
		if err := tx.Apply(tick()); err != nil {
			return err
		}
		assert.Equal(t, 2, tx.State())
		return tx.Apply(NewEvent(GameEnded{}, time.Unix(0, 0)))
	})
	require.Error(t, err)
	assert.Equal(t, 1, a.Version())
	assert.Equal(t, 1, a.State())
	assert.Empty(t, a.PendingEvents())

	require.NoError(t, a.Execute(func(tx *Tx[int]) error {
		return tx.Apply(tick())
	}))
	assert.Equal(t, 2, a.Version())
	assert.Len(t, a.PendingEvents(), 1)
}

func TestRehydrateEmptyHistory(t *testing.T) {
	_, err := rehydrate(counterRules, 0, nil)
	require.ErrorIs(t, err, ErrAggregateNotFound)
	assert.True(t, IsNotFound(err))
}

func TestRehydrateWrapsReplayFailure(t *testing.T) {
	_, err := rehydrate(counterRules, 0, []Event{tick(), tick(), tick(), tick()})
	require.ErrorIs(t, err, ErrInvariantViolation)
	assert.Contains(t, err.Error(), "replay event 4")
}
