package domain

import (
	"errors"
	"fmt"
)

// Rules tell an Aggregate how to fold events into its state.
type Rules[S any] struct {
	// When returns the state after ev. It must not modify its input.
	When func(S, Event) (S, error)

	// Invariant is checked before and after every event.
	Invariant func(S) error

	// Clone returns a deep copy of the state.
	Clone func(S) S
}

// Aggregate holds the replay and apply machinery shared by event-sourced
// aggregates: a folded state, the number of events applied so far, and the
// events produced since the last load.
type Aggregate[S any] struct {
	state   S
	version int
	pending []Event
	rules   Rules[S]
}

func newAggregate[S any](rules Rules[S], zero S, creation Event) (*Aggregate[S], error) {
	a := &Aggregate[S]{state: zero, rules: rules}
	if err := a.apply(creation); err != nil {
		return nil, err
	}
	return a, nil
}

func rehydrate[S any](rules Rules[S], zero S, history []Event) (*Aggregate[S], error) {
	if len(history) == 0 {
		return nil, NewError(ErrAggregateNotFound, "empty history")
	}
	a := &Aggregate[S]{state: zero, rules: rules}
	for i, ev := range history {
		if err := a.apply(ev); err != nil {
			return nil, fmt.Errorf("replay event %d (%s): %w", i+1, ev.Type, err)
		}
	}
	a.pending = nil
	return a, nil
}

// apply folds ev into the state. On failure nothing changes.
func (a *Aggregate[S]) apply(ev Event) error {
	next, err := a.fold(a.state, ev)
	if err != nil {
		return err
	}
	a.state = next
	a.version++
	a.pending = append(a.pending, ev)
	return nil
}

func (a *Aggregate[S]) fold(state S, ev Event) (S, error) {
	if err := a.rules.Invariant(state); err != nil {
		return state, asInvariant(err, "before %s", ev.Type)
	}
	next, err := a.rules.When(state, ev)
	if err != nil {
		return state, err
	}
	if err := a.rules.Invariant(next); err != nil {
		return state, asInvariant(err, "after %s", ev.Type)
	}
	return next, nil
}

// Version is the number of events folded into the state, pending included.
func (a *Aggregate[S]) Version() int { return a.version }

// State returns a copy of the current state.
func (a *Aggregate[S]) State() S { return a.rules.Clone(a.state) }

// PendingEvents returns the events produced since load, in order.
func (a *Aggregate[S]) PendingEvents() []Event {
	out := make([]Event, len(a.pending))
	copy(out, a.pending)
	return out
}

// ClearPending forgets pending events, typically after they were persisted.
func (a *Aggregate[S]) ClearPending() { a.pending = nil }

// Execute runs a command against a working copy. The copy replaces the
// aggregate state only if fn succeeds, so a failed command leaves no events.
func (a *Aggregate[S]) Execute(fn func(*Tx[S]) error) error {
	tx := &Tx[S]{agg: a, state: a.rules.Clone(a.state)}
	if err := fn(tx); err != nil {
		return err
	}
	a.state = tx.state
	a.version += len(tx.events)
	a.pending = append(a.pending, tx.events...)
	return nil
}

// Tx is the working copy a command mutates through Apply.
type Tx[S any] struct {
	agg    *Aggregate[S]
	state  S
	events []Event
}

// Apply folds ev into the working copy.
func (tx *Tx[S]) Apply(ev Event) error {
	next, err := tx.agg.fold(tx.state, ev)
	if err != nil {
		return err
	}
	tx.state = next
	tx.events = append(tx.events, ev)
	return nil
}

// State is the working copy as of the last Apply. Callers must not mutate it.
func (tx *Tx[S]) State() S { return tx.state }

func asInvariant(err error, format string, args ...any) error {
	if errors.Is(err, ErrInvariantViolation) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
	}
	return invariantError("%s: %v", fmt.Sprintf(format, args...), err)
}
