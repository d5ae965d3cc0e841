package repo

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"pulljoker/src/core/domain"
)

// eventRow is one stored event, engine independent.
type eventRow struct {
	AggregateID string
	Version     int
	EventID     string
	EventType   string
	EventData   []byte
	OccurredOn  time.Time
}

func encodeRows(aggregateID string, expectedVersion int, events []domain.Event) ([]eventRow, error) {
	rows := make([]eventRow, len(events))
	for i, e := range events {
		data, err := domain.EncodeData(e)
		if err != nil {
			return nil, err
		}
		rows[i] = eventRow{
			AggregateID: aggregateID,
			Version:     expectedVersion + i + 1,
			EventID:     e.ID.String(),
			EventType:   string(e.Type),
			EventData:   data,
			OccurredOn:  e.OccurredOn.UTC(),
		}
	}
	return rows, nil
}

// decodeRows turns rows back into events, checking that versions run 1..n.
func decodeRows(rows []eventRow) ([]domain.Event, error) {
	events := make([]domain.Event, len(rows))
	for i, r := range rows {
		if r.Version != i+1 {
			return nil, domain.NewError(domain.ErrInvariantViolation,
				"aggregate %s: event version gap: expected %d got %d", r.AggregateID, i+1, r.Version)
		}
		id, err := uuid.Parse(r.EventID)
		if err != nil {
			return nil, fmt.Errorf("event %d id: %w", r.Version, err)
		}
		ev, err := domain.DecodeEvent(id, domain.EventType(r.EventType), r.EventData, r.OccurredOn.UTC())
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", r.Version, err)
		}
		events[i] = ev
	}
	return events, nil
}

func conflictError(aggregateID string, expectedVersion int) error {
	return domain.NewError(domain.ErrConcurrencyConflict,
		"aggregate %s already has events past version %d", aggregateID, expectedVersion)
}

func gapError(aggregateID string, expectedVersion, head int) error {
	return domain.NewError(domain.ErrInvariantViolation,
		"aggregate %s: append at version %d would skip past head %d", aggregateID, expectedVersion, head)
}

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
