package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pulljoker/src/core/domain"
	"pulljoker/src/infra/db"
)

// SQLiteEventStore stores events in an embedded SQLite database.
type SQLiteEventStore struct {
	sqlite *db.SQLite
	log    *slog.Logger
}

// NewSQLiteEventStore creates a store over an opened, migrated database.
func NewSQLiteEventStore(s *db.SQLite, log *slog.Logger) *SQLiteEventStore {
	return &SQLiteEventStore{sqlite: s, log: log}
}

func (s *SQLiteEventStore) Health(ctx context.Context) error {
	return s.sqlite.Health(ctx)
}

func (s *SQLiteEventStore) Close() error {
	return s.sqlite.Close()
}

func (s *SQLiteEventStore) LoadVersion(ctx context.Context, aggregateID string) (int, error) {
	var version int
	err := s.sqlite.DB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM event_store WHERE aggregate_id = ?`,
		aggregateID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("load version of %s: %w", aggregateID, err)
	}
	return version, nil
}

func (s *SQLiteEventStore) LoadHistory(ctx context.Context, aggregateID string) ([]domain.Event, error) {
	rows, err := s.sqlite.DB.QueryContext(ctx, `
		SELECT version, event_id, event_type, event_data, occurred_on
		FROM event_store
		WHERE aggregate_id = ?
		ORDER BY version ASC`,
		aggregateID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", aggregateID, err)
	}
	defer rows.Close()

	var out []eventRow
	for rows.Next() {
		r := eventRow{AggregateID: aggregateID}
		var data string
		var occurred int64
		if err := rows.Scan(&r.Version, &r.EventID, &r.EventType, &data, &occurred); err != nil {
			return nil, fmt.Errorf("scan event of %s: %w", aggregateID, err)
		}
		r.EventData = []byte(data)
		r.OccurredOn = fromMillis(occurred)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events of %s: %w", aggregateID, err)
	}
	if len(out) == 0 {
		return nil, domain.NewError(domain.ErrAggregateNotFound, "aggregate %s", aggregateID)
	}
	return decodeRows(out)
}

func (s *SQLiteEventStore) Append(ctx context.Context, aggregateID string, expectedVersion int, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows, err := encodeRows(aggregateID, expectedVersion, events)
	if err != nil {
		return err
	}

	tx, err := s.sqlite.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var head int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM event_store WHERE aggregate_id = ?`,
		aggregateID,
	).Scan(&head); err != nil {
		return fmt.Errorf("read head of %s: %w", aggregateID, err)
	}
	switch {
	case head > expectedVersion:
		return conflictError(aggregateID, expectedVersion)
	case head < expectedVersion:
		return gapError(aggregateID, expectedVersion, head)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO event_store (aggregate_id, version, event_id, event_type, event_data, occurred_on)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare append: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.AggregateID, r.Version, r.EventID, r.EventType, string(r.EventData), toMillis(r.OccurredOn),
		); err != nil {
			if isConstraintError(err) {
				return conflictError(aggregateID, expectedVersion)
			}
			return fmt.Errorf("insert event %d of %s: %w", r.Version, aggregateID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isConstraintError(err) {
			return conflictError(aggregateID, expectedVersion)
		}
		return fmt.Errorf("commit append: %w", err)
	}
	s.log.Debug("events appended", "game_id", aggregateID, "from_version", expectedVersion+1, "count", len(rows))
	return nil
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT ||
		code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
