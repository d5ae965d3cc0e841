package repo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulljoker/src/core/domain"
	"pulljoker/src/infra/db"
)

// PostgresEventStore stores events in the event_store table.
type PostgresEventStore struct {
	pg   *db.Postgres
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewPostgresEventStore creates a store over a connected, migrated pool.
func NewPostgresEventStore(pg *db.Postgres, log *slog.Logger) *PostgresEventStore {
	return &PostgresEventStore{
		pg:   pg,
		pool: pg.Pool,
		log:  log,
	}
}

func (r *PostgresEventStore) Health(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresEventStore) Close() error {
	r.pg.Close()
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func (r *PostgresEventStore) LoadVersion(ctx context.Context, aggregateID string) (int, error) {
	var version int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM event_store WHERE aggregate_id = $1`,
		aggregateID,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("load version of %s: %w", aggregateID, err)
	}
	return version, nil
}

func (r *PostgresEventStore) LoadHistory(ctx context.Context, aggregateID string) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT version, event_id::text, event_type, event_data, occurred_on
		FROM event_store
		WHERE aggregate_id = $1
		ORDER BY version ASC`,
		aggregateID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history of %s: %w", aggregateID, err)
	}

	stored, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (eventRow, error) {
		e := eventRow{AggregateID: aggregateID}
		err := row.Scan(&e.Version, &e.EventID, &e.EventType, &e.EventData, &e.OccurredOn)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan events of %s: %w", aggregateID, err)
	}
	if len(stored) == 0 {
		return nil, domain.NewError(domain.ErrAggregateNotFound, "aggregate %s", aggregateID)
	}
	return decodeRows(stored)
}

func (r *PostgresEventStore) Append(ctx context.Context, aggregateID string, expectedVersion int, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows, err := encodeRows(aggregateID, expectedVersion, events)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback(ctx)

	var head int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM event_store WHERE aggregate_id = $1`,
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

	batch := &pgx.Batch{}
	for _, e := range rows {
		batch.Queue(`
			INSERT INTO event_store (aggregate_id, version, event_id, event_type, event_data, occurred_on)
			VALUES ($1, $2, $3::uuid, $4, $5::jsonb, $6)`,
			e.AggregateID, e.Version, e.EventID, e.EventType, string(e.EventData), e.OccurredOn,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return conflictError(aggregateID, expectedVersion)
		}
		return fmt.Errorf("insert events of %s: %w", aggregateID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return conflictError(aggregateID, expectedVersion)
		}
		return fmt.Errorf("commit append: %w", err)
	}
	r.log.Debug("events appended", "game_id", aggregateID, "from_version", expectedVersion+1, "count", len(rows))
	return nil
}
