package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLite wraps an embedded database file opened through modernc.org/sqlite.
type SQLite struct {
	DB  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path and brings the
// schema up to date.
func OpenSQLite(ctx context.Context, path string, log *slog.Logger) (*SQLite, error) {
	cleanPath := filepath.Clean(path)
	dsn := cleanPath +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cleanPath, err)
	}
	// SQLite has a single writer; funnel everything through one connection.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", cleanPath, err)
	}
	if err := migrate(ctx, sqlDB, dialectSQLite, log); err != nil {
		sqlDB.Close()
		return nil, err
	}

	log.Info("sqlite database opened", "path", cleanPath)
	return &SQLite{DB: sqlDB, log: log}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	s.log.Info("sqlite database closed")
	return nil
}

// Health checks that the database answers.
func (s *SQLite) Health(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
