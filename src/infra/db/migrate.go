package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrations embed.FS

type dialect struct {
	goose goose.Dialect
	dir   string
}

var (
	dialectPostgres = dialect{goose: goose.DialectPostgres, dir: "migrations/postgres"}
	dialectSQLite   = dialect{goose: goose.DialectSQLite3, dir: "migrations/sqlite"}
)

func migrate(ctx context.Context, sqlDB *sql.DB, d dialect, log *slog.Logger) error {
	fsys, err := fs.Sub(migrations, d.dir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	provider, err := goose.NewProvider(d.goose, sqlDB, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		log.Info("migration applied", "dialect", d.goose, "source", r.Source.Path, "duration", r.Duration)
	}
	return nil
}
