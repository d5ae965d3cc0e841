// Package db opens the databases backing the event store and keeps their
// schema current.
//
// Two engines are supported:
//   - PostgreSQL through a pgx connection pool (New)
//   - an embedded SQLite file through modernc.org/sqlite (OpenSQLite)
//
// Both apply the goose migrations embedded under migrations/<dialect> before
// returning, so callers always get a ready schema:
//
//	sqlite, err := db.OpenSQLite(ctx, cfg.Store.SQLitePath, log)
//	if err != nil {
//	    return err
//	}
//	defer sqlite.Close()
package db
