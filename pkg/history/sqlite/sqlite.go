// Package sqlite provides a SQLite-backed history driver using ent.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/mattn/go-sqlite3"

	entdriver "github.com/papercomputeco/ragdesk/pkg/history/ent/driver"
)

// Driver implements history.Driver using SQLite via the ent driver.
type Driver struct {
	*entdriver.EntDriver
}

// NewDriver creates a new SQLite-backed history store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(ctx context.Context, dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, and the
	// pragma below is per connection.
	db.SetMaxOpenConns(1)

	// ent's migration refuses to run on SQLite with foreign keys off.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	d := &entdriver.EntDriver{
		Driver: entsql.OpenDB(dialect.SQLite, db),
	}
	if err := d.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{EntDriver: d}, nil
}
