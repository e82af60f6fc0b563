package historyutils

import (
	"context"
	"errors"
	"fmt"

	"github.com/papercomputeco/ragdesk/pkg/history"
	"github.com/papercomputeco/ragdesk/pkg/history/inmemory"
	"github.com/papercomputeco/ragdesk/pkg/history/postgres"
	"github.com/papercomputeco/ragdesk/pkg/history/sqlite"
)

// Supported history driver names.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type NewDriverOpts struct {
	DriverType  string
	SQLitePath  string
	PostgresDSN string
}

// NewDriver opens the history driver named by o.DriverType. An empty type
// selects the in-memory driver.
func NewDriver(ctx context.Context, o *NewDriverOpts) (history.Driver, error) {
	switch o.DriverType {
	case "", DriverMemory:
		return inmemory.NewDriver(), nil
	case DriverSQLite:
		if o.SQLitePath == "" {
			return nil, errors.New("history.sqlite_path is required for the sqlite driver")
		}
		return sqlite.NewDriver(ctx, o.SQLitePath)
	case DriverPostgres:
		if o.PostgresDSN == "" {
			return nil, errors.New("history.postgres_dsn is required for the postgres driver")
		}
		return postgres.NewDriver(ctx, o.PostgresDSN)
	default:
		return nil, fmt.Errorf("unsupported history driver: %s", o.DriverType)
	}
}
