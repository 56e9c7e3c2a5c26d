package storage

import (
	"context"
	"fmt"
)

// Supported backend drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open creates the backend named by driver. path is used by sqlite and dsn
// by postgres.
func Open(ctx context.Context, driver, path, dsn string) (Storage, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLite(path)
	case DriverPostgres:
		return NewPostgres(ctx, dsn)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", driver)
	}
}
