package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrUnsupportedConnString is returned for connection strings that are
// neither PostgreSQL URLs nor SQLite file URIs.
var ErrUnsupportedConnString = errors.New("unsupported database connection string")

const pingTimeout = 10 * time.Second

// Database holds the SQL connection pool and the driver it was opened with.
type Database struct {
	*sql.DB
	Driver string
}

// DriverFor maps a Dendrite connection string onto a database/sql driver.
func DriverFor(connString string) (string, error) {
	switch {
	case strings.HasPrefix(connString, "postgres://"), strings.HasPrefix(connString, "postgresql://"):
		return "pgx", nil
	case strings.HasPrefix(connString, "file:"):
		return "sqlite", nil
	}
	return "", fmt.Errorf("%w: expected postgres:// or file: prefix", ErrUnsupportedConnString)
}

// New creates, configures, and verifies a connection pool to the catalog.
// It returns an error if opening or pinging the database fails.
func New(cfg Config) (*Database, error) {
	driver, err := DriverFor(cfg.ConnectionString)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, cfg.ConnectionString)
	if err != nil {
		return nil, err
	}

	// configure pooling
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// verify connectivity
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		// close the connection pool before returning the ping error
		if cErr := db.Close(); cErr != nil {
			return nil, errors.Join(err, cErr)
		}
		return nil, fmt.Errorf("could not reach %s database: %w", driver, err)
	}
	return &Database{DB: db, Driver: driver}, nil
}
