package config

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

const (
	defaultMaxOpenConnections = 50
	defaultMaxIdleConnections = 10
)

// PostgresSQLDB opens a configured *sql.DB (lib/pq) for the given DSN and pings it.
func PostgresSQLDB(ctx context.Context, dsn string, cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	configureSQLPool(db, cfg)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, pingErr
	}

	return db, nil
}

// PostgresSQLDBTestConfig opens a *sql.DB for the test database without pinging it.
func PostgresSQLDBTestConfig() (*sql.DB, error) {
	db, err := sql.Open("postgres", PostgresTestDSN())
	if err != nil {
		return nil, err
	}

	configureSQLPool(db, DefaultAppConfig().Postgres)

	return db, nil
}

type sqlPool interface {
	SetMaxOpenConns(n int)
	SetMaxIdleConns(n int)
	SetConnMaxLifetime(d time.Duration)
	SetConnMaxIdleTime(d time.Duration)
}

func configureSQLPool(db sqlPool, cfg PostgresConfig) {
	maxOpen := defaultMaxOpenConnections
	if cfg.MaxConnections > 0 {
		maxOpen = int(cfg.MaxConnections)
	}

	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(min(defaultMaxIdleConnections, maxOpen))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)
}
