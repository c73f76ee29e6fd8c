package config

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
)

// PostgresSQLX opens a configured *sqlx.DB (lib/pq) for the given DSN and pings it.
func PostgresSQLX(ctx context.Context, dsn string, cfg PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
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

// PostgresSQLXTestConfig opens a *sqlx.DB for the test database without pinging it.
func PostgresSQLXTestConfig() (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", PostgresTestDSN())
	if err != nil {
		return nil, err
	}

	configureSQLPool(db, DefaultAppConfig().Postgres)

	return db, nil
}
