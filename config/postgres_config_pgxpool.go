package config

import (
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPGXPoolConfig creates a pgxpool.Config for the given DSN with the pool settings of cfg.
func PostgresPGXPoolConfig(dsn string, cfg PostgresConfig) (*pgxpool.Config, error) {
	dbConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConnections > 0 {
		dbConfig.MaxConns = cfg.MaxConnections
	}

	if cfg.MinConnections > 0 {
		dbConfig.MinConns = cfg.MinConnections
	}

	if cfg.MaxConnLifetime > 0 {
		dbConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}

	if cfg.MaxConnIdleTime > 0 {
		dbConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	if cfg.ConnectTimeout > 0 {
		dbConfig.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	return dbConfig, nil
}

// PostgresPGXPoolTestConfig creates a pgxpool.Config for the test database.
func PostgresPGXPoolTestConfig() *pgxpool.Config {
	dbConfig, err := PostgresPGXPoolConfig(PostgresTestDSN(), DefaultAppConfig().Postgres)
	if err != nil {
		log.Fatal("Failed to create a config, error: ", err)
	}

	return dbConfig
}
