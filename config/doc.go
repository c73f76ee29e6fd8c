// Package config provides the application configuration of the overdue notifier and factory
// functions for PostgreSQL connections (pgx.Pool, sql.DB, sqlx.DB) and OpenTelemetry providers.
//
// The application configuration is read from a YAML file. ${VAR} placeholders are expanded from the
// environment before parsing, so secrets like the SMTP password can stay out of the file.
//
// The test DSNs point at the docker-compose database used by the integration tests.
package config
