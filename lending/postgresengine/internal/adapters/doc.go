// Package adapters provide database adapter implementations for the PostgreSQL lending stores.
//
// It supports pgxpool.Pool (optionally with a read replica), sql.DB and sqlx.DB behind a common
// DBAdapter interface, so the stores work with any supported connection type.
package adapters
